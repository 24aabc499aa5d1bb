package events

import (
	"time"

	"github.com/spec-kit/wallet-access/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventLoginSucceeded           EventType = "login_succeeded"
	EventLegacyCredentialSeen     EventType = "legacy_credential_seen"
	EventSubordinateCreated       EventType = "subordinate_created"
	EventStatusChanged            EventType = "status_changed"
	EventSessionRevoked           EventType = "session_revoked"
	EventDomainMappingProvisioned EventType = "domain_mapping_provisioned"
)

// Event represents a domain event emitted by services. SubjectID is
// the account the event is about.
type Event struct {
	ID        string      `json:"id"`
	Type      EventType   `json:"type"`
	SubjectID string      `json:"subject_id"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   interface{} `json:"payload"`
}

// LoginSucceededPayload payload.
type LoginSucceededPayload struct {
	Role   domain.Role `json:"role"`
	Method string      `json:"method"` // "password" or "federated"
}

// LegacyCredentialSeenPayload carries what the migration handler needs
// to rewrite a plaintext row to bcrypt.
type LegacyCredentialSeenPayload struct {
	Plaintext string `json:"-"`
}

// SubordinateCreatedPayload payload.
type SubordinateCreatedPayload struct {
	ParentID string      `json:"parent_id"`
	Role     domain.Role `json:"role"`
}

// StatusChangedPayload payload.
type StatusChangedPayload struct {
	OldStatus domain.UserStatus `json:"old_status"`
	NewStatus domain.UserStatus `json:"new_status"`
	ActorID   string            `json:"actor_id"`
}

// SessionRevokedPayload payload.
type SessionRevokedPayload struct {
	Reason string `json:"reason"`
}

// DomainMappingProvisionedPayload payload.
type DomainMappingProvisionedPayload struct {
	Domain string            `json:"domain"`
	Type   domain.DomainType `json:"type"`
}
