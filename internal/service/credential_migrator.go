package service

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/spec-kit/wallet-access/internal/auth"
	"github.com/spec-kit/wallet-access/internal/events"
	"github.com/spec-kit/wallet-access/internal/observability"
	"github.com/spec-kit/wallet-access/internal/repository"
)

// CredentialMigrator rewrites legacy plaintext password rows to bcrypt
// on the next successful login, so the compatibility path eventually
// disappears.
type CredentialMigrator struct {
	users      repository.UserRepository
	dispatcher events.Dispatcher
	metrics    *observability.Metrics
	logger     *zap.Logger
	bcryptCost int
}

// NewCredentialMigrator builds the migrator.
func NewCredentialMigrator(users repository.UserRepository, dispatcher events.Dispatcher, metrics *observability.Metrics, logger *zap.Logger, bcryptCost int) *CredentialMigrator {
	return &CredentialMigrator{
		users:      users,
		dispatcher: dispatcher,
		metrics:    metrics,
		logger:     logger,
		bcryptCost: bcryptCost,
	}
}

// RegisterHandlers subscribes to legacy-credential sightings.
func (m *CredentialMigrator) RegisterHandlers() {
	if m.dispatcher == nil {
		return
	}
	m.dispatcher.Subscribe(events.EventLegacyCredentialSeen, m.handleLegacyCredential)
}

func (m *CredentialMigrator) handleLegacyCredential(ctx context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.LegacyCredentialSeenPayload)
	if !ok {
		return fmt.Errorf("unexpected payload type %T", event.Payload)
	}

	hash, err := auth.HashPassword(payload.Plaintext, m.bcryptCost)
	if err != nil {
		return fmt.Errorf("hash legacy credential: %w", err)
	}
	if err := m.users.UpdatePasswordHash(ctx, event.SubjectID, hash); err != nil {
		return fmt.Errorf("rewrite legacy credential: %w", err)
	}

	m.metrics.RecordLegacyMigration()
	m.logger.Info("legacy credential migrated", zap.String("user_id", event.SubjectID))
	return nil
}
