package dto

// ResolveRequest carries the navigation inputs of one page view. The
// fragment is sent without the leading '#'.
type ResolveRequest struct {
	Host     string `json:"host"`
	Fragment string `json:"fragment"`
}

// PrincipalResponse is the optimistic principal echo.
type PrincipalResponse struct {
	UserID   string  `json:"user_id"`
	Role     string  `json:"role"`
	TenantID *string `json:"tenant_id,omitempty"`
	Name     string  `json:"name"`
	Email    string  `json:"email"`
}

// ResolveResponse tells the client which surface to render.
type ResolveResponse struct {
	Surface    string             `json:"surface"`
	Fragment   string             `json:"fragment"`
	DomainType string             `json:"domain_type"`
	TenantID   *string            `json:"tenant_id,omitempty"`
	Principal  *PrincipalResponse `json:"principal,omitempty"`
}

// ScopeResponse lists the caller's visible identifiers. Partial marks
// a fail-closed result from a degraded expansion.
type ScopeResponse struct {
	UserIDs []string `json:"user_ids"`
	Partial bool     `json:"partial"`
}

// ProvisionDomainRequest payload for domain provisioning.
type ProvisionDomainRequest struct {
	Domain   string `json:"domain"`
	Type     string `json:"type"`
	TenantID string `json:"tenant_id,omitempty"`
}

// DomainMappingResponse echoes one mapping.
type DomainMappingResponse struct {
	ID       string `json:"id"`
	Domain   string `json:"domain"`
	TenantID string `json:"tenant_id"`
	Type     string `json:"type"`
	Active   bool   `json:"active"`
}
