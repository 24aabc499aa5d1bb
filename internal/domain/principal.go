package domain

import "time"

// Principal is the authenticated context for a session. It is a cache
// of the user row, not an authority: trust-sensitive operations must
// re-fetch the canonical row.
type Principal struct {
	UserID   string    `json:"user_id"`
	Role     Role      `json:"role"`
	TenantID *string   `json:"tenant_id,omitempty"`
	Name     string    `json:"name"`
	Email    string    `json:"email"`
	IssuedAt time.Time `json:"issued_at"`
}

// PrincipalFromUser projects the cached view of a user row.
func PrincipalFromUser(u *User, now time.Time) *Principal {
	return &Principal{
		UserID:   u.ID,
		Role:     u.Role,
		TenantID: u.TenantID,
		Name:     u.Name,
		Email:    u.Email,
		IssuedAt: now,
	}
}
