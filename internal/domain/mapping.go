package domain

import "time"

// DomainType distinguishes public member domains from operator ones.
type DomainType string

const (
	DomainTypeMain  DomainType = "main"
	DomainTypeAdmin DomainType = "admin"
)

// ParseDomainType validates a wire-level domain type value.
func ParseDomainType(s string) (DomainType, bool) {
	switch DomainType(s) {
	case DomainTypeMain, DomainTypeAdmin:
		return DomainType(s), true
	}
	return "", false
}

// DomainMapping binds a host name to the tenant that owns it.
// Retired mappings are deactivated, never deleted.
type DomainMapping struct {
	ID        string
	Domain    string
	TenantID  string
	Type      DomainType
	Active    bool
	CreatedAt time.Time
}
