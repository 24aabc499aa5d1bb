// Package routing decides which application surface a session may see.
// Both the guard and the transition table are pure functions: the
// principal is passed in explicitly and never mutated here.
package routing

import (
	"github.com/spec-kit/wallet-access/internal/domain"
)

// GuardResult is the outcome of an authorization check. On deny,
// Redirect names the credential-entry surface for the current domain
// type; Reason never says more than that permission was insufficient.
type GuardResult struct {
	Allowed  bool
	Reason   string
	Redirect domain.Surface
}

// Authorize checks role-vs-domain-type and role-vs-surface
// compatibility. Master is not reachable through the generic operator
// surface: the master console demands the master role on top of the
// dedicated fragment gate applied by the router.
func Authorize(principal *domain.Principal, domainType domain.DomainType, surface domain.Surface) GuardResult {
	deny := GuardResult{
		Allowed:  false,
		Reason:   "insufficient permission",
		Redirect: LoginSurface(domainType),
	}

	if principal == nil {
		return deny
	}

	switch surface {
	case domain.SurfaceMasterConsole:
		if principal.Role == domain.RoleMaster {
			return GuardResult{Allowed: true}
		}
	case domain.SurfaceOperatorConsole:
		if principal.Role.IsOperator() && domainType == domain.DomainTypeAdmin {
			return GuardResult{Allowed: true}
		}
	case domain.SurfacePublicApp:
		if principal.Role.IsMember() && domainType == domain.DomainTypeMain {
			return GuardResult{Allowed: true}
		}
	case domain.SurfaceOperatorLogin:
		// Credential-entry surfaces are open.
		return GuardResult{Allowed: true}
	}

	return deny
}

// LoginSurface returns the credential-entry surface for a domain type.
func LoginSurface(domainType domain.DomainType) domain.Surface {
	if domainType == domain.DomainTypeAdmin {
		return domain.SurfaceOperatorLogin
	}
	return domain.SurfacePublicApp
}
