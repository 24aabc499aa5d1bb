package routing

import (
	"strings"

	"github.com/spec-kit/wallet-access/internal/domain"
)

// Input carries everything one transition evaluation depends on. Both
// domain resolution and session restoration must have settled before
// the first evaluation; re-evaluations (fragment changed out-of-band)
// must pass the current principal, not one captured earlier.
type Input struct {
	// Fragment is the navigation fragment without the leading '#'.
	Fragment string
	// Principal is nil for anonymous visitors.
	Principal *domain.Principal
	// DomainFound is false when the tenant directory returned
	// not-found for the current host.
	DomainFound bool
	// DomainType is the effective type of the resolved domain.
	DomainType domain.DomainType
}

// Decision is a transition result. Fragment is the canonical fragment
// after evaluation; it equals the input fragment unless a no-fragment
// rule wrote the role default.
type Decision struct {
	Surface  domain.Surface
	Fragment string
}

// Evaluate runs the transition table, first match wins. The function
// is idempotent: feeding a decision's fragment back in with the same
// principal and domain type yields the same surface and the same
// fragment.
func Evaluate(in Input) Decision {
	if !in.DomainFound {
		return Decision{Surface: domain.SurfaceNotFound, Fragment: in.Fragment}
	}

	frag := normalizeFragment(in.Fragment)

	switch {
	case frag == domain.FragmentMaster:
		// Rule 1: master intent requires the master role.
		if in.Principal != nil && in.Principal.Role == domain.RoleMaster {
			return Decision{Surface: domain.SurfaceMasterConsole, Fragment: frag}
		}
		return Decision{Surface: domain.SurfaceOperatorLogin, Fragment: frag}

	case frag == domain.FragmentOperatorLogin:
		// Rule 2: explicit operator login intent, unconditional.
		return Decision{Surface: domain.SurfaceOperatorLogin, Fragment: frag}

	case strings.HasPrefix(frag, domain.FragmentOperator):
		// Rule 3: operator intent.
		if in.Principal != nil && in.Principal.Role.IsOperator() {
			return Decision{Surface: domain.SurfaceOperatorConsole, Fragment: frag}
		}
		return Decision{Surface: domain.SurfaceOperatorLogin, Fragment: frag}

	case frag == "" && in.Principal == nil:
		// Rule 4: the public app gates further to its own login view.
		return Decision{Surface: domain.SurfacePublicApp, Fragment: frag}

	case frag == "":
		// Rules 5-7: role-driven default, checked against the domain
		// type so a mismatch lands on the credential-entry surface
		// for this domain instead of a console.
		return roleDefault(in.Principal, in.DomainType)

	default:
		// Rule 8.
		return Decision{Surface: domain.SurfaceNotFound, Fragment: frag}
	}
}

func roleDefault(principal *domain.Principal, domainType domain.DomainType) Decision {
	switch {
	case principal.Role == domain.RoleMaster:
		if Authorize(principal, domainType, domain.SurfaceMasterConsole).Allowed {
			return Decision{Surface: domain.SurfaceMasterConsole, Fragment: domain.FragmentMaster}
		}
	case principal.Role.IsOperator():
		if Authorize(principal, domainType, domain.SurfaceOperatorConsole).Allowed {
			return Decision{Surface: domain.SurfaceOperatorConsole, Fragment: domain.FragmentOperator}
		}
	case principal.Role.IsMember():
		if Authorize(principal, domainType, domain.SurfacePublicApp).Allowed {
			return Decision{Surface: domain.SurfacePublicApp, Fragment: ""}
		}
	}
	return Decision{Surface: LoginSurface(domainType), Fragment: ""}
}

func normalizeFragment(fragment string) string {
	frag := strings.TrimPrefix(fragment, "#")
	return strings.Trim(frag, "/")
}
