package routing

import (
	"testing"

	"github.com/spec-kit/wallet-access/internal/domain"
)

func TestAuthorize(t *testing.T) {
	tests := []struct {
		name       string
		principal  *domain.Principal
		domainType domain.DomainType
		surface    domain.Surface
		allowed    bool
	}{
		{"nil principal denied", nil, domain.DomainTypeAdmin, domain.SurfaceOperatorConsole, false},
		{"master console for master", principalWith(domain.RoleMaster), domain.DomainTypeMain, domain.SurfaceMasterConsole, true},
		{"master console for master on admin domain", principalWith(domain.RoleMaster), domain.DomainTypeAdmin, domain.SurfaceMasterConsole, true},
		{"master console denied to center", principalWith(domain.RoleCenter), domain.DomainTypeAdmin, domain.SurfaceMasterConsole, false},
		{"operator console for center on admin domain", principalWith(domain.RoleCenter), domain.DomainTypeAdmin, domain.SurfaceOperatorConsole, true},
		{"operator console for admin role", principalWith(domain.RoleAdmin), domain.DomainTypeAdmin, domain.SurfaceOperatorConsole, true},
		{"operator console denied on main domain", principalWith(domain.RoleCenter), domain.DomainTypeMain, domain.SurfaceOperatorConsole, false},
		{"operator console denied to master", principalWith(domain.RoleMaster), domain.DomainTypeAdmin, domain.SurfaceOperatorConsole, false},
		{"operator console denied to member", principalWith(domain.RoleUser), domain.DomainTypeAdmin, domain.SurfaceOperatorConsole, false},
		{"public app for member on main domain", principalWith(domain.RoleUser), domain.DomainTypeMain, domain.SurfacePublicApp, true},
		{"public app denied on admin domain", principalWith(domain.RoleUser), domain.DomainTypeAdmin, domain.SurfacePublicApp, false},
		{"public app denied to store", principalWith(domain.RoleStore), domain.DomainTypeMain, domain.SurfacePublicApp, false},
		{"operator login open to anyone", principalWith(domain.RoleUser), domain.DomainTypeAdmin, domain.SurfaceOperatorLogin, true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := Authorize(tc.principal, tc.domainType, tc.surface)
			if got.Allowed != tc.allowed {
				t.Fatalf("allowed = %v, want %v", got.Allowed, tc.allowed)
			}
			if !got.Allowed {
				if got.Reason != "insufficient permission" {
					t.Errorf("reason = %q, leaks more than permission state", got.Reason)
				}
				if got.Redirect != LoginSurface(tc.domainType) {
					t.Errorf("redirect = %s, want %s", got.Redirect, LoginSurface(tc.domainType))
				}
			}
		})
	}
}

func TestLoginSurface(t *testing.T) {
	if got := LoginSurface(domain.DomainTypeAdmin); got != domain.SurfaceOperatorLogin {
		t.Fatalf("admin login surface = %s", got)
	}
	if got := LoginSurface(domain.DomainTypeMain); got != domain.SurfacePublicApp {
		t.Fatalf("main login surface = %s", got)
	}
}
