package auth

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/wallet-access/internal/domain"
	apperrors "github.com/spec-kit/wallet-access/pkg/util"
)

// RequireRole ensures the principal holds one of the allowed roles.
func RequireRole(allowed ...domain.Role) fiber.Handler {
	allowedSet := make(map[domain.Role]struct{}, len(allowed))
	for _, role := range allowed {
		allowedSet[role] = struct{}{}
	}

	return func(c *fiber.Ctx) error {
		principal, ok := PrincipalFromContext(c)
		if !ok {
			return apperrors.NewUnauthorized("authentication required")
		}
		if len(allowedSet) == 0 {
			return c.Next()
		}
		if _, exists := allowedSet[principal.Role]; !exists {
			return apperrors.NewForbidden("insufficient permission")
		}
		return c.Next()
	}
}

// RequireOperator admits the operator role set plus master.
func RequireOperator() fiber.Handler {
	return RequireRole(domain.RoleMaster, domain.RoleAgency, domain.RoleCenter, domain.RoleStore, domain.RoleAdmin)
}

// RequireMaster admits only the master role.
func RequireMaster() fiber.Handler {
	return RequireRole(domain.RoleMaster)
}

// RequireAnyRole ensures the caller is authenticated.
func RequireAnyRole() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if _, ok := PrincipalFromContext(c); !ok {
			return apperrors.NewUnauthorized("authentication required")
		}
		return c.Next()
	}
}
