package handlers

import (
	"net/http"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/wallet-access/internal/api/dto"
	"github.com/spec-kit/wallet-access/internal/auth"
	"github.com/spec-kit/wallet-access/internal/service"
)

// AccessHandler exposes the surface resolution and scope endpoints.
type AccessHandler struct {
	access *service.AccessService
}

// NewAccessHandler constructs handler.
func NewAccessHandler(access *service.AccessService) *AccessHandler {
	return &AccessHandler{access: access}
}

// Resolve handles POST /v1/access/resolve. The endpoint is anonymous
// by design: a bearer token, when present, restores the session, and
// an absent or stale one resolves to a login surface instead of 401.
func (h *AccessHandler) Resolve(c *fiber.Ctx) error {
	var req dto.ResolveRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, "invalid payload")
	}
	if req.Host == "" {
		return fiber.NewError(http.StatusBadRequest, "host required")
	}

	result, err := h.access.Resolve(c.UserContext(), service.ResolveRequest{
		Host:     req.Host,
		Fragment: req.Fragment,
		Token:    bearerToken(c),
	})
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{"data": dto.ResolveResponse{
		Surface:    string(result.Surface),
		Fragment:   result.Fragment,
		DomainType: string(result.DomainType),
		TenantID:   result.TenantID,
		Principal:  principalResponse(result.Principal),
	}})
}

// Scope handles GET /v1/access/scope. A degraded expansion returns the
// verified subset with partial set; clients must not widen it.
func (h *AccessHandler) Scope(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return fiber.NewError(http.StatusUnauthorized, "authentication required")
	}

	ids, partial := h.access.Scope(c.UserContext(), principal)

	return c.JSON(fiber.Map{"data": dto.ScopeResponse{
		UserIDs: ids,
		Partial: partial,
	}})
}

func bearerToken(c *fiber.Ctx) string {
	header := c.Get(fiber.HeaderAuthorization)
	if header == "" {
		return ""
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}
