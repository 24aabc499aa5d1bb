package handlers

import (
	"net/http"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/wallet-access/internal/api/dto"
	"github.com/spec-kit/wallet-access/internal/auth"
	"github.com/spec-kit/wallet-access/internal/domain"
	"github.com/spec-kit/wallet-access/internal/service"
)

// AdminHandler exposes subtree administration: subordinate accounts
// and domain mappings.
type AdminHandler struct {
	admin *service.AdminService
}

// NewAdminHandler constructs handler.
func NewAdminHandler(admin *service.AdminService) *AdminHandler {
	return &AdminHandler{admin: admin}
}

// CreateSubordinate handles POST /v1/admin/subordinates.
func (h *AdminHandler) CreateSubordinate(c *fiber.Ctx) error {
	actor, ok := auth.PrincipalFromContext(c)
	if !ok {
		return fiber.NewError(http.StatusUnauthorized, "authentication required")
	}

	var req dto.CreateSubordinateRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, "invalid payload")
	}
	if req.Name == "" || req.Email == "" || req.Password == "" {
		return fiber.NewError(http.StatusBadRequest, "name, email, password required")
	}
	role, ok := domain.ParseRole(req.Role)
	if !ok {
		return fiber.NewError(http.StatusBadRequest, "unknown role")
	}

	user, err := h.admin.CreateSubordinate(c.UserContext(), actor, service.CreateSubordinateInput{
		Name:     req.Name,
		Email:    strings.ToLower(req.Email),
		Password: req.Password,
		Role:     role,
	})
	if err != nil {
		return err
	}

	return c.Status(http.StatusCreated).JSON(fiber.Map{
		"data": fiber.Map{
			"user": fiber.Map{
				"id":        user.ID,
				"name":      user.Name,
				"email":     user.Email,
				"role":      user.Role,
				"status":    user.Status,
				"parent_id": user.ParentID,
				"tenant_id": user.TenantID,
			},
		},
	})
}

// ChangeStatus handles PATCH /v1/admin/subordinates/:id/status.
func (h *AdminHandler) ChangeStatus(c *fiber.Ctx) error {
	actor, ok := auth.PrincipalFromContext(c)
	if !ok {
		return fiber.NewError(http.StatusUnauthorized, "authentication required")
	}

	var req dto.StatusChangeRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, "invalid payload")
	}
	status, ok := domain.ParseUserStatus(req.Status)
	if !ok {
		return fiber.NewError(http.StatusBadRequest, "unknown status")
	}

	if err := h.admin.ChangeStatus(c.UserContext(), actor, c.Params("id"), status); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": fiber.Map{"status": status}})
}

// DeleteSubordinate handles DELETE /v1/admin/subordinates/:id. Targets
// with children are rejected; reparent or remove them first.
func (h *AdminHandler) DeleteSubordinate(c *fiber.Ctx) error {
	actor, ok := auth.PrincipalFromContext(c)
	if !ok {
		return fiber.NewError(http.StatusUnauthorized, "authentication required")
	}
	if err := h.admin.DeleteSubordinate(c.UserContext(), actor, c.Params("id")); err != nil {
		return err
	}
	return c.SendStatus(http.StatusNoContent)
}

// ProvisionDomain handles POST /v1/admin/domains.
func (h *AdminHandler) ProvisionDomain(c *fiber.Ctx) error {
	actor, ok := auth.PrincipalFromContext(c)
	if !ok {
		return fiber.NewError(http.StatusUnauthorized, "authentication required")
	}

	var req dto.ProvisionDomainRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, "invalid payload")
	}
	if req.Domain == "" {
		return fiber.NewError(http.StatusBadRequest, "domain required")
	}
	domainType, ok := domain.ParseDomainType(req.Type)
	if !ok {
		return fiber.NewError(http.StatusBadRequest, "unknown domain type")
	}

	mapping, err := h.admin.ProvisionDomain(c.UserContext(), actor, service.ProvisionDomainInput{
		Domain:   strings.ToLower(req.Domain),
		Type:     domainType,
		TenantID: req.TenantID,
	})
	if err != nil {
		return err
	}

	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": mappingResponse(mapping)})
}

// ListDomains handles GET /v1/admin/domains.
func (h *AdminHandler) ListDomains(c *fiber.Ctx) error {
	actor, ok := auth.PrincipalFromContext(c)
	if !ok {
		return fiber.NewError(http.StatusUnauthorized, "authentication required")
	}

	mappings, err := h.admin.ListDomains(c.UserContext(), actor, c.Query("tenant_id"))
	if err != nil {
		return err
	}

	out := make([]dto.DomainMappingResponse, 0, len(mappings))
	for i := range mappings {
		out = append(out, *mappingResponse(&mappings[i]))
	}
	return c.JSON(fiber.Map{"data": fiber.Map{"domains": out}})
}

// DeactivateDomain handles DELETE /v1/admin/domains/:id.
func (h *AdminHandler) DeactivateDomain(c *fiber.Ctx) error {
	actor, ok := auth.PrincipalFromContext(c)
	if !ok {
		return fiber.NewError(http.StatusUnauthorized, "authentication required")
	}
	if err := h.admin.DeactivateDomain(c.UserContext(), actor, c.Params("id")); err != nil {
		return err
	}
	return c.SendStatus(http.StatusNoContent)
}

func mappingResponse(m *domain.DomainMapping) *dto.DomainMappingResponse {
	return &dto.DomainMappingResponse{
		ID:       m.ID,
		Domain:   m.Domain,
		TenantID: m.TenantID,
		Type:     string(m.Type),
		Active:   m.Active,
	}
}
