package handlers

import (
	"net/http"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/spec-kit/wallet-access/internal/api/dto"
	"github.com/spec-kit/wallet-access/internal/auth"
	"github.com/spec-kit/wallet-access/internal/domain"
	"github.com/spec-kit/wallet-access/internal/session"
)

// AuthHandler exposes session endpoints: signup, login, federated
// login and logout.
type AuthHandler struct {
	sessions *session.Store
	provider session.OAuthProvider
}

// NewAuthHandler constructs handler. The provider may be nil when
// federated login is not configured.
func NewAuthHandler(sessions *session.Store, provider session.OAuthProvider) *AuthHandler {
	return &AuthHandler{sessions: sessions, provider: provider}
}

// Register handles POST /auth/register. New members start pending and
// cannot log in until approved.
func (h *AuthHandler) Register(c *fiber.Ctx) error {
	var req dto.UserRegisterRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, "invalid payload")
	}
	if req.Email == "" || req.Password == "" || req.Name == "" {
		return fiber.NewError(http.StatusBadRequest, "name, email, password required")
	}

	user, err := h.sessions.Register(c.UserContext(), req.Name, strings.ToLower(req.Email), req.Password)
	if err != nil {
		return err
	}

	return c.Status(http.StatusCreated).JSON(fiber.Map{
		"data": fiber.Map{
			"user": fiber.Map{
				"id":     user.ID,
				"name":   user.Name,
				"email":  user.Email,
				"status": user.Status,
			},
		},
	})
}

// Login handles POST /auth/login.
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req dto.UserLoginRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, "invalid payload")
	}
	if req.Email == "" || req.Password == "" {
		return fiber.NewError(http.StatusBadRequest, "email and password required")
	}

	principal, token, exp, err := h.sessions.Authenticate(c.UserContext(), strings.ToLower(req.Email), req.Password)
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"data": fiber.Map{
			"principal": principalResponse(principal),
			"auth":      dto.AuthResponse{Token: token, ExpiresAt: exp},
		},
	})
}

// FederatedLoginURL handles GET /auth/oauth/login. It hands the client
// the provider consent URL with a fresh state nonce.
func (h *AuthHandler) FederatedLoginURL(c *fiber.Ctx) error {
	if h.provider == nil {
		return fiber.NewError(http.StatusNotFound, "federated login not configured")
	}
	state := uuid.NewString()
	return c.JSON(fiber.Map{
		"data": fiber.Map{
			"url":   h.provider.LoginURL(state),
			"state": state,
		},
	})
}

// FederatedCallback handles POST /auth/oauth/callback.
func (h *AuthHandler) FederatedCallback(c *fiber.Ctx) error {
	if h.provider == nil {
		return fiber.NewError(http.StatusNotFound, "federated login not configured")
	}
	var req struct {
		Code string `json:"code"`
	}
	if err := c.BodyParser(&req); err != nil || req.Code == "" {
		return fiber.NewError(http.StatusBadRequest, "authorization code required")
	}

	info, err := h.provider.ExchangeCode(c.UserContext(), req.Code)
	if err != nil {
		return err
	}

	principal, token, exp, err := h.sessions.AuthenticateFederated(c.UserContext(), info)
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"data": fiber.Map{
			"principal": principalResponse(principal),
			"auth":      dto.AuthResponse{Token: token, ExpiresAt: exp},
		},
	})
}

// Logout handles POST /auth/logout for an authenticated caller.
func (h *AuthHandler) Logout(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return fiber.NewError(http.StatusUnauthorized, "authentication required")
	}
	h.sessions.Clear(c.UserContext(), principal.UserID, "logout")
	return c.JSON(fiber.Map{"data": fiber.Map{"logged_out": true}})
}

func principalResponse(p *domain.Principal) *dto.PrincipalResponse {
	if p == nil {
		return nil
	}
	return &dto.PrincipalResponse{
		UserID:   p.UserID,
		Role:     string(p.Role),
		TenantID: p.TenantID,
		Name:     p.Name,
		Email:    p.Email,
	}
}
