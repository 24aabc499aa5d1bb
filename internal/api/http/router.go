package http

import (
	"github.com/gofiber/adaptor/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/spec-kit/wallet-access/internal/api/http/handlers"
	"github.com/spec-kit/wallet-access/internal/auth"
	"github.com/spec-kit/wallet-access/internal/domain"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Auth           *handlers.AuthHandler
	Access         *handlers.AccessHandler
	Admin          *handlers.AdminHandler
	AuthMiddleware *auth.AuthMiddleware
	Registry       *prometheus.Registry
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)

	if cfg.Registry != nil {
		app.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(cfg.Registry, promhttp.HandlerOpts{})))
	}

	authGroup := app.Group("/auth")
	authGroup.Post("/register", cfg.Auth.Register)
	authGroup.Post("/login", cfg.Auth.Login)
	authGroup.Get("/oauth/login", cfg.Auth.FederatedLoginURL)
	authGroup.Post("/oauth/callback", cfg.Auth.FederatedCallback)
	authGroup.Post("/logout", cfg.AuthMiddleware.Handle, cfg.Auth.Logout)

	v1 := app.Group("/v1")

	// Resolve is reachable without a session: stale tokens fall back
	// to an anonymous evaluation rather than a 401.
	v1.Post("/access/resolve", cfg.Access.Resolve)
	v1.Get("/access/scope", cfg.AuthMiddleware.Handle, auth.RequireAnyRole(), cfg.Access.Scope)

	admin := v1.Group("/admin", cfg.AuthMiddleware.Handle)

	operators := admin.Group("/subordinates", auth.RequireRole(
		domain.RoleMaster, domain.RoleAgency, domain.RoleCenter, domain.RoleStore))
	operators.Post("", cfg.Admin.CreateSubordinate)
	operators.Patch("/:id/status", cfg.Admin.ChangeStatus)
	operators.Delete("/:id", cfg.Admin.DeleteSubordinate)

	domains := admin.Group("/domains", auth.RequireRole(domain.RoleMaster, domain.RoleCenter))
	domains.Post("", cfg.Admin.ProvisionDomain)
	domains.Get("", cfg.Admin.ListDomains)
	domains.Delete("/:id", cfg.Admin.DeactivateDomain)
}
