package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"

	httptransport "github.com/spec-kit/wallet-access/internal/api/http"
	"github.com/spec-kit/wallet-access/internal/api/http/handlers"
	"github.com/spec-kit/wallet-access/internal/auth"
	"github.com/spec-kit/wallet-access/internal/config"
	"github.com/spec-kit/wallet-access/internal/events"
	"github.com/spec-kit/wallet-access/internal/hierarchy"
	"github.com/spec-kit/wallet-access/internal/observability"
	"github.com/spec-kit/wallet-access/internal/persistence"
	"github.com/spec-kit/wallet-access/internal/repository"
	"github.com/spec-kit/wallet-access/internal/service"
	"github.com/spec-kit/wallet-access/internal/session"
	"github.com/spec-kit/wallet-access/internal/tenant"
	"github.com/spec-kit/wallet-access/internal/worker"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logger)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector())
	registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	metrics := observability.NewMetrics(registry)

	pg, err := persistence.NewPostgres(ctx, cfg.Postgres, logger)
	if err != nil {
		logger.Fatal("failed to connect postgres", zap.Error(err))
	}
	defer pg.Close()

	if cfg.Postgres.RunMigrations {
		if err := persistence.RunMigrations(ctx, pg.PoolHandle(), logger); err != nil {
			logger.Fatal("failed to run migrations", zap.Error(err))
		}
	}

	rdb := persistence.NewRedis(cfg.Redis, logger)
	defer rdb.Close()

	pool := pg.PoolHandle()
	userRepo := repository.NewUserRepository(pool)
	mappingRepo := repository.NewDomainMappingRepository(pool)

	tokens := auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.AccessTokenTTLMinutes)
	dispatcher := events.NewInMemoryDispatcher(logger)

	principalCache := session.NewPrincipalCache(rdb.Client, cfg.Auth.PrincipalTTL(), logger)
	scopeCache := hierarchy.NewScopeCache(rdb.Client, cfg.Resolver.ScopeCacheTTL(), logger)

	sessions := session.NewStore(session.StoreDependencies{
		Users:      userRepo,
		Cache:      principalCache,
		Tokens:     tokens,
		Dispatcher: dispatcher,
		Metrics:    metrics,
		Logger:     logger,
		BcryptCost: cfg.Auth.BcryptCost,
	})

	directory := tenant.NewDirectory(mappingRepo, logger, cfg.Resolver.PreviewHostSuffix, cfg.Resolver.ExtraLocalHosts())
	resolver := hierarchy.NewResolver(userRepo, scopeCache, metrics, logger)

	accessService := service.NewAccessService(directory, sessions, resolver, metrics, logger, cfg.Resolver.Timeout())
	adminService := service.NewAdminService(service.AdminDependencies{
		Users:      userRepo,
		Mappings:   mappingRepo,
		Resolver:   resolver,
		Sessions:   sessions,
		Dispatcher: dispatcher,
		Logger:     logger,
		BcryptCost: cfg.Auth.BcryptCost,
	})

	migrator := service.NewCredentialMigrator(userRepo, dispatcher, metrics, logger, cfg.Auth.BcryptCost)
	audit := service.NewAuditService(dispatcher, logger)
	worker.StartMaintenanceWorker(audit, migrator)

	var provider session.OAuthProvider
	if cfg.OAuth.ClientID != "" {
		provider = session.NewGoogleProvider(session.GoogleProviderConfig{
			ClientID:     cfg.OAuth.ClientID,
			ClientSecret: cfg.OAuth.ClientSecret,
			RedirectURL:  cfg.OAuth.RedirectURL,
		})
	}

	authMiddleware := auth.NewAuthMiddleware(tokens, userRepo)

	app := fiber.New(fiber.Config{AppName: cfg.App.Name})
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())

	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:         handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, pg, rdb),
		Auth:           handlers.NewAuthHandler(sessions, provider),
		Access:         handlers.NewAccessHandler(accessService),
		Admin:          handlers.NewAdminHandler(adminService),
		AuthMiddleware: authMiddleware,
		Registry:       registry,
	})

	go func() {
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)

	_ = app.Shutdown()
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
