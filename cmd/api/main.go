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

	httptransport "github.com/spec-kit/event-service/internal/api/http"
	"github.com/spec-kit/event-service/internal/api/http/handlers"
	"github.com/spec-kit/event-service/internal/auth"
	"github.com/spec-kit/event-service/internal/cache"
	"github.com/spec-kit/event-service/internal/config"
	"github.com/spec-kit/event-service/internal/dispatch"
	"github.com/spec-kit/event-service/internal/observability"
	"github.com/spec-kit/event-service/internal/persistence"
	"github.com/spec-kit/event-service/internal/repository"
	"github.com/spec-kit/event-service/internal/service"
	"github.com/spec-kit/event-service/internal/worker"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.App, cfg.Logger)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	if cfg.Auth.DefaultSecret {
		logger.Warn("AUTH_JWT_SECRET not set; using the development secret")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pg, err := persistence.NewPostgres(ctx, cfg.Postgres, logger)
	if err != nil {
		logger.Fatal("failed to connect postgres", zap.Error(err))
	}
	defer pg.Close()

	if cfg.Postgres.RunMigrations {
		if err := persistence.RunMigrations(ctx, pg.DB(), logger); err != nil {
			logger.Fatal("failed to run migrations", zap.Error(err))
		}
	}

	cacheStore, err := persistence.OpenCacheStore(ctx, cfg.Redis, logger)
	if err != nil {
		logger.Fatal("invalid redis configuration", zap.Error(err))
	}
	defer func() {
		if err := cacheStore.Close(); err != nil {
			logger.Warn("close redis", zap.Error(err))
		}
	}()

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	metrics := observability.NewMetrics(registry)

	dispatcher := dispatch.NewInMemoryDispatcher()
	eventCache := cache.NewEventCache(cacheStore.Client(), cfg.Cache.EventsTTL(), logger)
	worker.StartAuditWorker(service.NewAuditService(dispatcher, logger, eventCache))
	metrics.SubscribeLogins(dispatcher)

	db := pg.DB()
	tokens := auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.AccessTokenTTL())
	authService := service.NewAuthService(service.AuthDependencies{
		UserRepo:    repository.NewUserRepository(db),
		Hasher:      auth.NewHasher(cfg.Auth.BcryptCost),
		Tokens:      tokens,
		Dispatcher:  dispatcher,
		Logger:      logger,
		SignupRoles: cfg.Auth.SignupRoles,
	})
	eventService := service.NewEventService(service.EventDependencies{
		EventRepo:  repository.NewEventRepository(db),
		Cache:      eventCache,
		Dispatcher: dispatcher,
		Logger:     logger,
	})

	app := fiber.New(fiber.Config{
		AppName:               cfg.App.Name,
		DisableStartupMessage: true,
	})
	httptransport.RegisterMiddlewares(app, logger, metrics, httptransport.MiddlewareConfig{
		Timeout:     cfg.App.RequestTimeout(),
		CORSOrigins: cfg.App.CORSOrigins,
	})

	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health: handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, map[string]handlers.Pinger{
			"postgres": pg,
			"redis":    cacheStore,
		}),
		Auth:            handlers.NewAuthHandler(authService),
		Events:          handlers.NewEventsHandler(eventService),
		AuthMiddleware:  auth.NewAuthMiddleware(tokens, logger, metrics),
		Metrics:         metrics,
		EventWriteRoles: auth.ParseRoles(cfg.Events.WriteRoles),
	})

	go func() {
		logger.Info("listening", zap.String("addr", cfg.App.Addr()))
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)

	if err := app.Shutdown(); err != nil {
		logger.Error("shutdown", zap.Error(err))
	}
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
