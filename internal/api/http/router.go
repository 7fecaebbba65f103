package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/event-service/internal/api/http/handlers"
	"github.com/spec-kit/event-service/internal/auth"
	"github.com/spec-kit/event-service/internal/domain"
	"github.com/spec-kit/event-service/internal/observability"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Auth           *handlers.AuthHandler
	Events         *handlers.EventsHandler
	AuthMiddleware *auth.AuthMiddleware
	Metrics        *observability.Metrics
	// EventWriteRoles limits event mutations. Empty admits any authenticated caller.
	EventWriteRoles []domain.Role
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)
	if cfg.Metrics != nil {
		app.Get("/metrics", cfg.Metrics.Handler())
	}

	gate := cfg.AuthMiddleware.Handle
	api := app.Group("/api")

	authGroup := api.Group("/auth")
	authGroup.Post("/register", cfg.Auth.Register)
	authGroup.Post("/login", cfg.Auth.Login)
	authGroup.Get("/protected", gate, cfg.Auth.Protected)
	authGroup.Get("/profile", gate, cfg.Auth.Profile)

	api.Get("/protected/profile", gate, cfg.Auth.ProfileData)

	canWrite := auth.RequireRole(cfg.EventWriteRoles...)
	events := api.Group("/events", gate)
	events.Get("/", cfg.Events.List)
	events.Get("/:id", cfg.Events.Get)
	events.Post("/", canWrite, cfg.Events.Create)
	events.Put("/:id", canWrite, cfg.Events.Update)
	events.Delete("/:id", canWrite, cfg.Events.Delete)
}
