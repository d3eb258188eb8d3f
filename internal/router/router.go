package router

import (
	"github.com/finsim/finsim/internal/config"
	"github.com/finsim/finsim/internal/handlers"
	"github.com/finsim/finsim/internal/logging"
	"github.com/finsim/finsim/internal/middleware"
	"github.com/finsim/finsim/internal/services"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
)

// Setup configures all routes and middlewares
func Setup(app *fiber.App, logger *logging.Logger, repo services.SeriesRepository, cfg config.Config) *handlers.Handler {
	h := handlers.New(logger,
		services.NewProjectionService(logger, repo, cfg.Simulation),
		services.NewAnalysisService(logger, repo, cfg.Risk))

	app.Use(recover.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowMethods: "GET,POST,OPTIONS",
		AllowHeaders: "Origin,Content-Type,Accept,Authorization,X-API-Key,X-Request-ID",
	}))
	app.Use(logging.FiberMiddleware(logger, "/health"))

	// Health check (no auth required)
	app.Get("/health", h.Health)

	v1 := app.Group("/v1", middleware.APIKeyAuth(logger, cfg.Auth))

	// Projection
	v1.Post("/simulate", h.Simulate)
	v1.Post("/estimate", h.EstimateInline)
	v1.Get("/entities/:entity/metrics/:metric/estimate", h.Estimate)
	v1.Post("/entities/:entity/metrics/:metric/projection", h.Project)

	// Risk and fundamentals
	v1.Get("/entities/:entity/risk", h.Risk)
	v1.Get("/entities/:entity/ratios", h.Ratios)
	v1.Get("/entities/:entity/metrics/:metric/trend", h.Trend)
	v1.Get("/sectors/:sector/metrics/:metric", h.Sector)
	v1.Get("/compare", h.Compare)
	v1.Get("/screen", h.Screen)

	app.Use(h.NotFound)

	return h
}

// New creates a new Fiber app with configuration
func New(logger *logging.Logger, repo services.SeriesRepository, cfg config.Config) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:               "finsim API",
		DisableStartupMessage: true,
		ErrorHandler:          middleware.ErrorHandler(logger),
	})

	Setup(app, logger, repo, cfg)

	return app
}
