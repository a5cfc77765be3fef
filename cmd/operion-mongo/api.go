package main

import (
	"log/slog"

	"github.com/dukex/operion-mongo/pkg/registry"
	"github.com/dukex/operion-mongo/pkg/web"
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/cors"
	"github.com/gofiber/fiber/v3/middleware/healthcheck"
	"github.com/gofiber/fiber/v3/middleware/logger"
)

type API struct {
	logger   *slog.Logger
	registry *registry.Registry
	validate *validator.Validate
}

func NewAPI(logger *slog.Logger, registry *registry.Registry) *API {
	return &API{
		logger:   logger,
		registry: registry,
		validate: validator.New(validator.WithRequiredStructEnabled()),
	}
}

func (a *API) App() *fiber.App {
	handlers := web.NewAPIHandlers(a.registry, a.validate, a.logger)

	app := fiber.New()
	app.Use(cors.New())
	app.Use(logger.New(logger.Config{
		DisableColors: true,
	}))

	app.Get(healthcheck.DefaultLivenessEndpoint, healthcheck.NewHealthChecker())
	app.Get(healthcheck.DefaultReadinessEndpoint, healthcheck.NewHealthChecker(healthcheck.Config{
		Probe: func(fiber.Ctx) bool {
			return len(a.registry.NodeFactories()) > 0
		},
	}))

	app.Get("/", func(c fiber.Ctx) error {
		return c.SendString("Operion MongoDB node")
	})

	n := app.Group("/nodes")
	n.Get("/", handlers.GetNodes)
	n.Get("/:type", handlers.GetNode)
	n.Post("/:type/execute", handlers.ExecuteNode)

	app.Post("/credentials/test", handlers.TestCredentials)

	return app
}
