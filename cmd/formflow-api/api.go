// Package main provides the formflow API server implementation.
package main

import (
	"log/slog"
	"strconv"

	"github.com/dukex/formflow/pkg/metrics"
	"github.com/dukex/formflow/pkg/registry"
	"github.com/dukex/formflow/pkg/services"
	"github.com/dukex/formflow/pkg/web"
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/adaptor"
	"github.com/gofiber/fiber/v3/middleware/cors"
	"github.com/gofiber/fiber/v3/middleware/healthcheck"
	"github.com/gofiber/fiber/v3/middleware/logger"
)

type API struct {
	logger     *slog.Logger
	runner     *services.Runner
	publishing *services.Publishing
	registry   *registry.Registry
	metrics    *metrics.Metrics
	validate   *validator.Validate
}

func NewAPI(
	logger *slog.Logger,
	runner *services.Runner,
	publishing *services.Publishing,
	registry *registry.Registry,
	metrics *metrics.Metrics,
) *API {
	return &API{
		logger:     logger,
		runner:     runner,
		publishing: publishing,
		registry:   registry,
		metrics:    metrics,
		validate:   validator.New(validator.WithRequiredStructEnabled()),
	}
}

func (a *API) App() *fiber.App {
	handlers := web.NewAPIHandlers(a.runner, a.publishing, a.validate)

	app := fiber.New()
	app.Use(cors.New())
	app.Use(logger.New(logger.Config{
		DisableColors: true,
	}))

	app.Get(healthcheck.DefaultLivenessEndpoint, healthcheck.NewHealthChecker())
	app.Get(healthcheck.DefaultReadinessEndpoint, healthcheck.NewHealthChecker())

	app.Get("/", func(c fiber.Ctx) error {
		return c.SendString("formflow API")
	})

	app.Get("/health", handlers.HealthCheck)

	if a.metrics != nil {
		app.Get("/metrics", adaptor.HTTPHandler(a.metrics.Handler()))
	}

	app.Get("/node-types", a.nodeTypes)

	m := app.Group("/mappings")
	m.Post("/run", handlers.RunMapping)
	m.Get("/:formVersionId", handlers.GetMappings)
	m.Put("/:formVersionId", handlers.PublishMappings)
	m.Get("/:formVersionId/nodes/:nodeId", handlers.GetMapping)

	app.Post("/logic/validate", handlers.ValidateLogic)
	app.Post("/query/preview", handlers.PreviewQuery)

	return app
}

// nodeTypes lists the registered node types with the schema each
// definition must satisfy.
func (a *API) nodeTypes(c fiber.Ctx) error {
	factories := a.registry.Factories()

	types := make([]fiber.Map, 0, len(factories))
	for _, f := range factories {
		types = append(types, fiber.Map{
			"type":        f.ID(),
			"name":        f.Name(),
			"description": f.Description(),
			"schema":      f.Schema(),
		})
	}

	return c.JSON(types)
}

func (a *API) Start(port int) error {
	app := a.App()

	a.logger.Info("formflow API listening", "port", port)

	return app.Listen(":" + strconv.Itoa(port))
}
