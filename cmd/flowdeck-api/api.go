// Package main provides the Flowdeck API server implementation.
package main

import (
	"context"
	"log/slog"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/cors"
	"github.com/gofiber/fiber/v3/middleware/healthcheck"
	"github.com/gofiber/fiber/v3/middleware/logger"
	"github.com/redis/go-redis/v9"

	"github.com/flowdeck/flowdeck/pkg/commands"
	"github.com/flowdeck/flowdeck/pkg/eventbus"
	"github.com/flowdeck/flowdeck/pkg/persistence"
	"github.com/flowdeck/flowdeck/pkg/queries"
	"github.com/flowdeck/flowdeck/pkg/registry"
	"github.com/flowdeck/flowdeck/pkg/scheduler"
	"github.com/flowdeck/flowdeck/pkg/web"
	"github.com/flowdeck/flowdeck/pkg/workflow"
)

type API struct {
	logger      *slog.Logger
	persistence persistence.Persistence
	registry    *registry.Registry
	eventBus    eventbus.EventBus
	cache       *redis.Client
	validate    *validator.Validate

	app       *fiber.App
	scheduler *scheduler.Scheduler
}

func NewAPI(
	logger *slog.Logger,
	store persistence.Persistence,
	executorRegistry *registry.Registry,
	eventBus eventbus.EventBus,
	cache *redis.Client,
) *API {
	return &API{
		persistence: store,
		logger:      logger,
		registry:    executorRegistry,
		eventBus:    eventBus,
		cache:       cache,
		validate:    validator.New(validator.WithRequiredStructEnabled()),
	}
}

func (a *API) App() *fiber.App {
	executor := workflow.NewExecutionService(
		a.persistence.WorkflowRepository(),
		a.persistence.ConnectedAppRepository(),
		a.registry,
		a.eventBus,
		nil,
		a.logger,
	)

	commandHandlers := commands.NewHandlers(a.persistence, executor, a.eventBus, a.logger)
	queryHandlers := queries.NewHandlers(a.persistence, executor, a.cache, a.logger)
	handlers := web.NewAPIHandlers(commandHandlers, queryHandlers, a.validate, a.registry, a.persistence)

	a.scheduler = scheduler.NewScheduler(a.persistence.WorkflowRepository(), executor, a.logger)

	app := fiber.New()
	app.Use(cors.New())
	app.Use(logger.New(logger.Config{
		DisableColors: true,
	}))

	app.Get(healthcheck.DefaultLivenessEndpoint, healthcheck.NewHealthChecker())
	app.Get(healthcheck.DefaultReadinessEndpoint, healthcheck.NewHealthChecker())

	app.Get("/", func(c fiber.Ctx) error {
		return c.SendString("Flowdeck API")
	})

	handlers.Register(app)

	return app
}

func (a *API) Start(ctx context.Context, port int) error {
	a.app = a.App()

	if err := a.scheduler.Start(ctx); err != nil {
		return err
	}

	return a.app.Listen(":" + strconv.Itoa(port))
}

func (a *API) Shutdown(ctx context.Context) error {
	if a.scheduler != nil {
		a.scheduler.Stop()
	}

	if a.app != nil {
		return a.app.ShutdownWithContext(ctx)
	}

	return nil
}
