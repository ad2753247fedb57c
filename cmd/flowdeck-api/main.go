package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	cli "github.com/urfave/cli/v3"

	"github.com/flowdeck/flowdeck/pkg/cmd"
	"github.com/flowdeck/flowdeck/pkg/log"
	"github.com/flowdeck/flowdeck/pkg/registry"
)

const (
	defaultPort     = 9080
	shutdownTimeout = 10 * time.Second
)

func main() {
	logger := log.WithModule("api")

	command := &cli.Command{
		Name:                  "flowdeck-api",
		Usage:                 "Create, manage and execute workflows",
		EnableShellCompletion: true,
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:    "port",
				Aliases: []string{"p"},
				Usage:   "Port to run the API server on",
				Value:   defaultPort,
				Sources: cli.EnvVars("PORT"),
			},
			&cli.StringFlag{
				Name:     "database-url",
				Usage:    "Database connection URL for persistence",
				Required: true,
				Sources:  cli.EnvVars("DATABASE_URL"),
			},
			&cli.StringFlag{
				Name:    "redis-url",
				Usage:   "Redis URL for the query cache (empty disables caching)",
				Sources: cli.EnvVars("REDIS_URL"),
			},
			&cli.StringFlag{
				Name:    "event-bus",
				Usage:   "Event bus provider (gochannel, kafka)",
				Value:   "gochannel",
				Sources: cli.EnvVars("EVENT_BUS"),
			},
			&cli.StringFlag{
				Name:    "log-level",
				Usage:   "Log level (debug, info, warn, error)",
				Value:   "info",
				Sources: cli.EnvVars("LOG_LEVEL"),
			},
		},
		Action: func(ctx context.Context, command *cli.Command) error {
			log.Setup(command.String("log-level"))

			logger.InfoContext(ctx, "Initializing Flowdeck API")

			store := cmd.NewPersistence(ctx, logger, command.String("database-url"))
			defer func() {
				if err := store.Close(ctx); err != nil {
					logger.ErrorContext(ctx, "Failed to close persistence", "error", err)
				}
			}()

			eventBus := cmd.NewEventBus(command.String("event-bus"), logger)
			defer func() {
				if err := eventBus.Close(); err != nil {
					logger.ErrorContext(ctx, "Failed to close event bus", "error", err)
				}
			}()

			cache := cmd.NewRedisCache(command.String("redis-url"))
			if cache != nil {
				defer func() {
					if err := cache.Close(); err != nil {
						logger.ErrorContext(ctx, "Failed to close redis client", "error", err)
					}
				}()
			}

			api := NewAPI(
				logger,
				store,
				registry.NewDefaultRegistry(logger),
				eventBus,
				cache,
			)

			runCtx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			errCh := make(chan error, 1)

			go func() {
				errCh <- api.Start(runCtx, command.Int("port"))
			}()

			select {
			case err := <-errCh:
				return err
			case <-runCtx.Done():
				logger.Info("Shutting down")

				shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
				defer cancel()

				return api.Shutdown(shutdownCtx)
			}
		},
	}

	if err := command.Run(context.Background(), os.Args); err != nil {
		logger.Error("Failed to run flowdeck-api", "error", err)
		os.Exit(1)
	}
}
