package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/dukex/operion-mongo/pkg/cmd"
	"github.com/dukex/operion-mongo/pkg/log"
	"github.com/gofiber/fiber/v3"
	"github.com/robfig/cron/v3"
	"github.com/urfave/cli/v3"
)

const (
	defaultPort          = 9091
	defaultSweepSchedule = "@every 1m"
	shutdownTimeout      = 10 * time.Second
)

func ServeCommand() *cli.Command {
	return &cli.Command{
		Name:    "serve",
		Aliases: []string{"s"},
		Usage:   "Serve registered nodes over HTTP",
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:    "port",
				Aliases: []string{"p"},
				Usage:   "Port to run the HTTP server on",
				Value:   defaultPort,
				Sources: cli.EnvVars("PORT"),
			},
			&cli.StringFlag{
				Name:    "plugins-path",
				Usage:   "Path to the directory containing node plugins",
				Value:   "./plugins",
				Sources: cli.EnvVars("PLUGINS_PATH"),
			},
			&cli.StringFlag{
				Name:    "sweep-schedule",
				Usage:   "Cron schedule for pinging cached clients and dropping dead ones",
				Value:   defaultSweepSchedule,
				Sources: cli.EnvVars("MONGODB_SWEEP_SCHEDULE"),
			},
			&cli.BoolFlag{
				Name:    "tracing",
				Usage:   "Export traces over OTLP/HTTP",
				Sources: cli.EnvVars("TRACING_ENABLED"),
			},
		},
		Action: func(ctx context.Context, command *cli.Command) error {
			logger := log.WithModule("serve")

			ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
			defer stop()

			tracer, shutdown, err := cmd.NewTracer(ctx, logger, command.Bool("tracing"), serviceName)
			if err != nil {
				return fmt.Errorf("failed to initialize tracer: %w", err)
			}
			defer shutdown()

			cache, connector, err := cmd.NewConnector(logger)
			if err != nil {
				return err
			}

			defer func() {
				err := cache.Close(context.Background())
				if err != nil {
					logger.Error("Failed to close client cache", "error", err)
				}
			}()

			reg, err := cmd.NewRegistry(logger, command.String("plugins-path"), connector, tracer)
			if err != nil {
				return err
			}

			scheduler := cron.New()

			_, err = scheduler.AddFunc(command.String("sweep-schedule"), func() {
				removed := cache.Sweep(ctx)
				if removed > 0 {
					logger.Info("Dropped unhealthy MongoDB clients", "removed", removed, "remaining", cache.Len())
				}
			})
			if err != nil {
				return fmt.Errorf("invalid sweep schedule: %w", err)
			}

			scheduler.Start()
			defer scheduler.Stop()

			app := NewAPI(logger, reg).App()

			listenErr := make(chan error, 1)

			go func() {
				listenErr <- app.Listen(":"+strconv.Itoa(command.Int("port")), fiber.ListenConfig{
					DisableStartupMessage: true,
				})
			}()

			logger.Info("Serving nodes", "port", command.Int("port"), "nodes", len(reg.NodeFactories()))

			select {
			case err := <-listenErr:
				return err
			case <-ctx.Done():
			}

			logger.Info("Shutting down")

			shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()

			err = app.ShutdownWithContext(shutdownCtx)
			if err != nil && !errors.Is(err, context.DeadlineExceeded) {
				return err
			}

			return nil
		},
	}
}
