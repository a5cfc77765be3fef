package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/dukex/operion-mongo/pkg/log"
	cli "github.com/urfave/cli/v3"
)

const serviceName = "operion-mongo"

func main() {
	cmd := &cli.Command{
		Name:                  serviceName,
		Usage:                 "Run MongoDB operations as workflow nodes",
		EnableShellCompletion: true,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "log-level",
				Usage:   "Log level (debug, info, warn, error)",
				Value:   "info",
				Sources: cli.EnvVars("LOG_LEVEL"),
			},
			&cli.StringFlag{
				Name:    "log-format",
				Usage:   "Log format (text, json)",
				Value:   "text",
				Sources: cli.EnvVars("LOG_FORMAT"),
			},
		},
		Before: func(ctx context.Context, command *cli.Command) (context.Context, error) {
			log.Setup(command.String("log-level"), command.String("log-format"))

			return ctx, nil
		},
		Commands: []*cli.Command{
			ExecuteCommand(),
			TestCredentialsCommand(),
			SchemaCommand(),
			ServeCommand(),
		},
	}

	err := cmd.Run(context.Background(), os.Args)
	if err != nil {
		slog.Error("Command failed", "error", err)
		os.Exit(1)
	}
}
