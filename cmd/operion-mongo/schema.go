package main

import (
	"context"
	"fmt"

	"github.com/dukex/operion-mongo/pkg/cmd"
	"github.com/dukex/operion-mongo/pkg/log"
	"github.com/dukex/operion-mongo/pkg/otelhelper"
	"github.com/urfave/cli/v3"
)

type nodeTypeSummary struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

func SchemaCommand() *cli.Command {
	return &cli.Command{
		Name:      "schema",
		Usage:     "Print the config schema of a node type, or list node types",
		ArgsUsage: "[node-type]",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "plugins-path",
				Usage:   "Path to the directory containing node plugins",
				Sources: cli.EnvVars("PLUGINS_PATH"),
			},
		},
		Action: func(ctx context.Context, command *cli.Command) error {
			logger := log.WithModule("schema")

			cache, connector, err := cmd.NewConnector(logger)
			if err != nil {
				return err
			}

			defer func() {
				_ = cache.Close(ctx)
			}()

			reg, err := cmd.NewRegistry(logger, command.String("plugins-path"), connector, otelhelper.Tracer())
			if err != nil {
				return err
			}

			nodeType := command.Args().First()
			if nodeType == "" {
				factories := reg.NodeFactories()

				summaries := make([]nodeTypeSummary, 0, len(factories))
				for _, factory := range factories {
					summaries = append(summaries, nodeTypeSummary{
						ID:          factory.ID(),
						Name:        factory.Name(),
						Description: factory.Description(),
					})
				}

				return writeJSON(command, summaries)
			}

			factory, ok := reg.GetNodeFactory(nodeType)
			if !ok {
				return fmt.Errorf("unknown node type '%s'", nodeType)
			}

			return writeJSON(command, factory.Schema())
		},
	}
}
