package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/dukex/operion-mongo/pkg/cmd"
	"github.com/dukex/operion-mongo/pkg/credentials"
	"github.com/dukex/operion-mongo/pkg/log"
	"github.com/dukex/operion-mongo/pkg/models"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/urfave/cli/v3"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

func ExecuteCommand() *cli.Command {
	flags := []cli.Flag{
		&cli.StringFlag{
			Name:     "node",
			Aliases:  []string{"n"},
			Usage:    "Path to a JSON workflow node definition",
			Required: true,
		},
		&cli.StringFlag{
			Name:    "items",
			Aliases: []string{"i"},
			Usage:   "Path to a JSON array of input objects, or - for stdin",
			Value:   "-",
		},
		&cli.StringFlag{
			Name:  "execution-id",
			Usage: "Execution ID (generated if not provided)",
		},
		&cli.StringFlag{
			Name:  "workflow-id",
			Usage: "Workflow ID exposed to templates",
		},
		&cli.StringFlag{
			Name:    "plugins-path",
			Usage:   "Path to the directory containing node plugins",
			Sources: cli.EnvVars("PLUGINS_PATH"),
		},
		&cli.BoolFlag{
			Name:    "tracing",
			Usage:   "Export traces over OTLP/HTTP",
			Sources: cli.EnvVars("TRACING_ENABLED"),
		},
	}

	return &cli.Command{
		Name:    "execute",
		Aliases: []string{"e"},
		Usage:   "Run a node once over a batch of items and print the output items",
		Flags:   append(flags, credentialFlags()...),
		Action: func(ctx context.Context, command *cli.Command) error {
			logger := log.WithModule("execute")

			node, err := readWorkflowNode(command.String("node"))
			if err != nil {
				return err
			}

			items, err := readItems(command.Root().Reader, command.String("items"))
			if err != nil {
				return err
			}

			if !node.Enabled {
				logger.InfoContext(ctx, "Node is disabled, passing items through", "node_id", node.ID)

				return writeJSON(command, items)
			}

			raw, err := credentialsFromFlags(command)
			if err != nil {
				return err
			}

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
				err := cache.Close(ctx)
				if err != nil {
					logger.ErrorContext(ctx, "Failed to close client cache", "error", err)
				}
			}()

			reg, err := cmd.NewRegistry(logger, command.String("plugins-path"), connector, tracer)
			if err != nil {
				return err
			}

			instance, err := reg.CreateNode(ctx, node.Type, node.ID, node.Config)
			if err != nil {
				return err
			}

			executionCtx := models.ExecutionContext{
				ID:         command.String("execution-id"),
				WorkflowID: command.String("workflow-id"),
			}

			if executionCtx.ID == "" {
				executionCtx.ID = uuid.NewString()
			}

			if raw != nil {
				executionCtx.Credentials = map[string]map[string]any{credentials.Type: raw}
			}

			output, err := instance.Execute(ctx, executionCtx, items)
			if err != nil {
				return err
			}

			return writeJSON(command, output)
		},
	}
}

func readWorkflowNode(path string) (*models.WorkflowNode, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read node file: %w", err)
	}

	var node models.WorkflowNode

	err = json.Unmarshal(data, &node)
	if err != nil {
		return nil, fmt.Errorf("failed to parse node file: %w", err)
	}

	err = validate.Struct(node)
	if err != nil {
		return nil, fmt.Errorf("invalid node definition: %w", err)
	}

	return &node, nil
}

// readItems decodes a JSON array of objects into items. path "-" reads stdin.
func readItems(stdin io.Reader, path string) ([]models.Item, error) {
	var (
		data []byte
		err  error
	)

	if path == "-" {
		data, err = io.ReadAll(stdin)
	} else {
		data, err = os.ReadFile(path)
	}

	if err != nil {
		return nil, fmt.Errorf("failed to read items: %w", err)
	}

	var objects []map[string]any

	err = json.Unmarshal(data, &objects)
	if err != nil {
		return nil, fmt.Errorf("items must be a JSON array of objects: %w", err)
	}

	items := make([]models.Item, len(objects))
	for i, object := range objects {
		items[i] = models.NewItem(object)
	}

	return items, nil
}
