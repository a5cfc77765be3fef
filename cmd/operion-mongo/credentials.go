package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/dukex/operion-mongo/pkg/cmd"
	"github.com/dukex/operion-mongo/pkg/credentials"
	"github.com/dukex/operion-mongo/pkg/log"
	"github.com/dukex/operion-mongo/pkg/models"
	"github.com/dukex/operion-mongo/pkg/otelhelper"
	"github.com/urfave/cli/v3"
)

func credentialFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "credentials-file",
			Usage:   "Path to a JSON file with the credential fields",
			Sources: cli.EnvVars("MONGODB_CREDENTIALS_FILE"),
		},
		&cli.StringFlag{
			Name:    "connection-string",
			Usage:   "MongoDB connection string",
			Sources: cli.EnvVars("MONGODB_CONNECTION_STRING"),
		},
		&cli.StringFlag{
			Name:    "host",
			Usage:   "MongoDB host, used when no connection string is given",
			Sources: cli.EnvVars("MONGODB_HOST"),
		},
		&cli.IntFlag{
			Name:    "port",
			Usage:   "MongoDB port; zero selects a mongodb+srv URI",
			Sources: cli.EnvVars("MONGODB_PORT"),
		},
		&cli.StringFlag{
			Name:    "user",
			Usage:   "MongoDB user",
			Sources: cli.EnvVars("MONGODB_USER"),
		},
		&cli.StringFlag{
			Name:    "password",
			Usage:   "MongoDB password",
			Sources: cli.EnvVars("MONGODB_PASSWORD"),
		},
		&cli.StringFlag{
			Name:    "database",
			Usage:   "Database name; defaults to the one in the connection string",
			Sources: cli.EnvVars("MONGODB_DATABASE"),
		},
	}
}

// credentialsFromFlags returns the credential fields the way the host would
// inject them. A credentials file wins over individual flags.
func credentialsFromFlags(command *cli.Command) (map[string]any, error) {
	if path := command.String("credentials-file"); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read credentials file: %w", err)
		}

		var raw map[string]any

		err = json.Unmarshal(data, &raw)
		if err != nil {
			return nil, fmt.Errorf("failed to parse credentials file: %w", err)
		}

		return raw, nil
	}

	if connectionString := command.String("connection-string"); connectionString != "" {
		return map[string]any{
			"configurationType": string(credentials.ConfigurationTypeConnectionString),
			"connectionString":  connectionString,
			"database":          command.String("database"),
		}, nil
	}

	if command.String("host") == "" {
		return nil, nil
	}

	return map[string]any{
		"configurationType": string(credentials.ConfigurationTypeValues),
		"host":              command.String("host"),
		"port":              command.Int("port"),
		"user":              command.String("user"),
		"password":          command.String("password"),
		"database":          command.String("database"),
	}, nil
}

func writeJSON(command *cli.Command, value any) error {
	encoder := json.NewEncoder(command.Root().Writer)
	encoder.SetIndent("", "  ")

	return encoder.Encode(value)
}

func TestCredentialsCommand() *cli.Command {
	return &cli.Command{
		Name:    "test-credentials",
		Aliases: []string{"t"},
		Usage:   "Connect with the given credentials and ping the server",
		Flags:   credentialFlags(),
		Action: func(ctx context.Context, command *cli.Command) error {
			logger := log.WithModule("test-credentials")

			raw, err := credentialsFromFlags(command)
			if err != nil {
				return err
			}

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

			reg, err := cmd.NewRegistry(logger, "", connector, otelhelper.Tracer())
			if err != nil {
				return err
			}

			tester, ok := reg.CredentialTester(credentials.Type)
			if !ok {
				return fmt.Errorf("no node tests credentials of type '%s'", credentials.Type)
			}

			result := tester.TestCredentials(ctx, raw)

			err = writeJSON(command, result)
			if err != nil {
				return err
			}

			if result.Status != models.CredentialTestOK {
				return cli.Exit("", 1)
			}

			return nil
		},
	}
}
