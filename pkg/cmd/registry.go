// Package cmd provides common initialization functions for command-line applications.
package cmd

import (
	"fmt"
	"log/slog"

	"github.com/dukex/operion-mongo/pkg/nodes/mongo"
	"github.com/dukex/operion-mongo/pkg/registry"
	"go.opentelemetry.io/otel/trace"
)

func registerNodePlugins(reg *registry.Registry, pluginsPath string) error {
	nodePlugins, err := reg.LoadNodePlugins(pluginsPath)
	if err != nil {
		return fmt.Errorf("failed to load node plugins: %w", err)
	}

	for _, plugin := range nodePlugins {
		reg.RegisterNode(plugin)
	}

	return nil
}

// NewRegistry registers the native nodes and, when pluginsPath is set, the
// node plugins found there. Plugins registered under a native ID replace it.
func NewRegistry(log *slog.Logger, pluginsPath string, connector mongo.Connector, tracer trace.Tracer) (*registry.Registry, error) {
	reg := registry.NewRegistry(log)

	reg.RegisterDefaultNodes(connector, tracer)

	if pluginsPath != "" {
		err := registerNodePlugins(reg, pluginsPath)
		if err != nil {
			return nil, err
		}
	}

	return reg, nil
}
