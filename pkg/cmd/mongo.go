package cmd

import (
	"fmt"
	"log/slog"

	"github.com/dukex/operion-mongo/pkg/mongoclient"
	"github.com/dukex/operion-mongo/pkg/nodes/mongo"
)

// NewConnector builds the process-wide client cache from MONGODB_* variables
// and the connector nodes use to reach it. The caller closes the cache.
func NewConnector(logger *slog.Logger) (*mongoclient.Cache, *mongo.DriverConnector, error) {
	cfg, err := mongoclient.LoadConfig()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load mongodb client config: %w", err)
	}

	cache := mongoclient.NewCache(cfg, logger.With("component", "mongoclient"))

	return cache, mongo.NewDriverConnector(cache), nil
}
