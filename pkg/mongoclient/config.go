package mongoclient

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config tunes every client the cache creates. The connection string itself
// comes from credentials, not from here.
type Config struct {
	AppName         string        `env:"MONGODB_APP_NAME" envDefault:"operion-mongo"`  // AppName is reported to the server in the handshake.
	ConnectTimeout  time.Duration `env:"MONGODB_CONNECT_TIMEOUT" envDefault:"10s"`     // ConnectTimeout is the timeout for connecting to the database.
	MaxPoolSize     uint64        `env:"MONGODB_MAX_POOL_SIZE" envDefault:"100"`       // MaxPoolSize is the maximum number of connections in the connection pool.
	MinPoolSize     uint64        `env:"MONGODB_MIN_POOL_SIZE" envDefault:"0"`         // MinPoolSize is the minimum number of connections in the connection pool.
	MaxConnIdleTime time.Duration `env:"MONGODB_MAX_CONN_IDLE_TIME" envDefault:"300s"` // MaxConnIdleTime is how long an idle pooled connection is kept.
	RetryWrites     bool          `env:"MONGODB_RETRY_WRITES" envDefault:"true"`       // RetryWrites lets the driver retry eligible writes once.
	RetryReads      bool          `env:"MONGODB_RETRY_READS" envDefault:"true"`        // RetryReads lets the driver retry eligible reads once.
	RetryAttempts   int           `env:"MONGODB_RETRY_ATTEMPTS" envDefault:"3"`        // RetryAttempts is the number of connect attempts before giving up.
	RetryInterval   time.Duration `env:"MONGODB_RETRY_INTERVAL" envDefault:"2s"`       // RetryInterval is the pause between connect attempts.
}

// LoadConfig reads the client configuration from the environment.
func LoadConfig() (Config, error) {
	var cfg Config

	err := env.Parse(&cfg)
	if err != nil {
		return Config{}, fmt.Errorf("failed to parse mongo client config: %w", err)
	}

	return cfg, nil
}

// DefaultConfig returns the configuration used when the environment sets nothing.
func DefaultConfig() Config {
	return Config{
		AppName:         "operion-mongo",
		ConnectTimeout:  10 * time.Second,
		MaxPoolSize:     100,
		MaxConnIdleTime: 300 * time.Second,
		RetryWrites:     true,
		RetryReads:      true,
		RetryAttempts:   3,
		RetryInterval:   2 * time.Second,
	}
}
