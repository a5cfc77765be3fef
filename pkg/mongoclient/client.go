package mongoclient

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
	"go.mongodb.org/mongo-driver/v2/mongo/readpref"
)

// ConnectFunc opens a client for uri. It is swapped out in tests.
type ConnectFunc func(ctx context.Context, uri string, cfg Config) (*mongo.Client, error)

// Connect opens a client and pings the primary, retrying up to cfg.RetryAttempts times.
func Connect(ctx context.Context, uri string, cfg Config) (*mongo.Client, error) {
	attempts := max(cfg.RetryAttempts, 1)

	var lastErr error

	for attempt := 1; attempt <= attempts; attempt++ {
		if attempt > 1 {
			select {
			case <-ctx.Done():
				return nil, errors.Join(ErrFailedToConnect, ctx.Err(), lastErr)
			case <-time.After(cfg.RetryInterval):
			}
		}

		client, err := mongo.Connect(clientOptions(uri, cfg))
		if err != nil {
			lastErr = err

			continue
		}

		err = client.Ping(ctx, readpref.Primary())
		if err == nil {
			return client, nil
		}

		lastErr = err

		_ = client.Disconnect(context.WithoutCancel(ctx))
	}

	return nil, errors.Join(ErrFailedToConnect, fmt.Errorf("after %d attempts: %w", attempts, lastErr))
}

func clientOptions(uri string, cfg Config) *options.ClientOptions {
	opts := options.Client().
		ApplyURI(uri).
		SetRetryWrites(cfg.RetryWrites).
		SetRetryReads(cfg.RetryReads)

	if cfg.AppName != "" {
		opts.SetAppName(cfg.AppName)
	}

	if cfg.ConnectTimeout > 0 {
		opts.SetConnectTimeout(cfg.ConnectTimeout).SetServerSelectionTimeout(cfg.ConnectTimeout)
	}

	if cfg.MaxPoolSize > 0 {
		opts.SetMaxPoolSize(cfg.MaxPoolSize)
	}

	if cfg.MinPoolSize > 0 {
		opts.SetMinPoolSize(cfg.MinPoolSize)
	}

	if cfg.MaxConnIdleTime > 0 {
		opts.SetMaxConnIdleTime(cfg.MaxConnIdleTime)
	}

	return opts
}

// Healthcheck returns a function that pings the primary.
func Healthcheck(client *mongo.Client) func(context.Context) error {
	return func(ctx context.Context) error {
		err := client.Ping(ctx, readpref.Primary())
		if err != nil {
			return errors.Join(ErrHealthcheckFailed, err)
		}

		return nil
	}
}
