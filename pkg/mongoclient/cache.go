// Package mongoclient keeps one MongoDB client per connection string for the
// lifetime of the process.
package mongoclient

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"go.mongodb.org/mongo-driver/v2/mongo"
	"golang.org/x/sync/singleflight"
)

// Cache hands out shared clients keyed by connection string. Concurrent first
// requests for the same key converge on a single connect.
type Cache struct {
	cfg     Config
	logger  *slog.Logger
	connect ConnectFunc

	mu      sync.RWMutex
	clients map[string]*mongo.Client
	closed  bool
	group   singleflight.Group
}

type Option func(*Cache)

// WithConnectFunc replaces the function used to open new clients.
func WithConnectFunc(fn ConnectFunc) Option {
	return func(c *Cache) {
		c.connect = fn
	}
}

func NewCache(cfg Config, logger *slog.Logger, opts ...Option) *Cache {
	c := &Cache{
		cfg:     cfg,
		logger:  logger.With("module", "mongoclient"),
		connect: Connect,
		clients: make(map[string]*mongo.Client),
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// Client returns the cached client for uri, connecting on first use.
func (c *Cache) Client(ctx context.Context, uri string) (*mongo.Client, error) {
	c.mu.RLock()
	client, ok := c.clients[uri]
	closed := c.closed
	c.mu.RUnlock()

	if closed {
		return nil, ErrCacheClosed
	}

	if ok {
		return client, nil
	}

	v, err, shared := c.group.Do(uri, func() (any, error) {
		c.mu.RLock()
		existing, ok := c.clients[uri]
		c.mu.RUnlock()

		if ok {
			return existing, nil
		}

		c.logger.DebugContext(ctx, "Connecting new mongo client")

		created, err := c.connect(ctx, uri, c.cfg)
		if err != nil {
			return nil, err
		}

		c.mu.Lock()
		defer c.mu.Unlock()

		if c.closed {
			_ = created.Disconnect(context.WithoutCancel(ctx))

			return nil, ErrCacheClosed
		}

		c.clients[uri] = created

		return created, nil
	})
	if err != nil {
		c.logger.WarnContext(ctx, "Failed to connect mongo client", "error", err)

		return nil, err
	}

	if shared {
		c.logger.DebugContext(ctx, "Joined in-flight mongo connect")
	}

	return v.(*mongo.Client), nil
}

// Invalidate disconnects and forgets the client for uri, if any.
func (c *Cache) Invalidate(ctx context.Context, uri string) error {
	c.mu.Lock()
	client, ok := c.clients[uri]
	delete(c.clients, uri)
	c.mu.Unlock()

	if !ok {
		return nil
	}

	return client.Disconnect(ctx)
}

// Sweep pings every cached client and drops the ones that fail.
func (c *Cache) Sweep(ctx context.Context) int {
	c.mu.RLock()
	snapshot := make(map[string]*mongo.Client, len(c.clients))
	for uri, client := range c.clients {
		snapshot[uri] = client
	}
	c.mu.RUnlock()

	dropped := 0

	for uri, client := range snapshot {
		err := Healthcheck(client)(ctx)
		if err == nil {
			continue
		}

		c.logger.WarnContext(ctx, "Dropping unhealthy mongo client", "error", err)

		c.mu.Lock()
		if c.clients[uri] == client {
			delete(c.clients, uri)
			dropped++
		}
		c.mu.Unlock()

		_ = client.Disconnect(ctx)
	}

	return dropped
}

// Len returns the number of cached clients.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return len(c.clients)
}

// Close disconnects every client. Later calls to Client fail with ErrCacheClosed.
func (c *Cache) Close(ctx context.Context) error {
	c.mu.Lock()
	clients := c.clients
	c.clients = make(map[string]*mongo.Client)
	c.closed = true
	c.mu.Unlock()

	var errs []error

	for _, client := range clients {
		err := client.Disconnect(ctx)
		if err != nil {
			errs = append(errs, err)
		}
	}

	return errors.Join(errs...)
}
