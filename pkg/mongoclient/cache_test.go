package mongoclient_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/dukex/operion-mongo/pkg/log"
	"github.com/dukex/operion-mongo/pkg/mongoclient"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

// lazyConnect opens a client without contacting a server.
func lazyConnect(calls *atomic.Int32) mongoclient.ConnectFunc {
	return func(_ context.Context, uri string, _ mongoclient.Config) (*mongo.Client, error) {
		calls.Add(1)
		time.Sleep(20 * time.Millisecond)

		return mongo.Connect(options.Client().ApplyURI(uri))
	}
}

func TestCache_ConcurrentFirstUseConverges(t *testing.T) {
	var calls atomic.Int32

	cache := mongoclient.NewCache(mongoclient.DefaultConfig(), log.Discard(), mongoclient.WithConnectFunc(lazyConnect(&calls)))
	t.Cleanup(func() { _ = cache.Close(context.Background()) })

	const workers = 10

	clients := make([]*mongo.Client, workers)

	var wg sync.WaitGroup

	for i := range workers {
		wg.Add(1)

		go func(i int) {
			defer wg.Done()

			client, err := cache.Client(context.Background(), "mongodb://localhost:27017")
			assert.NoError(t, err)

			clients[i] = client
		}(i)
	}

	wg.Wait()

	assert.Equal(t, int32(1), calls.Load())
	assert.Equal(t, 1, cache.Len())

	for _, client := range clients {
		assert.Same(t, clients[0], client)
	}
}

func TestCache_KeyedByConnectionString(t *testing.T) {
	var calls atomic.Int32

	cache := mongoclient.NewCache(mongoclient.DefaultConfig(), log.Discard(), mongoclient.WithConnectFunc(lazyConnect(&calls)))
	t.Cleanup(func() { _ = cache.Close(context.Background()) })

	a, err := cache.Client(context.Background(), "mongodb://host-a:27017")
	require.NoError(t, err)

	b, err := cache.Client(context.Background(), "mongodb://host-b:27017")
	require.NoError(t, err)

	again, err := cache.Client(context.Background(), "mongodb://host-a:27017")
	require.NoError(t, err)

	assert.NotSame(t, a, b)
	assert.Same(t, a, again)
	assert.Equal(t, int32(2), calls.Load())
	assert.Equal(t, 2, cache.Len())
}

func TestCache_Invalidate(t *testing.T) {
	var calls atomic.Int32

	cache := mongoclient.NewCache(mongoclient.DefaultConfig(), log.Discard(), mongoclient.WithConnectFunc(lazyConnect(&calls)))
	t.Cleanup(func() { _ = cache.Close(context.Background()) })

	uri := "mongodb://localhost:27017"

	first, err := cache.Client(context.Background(), uri)
	require.NoError(t, err)

	require.NoError(t, cache.Invalidate(context.Background(), uri))
	assert.Equal(t, 0, cache.Len())

	second, err := cache.Client(context.Background(), uri)
	require.NoError(t, err)

	assert.NotSame(t, first, second)
	assert.Equal(t, int32(2), calls.Load())

	require.NoError(t, cache.Invalidate(context.Background(), "mongodb://unknown:27017"))
}

func TestCache_ConnectFailureIsNotCached(t *testing.T) {
	var calls atomic.Int32

	failing := func(context.Context, string, mongoclient.Config) (*mongo.Client, error) {
		calls.Add(1)

		return nil, errors.Join(mongoclient.ErrFailedToConnect, errors.New("connection refused"))
	}

	cache := mongoclient.NewCache(mongoclient.DefaultConfig(), log.Discard(), mongoclient.WithConnectFunc(failing))

	_, err := cache.Client(context.Background(), "mongodb://localhost:1")
	require.ErrorIs(t, err, mongoclient.ErrFailedToConnect)

	_, err = cache.Client(context.Background(), "mongodb://localhost:1")
	require.Error(t, err)

	assert.Equal(t, int32(2), calls.Load())
	assert.Equal(t, 0, cache.Len())
}

func TestCache_Close(t *testing.T) {
	var calls atomic.Int32

	cache := mongoclient.NewCache(mongoclient.DefaultConfig(), log.Discard(), mongoclient.WithConnectFunc(lazyConnect(&calls)))

	_, err := cache.Client(context.Background(), "mongodb://localhost:27017")
	require.NoError(t, err)

	require.NoError(t, cache.Close(context.Background()))
	assert.Equal(t, 0, cache.Len())

	_, err = cache.Client(context.Background(), "mongodb://localhost:27017")
	require.ErrorIs(t, err, mongoclient.ErrCacheClosed)
}

func TestConnect_GivesUpAfterRetries(t *testing.T) {
	cfg := mongoclient.DefaultConfig()
	cfg.ConnectTimeout = 100 * time.Millisecond
	cfg.RetryAttempts = 2
	cfg.RetryInterval = 10 * time.Millisecond

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	_, err := mongoclient.Connect(ctx, "mongodb://127.0.0.1:1/?directConnection=true", cfg)
	require.ErrorIs(t, err, mongoclient.ErrFailedToConnect)
}

func TestConnect_InvalidURI(t *testing.T) {
	cfg := mongoclient.DefaultConfig()
	cfg.RetryAttempts = 1

	_, err := mongoclient.Connect(context.Background(), "not-a-uri", cfg)
	require.ErrorIs(t, err, mongoclient.ErrFailedToConnect)
}
