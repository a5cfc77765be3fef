package cmd

import (
	"context"
	"testing"

	"github.com/dukex/operion-mongo/pkg/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRegistry_RegistersMongoNode(t *testing.T) {
	cache, connector, err := NewConnector(log.Discard())
	require.NoError(t, err)

	t.Cleanup(func() {
		_ = cache.Close(context.Background())
	})

	tracer, shutdown, err := NewTracer(context.Background(), log.Discard(), false, "operion-mongo")
	require.NoError(t, err)

	defer shutdown()

	reg, err := NewRegistry(log.Discard(), t.TempDir(), connector, tracer)
	require.NoError(t, err)

	factory, ok := reg.GetNodeFactory("mongo")
	require.True(t, ok)
	assert.Equal(t, "MongoDB", factory.Name())
	assert.Equal(t, 0, cache.Len())
}

func TestNewConnector_InvalidEnv(t *testing.T) {
	t.Setenv("MONGODB_CONNECT_TIMEOUT", "soon")

	_, _, err := NewConnector(log.Discard())
	require.Error(t, err)
}
