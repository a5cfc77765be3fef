package registry

import (
	"context"
	"errors"
	"testing"

	"github.com/dukex/operion-mongo/pkg/credentials"
	"github.com/dukex/operion-mongo/pkg/log"
	"github.com/dukex/operion-mongo/pkg/models"
	"github.com/dukex/operion-mongo/pkg/nodes/mongo"
	"github.com/dukex/operion-mongo/pkg/otelhelper"
	"github.com/dukex/operion-mongo/pkg/protocol"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubNode struct {
	id string
}

func (n *stubNode) ID() string   { return n.id }
func (n *stubNode) Type() string { return "stub" }

func (n *stubNode) Execute(_ context.Context, _ models.ExecutionContext, items []models.Item) ([]models.Item, error) {
	return items, nil
}

type stubFactory struct{}

func (stubFactory) Create(_ context.Context, id string, _ map[string]any) (protocol.Node, error) {
	return &stubNode{id: id}, nil
}

func (stubFactory) ID() string          { return "stub" }
func (stubFactory) Name() string        { return "Stub" }
func (stubFactory) Description() string { return "Returns its input" }

func (stubFactory) Schema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"message": map[string]any{"type": "string"},
		},
		"required": []string{"message"},
	}
}

type failingConnector struct{}

func (failingConnector) Connect(context.Context, credentials.Resolved) (mongo.Database, error) {
	return nil, errors.New("not connected")
}

func TestRegistry_RegisterAndCreateNode(t *testing.T) {
	registry := NewRegistry(log.Discard())
	registry.RegisterNode(stubFactory{})

	node, err := registry.CreateNode(context.Background(), "stub", "n1", map[string]any{"message": "hi"})
	require.NoError(t, err)
	assert.Equal(t, "n1", node.ID())

	_, err = registry.CreateNode(context.Background(), "stub", "n2", map[string]any{"message": 3})

	var validationErr *ConfigValidationError
	require.ErrorAs(t, err, &validationErr)
	assert.Equal(t, "stub", validationErr.NodeType)
	assert.NotEmpty(t, validationErr.Errors)

	_, err = registry.CreateNode(context.Background(), "stub", "n3", nil)
	require.ErrorAs(t, err, &validationErr)
}

func TestRegistry_UnknownNodeType(t *testing.T) {
	registry := NewRegistry(log.Discard())

	_, err := registry.CreateNode(context.Background(), "missing", "n1", nil)
	require.ErrorIs(t, err, ErrNodeTypeNotRegistered)
}

func TestRegistry_DefaultNodes(t *testing.T) {
	registry := NewRegistry(log.Discard())
	registry.RegisterNode(stubFactory{})
	registry.RegisterDefaultNodes(failingConnector{}, otelhelper.Tracer())

	factories := registry.NodeFactories()
	require.Len(t, factories, 2)
	assert.Equal(t, "mongo", factories[0].ID())
	assert.Equal(t, "stub", factories[1].ID())

	_, err := registry.CreateNode(context.Background(), "mongo", "m1", map[string]any{"collection": "users"})
	require.NoError(t, err)

	_, err = registry.CreateNode(context.Background(), "mongo", "m2", map[string]any{"operation": "find"})
	require.Error(t, err)

	tester, ok := registry.CredentialTester(credentials.Type)
	require.True(t, ok)

	result := tester.TestCredentials(context.Background(), map[string]any{"connectionString": "mongodb://localhost"})
	assert.Equal(t, models.CredentialTestError, result.Status)
	assert.Equal(t, "not connected", result.Message)

	_, ok = registry.CredentialTester("postgres")
	assert.False(t, ok)
}

func TestRegistry_LoadNodePlugins_EmptyDir(t *testing.T) {
	registry := NewRegistry(log.Discard())

	factories, err := registry.LoadNodePlugins(t.TempDir())
	require.NoError(t, err)
	assert.Empty(t, factories)
}
