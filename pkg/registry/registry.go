// Package registry keeps the node factories available to a process and
// creates configured nodes from them.
package registry

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"plugin"
	"slices"
	"strings"
	"sync"

	"github.com/dukex/operion-mongo/pkg/protocol"
	"github.com/xeipuuv/gojsonschema"
)

var ErrNodeTypeNotRegistered = errors.New("node type not registered")

// ConfigValidationError lists the schema violations of a node configuration.
type ConfigValidationError struct {
	NodeType string
	Errors   []string
}

func (e *ConfigValidationError) Error() string {
	return fmt.Sprintf("invalid config for node type '%s': %s", e.NodeType, strings.Join(e.Errors, "; "))
}

type Registry struct {
	logger        *slog.Logger
	mu            sync.RWMutex
	nodeFactories map[string]protocol.NodeFactory
}

func NewRegistry(log *slog.Logger) *Registry {
	return &Registry{
		logger:        log,
		nodeFactories: make(map[string]protocol.NodeFactory),
	}
}

// LoadNodePlugins opens every .so under <pluginsPath>/nodes and returns the
// factories they export as the "Node" symbol.
func (r *Registry) LoadNodePlugins(pluginsPath string) ([]protocol.NodeFactory, error) {
	return loadPlugin[protocol.NodeFactory](r.logger, pluginsPath, "Node")
}

func (r *Registry) RegisterNode(factory protocol.NodeFactory) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.nodeFactories[factory.ID()] = factory
}

// GetNodeFactory returns the factory registered for nodeType.
func (r *Registry) GetNodeFactory(nodeType string) (protocol.NodeFactory, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	factory, ok := r.nodeFactories[nodeType]

	return factory, ok
}

// NodeFactories returns every registered factory ordered by ID.
func (r *Registry) NodeFactories() []protocol.NodeFactory {
	r.mu.RLock()
	defer r.mu.RUnlock()

	factories := make([]protocol.NodeFactory, 0, len(r.nodeFactories))
	for _, factory := range r.nodeFactories {
		factories = append(factories, factory)
	}

	slices.SortFunc(factories, func(a, b protocol.NodeFactory) int {
		return strings.Compare(a.ID(), b.ID())
	})

	return factories
}

// CreateNode validates config against the factory schema and creates the node.
func (r *Registry) CreateNode(ctx context.Context, nodeType, id string, config map[string]any) (protocol.Node, error) {
	factory, ok := r.GetNodeFactory(nodeType)
	if !ok {
		return nil, fmt.Errorf("%w: '%s'", ErrNodeTypeNotRegistered, nodeType)
	}

	err := ValidateConfig(factory, config)
	if err != nil {
		return nil, err
	}

	return factory.Create(ctx, id, config)
}

// CredentialTester returns the factory that can test credentials of credentialType.
func (r *Registry) CredentialTester(credentialType string) (protocol.CredentialTester, bool) {
	for _, factory := range r.NodeFactories() {
		tester, ok := factory.(protocol.CredentialTester)
		if ok && tester.CredentialType() == credentialType {
			return tester, true
		}
	}

	return nil, false
}

// ValidateConfig checks config against the factory's JSON schema.
func ValidateConfig(factory protocol.NodeFactory, config map[string]any) error {
	if config == nil {
		config = map[string]any{}
	}

	schemaLoader := gojsonschema.NewGoLoader(factory.Schema())
	dataLoader := gojsonschema.NewGoLoader(config)

	result, err := gojsonschema.Validate(schemaLoader, dataLoader)
	if err != nil {
		return fmt.Errorf("failed to validate config for node type '%s': %w", factory.ID(), err)
	}

	if !result.Valid() {
		var errors []string
		for _, desc := range result.Errors() {
			errors = append(errors, desc.String())
		}

		return &ConfigValidationError{NodeType: factory.ID(), Errors: errors}
	}

	return nil
}

func loadPlugin[T any](logger *slog.Logger, pluginsPath string, symbolName string) ([]T, error) {
	rootPath := pluginsPath + "/" + strings.ToLower(symbolName) + "s"
	root := os.DirFS(rootPath)

	pluginPathList, err := fs.Glob(root, "*.so")
	if err != nil {
		return nil, err
	}

	l := logger.With(slog.String("path", pluginsPath), slog.String("type", symbolName))
	l.Info("Loading plugins")

	pluginList := make([]T, 0, len(pluginPathList))

	for _, p := range pluginPathList {
		plg, err := plugin.Open(rootPath + "/" + p)
		if err != nil {
			return nil, fmt.Errorf("failed to open plugin %s: %w", p, err)
		}

		v, err := plg.Lookup(symbolName)
		if err != nil {
			return nil, fmt.Errorf("plugin %s: %w", p, err)
		}

		castV, ok := v.(T)
		if !ok {
			// Exported variables are looked up as pointers.
			ptr, isPtr := v.(*T)
			if !isPtr {
				return nil, fmt.Errorf("plugin %s: symbol %s has type %T", p, symbolName, v)
			}

			castV = *ptr
		}

		pluginList = append(pluginList, castV)

		l.Info("Loaded node plugin", slog.String("plugin", p))
	}

	return pluginList, nil
}
