// Package mongo provides a workflow node that runs one MongoDB collection
// operation per input item.
package mongo

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/dukex/operion-mongo/pkg/credentials"
	"github.com/dukex/operion-mongo/pkg/models"
	"github.com/dukex/operion-mongo/pkg/otelhelper"
	"github.com/dukex/operion-mongo/pkg/template"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const NodeType = "mongo"

// Invalidator is implemented by connectors that can drop a broken connection.
type Invalidator interface {
	Invalidate(ctx context.Context, resolved credentials.Resolved) error
}

// Node runs the configured operation for every item in a batch.
type Node struct {
	id         string
	config     Config
	connector  Connector
	resolver   Resolver
	dispatcher *Dispatcher
	logger     *slog.Logger
	tracer     trace.Tracer
}

func NewNode(id string, config map[string]any, connector Connector, logger *slog.Logger, tracer trace.Tracer) (*Node, error) {
	cfg, err := ParseConfig(config)
	if err != nil {
		return nil, err
	}

	logger = logger.With("node_id", id)

	return &Node{
		id:         id,
		config:     cfg,
		connector:  connector,
		resolver:   Resolver{Strict: cfg.StrictOperations},
		dispatcher: NewDispatcher(logger, tracer, cfg.MaxConcurrency),
		logger:     logger,
		tracer:     tracer,
	}, nil
}

func (n *Node) ID() string {
	return n.id
}

func (n *Node) Type() string {
	return NodeType
}

// Execute resolves credentials, connects, dispatches one operation per item
// and merges the outcomes back into the items.
func (n *Node) Execute(ctx context.Context, executionCtx models.ExecutionContext, items []models.Item) ([]models.Item, error) {
	ctx, span := otelhelper.StartSpan(ctx, n.tracer, "mongo.execute",
		attribute.String(otelhelper.ExecutionIDKey, executionCtx.ID),
		attribute.String(otelhelper.WorkflowIDKey, executionCtx.WorkflowID),
		attribute.String(otelhelper.NodeIDKey, n.id),
		attribute.String(otelhelper.NodeTypeKey, NodeType),
		attribute.String(otelhelper.DBSystemKey, "mongodb"),
		attribute.Int(otelhelper.ItemCountKey, len(items)),
	)
	defer span.End()

	logger := n.logger.With("execution_id", executionCtx.ID)

	resolved, err := credentials.ResolveMap(executionCtx.CredentialsFor(credentials.Type))
	if err != nil {
		otelhelper.SetError(span, err)

		return nil, err
	}

	if len(items) == 0 {
		return []models.Item{}, nil
	}

	scope := template.NewScope(&executionCtx)

	collectionName, err := n.collectionName(scope, items[0])
	if err != nil {
		otelhelper.SetError(span, err)

		return nil, err
	}

	tasks := make([]Task, len(items))
	for i, item := range items {
		req, err := n.resolver.Resolve(i, n.params(scope, item, i))
		tasks[i] = Task{Request: req, Err: err}
	}

	db, err := n.connector.Connect(ctx, resolved)
	if err != nil {
		otelhelper.SetError(span, err)
		logger.ErrorContext(ctx, "Failed to connect", "error", err)

		return nil, err
	}

	span.SetAttributes(
		attribute.String(otelhelper.DBNamespaceKey, db.Name()),
		attribute.String(otelhelper.DBCollectionKey, collectionName),
	)

	logger.InfoContext(ctx, "Executing mongo node",
		"collection", collectionName,
		"items", len(items),
		"transaction", n.config.RunInTransaction,
	)

	coll := db.Collection(collectionName)

	var outcomes []Outcome
	if n.config.RunInTransaction {
		outcomes = n.dispatcher.DispatchTransaction(ctx, db, coll, tasks)
	} else {
		outcomes = n.dispatcher.Dispatch(ctx, coll, tasks)
	}

	n.invalidateOnNetworkError(ctx, resolved, outcomes)

	merged, err := Merge(n.id, items, outcomes, n.config.ContinueOnFail)
	if err != nil {
		otelhelper.SetError(span, err)
		logger.WarnContext(ctx, "Mongo node failed", "error", err)

		return nil, err
	}

	failed := 0
	for _, o := range outcomes {
		if !o.Fulfilled() {
			failed++
		}
	}

	logger.InfoContext(ctx, "Mongo node finished", "items", len(merged), "failed", failed)

	return merged, nil
}

func (n *Node) collectionName(scope *template.Scope, first models.Item) (string, error) {
	tmpl, ok := n.config.Template(ParamCollection)
	if !ok {
		return "", ErrCollectionRequired
	}

	name, err := tmpl.Render(scope.ItemData(first, 0))
	if err != nil {
		return "", fmt.Errorf("failed to render collection: %w", err)
	}

	name = strings.TrimSpace(name)
	if name == "" {
		return "", ErrCollectionRequired
	}

	return name, nil
}

// params renders parameters lazily for one item; unconfigured ones are "".
func (n *Node) params(scope *template.Scope, item models.Item, index int) Params {
	var data map[string]any

	return func(name string) (string, error) {
		tmpl, ok := n.config.Template(name)
		if !ok {
			return "", nil
		}

		if tmpl.IsStatic() {
			return tmpl.Source(), nil
		}

		if data == nil {
			data = scope.ItemData(item, index)
		}

		return tmpl.Render(data)
	}
}

func (n *Node) invalidateOnNetworkError(ctx context.Context, resolved credentials.Resolved, outcomes []Outcome) {
	invalidator, ok := n.connector.(Invalidator)
	if !ok {
		return
	}

	for _, o := range outcomes {
		if o.Err == nil || !mongo.IsNetworkError(o.Err) {
			continue
		}

		err := invalidator.Invalidate(context.WithoutCancel(ctx), resolved)
		if err != nil {
			n.logger.WarnContext(ctx, "Failed to drop broken connection", "error", err)
		}

		return
	}
}
