// Package protocol defines the interfaces and contracts for pluggable nodes.
package protocol

import (
	"context"

	"github.com/dukex/operion-mongo/pkg/models"
)

// Node processes a batch of items for one invocation of a workflow step.
type Node interface {
	ID() string
	Type() string

	// Execute returns one output item per input item, in input order.
	Execute(ctx context.Context, executionCtx models.ExecutionContext, items []models.Item) ([]models.Item, error)
}

// NodeFactory creates node instances and provides metadata about the node type.
type NodeFactory interface {
	// Create creates a new node instance with the given configuration
	Create(ctx context.Context, id string, config map[string]any) (Node, error)

	// ID returns the unique identifier for this node type
	ID() string

	// Name returns the human-readable name for this node type
	Name() string

	// Description returns a description of what this node does
	Description() string

	// Schema returns the JSON schema for configuring this node
	Schema() map[string]any
}

// CredentialTester is implemented by factories whose nodes need credentials
// that can be checked without running a workflow.
type CredentialTester interface {
	// CredentialType is the name under which the host injects the credentials.
	CredentialType() string

	TestCredentials(ctx context.Context, credentials map[string]any) models.CredentialTestResult
}
