package web

import "github.com/dukex/operion-mongo/pkg/models"

// NodeTypeResponse describes a registered node type.
type NodeTypeResponse struct {
	ID             string         `json:"id"`
	Name           string         `json:"name"`
	Description    string         `json:"description"`
	Schema         map[string]any `json:"schema"`
	CredentialType string         `json:"credential_type,omitempty"`
}

// ExecutionRequest carries the execution context fields a caller may set.
type ExecutionRequest struct {
	ID         string         `json:"id"`
	WorkflowID string         `json:"workflow_id"`
	Variables  map[string]any `json:"variables,omitempty"`
	Metadata   map[string]any `json:"metadata,omitempty"`
}

// ExecuteNodeRequest represents the request body for running a node once.
type ExecuteNodeRequest struct {
	NodeID      string                    `json:"node_id"`
	Config      map[string]any            `json:"config"      validate:"required"`
	Items       []models.Item             `json:"items"`
	Execution   ExecutionRequest          `json:"execution"`
	Credentials map[string]map[string]any `json:"credentials"`
}

// ExecuteNodeResponse holds one output item per input item.
type ExecuteNodeResponse struct {
	ExecutionID string        `json:"execution_id"`
	NodeID      string        `json:"node_id"`
	Items       []models.Item `json:"items"`
}

// TestCredentialsRequest represents the request body for a credential self-test.
type TestCredentialsRequest struct {
	Type string         `json:"type" validate:"required"`
	Data map[string]any `json:"data" validate:"required"`
}
