// Package models defines the data exchanged between the host and nodes.
package models

// WorkflowNode represents a node instance declared in a workflow.
type WorkflowNode struct {
	ID      string         `json:"id"      validate:"required"`
	Type    string         `json:"type"    validate:"required"`
	Name    string         `json:"name"    validate:"required,min=1"`
	Config  map[string]any `json:"config"`
	Enabled bool           `json:"enabled"`
}

// NodeStatus defines the possible states of a node execution.
type NodeStatus string

const (
	NodeStatusPending NodeStatus = "pending"
	NodeStatusRunning NodeStatus = "running"
	NodeStatusSuccess NodeStatus = "success"
	NodeStatusError   NodeStatus = "error"
)

// CredentialTestStatus is the binary outcome of a credential self-test.
type CredentialTestStatus string

const (
	CredentialTestOK    CredentialTestStatus = "OK"
	CredentialTestError CredentialTestStatus = "Error"
)

// CredentialTestResult reports whether credentials could be used to connect.
type CredentialTestResult struct {
	Status  CredentialTestStatus `json:"status"`
	Message string               `json:"message"`
}
