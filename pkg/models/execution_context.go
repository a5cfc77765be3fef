package models

// ExecutionContext carries per-invocation data handed to a node by the host.
type ExecutionContext struct {
	ID         string         `json:"id"`
	WorkflowID string         `json:"workflow_id"`
	Variables  map[string]any `json:"variables,omitempty"`
	Metadata   map[string]any `json:"metadata,omitempty"`

	// Credentials holds decrypted credential data keyed by credential type name.
	// It is injected by the host and never serialized.
	Credentials map[string]map[string]any `json:"-"`
}

// CredentialsFor returns the credential data registered under name, or nil.
func (e ExecutionContext) CredentialsFor(name string) map[string]any {
	if e.Credentials == nil {
		return nil
	}

	return e.Credentials[name]
}
