package ports

import "context"

// Tool is a named capability the model can invoke during a run. Execute must
// return a textual result on success and a descriptive error on failure; the
// executor converts a failure into conversation text rather than aborting the
// run.
type Tool interface {
	// Execute runs the tool with the given arguments inside the task context.
	Execute(ctx context.Context, args map[string]any, taskCtx AgentContext) (string, error)

	// Definition returns the tool's schema for documentation and the LLM.
	Definition() ToolDefinition
}

// ToolDefinition describes a tool. The parameter schema is documentation for
// the model and UIs; the engine does not enforce it beyond JSON parsing.
type ToolDefinition struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Parameters  ParameterSchema `json:"parameters"`
}

// ParameterSchema defines tool parameters (JSON Schema shaped).
type ParameterSchema struct {
	Type       string              `json:"type"`
	Properties map[string]Property `json:"properties"`
	Required   []string            `json:"required,omitempty"`
}

// Property defines a single parameter.
type Property struct {
	Type        string `json:"type"`
	Description string `json:"description"`
	Enum        []any  `json:"enum,omitempty"`
}
