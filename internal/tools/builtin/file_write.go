package builtin

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"loom/internal/agent/ports"
)

type fileWrite struct{}

// NewFileWrite returns the write_file tool.
func NewFileWrite() ports.Tool {
	return &fileWrite{}
}

func (t *fileWrite) Execute(ctx context.Context, args map[string]any, taskCtx ports.AgentContext) (string, error) {
	path, err := stringArg(args, "path")
	if err != nil {
		return "", err
	}
	content, ok := args["content"].(string)
	if !ok {
		return "", fmt.Errorf("missing required parameter %q", "content")
	}

	resolved, err := ValidatePath(path, taskCtx.WorkingDir)
	if err != nil {
		return "", err
	}

	if err := os.MkdirAll(filepath.Dir(resolved), 0o755); err != nil {
		return "", fmt.Errorf("cannot create parent directories for %s: %w", path, err)
	}
	if err := os.WriteFile(resolved, []byte(content), 0o644); err != nil {
		return "", fmt.Errorf("cannot write %s: %w", path, err)
	}

	return fmt.Sprintf("Wrote %d bytes to %s", len(content), path), nil
}

func (t *fileWrite) Definition() ports.ToolDefinition {
	return ports.ToolDefinition{
		Name:        "write_file",
		Description: "Write content to a file, creating parent directories as needed. Overwrites existing files.",
		Parameters: ports.ParameterSchema{
			Type: "object",
			Properties: map[string]ports.Property{
				"path":    {Type: "string", Description: "File path relative to the working directory"},
				"content": {Type: "string", Description: "Content to write"},
			},
			Required: []string{"path", "content"},
		},
	}
}
