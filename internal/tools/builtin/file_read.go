package builtin

import (
	"context"
	"fmt"
	"os"

	"loom/internal/agent/ports"
)

// maxReadSize caps file_read payloads. Files of exactly this size are allowed.
const maxReadSize = 10 * 1024 * 1024

type fileRead struct{}

// NewFileRead returns the read_file tool.
func NewFileRead() ports.Tool {
	return &fileRead{}
}

func (t *fileRead) Execute(ctx context.Context, args map[string]any, taskCtx ports.AgentContext) (string, error) {
	path, err := stringArg(args, "path")
	if err != nil {
		return "", err
	}

	resolved, err := ValidatePath(path, taskCtx.WorkingDir)
	if err != nil {
		return "", err
	}

	info, err := os.Stat(resolved)
	if err != nil {
		return "", fmt.Errorf("cannot read %s: %w", path, err)
	}
	if info.IsDir() {
		return "", fmt.Errorf("%s is a directory, not a file", path)
	}
	if info.Size() > maxReadSize {
		return "", fmt.Errorf("file %s is too large (%d bytes, limit %d)", path, info.Size(), maxReadSize)
	}

	content, err := os.ReadFile(resolved)
	if err != nil {
		return "", fmt.Errorf("cannot read %s: %w", path, err)
	}
	return string(content), nil
}

func (t *fileRead) Definition() ports.ToolDefinition {
	return ports.ToolDefinition{
		Name:        "read_file",
		Description: "Read the contents of a file as UTF-8 text. Files over 10 MB are rejected.",
		Parameters: ports.ParameterSchema{
			Type: "object",
			Properties: map[string]ports.Property{
				"path": {Type: "string", Description: "File path relative to the working directory"},
			},
			Required: []string{"path"},
		},
	}
}
