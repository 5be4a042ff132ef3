package builtin

import (
	"context"
	"fmt"
	"os"
	"sort"
	"strings"

	"loom/internal/agent/ports"
)

type listDirectory struct{}

// NewListDirectory returns the list_directory tool.
func NewListDirectory() ports.Tool {
	return &listDirectory{}
}

func (t *listDirectory) Execute(ctx context.Context, args map[string]any, taskCtx ports.AgentContext) (string, error) {
	path := optionalStringArg(args, "path", ".")

	resolved, err := ValidatePath(path, taskCtx.WorkingDir)
	if err != nil {
		return "", err
	}

	entries, err := os.ReadDir(resolved)
	if err != nil {
		return "", fmt.Errorf("cannot list %s: %w", path, err)
	}
	if len(entries) == 0 {
		return "Directory is empty", nil
	}

	// Directories first, then files and links, lexicographic within groups.
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].IsDir() != entries[j].IsDir() {
			return entries[i].IsDir()
		}
		return entries[i].Name() < entries[j].Name()
	})

	var sb strings.Builder
	for _, entry := range entries {
		tag := "[file]"
		switch {
		case entry.IsDir():
			tag = "[dir]"
		case entry.Type()&os.ModeSymlink != 0:
			tag = "[link]"
		}
		fmt.Fprintf(&sb, "%s %s\n", tag, entry.Name())
	}
	return strings.TrimRight(sb.String(), "\n"), nil
}

func (t *listDirectory) Definition() ports.ToolDefinition {
	return ports.ToolDefinition{
		Name:        "list_directory",
		Description: "List directory entries tagged [dir], [file] or [link], directories first.",
		Parameters: ports.ParameterSchema{
			Type: "object",
			Properties: map[string]ports.Property{
				"path": {Type: "string", Description: "Directory path relative to the working directory (default: .)"},
			},
		},
	}
}
