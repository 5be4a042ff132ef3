package builtin

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/sergi/go-diff/diffmatchpatch"

	"loom/internal/agent/ports"
)

type fileEdit struct{}

// NewFileEdit returns the edit_file tool.
func NewFileEdit() ports.Tool {
	return &fileEdit{}
}

func (t *fileEdit) Execute(ctx context.Context, args map[string]any, taskCtx ports.AgentContext) (string, error) {
	path, err := stringArg(args, "path")
	if err != nil {
		return "", err
	}
	oldString, err := stringArg(args, "old_string")
	if err != nil {
		return "", err
	}
	newString, ok := args["new_string"].(string)
	if !ok {
		return "", fmt.Errorf("missing required parameter %q", "new_string")
	}

	resolved, err := ValidatePath(path, taskCtx.WorkingDir)
	if err != nil {
		return "", err
	}

	data, err := os.ReadFile(resolved)
	if err != nil {
		return "", fmt.Errorf("cannot read %s: %w", path, err)
	}
	content := string(data)

	switch count := strings.Count(content, oldString); {
	case count == 0:
		return "", fmt.Errorf("old_string not found in %s", path)
	case count > 1:
		return "", fmt.Errorf("old_string occurs %d times in %s; provide more context to make it unique", count, path)
	}

	updated := strings.Replace(content, oldString, newString, 1)

	info, err := os.Stat(resolved)
	mode := os.FileMode(0o644)
	if err == nil {
		mode = info.Mode().Perm()
	}
	if err := os.WriteFile(resolved, []byte(updated), mode); err != nil {
		return "", fmt.Errorf("cannot write %s: %w", path, err)
	}

	return fmt.Sprintf("Edited %s\n%s", path, diffSummary(content, updated)), nil
}

// diffSummary renders a compact line-change summary for the edit result.
func diffSummary(before, after string) string {
	dmp := diffmatchpatch.New()
	a, b, lines := dmp.DiffLinesToChars(before, after)
	diffs := dmp.DiffCharsToLines(dmp.DiffMain(a, b, false), lines)

	added, removed := 0, 0
	var sb strings.Builder
	for _, d := range diffs {
		switch d.Type {
		case diffmatchpatch.DiffInsert:
			for _, line := range splitDiffLines(d.Text) {
				added++
				sb.WriteString("+ " + line + "\n")
			}
		case diffmatchpatch.DiffDelete:
			for _, line := range splitDiffLines(d.Text) {
				removed++
				sb.WriteString("- " + line + "\n")
			}
		}
	}
	return fmt.Sprintf("%d line(s) added, %d line(s) removed\n%s", added, removed, strings.TrimRight(sb.String(), "\n"))
}

func splitDiffLines(text string) []string {
	trimmed := strings.TrimRight(text, "\n")
	if trimmed == "" {
		return nil
	}
	return strings.Split(trimmed, "\n")
}

func (t *fileEdit) Definition() ports.ToolDefinition {
	return ports.ToolDefinition{
		Name:        "edit_file",
		Description: "Replace one exact occurrence of old_string with new_string in a file and report a line diff.",
		Parameters: ports.ParameterSchema{
			Type: "object",
			Properties: map[string]ports.Property{
				"path":       {Type: "string", Description: "File path relative to the working directory"},
				"old_string": {Type: "string", Description: "Exact text to replace; must occur exactly once"},
				"new_string": {Type: "string", Description: "Replacement text"},
			},
			Required: []string{"path", "old_string", "new_string"},
		},
	}
}
