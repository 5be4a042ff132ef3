package builtin

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"sort"
	"strings"

	"loom/internal/agent/ports"
)

// runGit executes a git command in dir and returns the combined output. The
// environment disables pagers and interactive prompts so a misconfigured
// repository can never hang a task.
func runGit(ctx context.Context, dir string, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, "git", args...)
	cmd.Dir = dir
	cmd.Env = mergeEnv(os.Environ(), map[string]string{
		"GIT_PAGER":           "cat",
		"GIT_TERMINAL_PROMPT": "0",
		"GIT_SSH_COMMAND":     "ssh -oBatchMode=yes",
		"NO_COLOR":            "1",
	})
	output, err := cmd.CombinedOutput()
	text := strings.TrimSpace(string(output))
	if err != nil {
		if text != "" {
			return text, fmt.Errorf("git %s failed: %s", strings.Join(args, " "), text)
		}
		return "", fmt.Errorf("git %s failed: %w", strings.Join(args, " "), err)
	}
	return text, nil
}

func mergeEnv(base []string, overrides map[string]string) []string {
	env := make(map[string]string, len(base)+len(overrides))
	for _, entry := range base {
		if idx := strings.Index(entry, "="); idx != -1 {
			env[entry[:idx]] = entry[idx+1:]
		}
	}
	for key, value := range overrides {
		env[key] = value
	}

	keys := make([]string, 0, len(env))
	for key := range env {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	merged := make([]string, 0, len(env))
	for _, key := range keys {
		merged = append(merged, key+"="+env[key])
	}
	return merged
}

type gitStatus struct{}

// NewGitStatus returns the git_status tool.
func NewGitStatus() ports.Tool {
	return &gitStatus{}
}

func (t *gitStatus) Execute(ctx context.Context, args map[string]any, taskCtx ports.AgentContext) (string, error) {
	out, err := runGit(ctx, taskCtx.WorkingDir, "status", "--short", "--branch")
	if err != nil {
		return "", err
	}
	return out, nil
}

func (t *gitStatus) Definition() ports.ToolDefinition {
	return ports.ToolDefinition{
		Name:        "git_status",
		Description: "Show the git working tree status in short format.",
		Parameters: ports.ParameterSchema{
			Type:       "object",
			Properties: map[string]ports.Property{},
		},
	}
}

type gitDiff struct{}

// NewGitDiff returns the git_diff tool.
func NewGitDiff() ports.Tool {
	return &gitDiff{}
}

func (t *gitDiff) Execute(ctx context.Context, args map[string]any, taskCtx ports.AgentContext) (string, error) {
	gitArgs := []string{"diff"}
	if optionalBoolArg(args, "staged") {
		gitArgs = append(gitArgs, "--staged")
	}
	if path := optionalStringArg(args, "path", ""); path != "" {
		resolved, err := ValidatePath(path, taskCtx.WorkingDir)
		if err != nil {
			return "", err
		}
		gitArgs = append(gitArgs, "--", resolved)
	}

	out, err := runGit(ctx, taskCtx.WorkingDir, gitArgs...)
	if err != nil {
		return "", err
	}
	if out == "" {
		return "No changes", nil
	}
	return out, nil
}

func (t *gitDiff) Definition() ports.ToolDefinition {
	return ports.ToolDefinition{
		Name:        "git_diff",
		Description: "Show unstaged changes, or staged changes with staged=true, optionally limited to one path.",
		Parameters: ports.ParameterSchema{
			Type: "object",
			Properties: map[string]ports.Property{
				"staged": {Type: "boolean", Description: "Diff the index instead of the working tree"},
				"path":   {Type: "string", Description: "Limit the diff to this path"},
			},
		},
	}
}

type gitCommit struct{}

// NewGitCommit returns the git_commit tool.
func NewGitCommit() ports.Tool {
	return &gitCommit{}
}

func (t *gitCommit) Execute(ctx context.Context, args map[string]any, taskCtx ports.AgentContext) (string, error) {
	message, err := stringArg(args, "message")
	if err != nil {
		return "", err
	}

	files, err := stringSliceArg(args, "files")
	if err != nil {
		return "", err
	}
	if len(files) > 0 {
		addArgs := []string{"add", "--"}
		for _, file := range files {
			resolved, err := ValidatePath(file, taskCtx.WorkingDir)
			if err != nil {
				return "", err
			}
			addArgs = append(addArgs, resolved)
		}
		if _, err := runGit(ctx, taskCtx.WorkingDir, addArgs...); err != nil {
			return "", err
		}
	}

	// Committing with nothing staged is an expected outcome, not a tool
	// failure: git's explanation goes back into the conversation.
	out, err := runGit(ctx, taskCtx.WorkingDir, "commit", "-m", message)
	if err != nil {
		if out != "" {
			return fmt.Sprintf("Commit failed:\n%s", out), nil
		}
		return fmt.Sprintf("Commit failed: %v", err), nil
	}
	return out, nil
}

func (t *gitCommit) Definition() ports.ToolDefinition {
	return ports.ToolDefinition{
		Name:        "git_commit",
		Description: "Commit staged changes with a message, optionally staging the listed files first.",
		Parameters: ports.ParameterSchema{
			Type: "object",
			Properties: map[string]ports.Property{
				"message": {Type: "string", Description: "Commit message"},
				"files":   {Type: "array", Description: "Files to stage before committing"},
			},
			Required: []string{"message"},
		},
	}
}
