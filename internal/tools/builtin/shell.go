package builtin

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"loom/internal/agent/ports"
)

// defaultShellTimeout applies when the model omits the timeout parameter.
const defaultShellTimeout = 30 * time.Second

type shellExecute struct{}

// NewShellExecute returns the shell_execute tool.
func NewShellExecute() ports.Tool {
	return &shellExecute{}
}

func (t *shellExecute) Execute(ctx context.Context, args map[string]any, taskCtx ports.AgentContext) (string, error) {
	command, err := stringArg(args, "command")
	if err != nil {
		return "", err
	}

	timeout := defaultShellTimeout
	if ms := optionalNumberArg(args, "timeout", 0); ms > 0 {
		timeout = time.Duration(ms) * time.Millisecond
	}

	runCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	cmd := exec.CommandContext(runCtx, "bash", "-c", command)
	cmd.Dir = taskCtx.WorkingDir
	// Kill immediately on deadline instead of waiting for output pipes.
	cmd.WaitDelay = time.Second

	output, runErr := cmd.CombinedOutput()
	text := strings.TrimRight(string(output), "\n")

	if errors.Is(runCtx.Err(), context.DeadlineExceeded) {
		return fmt.Sprintf("Command timed out after %dms", timeout.Milliseconds()), nil
	}

	if runErr != nil {
		var exitErr *exec.ExitError
		if errors.As(runErr, &exitErr) {
			if text == "" {
				return fmt.Sprintf("Command failed with exit code %d", exitErr.ExitCode()), nil
			}
			return fmt.Sprintf("%s\nExit code: %d", text, exitErr.ExitCode()), nil
		}
		return "", fmt.Errorf("cannot run command: %w", runErr)
	}

	if text == "" {
		return "Command completed successfully (no output)", nil
	}
	return text, nil
}

func (t *shellExecute) Definition() ports.ToolDefinition {
	return ports.ToolDefinition{
		Name:        "shell_execute",
		Description: "Run a shell command in the working directory and capture combined stdout and stderr.",
		Parameters: ports.ParameterSchema{
			Type: "object",
			Properties: map[string]ports.Property{
				"command": {Type: "string", Description: "Shell command to run"},
				"timeout": {Type: "number", Description: "Timeout in milliseconds (default 30000)"},
			},
			Required: []string{"command"},
		},
	}
}
