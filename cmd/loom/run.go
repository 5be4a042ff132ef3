package main

import (
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/term"

	"loom/internal/agent"
	"loom/internal/agent/ports"
	"loom/internal/llm"
	"loom/internal/logging"
	"loom/internal/tools/builtin"
)

var (
	cyan   = color.New(color.FgCyan).SprintFunc()
	green  = color.New(color.FgGreen).SprintFunc()
	yellow = color.New(color.FgYellow).SprintFunc()
	red    = color.New(color.FgRed).SprintFunc()
	gray   = color.New(color.FgHiBlack).SprintFunc()
)

func isTTY() bool {
	return term.IsTerminal(int(os.Stdout.Fd()))
}

func newRunCmd() *cobra.Command {
	var (
		workDir     string
		projectPath string
		model       string
		maxTokens   int
		scriptPath  string
		prompt      string
	)

	cmd := &cobra.Command{
		Use:   "run [task description]",
		Short: "Run a task through the agent loop",
		Args:  cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if scriptPath == "" {
				return fmt.Errorf("no provider configured: pass --script to replay a scripted session")
			}
			script, err := llm.LoadScript(scriptPath)
			if err != nil {
				return err
			}
			provider := llm.NewScriptedProvider(script)

			if workDir == "" {
				workDir, err = os.Getwd()
				if err != nil {
					return err
				}
			}
			if projectPath == "" {
				projectPath = workDir
			}

			color.NoColor = color.NoColor || !isTTY()

			logger := logging.NewWithWriter("loom", os.Stderr, logging.ParseLevel(viper.GetString("log_level")))
			executor := agent.NewExecutor(agent.ExecutorConfig{
				Logger:    logger,
				Listeners: []ports.EventListener{ports.EventListenerFunc(printEvent)},
			})
			for _, tool := range builtin.All() {
				executor.RegisterTool(tool)
			}

			taskCtx := ports.AgentContext{
				TaskID:      uuid.NewString(),
				ProjectID:   uuid.NewString(),
				ProjectPath: projectPath,
				WorkingDir:  workDir,
				Model:       model,
				MaxTokens:   maxTokens,
			}

			result := executor.Execute(cmd.Context(), taskCtx, provider, prompt)
			if result.TokensUsed != nil {
				fmt.Printf("%s tokens in=%d out=%d\n", gray("usage:"),
					result.TokensUsed.InputTokens, result.TokensUsed.OutputTokens)
			}
			if !result.Success {
				return fmt.Errorf("task failed: %s", result.Error)
			}
			fmt.Println(result.Output)
			return nil
		},
	}

	cmd.Flags().StringVar(&workDir, "workdir", "", "sandbox root for tool access (default: cwd)")
	cmd.Flags().StringVar(&projectPath, "project-path", "", "project directory described to the model (default: workdir)")
	cmd.Flags().StringVar(&model, "model", "default", "model identifier passed to the provider")
	cmd.Flags().IntVar(&maxTokens, "max-tokens", 0, "max tokens per provider call (0 = provider default)")
	cmd.Flags().StringVar(&scriptPath, "script", "", "YAML script of provider responses to replay")
	cmd.Flags().StringVar(&prompt, "system-prompt", "You are a coding agent. Use the available tools to complete the task.", "system prompt")
	return cmd
}

func printEvent(event ports.AgentEvent) {
	switch event.Type {
	case ports.EventStarted:
		fmt.Printf("%s task %s\n", cyan("started:"), event.TaskID)
	case ports.EventMessage:
		if content, ok := event.Data["content"].(string); ok {
			fmt.Printf("%s %s\n", yellow("assistant:"), content)
		}
	case ports.EventToolUse:
		fmt.Printf("%s %v\n", green("tool:"), event.Data["tool"])
		if result, ok := event.Data["result"].(string); ok {
			fmt.Printf("%s %s\n", gray("  ->"), result)
		}
	case ports.EventCompleted:
		fmt.Printf("%s task %s\n", green("completed:"), event.TaskID)
	case ports.EventError:
		fmt.Printf("%s %v\n", red("error:"), event.Data["error"])
	}
}
