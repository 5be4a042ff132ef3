// Package ports defines the contracts between the agent executor and its
// collaborators: the model provider, the tool suite, and event consumers.
// Everything here is plain data or a small interface so concurrent tests can
// construct instances freely.
package ports

// AgentContext identifies one task execution and confines its filesystem
// access. WorkingDir is the sandbox root and may differ from ProjectPath
// (e.g. an isolated git worktree). The engine never mutates it.
type AgentContext struct {
	TaskID      string `json:"task_id"`
	ProjectID   string `json:"project_id"`
	ProjectPath string `json:"project_path"`
	WorkingDir  string `json:"working_dir"`
	Model       string `json:"model"`
	MaxTokens   int    `json:"max_tokens,omitempty"`
}

// AgentResult is the terminal outcome of one Execute call.
type AgentResult struct {
	Success    bool        `json:"success"`
	Output     string      `json:"output,omitempty"`
	Error      string      `json:"error,omitempty"`
	TokensUsed *TokenUsage `json:"tokens_used,omitempty"`
}
