package ports

import "context"

// ModelProvider represents any language-model backend. The engine only uses
// Chat; ChatStream exists for interactive frontends.
type ModelProvider interface {
	// Chat sends messages and returns a complete response (non-streaming).
	Chat(ctx context.Context, messages []Message, opts ChatOptions) (*ChatResponse, error)

	// ChatStream sends messages and returns a channel of incremental chunks.
	// The final chunk has Done=true and empty content.
	ChatStream(ctx context.Context, messages []Message, opts ChatOptions) (<-chan StreamChunk, error)
}

// ChatOptions contains per-call parameters for a provider.
type ChatOptions struct {
	Model     string `json:"model,omitempty"`
	MaxTokens int    `json:"max_tokens,omitempty"`
}

// Message represents a conversation message.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Message roles used by the engine.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// ChatResponse is the provider's complete answer to one Chat call.
type ChatResponse struct {
	Content    string      `json:"content"`
	Model      string      `json:"model"`
	Usage      *TokenUsage `json:"usage,omitempty"`
	StopReason string      `json:"stop_reason,omitempty"`
}

// StreamChunk is one incremental piece of a streamed response.
type StreamChunk struct {
	Content string `json:"content"`
	Done    bool   `json:"done"`
}

// TokenUsage tracks token consumption for one call or a whole run.
type TokenUsage struct {
	InputTokens  int `json:"input_tokens"`
	OutputTokens int `json:"output_tokens"`
}

// Add accumulates another usage sample into u.
func (u *TokenUsage) Add(other TokenUsage) {
	u.InputTokens += other.InputTokens
	u.OutputTokens += other.OutputTokens
}
