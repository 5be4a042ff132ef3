// Package llm contains model-provider helpers that do not wrap a vendor SDK.
// ScriptedProvider replays canned responses through the real engine, which is
// how the CLI dry-run mode and the integration tests drive full agent loops
// offline.
package llm

import (
	"context"
	"fmt"
	"os"
	"sync"

	"gopkg.in/yaml.v3"

	"loom/internal/agent/ports"
)

// ScriptStep is one canned provider response.
type ScriptStep struct {
	Content      string `yaml:"content"`
	InputTokens  int    `yaml:"input_tokens"`
	OutputTokens int    `yaml:"output_tokens"`
}

// Script is a sequence of provider responses, typically loaded from YAML.
type Script struct {
	Model string       `yaml:"model"`
	Steps []ScriptStep `yaml:"steps"`
}

// ScriptedProvider implements ports.ModelProvider by replaying a script.
// Once the script is exhausted every further call returns an error, which
// surfaces as a failed run instead of an infinite loop.
type ScriptedProvider struct {
	mu     sync.Mutex
	script Script
	next   int
}

// NewScriptedProvider returns a provider replaying the given script.
func NewScriptedProvider(script Script) *ScriptedProvider {
	return &ScriptedProvider{script: script}
}

// LoadScript reads a Script from a YAML file.
func LoadScript(path string) (Script, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Script{}, fmt.Errorf("cannot read script %s: %w", path, err)
	}
	var script Script
	if err := yaml.Unmarshal(data, &script); err != nil {
		return Script{}, fmt.Errorf("cannot parse script %s: %w", path, err)
	}
	if len(script.Steps) == 0 {
		return Script{}, fmt.Errorf("script %s has no steps", path)
	}
	return script, nil
}

// Calls reports how many chat calls the provider has served.
func (p *ScriptedProvider) Calls() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.next
}

func (p *ScriptedProvider) Chat(ctx context.Context, messages []ports.Message, opts ports.ChatOptions) (*ports.ChatResponse, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.next >= len(p.script.Steps) {
		return nil, fmt.Errorf("script exhausted after %d responses", len(p.script.Steps))
	}
	step := p.script.Steps[p.next]
	p.next++

	model := p.script.Model
	if model == "" {
		model = opts.Model
	}
	resp := &ports.ChatResponse{
		Content:    step.Content,
		Model:      model,
		StopReason: "end_turn",
	}
	if step.InputTokens > 0 || step.OutputTokens > 0 {
		resp.Usage = &ports.TokenUsage{
			InputTokens:  step.InputTokens,
			OutputTokens: step.OutputTokens,
		}
	}
	return resp, nil
}

func (p *ScriptedProvider) ChatStream(ctx context.Context, messages []ports.Message, opts ports.ChatOptions) (<-chan ports.StreamChunk, error) {
	resp, err := p.Chat(ctx, messages, opts)
	if err != nil {
		return nil, err
	}

	ch := make(chan ports.StreamChunk, 2)
	go func() {
		defer close(ch)
		if resp.Content != "" {
			select {
			case ch <- ports.StreamChunk{Content: resp.Content}:
			case <-ctx.Done():
				return
			}
		}
		select {
		case ch <- ports.StreamChunk{Done: true}:
		case <-ctx.Done():
		}
	}()
	return ch, nil
}
