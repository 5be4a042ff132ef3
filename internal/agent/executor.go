// Package agent implements the execution engine: a bounded, cancellable loop
// that drives a model conversation, dispatches embedded tool-call directives
// to registered tools, and returns an aggregated result.
package agent

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"loom/internal/agent/ports"
	"loom/internal/logging"
	"loom/internal/tokenutil"
	"loom/internal/tools"
)

// defaultMaxToolRounds bounds runaway iteration: at most this many tool
// executions per run, which means at most defaultMaxToolRounds+1 provider
// calls.
const defaultMaxToolRounds = 10

// ExecutorConfig carries the dependencies of an Executor. Zero values are
// usable: logging is discarded, tracing goes to the global (by default no-op)
// tracer provider, and the iteration cap defaults to 10.
type ExecutorConfig struct {
	MaxToolRounds int
	Logger        logging.Logger
	Listeners     []ports.EventListener
	Tracer        trace.Tracer
	Clock         func() time.Time
}

// Executor orchestrates task executions. It is safe for concurrent use:
// every Execute call owns its message list and cancellation handle, and the
// shared registry and running-task map are lock-guarded.
type Executor struct {
	maxToolRounds int
	logger        logging.Logger
	listeners     []ports.EventListener
	tracer        trace.Tracer
	now           func() time.Time
	registry      *tools.Registry

	mu      sync.Mutex
	running map[string]context.CancelFunc
}

// NewExecutor constructs an Executor with an empty tool registry.
func NewExecutor(cfg ExecutorConfig) *Executor {
	if cfg.MaxToolRounds <= 0 {
		cfg.MaxToolRounds = defaultMaxToolRounds
	}
	if cfg.Tracer == nil {
		cfg.Tracer = otel.Tracer("loom/agent")
	}
	if cfg.Clock == nil {
		cfg.Clock = time.Now
	}
	return &Executor{
		maxToolRounds: cfg.MaxToolRounds,
		logger:        logging.OrNop(cfg.Logger),
		listeners:     append([]ports.EventListener(nil), cfg.Listeners...),
		tracer:        cfg.Tracer,
		now:           cfg.Clock,
		registry:      tools.NewRegistry(),
		running:       make(map[string]context.CancelFunc),
	}
}

// RegisterTool adds a tool; re-registering a name replaces the prior entry.
func (e *Executor) RegisterTool(tool ports.Tool) {
	e.registry.Register(tool)
}

// Tools returns the registered tool definitions sorted by name.
func (e *Executor) Tools() []ports.ToolDefinition {
	return e.registry.List()
}

// Cancel signals the cancellation handle of a running task. It reports
// whether a running task with that id existed. Cancellation is cooperative:
// it takes effect while a provider call is in flight or at the next loop
// iteration, never mid-tool.
func (e *Executor) Cancel(taskID string) bool {
	e.mu.Lock()
	cancel, ok := e.running[taskID]
	e.mu.Unlock()
	if !ok {
		return false
	}
	e.logger.Info("cancelling task %s", taskID)
	cancel()
	return true
}

// IsRunning reports whether an Execute call for taskID is currently
// unsettled.
func (e *Executor) IsRunning(taskID string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	_, ok := e.running[taskID]
	return ok
}

// RunningTaskIDs returns the ids of all unsettled executions, sorted.
func (e *Executor) RunningTaskIDs() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	ids := make([]string, 0, len(e.running))
	for id := range e.running {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Execute runs one task to completion. It never returns an error: every
// outcome, including provider failure and cancellation, is reported through
// a well-formed AgentResult and a single terminal event.
func (e *Executor) Execute(ctx context.Context, taskCtx ports.AgentContext, provider ports.ModelProvider, systemPrompt string) ports.AgentResult {
	runCtx, cancel := context.WithCancel(ctx)
	e.mu.Lock()
	e.running[taskCtx.TaskID] = cancel
	e.mu.Unlock()
	defer func() {
		e.mu.Lock()
		delete(e.running, taskCtx.TaskID)
		e.mu.Unlock()
		cancel()
	}()

	spanCtx, span := e.tracer.Start(runCtx, "agent.execute", trace.WithAttributes(
		attribute.String("task.id", taskCtx.TaskID),
		attribute.String("task.model", taskCtx.Model),
	))
	defer span.End()

	e.logger.Info("task %s started (model=%s, workdir=%s)", taskCtx.TaskID, taskCtx.Model, taskCtx.WorkingDir)
	e.emit(taskCtx.TaskID, ports.EventStarted, map[string]any{"context": taskCtx})

	var usage ports.TokenUsage
	output, err := e.run(spanCtx, taskCtx, provider, systemPrompt, &usage)
	if err != nil {
		msg := err.Error()
		span.SetStatus(codes.Error, msg)
		e.logger.Warn("task %s failed: %s", taskCtx.TaskID, msg)
		result := ports.AgentResult{Success: false, Error: msg, TokensUsed: &usage}
		e.emit(taskCtx.TaskID, ports.EventError, map[string]any{"error": msg})
		return result
	}

	e.logger.Info("task %s completed (tokens in=%d out=%d)", taskCtx.TaskID, usage.InputTokens, usage.OutputTokens)
	result := ports.AgentResult{Success: true, Output: output, TokensUsed: &usage}
	e.emit(taskCtx.TaskID, ports.EventCompleted, map[string]any{"result": result})
	return result
}

// run drives the conversation loop. A panic anywhere below is normalized
// into the returned error so Execute can keep its never-throws contract.
func (e *Executor) run(ctx context.Context, taskCtx ports.AgentContext, provider ports.ModelProvider, systemPrompt string, usage *ports.TokenUsage) (output string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = normalizePanic(r)
		}
	}()

	messages := []ports.Message{
		{Role: ports.RoleSystem, Content: systemPrompt},
		{Role: ports.RoleUser, Content: fmt.Sprintf("Work on the task in the project directory: %s", taskCtx.ProjectPath)},
	}
	opts := ports.ChatOptions{Model: taskCtx.Model, MaxTokens: taskCtx.MaxTokens}

	for round := 0; ; round++ {
		if ctx.Err() != nil {
			return "", errors.New("task cancelled")
		}

		resp, err := e.chat(ctx, provider, messages, opts)
		if err != nil {
			return "", err
		}
		e.accumulateUsage(usage, messages, resp)
		e.emit(taskCtx.TaskID, ports.EventMessage, map[string]any{"content": resp.Content})

		directive := ParseToolCall(resp.Content)
		if directive.Kind == NoToolCall || !e.registry.Has(directive.Name) {
			return resp.Content, nil
		}
		if round >= e.maxToolRounds {
			// Iteration cap with a directive still pending: the last
			// assistant content becomes the final output.
			e.logger.Warn("task %s hit the iteration cap with a pending tool call", taskCtx.TaskID)
			return resp.Content, nil
		}

		result := e.dispatchTool(ctx, directive, taskCtx)
		e.emit(taskCtx.TaskID, ports.EventToolUse, map[string]any{
			"tool":   directive.Name,
			"params": directive.Params,
			"result": result,
		})

		messages = append(messages,
			ports.Message{Role: ports.RoleAssistant, Content: resp.Content},
			ports.Message{Role: ports.RoleUser, Content: "Tool result:\n" + result},
		)
	}
}

// chat races the provider call against the cancellation signal so a provider
// that ignores its context can still be interrupted. The goroutine is left
// to finish in the background when the race is lost.
func (e *Executor) chat(ctx context.Context, provider ports.ModelProvider, messages []ports.Message, opts ports.ChatOptions) (*ports.ChatResponse, error) {
	type outcome struct {
		resp *ports.ChatResponse
		err  error
	}
	ch := make(chan outcome, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				ch <- outcome{err: normalizePanic(r)}
			}
		}()
		resp, err := provider.Chat(ctx, messages, opts)
		ch <- outcome{resp: resp, err: err}
	}()

	select {
	case <-ctx.Done():
		return nil, errors.New("task cancelled")
	case out := <-ch:
		if out.err != nil {
			return nil, fmt.Errorf("provider call failed: %w", out.err)
		}
		if out.resp == nil {
			return nil, errors.New("provider returned nil response")
		}
		return out.resp, nil
	}
}

// accumulateUsage adds the provider-reported usage to the running totals,
// falling back to tiktoken estimates when the provider reports none.
func (e *Executor) accumulateUsage(usage *ports.TokenUsage, messages []ports.Message, resp *ports.ChatResponse) {
	if resp.Usage != nil {
		usage.Add(*resp.Usage)
		return
	}
	input := 0
	for _, msg := range messages {
		input += tokenutil.CountTokens(msg.Content)
	}
	usage.Add(ports.TokenUsage{
		InputTokens:  input,
		OutputTokens: tokenutil.CountTokens(resp.Content),
	})
}

// dispatchTool runs one tool call. Tool failures are recoverable: they come
// back as "Error: ..." text and the conversation continues. The tool runs on
// a context detached from cancellation, since an in-flight tool is never
// interrupted.
func (e *Executor) dispatchTool(ctx context.Context, directive ToolDirective, taskCtx ports.AgentContext) string {
	toolCtx, span := e.tracer.Start(ctx, "agent.tool", trace.WithAttributes(
		attribute.String("tool.name", directive.Name),
	))
	defer span.End()

	tool, err := e.registry.Get(directive.Name)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return "Error: " + err.Error()
	}

	if directive.Kind == MalformedToolCall {
		e.logger.Warn("tool %s called with unparseable params, substituting empty object", directive.Name)
	}

	result, err := safeExecute(context.WithoutCancel(toolCtx), tool, directive.Params, taskCtx)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		e.logger.Warn("tool %s failed: %v", directive.Name, err)
		return "Error: " + err.Error()
	}
	return result
}

// safeExecute shields the loop from a panicking tool.
func safeExecute(ctx context.Context, tool ports.Tool, args map[string]any, taskCtx ports.AgentContext) (result string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = normalizePanic(r)
		}
	}()
	return tool.Execute(ctx, args, taskCtx)
}

// normalizePanic converts a recovered panic value into an error. Non-error
// values normalize to "Unknown error".
func normalizePanic(r any) error {
	if err, ok := r.(error); ok {
		return err
	}
	return errors.New("Unknown error")
}

func (e *Executor) emit(taskID string, eventType ports.EventType, data map[string]any) {
	if len(e.listeners) == 0 {
		return
	}
	event := ports.AgentEvent{
		Type:      eventType,
		TaskID:    taskID,
		Timestamp: e.now(),
		Data:      data,
	}
	for _, listener := range e.listeners {
		listener.OnEvent(event)
	}
}
