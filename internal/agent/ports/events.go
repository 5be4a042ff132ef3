package ports

import "time"

// EventType enumerates the lifecycle events of one task execution.
type EventType string

const (
	EventStarted   EventType = "started"
	EventMessage   EventType = "message"
	EventToolUse   EventType = "tool_use"
	EventCompleted EventType = "completed"
	EventError     EventType = "error"
)

// AgentEvent is one observation of a running task. Events for one task are
// emitted in strict causal order: exactly one started, zero or more
// message/tool_use, then exactly one completed or error.
type AgentEvent struct {
	Type      EventType      `json:"type"`
	TaskID    string         `json:"task_id"`
	Timestamp time.Time      `json:"timestamp"`
	Data      map[string]any `json:"data,omitempty"`
}

// EventListener receives events for task executions. OnEvent is called
// synchronously from the executing goroutine, so implementations must not
// block for long.
type EventListener interface {
	OnEvent(event AgentEvent)
}

// EventListenerFunc adapts a function to the EventListener interface.
type EventListenerFunc func(event AgentEvent)

func (f EventListenerFunc) OnEvent(event AgentEvent) {
	f(event)
}
