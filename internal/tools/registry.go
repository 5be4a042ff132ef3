// Package tools provides the registry mapping tool names to implementations.
package tools

import (
	"fmt"
	"sort"
	"sync"

	"loom/internal/agent/ports"
)

// Registry maps tool names to implementations. Registering a name that
// already exists replaces the previous entry (last write wins).
type Registry struct {
	mu    sync.RWMutex
	tools map[string]ports.Tool
}

func NewRegistry() *Registry {
	return &Registry{tools: make(map[string]ports.Tool)}
}

// Register adds or replaces a tool under its definition name.
func (r *Registry) Register(tool ports.Tool) {
	name := tool.Definition().Name
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tools[name] = tool
}

// Get retrieves a tool by name.
func (r *Registry) Get(name string) (ports.Tool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	tool, ok := r.tools[name]
	if !ok {
		return nil, fmt.Errorf("tool not found: %s", name)
	}
	return tool, nil
}

// Has reports whether a tool is registered under name.
func (r *Registry) Has(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.tools[name]
	return ok
}

// List returns all tool definitions sorted by name.
func (r *Registry) List() []ports.ToolDefinition {
	r.mu.RLock()
	defer r.mu.RUnlock()
	defs := make([]ports.ToolDefinition, 0, len(r.tools))
	for _, tool := range r.tools {
		defs = append(defs, tool.Definition())
	}
	sort.Slice(defs, func(i, j int) bool { return defs[i].Name < defs[j].Name })
	return defs
}

// Names returns the registered tool names sorted lexicographically.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.tools))
	for name := range r.tools {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
