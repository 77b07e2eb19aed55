package tools

import (
	"context"

	"github.com/Qq88537794/Xingyun/internal/core/ports/driven"
	"github.com/Qq88537794/Xingyun/internal/logger"
)

// Registry manages tool registration and dispatch. Registration order is
// preserved so the tool list presented to the model is stable.
//
// A registry is built once per request and used by a single agent run,
// so no locking is needed.
type Registry struct {
	tools map[string]Tool
	order []string
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{tools: make(map[string]Tool)}
}

// Register adds a tool. Re-registering a name replaces the tool but
// keeps its original position.
func (r *Registry) Register(tool Tool) {
	name := tool.Name()
	if _, exists := r.tools[name]; !exists {
		r.order = append(r.order, name)
	}
	r.tools[name] = tool
}

// Get returns a tool by name.
func (r *Registry) Get(name string) (Tool, bool) {
	t, ok := r.tools[name]
	return t, ok
}

// Names returns the registered tool names in registration order.
func (r *Registry) Names() []string {
	names := make([]string, len(r.order))
	copy(names, r.order)
	return names
}

// Definitions returns the wire definitions for all tools in
// registration order, ready to send to an LLM API.
func (r *Registry) Definitions() []driven.ToolDefinition {
	defs := make([]driven.ToolDefinition, 0, len(r.order))
	for _, name := range r.order {
		defs = append(defs, Definition(r.tools[name]))
	}
	return defs
}

// Execute runs a tool by name. An unknown name yields an error result,
// not a panic, so the model can recover in its next turn.
func (r *Registry) Execute(ctx context.Context, name string, args map[string]any) *Result {
	tool, ok := r.tools[name]
	if !ok {
		logger.Warn("unknown tool requested: %s", name)
		return Errorf(CodeUnknownTool, "unknown tool: %s", name)
	}

	logger.Debug("executing tool %s", name)
	return tool.Execute(ctx, args)
}
