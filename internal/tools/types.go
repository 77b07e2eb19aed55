// Package tools implements the document tool catalog exposed to the
// language model during agent runs: read, write, edit, and search over a
// request-scoped document buffer, plus the three content-generation
// marker tools. A Registry holds the catalog and dispatches calls by name.
package tools

import (
	"context"

	"github.com/Qq88537794/Xingyun/internal/core/ports/driven"
)

// Tool is the interface all tools implement.
type Tool interface {
	// Name is the identifier the model uses to call the tool.
	Name() string

	// Description tells the model what the tool does and when to use it.
	Description() string

	// Parameters is the JSON Schema for the tool's arguments.
	Parameters() map[string]any

	// Execute runs the tool. Failures are reported in the Result, never
	// as a panic; the agent loop feeds them back to the model.
	Execute(ctx context.Context, args map[string]any) *Result
}

// Definition converts a Tool to the wire definition sent to LLM APIs.
func Definition(t Tool) driven.ToolDefinition {
	return driven.ToolDefinition{
		Name:        t.Name(),
		Description: t.Description(),
		Parameters:  t.Parameters(),
	}
}
