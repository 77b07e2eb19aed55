package mcp

import (
	"github.com/Qq88537794/Xingyun/internal/core/ports/driven"
	"github.com/Qq88537794/Xingyun/internal/core/ports/driving"
)

// Ports aggregates all port interfaces required by the MCP server.
// This provides a single injection point for dependency injection.
type Ports struct {
	// Assistant handles chat requests.
	Assistant driving.AssistantService

	// Knowledge manages project knowledge bases.
	Knowledge driving.KnowledgeService

	// Prompts serves the system prompt templates, exposed as resources.
	Prompts driven.PromptStore
}

// Validate ensures all required ports are set.
// Returns an error if any required port is nil.
func (p *Ports) Validate() error {
	if p.Assistant == nil {
		return ErrMissingAssistantService
	}
	// Knowledge and Prompts are optional; their tools and resources
	// report unavailability instead.
	return nil
}
