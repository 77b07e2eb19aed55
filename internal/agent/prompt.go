package agent

import (
	"strings"

	"github.com/Qq88537794/Xingyun/internal/core/ports/driven"
)

// documentContentLimit caps the amount of document text inlined into the
// system prompt, in runes. The model reads the rest via read_document.
const documentContentLimit = 3000

// PromptContext is the per-request material woven into the system prompt.
type PromptContext struct {
	// DocumentContent is the current document text, truncated to
	// documentContentLimit runes when inlined.
	DocumentContent string

	// SelectedText is the text the user highlighted, if any.
	SelectedText string

	// RetrievalContext is the formatted knowledge-base excerpt block.
	RetrievalContext string
}

// BuildSystemPrompt assembles the full system prompt: the base prompt,
// a tool usage section generated from the registry definitions, and the
// request context.
func BuildSystemPrompt(base string, definitions []driven.ToolDefinition, pctx PromptContext) string {
	parts := []string{base, toolsPrompt(definitions)}

	if pctx.DocumentContent != "" {
		parts = append(parts, "## Current document\n"+truncateRunes(pctx.DocumentContent, documentContentLimit))
	}
	if pctx.SelectedText != "" {
		parts = append(parts, "## Selected text\n"+pctx.SelectedText)
	}
	if pctx.RetrievalContext != "" {
		parts = append(parts, "## Relevant knowledge base content\n"+pctx.RetrievalContext)
	}

	return strings.Join(parts, "\n\n")
}

// toolsPrompt renders the tool catalog as a prompt section.
func toolsPrompt(definitions []driven.ToolDefinition) string {
	var b strings.Builder
	b.WriteString("## Available tools\n")
	for _, def := range definitions {
		b.WriteString("\n### ")
		b.WriteString(def.Name)
		b.WriteString("\n")
		b.WriteString(def.Description)
		b.WriteString("\n")
	}
	return b.String()
}

func truncateRunes(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit])
}
