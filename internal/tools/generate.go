package tools

import "context"

// The three generation tools return request markers rather than generated
// text: the payload tells the model to produce the outline, expansion, or
// summary itself in its next turn, using the structured parameters as a
// sub-prompt. No extra model invocation happens inside the tool.

// GenerateOutlineTool requests a document outline.
type GenerateOutlineTool struct{}

// NewGenerateOutlineTool creates the outline marker tool.
func NewGenerateOutlineTool() *GenerateOutlineTool { return &GenerateOutlineTool{} }

func (t *GenerateOutlineTool) Name() string { return "generate_outline" }

func (t *GenerateOutlineTool) Description() string {
	return "Generate a document outline from a topic and requirements. " +
		"The user decides whether to apply the outline to the document."
}

func (t *GenerateOutlineTool) Parameters() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"topic": map[string]any{
				"type":        "string",
				"description": "Document topic",
			},
			"requirements": map[string]any{
				"type":        "string",
				"description": "Specific requirements and constraints",
			},
			"depth": map[string]any{
				"type":        "integer",
				"description": "Outline nesting depth",
				"default":     3,
			},
		},
		"required": []string{"topic"},
	}
}

func (t *GenerateOutlineTool) Execute(_ context.Context, args map[string]any) *Result {
	topic := stringArg(args, "topic")
	if topic == "" {
		return Errorf(CodeInvalidInput, "topic must not be empty")
	}
	return OK(map[string]any{
		"type":         "outline_request",
		"topic":        topic,
		"requirements": stringArg(args, "requirements"),
		"depth":        intArg(args, "depth", 3),
		"message":      "generate an outline from the parameters above",
	})
}

// ExpandContentTool requests an expansion of a content passage.
type ExpandContentTool struct{}

// NewExpandContentTool creates the expansion marker tool.
func NewExpandContentTool() *ExpandContentTool { return &ExpandContentTool{} }

func (t *ExpandContentTool) Name() string { return "expand_content" }

func (t *ExpandContentTool) Description() string {
	return "Expand and enrich a content passage. A target ratio and focus " +
		"direction can be given."
}

func (t *ExpandContentTool) Parameters() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"content": map[string]any{
				"type":        "string",
				"description": "Content to expand",
			},
			"ratio": map[string]any{
				"type":        "number",
				"description": "Expansion ratio (2 doubles the length)",
				"default":     2,
			},
			"focus": map[string]any{
				"type":        "string",
				"description": "Focus direction for the expansion",
			},
		},
		"required": []string{"content"},
	}
}

func (t *ExpandContentTool) Execute(_ context.Context, args map[string]any) *Result {
	content := stringArg(args, "content")
	if content == "" {
		return Errorf(CodeInvalidInput, "content must not be empty")
	}
	return OK(map[string]any{
		"type":    "expand_request",
		"content": content,
		"ratio":   floatArg(args, "ratio", 2),
		"focus":   stringArg(args, "focus"),
		"message": "expand the content above",
	})
}

// SummarizeTool requests a summary of a content passage.
type SummarizeTool struct{}

// NewSummarizeTool creates the summary marker tool.
func NewSummarizeTool() *SummarizeTool { return &SummarizeTool{} }

func (t *SummarizeTool) Name() string { return "summarize" }

func (t *SummarizeTool) Description() string {
	return "Summarise a content passage. A maximum length and focus points " +
		"can be given."
}

func (t *SummarizeTool) Parameters() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"content": map[string]any{
				"type":        "string",
				"description": "Content to summarise",
			},
			"max_length": map[string]any{
				"type":        "integer",
				"description": "Maximum summary length in characters",
				"default":     200,
			},
			"focus_points": map[string]any{
				"type":        "array",
				"items":       map[string]any{"type": "string"},
				"description": "Aspects to emphasise",
			},
		},
		"required": []string{"content"},
	}
}

func (t *SummarizeTool) Execute(_ context.Context, args map[string]any) *Result {
	content := stringArg(args, "content")
	if content == "" {
		return Errorf(CodeInvalidInput, "content must not be empty")
	}
	focusPoints := stringSliceArg(args, "focus_points")
	if focusPoints == nil {
		focusPoints = []string{}
	}
	return OK(map[string]any{
		"type":         "summarize_request",
		"content":      content,
		"max_length":   intArg(args, "max_length", 200),
		"focus_points": focusPoints,
		"message":      "summarise the content above",
	})
}

// NewDefaultRegistry builds the standard tool catalog over a document
// buffer: the four document tools followed by the three generation tools.
func NewDefaultRegistry(buffer *Buffer) *Registry {
	r := NewRegistry()
	r.Register(NewReadDocumentTool(buffer))
	r.Register(NewWriteDocumentTool(buffer))
	r.Register(NewEditDocumentTool(buffer))
	r.Register(NewSearchDocumentTool(buffer))
	r.Register(NewGenerateOutlineTool())
	r.Register(NewExpandContentTool())
	r.Register(NewSummarizeTool())
	return r
}
