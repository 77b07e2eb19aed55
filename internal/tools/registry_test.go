package tools

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistry_PreservesRegistrationOrder(t *testing.T) {
	buffer := NewBuffer("doc1", "text")
	registry := NewDefaultRegistry(buffer)

	want := []string{
		"read_document",
		"write_document",
		"edit_document",
		"search_document",
		"generate_outline",
		"expand_content",
		"summarize",
	}
	assert.Equal(t, want, registry.Names())

	defs := registry.Definitions()
	require.Len(t, defs, len(want))
	for i, def := range defs {
		assert.Equal(t, want[i], def.Name)
		assert.NotEmpty(t, def.Description)
		assert.Equal(t, "object", def.Parameters["type"])
	}
}

func TestRegistry_UnknownTool(t *testing.T) {
	registry := NewRegistry()

	result := registry.Execute(context.Background(), "no_such_tool", nil)
	require.NotNil(t, result)
	assert.False(t, result.Success)
	assert.Equal(t, CodeUnknownTool, result.Code)
	assert.Contains(t, result.Err, "no_such_tool")
}

func TestRegistry_ReregisterKeepsPosition(t *testing.T) {
	buffer := NewBuffer("doc1", "text")
	registry := NewRegistry()
	registry.Register(NewReadDocumentTool(buffer))
	registry.Register(NewWriteDocumentTool(buffer))
	registry.Register(NewReadDocumentTool(buffer))

	assert.Equal(t, []string{"read_document", "write_document"}, registry.Names())
}

func TestGenerateOutline_ReturnsMarker(t *testing.T) {
	tool := NewGenerateOutlineTool()

	result := tool.Execute(context.Background(), map[string]any{
		"topic":        "climate change",
		"requirements": "formal tone",
	})
	require.True(t, result.Success)
	assert.Equal(t, "outline_request", result.Data["type"])
	assert.Equal(t, "climate change", result.Data["topic"])
	assert.Equal(t, "formal tone", result.Data["requirements"])
	assert.Equal(t, 3, result.Data["depth"])
}

func TestGenerateOutline_EmptyTopic(t *testing.T) {
	tool := NewGenerateOutlineTool()

	result := tool.Execute(context.Background(), map[string]any{})
	assert.False(t, result.Success)
	assert.Equal(t, CodeInvalidInput, result.Code)
}

func TestExpandContent_ReturnsMarker(t *testing.T) {
	tool := NewExpandContentTool()

	result := tool.Execute(context.Background(), map[string]any{
		"content": "a short paragraph",
		"ratio":   float64(3),
		"focus":   "examples",
	})
	require.True(t, result.Success)
	assert.Equal(t, "expand_request", result.Data["type"])
	assert.Equal(t, "a short paragraph", result.Data["content"])
	assert.Equal(t, float64(3), result.Data["ratio"])
	assert.Equal(t, "examples", result.Data["focus"])
}

func TestSummarize_ReturnsMarker(t *testing.T) {
	tool := NewSummarizeTool()

	result := tool.Execute(context.Background(), map[string]any{
		"content":      "a long passage of text",
		"max_length":   float64(100),
		"focus_points": []any{"method", "results"},
	})
	require.True(t, result.Success)
	assert.Equal(t, "summarize_request", result.Data["type"])
	assert.Equal(t, 100, result.Data["max_length"])
	assert.Equal(t, []string{"method", "results"}, result.Data["focus_points"])
}

func TestSummarize_DefaultFocusPointsIsEmptySlice(t *testing.T) {
	tool := NewSummarizeTool()

	result := tool.Execute(context.Background(), map[string]any{"content": "text"})
	require.True(t, result.Success)
	assert.Equal(t, []string{}, result.Data["focus_points"])
	assert.Equal(t, 200, result.Data["max_length"])
}

func TestResult_Payload(t *testing.T) {
	ok := OK(map[string]any{"content": "hi"})
	payload := ok.Payload()
	assert.Equal(t, true, payload["success"])
	assert.Equal(t, "hi", payload["content"])

	failed := Errorf(CodeDocumentNotFound, "document not found: %s", "doc9")
	payload = failed.Payload()
	assert.Equal(t, false, payload["success"])
	assert.Equal(t, CodeDocumentNotFound, payload["code"])
	assert.Contains(t, payload["error"], "doc9")
}

func TestBuffer_EmptyIDRefersToBufferedDocument(t *testing.T) {
	buffer := NewBuffer("doc1", "original")

	content, ok := buffer.Get("")
	require.True(t, ok)
	assert.Equal(t, "original", content)

	require.True(t, buffer.Write("", "changed"))

	content, ok = buffer.Get("doc1")
	require.True(t, ok)
	assert.Equal(t, "changed", content)

	modified, has := buffer.Modified()
	require.True(t, has)
	assert.Equal(t, "changed", modified)
}
