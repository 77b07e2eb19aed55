package tools

import "context"

// Edit actions accepted by the edit_document tool.
const (
	ActionInsert  = "insert"
	ActionReplace = "replace"
	ActionDelete  = "delete"
)

// ReadDocumentTool returns the full text of the buffered document.
type ReadDocumentTool struct {
	buffer *Buffer
}

// NewReadDocumentTool creates a read tool over the given buffer.
func NewReadDocumentTool(buffer *Buffer) *ReadDocumentTool {
	return &ReadDocumentTool{buffer: buffer}
}

func (t *ReadDocumentTool) Name() string { return "read_document" }

func (t *ReadDocumentTool) Description() string {
	return "Read the full content of a document. Use this to inspect the " +
		"document text or structure. Read the document before modifying it."
}

func (t *ReadDocumentTool) Parameters() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"document_id": map[string]any{
				"type":        "string",
				"description": "Document identifier",
			},
		},
		"required": []string{"document_id"},
	}
}

func (t *ReadDocumentTool) Execute(_ context.Context, args map[string]any) *Result {
	documentID := stringArg(args, "document_id")
	content, ok := t.buffer.Get(documentID)
	if !ok {
		return Errorf(CodeDocumentNotFound, "document not found: %s", documentID)
	}
	return OK(map[string]any{
		"content": content,
		"length":  len([]rune(content)),
	})
}

// WriteDocumentTool replaces the buffered document wholesale.
type WriteDocumentTool struct {
	buffer *Buffer
}

// NewWriteDocumentTool creates a write tool over the given buffer.
func NewWriteDocumentTool(buffer *Buffer) *WriteDocumentTool {
	return &WriteDocumentTool{buffer: buffer}
}

func (t *WriteDocumentTool) Name() string { return "write_document" }

func (t *WriteDocumentTool) Description() string {
	return "Overwrite or create a document with complete content. Only use " +
		"this for new documents or full rewrites; prefer edit_document for " +
		"local changes."
}

func (t *WriteDocumentTool) Parameters() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"document_id": map[string]any{
				"type":        "string",
				"description": "Document identifier (may be empty for a new document)",
			},
			"content": map[string]any{
				"type":        "string",
				"description": "The complete document content",
			},
		},
		"required": []string{"content"},
	}
}

func (t *WriteDocumentTool) Execute(_ context.Context, args map[string]any) *Result {
	documentID := stringArg(args, "document_id")
	content := stringArg(args, "content")

	if !t.buffer.Write(documentID, content) {
		return Errorf(CodeDocumentNotFound, "document not found: %s", documentID)
	}
	return OK(map[string]any{
		"document_id": documentID,
		"message":     "document saved",
	})
}

// EditDocumentTool mutates a region of the buffered document. Positions
// are rune offsets; insert accepts [0, len], replace and delete operate
// on the half-open range [position, end_position).
type EditDocumentTool struct {
	buffer *Buffer
}

// NewEditDocumentTool creates an edit tool over the given buffer.
func NewEditDocumentTool(buffer *Buffer) *EditDocumentTool {
	return &EditDocumentTool{buffer: buffer}
}

func (t *EditDocumentTool) Name() string { return "edit_document" }

func (t *EditDocumentTool) Description() string {
	return "Edit part of a document. Supported actions: insert (add content " +
		"at a position), replace (replace the range [position, end_position) " +
		"with content), delete (remove the range [position, end_position)). " +
		"Use this for precise local changes instead of rewriting the whole " +
		"document."
}

func (t *EditDocumentTool) Parameters() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"document_id": map[string]any{
				"type":        "string",
				"description": "Document identifier",
			},
			"action": map[string]any{
				"type":        "string",
				"enum":        []string{ActionInsert, ActionReplace, ActionDelete},
				"description": "Edit action",
			},
			"position": map[string]any{
				"type":        "integer",
				"description": "Start position (character index)",
			},
			"end_position": map[string]any{
				"type":        "integer",
				"description": "End position, exclusive (for replace and delete)",
			},
			"content": map[string]any{
				"type":        "string",
				"description": "Content to insert or replace with",
			},
		},
		"required": []string{"document_id", "action", "position"},
	}
}

func (t *EditDocumentTool) Execute(_ context.Context, args map[string]any) *Result {
	documentID := stringArg(args, "document_id")
	action := stringArg(args, "action")
	position := intArg(args, "position", -1)
	content := stringArg(args, "content")

	original, ok := t.buffer.Get(documentID)
	if !ok {
		return Errorf(CodeDocumentNotFound, "document not found: %s", documentID)
	}

	runes := []rune(original)
	n := len(runes)

	if position < 0 || position > n {
		return Errorf(CodeInvalidPosition, "position %d out of range [0, %d]", position, n)
	}

	var updated string
	switch action {
	case ActionInsert:
		updated = string(runes[:position]) + content + string(runes[position:])

	case ActionReplace:
		end := position + len([]rune(content))
		if hasIntArg(args, "end_position") {
			end = intArg(args, "end_position", end)
		}
		if end < position || end > n {
			return Errorf(CodeInvalidPosition, "end position %d out of range [%d, %d]", end, position, n)
		}
		updated = string(runes[:position]) + content + string(runes[end:])

	case ActionDelete:
		end := position
		if hasIntArg(args, "end_position") {
			end = intArg(args, "end_position", end)
		}
		if end < position || end > n {
			return Errorf(CodeInvalidPosition, "end position %d out of range [%d, %d]", end, position, n)
		}
		updated = string(runes[:position]) + string(runes[end:])

	default:
		return Errorf(CodeInvalidInput, "unknown action: %s", action)
	}

	if !t.buffer.Write(documentID, updated) {
		return Errorf(CodeDocumentNotFound, "document not found: %s", documentID)
	}

	return OK(map[string]any{
		"action":   action,
		"position": position,
		"message":  "applied " + action,
	})
}

// searchContextRunes is the number of runes of context returned on each
// side of a match.
const searchContextRunes = 50

// defaultMaxResults caps search results when the model omits max_results.
const defaultMaxResults = 5

// SearchDocumentTool finds substring matches in the buffered document
// and returns their rune positions with surrounding context.
type SearchDocumentTool struct {
	buffer *Buffer
}

// NewSearchDocumentTool creates a search tool over the given buffer.
func NewSearchDocumentTool(buffer *Buffer) *SearchDocumentTool {
	return &SearchDocumentTool{buffer: buffer}
}

func (t *SearchDocumentTool) Name() string { return "search_document" }

func (t *SearchDocumentTool) Description() string {
	return "Search a document for text and return match positions with " +
		"surrounding context. Use this to locate the content to modify."
}

func (t *SearchDocumentTool) Parameters() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"document_id": map[string]any{
				"type":        "string",
				"description": "Document identifier",
			},
			"query": map[string]any{
				"type":        "string",
				"description": "Text to search for",
			},
			"max_results": map[string]any{
				"type":        "integer",
				"description": "Maximum number of matches to return",
				"default":     defaultMaxResults,
			},
		},
		"required": []string{"document_id", "query"},
	}
}

func (t *SearchDocumentTool) Execute(_ context.Context, args map[string]any) *Result {
	documentID := stringArg(args, "document_id")
	query := stringArg(args, "query")
	maxResults := intArg(args, "max_results", defaultMaxResults)
	if maxResults <= 0 {
		maxResults = defaultMaxResults
	}

	if query == "" {
		return Errorf(CodeInvalidInput, "query must not be empty")
	}

	content, ok := t.buffer.Get(documentID)
	if !ok {
		return Errorf(CodeDocumentNotFound, "document not found: %s", documentID)
	}

	runes := []rune(content)
	needle := []rune(query)
	results := make([]map[string]any, 0, maxResults)

	// Overlapping matches count: the scan advances one rune past each hit.
	for pos := 0; len(results) < maxResults && pos+len(needle) <= len(runes); pos++ {
		if !runesMatchAt(runes, needle, pos) {
			continue
		}

		ctxStart := pos - searchContextRunes
		if ctxStart < 0 {
			ctxStart = 0
		}
		ctxEnd := pos + len(needle) + searchContextRunes
		if ctxEnd > len(runes) {
			ctxEnd = len(runes)
		}

		results = append(results, map[string]any{
			"position": pos,
			"context":  string(runes[ctxStart:ctxEnd]),
			"match":    query,
		})
	}

	// No match is an empty result set, not an error.
	return OK(map[string]any{
		"matches": len(results),
		"results": results,
	})
}

func runesMatchAt(haystack, needle []rune, pos int) bool {
	for i, r := range needle {
		if haystack[pos+i] != r {
			return false
		}
	}
	return true
}
