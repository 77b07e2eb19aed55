package tools

// Buffer is the request-scoped scratch document the tools operate on.
// It is seeded from caller-supplied content, tracks the latest modified
// text, and is discarded when the request ends; durable persistence is
// the caller's responsibility.
//
// A buffer is owned by exactly one request and is not safe for
// concurrent use.
type Buffer struct {
	documentID string
	original   string
	modified   *string
}

// NewBuffer creates a buffer holding the given document.
func NewBuffer(documentID, content string) *Buffer {
	return &Buffer{documentID: documentID, original: content}
}

// Get returns the current text for the document. An empty id refers to
// the buffered document; any other id is unknown. Returns the modified
// text once a write has happened.
func (b *Buffer) Get(documentID string) (string, bool) {
	if documentID != b.documentID && documentID != "" {
		return "", false
	}
	if b.modified != nil {
		return *b.modified, true
	}
	return b.original, true
}

// Write replaces the document text. Returns false for an id that does
// not refer to the buffered document.
func (b *Buffer) Write(documentID, content string) bool {
	if documentID != b.documentID && documentID != "" {
		return false
	}
	b.modified = &content
	return true
}

// Modified returns the modified text and whether any write happened.
func (b *Buffer) Modified() (string, bool) {
	if b.modified == nil {
		return "", false
	}
	return *b.modified, true
}
