package domain

// OperationType classifies a proposed document mutation.
type OperationType string

// Operation types the core may emit. Operations are proposals: the
// caller applies them to durable storage, never this core.
const (
	// OpNone indicates a plain reply with no document operation.
	OpNone OperationType = "none"

	// OpGenerateOutline proposes inserting a generated outline.
	OpGenerateOutline OperationType = "generate_outline"

	// OpExpandContent proposes expanded content for a passage.
	OpExpandContent OperationType = "expand_content"

	// OpSummarize proposes a summary of a passage.
	OpSummarize OperationType = "summarize"

	// OpStyleTransfer proposes a rewritten passage in a different style.
	OpStyleTransfer OperationType = "style_transfer"

	// OpGrammarCheck proposes grammar corrections.
	OpGrammarCheck OperationType = "grammar_check"

	// OpInsertText proposes inserting text at a position.
	OpInsertText OperationType = "insert_text"

	// OpReplaceText proposes replacing a text range.
	OpReplaceText OperationType = "replace_text"

	// OpReplace proposes replacing the whole document (agent mode).
	OpReplace OperationType = "replace"

	// OpDeleteText proposes deleting a text range.
	OpDeleteText OperationType = "delete_text"
)

// IsValid returns true if the operation type is recognised.
func (t OperationType) IsValid() bool {
	switch t {
	case OpNone, OpGenerateOutline, OpExpandContent, OpSummarize,
		OpStyleTransfer, OpGrammarCheck, OpInsertText, OpReplaceText,
		OpReplace, OpDeleteText:
		return true
	default:
		return false
	}
}

// String returns the string representation.
func (t OperationType) String() string {
	return string(t)
}

// Range is a half-open rune-offset interval [Start, End).
type Range struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

// Operation describes a document mutation the front end should apply.
// It is constructed from tool results or parsed from a simple-mode
// reply, and never executed against durable storage by this core.
type Operation struct {
	// Type is the kind of mutation proposed.
	Type OperationType `json:"operation_type"`

	// TargetFile is the document the operation applies to.
	TargetFile string `json:"target_file,omitempty"`

	// Content is the new or replacement text.
	Content string `json:"content"`

	// Position is the affected range, when the operation is positional.
	Position *Range `json:"position,omitempty"`

	// Metadata contains operation-specific key-value pairs.
	Metadata map[string]any `json:"metadata,omitempty"`
}
