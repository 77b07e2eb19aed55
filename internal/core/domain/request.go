package domain

// ChatMode selects how the assistant handles a request.
type ChatMode string

// Available chat modes.
const (
	// ModeSimple issues a single LLM call and parses one optional operation.
	ModeSimple ChatMode = "simple"

	// ModeAgent runs the tool-calling loop against a document buffer.
	ModeAgent ChatMode = "agent"
)

// IsValid returns true if the chat mode is recognised.
func (m ChatMode) IsValid() bool {
	return m == ModeSimple || m == ModeAgent
}

// AssistantRequest is the unified chat request.
type AssistantRequest struct {
	// Message is the user input.
	Message string `json:"message"`

	// SessionID identifies the conversation; generated when empty.
	SessionID string `json:"session_id,omitempty"`

	// ProjectID links the request to a project knowledge base.
	// Zero means no project and disables retrieval.
	ProjectID int `json:"project_id,omitempty"`

	// Mode selects simple or agent handling. Defaults to simple.
	Mode ChatMode `json:"mode,omitempty"`

	// DocumentContent is the current document text, required for agent mode.
	DocumentContent string `json:"document_content,omitempty"`

	// DocumentID identifies the document being edited.
	DocumentID string `json:"document_id,omitempty"`

	// SelectedText is the user's current selection, for targeted operations.
	SelectedText string `json:"selected_text,omitempty"`

	// SelectionRange is the rune range of the selection.
	SelectionRange *Range `json:"selection_range,omitempty"`

	// DisableRetrieval skips knowledge-base retrieval even when the
	// project has an indexed knowledge base.
	DisableRetrieval bool `json:"disable_retrieval,omitempty"`
}

// AssistantResponse is the unified response envelope.
// The Message field is always populated, even on partial failure.
type AssistantResponse struct {
	// Message is the human-readable explanation for the user.
	Message string `json:"message"`

	// Operations are the proposed document mutations.
	Operations []Operation `json:"operations,omitempty"`

	// Sources are the knowledge-base hits that informed the reply.
	Sources []RetrievalResult `json:"sources,omitempty"`

	// SessionID echoes or assigns the conversation id.
	SessionID string `json:"session_id"`

	// TokensUsed is the total token count reported by the LLM.
	TokensUsed int `json:"tokens_used"`

	// RequiresConfirmation is true when operations await user approval.
	RequiresConfirmation bool `json:"requires_confirmation"`

	// Metadata carries mode-specific extras (agent iterations, tool calls).
	Metadata map[string]any `json:"metadata,omitempty"`
}

// HasOperations reports whether the response proposes any real mutation.
func (r *AssistantResponse) HasOperations() bool {
	for i := range r.Operations {
		if r.Operations[i].Type != OpNone {
			return true
		}
	}
	return false
}
