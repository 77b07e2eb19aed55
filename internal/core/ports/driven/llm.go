package driven

import "context"

// LLMService provides chat completion with tool calling.
// Both chat modes require it; when nil, the assistant is disabled.
//
// Implementations may include:
//   - OpenAI (GPT-4o family)
//   - Anthropic (Claude)
//   - Ollama (local models with tool support)
type LLMService interface {
	// Generate produces a text completion from a single prompt.
	Generate(ctx context.Context, prompt string, opts GenerateOptions) (string, error)

	// Chat conducts a multi-turn conversation without tools.
	Chat(ctx context.Context, messages []ChatMessage, opts ChatOptions) (*ChatResult, error)

	// ChatWithTools conducts a conversation with the given tools exposed
	// as callable functions. The result carries any tool calls the model
	// requested and a normalised finish reason.
	ChatWithTools(ctx context.Context, system string, messages []ChatMessage, tools []ToolDefinition, opts ChatOptions) (*ChatResult, error)

	// ModelName returns the name of the model being used.
	ModelName() string

	// Ping validates the service is reachable by making a lightweight test request.
	Ping(ctx context.Context) error

	// Close releases resources.
	Close() error
}

// Message roles in a conversation.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleTool      = "tool"
)

// ChatMessage represents a single turn in a conversation.
type ChatMessage struct {
	// Role is one of the Role* constants.
	Role string

	// Content is the message text.
	Content string

	// ToolCalls are the calls requested by an assistant message.
	ToolCalls []ToolCall

	// ToolCallID links a tool-role message to the call it answers.
	ToolCallID string

	// Name is the tool name for tool-role messages.
	Name string
}

// ToolCall is a structured request from the model to invoke a named tool.
type ToolCall struct {
	// ID is the provider-assigned call identifier.
	ID string

	// Name is the tool to invoke.
	Name string

	// Arguments are the decoded call arguments.
	Arguments map[string]any
}

// ToolDefinition describes a callable tool for the model.
type ToolDefinition struct {
	// Name is the tool identifier the model uses to call it.
	Name string

	// Description tells the model what the tool does.
	Description string

	// Parameters is the JSON Schema for the tool's arguments.
	Parameters map[string]any
}

// FinishReason is the normalised signal for why generation stopped.
type FinishReason string

// Normalised finish reasons.
const (
	// FinishStop means the model completed its reply.
	FinishStop FinishReason = "stop"

	// FinishToolCalls means the model wants tools executed before continuing.
	FinishToolCalls FinishReason = "tool_calls"

	// FinishLength means the output hit the token limit.
	FinishLength FinishReason = "length"

	// FinishError means the provider reported a failure.
	FinishError FinishReason = "error"
)

// NormaliseFinishReason maps provider-specific finish reasons onto the
// four normalised values. An unknown reason with pending tool calls is
// treated as tool_calls, otherwise as stop.
func NormaliseFinishReason(raw string, hasToolCalls bool) FinishReason {
	switch raw {
	case "stop", "end_turn", "end":
		return FinishStop
	case "tool_calls", "tool_use", "function_call":
		return FinishToolCalls
	case "length", "max_tokens":
		return FinishLength
	case "error":
		return FinishError
	}
	if hasToolCalls {
		return FinishToolCalls
	}
	return FinishStop
}

// ChatResult is the outcome of one model call.
type ChatResult struct {
	// Content is the assistant's text, possibly empty on tool calls.
	Content string

	// ToolCalls are the calls the model requested, in model order.
	ToolCalls []ToolCall

	// FinishReason is the normalised stop signal.
	FinishReason FinishReason

	// TokensUsed is the total token count for the call.
	TokensUsed int
}

// GenerateOptions configures text generation behaviour.
type GenerateOptions struct {
	// MaxTokens is the maximum number of tokens to generate.
	MaxTokens int

	// Temperature controls randomness (0.0 = deterministic, 1.0 = creative).
	Temperature float64

	// StopWords are sequences that stop generation when encountered.
	StopWords []string
}

// ChatOptions configures chat behaviour.
type ChatOptions struct {
	// MaxTokens is the maximum number of tokens to generate.
	MaxTokens int

	// Temperature controls randomness (0.0 = deterministic, 1.0 = creative).
	Temperature float64
}
