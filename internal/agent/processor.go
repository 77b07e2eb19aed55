// Package agent implements the tool-calling loop that drives document
// edits: a two-state machine alternating model calls and tool executions,
// steered by the model's finish reason and bounded by a maximum iteration
// count.
package agent

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/Qq88537794/Xingyun/internal/core/domain"
	"github.com/Qq88537794/Xingyun/internal/core/ports/driven"
	"github.com/Qq88537794/Xingyun/internal/logger"
	"github.com/Qq88537794/Xingyun/internal/tools"
)

// state is the loop position: waiting for the model's next turn, or
// executing the tool calls it requested.
type state int

const (
	stateAwaitingModel state = iota
	stateExecutingTools
)

func (s state) String() string {
	if s == stateExecutingTools {
		return "executing_tools"
	}
	return "awaiting_model"
}

// Terminal causes recorded in Result.Reason.
const (
	ReasonStop          = "stop"
	ReasonLength        = "length_exceeded"
	ReasonLLMError      = "llm_error"
	ReasonMaxIterations = "max_iterations_exceeded"
)

// CallRecord is one executed tool call with its outcome.
type CallRecord struct {
	ID        string         `json:"id"`
	Name      string         `json:"name"`
	Arguments map[string]any `json:"arguments"`
	Result    map[string]any `json:"result"`
	Failed    bool           `json:"failed"`
}

// Result is the outcome of one agent run.
type Result struct {
	// Success is false when the run terminated without a clean stop:
	// iteration limit, truncated output, or a provider failure.
	Success bool

	// Message is the final explanation. Always populated, even on failure.
	Message string

	// Calls are the tool calls executed across all iterations, in order.
	Calls []CallRecord

	// Iterations is the number of model calls made, 1-indexed.
	Iterations int

	// TokensUsed is the total across all model calls.
	TokensUsed int

	// Reason is the terminal cause.
	Reason string
}

// Processor runs the agent loop over a tool registry and an LLM.
type Processor struct {
	registry      *tools.Registry
	llm           driven.LLMService
	systemPrompt  string
	maxIterations int
}

// Option configures the processor.
type Option func(*Processor)

// WithMaxIterations bounds the number of model calls per run.
func WithMaxIterations(n int) Option {
	return func(p *Processor) {
		if n > 0 {
			p.maxIterations = n
		}
	}
}

// New creates a processor. The system prompt should already include the
// document context and tool guidance (see BuildSystemPrompt).
func New(registry *tools.Registry, llm driven.LLMService, systemPrompt string, opts ...Option) *Processor {
	p := &Processor{
		registry:      registry,
		llm:           llm,
		systemPrompt:  systemPrompt,
		maxIterations: domain.DefaultMaxIterations,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Run processes one user request. The loop calls the model, executes any
// requested tools in the order the model listed them, feeds results (and
// errors) back as tool messages, and repeats until the model stops or
// the iteration limit is reached.
//
// Tool calls within one turn run sequentially: later calls may depend on
// buffer mutations made by earlier ones. Returns an error only for
// context cancellation; every other failure mode yields a Result with a
// readable message.
func (p *Processor) Run(ctx context.Context, userInput string) (*Result, error) {
	messages := []driven.ChatMessage{
		{Role: driven.RoleUser, Content: userInput},
	}
	definitions := p.registry.Definitions()

	var calls []CallRecord
	var lastContent string
	tokens := 0
	current := stateAwaitingModel

	for iteration := 1; iteration <= p.maxIterations; iteration++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		current = stateAwaitingModel
		logger.Debug("agent %s, iteration #%d", current, iteration)

		reply, err := p.llm.ChatWithTools(ctx, p.systemPrompt, messages, definitions, driven.ChatOptions{})
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			logger.Error("agent model call failed: %v", err)
			return &Result{
				Message:    fmt.Sprintf("An error occurred while contacting the language model: %v", err),
				Calls:      calls,
				Iterations: iteration,
				TokensUsed: tokens,
				Reason:     ReasonLLMError,
			}, nil
		}

		tokens += reply.TokensUsed
		if reply.Content != "" {
			lastContent = reply.Content
		}
		logger.Debug("agent model reply: finish=%s tool_calls=%d", reply.FinishReason, len(reply.ToolCalls))

		switch reply.FinishReason {
		case driven.FinishStop:
			return &Result{
				Success:    true,
				Message:    reply.Content,
				Calls:      calls,
				Iterations: iteration,
				TokensUsed: tokens,
				Reason:     ReasonStop,
			}, nil

		case driven.FinishToolCalls:
			current = stateExecutingTools
			logger.Debug("agent %s: %d tool calls", current, len(reply.ToolCalls))
			messages = append(messages, driven.ChatMessage{
				Role:      driven.RoleAssistant,
				Content:   reply.Content,
				ToolCalls: reply.ToolCalls,
			})

			for _, call := range reply.ToolCalls {
				record, payload := p.executeCall(ctx, call)
				calls = append(calls, record)
				messages = append(messages, driven.ChatMessage{
					Role:       driven.RoleTool,
					Content:    payload,
					ToolCallID: call.ID,
					Name:       call.Name,
				})
			}

		case driven.FinishLength:
			message := reply.Content
			if message == "" {
				message = "The response was too long and was cut off. Try a simpler request."
			}
			return &Result{
				Message:    message,
				Calls:      calls,
				Iterations: iteration,
				TokensUsed: tokens,
				Reason:     ReasonLength,
			}, nil

		default:
			return &Result{
				Message:    "An error occurred while processing the request.",
				Calls:      calls,
				Iterations: iteration,
				TokensUsed: tokens,
				Reason:     ReasonLLMError,
			}, nil
		}
	}

	logger.Warn("agent hit the iteration limit (%d)", p.maxIterations)
	message := "The request took too many steps and was stopped. Try simplifying it."
	if lastContent != "" {
		message = lastContent + "\n\n(The request took too many steps and was stopped before completing.)"
	}
	return &Result{
		Message:    message,
		Calls:      calls,
		Iterations: p.maxIterations,
		TokensUsed: tokens,
		Reason:     ReasonMaxIterations,
	}, nil
}

// executeCall runs one tool call and serialises its result for the tool
// message. Tool failures do not abort the loop: the error payload goes
// back to the model so it can correct itself in the next turn.
func (p *Processor) executeCall(ctx context.Context, call driven.ToolCall) (CallRecord, string) {
	result := p.registry.Execute(ctx, call.Name, call.Arguments)
	payload := result.Payload()

	record := CallRecord{
		ID:        call.ID,
		Name:      call.Name,
		Arguments: call.Arguments,
		Result:    payload,
		Failed:    !result.Success,
	}
	if record.Failed {
		logger.Warn("tool %s failed: %s", call.Name, result.Err)
	}

	encoded, err := json.Marshal(payload)
	if err != nil {
		encoded = []byte(fmt.Sprintf(`{"success":false,"error":%q}`, err.Error()))
	}
	return record, string(encoded)
}
