package services

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/Qq88537794/Xingyun/internal/agent"
	"github.com/Qq88537794/Xingyun/internal/core/domain"
	"github.com/Qq88537794/Xingyun/internal/core/ports/driven"
	"github.com/Qq88537794/Xingyun/internal/core/ports/driving"
	"github.com/Qq88537794/Xingyun/internal/logger"
	"github.com/Qq88537794/Xingyun/internal/tools"
)

// Ensure AssistantService implements the interface.
var _ driving.AssistantService = (*AssistantService)(nil)

const (
	// maxSources bounds the sources returned in a response.
	maxSources = 3

	// sourceTextLimit caps each returned source's text, in runes.
	sourceTextLimit = 200
)

// AssistantService is the chat façade. It routes a request through
// optional knowledge-base retrieval and either a single model call
// (simple mode) or the tool-calling agent loop (agent mode), and maps
// the outcome to the unified response envelope.
type AssistantService struct {
	llm           driven.LLMService
	knowledge     driving.KnowledgeService
	prompts       driven.PromptStore
	agentSettings domain.AgentSettings
}

// NewAssistantService creates a new assistant service.
// The knowledge service is optional (can be nil); without it retrieval
// is skipped. The LLM service is required for Chat to succeed.
func NewAssistantService(
	llm driven.LLMService,
	knowledge driving.KnowledgeService,
	prompts driven.PromptStore,
	agentSettings domain.AgentSettings,
) *AssistantService {
	return &AssistantService{
		llm:           llm,
		knowledge:     knowledge,
		prompts:       prompts,
		agentSettings: agentSettings,
	}
}

// Chat processes one assistant request and returns the response
// envelope. The Message field is always populated on a non-error
// return, even when the underlying run failed partway.
func (s *AssistantService) Chat(ctx context.Context, req domain.AssistantRequest) (*domain.AssistantResponse, error) {
	if s.llm == nil {
		return nil, domain.ErrLLMUnavailable
	}

	mode := req.Mode
	if mode == "" {
		mode = domain.ModeSimple
	}
	if !mode.IsValid() {
		return nil, fmt.Errorf("%w: unknown chat mode %q", domain.ErrInvalidInput, req.Mode)
	}
	// Agent mode needs a document to work on; without one the request
	// degrades to a simple chat rather than failing.
	if mode == domain.ModeAgent && strings.TrimSpace(req.DocumentContent) == "" {
		mode = domain.ModeSimple
	}

	sessionID := req.SessionID
	if sessionID == "" {
		sessionID = uuid.New().String()
	}

	logger.Section("Assistant Chat")
	logger.Debug("Session %s, mode %s, project %d", sessionID, mode, req.ProjectID)

	sources, retrievalContext := s.retrieve(ctx, req)

	var resp *domain.AssistantResponse
	var err error
	switch mode {
	case domain.ModeAgent:
		resp, err = s.chatAgent(ctx, req, retrievalContext)
	default:
		resp, err = s.chatSimple(ctx, req, retrievalContext)
	}
	if err != nil {
		return nil, err
	}

	resp.SessionID = sessionID
	resp.Sources = trimSources(sources)
	resp.RequiresConfirmation = resp.HasOperations()
	return resp, nil
}

// retrieve runs knowledge-base retrieval for the request, returning the
// raw hits and the formatted context block. Retrieval problems degrade
// to no context rather than failing the chat.
func (s *AssistantService) retrieve(ctx context.Context, req domain.AssistantRequest) ([]domain.RetrievalResult, string) {
	if s.knowledge == nil || req.ProjectID == 0 || req.DisableRetrieval {
		return nil, ""
	}
	if !s.knowledge.HasKnowledgeBase(ctx, req.ProjectID) {
		return nil, ""
	}

	results, err := s.knowledge.Search(ctx, req.ProjectID, req.Message, DefaultTopK)
	if err != nil {
		logger.Warn("Knowledge retrieval failed: %v", err)
		return nil, ""
	}
	if len(results) == 0 {
		return nil, ""
	}
	return results, s.knowledge.BuildContext(results)
}

// chatSimple makes a single model call and parses the JSON reply
// envelope into a message and at most one operation.
func (s *AssistantService) chatSimple(ctx context.Context, req domain.AssistantRequest, retrievalContext string) (*domain.AssistantResponse, error) {
	base, err := s.prompts.Load(driven.PromptSimpleSystem)
	if err != nil {
		return nil, fmt.Errorf("loading system prompt: %w", err)
	}

	messages := []driven.ChatMessage{
		{Role: driven.RoleSystem, Content: simpleSystemPrompt(base, req, retrievalContext)},
		{Role: driven.RoleUser, Content: req.Message},
	}

	result, err := s.llm.Chat(ctx, messages, driven.ChatOptions{})
	if err != nil {
		return nil, fmt.Errorf("model call failed: %w", err)
	}

	message, op := parseSimpleReply(result.Content)
	resp := &domain.AssistantResponse{
		Message:    message,
		TokensUsed: result.TokensUsed,
		Metadata:   map[string]any{"mode": string(domain.ModeSimple)},
	}
	if op.Type != domain.OpNone {
		resp.Operations = []domain.Operation{op}
	}
	return resp, nil
}

// chatAgent runs the tool-calling loop against a scratch buffer seeded
// with the request's document and maps the outcome to operations.
func (s *AssistantService) chatAgent(ctx context.Context, req domain.AssistantRequest, retrievalContext string) (*domain.AssistantResponse, error) {
	base, err := s.prompts.Load(driven.PromptAgentSystem)
	if err != nil {
		return nil, fmt.Errorf("loading system prompt: %w", err)
	}

	buffer := tools.NewBuffer(req.DocumentID, req.DocumentContent)
	registry := tools.NewDefaultRegistry(buffer)

	system := agent.BuildSystemPrompt(base, registry.Definitions(), agent.PromptContext{
		DocumentContent:  req.DocumentContent,
		SelectedText:     req.SelectedText,
		RetrievalContext: retrievalContext,
	})

	processor := agent.New(registry, s.llm, system,
		agent.WithMaxIterations(s.agentSettings.EffectiveMaxIterations()))

	result, err := processor.Run(ctx, req.Message)
	if err != nil {
		return nil, err
	}

	operations := agentOperations(req.DocumentID, buffer, result.Calls)

	message := result.Message
	if message == "" {
		if len(operations) > 0 {
			message = "The document has been updated."
		} else {
			message = "No changes were made."
		}
	}

	return &domain.AssistantResponse{
		Message:    message,
		Operations: operations,
		TokensUsed: result.TokensUsed,
		Metadata: map[string]any{
			"mode":       string(domain.ModeAgent),
			"success":    result.Success,
			"iterations": result.Iterations,
			"reason":     result.Reason,
			"tool_calls": callSummaries(result.Calls),
		},
	}, nil
}

// agentOperations derives the proposed operations from an agent run: a
// modified buffer becomes one whole-document replace, and each
// successful marker-tool call becomes an operation of its own type.
func agentOperations(documentID string, buffer *tools.Buffer, calls []agent.CallRecord) []domain.Operation {
	var operations []domain.Operation

	if content, modified := buffer.Modified(); modified {
		operations = append(operations, domain.Operation{
			Type:       domain.OpReplace,
			TargetFile: documentID,
			Content:    content,
			Metadata:   map[string]any{"agent_tool_calls": len(calls)},
		})
	}

	markerTypes := map[string]domain.OperationType{
		"generate_outline": domain.OpGenerateOutline,
		"expand_content":   domain.OpExpandContent,
		"summarize":        domain.OpSummarize,
	}
	for _, call := range calls {
		opType, isMarker := markerTypes[call.Name]
		if !isMarker || call.Failed {
			continue
		}
		operations = append(operations, domain.Operation{
			Type:       opType,
			TargetFile: documentID,
			Metadata:   call.Result,
		})
	}
	return operations
}

// callSummaries renders executed tool calls for response metadata.
func callSummaries(calls []agent.CallRecord) []map[string]any {
	summaries := make([]map[string]any, len(calls))
	for i, call := range calls {
		summaries[i] = map[string]any{
			"name":   call.Name,
			"failed": call.Failed,
		}
	}
	return summaries
}

// simpleSystemPrompt assembles the simple-mode system prompt from the
// base prompt and the request context sections.
func simpleSystemPrompt(base string, req domain.AssistantRequest, retrievalContext string) string {
	parts := []string{base}

	if req.DocumentContent != "" {
		parts = append(parts, "## Current document\n"+truncateRunes(req.DocumentContent, 3000))
	}
	if req.SelectedText != "" {
		parts = append(parts, "## Selected text\n"+req.SelectedText)
	}
	if retrievalContext != "" {
		parts = append(parts, "## Relevant knowledge base content\n"+retrievalContext)
	}
	return strings.Join(parts, "\n\n")
}

// simpleEnvelope is the JSON reply shape the simple-mode prompt requests.
type simpleEnvelope struct {
	Message   string `json:"message"`
	Operation *struct {
		Type    string `json:"type"`
		Content string `json:"content"`
	} `json:"operation"`
}

// parseSimpleReply extracts the message and operation from a simple-mode
// model reply. Markdown fences are stripped and the outermost JSON
// object is parsed; anything unparseable degrades to the raw text with
// no operation.
func parseSimpleReply(raw string) (string, domain.Operation) {
	none := domain.Operation{Type: domain.OpNone}

	payload, ok := extractJSONObject(stripFences(raw))
	if !ok {
		return raw, none
	}

	var envelope simpleEnvelope
	if err := json.Unmarshal([]byte(payload), &envelope); err != nil || envelope.Message == "" {
		return raw, none
	}

	if envelope.Operation == nil {
		return envelope.Message, none
	}
	opType := domain.OperationType(envelope.Operation.Type)
	if !opType.IsValid() || opType == domain.OpNone {
		return envelope.Message, none
	}
	return envelope.Message, domain.Operation{
		Type:    opType,
		Content: envelope.Operation.Content,
	}
}

// stripFences removes a surrounding markdown code fence, if present.
func stripFences(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}

// extractJSONObject returns the outermost {...} span of s.
func extractJSONObject(s string) (string, bool) {
	start := strings.Index(s, "{")
	end := strings.LastIndex(s, "}")
	if start == -1 || end <= start {
		return "", false
	}
	return s[start : end+1], true
}

// trimSources caps the source list and truncates each text for the
// response envelope.
func trimSources(sources []domain.RetrievalResult) []domain.RetrievalResult {
	if len(sources) == 0 {
		return nil
	}
	if len(sources) > maxSources {
		sources = sources[:maxSources]
	}
	trimmed := make([]domain.RetrievalResult, len(sources))
	for i, src := range sources {
		trimmed[i] = src
		runes := []rune(src.Text)
		if len(runes) > sourceTextLimit {
			trimmed[i].Text = string(runes[:sourceTextLimit]) + "..."
		}
	}
	return trimmed
}

// truncateRunes shortens s to limit runes.
func truncateRunes(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit])
}
