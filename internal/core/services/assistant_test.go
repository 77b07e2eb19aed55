package services

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Qq88537794/Xingyun/internal/adapters/driven/vector/memory"
	"github.com/Qq88537794/Xingyun/internal/core/domain"
	"github.com/Qq88537794/Xingyun/internal/core/ports/driven"
)

// scriptedLLM replays canned chat results and records what it was asked.
type scriptedLLM struct {
	replies []*driven.ChatResult
	calls   int

	// systems records the system prompt of each ChatWithTools call;
	// chatHistories records the messages of each Chat call.
	systems       []string
	chatHistories [][]driven.ChatMessage

	err error
}

func (s *scriptedLLM) next() (*driven.ChatResult, error) {
	if s.err != nil {
		return nil, s.err
	}
	if s.calls >= len(s.replies) {
		return &driven.ChatResult{FinishReason: driven.FinishStop}, nil
	}
	reply := s.replies[s.calls]
	s.calls++
	return reply, nil
}

func (s *scriptedLLM) Generate(_ context.Context, _ string, _ driven.GenerateOptions) (string, error) {
	return "", nil
}

func (s *scriptedLLM) Chat(_ context.Context, messages []driven.ChatMessage, _ driven.ChatOptions) (*driven.ChatResult, error) {
	s.chatHistories = append(s.chatHistories, messages)
	return s.next()
}

func (s *scriptedLLM) ChatWithTools(_ context.Context, system string, _ []driven.ChatMessage, _ []driven.ToolDefinition, _ driven.ChatOptions) (*driven.ChatResult, error) {
	s.systems = append(s.systems, system)
	return s.next()
}

func (s *scriptedLLM) ModelName() string            { return "scripted" }
func (s *scriptedLLM) Ping(_ context.Context) error { return nil }
func (s *scriptedLLM) Close() error                 { return nil }

// stubPrompts serves fixed base prompts.
type stubPrompts struct{}

func (stubPrompts) Load(name string) (string, error) {
	return "Base prompt for " + name, nil
}

func (stubPrompts) Reload() {}

func newAssistant(llm driven.LLMService) *AssistantService {
	return NewAssistantService(llm, nil, stubPrompts{}, domain.AgentSettings{})
}

func TestChat_SimpleMode_ParsesOperation(t *testing.T) {
	llm := &scriptedLLM{replies: []*driven.ChatResult{{
		Content:      `{"message":"Added a greeting.","operation":{"type":"insert_text","content":"Hello!"}}`,
		FinishReason: driven.FinishStop,
		TokensUsed:   12,
	}}}
	svc := newAssistant(llm)

	resp, err := svc.Chat(context.Background(), domain.AssistantRequest{Message: "add a greeting"})

	require.NoError(t, err)
	assert.Equal(t, "Added a greeting.", resp.Message)
	require.Len(t, resp.Operations, 1)
	assert.Equal(t, domain.OpInsertText, resp.Operations[0].Type)
	assert.Equal(t, "Hello!", resp.Operations[0].Content)
	assert.True(t, resp.RequiresConfirmation)
	assert.NotEmpty(t, resp.SessionID)
	assert.Equal(t, 12, resp.TokensUsed)
	assert.Equal(t, "simple", resp.Metadata["mode"])
}

func TestChat_SimpleMode_FencedJSON(t *testing.T) {
	llm := &scriptedLLM{replies: []*driven.ChatResult{{
		Content:      "```json\n{\"message\":\"Summarised.\",\"operation\":{\"type\":\"none\",\"content\":\"\"}}\n```",
		FinishReason: driven.FinishStop,
	}}}
	svc := newAssistant(llm)

	resp, err := svc.Chat(context.Background(), domain.AssistantRequest{Message: "summarise"})

	require.NoError(t, err)
	assert.Equal(t, "Summarised.", resp.Message)
	assert.Empty(t, resp.Operations)
	assert.False(t, resp.RequiresConfirmation)
}

func TestChat_SimpleMode_MalformedReplyDegradesToRawText(t *testing.T) {
	llm := &scriptedLLM{replies: []*driven.ChatResult{{
		Content:      "I could not produce JSON, sorry.",
		FinishReason: driven.FinishStop,
	}}}
	svc := newAssistant(llm)

	resp, err := svc.Chat(context.Background(), domain.AssistantRequest{Message: "hello"})

	require.NoError(t, err)
	assert.Equal(t, "I could not produce JSON, sorry.", resp.Message)
	assert.Empty(t, resp.Operations)
	assert.False(t, resp.RequiresConfirmation)
}

func TestChat_SimpleMode_IncludesDocumentContext(t *testing.T) {
	llm := &scriptedLLM{replies: []*driven.ChatResult{{
		Content:      `{"message":"ok"}`,
		FinishReason: driven.FinishStop,
	}}}
	svc := newAssistant(llm)

	_, err := svc.Chat(context.Background(), domain.AssistantRequest{
		Message:         "improve this",
		DocumentContent: "The quick brown fox.",
		SelectedText:    "quick brown",
	})
	require.NoError(t, err)

	require.Len(t, llm.chatHistories, 1)
	system := llm.chatHistories[0][0]
	assert.Equal(t, driven.RoleSystem, system.Role)
	assert.Contains(t, system.Content, "Base prompt for simple_system")
	assert.Contains(t, system.Content, "## Current document\nThe quick brown fox.")
	assert.Contains(t, system.Content, "## Selected text\nquick brown")
}

func TestChat_SessionIDEchoedWhenProvided(t *testing.T) {
	llm := &scriptedLLM{replies: []*driven.ChatResult{{
		Content:      `{"message":"ok"}`,
		FinishReason: driven.FinishStop,
	}}}
	svc := newAssistant(llm)

	resp, err := svc.Chat(context.Background(), domain.AssistantRequest{
		Message:   "hi",
		SessionID: "session-42",
	})

	require.NoError(t, err)
	assert.Equal(t, "session-42", resp.SessionID)
}

func TestChat_AgentMode_WithoutDocumentFallsBackToSimple(t *testing.T) {
	llm := &scriptedLLM{replies: []*driven.ChatResult{{
		Content:      `{"message":"There is no document loaded, but here is my advice."}`,
		FinishReason: driven.FinishStop,
	}}}
	svc := newAssistant(llm)

	resp, err := svc.Chat(context.Background(), domain.AssistantRequest{
		Message: "edit it",
		Mode:    domain.ModeAgent,
	})

	require.NoError(t, err)
	assert.Equal(t, "There is no document loaded, but here is my advice.", resp.Message)
	assert.Equal(t, string(domain.ModeSimple), resp.Metadata["mode"])
	// The single-call path was taken, not the tool loop.
	assert.Len(t, llm.chatHistories, 1)
	assert.Empty(t, llm.systems)
}

func TestChat_AgentMode_WhitespaceDocumentFallsBackToSimple(t *testing.T) {
	llm := &scriptedLLM{replies: []*driven.ChatResult{{
		Content:      `{"message":"ok"}`,
		FinishReason: driven.FinishStop,
	}}}
	svc := newAssistant(llm)

	resp, err := svc.Chat(context.Background(), domain.AssistantRequest{
		Message:         "edit it",
		Mode:            domain.ModeAgent,
		DocumentContent: "   \n\t",
	})

	require.NoError(t, err)
	assert.Equal(t, string(domain.ModeSimple), resp.Metadata["mode"])
}

func TestChat_InvalidMode(t *testing.T) {
	svc := newAssistant(&scriptedLLM{})

	_, err := svc.Chat(context.Background(), domain.AssistantRequest{
		Message: "hi",
		Mode:    "turbo",
	})

	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestChat_NilLLM(t *testing.T) {
	svc := NewAssistantService(nil, nil, stubPrompts{}, domain.AgentSettings{})

	_, err := svc.Chat(context.Background(), domain.AssistantRequest{Message: "hi"})

	assert.ErrorIs(t, err, domain.ErrLLMUnavailable)
}

func TestChat_AgentMode_ModifiedBufferBecomesReplaceOperation(t *testing.T) {
	llm := &scriptedLLM{replies: []*driven.ChatResult{
		{
			FinishReason: driven.FinishToolCalls,
			ToolCalls: []driven.ToolCall{{
				ID:   "call_1",
				Name: "write_document",
				Arguments: map[string]any{
					"document_id": "",
					"content":     "Rewritten document.",
				},
			}},
			TokensUsed: 10,
		},
		{
			Content:      "I rewrote the document.",
			FinishReason: driven.FinishStop,
			TokensUsed:   5,
		},
	}}
	svc := newAssistant(llm)

	resp, err := svc.Chat(context.Background(), domain.AssistantRequest{
		Message:         "rewrite it",
		Mode:            domain.ModeAgent,
		DocumentID:      "doc-1",
		DocumentContent: "Original document.",
	})

	require.NoError(t, err)
	assert.Equal(t, "I rewrote the document.", resp.Message)
	require.Len(t, resp.Operations, 1)
	assert.Equal(t, domain.OpReplace, resp.Operations[0].Type)
	assert.Equal(t, "Rewritten document.", resp.Operations[0].Content)
	assert.Equal(t, "doc-1", resp.Operations[0].TargetFile)
	assert.True(t, resp.RequiresConfirmation)
	assert.Equal(t, 15, resp.TokensUsed)
	assert.Equal(t, 2, resp.Metadata["iterations"])
	assert.Equal(t, "agent", resp.Metadata["mode"])
	assert.Equal(t, true, resp.Metadata["success"])
}

func TestChat_AgentMode_MarkerToolBecomesTypedOperation(t *testing.T) {
	llm := &scriptedLLM{replies: []*driven.ChatResult{
		{
			FinishReason: driven.FinishToolCalls,
			ToolCalls: []driven.ToolCall{{
				ID:   "call_1",
				Name: "generate_outline",
				Arguments: map[string]any{
					"topic": "Go concurrency",
					"depth": 2,
				},
			}},
		},
		{
			Content:      "Here is the outline plan.",
			FinishReason: driven.FinishStop,
		},
	}}
	svc := newAssistant(llm)

	resp, err := svc.Chat(context.Background(), domain.AssistantRequest{
		Message:         "outline this topic",
		Mode:            domain.ModeAgent,
		DocumentContent: "Draft notes.",
	})

	require.NoError(t, err)
	require.Len(t, resp.Operations, 1)
	assert.Equal(t, domain.OpGenerateOutline, resp.Operations[0].Type)
	assert.Equal(t, "outline_request", resp.Operations[0].Metadata["type"])
	assert.Equal(t, "Go concurrency", resp.Operations[0].Metadata["topic"])
}

func TestChat_AgentMode_NoToolCallsNoOperations(t *testing.T) {
	llm := &scriptedLLM{replies: []*driven.ChatResult{{
		Content:      "The document already looks good.",
		FinishReason: driven.FinishStop,
	}}}
	svc := newAssistant(llm)

	resp, err := svc.Chat(context.Background(), domain.AssistantRequest{
		Message:         "review it",
		Mode:            domain.ModeAgent,
		DocumentContent: "Fine document.",
	})

	require.NoError(t, err)
	assert.Empty(t, resp.Operations)
	assert.False(t, resp.RequiresConfirmation)
}

func TestChat_RetrievalPopulatesSourcesAndPrompt(t *testing.T) {
	knowledge, err := NewKnowledgeService(&stubEmbedder{}, memory.NewStore(), nil)
	require.NoError(t, err)
	_, err = knowledge.IndexResource(context.Background(), 1, 10,
		"AI stands for artificial intelligence.", "ai.md")
	require.NoError(t, err)

	llm := &scriptedLLM{replies: []*driven.ChatResult{{
		Content:      "Using tools is unnecessary here.",
		FinishReason: driven.FinishStop,
	}}}
	svc := NewAssistantService(llm, knowledge, stubPrompts{}, domain.AgentSettings{})

	resp, err := svc.Chat(context.Background(), domain.AssistantRequest{
		Message:         "What is AI?",
		Mode:            domain.ModeAgent,
		DocumentContent: "Notes.",
		ProjectID:       1,
	})

	require.NoError(t, err)
	require.NotEmpty(t, resp.Sources)
	assert.Contains(t, resp.Sources[0].Text, "artificial intelligence")

	require.Len(t, llm.systems, 1)
	assert.Contains(t, llm.systems[0], "## Relevant knowledge base content")
	assert.Contains(t, llm.systems[0], "artificial intelligence")
}

func TestChat_DisableRetrievalSkipsSources(t *testing.T) {
	knowledge, err := NewKnowledgeService(&stubEmbedder{}, memory.NewStore(), nil)
	require.NoError(t, err)
	_, err = knowledge.IndexResource(context.Background(), 1, 10, "AI facts.", "ai.md")
	require.NoError(t, err)

	llm := &scriptedLLM{replies: []*driven.ChatResult{{
		Content:      `{"message":"ok"}`,
		FinishReason: driven.FinishStop,
	}}}
	svc := NewAssistantService(llm, knowledge, stubPrompts{}, domain.AgentSettings{})

	resp, err := svc.Chat(context.Background(), domain.AssistantRequest{
		Message:          "What is AI?",
		ProjectID:        1,
		DisableRetrieval: true,
	})

	require.NoError(t, err)
	assert.Empty(t, resp.Sources)
}

func TestChat_SimpleMode_LLMFailure(t *testing.T) {
	llm := &scriptedLLM{err: errors.New("connection refused")}
	svc := newAssistant(llm)

	_, err := svc.Chat(context.Background(), domain.AssistantRequest{Message: "hi"})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "connection refused")
}

func TestParseSimpleReply(t *testing.T) {
	tests := []struct {
		name        string
		raw         string
		wantMessage string
		wantType    domain.OperationType
		wantContent string
	}{
		{
			name:        "bare json",
			raw:         `{"message":"Done.","operation":{"type":"replace_text","content":"new"}}`,
			wantMessage: "Done.",
			wantType:    domain.OpReplaceText,
			wantContent: "new",
		},
		{
			name:        "fenced json",
			raw:         "```json\n{\"message\":\"Done.\"}\n```",
			wantMessage: "Done.",
			wantType:    domain.OpNone,
		},
		{
			name:        "json embedded in prose",
			raw:         `Sure! {"message":"Here.","operation":{"type":"summarize","content":"short"}} Hope that helps.`,
			wantMessage: "Here.",
			wantType:    domain.OpSummarize,
			wantContent: "short",
		},
		{
			name:        "plain text falls back to raw",
			raw:         "Just a plain answer.",
			wantMessage: "Just a plain answer.",
			wantType:    domain.OpNone,
		},
		{
			name:        "unknown operation type falls back to none",
			raw:         `{"message":"Hm.","operation":{"type":"explode","content":"x"}}`,
			wantMessage: "Hm.",
			wantType:    domain.OpNone,
		},
		{
			name:        "missing message falls back to raw",
			raw:         `{"operation":{"type":"replace_text","content":"x"}}`,
			wantMessage: `{"operation":{"type":"replace_text","content":"x"}}`,
			wantType:    domain.OpNone,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			message, op := parseSimpleReply(tt.raw)
			assert.Equal(t, tt.wantMessage, message)
			assert.Equal(t, tt.wantType, op.Type)
			if tt.wantContent != "" {
				assert.Equal(t, tt.wantContent, op.Content)
			}
		})
	}
}

func TestTrimSources(t *testing.T) {
	long := strings.Repeat("字", 250)
	sources := []domain.RetrievalResult{
		{Text: long}, {Text: "short"}, {Text: "short"}, {Text: "dropped"}, {Text: "dropped"},
	}

	trimmed := trimSources(sources)

	require.Len(t, trimmed, 3)
	assert.Equal(t, strings.Repeat("字", 200)+"...", trimmed[0].Text)
	assert.Equal(t, "short", trimmed[1].Text)

	assert.Nil(t, trimSources(nil))
}
