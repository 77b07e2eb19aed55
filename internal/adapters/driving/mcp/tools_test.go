package mcp

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Qq88537794/Xingyun/internal/core/domain"
)

func TestServer_handleChat(t *testing.T) {
	ctx := context.Background()

	t.Run("returns chat response with operations and sources", func(t *testing.T) {
		mockAssistant := &mockAssistantService{
			response: &domain.AssistantResponse{
				Message: "Updated the intro.",
				Operations: []domain.Operation{
					{Type: domain.OpReplace, TargetFile: "doc-1", Content: "New intro."},
				},
				Sources: []domain.RetrievalResult{
					{Text: "Background material.", Score: 0.9, ResourceID: 7},
				},
				SessionID:            "session-1",
				TokensUsed:           42,
				RequiresConfirmation: true,
			},
		}

		ports := &Ports{Assistant: mockAssistant}
		server, err := NewServer(ports)
		require.NoError(t, err)

		input := ChatInput{
			Message:         "improve the intro",
			Mode:            "agent",
			DocumentID:      "doc-1",
			DocumentContent: "Old intro.",
			ProjectID:       3,
		}
		_, output, err := server.handleChat(ctx, nil, input)

		require.NoError(t, err)
		assert.Equal(t, "Updated the intro.", output.Message)
		assert.Equal(t, "session-1", output.SessionID)
		assert.Equal(t, 42, output.TokensUsed)
		assert.True(t, output.RequiresConfirmation)

		require.Len(t, output.Operations, 1)
		assert.Equal(t, "replace", output.Operations[0].Type)
		assert.Equal(t, "New intro.", output.Operations[0].Content)

		require.Len(t, output.Sources, 1)
		assert.Equal(t, 7, output.Sources[0].ResourceID)
		assert.Equal(t, 0.9, output.Sources[0].Score)
	})

	t.Run("forwards request fields to the assistant", func(t *testing.T) {
		mockAssistant := &mockAssistantService{
			response: &domain.AssistantResponse{Message: "ok"},
		}
		ports := &Ports{Assistant: mockAssistant}
		server, err := NewServer(ports)
		require.NoError(t, err)

		input := ChatInput{
			Message:          "hello",
			SessionID:        "s-1",
			ProjectID:        5,
			SelectedText:     "selection",
			DisableRetrieval: true,
		}
		_, _, err = server.handleChat(ctx, nil, input)

		require.NoError(t, err)
		assert.Equal(t, "hello", mockAssistant.request.Message)
		assert.Equal(t, "s-1", mockAssistant.request.SessionID)
		assert.Equal(t, 5, mockAssistant.request.ProjectID)
		assert.Equal(t, "selection", mockAssistant.request.SelectedText)
		assert.True(t, mockAssistant.request.DisableRetrieval)
	})

	t.Run("returns error on chat failure", func(t *testing.T) {
		mockAssistant := &mockAssistantService{
			err: errors.New("model unavailable"),
		}
		ports := &Ports{Assistant: mockAssistant}
		server, err := NewServer(ports)
		require.NoError(t, err)

		_, _, err = server.handleChat(ctx, nil, ChatInput{Message: "hi"})

		require.Error(t, err)
		assert.Contains(t, err.Error(), "model unavailable")
	})
}

func TestServer_handleKBIndex(t *testing.T) {
	ctx := context.Background()

	t.Run("returns chunk count", func(t *testing.T) {
		mockKB := &mockKnowledgeService{chunks: 4}
		ports := &Ports{Assistant: &mockAssistantService{}, Knowledge: mockKB}
		server, err := NewServer(ports)
		require.NoError(t, err)

		input := KBIndexInput{ProjectID: 1, ResourceID: 10, Text: "content", Filename: "a.md"}
		_, output, err := server.handleKBIndex(ctx, nil, input)

		require.NoError(t, err)
		assert.Equal(t, 4, output.Chunks)
	})

	t.Run("nil knowledge service returns error", func(t *testing.T) {
		ports := &Ports{Assistant: &mockAssistantService{}}
		server, err := NewServer(ports)
		require.NoError(t, err)

		_, _, err = server.handleKBIndex(ctx, nil, KBIndexInput{ProjectID: 1, ResourceID: 10})

		require.Error(t, err)
		assert.ErrorIs(t, err, errKnowledgeUnavailable)
	})

	t.Run("returns error on index failure", func(t *testing.T) {
		mockKB := &mockKnowledgeService{err: errors.New("embedding backend down")}
		ports := &Ports{Assistant: &mockAssistantService{}, Knowledge: mockKB}
		server, err := NewServer(ports)
		require.NoError(t, err)

		_, _, err = server.handleKBIndex(ctx, nil, KBIndexInput{ProjectID: 1, ResourceID: 10})

		require.Error(t, err)
		assert.Contains(t, err.Error(), "embedding backend down")
	})
}

func TestServer_handleKBSearch(t *testing.T) {
	ctx := context.Background()

	t.Run("returns search results", func(t *testing.T) {
		mockKB := &mockKnowledgeService{
			results: []domain.RetrievalResult{
				{Text: "relevant chunk", Score: 0.82, ResourceID: 10},
			},
		}
		ports := &Ports{Assistant: &mockAssistantService{}, Knowledge: mockKB}
		server, err := NewServer(ports)
		require.NoError(t, err)

		input := KBSearchInput{ProjectID: 1, Query: "topic"}
		_, output, err := server.handleKBSearch(ctx, nil, input)

		require.NoError(t, err)
		assert.Equal(t, 1, output.Count)
		require.Len(t, output.Results, 1)
		assert.Equal(t, "relevant chunk", output.Results[0].Text)
		assert.Equal(t, 0.82, output.Results[0].Score)
		assert.Equal(t, 10, output.Results[0].ResourceID)
	})

	t.Run("nil knowledge service returns error", func(t *testing.T) {
		ports := &Ports{Assistant: &mockAssistantService{}}
		server, err := NewServer(ports)
		require.NoError(t, err)

		_, _, err = server.handleKBSearch(ctx, nil, KBSearchInput{ProjectID: 1, Query: "x"})

		require.Error(t, err)
		assert.ErrorIs(t, err, errKnowledgeUnavailable)
	})

	t.Run("empty result set has zero count", func(t *testing.T) {
		mockKB := &mockKnowledgeService{}
		ports := &Ports{Assistant: &mockAssistantService{}, Knowledge: mockKB}
		server, err := NewServer(ports)
		require.NoError(t, err)

		_, output, err := server.handleKBSearch(ctx, nil, KBSearchInput{ProjectID: 1, Query: "x"})

		require.NoError(t, err)
		assert.Equal(t, 0, output.Count)
		assert.Empty(t, output.Results)
	})
}

func TestServer_handleKBRemove(t *testing.T) {
	ctx := context.Background()

	t.Run("removes resource", func(t *testing.T) {
		mockKB := &mockKnowledgeService{}
		ports := &Ports{Assistant: &mockAssistantService{}, Knowledge: mockKB}
		server, err := NewServer(ports)
		require.NoError(t, err)

		input := KBRemoveInput{ProjectID: 2, ResourceID: 20}
		_, output, err := server.handleKBRemove(ctx, nil, input)

		require.NoError(t, err)
		assert.True(t, output.Removed)
		assert.Equal(t, 2, mockKB.removedProject)
		assert.Equal(t, 20, mockKB.removedResource)
	})

	t.Run("nil knowledge service returns error", func(t *testing.T) {
		ports := &Ports{Assistant: &mockAssistantService{}}
		server, err := NewServer(ports)
		require.NoError(t, err)

		_, _, err = server.handleKBRemove(ctx, nil, KBRemoveInput{ProjectID: 2, ResourceID: 20})

		require.Error(t, err)
		assert.ErrorIs(t, err, errKnowledgeUnavailable)
	})
}
