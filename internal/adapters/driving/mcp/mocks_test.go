package mcp

import (
	"context"

	"github.com/Qq88537794/Xingyun/internal/core/domain"
)

// mockAssistantService is a mock implementation of driving.AssistantService.
type mockAssistantService struct {
	response *domain.AssistantResponse
	request  domain.AssistantRequest
	err      error
}

func (m *mockAssistantService) Chat(
	_ context.Context,
	req domain.AssistantRequest,
) (*domain.AssistantResponse, error) {
	m.request = req
	return m.response, m.err
}

// mockKnowledgeService is a mock implementation of driving.KnowledgeService.
type mockKnowledgeService struct {
	chunks  int
	results []domain.RetrievalResult
	exists  bool
	err     error

	removedProject  int
	removedResource int
}

func (m *mockKnowledgeService) IndexResource(
	_ context.Context, _, _ int, _, _ string,
) (int, error) {
	return m.chunks, m.err
}

func (m *mockKnowledgeService) RemoveResource(_ context.Context, projectID, resourceID int) error {
	m.removedProject = projectID
	m.removedResource = resourceID
	return m.err
}

func (m *mockKnowledgeService) Search(
	_ context.Context, _ int, _ string, _ int,
) ([]domain.RetrievalResult, error) {
	return m.results, m.err
}

func (m *mockKnowledgeService) HasKnowledgeBase(_ context.Context, _ int) bool {
	return m.exists
}

func (m *mockKnowledgeService) BuildContext(_ []domain.RetrievalResult) string {
	return ""
}

// mockPromptStore is a mock implementation of driven.PromptStore.
type mockPromptStore struct {
	content string
	err     error
}

func (m *mockPromptStore) Load(_ string) (string, error) {
	return m.content, m.err
}

func (m *mockPromptStore) Reload() {}
