package cli

import (
	"context"
	"errors"

	"github.com/Qq88537794/Xingyun/internal/core/domain"
)

// mockAssistantService records the last request and returns a canned response.
type mockAssistantService struct {
	response *domain.AssistantResponse
	request  domain.AssistantRequest
	err      error
}

func (m *mockAssistantService) Chat(_ context.Context, req domain.AssistantRequest) (*domain.AssistantResponse, error) {
	m.request = req
	if m.err != nil {
		return nil, m.err
	}
	if m.response != nil {
		return m.response, nil
	}
	return &domain.AssistantResponse{Message: "ok", SessionID: "session-1"}, nil
}

// mockKnowledgeService provides canned knowledge-base behaviour.
type mockKnowledgeService struct {
	chunks  int
	results []domain.RetrievalResult
	exists  bool
	err     error

	indexedProject  int
	indexedResource int
	removedProject  int
	removedResource int
	searchQuery     string
	searchTopK      int
}

func (m *mockKnowledgeService) IndexResource(_ context.Context, projectID, resourceID int, _, _ string) (int, error) {
	m.indexedProject = projectID
	m.indexedResource = resourceID
	return m.chunks, m.err
}

func (m *mockKnowledgeService) RemoveResource(_ context.Context, projectID, resourceID int) error {
	m.removedProject = projectID
	m.removedResource = resourceID
	return m.err
}

func (m *mockKnowledgeService) Search(_ context.Context, _ int, query string, topK int) ([]domain.RetrievalResult, error) {
	m.searchQuery = query
	m.searchTopK = topK
	return m.results, m.err
}

func (m *mockKnowledgeService) HasKnowledgeBase(_ context.Context, _ int) bool {
	return m.exists
}

func (m *mockKnowledgeService) BuildContext(_ []domain.RetrievalResult) string {
	return ""
}

// mockSettingsService returns fixed settings without touching storage.
type mockSettingsService struct {
	settings    *domain.AppSettings
	validateErr error
}

func (m *mockSettingsService) Get() (*domain.AppSettings, error) {
	if m.settings == nil {
		defaults := domain.DefaultAppSettings()
		return &defaults, nil
	}
	return m.settings, nil
}

func (m *mockSettingsService) Save(_ *domain.AppSettings) error { return nil }

func (m *mockSettingsService) SetLLMProvider(_ domain.AIProvider, _, _ string) error {
	return errors.New("not supported in tests")
}

func (m *mockSettingsService) SetEmbeddingProvider(_ domain.AIProvider, _, _ string) error {
	return errors.New("not supported in tests")
}

func (m *mockSettingsService) SetVectorBackend(_ domain.VectorBackend, _, _ string) error {
	return errors.New("not supported in tests")
}

func (m *mockSettingsService) Validate() error { return m.validateErr }

// setupTestServices swaps mocks into the package-level service vars and
// returns a cleanup that restores the originals.
func setupTestServices(assistant *mockAssistantService, knowledge *mockKnowledgeService, settings *mockSettingsService) func() {
	origAssistant := assistantService
	origKnowledge := knowledgeService
	origSettings := settingsService

	if assistant != nil {
		assistantService = assistant
	}
	if knowledge != nil {
		knowledgeService = knowledge
	}
	if settings != nil {
		settingsService = settings
	}

	return func() {
		assistantService = origAssistant
		knowledgeService = origKnowledge
		settingsService = origSettings
	}
}
