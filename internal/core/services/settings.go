package services

import (
	"fmt"

	"github.com/Qq88537794/Xingyun/internal/core/domain"
	"github.com/Qq88537794/Xingyun/internal/core/ports/driven"
	"github.com/Qq88537794/Xingyun/internal/core/ports/driving"
)

// Ensure SettingsService implements the interface.
var _ driving.SettingsService = (*SettingsService)(nil)

// Config keys for settings storage.
//
//nolint:gosec // G101: These are config key names, not actual credentials.
const (
	keyLLMProvider     = "llm.provider"
	keyLLMModel        = "llm.model"
	keyLLMBaseURL      = "llm.base_url"
	keyLLMAPIKey       = "llm.api_key"
	keyEmbedProvider   = "embedding.provider"
	keyEmbedModel      = "embedding.model"
	keyEmbedBaseURL    = "embedding.base_url"
	keyEmbedAPIKey     = "embedding.api_key"
	keyEmbedDimensions = "embedding.dimensions"
	keyVectorBackend   = "vector.backend"
	keyVectorPath      = "vector.path"
	keyVectorURL       = "vector.url"
	keyVectorAPIKey    = "vector.api_key"
	keyChunkStrategy   = "chunking.strategy"
	keyChunkSize       = "chunking.chunk_size"
	keyChunkOverlap    = "chunking.chunk_overlap"
	keyAgentMaxIter    = "agent.max_iterations"
)

// defaultOllamaURL is the base URL used when a local provider is
// selected without an explicit endpoint.
const defaultOllamaURL = "http://localhost:11434"

// SettingsService manages application settings on top of the config store.
type SettingsService struct {
	configStore driven.ConfigStore
}

// NewSettingsService creates a new settings service.
func NewSettingsService(configStore driven.ConfigStore) *SettingsService {
	return &SettingsService{configStore: configStore}
}

// Get retrieves current application settings.
func (s *SettingsService) Get() (*domain.AppSettings, error) {
	defaults := domain.DefaultAppSettings()

	settings := &domain.AppSettings{
		LLM: domain.LLMSettings{
			Provider: domain.AIProvider(s.configStore.GetString(keyLLMProvider)),
			Model:    s.configStore.GetString(keyLLMModel),
			BaseURL:  s.configStore.GetString(keyLLMBaseURL),
			APIKey:   s.configStore.GetString(keyLLMAPIKey),
		},
		Embedding: domain.EmbeddingSettings{
			Provider:   domain.AIProvider(s.configStore.GetString(keyEmbedProvider)),
			Model:      s.configStore.GetString(keyEmbedModel),
			BaseURL:    s.configStore.GetString(keyEmbedBaseURL),
			APIKey:     s.configStore.GetString(keyEmbedAPIKey),
			Dimensions: s.configStore.GetInt(keyEmbedDimensions),
		},
		Vector: domain.VectorSettings{
			Backend: s.getBackend(defaults.Vector.Backend),
			Path:    s.configStore.GetString(keyVectorPath),
			URL:     s.configStore.GetString(keyVectorURL),
			APIKey:  s.configStore.GetString(keyVectorAPIKey),
		},
		Chunking: domain.ChunkingSettings{
			Strategy:     s.getStrategy(defaults.Chunking.Strategy),
			ChunkSize:    s.getInt(keyChunkSize, defaults.Chunking.ChunkSize),
			ChunkOverlap: s.getOverlap(defaults.Chunking.ChunkOverlap),
		},
		Agent: domain.AgentSettings{
			MaxIterations: s.getInt(keyAgentMaxIter, defaults.Agent.MaxIterations),
		},
	}

	return settings, nil
}

// Save persists application settings.
func (s *SettingsService) Save(settings *domain.AppSettings) error {
	entries := []struct {
		key   string
		value any
	}{
		{keyLLMProvider, settings.LLM.Provider.String()},
		{keyLLMModel, settings.LLM.Model},
		{keyLLMBaseURL, settings.LLM.BaseURL},
		{keyEmbedProvider, settings.Embedding.Provider.String()},
		{keyEmbedModel, settings.Embedding.Model},
		{keyEmbedBaseURL, settings.Embedding.BaseURL},
		{keyEmbedDimensions, settings.Embedding.Dimensions},
		{keyVectorBackend, settings.Vector.Backend.String()},
		{keyVectorPath, settings.Vector.Path},
		{keyVectorURL, settings.Vector.URL},
		{keyChunkStrategy, settings.Chunking.Strategy.String()},
		{keyChunkSize, settings.Chunking.ChunkSize},
		{keyChunkOverlap, settings.Chunking.ChunkOverlap},
		{keyAgentMaxIter, settings.Agent.MaxIterations},
	}
	for _, e := range entries {
		if err := s.configStore.Set(e.key, e.value); err != nil {
			return fmt.Errorf("save %s: %w", e.key, err)
		}
	}

	// API keys are only written when set, so a partial update never
	// clears a stored credential.
	if settings.LLM.APIKey != "" {
		if err := s.configStore.Set(keyLLMAPIKey, settings.LLM.APIKey); err != nil {
			return fmt.Errorf("save %s: %w", keyLLMAPIKey, err)
		}
	}
	if settings.Embedding.APIKey != "" {
		if err := s.configStore.Set(keyEmbedAPIKey, settings.Embedding.APIKey); err != nil {
			return fmt.Errorf("save %s: %w", keyEmbedAPIKey, err)
		}
	}
	if settings.Vector.APIKey != "" {
		if err := s.configStore.Set(keyVectorAPIKey, settings.Vector.APIKey); err != nil {
			return fmt.Errorf("save %s: %w", keyVectorAPIKey, err)
		}
	}

	return nil
}

// SetLLMProvider configures the LLM provider.
func (s *SettingsService) SetLLMProvider(provider domain.AIProvider, model, apiKey string) error {
	if !provider.IsValid() {
		return fmt.Errorf("invalid LLM provider: %s", provider)
	}
	if provider.RequiresAPIKey() && apiKey == "" {
		return fmt.Errorf("API key required for %s", provider)
	}

	settings, err := s.Get()
	if err != nil {
		return err
	}

	settings.LLM.Provider = provider
	settings.LLM.Model = model
	if model == "" {
		settings.LLM.Model = domain.DefaultLLMModels()[provider]
	}
	if provider.IsLocal() {
		if settings.LLM.BaseURL == "" {
			settings.LLM.BaseURL = defaultOllamaURL
		}
	} else {
		settings.LLM.BaseURL = ""
	}
	settings.LLM.APIKey = apiKey

	return s.Save(settings)
}

// SetEmbeddingProvider configures the embedding provider.
func (s *SettingsService) SetEmbeddingProvider(provider domain.AIProvider, model, apiKey string) error {
	if !provider.IsValid() {
		return fmt.Errorf("invalid embedding provider: %s", provider)
	}

	supported := false
	for _, p := range domain.AllEmbeddingProviders() {
		if p == provider {
			supported = true
			break
		}
	}
	if !supported {
		return fmt.Errorf("provider %s does not support embeddings", provider)
	}
	if provider.RequiresAPIKey() && apiKey == "" {
		return fmt.Errorf("API key required for %s", provider)
	}

	settings, err := s.Get()
	if err != nil {
		return err
	}

	settings.Embedding.Provider = provider
	settings.Embedding.Model = model
	if model == "" {
		settings.Embedding.Model = domain.DefaultEmbeddingModels()[provider]
	}
	if provider.IsLocal() {
		if settings.Embedding.BaseURL == "" {
			settings.Embedding.BaseURL = defaultOllamaURL
		}
	} else {
		settings.Embedding.BaseURL = ""
	}
	settings.Embedding.APIKey = apiKey

	// Track the model's vector size so the stores allocate correctly.
	if d, ok := domain.EmbeddingDimensions()[settings.Embedding.Model]; ok {
		settings.Embedding.Dimensions = d
	}

	return s.Save(settings)
}

// SetVectorBackend configures the vector store backend.
func (s *SettingsService) SetVectorBackend(backend domain.VectorBackend, location, apiKey string) error {
	if !backend.IsValid() {
		return fmt.Errorf("invalid vector backend: %s", backend)
	}
	if backend == domain.VectorBackendQdrant && location == "" {
		return fmt.Errorf("qdrant backend requires a server URL")
	}

	settings, err := s.Get()
	if err != nil {
		return err
	}

	settings.Vector.Backend = backend
	switch backend {
	case domain.VectorBackendSQLite:
		settings.Vector.Path = location
		settings.Vector.URL = ""
	case domain.VectorBackendQdrant:
		settings.Vector.URL = location
		settings.Vector.Path = ""
	default:
		settings.Vector.Path = ""
		settings.Vector.URL = ""
	}
	settings.Vector.APIKey = apiKey

	return s.Save(settings)
}

// Validate checks that the current settings are internally consistent.
func (s *SettingsService) Validate() error {
	settings, err := s.Get()
	if err != nil {
		return err
	}

	if !settings.Vector.IsConfigured() {
		return fmt.Errorf("vector store is not fully configured (backend %q)", settings.Vector.Backend)
	}
	if err := settings.Chunking.Validate(); err != nil {
		return fmt.Errorf("chunking settings: %w", err)
	}
	if settings.Agent.MaxIterations <= 0 {
		return fmt.Errorf("agent max iterations must be positive, got %d", settings.Agent.MaxIterations)
	}

	return nil
}

// Helper methods for reading config with defaults.

func (s *SettingsService) getInt(key string, defaultVal int) int {
	val := s.configStore.GetInt(key)
	if val == 0 {
		return defaultVal
	}
	return val
}

// getOverlap is getInt with zero allowed: an explicit zero overlap is a
// valid setting, so only a missing key falls back to the default.
func (s *SettingsService) getOverlap(defaultVal int) int {
	if _, exists := s.configStore.Get(keyChunkOverlap); !exists {
		return defaultVal
	}
	return s.configStore.GetInt(keyChunkOverlap)
}

func (s *SettingsService) getBackend(defaultVal domain.VectorBackend) domain.VectorBackend {
	val := s.configStore.GetString(keyVectorBackend)
	if val == "" {
		return defaultVal
	}
	backend := domain.VectorBackend(val)
	if !backend.IsValid() {
		return defaultVal
	}
	return backend
}

func (s *SettingsService) getStrategy(defaultVal domain.ChunkingStrategy) domain.ChunkingStrategy {
	val := s.configStore.GetString(keyChunkStrategy)
	if val == "" {
		return defaultVal
	}
	strategy := domain.ChunkingStrategy(val)
	if !strategy.IsValid() {
		return defaultVal
	}
	return strategy
}
