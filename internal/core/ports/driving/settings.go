package driving

import (
	"github.com/Qq88537794/Xingyun/internal/core/domain"
)

// SettingsService manages application settings.
type SettingsService interface {
	// Get retrieves current application settings, with defaults applied
	// for anything unset.
	Get() (*domain.AppSettings, error)

	// Save persists application settings.
	Save(settings *domain.AppSettings) error

	// SetLLMProvider configures the LLM provider. An empty model selects
	// the provider default.
	SetLLMProvider(provider domain.AIProvider, model, apiKey string) error

	// SetEmbeddingProvider configures the embedding provider. An empty
	// model selects the provider default.
	SetEmbeddingProvider(provider domain.AIProvider, model, apiKey string) error

	// SetVectorBackend configures the vector store backend. The location
	// is the data directory for sqlite or the server URL for qdrant.
	SetVectorBackend(backend domain.VectorBackend, location, apiKey string) error

	// Validate checks that the current settings are internally consistent.
	Validate() error
}
