package domain

const unknownDescription = "Unknown"

// AIProvider identifies an AI service provider for embeddings or LLM.
type AIProvider string

// Available AI providers.
const (
	// AIProviderOllama is a local Ollama instance.
	AIProviderOllama AIProvider = "ollama"

	// AIProviderOpenAI is the OpenAI cloud API.
	AIProviderOpenAI AIProvider = "openai"

	// AIProviderAnthropic is the Anthropic cloud API.
	AIProviderAnthropic AIProvider = "anthropic"
)

// IsValid returns true if the AI provider is recognised.
func (p AIProvider) IsValid() bool {
	switch p {
	case AIProviderOllama, AIProviderOpenAI, AIProviderAnthropic:
		return true
	default:
		return false
	}
}

// RequiresAPIKey returns true if this provider needs an API key.
func (p AIProvider) RequiresAPIKey() bool {
	return p == AIProviderOpenAI || p == AIProviderAnthropic
}

// IsLocal returns true if this provider runs locally.
func (p AIProvider) IsLocal() bool {
	return p == AIProviderOllama
}

// String returns the string representation.
func (p AIProvider) String() string {
	return string(p)
}

// Description returns a human-readable description of the provider.
func (p AIProvider) Description() string {
	switch p {
	case AIProviderOllama:
		return "Ollama (local)"
	case AIProviderOpenAI:
		return "OpenAI (cloud)"
	case AIProviderAnthropic:
		return "Anthropic (cloud)"
	default:
		return unknownDescription
	}
}

// VectorBackend identifies a vector store implementation.
type VectorBackend string

// Available vector backends.
const (
	// VectorBackendMemory keeps vectors in process memory (tests, dev).
	VectorBackendMemory VectorBackend = "memory"

	// VectorBackendSQLite persists vectors in a local SQLite database.
	VectorBackendSQLite VectorBackend = "sqlite"

	// VectorBackendQdrant talks to a Qdrant server over HTTP.
	VectorBackendQdrant VectorBackend = "qdrant"
)

// IsValid returns true if the vector backend is recognised.
func (b VectorBackend) IsValid() bool {
	switch b {
	case VectorBackendMemory, VectorBackendSQLite, VectorBackendQdrant:
		return true
	default:
		return false
	}
}

// String returns the string representation.
func (b VectorBackend) String() string {
	return string(b)
}

// Description returns a human-readable description of the backend.
func (b VectorBackend) Description() string {
	switch b {
	case VectorBackendMemory:
		return "In-memory (no persistence)"
	case VectorBackendSQLite:
		return "SQLite (local file)"
	case VectorBackendQdrant:
		return "Qdrant (server)"
	default:
		return unknownDescription
	}
}

// AllLLMProviders returns the providers usable for chat, in menu order.
func AllLLMProviders() []AIProvider {
	return []AIProvider{AIProviderOllama, AIProviderOpenAI, AIProviderAnthropic}
}

// AllEmbeddingProviders returns the providers usable for embeddings, in
// menu order. Anthropic offers no embedding API.
func AllEmbeddingProviders() []AIProvider {
	return []AIProvider{AIProviderOllama, AIProviderOpenAI}
}

// AllVectorBackends returns the vector backends, in menu order.
func AllVectorBackends() []VectorBackend {
	return []VectorBackend{VectorBackendMemory, VectorBackendSQLite, VectorBackendQdrant}
}

// DefaultLLMModels maps each provider to its default chat model.
func DefaultLLMModels() map[AIProvider]string {
	return map[AIProvider]string{
		AIProviderOllama:    "llama3.2",
		AIProviderOpenAI:    "gpt-4o-mini",
		AIProviderAnthropic: "claude-3-5-sonnet-latest",
	}
}

// DefaultEmbeddingModels maps each provider to its default embedding model.
func DefaultEmbeddingModels() map[AIProvider]string {
	return map[AIProvider]string{
		AIProviderOllama: "nomic-embed-text",
		AIProviderOpenAI: "text-embedding-3-small",
	}
}

// LLMSettings holds LLM provider configuration.
type LLMSettings struct {
	// Provider selects the LLM backend.
	Provider AIProvider

	// APIKey authenticates cloud providers. Unused for Ollama.
	APIKey string

	// BaseURL overrides the provider's default endpoint.
	BaseURL string

	// Model is the model identifier (provider default when empty).
	Model string
}

// IsConfigured returns true if enough is set to construct the service.
func (s *LLMSettings) IsConfigured() bool {
	if s == nil || !s.Provider.IsValid() {
		return false
	}
	if s.Provider.RequiresAPIKey() && s.APIKey == "" {
		return false
	}
	return true
}

// EmbeddingSettings holds embedding provider configuration.
type EmbeddingSettings struct {
	// Provider selects the embedding backend.
	Provider AIProvider

	// APIKey authenticates cloud providers. Unused for Ollama.
	APIKey string

	// BaseURL overrides the provider's default endpoint.
	BaseURL string

	// Model is the embedding model identifier.
	Model string

	// Dimensions is the vector size; model default when zero.
	Dimensions int
}

// IsConfigured returns true if enough is set to construct the service.
func (s *EmbeddingSettings) IsConfigured() bool {
	if s == nil || !s.Provider.IsValid() {
		return false
	}
	if s.Provider.RequiresAPIKey() && s.APIKey == "" {
		return false
	}
	return true
}

// EmbeddingDimensions maps known embedding models to their vector sizes.
// Models not listed fall back to the adapter's default.
func EmbeddingDimensions() map[string]int {
	return map[string]int{
		"bge-small-zh-v1.5":      512,
		"bge-base-zh-v1.5":       768,
		"bge-large-zh-v1.5":      1024,
		"nomic-embed-text":       768,
		"all-minilm":             384,
		"text-embedding-3-small": 1536,
		"text-embedding-3-large": 3072,
	}
}

// VectorSettings holds vector store configuration.
type VectorSettings struct {
	// Backend selects the vector store implementation.
	Backend VectorBackend

	// Path is the data directory for the SQLite backend.
	Path string

	// URL is the server address for the Qdrant backend.
	URL string

	// APIKey authenticates the Qdrant backend, when required.
	APIKey string
}

// IsConfigured returns true if enough is set to construct the store.
func (s *VectorSettings) IsConfigured() bool {
	if s == nil || !s.Backend.IsValid() {
		return false
	}
	if s.Backend == VectorBackendQdrant && s.URL == "" {
		return false
	}
	return true
}

// ChunkingSettings holds chunker configuration.
type ChunkingSettings struct {
	// Strategy selects how split points are chosen.
	Strategy ChunkingStrategy

	// ChunkSize is the target chunk length in runes.
	ChunkSize int

	// ChunkOverlap is the overlap between adjacent chunks in runes.
	ChunkOverlap int
}

// Validate checks the size/overlap combination.
func (s *ChunkingSettings) Validate() error {
	if s.ChunkSize <= 0 {
		return ErrInvalidChunking
	}
	if s.ChunkOverlap < 0 || s.ChunkOverlap >= s.ChunkSize {
		return ErrInvalidChunking
	}
	return nil
}

// AppSettings aggregates all configurable application settings.
type AppSettings struct {
	LLM       LLMSettings
	Embedding EmbeddingSettings
	Vector    VectorSettings
	Chunking  ChunkingSettings
	Agent     AgentSettings
}

// DefaultAppSettings returns the settings used before any configuration.
// No AI provider is selected; vectors stay in memory.
func DefaultAppSettings() AppSettings {
	return AppSettings{
		Vector: VectorSettings{
			Backend: VectorBackendMemory,
		},
		Chunking: ChunkingSettings{
			Strategy:     StrategyFixedSize,
			ChunkSize:    1000,
			ChunkOverlap: 200,
		},
		Agent: AgentSettings{
			MaxIterations: DefaultMaxIterations,
		},
	}
}

// AgentSettings holds agent loop configuration.
type AgentSettings struct {
	// MaxIterations bounds the model-call loop. Defaults to 10.
	MaxIterations int
}

// DefaultMaxIterations is the agent loop bound when not configured.
const DefaultMaxIterations = 10

// EffectiveMaxIterations returns the configured bound or the default.
func (s *AgentSettings) EffectiveMaxIterations() int {
	if s == nil || s.MaxIterations <= 0 {
		return DefaultMaxIterations
	}
	return s.MaxIterations
}
