package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Qq88537794/Xingyun/internal/adapters/driven/storage/memory"
	"github.com/Qq88537794/Xingyun/internal/core/domain"
)

func newTestSettingsService() (*SettingsService, *memory.ConfigStore) {
	store := memory.NewConfigStore()
	return NewSettingsService(store), store
}

func TestSettingsService_Get_ReturnsDefaults(t *testing.T) {
	svc, _ := newTestSettingsService()

	settings, err := svc.Get()

	require.NoError(t, err)
	defaults := domain.DefaultAppSettings()
	assert.Equal(t, defaults.Vector.Backend, settings.Vector.Backend)
	assert.Equal(t, defaults.Chunking.Strategy, settings.Chunking.Strategy)
	assert.Equal(t, defaults.Chunking.ChunkSize, settings.Chunking.ChunkSize)
	assert.Equal(t, defaults.Chunking.ChunkOverlap, settings.Chunking.ChunkOverlap)
	assert.Equal(t, defaults.Agent.MaxIterations, settings.Agent.MaxIterations)
	assert.False(t, settings.LLM.IsConfigured())
	assert.False(t, settings.Embedding.IsConfigured())
}

func TestSettingsService_Get_ReturnsStoredValues(t *testing.T) {
	svc, store := newTestSettingsService()
	_ = store.Set("llm.provider", "anthropic")
	_ = store.Set("llm.model", "claude-3-5-sonnet-latest")
	_ = store.Set("llm.api_key", "sk-ant-test")
	_ = store.Set("vector.backend", "qdrant")
	_ = store.Set("vector.url", "http://localhost:6333")
	_ = store.Set("agent.max_iterations", 5)

	settings, err := svc.Get()

	require.NoError(t, err)
	assert.Equal(t, domain.AIProviderAnthropic, settings.LLM.Provider)
	assert.Equal(t, "claude-3-5-sonnet-latest", settings.LLM.Model)
	assert.True(t, settings.LLM.IsConfigured())
	assert.Equal(t, domain.VectorBackendQdrant, settings.Vector.Backend)
	assert.Equal(t, "http://localhost:6333", settings.Vector.URL)
	assert.Equal(t, 5, settings.Agent.MaxIterations)
}

func TestSettingsService_Get_InvalidValuesReturnDefaults(t *testing.T) {
	svc, store := newTestSettingsService()
	_ = store.Set("vector.backend", "redis")
	_ = store.Set("chunking.strategy", "word_by_word")

	settings, err := svc.Get()

	require.NoError(t, err)
	defaults := domain.DefaultAppSettings()
	assert.Equal(t, defaults.Vector.Backend, settings.Vector.Backend)
	assert.Equal(t, defaults.Chunking.Strategy, settings.Chunking.Strategy)
}

func TestSettingsService_Get_ZeroOverlapIsKept(t *testing.T) {
	svc, store := newTestSettingsService()
	_ = store.Set("chunking.chunk_overlap", 0)

	settings, err := svc.Get()

	require.NoError(t, err)
	assert.Equal(t, 0, settings.Chunking.ChunkOverlap)
}

func TestSettingsService_SaveAndGetRoundTrip(t *testing.T) {
	svc, _ := newTestSettingsService()

	in := &domain.AppSettings{
		LLM: domain.LLMSettings{
			Provider: domain.AIProviderOpenAI,
			Model:    "gpt-4o-mini",
			APIKey:   "sk-test",
		},
		Embedding: domain.EmbeddingSettings{
			Provider:   domain.AIProviderOllama,
			Model:      "nomic-embed-text",
			BaseURL:    "http://localhost:11434",
			Dimensions: 768,
		},
		Vector: domain.VectorSettings{
			Backend: domain.VectorBackendSQLite,
			Path:    "/tmp/vectors",
		},
		Chunking: domain.ChunkingSettings{
			Strategy:     domain.StrategyMarkdown,
			ChunkSize:    800,
			ChunkOverlap: 100,
		},
		Agent: domain.AgentSettings{MaxIterations: 7},
	}
	require.NoError(t, svc.Save(in))

	out, err := svc.Get()
	require.NoError(t, err)
	assert.Equal(t, in.LLM, out.LLM)
	assert.Equal(t, in.Embedding, out.Embedding)
	assert.Equal(t, in.Vector, out.Vector)
	assert.Equal(t, in.Chunking, out.Chunking)
	assert.Equal(t, in.Agent, out.Agent)
}

func TestSettingsService_Save_KeepsStoredAPIKey(t *testing.T) {
	svc, store := newTestSettingsService()
	_ = store.Set("llm.api_key", "sk-original")

	settings, err := svc.Get()
	require.NoError(t, err)

	settings.LLM.APIKey = ""
	require.NoError(t, svc.Save(settings))

	assert.Equal(t, "sk-original", store.GetString("llm.api_key"))
}

func TestSettingsService_SetLLMProvider(t *testing.T) {
	t.Run("cloud provider with key", func(t *testing.T) {
		svc, _ := newTestSettingsService()

		require.NoError(t, svc.SetLLMProvider(domain.AIProviderAnthropic, "", "sk-ant"))

		settings, err := svc.Get()
		require.NoError(t, err)
		assert.Equal(t, domain.AIProviderAnthropic, settings.LLM.Provider)
		assert.Equal(t, "claude-3-5-sonnet-latest", settings.LLM.Model)
		assert.Empty(t, settings.LLM.BaseURL)
		assert.Equal(t, "sk-ant", settings.LLM.APIKey)
	})

	t.Run("local provider gets default base URL", func(t *testing.T) {
		svc, _ := newTestSettingsService()

		require.NoError(t, svc.SetLLMProvider(domain.AIProviderOllama, "llama3.2", ""))

		settings, err := svc.Get()
		require.NoError(t, err)
		assert.Equal(t, "http://localhost:11434", settings.LLM.BaseURL)
	})

	t.Run("cloud provider without key fails", func(t *testing.T) {
		svc, _ := newTestSettingsService()
		err := svc.SetLLMProvider(domain.AIProviderOpenAI, "", "")
		assert.ErrorContains(t, err, "API key required")
	})

	t.Run("invalid provider fails", func(t *testing.T) {
		svc, _ := newTestSettingsService()
		err := svc.SetLLMProvider("mystery", "", "key")
		assert.ErrorContains(t, err, "invalid LLM provider")
	})
}

func TestSettingsService_SetEmbeddingProvider(t *testing.T) {
	t.Run("sets provider and tracks dimensions", func(t *testing.T) {
		svc, _ := newTestSettingsService()

		require.NoError(t, svc.SetEmbeddingProvider(domain.AIProviderOpenAI, "", "sk-test"))

		settings, err := svc.Get()
		require.NoError(t, err)
		assert.Equal(t, "text-embedding-3-small", settings.Embedding.Model)
		assert.Equal(t, 1536, settings.Embedding.Dimensions)
	})

	t.Run("anthropic does not support embeddings", func(t *testing.T) {
		svc, _ := newTestSettingsService()
		err := svc.SetEmbeddingProvider(domain.AIProviderAnthropic, "", "sk-ant")
		assert.ErrorContains(t, err, "does not support embeddings")
	})
}

func TestSettingsService_SetVectorBackend(t *testing.T) {
	t.Run("sqlite stores path", func(t *testing.T) {
		svc, _ := newTestSettingsService()

		require.NoError(t, svc.SetVectorBackend(domain.VectorBackendSQLite, "/data/vectors", ""))

		settings, err := svc.Get()
		require.NoError(t, err)
		assert.Equal(t, domain.VectorBackendSQLite, settings.Vector.Backend)
		assert.Equal(t, "/data/vectors", settings.Vector.Path)
		assert.Empty(t, settings.Vector.URL)
	})

	t.Run("qdrant stores url and key", func(t *testing.T) {
		svc, _ := newTestSettingsService()

		require.NoError(t, svc.SetVectorBackend(domain.VectorBackendQdrant, "http://qdrant:6333", "secret"))

		settings, err := svc.Get()
		require.NoError(t, err)
		assert.Equal(t, "http://qdrant:6333", settings.Vector.URL)
		assert.Equal(t, "secret", settings.Vector.APIKey)
		assert.Empty(t, settings.Vector.Path)
	})

	t.Run("qdrant requires url", func(t *testing.T) {
		svc, _ := newTestSettingsService()
		err := svc.SetVectorBackend(domain.VectorBackendQdrant, "", "")
		assert.ErrorContains(t, err, "requires a server URL")
	})

	t.Run("unknown backend fails", func(t *testing.T) {
		svc, _ := newTestSettingsService()
		err := svc.SetVectorBackend("redis", "", "")
		assert.ErrorContains(t, err, "invalid vector backend")
	})
}

func TestSettingsService_Validate(t *testing.T) {
	t.Run("defaults are valid", func(t *testing.T) {
		svc, _ := newTestSettingsService()
		assert.NoError(t, svc.Validate())
	})

	t.Run("bad chunking is flagged", func(t *testing.T) {
		svc, store := newTestSettingsService()
		_ = store.Set("chunking.chunk_size", 100)
		_ = store.Set("chunking.chunk_overlap", 100)

		assert.ErrorContains(t, svc.Validate(), "chunking")
	})
}
