package driven

import "context"

// EmbeddingService generates vector embeddings from text.
// This is an optional service - when nil, the knowledge base is disabled.
//
// Note: This is separate from VectorStore which stores and searches vectors.
// EmbeddingService generates vectors; VectorStore stores them.
//
// Implementations may include:
//   - Ollama (bge-small-zh-v1.5, nomic-embed-text, all-minilm)
//   - OpenAI (text-embedding-3-small, text-embedding-3-large)
type EmbeddingService interface {
	// Embed generates a vector embedding for the given text.
	Embed(ctx context.Context, text string) ([]float32, error)

	// EmbedBatch generates embeddings for multiple texts efficiently.
	// Embedding a text alone or as part of a batch yields the same vector
	// up to floating-point tolerance.
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)

	// Dimensions returns the embedding vector size (e.g., 512, 768, 1536).
	// This is determined by the model and must match the VectorStore
	// collection configuration.
	Dimensions() int

	// ModelName returns the name of the embedding model being used.
	ModelName() string

	// Ping validates the service is reachable by making a lightweight test request.
	// This is used at startup to verify connectivity before committing to
	// knowledge-base features.
	Ping(ctx context.Context) error

	// Close releases resources.
	Close() error
}
