package domain

import "errors"

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput indicates malformed or invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrInvalidChunking indicates an invalid chunk size / overlap combination.
	// This is a configuration error and is never retried.
	ErrInvalidChunking = errors.New("invalid chunking configuration")

	// ErrLLMUnavailable indicates the LLM service is not configured or unreachable.
	// Chat (both simple and agent mode) is disabled without it.
	ErrLLMUnavailable = errors.New("LLM service unavailable")

	// ErrEmbeddingUnavailable indicates the embedding service is not configured.
	// Knowledge-base indexing and retrieval are disabled without embeddings.
	ErrEmbeddingUnavailable = errors.New("embedding service unavailable")

	// ErrVectorStoreUnavailable indicates the vector store is not configured.
	// Knowledge-base indexing and retrieval are disabled without it.
	ErrVectorStoreUnavailable = errors.New("vector store unavailable")

	// ErrMaxIterations indicates the agent loop hit its iteration limit.
	// The partial result is still returned alongside this error condition.
	ErrMaxIterations = errors.New("maximum agent iterations exceeded")
)
