package driven

import (
	"context"

	"github.com/Qq88537794/Xingyun/internal/core/domain"
)

// VectorStore persists (vector, text, metadata) tuples per collection and
// answers nearest-neighbour queries by cosine similarity.
//
// Each project owns exactly one collection, created lazily on first upsert.
// Resource deletion is atomic with respect to concurrent queries: a query
// observes either all of a resource's chunks or none of them.
type VectorStore interface {
	// Upsert inserts or replaces the given points in the collection,
	// creating the collection if it does not exist.
	Upsert(ctx context.Context, collection string, points []VectorPoint) error

	// Query returns up to topK results ranked by cosine similarity
	// descending, ties broken by insertion order. A missing collection
	// yields an empty result set, not an error.
	Query(ctx context.Context, collection string, vector []float32, topK int) ([]domain.RetrievalResult, error)

	// DeleteByResource removes every point tagged with the resource id.
	// Deleting an unknown resource is a no-op.
	DeleteByResource(ctx context.Context, collection string, resourceID int) error

	// CollectionExists reports whether the collection has been created.
	CollectionExists(ctx context.Context, collection string) (bool, error)

	// Close releases resources.
	Close() error
}

// VectorPoint is one stored vector with its payload.
type VectorPoint struct {
	// ID is the unique point identifier.
	ID string

	// Vector is the embedding.
	Vector []float32

	// Payload is the chunk text and provenance stored alongside the vector.
	Payload ChunkPayload
}

// ChunkPayload is the text and provenance stored with a vector.
type ChunkPayload struct {
	// Text is the chunk content.
	Text string

	// ResourceID identifies the source resource.
	ResourceID int

	// ProjectID identifies the owning project.
	ProjectID int

	// Filename is the source file's display name.
	Filename string

	// ChunkIndex is the chunk's ordinal position within the resource.
	ChunkIndex int
}
