package driving

import (
	"context"

	"github.com/Qq88537794/Xingyun/internal/core/domain"
)

// KnowledgeService manages per-project knowledge bases: indexing resources
// into vector collections and retrieving relevant chunks for a query.
type KnowledgeService interface {
	// IndexResource chunks, embeds, and stores the text for a resource.
	// Re-indexing an existing resource replaces its chunks. Returns the
	// number of chunks indexed.
	IndexResource(ctx context.Context, projectID, resourceID int, text, filename string) (int, error)

	// RemoveResource deletes all chunks for a resource. Removing a
	// resource that was never indexed is a no-op.
	RemoveResource(ctx context.Context, projectID, resourceID int) error

	// Search returns up to topK chunks relevant to the query, ranked by
	// similarity. A project with no knowledge base yields an empty slice.
	Search(ctx context.Context, projectID int, query string, topK int) ([]domain.RetrievalResult, error)

	// HasKnowledgeBase reports whether the project has an indexed collection.
	HasKnowledgeBase(ctx context.Context, projectID int) bool

	// BuildContext formats retrieval results into a context block suitable
	// for inclusion in a system prompt.
	BuildContext(results []domain.RetrievalResult) string
}
