package services

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/Qq88537794/Xingyun/internal/chunker"
	"github.com/Qq88537794/Xingyun/internal/core/domain"
	"github.com/Qq88537794/Xingyun/internal/core/ports/driven"
	"github.com/Qq88537794/Xingyun/internal/core/ports/driving"
	"github.com/Qq88537794/Xingyun/internal/logger"
)

// Ensure KnowledgeService implements the interface.
var _ driving.KnowledgeService = (*KnowledgeService)(nil)

// DefaultTopK is the result count for knowledge-base searches when the
// caller passes no limit.
const DefaultTopK = 5

// hybridCandidateFactor widens the vector query so keyword fusion and
// reranking have candidates beyond the final topK to reorder.
const hybridCandidateFactor = 2

// KnowledgeService manages per-project knowledge bases: chunking and
// embedding resource text into a vector store, and answering similarity
// queries. Each project owns one collection, created lazily on first index.
//
// Search is hybrid: cosine similarity fused with an in-memory BM25
// keyword index that is maintained alongside the vector store, followed
// by rule-based reranking.
type KnowledgeService struct {
	embedder driven.EmbeddingService
	vectors  driven.VectorStore
	chunker  *chunker.Chunker

	mu       sync.Mutex
	keywords map[string]*keywordIndex
}

// NewKnowledgeService creates a new knowledge service.
// The embedder and vector store are required; a nil chunker falls back
// to default chunking settings.
func NewKnowledgeService(
	embedder driven.EmbeddingService,
	vectors driven.VectorStore,
	chk *chunker.Chunker,
) (*KnowledgeService, error) {
	if chk == nil {
		var err error
		chk, err = chunker.New()
		if err != nil {
			return nil, err
		}
	}
	return &KnowledgeService{
		embedder: embedder,
		vectors:  vectors,
		chunker:  chk,
		keywords: make(map[string]*keywordIndex),
	}, nil
}

// IndexResource chunks and embeds the text, then stores the vectors in
// the project's collection. Re-indexing a resource replaces its previous
// chunks. Indexing is all-or-nothing: a failed upsert rolls back any
// chunks written for the resource. Returns the number of chunks indexed.
func (s *KnowledgeService) IndexResource(
	ctx context.Context, projectID, resourceID int, text, filename string,
) (int, error) {
	if s.embedder == nil {
		return 0, domain.ErrEmbeddingUnavailable
	}
	if s.vectors == nil {
		return 0, domain.ErrVectorStoreUnavailable
	}

	logger.Section("Knowledge Base Indexing")
	logger.Debug("Project %d, resource %d (%s)", projectID, resourceID, filename)

	collection := collectionName(projectID)

	// Drop any chunks from a previous version of this resource.
	if err := s.vectors.DeleteByResource(ctx, collection, resourceID); err != nil {
		return 0, fmt.Errorf("clearing previous chunks: %w", err)
	}
	s.dropKeywords(collection, resourceID)

	chunks := s.chunker.Chunk(text)
	if len(chunks) == 0 {
		logger.Debug("No content to index")
		return 0, nil
	}
	logger.Debug("Split into %d chunks", len(chunks))

	texts := make([]string, len(chunks))
	for i, c := range chunks {
		texts[i] = c.Content
	}

	embeddings, err := s.embedder.EmbedBatch(ctx, texts)
	if err != nil {
		return 0, fmt.Errorf("embedding %d chunks: %w", len(chunks), err)
	}
	if len(embeddings) != len(chunks) {
		return 0, fmt.Errorf("embedding count mismatch: %d vectors for %d chunks",
			len(embeddings), len(chunks))
	}

	points := make([]driven.VectorPoint, len(chunks))
	for i, c := range chunks {
		points[i] = driven.VectorPoint{
			ID:     c.ID,
			Vector: embeddings[i],
			Payload: driven.ChunkPayload{
				Text:       c.Content,
				ResourceID: resourceID,
				ProjectID:  projectID,
				Filename:   filename,
				ChunkIndex: c.Index,
			},
		}
	}

	if err := s.vectors.Upsert(ctx, collection, points); err != nil {
		// Roll back any partially written chunks so the resource is
		// either fully indexed or absent.
		if rbErr := s.vectors.DeleteByResource(ctx, collection, resourceID); rbErr != nil {
			logger.Warn("Rollback of resource %d failed: %v", resourceID, rbErr)
		}
		return 0, fmt.Errorf("storing %d chunks: %w", len(points), err)
	}
	s.addKeywords(collection, points)

	logger.Info("Indexed resource %d: %d chunks", resourceID, len(points))
	return len(points), nil
}

// RemoveResource deletes all chunks of the resource from the project's
// collection. Removing an unknown resource or project is a no-op.
func (s *KnowledgeService) RemoveResource(ctx context.Context, projectID, resourceID int) error {
	if s.vectors == nil {
		return domain.ErrVectorStoreUnavailable
	}

	exists, err := s.vectors.CollectionExists(ctx, collectionName(projectID))
	if err != nil {
		return fmt.Errorf("checking knowledge base: %w", err)
	}
	if !exists {
		return nil
	}

	if err := s.vectors.DeleteByResource(ctx, collectionName(projectID), resourceID); err != nil {
		return fmt.Errorf("removing resource %d: %w", resourceID, err)
	}
	s.dropKeywords(collectionName(projectID), resourceID)
	logger.Debug("Removed resource %d from project %d", resourceID, projectID)
	return nil
}

// Search embeds the query, fuses cosine similarity with BM25 keyword
// scores, reranks, and returns the topK best chunks. A project with no
// knowledge base yields an empty result set, not an error. topK
// defaults to DefaultTopK when not positive.
func (s *KnowledgeService) Search(
	ctx context.Context, projectID int, query string, topK int,
) ([]domain.RetrievalResult, error) {
	if s.embedder == nil {
		return nil, domain.ErrEmbeddingUnavailable
	}
	if s.vectors == nil {
		return nil, domain.ErrVectorStoreUnavailable
	}

	query = strings.TrimSpace(query)
	if query == "" {
		return []domain.RetrievalResult{}, nil
	}
	if topK <= 0 {
		topK = DefaultTopK
	}
	candidates := topK * hybridCandidateFactor

	vector, err := s.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embedding query: %w", err)
	}

	collection := collectionName(projectID)
	vecResults, err := s.vectors.Query(ctx, collection, vector, candidates)
	if err != nil {
		return nil, fmt.Errorf("querying knowledge base: %w", err)
	}

	results := rerank(query, fuseHybrid(vecResults, s.searchKeywords(collection, query, candidates)))
	if len(results) > topK {
		results = results[:topK]
	}
	logger.Debug("Knowledge search for project %d: %d results", projectID, len(results))
	return results, nil
}

// addKeywords indexes the points' text in the collection's BM25 index.
func (s *KnowledgeService) addKeywords(collection string, points []driven.VectorPoint) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ix, ok := s.keywords[collection]
	if !ok {
		ix = newKeywordIndex()
		s.keywords[collection] = ix
	}
	for _, p := range points {
		ix.add(p.ID, p.Payload)
	}
}

// dropKeywords removes the resource's chunks from the BM25 index.
func (s *KnowledgeService) dropKeywords(collection string, resourceID int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if ix, ok := s.keywords[collection]; ok {
		ix.removeResource(resourceID)
	}
}

// searchKeywords runs a BM25 search over the collection's index. An
// unindexed collection (including after a restart, before any
// re-indexing) yields no hits and search degrades to vector-only.
func (s *KnowledgeService) searchKeywords(collection, query string, topK int) []keywordHit {
	s.mu.Lock()
	defer s.mu.Unlock()

	ix, ok := s.keywords[collection]
	if !ok {
		return nil
	}
	return ix.search(query, topK)
}

// HasKnowledgeBase reports whether the project has an indexed collection.
func (s *KnowledgeService) HasKnowledgeBase(ctx context.Context, projectID int) bool {
	if s.vectors == nil {
		return false
	}
	exists, err := s.vectors.CollectionExists(ctx, collectionName(projectID))
	if err != nil {
		logger.Warn("Knowledge base check failed for project %d: %v", projectID, err)
		return false
	}
	return exists
}

// BuildContext renders retrieval results as a context block for a
// system prompt. Empty results yield an empty string.
func (s *KnowledgeService) BuildContext(results []domain.RetrievalResult) string {
	if len(results) == 0 {
		return ""
	}

	var b strings.Builder
	for i, r := range results {
		if i > 0 {
			b.WriteString("\n\n")
		}
		filename, _ := r.Metadata["filename"].(string)
		if filename != "" {
			fmt.Fprintf(&b, "[%d] %s\n%s", i+1, filename, r.Text)
		} else {
			fmt.Fprintf(&b, "[%d]\n%s", i+1, r.Text)
		}
	}
	return b.String()
}

// collectionName returns the vector collection for a project.
func collectionName(projectID int) string {
	return fmt.Sprintf("project_%d", projectID)
}
