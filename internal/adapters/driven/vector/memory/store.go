// Package memory provides an in-memory vector store for tests and
// zero-dependency setups. Points are held per collection and searched
// by brute-force cosine similarity.
package memory

import (
	"context"
	"math"
	"sort"
	"sync"

	"github.com/Qq88537794/Xingyun/internal/core/domain"
	"github.com/Qq88537794/Xingyun/internal/core/ports/driven"
)

// Ensure Store implements the interface.
var _ driven.VectorStore = (*Store)(nil)

// Store is an in-memory vector store. Safe for concurrent use.
type Store struct {
	mu          sync.RWMutex
	collections map[string][]storedPoint
	nextSeq     int64
}

// storedPoint is a point plus its insertion sequence number. The
// sequence breaks score ties so query order is deterministic.
type storedPoint struct {
	point driven.VectorPoint
	seq   int64
}

// NewStore creates an empty in-memory vector store.
func NewStore() *Store {
	return &Store{
		collections: make(map[string][]storedPoint),
	}
}

// Upsert inserts or replaces points, creating the collection if needed.
// A replaced point keeps its original insertion order.
func (s *Store) Upsert(_ context.Context, collection string, points []driven.VectorPoint) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing := s.collections[collection]
	for _, p := range points {
		replaced := false
		for i := range existing {
			if existing[i].point.ID == p.ID {
				existing[i].point = p
				replaced = true
				break
			}
		}
		if !replaced {
			s.nextSeq++
			existing = append(existing, storedPoint{point: p, seq: s.nextSeq})
		}
	}
	s.collections[collection] = existing
	return nil
}

// Query returns up to topK results by cosine similarity descending.
// A missing collection yields an empty result set.
func (s *Store) Query(_ context.Context, collection string, vector []float32, topK int) ([]domain.RetrievalResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	points, ok := s.collections[collection]
	if !ok || topK <= 0 {
		return []domain.RetrievalResult{}, nil
	}

	type scored struct {
		point driven.VectorPoint
		score float64
		seq   int64
	}
	candidates := make([]scored, 0, len(points))
	for _, sp := range points {
		candidates = append(candidates, scored{
			point: sp.point,
			score: cosineSimilarity(vector, sp.point.Vector),
			seq:   sp.seq,
		})
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		if candidates[i].score != candidates[j].score {
			return candidates[i].score > candidates[j].score
		}
		return candidates[i].seq < candidates[j].seq
	})

	if len(candidates) > topK {
		candidates = candidates[:topK]
	}

	results := make([]domain.RetrievalResult, len(candidates))
	for i, c := range candidates {
		results[i] = toResult(c.point, c.score)
	}
	return results, nil
}

// DeleteByResource removes every point tagged with the resource id.
// Unknown resources and collections are no-ops.
func (s *Store) DeleteByResource(_ context.Context, collection string, resourceID int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	points, ok := s.collections[collection]
	if !ok {
		return nil
	}

	kept := points[:0]
	for _, sp := range points {
		if sp.point.Payload.ResourceID != resourceID {
			kept = append(kept, sp)
		}
	}
	s.collections[collection] = kept
	return nil
}

// CollectionExists reports whether the collection has been created.
func (s *Store) CollectionExists(_ context.Context, collection string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	_, ok := s.collections[collection]
	return ok, nil
}

// Close releases resources.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.collections = make(map[string][]storedPoint)
	return nil
}

// toResult converts a stored point and score to a retrieval result.
// Scores are clamped to [0, 1] so downstream thresholds stay simple.
func toResult(p driven.VectorPoint, score float64) domain.RetrievalResult {
	if score < 0 {
		score = 0
	}
	if score > 1 {
		score = 1
	}
	return domain.RetrievalResult{
		Text:       p.Payload.Text,
		Score:      score,
		ResourceID: p.Payload.ResourceID,
		Metadata: map[string]any{
			"project_id":  p.Payload.ProjectID,
			"filename":    p.Payload.Filename,
			"chunk_index": p.Payload.ChunkIndex,
		},
	}
}

// cosineSimilarity computes the cosine of the angle between two vectors.
// Mismatched lengths or zero vectors score 0.
func cosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
