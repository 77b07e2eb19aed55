package services

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"unicode"

	"github.com/Qq88537794/Xingyun/internal/core/domain"
	"github.com/Qq88537794/Xingyun/internal/core/ports/driven"
)

// BM25 parameters and hybrid fusion weights. Vector similarity carries
// most of the ranking; keyword matching pulls up chunks whose exact
// terms the embedding missed.
const (
	bm25K1     = 1.5
	bm25B      = 0.75
	bm25MinIDF = 0.25

	vectorWeight  = 0.7
	keywordWeight = 0.3
)

// keywordDoc is one indexed chunk in the keyword index.
type keywordDoc struct {
	payload  driven.ChunkPayload
	length   int
	termFreq map[string]int
	order    int
}

// keywordHit is a scored BM25 match.
type keywordHit struct {
	id      string
	payload driven.ChunkPayload
	score   float64
	order   int
}

// keywordIndex is an in-memory BM25 index over one collection's chunks,
// maintained alongside the vector store. The index is rebuilt as
// resources are indexed, so after a restart it starts empty and hybrid
// search degrades to vector-only until resources are re-indexed.
//
// Not safe for concurrent use; the knowledge service serialises access.
type keywordIndex struct {
	docs      map[string]*keywordDoc
	docFreq   map[string]int
	totalLen  int
	nextOrder int
}

func newKeywordIndex() *keywordIndex {
	return &keywordIndex{
		docs:    make(map[string]*keywordDoc),
		docFreq: make(map[string]int),
	}
}

// add indexes a chunk under the given id, replacing any previous entry.
func (ix *keywordIndex) add(id string, payload driven.ChunkPayload) {
	if old, ok := ix.docs[id]; ok {
		ix.removeDoc(id, old)
	}

	tokens := tokenize(payload.Text)
	termFreq := make(map[string]int, len(tokens))
	for _, t := range tokens {
		termFreq[t]++
	}

	doc := &keywordDoc{
		payload:  payload,
		length:   len(tokens),
		termFreq: termFreq,
		order:    ix.nextOrder,
	}
	ix.nextOrder++
	ix.docs[id] = doc
	ix.totalLen += doc.length
	for term := range termFreq {
		ix.docFreq[term]++
	}
}

// removeResource drops every chunk of the resource from the index.
func (ix *keywordIndex) removeResource(resourceID int) {
	for id, doc := range ix.docs {
		if doc.payload.ResourceID == resourceID {
			ix.removeDoc(id, doc)
		}
	}
}

func (ix *keywordIndex) removeDoc(id string, doc *keywordDoc) {
	delete(ix.docs, id)
	ix.totalLen -= doc.length
	for term := range doc.termFreq {
		ix.docFreq[term]--
		if ix.docFreq[term] <= 0 {
			delete(ix.docFreq, term)
		}
	}
}

// idf is the BM25 inverse document frequency, floored at bm25MinIDF so
// very common terms still contribute a little.
func (ix *keywordIndex) idf(term string) float64 {
	df := ix.docFreq[term]
	n := len(ix.docs)
	if df == 0 || n == 0 {
		return 0
	}
	v := math.Log((float64(n)-float64(df)+0.5)/(float64(df)+0.5) + 1)
	if v < bm25MinIDF {
		return bm25MinIDF
	}
	return v
}

// search scores every indexed chunk against the query with BM25 and
// returns up to topK hits, best first. Ties keep insertion order.
func (ix *keywordIndex) search(query string, topK int) []keywordHit {
	terms := tokenize(query)
	if len(terms) == 0 || len(ix.docs) == 0 || topK <= 0 {
		return nil
	}
	avgLen := float64(ix.totalLen) / float64(len(ix.docs))
	if avgLen == 0 {
		return nil
	}

	var hits []keywordHit
	for id, doc := range ix.docs {
		var score float64
		for _, term := range terms {
			tf := doc.termFreq[term]
			if tf == 0 {
				continue
			}
			numerator := float64(tf) * (bm25K1 + 1)
			denominator := float64(tf) + bm25K1*(1-bm25B+bm25B*float64(doc.length)/avgLen)
			score += ix.idf(term) * numerator / denominator
		}
		if score > 0 {
			hits = append(hits, keywordHit{id: id, payload: doc.payload, score: score, order: doc.order})
		}
	}

	sort.SliceStable(hits, func(i, j int) bool {
		if hits[i].score != hits[j].score {
			return hits[i].score > hits[j].score
		}
		return hits[i].order < hits[j].order
	})
	if len(hits) > topK {
		hits = hits[:topK]
	}
	return hits
}

// fuseHybrid merges vector results with keyword hits into one candidate
// list. Each side's scores are normalised by that side's maximum, then
// combined with the hybrid weights; a chunk found by both paths gets
// both contributions. Without keyword hits the vector results pass
// through with their raw similarity scores.
func fuseHybrid(vecResults []domain.RetrievalResult, kwHits []keywordHit) []domain.RetrievalResult {
	if len(kwHits) == 0 {
		out := make([]domain.RetrievalResult, len(vecResults))
		copy(out, vecResults)
		return out
	}

	var maxVec float64
	for _, r := range vecResults {
		if r.Score > maxVec {
			maxVec = r.Score
		}
	}
	var maxKw float64
	for _, h := range kwHits {
		if h.score > maxKw {
			maxKw = h.score
		}
	}

	merged := make([]domain.RetrievalResult, len(vecResults))
	index := make(map[string]int, len(vecResults))
	for i, r := range vecResults {
		merged[i] = r
		merged[i].Score = 0
		if maxVec > 0 {
			merged[i].Score = r.Score / maxVec * vectorWeight
		}
		index[chunkKey(r.ResourceID, metadataInt(r.Metadata, "chunk_index"))] = i
	}

	for _, h := range kwHits {
		var kwScore float64
		if maxKw > 0 {
			kwScore = h.score / maxKw * keywordWeight
		}
		key := chunkKey(h.payload.ResourceID, h.payload.ChunkIndex)
		if i, ok := index[key]; ok {
			merged[i].Score += kwScore
			continue
		}
		merged = append(merged, domain.RetrievalResult{
			Text:       h.payload.Text,
			Score:      kwScore,
			ResourceID: h.payload.ResourceID,
			Metadata: map[string]any{
				"project_id":  h.payload.ProjectID,
				"filename":    h.payload.Filename,
				"chunk_index": h.payload.ChunkIndex,
			},
		})
	}
	return merged
}

// chunkKey identifies a chunk across the vector and keyword paths.
func chunkKey(resourceID, chunkIndex int) string {
	return fmt.Sprintf("%d_%d", resourceID, chunkIndex)
}

// metadataInt reads an integer metadata value regardless of how the
// backing store decoded it.
func metadataInt(m map[string]any, key string) int {
	switch v := m[key].(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return int(v)
	default:
		return 0
	}
}

// tokenize lowercases the text and splits it into CJK characters,
// letter runs, and digit runs. CJK text has no word boundaries, so each
// character is its own token.
func tokenize(text string) []string {
	var tokens []string
	var run []rune
	var runIsDigit bool

	flush := func() {
		if len(run) > 0 {
			tokens = append(tokens, string(run))
			run = run[:0]
		}
	}

	for _, r := range strings.ToLower(text) {
		switch {
		case r >= 0x4e00 && r <= 0x9fff:
			flush()
			tokens = append(tokens, string(r))
		case unicode.IsLetter(r):
			if runIsDigit {
				flush()
			}
			runIsDigit = false
			run = append(run, r)
		case unicode.IsDigit(r):
			if !runIsDigit {
				flush()
			}
			runIsDigit = true
			run = append(run, r)
		default:
			flush()
		}
	}
	flush()
	return tokens
}
