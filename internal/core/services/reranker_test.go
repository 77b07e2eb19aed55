package services

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Qq88537794/Xingyun/internal/core/domain"
)

func TestRerank_BoostsChunksMatchingQueryTerms(t *testing.T) {
	results := []domain.RetrievalResult{
		{Text: "Completely unrelated notes about something else entirely today.", Score: 0.5},
		{Text: "The hybrid retrieval pipeline combines vector and keyword search.", Score: 0.5},
	}

	reranked := rerank("hybrid retrieval", results)

	require.Len(t, reranked, 2)
	assert.Contains(t, reranked[0].Text, "hybrid retrieval")
	assert.Greater(t, reranked[0].Score, reranked[1].Score)
}

func TestRerank_PenalisesExtremeLengths(t *testing.T) {
	medium := strings.Repeat("filler words here ", 5)
	long := strings.Repeat("x", 2500)
	results := []domain.RetrievalResult{
		{Text: "tiny", Score: 0.5},
		{Text: medium, Score: 0.5},
		{Text: long, Score: 0.5},
	}

	reranked := rerank("zzz", results)

	require.Len(t, reranked, 3)
	assert.Equal(t, medium, reranked[0].Text)
	assert.Equal(t, long, reranked[1].Text)
	assert.Equal(t, "tiny", reranked[2].Text)
	assert.InDelta(t, 0.5, reranked[0].Score, 1e-9)
	assert.InDelta(t, 0.5-rerankLongPenalty, reranked[1].Score, 1e-9)
	assert.InDelta(t, 0.5-rerankShortPenalty, reranked[2].Score, 1e-9)
}

func TestRerank_ClampsScoresToUnitRange(t *testing.T) {
	results := []domain.RetrievalResult{
		{Text: strings.Repeat("relevance ranking notes ", 4), Score: 0.95},
		{Text: "hi", Score: 0.05},
	}

	reranked := rerank("relevance ranking", results)

	require.Len(t, reranked, 2)
	assert.InDelta(t, 1.0, reranked[0].Score, 1e-9)
	assert.InDelta(t, 0.0, reranked[1].Score, 1e-9)
}

func TestRerank_EmptyResults(t *testing.T) {
	assert.Empty(t, rerank("query", nil))
}
