package services

import (
	"sort"
	"strings"

	"github.com/Qq88537794/Xingyun/internal/core/domain"
)

// Rule-based reranking boosts. Applied after hybrid fusion, before
// results are truncated to topK.
const (
	rerankExactMatchBoost  = 0.3
	rerankTermDensityBoost = 0.2
	rerankLeadMatchBoost   = 0.1
	rerankShortPenalty     = 0.1
	rerankLongPenalty      = 0.05

	rerankShortContentLen = 50
	rerankLongContentLen  = 2000
	rerankLeadWindow      = 100
)

// rerank adjusts result scores with simple relevance rules: an exact
// query match and query terms near the start of the chunk score up,
// very short or very long chunks score down. Results are re-sorted by
// the adjusted score, clamped to [0, 1].
func rerank(query string, results []domain.RetrievalResult) []domain.RetrievalResult {
	if len(results) == 0 {
		return results
	}

	queryLower := strings.ToLower(strings.TrimSpace(query))
	terms := uniqueTerms(tokenize(queryLower))

	for i := range results {
		content := strings.ToLower(results[i].Text)
		var boost float64

		if queryLower != "" && strings.Contains(content, queryLower) {
			boost += rerankExactMatchBoost
		}

		if len(terms) > 0 {
			matched := 0
			for _, term := range terms {
				if strings.Contains(content, term) {
					matched++
				}
			}
			boost += float64(matched) / float64(len(terms)) * rerankTermDensityBoost

			lead := leadRunes(content, rerankLeadWindow)
			for _, term := range terms {
				if strings.Contains(lead, term) {
					boost += rerankLeadMatchBoost
					break
				}
			}
		}

		contentLen := len([]rune(results[i].Text))
		switch {
		case contentLen < rerankShortContentLen:
			boost -= rerankShortPenalty
		case contentLen > rerankLongContentLen:
			boost -= rerankLongPenalty
		}

		score := results[i].Score + boost
		if score < 0 {
			score = 0
		}
		if score > 1 {
			score = 1
		}
		results[i].Score = score
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})
	return results
}

// uniqueTerms deduplicates tokens preserving first-seen order.
func uniqueTerms(tokens []string) []string {
	seen := make(map[string]bool, len(tokens))
	var unique []string
	for _, t := range tokens {
		if !seen[t] {
			seen[t] = true
			unique = append(unique, t)
		}
	}
	return unique
}

// leadRunes returns the first n runes of s.
func leadRunes(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}
