package chunker

import (
	"unicode"

	"github.com/Qq88537794/Xingyun/internal/core/domain"
)

// splitPoints returns the offsets where the configured strategy allows a
// chunk boundary. Points are sorted, strictly inside (0, len(runes)).
func (c *Chunker) splitPoints(runes []rune) []int {
	switch c.strategy {
	case domain.StrategySentence:
		return sentenceSplits(runes)
	case domain.StrategyParagraph:
		return paragraphSplits(runes)
	case domain.StrategyMarkdown:
		return markdownSplits(runes)
	case domain.StrategyRecursive:
		return c.recursiveSplits(runes)
	}
	return nil
}

// recursiveSplits falls back through separators largest-unit-first:
// paragraph breaks, then sentence ends inside oversized paragraphs, then
// line breaks. Segments still longer than chunkSize are hard-cut during
// assembly.
func (c *Chunker) recursiveSplits(runes []rune) []int {
	points := paragraphSplits(runes)
	points = refine(runes, points, c.chunkSize, sentenceSplits)
	points = refine(runes, points, c.chunkSize, newlineSplits)
	return points
}

// refine re-splits every segment longer than limit with the given
// splitter, keeping the existing points.
func refine(runes []rune, points []int, limit int, split func([]rune) []int) []int {
	bounds := make([]int, 0, len(points)+2)
	bounds = append(bounds, 0)
	bounds = append(bounds, points...)
	bounds = append(bounds, len(runes))

	var out []int
	for k := 0; k < len(bounds)-1; k++ {
		lo, hi := bounds[k], bounds[k+1]
		if k > 0 {
			out = append(out, lo)
		}
		if hi-lo > limit {
			for _, p := range split(runes[lo:hi]) {
				out = append(out, lo+p)
			}
		}
	}
	return out
}

// sentenceSplits places a point after each run of sentence terminators
// and the whitespace that follows it. Handles both ASCII and CJK
// full-width punctuation.
func sentenceSplits(runes []rune) []int {
	var points []int
	n := len(runes)
	for i := 0; i < n; i++ {
		if !isSentenceEnd(runes[i]) {
			continue
		}
		j := i + 1
		for j < n && isSentenceEnd(runes[j]) {
			j++
		}
		for j < n && unicode.IsSpace(runes[j]) {
			j++
		}
		if j < n {
			points = append(points, j)
		}
		i = j - 1
	}
	return points
}

func isSentenceEnd(r rune) bool {
	switch r {
	case '.', '!', '?', '…', '。', '！', '？':
		return true
	}
	return false
}

// paragraphSplits places a point after each blank-line run.
func paragraphSplits(runes []rune) []int {
	var points []int
	n := len(runes)
	for i := 0; i < n; i++ {
		if runes[i] != '\n' {
			continue
		}
		j := i
		newlines := 0
		for j < n && (runes[j] == '\n' || runes[j] == '\r') {
			if runes[j] == '\n' {
				newlines++
			}
			j++
		}
		if newlines >= 2 && j < n {
			points = append(points, j)
		}
		i = j - 1
	}
	return points
}

// newlineSplits places a point after every line break.
func newlineSplits(runes []rune) []int {
	var points []int
	n := len(runes)
	for i := 0; i < n-1; i++ {
		if runes[i] == '\n' {
			points = append(points, i+1)
		}
	}
	return points
}

// markdownSplits places a point before each heading line.
func markdownSplits(runes []rune) []int {
	var points []int
	for i := 1; i < len(runes); i++ {
		if runes[i] == '#' && runes[i-1] == '\n' {
			points = append(points, i)
		}
	}
	return points
}
