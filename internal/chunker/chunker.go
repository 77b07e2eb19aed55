// Package chunker splits document text into bounded, overlapping segments
// for embedding and retrieval. Six strategies differ only in where split
// points may be placed; every strategy records rune offsets so the original
// text can be reconstructed from the chunks.
package chunker

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/Qq88537794/Xingyun/internal/core/domain"
)

// DefaultChunkSize is the default maximum number of runes per chunk.
const DefaultChunkSize = 1000

// DefaultChunkOverlap is the default number of overlapping runes.
const DefaultChunkOverlap = 200

// Chunker splits text into chunks under a configured strategy.
// Chunk boundaries are at most chunkSize runes apart; each chunk after
// the first is extended backwards by up to overlap runes, so adjacent
// chunks share context without breaking offset bookkeeping.
type Chunker struct {
	strategy  domain.ChunkingStrategy
	chunkSize int
	overlap   int
}

// Option configures the chunker.
type Option func(*Chunker)

// WithStrategy sets the chunking strategy.
func WithStrategy(s domain.ChunkingStrategy) Option {
	return func(c *Chunker) {
		c.strategy = s
	}
}

// WithChunkSize sets the maximum chunk size in runes.
func WithChunkSize(size int) Option {
	return func(c *Chunker) {
		c.chunkSize = size
	}
}

// WithOverlap sets the overlap between adjacent chunks in runes.
func WithOverlap(overlap int) Option {
	return func(c *Chunker) {
		c.overlap = overlap
	}
}

// New creates a chunker with the given options.
// Returns domain.ErrInvalidChunking for an unknown strategy, a
// non-positive chunk size, or an overlap outside [0, chunk size).
func New(opts ...Option) (*Chunker, error) {
	c := &Chunker{
		strategy:  domain.StrategyFixedSize,
		chunkSize: DefaultChunkSize,
		overlap:   DefaultChunkOverlap,
	}

	for _, opt := range opts {
		opt(c)
	}

	if !c.strategy.IsValid() {
		return nil, fmt.Errorf("%w: unknown strategy %q", domain.ErrInvalidChunking, c.strategy)
	}
	if c.chunkSize <= 0 {
		return nil, fmt.Errorf("%w: chunk size must be positive, got %d", domain.ErrInvalidChunking, c.chunkSize)
	}
	if c.overlap < 0 || c.overlap >= c.chunkSize {
		return nil, fmt.Errorf("%w: overlap must be in [0, chunk size), got %d", domain.ErrInvalidChunking, c.overlap)
	}

	return c, nil
}

// Strategy returns the configured chunking strategy.
func (c *Chunker) Strategy() domain.ChunkingStrategy {
	return c.strategy
}

// Chunk splits text into chunks. Empty input yields an empty slice.
// Chunks are ordered by Index; no chunk is empty.
func (c *Chunker) Chunk(text string) []domain.Chunk {
	runes := []rune(text)
	if len(runes) == 0 {
		return []domain.Chunk{}
	}

	if c.strategy == domain.StrategySlidingWindow {
		return c.slidingWindow(runes)
	}

	var bounds []int
	if c.strategy == domain.StrategyFixedSize {
		bounds = fixedBounds(len(runes), c.chunkSize)
	} else {
		bounds = c.assemble(runes, c.splitPoints(runes))
	}

	return c.build(runes, bounds)
}

// fixedBounds cuts at exact chunkSize boundaries.
func fixedBounds(n, chunkSize int) []int {
	bounds := make([]int, 0, n/chunkSize+1)
	for end := chunkSize; end < n; end += chunkSize {
		bounds = append(bounds, end)
	}
	return append(bounds, n)
}

// assemble greedily packs the segments between split points into chunks
// whose boundaries are at most chunkSize runes apart. A segment with no
// usable split point within reach is cut at chunkSize.
func (c *Chunker) assemble(runes []rune, points []int) []int {
	n := len(runes)
	points = append(points, n)

	var bounds []int
	start := 0
	i := 0
	for start < n {
		end := start
		for i < len(points) && points[i]-start <= c.chunkSize {
			if points[i] > end {
				end = points[i]
			}
			i++
		}
		if end == start {
			end = start + c.chunkSize
			if end > n {
				end = n
			}
			for i < len(points) && points[i] <= end {
				i++
			}
		}
		bounds = append(bounds, end)
		start = end
	}
	return bounds
}

// build materialises chunks from boundary offsets, extending each chunk
// after the first backwards by the configured overlap.
func (c *Chunker) build(runes []rune, bounds []int) []domain.Chunk {
	chunks := make([]domain.Chunk, 0, len(bounds))
	start := 0
	for i, end := range bounds {
		chunks = append(chunks, domain.Chunk{
			ID:          uuid.New().String(),
			Content:     string(runes[start:end]),
			Index:       i,
			StartOffset: start,
			EndOffset:   end,
			Metadata:    map[string]any{"strategy": string(c.strategy)},
		})
		start = end - c.overlap
		if start < 0 {
			start = 0
		}
	}
	return chunks
}

// slidingWindow emits windows of exactly chunkSize runes advancing by
// chunkSize - overlap; the final window is truncated at the text end.
func (c *Chunker) slidingWindow(runes []rune) []domain.Chunk {
	n := len(runes)
	step := c.chunkSize - c.overlap

	var chunks []domain.Chunk
	index := 0
	for start := 0; ; start += step {
		end := start + c.chunkSize
		if end > n {
			end = n
		}
		chunks = append(chunks, domain.Chunk{
			ID:          uuid.New().String(),
			Content:     string(runes[start:end]),
			Index:       index,
			StartOffset: start,
			EndOffset:   end,
			Metadata:    map[string]any{"strategy": string(c.strategy)},
		})
		index++
		if end == n {
			return chunks
		}
	}
}
