package chunker

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Qq88537794/Xingyun/internal/core/domain"
)

// reconstruct rebuilds the original text from chunk contents using the
// recorded offsets to drop each chunk's overlapping prefix.
func reconstruct(t *testing.T, chunks []domain.Chunk) string {
	t.Helper()

	var b strings.Builder
	prevEnd := 0
	for _, ch := range chunks {
		require.LessOrEqual(t, ch.StartOffset, prevEnd, "chunk %d leaves a gap", ch.Index)
		require.Greater(t, ch.EndOffset, prevEnd, "chunk %d adds no new text", ch.Index)
		runes := []rune(ch.Content)
		require.Len(t, runes, ch.EndOffset-ch.StartOffset)
		b.WriteString(string(runes[prevEnd-ch.StartOffset:]))
		prevEnd = ch.EndOffset
	}
	return b.String()
}

func allStrategies() []domain.ChunkingStrategy {
	return []domain.ChunkingStrategy{
		domain.StrategyFixedSize,
		domain.StrategySentence,
		domain.StrategyParagraph,
		domain.StrategyRecursive,
		domain.StrategyMarkdown,
		domain.StrategySlidingWindow,
	}
}

func TestNew_Validation(t *testing.T) {
	tests := []struct {
		name string
		opts []Option
	}{
		{"unknown strategy", []Option{WithStrategy("semantic")}},
		{"zero chunk size", []Option{WithChunkSize(0)}},
		{"negative chunk size", []Option{WithChunkSize(-5)}},
		{"negative overlap", []Option{WithChunkSize(100), WithOverlap(-1)}},
		{"overlap equals chunk size", []Option{WithChunkSize(100), WithOverlap(100)}},
		{"overlap exceeds chunk size", []Option{WithChunkSize(100), WithOverlap(150)}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.opts...)
			require.Error(t, err)
			assert.True(t, errors.Is(err, domain.ErrInvalidChunking))
		})
	}
}

func TestNew_Defaults(t *testing.T) {
	c, err := New()
	require.NoError(t, err)
	assert.Equal(t, domain.StrategyFixedSize, c.Strategy())
}

func TestChunk_EmptyInput(t *testing.T) {
	for _, s := range allStrategies() {
		t.Run(string(s), func(t *testing.T) {
			c, err := New(WithStrategy(s), WithChunkSize(100), WithOverlap(10))
			require.NoError(t, err)

			chunks := c.Chunk("")
			assert.NotNil(t, chunks)
			assert.Empty(t, chunks)
		})
	}
}

func TestChunk_Reconstruction(t *testing.T) {
	text := "# Introduction\n\nAI is a branch of computer science. It studies " +
		"intelligent agents! Does it matter? Yes.\n\n## Details\n\nMachine " +
		"learning is a subset of AI. 深度学习是机器学习的分支。它依赖神经网络！" +
		"\nA final line without terminal punctuation and quite a lot of extra " +
		"words to force several chunk boundaries in every strategy"

	for _, s := range allStrategies() {
		t.Run(string(s), func(t *testing.T) {
			c, err := New(WithStrategy(s), WithChunkSize(40), WithOverlap(10))
			require.NoError(t, err)

			chunks := c.Chunk(text)
			require.NotEmpty(t, chunks)
			assert.Equal(t, text, reconstruct(t, chunks))

			for i, ch := range chunks {
				assert.Equal(t, i, ch.Index)
				assert.NotEmpty(t, ch.Content, "chunk %d is empty", i)
				assert.NotEmpty(t, ch.ID)
			}
			assert.Equal(t, 0, chunks[0].StartOffset)
			assert.Equal(t, len([]rune(text)), chunks[len(chunks)-1].EndOffset)
		})
	}
}

func TestChunk_FixedSize(t *testing.T) {
	c, err := New(WithStrategy(domain.StrategyFixedSize), WithChunkSize(10), WithOverlap(3))
	require.NoError(t, err)

	text := "abcdefghijklmnopqrstuvwxy" // 25 runes
	chunks := c.Chunk(text)
	require.Len(t, chunks, 3)

	// Boundaries fall at exact multiples of chunk size; each later chunk
	// is extended backwards by the overlap.
	assert.Equal(t, "abcdefghij", chunks[0].Content)
	assert.Equal(t, 0, chunks[0].StartOffset)
	assert.Equal(t, 10, chunks[0].EndOffset)

	assert.Equal(t, "hijklmnopqrst", chunks[1].Content)
	assert.Equal(t, 7, chunks[1].StartOffset)
	assert.Equal(t, 20, chunks[1].EndOffset)

	assert.Equal(t, "rstuvwxy", chunks[2].Content)
	assert.Equal(t, 17, chunks[2].StartOffset)
	assert.Equal(t, 25, chunks[2].EndOffset)
}

func TestChunk_SlidingWindow(t *testing.T) {
	c, err := New(WithStrategy(domain.StrategySlidingWindow), WithChunkSize(10), WithOverlap(4))
	require.NoError(t, err)

	text := "abcdefghijklmnopqrst" // 20 runes
	chunks := c.Chunk(text)
	require.Len(t, chunks, 3)

	// Windows of 10 advancing by 6.
	assert.Equal(t, "abcdefghij", chunks[0].Content)
	assert.Equal(t, "ghijklmnop", chunks[1].Content)
	assert.Equal(t, "mnopqrst", chunks[2].Content)
	assert.Equal(t, 6, chunks[1].StartOffset)
	assert.Equal(t, 12, chunks[2].StartOffset)
}

func TestChunk_SentenceBoundaries(t *testing.T) {
	c, err := New(WithStrategy(domain.StrategySentence), WithChunkSize(30), WithOverlap(0))
	require.NoError(t, err)

	text := "First sentence here. Second one now. Third is last."
	chunks := c.Chunk(text)
	require.Len(t, chunks, 2)

	// Boundaries land after a terminator and its trailing space.
	assert.Equal(t, "First sentence here. ", chunks[0].Content)
	assert.Equal(t, "Second one now. Third is last.", chunks[1].Content)
}

func TestChunk_ParagraphBoundaries(t *testing.T) {
	c, err := New(WithStrategy(domain.StrategyParagraph), WithChunkSize(30), WithOverlap(0))
	require.NoError(t, err)

	text := "para one text\n\npara two text\n\npara three"
	chunks := c.Chunk(text)
	require.Len(t, chunks, 2)
	assert.Equal(t, "para one text\n\npara two text\n\n", chunks[0].Content)
	assert.Equal(t, "para three", chunks[1].Content)
}

func TestChunk_MarkdownHeadings(t *testing.T) {
	c, err := New(WithStrategy(domain.StrategyMarkdown), WithChunkSize(30), WithOverlap(0))
	require.NoError(t, err)

	text := "# Title\nintro text\n## Section\nbody text here"
	chunks := c.Chunk(text)
	require.Len(t, chunks, 2)
	assert.Equal(t, "# Title\nintro text\n", chunks[0].Content)
	assert.Equal(t, "## Section\nbody text here", chunks[1].Content)
}

func TestChunk_RecursiveFallsBackOnLongParagraph(t *testing.T) {
	c, err := New(WithStrategy(domain.StrategyRecursive), WithChunkSize(25), WithOverlap(0))
	require.NoError(t, err)

	// One paragraph longer than the chunk size forces sentence-level splits.
	text := "A short sentence. Another short one. And a third sentence here."
	chunks := c.Chunk(text)
	require.Greater(t, len(chunks), 1)
	assert.Equal(t, text, reconstruct(t, chunks))
	for _, ch := range chunks {
		assert.LessOrEqual(t, ch.EndOffset-ch.StartOffset, 25)
	}
}

func TestChunk_OversizedSegmentHardCut(t *testing.T) {
	// No sentence terminators at all: the sentence strategy must still
	// produce bounded chunks via hard cuts.
	c, err := New(WithStrategy(domain.StrategySentence), WithChunkSize(10), WithOverlap(2))
	require.NoError(t, err)

	text := strings.Repeat("x", 35)
	chunks := c.Chunk(text)
	require.Len(t, chunks, 4)
	assert.Equal(t, text, reconstruct(t, chunks))
}

func TestChunk_SingleChunkWhenTextFits(t *testing.T) {
	for _, s := range allStrategies() {
		t.Run(string(s), func(t *testing.T) {
			c, err := New(WithStrategy(s), WithChunkSize(1000), WithOverlap(100))
			require.NoError(t, err)

			chunks := c.Chunk("short text")
			require.Len(t, chunks, 1)
			assert.Equal(t, "short text", chunks[0].Content)
			assert.Equal(t, 0, chunks[0].StartOffset)
			assert.Equal(t, 10, chunks[0].EndOffset)
		})
	}
}

func TestChunk_RuneOffsetsWithMultibyteText(t *testing.T) {
	c, err := New(WithStrategy(domain.StrategyFixedSize), WithChunkSize(5), WithOverlap(0))
	require.NoError(t, err)

	text := "人工智能是计算机科学" // 10 runes, 30 bytes
	chunks := c.Chunk(text)
	require.Len(t, chunks, 2)
	assert.Equal(t, "人工智能是", chunks[0].Content)
	assert.Equal(t, "计算机科学", chunks[1].Content)
	assert.Equal(t, 5, chunks[1].StartOffset)
	assert.Equal(t, 10, chunks[1].EndOffset)
}
