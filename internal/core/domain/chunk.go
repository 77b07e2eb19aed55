package domain

// ChunkingStrategy selects how split points are chosen when chunking text.
type ChunkingStrategy string

// Available chunking strategies.
const (
	// StrategyFixedSize splits at fixed character-count boundaries.
	StrategyFixedSize ChunkingStrategy = "fixed_size"

	// StrategySentence splits at sentence boundaries.
	StrategySentence ChunkingStrategy = "sentence"

	// StrategyParagraph splits at blank-line boundaries.
	StrategyParagraph ChunkingStrategy = "paragraph"

	// StrategyRecursive falls back through separators, largest unit first.
	StrategyRecursive ChunkingStrategy = "recursive"

	// StrategyMarkdown splits at markdown heading boundaries.
	StrategyMarkdown ChunkingStrategy = "markdown"

	// StrategySlidingWindow advances a fixed-size window by a fixed step.
	StrategySlidingWindow ChunkingStrategy = "sliding_window"
)

// IsValid returns true if the chunking strategy is recognised.
func (s ChunkingStrategy) IsValid() bool {
	switch s {
	case StrategyFixedSize, StrategySentence, StrategyParagraph,
		StrategyRecursive, StrategyMarkdown, StrategySlidingWindow:
		return true
	default:
		return false
	}
}

// String returns the string representation.
func (s ChunkingStrategy) String() string {
	return string(s)
}

// Chunk represents a contiguous slice of a source document.
// Chunks are the unit of embedding and retrieval; they are immutable
// once created and ordered by Index within their resource.
//
// Offsets are rune offsets into the original text. Adjacent chunks may
// share up to the configured overlap: chunk i+1 starts at most
// chunk_overlap runes before chunk i ends, so re-concatenating contents
// minus the overlapping region reproduces the original text.
type Chunk struct {
	// ID is the unique identifier for the chunk.
	ID string

	// Content is the text content of this chunk.
	Content string

	// Index is the ordinal position within the source text.
	Index int

	// StartOffset is the rune offset of the chunk start in the original text.
	StartOffset int

	// EndOffset is the rune offset just past the chunk end.
	EndOffset int

	// Metadata contains chunk-specific key-value pairs.
	Metadata map[string]any
}
