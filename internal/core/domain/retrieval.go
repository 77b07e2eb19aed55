package domain

// RetrievalResult represents a single knowledge-base hit for a query.
// Results are ephemeral: produced per query, never persisted, and
// ordered by descending score.
type RetrievalResult struct {
	// Text is the matched chunk content.
	Text string `json:"text"`

	// Score is the cosine similarity, clamped to [0, 1].
	Score float64 `json:"score"`

	// ResourceID identifies the resource the chunk came from.
	ResourceID int `json:"resource_id"`

	// Metadata carries chunk provenance (filename, chunk index, project id).
	Metadata map[string]any `json:"metadata,omitempty"`
}
