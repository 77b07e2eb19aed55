// Package qdrant provides a vector store adapter backed by the Qdrant
// REST API. Collections are created lazily on first upsert with cosine
// distance, and resource deletion uses a server-side payload filter.
package qdrant

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/Qq88537794/Xingyun/internal/core/domain"
	"github.com/Qq88537794/Xingyun/internal/core/ports/driven"
)

// Ensure Store implements the interface.
var _ driven.VectorStore = (*Store)(nil)

// Default configuration values.
const (
	DefaultBaseURL = "http://localhost:6333"
	DefaultTimeout = 30 * time.Second
)

// Config holds configuration for the Qdrant vector store.
type Config struct {
	// BaseURL is the Qdrant REST API base URL (default: http://localhost:6333).
	BaseURL string

	// APIKey authenticates requests; empty disables the header.
	APIKey string

	// Timeout is the request timeout (default: 30s).
	Timeout time.Duration
}

// Store is a Qdrant-backed vector store.
type Store struct {
	client  *http.Client
	baseURL string
	apiKey  string
}

// pointPayload is the payload stored alongside each vector.
type pointPayload struct {
	Text       string `json:"text"`
	ResourceID int    `json:"resource_id"`
	ProjectID  int    `json:"project_id"`
	Filename   string `json:"filename"`
	ChunkIndex int    `json:"chunk_index"`
}

// upsertRequest is the PUT /collections/{c}/points request format.
type upsertRequest struct {
	Points []upsertPoint `json:"points"`
}

type upsertPoint struct {
	ID      string       `json:"id"`
	Vector  []float32    `json:"vector"`
	Payload pointPayload `json:"payload"`
}

// searchRequest is the POST /collections/{c}/points/search request format.
type searchRequest struct {
	Vector      []float32 `json:"vector"`
	Limit       int       `json:"limit"`
	WithPayload bool      `json:"with_payload"`
}

// searchResponse is the search response format.
type searchResponse struct {
	Result []struct {
		Score   float64      `json:"score"`
		Payload pointPayload `json:"payload"`
	} `json:"result"`
}

// deleteRequest is the POST /collections/{c}/points/delete request
// format using a payload filter.
type deleteRequest struct {
	Filter filter `json:"filter"`
}

type filter struct {
	Must []fieldMatch `json:"must"`
}

type fieldMatch struct {
	Key   string `json:"key"`
	Match match  `json:"match"`
}

type match struct {
	Value any `json:"value"`
}

// createCollectionRequest is the PUT /collections/{c} request format.
type createCollectionRequest struct {
	Vectors vectorsConfig `json:"vectors"`
}

type vectorsConfig struct {
	Size     int    `json:"size"`
	Distance string `json:"distance"`
}

// NewStore creates a new Qdrant vector store.
func NewStore(cfg Config) *Store {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultTimeout
	}

	return &Store{
		client: &http.Client{
			Timeout: cfg.Timeout,
		},
		baseURL: cfg.BaseURL,
		apiKey:  cfg.APIKey,
	}
}

// Upsert inserts or replaces points, creating the collection if it
// does not exist. The upsert waits for the write to be applied so a
// following query sees the new points.
func (s *Store) Upsert(ctx context.Context, collection string, points []driven.VectorPoint) error {
	if len(points) == 0 {
		return nil
	}

	if err := s.ensureCollection(ctx, collection, len(points[0].Vector)); err != nil {
		return err
	}

	reqBody := upsertRequest{Points: make([]upsertPoint, len(points))}
	for i, p := range points {
		reqBody.Points[i] = upsertPoint{
			ID:     p.ID,
			Vector: p.Vector,
			Payload: pointPayload{
				Text:       p.Payload.Text,
				ResourceID: p.Payload.ResourceID,
				ProjectID:  p.Payload.ProjectID,
				Filename:   p.Payload.Filename,
				ChunkIndex: p.Payload.ChunkIndex,
			},
		}
	}

	path := fmt.Sprintf("/collections/%s/points?wait=true", collection)
	if _, err := s.do(ctx, http.MethodPut, path, reqBody); err != nil {
		return fmt.Errorf("upserting points: %w", err)
	}
	return nil
}

// Query returns up to topK results by cosine similarity descending.
// A missing collection yields an empty result set.
func (s *Store) Query(ctx context.Context, collection string, vector []float32, topK int) ([]domain.RetrievalResult, error) {
	if topK <= 0 {
		return []domain.RetrievalResult{}, nil
	}

	exists, err := s.CollectionExists(ctx, collection)
	if err != nil {
		return nil, err
	}
	if !exists {
		return []domain.RetrievalResult{}, nil
	}

	reqBody := searchRequest{
		Vector:      vector,
		Limit:       topK,
		WithPayload: true,
	}

	path := fmt.Sprintf("/collections/%s/points/search", collection)
	body, err := s.do(ctx, http.MethodPost, path, reqBody)
	if err != nil {
		return nil, fmt.Errorf("searching points: %w", err)
	}

	var searchResp searchResponse
	if err := json.Unmarshal(body, &searchResp); err != nil {
		return nil, fmt.Errorf("decode search response: %w", err)
	}

	results := make([]domain.RetrievalResult, len(searchResp.Result))
	for i, hit := range searchResp.Result {
		results[i] = domain.RetrievalResult{
			Text:       hit.Payload.Text,
			Score:      clampScore(hit.Score),
			ResourceID: hit.Payload.ResourceID,
			Metadata: map[string]any{
				"project_id":  hit.Payload.ProjectID,
				"filename":    hit.Payload.Filename,
				"chunk_index": hit.Payload.ChunkIndex,
			},
		}
	}
	return results, nil
}

// DeleteByResource removes every point tagged with the resource id via
// a server-side filter. Deleting an unknown resource or collection is a
// no-op.
func (s *Store) DeleteByResource(ctx context.Context, collection string, resourceID int) error {
	exists, err := s.CollectionExists(ctx, collection)
	if err != nil {
		return err
	}
	if !exists {
		return nil
	}

	reqBody := deleteRequest{
		Filter: filter{
			Must: []fieldMatch{{
				Key:   "resource_id",
				Match: match{Value: resourceID},
			}},
		},
	}

	path := fmt.Sprintf("/collections/%s/points/delete?wait=true", collection)
	if _, err := s.do(ctx, http.MethodPost, path, reqBody); err != nil {
		return fmt.Errorf("deleting resource points: %w", err)
	}
	return nil
}

// CollectionExists reports whether the collection has been created.
func (s *Store) CollectionExists(ctx context.Context, collection string) (bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.baseURL+"/collections/"+collection, http.NoBody)
	if err != nil {
		return false, fmt.Errorf("create request: %w", err)
	}
	s.setHeaders(req)

	resp, err := s.client.Do(req)
	if err != nil {
		return false, fmt.Errorf("%w: qdrant: %v", domain.ErrVectorStoreUnavailable, err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	switch resp.StatusCode {
	case http.StatusOK:
		return true, nil
	case http.StatusNotFound:
		return false, nil
	default:
		return false, fmt.Errorf("qdrant error (status %d) checking collection %s", resp.StatusCode, collection)
	}
}

// Close releases resources.
func (s *Store) Close() error {
	// HTTP client doesn't need explicit cleanup
	return nil
}

// ensureCollection creates the collection with cosine distance if it
// does not already exist.
func (s *Store) ensureCollection(ctx context.Context, collection string, dimensions int) error {
	exists, err := s.CollectionExists(ctx, collection)
	if err != nil {
		return err
	}
	if exists {
		return nil
	}

	reqBody := createCollectionRequest{
		Vectors: vectorsConfig{
			Size:     dimensions,
			Distance: "Cosine",
		},
	}
	if _, err := s.do(ctx, http.MethodPut, "/collections/"+collection, reqBody); err != nil {
		return fmt.Errorf("creating collection %s: %w", collection, err)
	}
	return nil
}

// do sends a JSON request and returns the response body.
func (s *Store) do(ctx context.Context, method, path string, payload any) ([]byte, error) {
	jsonBody, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, method, s.baseURL+path, bytes.NewReader(jsonBody))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	s.setHeaders(req)

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: qdrant: %v", domain.ErrVectorStoreUnavailable, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("qdrant error (status %d): %s", resp.StatusCode, string(body))
	}
	return body, nil
}

func (s *Store) setHeaders(req *http.Request) {
	req.Header.Set("Content-Type", "application/json")
	if s.apiKey != "" {
		req.Header.Set("api-key", s.apiKey)
	}
}

func clampScore(score float64) float64 {
	if score < 0 {
		return 0
	}
	if score > 1 {
		return 1
	}
	return score
}
