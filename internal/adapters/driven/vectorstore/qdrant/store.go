// Package qdrant provides a vector store adapter using the Qdrant REST API.
package qdrant

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/custodia-labs/bookchat/internal/core/domain"
	"github.com/custodia-labs/bookchat/internal/core/ports/driven"
)

// Ensure Store implements the interface.
var _ driven.VectorStore = (*Store)(nil)

// Default configuration values.
const (
	DefaultBaseURL    = "http://localhost:6333"
	DefaultCollection = "book_chunks"
	DefaultTimeout    = 30 * time.Second
)

// Config holds configuration for the Qdrant store.
type Config struct {
	// BaseURL is the Qdrant HTTP endpoint (default: http://localhost:6333).
	BaseURL string

	// APIKey is the optional Qdrant API key.
	APIKey string

	// Collection is the collection name (default: book_chunks).
	Collection string

	// Timeout is the request timeout (default: 30s).
	Timeout time.Duration
}

// Store talks to Qdrant over its REST API.
type Store struct {
	client     *http.Client
	baseURL    string
	apiKey     string
	collection string
}

// NewStore creates a new Qdrant store.
func NewStore(cfg Config) *Store {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Collection == "" {
		cfg.Collection = DefaultCollection
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultTimeout
	}
	return &Store{
		client:     &http.Client{Timeout: cfg.Timeout},
		baseURL:    cfg.BaseURL,
		apiKey:     cfg.APIKey,
		collection: cfg.Collection,
	}
}

// API request/response shapes. Only the fields the adapter reads are
// declared.

type collectionInfoResponse struct {
	Result struct {
		Config struct {
			Params struct {
				Vectors struct {
					Size int `json:"size"`
				} `json:"vectors"`
			} `json:"params"`
		} `json:"config"`
	} `json:"result"`
	Status any `json:"status"`
}

type createCollectionRequest struct {
	Vectors struct {
		Size     int    `json:"size"`
		Distance string `json:"distance"`
	} `json:"vectors"`
}

type createIndexRequest struct {
	FieldName   string `json:"field_name"`
	FieldSchema string `json:"field_schema"`
}

type upsertRequest struct {
	Points []upsertPoint `json:"points"`
}

type upsertPoint struct {
	ID      string              `json:"id"`
	Vector  []float32           `json:"vector"`
	Payload driven.ChunkPayload `json:"payload"`
}

type matchCondition struct {
	Key   string `json:"key"`
	Match struct {
		Value any `json:"value"`
	} `json:"match"`
}

type rangeCondition struct {
	Key   string `json:"key"`
	Range struct {
		GTE *int `json:"gte,omitempty"`
		LTE *int `json:"lte,omitempty"`
	} `json:"range"`
}

type searchFilter struct {
	Must []any `json:"must,omitempty"`
}

type searchRequest struct {
	Vector      []float32     `json:"vector"`
	Limit       int           `json:"limit"`
	Filter      *searchFilter `json:"filter,omitempty"`
	WithPayload bool          `json:"with_payload"`
}

type searchResponse struct {
	Result []struct {
		ID      string              `json:"id"`
		Score   float64             `json:"score"`
		Payload driven.ChunkPayload `json:"payload"`
	} `json:"result"`
}

type countRequest struct {
	Filter *searchFilter `json:"filter,omitempty"`
	Exact  bool          `json:"exact"`
}

type countResponse struct {
	Result struct {
		Count int `json:"count"`
	} `json:"result"`
}

// mapStatus translates HTTP failures onto the domain provider errors.
func mapStatus(status int, body []byte) error {
	switch {
	case status == http.StatusTooManyRequests:
		return fmt.Errorf("qdrant: %w", domain.ErrRateLimited)
	case status >= http.StatusInternalServerError:
		return fmt.Errorf("qdrant returned status %d: %w", status, domain.ErrUnavailable)
	default:
		return fmt.Errorf("qdrant returned status %d: %s", status, string(body))
	}
}

// mapTransport translates transport failures onto the domain provider
// errors.
func mapTransport(err error) error {
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return fmt.Errorf("qdrant: %w: %v", domain.ErrProviderTimeout, err)
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("qdrant: %w: %v", domain.ErrProviderTimeout, err)
	}
	if errors.Is(err, context.Canceled) {
		return err
	}
	return fmt.Errorf("qdrant: %w: %v", domain.ErrUnavailable, err)
}

// do sends one JSON request and decodes the response into out (when
// non-nil). A nil payload sends an empty body.
func (s *Store) do(ctx context.Context, method, path string, payload, out any) error {
	var body io.Reader = http.NoBody
	if payload != nil {
		jsonBody, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		body = bytes.NewReader(jsonBody)
	}

	req, err := http.NewRequestWithContext(ctx, method, s.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if s.apiKey != "" {
		req.Header.Set("api-key", s.apiKey)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return mapTransport(err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		if resp.StatusCode == http.StatusNotFound {
			return fmt.Errorf("qdrant: %w", domain.ErrNotFound)
		}
		return mapStatus(resp.StatusCode, respBody)
	}

	if out != nil {
		if err := json.Unmarshal(respBody, out); err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
	}
	return nil
}

// EnsureCollection creates the collection on first use and verifies the
// vector size afterwards. Payload indexes are created for every filterable
// field so selections stay cheap on large corpora.
func (s *Store) EnsureCollection(ctx context.Context, dimensions int) error {
	if dimensions <= 0 {
		return fmt.Errorf("%w: dimensions must be positive", domain.ErrInvalidInput)
	}

	var info collectionInfoResponse
	err := s.do(ctx, http.MethodGet, "/collections/"+s.collection, nil, &info)
	if err == nil {
		if got := info.Result.Config.Params.Vectors.Size; got != dimensions {
			return fmt.Errorf("collection %s has dimension %d, requested %d: %w",
				s.collection, got, dimensions, domain.ErrDimensionMismatch)
		}
		return nil
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return err
	}

	var create createCollectionRequest
	create.Vectors.Size = dimensions
	create.Vectors.Distance = "Cosine"
	if err := s.do(ctx, http.MethodPut, "/collections/"+s.collection, create, nil); err != nil {
		return fmt.Errorf("creating collection: %w", err)
	}

	indexes := []createIndexRequest{
		{FieldName: "source_id", FieldSchema: "keyword"},
		{FieldName: "chapter", FieldSchema: "keyword"},
		{FieldName: "content_hash", FieldSchema: "keyword"},
		{FieldName: "page_start", FieldSchema: "integer"},
		{FieldName: "page_end", FieldSchema: "integer"},
	}
	for _, idx := range indexes {
		if err := s.do(ctx, http.MethodPut, "/collections/"+s.collection+"/index", idx, nil); err != nil {
			return fmt.Errorf("creating index on %s: %w", idx.FieldName, err)
		}
	}
	return nil
}

// Upsert inserts or replaces points.
func (s *Store) Upsert(ctx context.Context, points []driven.Point) error {
	if len(points) == 0 {
		return nil
	}
	req := upsertRequest{Points: make([]upsertPoint, len(points))}
	for i, p := range points {
		req.Points[i] = upsertPoint{ID: p.ID, Vector: p.Vector, Payload: p.Payload}
	}
	return s.do(ctx, http.MethodPut, "/collections/"+s.collection+"/points?wait=true", req, nil)
}

// buildFilter translates the port filter into Qdrant filter clauses.
// Page range selection matches chunks whose page span overlaps the
// requested range.
func buildFilter(f *driven.Filter) *searchFilter {
	if f == nil {
		return nil
	}
	var must []any
	if f.Chapter != "" {
		c := matchCondition{Key: "chapter"}
		c.Match.Value = f.Chapter
		must = append(must, c)
	}
	if f.ByPages {
		start := rangeCondition{Key: "page_start"}
		start.Range.LTE = &f.PageEnd
		end := rangeCondition{Key: "page_end"}
		end.Range.GTE = &f.PageStart
		must = append(must, start, end)
	}
	if len(must) == 0 {
		return nil
	}
	return &searchFilter{Must: must}
}

// Query returns the topK nearest chunks under cosine similarity.
func (s *Store) Query(ctx context.Context, vector []float32, filter *driven.Filter, topK int) ([]driven.Hit, error) {
	if topK <= 0 {
		return nil, fmt.Errorf("%w: topK must be positive", domain.ErrInvalidInput)
	}

	req := searchRequest{
		Vector:      vector,
		Limit:       topK,
		Filter:      buildFilter(filter),
		WithPayload: true,
	}
	var resp searchResponse
	if err := s.do(ctx, http.MethodPost, "/collections/"+s.collection+"/points/search", req, &resp); err != nil {
		return nil, err
	}

	hits := make([]driven.Hit, len(resp.Result))
	for i, r := range resp.Result {
		hits[i] = driven.Hit{ID: r.ID, Score: r.Score, Payload: r.Payload}
	}
	return hits, nil
}

// CountByHash returns how many stored chunks carry the fingerprint.
func (s *Store) CountByHash(ctx context.Context, contentHash string) (int, error) {
	c := matchCondition{Key: "content_hash"}
	c.Match.Value = contentHash
	req := countRequest{
		Filter: &searchFilter{Must: []any{c}},
		Exact:  true,
	}
	var resp countResponse
	if err := s.do(ctx, http.MethodPost, "/collections/"+s.collection+"/points/count", req, &resp); err != nil {
		return 0, err
	}
	return resp.Result.Count, nil
}

// Close releases resources.
func (s *Store) Close() error {
	return nil
}
