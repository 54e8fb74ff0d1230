package driven

import (
	"context"
	"time"
)

// ChunkPayload is the metadata stored alongside each vector.
// The store indexes source_id, chapter and content_hash for exact-match
// filtering and page_start/page_end for range filtering.
type ChunkPayload struct {
	SourceID    string    `json:"source_id"`
	ChunkIndex  int       `json:"chunk_index"`
	ContentHash string    `json:"content_hash"`
	Text        string    `json:"text"`
	Timestamp   time.Time `json:"timestamp"`
	Chapter     string    `json:"chapter,omitempty"`
	PageStart   int       `json:"page_start,omitempty"`
	PageEnd     int       `json:"page_end,omitempty"`
}

// Point is one vector with its payload, addressed by chunk ID.
type Point struct {
	ID      string
	Vector  []float32
	Payload ChunkPayload
}

// Filter restricts a query to a metadata scope. The zero value matches
// everything.
type Filter struct {
	// Chapter, when non-empty, requires an exact chapter match.
	Chapter string

	// ByPages, when true, requires the chunk's page span to overlap
	// [PageStart, PageEnd].
	ByPages   bool
	PageStart int
	PageEnd   int
}

// Hit is one similarity search result.
type Hit struct {
	// ID is the matched chunk.
	ID string

	// Score is the cosine similarity (0-1).
	Score float64

	// Payload is the stored chunk metadata.
	Payload ChunkPayload
}

// VectorStore persists embeddings with metadata and serves similarity
// queries. It must tolerate concurrent upserts to distinct chunk
// identifiers; the pipeline never assumes transactional multi-chunk
// atomicity.
type VectorStore interface {
	// EnsureCollection creates the collection for the given embedding
	// dimension if it does not exist, and verifies the dimension if it
	// does. A dimension conflict is domain.ErrDimensionMismatch.
	EnsureCollection(ctx context.Context, dimensions int) error

	// Upsert inserts or replaces points.
	Upsert(ctx context.Context, points []Point) error

	// Query returns the topK nearest chunks to vector under cosine
	// similarity, restricted by filter.
	Query(ctx context.Context, vector []float32, filter *Filter, topK int) ([]Hit, error)

	// CountByHash returns how many stored chunks carry the given content
	// fingerprint. Used for cross-run deduplication.
	CountByHash(ctx context.Context, contentHash string) (int, error)

	// Close releases resources.
	Close() error
}
