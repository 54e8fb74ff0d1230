// Package memory provides an in-process vector store with exact cosine
// search. It backs tests and small corpora; production deployments use
// the qdrant adapter.
package memory

import (
	"context"
	"fmt"
	"math"
	"sort"
	"sync"

	"github.com/custodia-labs/bookchat/internal/core/domain"
	"github.com/custodia-labs/bookchat/internal/core/ports/driven"
)

// Ensure Store implements the interface.
var _ driven.VectorStore = (*Store)(nil)

// Store is an in-memory implementation of driven.VectorStore.
type Store struct {
	mu         sync.RWMutex
	dimensions int
	points     map[string]driven.Point
}

// NewStore creates a new in-memory vector store.
func NewStore() *Store {
	return &Store{
		points: make(map[string]driven.Point),
	}
}

// EnsureCollection fixes the embedding dimension on first call and
// verifies it afterwards.
func (s *Store) EnsureCollection(_ context.Context, dimensions int) error {
	if dimensions <= 0 {
		return fmt.Errorf("%w: dimensions must be positive", domain.ErrInvalidInput)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.dimensions == 0 {
		s.dimensions = dimensions
		return nil
	}
	if s.dimensions != dimensions {
		return fmt.Errorf("collection has dimension %d, requested %d: %w",
			s.dimensions, dimensions, domain.ErrDimensionMismatch)
	}
	return nil
}

// Upsert inserts or replaces points.
func (s *Store) Upsert(_ context.Context, points []driven.Point) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, p := range points {
		if s.dimensions > 0 && len(p.Vector) != s.dimensions {
			return fmt.Errorf("point %s has dimension %d, want %d: %w",
				p.ID, len(p.Vector), s.dimensions, domain.ErrDimensionMismatch)
		}
		s.points[p.ID] = p
	}
	return nil
}

// matches reports whether a payload passes the filter.
func matches(p driven.ChunkPayload, f *driven.Filter) bool {
	if f == nil {
		return true
	}
	if f.Chapter != "" && p.Chapter != f.Chapter {
		return false
	}
	if f.ByPages {
		if p.PageStart == 0 && p.PageEnd == 0 {
			return false
		}
		if p.PageStart > f.PageEnd || p.PageEnd < f.PageStart {
			return false
		}
	}
	return true
}

// cosine computes the cosine similarity of two equal-length vectors.
func cosine(a, b []float32) float64 {
	var dot, na, nb float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}

// Query returns the topK nearest chunks under cosine similarity.
func (s *Store) Query(_ context.Context, vector []float32, filter *driven.Filter, topK int) ([]driven.Hit, error) {
	if topK <= 0 {
		return nil, fmt.Errorf("%w: topK must be positive", domain.ErrInvalidInput)
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.dimensions > 0 && len(vector) != s.dimensions {
		return nil, fmt.Errorf("query has dimension %d, want %d: %w",
			len(vector), s.dimensions, domain.ErrDimensionMismatch)
	}

	hits := make([]driven.Hit, 0, len(s.points))
	for _, p := range s.points {
		if !matches(p.Payload, filter) {
			continue
		}
		hits = append(hits, driven.Hit{
			ID:      p.ID,
			Score:   cosine(vector, p.Vector),
			Payload: p.Payload,
		})
	}

	sort.Slice(hits, func(i, j int) bool { return hits[i].Score > hits[j].Score })
	if len(hits) > topK {
		hits = hits[:topK]
	}
	return hits, nil
}

// CountByHash returns how many stored chunks carry the fingerprint.
func (s *Store) CountByHash(_ context.Context, contentHash string) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n := 0
	for _, p := range s.points {
		if p.Payload.ContentHash == contentHash {
			n++
		}
	}
	return n, nil
}

// Len returns the number of stored points.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.points)
}

// Close releases resources.
func (s *Store) Close() error {
	return nil
}
