package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/bookchat/internal/core/domain"
	"github.com/custodia-labs/bookchat/internal/core/ports/driven"
)

// --- Mock implementations ---

// mockEmbedder implements driven.EmbeddingProvider for testing.
type mockEmbedder struct {
	vector   []float32
	embedErr error
	dims     int
}

func (m *mockEmbedder) EmbedBatch(_ context.Context, texts []string) ([][]float32, error) {
	if m.embedErr != nil {
		return nil, m.embedErr
	}
	out := make([][]float32, len(texts))
	for i := range texts {
		out[i] = m.vector
	}
	return out, nil
}

func (m *mockEmbedder) Dimensions() int              { return m.dims }
func (m *mockEmbedder) ModelName() string            { return "mock" }
func (m *mockEmbedder) Ping(_ context.Context) error { return nil }
func (m *mockEmbedder) Close() error                 { return nil }

// mockVectorStore implements driven.VectorStore for testing.
type mockVectorStore struct {
	hits       []driven.Hit
	queryErr   error
	lastFilter *driven.Filter
	lastTopK   int
	upserted   []driven.Point
	hashCounts map[string]int
	upsertErr  error
	countErr   error
}

func (m *mockVectorStore) EnsureCollection(_ context.Context, _ int) error { return nil }

func (m *mockVectorStore) Upsert(_ context.Context, points []driven.Point) error {
	if m.upsertErr != nil {
		return m.upsertErr
	}
	m.upserted = append(m.upserted, points...)
	return nil
}

func (m *mockVectorStore) Query(_ context.Context, _ []float32, filter *driven.Filter, topK int) ([]driven.Hit, error) {
	if m.queryErr != nil {
		return nil, m.queryErr
	}
	m.lastFilter = filter
	m.lastTopK = topK
	return m.hits, nil
}

func (m *mockVectorStore) CountByHash(_ context.Context, hash string) (int, error) {
	if m.countErr != nil {
		return 0, m.countErr
	}
	return m.hashCounts[hash], nil
}

func (m *mockVectorStore) Close() error { return nil }

func hit(sourceID string, index int, score float64) driven.Hit {
	return driven.Hit{
		ID:    sourceID,
		Score: score,
		Payload: driven.ChunkPayload{
			SourceID:   sourceID,
			ChunkIndex: index,
			Text:       "content",
		},
	}
}

func newTestRetrieval(store *mockVectorStore) *RetrievalEngine {
	cfg := domain.DefaultConfig()
	cfg.TopK = 5
	cfg.SimilarityThreshold = 0.35
	return NewRetrievalEngine(&mockEmbedder{vector: []float32{1, 0}, dims: 2}, store, cfg)
}

func TestRetrieveFiltersBelowThreshold(t *testing.T) {
	store := &mockVectorStore{hits: []driven.Hit{
		hit("a", 0, 0.9),
		hit("b", 1, 0.34),
		hit("c", 2, 0.36),
	}}
	engine := newTestRetrieval(store)

	chunks, err := engine.Retrieve(context.Background(), "question", nil)
	require.NoError(t, err)
	require.Len(t, chunks, 2)
	assert.Equal(t, "a", chunks[0].SourceID)
	assert.Equal(t, "c", chunks[1].SourceID)
}

func TestRetrieveAllBelowThresholdIsEmpty(t *testing.T) {
	store := &mockVectorStore{hits: []driven.Hit{hit("a", 0, 0.1), hit("b", 1, 0.2)}}
	engine := newTestRetrieval(store)

	chunks, err := engine.Retrieve(context.Background(), "question", nil)
	require.NoError(t, err)
	assert.Empty(t, chunks)
}

func TestRetrieveOrdersByScoreThenIndexThenSource(t *testing.T) {
	store := &mockVectorStore{hits: []driven.Hit{
		hit("b", 3, 0.5),
		hit("a", 3, 0.5),
		hit("a", 1, 0.5),
		hit("c", 0, 0.8),
	}}
	engine := newTestRetrieval(store)

	chunks, err := engine.Retrieve(context.Background(), "question", nil)
	require.NoError(t, err)
	require.Len(t, chunks, 4)
	assert.Equal(t, "c", chunks[0].SourceID)
	assert.Equal(t, 1, chunks[1].ChunkIndex)
	assert.Equal(t, "a", chunks[2].SourceID)
	assert.Equal(t, "b", chunks[3].SourceID)
}

func TestRetrieveEmptyQuestion(t *testing.T) {
	engine := newTestRetrieval(&mockVectorStore{})
	_, err := engine.Retrieve(context.Background(), "   ", nil)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestRetrieveInvalidSelection(t *testing.T) {
	engine := newTestRetrieval(&mockVectorStore{})
	sel := &domain.ContentSelection{Type: domain.SelectionPageRange, PageStart: 9, PageEnd: 3}
	_, err := engine.Retrieve(context.Background(), "question", sel)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestRetrievePassesSelectionFilter(t *testing.T) {
	store := &mockVectorStore{}
	engine := newTestRetrieval(store)

	sel := &domain.ContentSelection{Type: domain.SelectionChapter, Chapter: "intro"}
	_, err := engine.Retrieve(context.Background(), "question", sel)
	require.NoError(t, err)
	require.NotNil(t, store.lastFilter)
	assert.Equal(t, "intro", store.lastFilter.Chapter)
	assert.Equal(t, 5, store.lastTopK)

	sel = &domain.ContentSelection{Type: domain.SelectionPageRange, PageStart: 2, PageEnd: 9}
	_, err = engine.Retrieve(context.Background(), "question", sel)
	require.NoError(t, err)
	require.NotNil(t, store.lastFilter)
	assert.True(t, store.lastFilter.ByPages)
	assert.Equal(t, 2, store.lastFilter.PageStart)
	assert.Equal(t, 9, store.lastFilter.PageEnd)
}

func TestRetrievePropagatesProviderErrors(t *testing.T) {
	engine := NewRetrievalEngine(&mockEmbedder{embedErr: domain.ErrCircuitOpen}, &mockVectorStore{}, domain.DefaultConfig())
	_, err := engine.Retrieve(context.Background(), "question", nil)
	assert.ErrorIs(t, err, domain.ErrCircuitOpen)
}
