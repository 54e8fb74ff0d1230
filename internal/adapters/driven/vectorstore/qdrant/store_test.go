package qdrant

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/bookchat/internal/core/domain"
	"github.com/custodia-labs/bookchat/internal/core/ports/driven"
)

func newTestStore(handler http.HandlerFunc) (*Store, *httptest.Server) {
	server := httptest.NewServer(handler)
	store := NewStore(Config{BaseURL: server.URL, Collection: "test"})
	return store, server
}

func TestEnsureCollectionCreatesWhenMissing(t *testing.T) {
	var created bool
	var indexed []string

	store, server := newTestStore(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodGet && r.URL.Path == "/collections/test":
			w.WriteHeader(http.StatusNotFound)
		case r.Method == http.MethodPut && r.URL.Path == "/collections/test":
			var req createCollectionRequest
			require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
			assert.Equal(t, 4, req.Vectors.Size)
			assert.Equal(t, "Cosine", req.Vectors.Distance)
			created = true
			w.Write([]byte(`{"result":true}`))
		case r.Method == http.MethodPut && r.URL.Path == "/collections/test/index":
			var req createIndexRequest
			require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
			indexed = append(indexed, req.FieldName)
			w.Write([]byte(`{"result":true}`))
		default:
			t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
	})
	defer server.Close()

	require.NoError(t, store.EnsureCollection(context.Background(), 4))
	assert.True(t, created)
	assert.ElementsMatch(t, []string{"source_id", "chapter", "content_hash", "page_start", "page_end"}, indexed)
}

func TestEnsureCollectionDimensionMismatch(t *testing.T) {
	store, server := newTestStore(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"result":{"config":{"params":{"vectors":{"size":768}}}}}`))
	})
	defer server.Close()

	err := store.EnsureCollection(context.Background(), 1536)
	assert.ErrorIs(t, err, domain.ErrDimensionMismatch)
}

func TestQueryBuildsFilterAndParsesHits(t *testing.T) {
	store, server := newTestStore(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/collections/test/points/search", r.URL.Path)

		var req map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.EqualValues(t, 5, req["limit"])
		require.NotNil(t, req["filter"])

		w.Write([]byte(`{"result":[
			{"id":"p1","score":0.91,"payload":{"source_id":"book-ch1","chunk_index":2,"text":"hello"}},
			{"id":"p2","score":0.52,"payload":{"source_id":"book-ch1","chunk_index":7,"text":"world"}}
		]}`))
	})
	defer server.Close()

	hits, err := store.Query(context.Background(), []float32{1, 0}, &driven.Filter{Chapter: "ch1"}, 5)
	require.NoError(t, err)
	require.Len(t, hits, 2)
	assert.Equal(t, "p1", hits[0].ID)
	assert.InDelta(t, 0.91, hits[0].Score, 1e-9)
	assert.Equal(t, "book-ch1", hits[0].Payload.SourceID)
	assert.Equal(t, 7, hits[1].Payload.ChunkIndex)
}

func TestBuildFilterPageRange(t *testing.T) {
	f := buildFilter(&driven.Filter{ByPages: true, PageStart: 10, PageEnd: 20})
	require.NotNil(t, f)
	require.Len(t, f.Must, 2)

	assert.Nil(t, buildFilter(nil))
	assert.Nil(t, buildFilter(&driven.Filter{}))
}

func TestCountByHash(t *testing.T) {
	store, server := newTestStore(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/collections/test/points/count", r.URL.Path)

		var req countRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.True(t, req.Exact)
		require.NotNil(t, req.Filter)

		w.Write([]byte(`{"result":{"count":3}}`))
	})
	defer server.Close()

	n, err := store.CountByHash(context.Background(), "abc123")
	require.NoError(t, err)
	assert.Equal(t, 3, n)
}

func TestErrorMapping(t *testing.T) {
	tests := []struct {
		name   string
		status int
		want   error
	}{
		{"rate limited", http.StatusTooManyRequests, domain.ErrRateLimited},
		{"server error", http.StatusInternalServerError, domain.ErrUnavailable},
		{"bad gateway", http.StatusBadGateway, domain.ErrUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store, server := newTestStore(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
			})
			defer server.Close()

			err := store.Upsert(context.Background(), []driven.Point{{ID: "p1", Vector: []float32{1}}})
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestUpsertEmptyIsNoop(t *testing.T) {
	store := NewStore(Config{BaseURL: "http://unreachable.invalid"})
	assert.NoError(t, store.Upsert(context.Background(), nil))
}
