package services

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/custodia-labs/bookchat/internal/core/domain"
	"github.com/custodia-labs/bookchat/internal/core/ports/driven"
	"github.com/custodia-labs/bookchat/internal/logger"
)

// RetrievalEngine turns a question into scored, scope-filtered chunks.
//
// Metadata filtering happens inside the vector store query, never as a
// post-filter, so a narrow selection cannot starve the result set. Chunks
// below the similarity threshold are discarded; an empty result means the
// corpus has nothing relevant and the caller must not fabricate grounding.
type RetrievalEngine struct {
	embedder driven.EmbeddingProvider
	store    driven.VectorStore
	topK     int
	// threshold gates relevance. Scores are cosine similarities in [0,1].
	threshold float64
}

// NewRetrievalEngine creates a retrieval engine.
func NewRetrievalEngine(embedder driven.EmbeddingProvider, store driven.VectorStore, cfg domain.Config) *RetrievalEngine {
	return &RetrievalEngine{
		embedder:  embedder,
		store:     store,
		topK:      cfg.TopK,
		threshold: cfg.SimilarityThreshold,
	}
}

// filterFromSelection translates a validated selection into a store filter.
func filterFromSelection(sel *domain.ContentSelection) *driven.Filter {
	if sel.IsZero() {
		return nil
	}
	switch sel.Type {
	case domain.SelectionChapter:
		return &driven.Filter{Chapter: sel.Chapter}
	case domain.SelectionPageRange:
		return &driven.Filter{ByPages: true, PageStart: sel.PageStart, PageEnd: sel.PageEnd}
	}
	return nil
}

// Retrieve embeds the question and returns relevant chunks ordered by
// score descending, ties broken by chunk index then source ID.
func (e *RetrievalEngine) Retrieve(ctx context.Context, question string, sel *domain.ContentSelection) ([]domain.RetrievedChunk, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return nil, fmt.Errorf("%w: empty question", domain.ErrInvalidInput)
	}
	if err := sel.Validate(); err != nil {
		return nil, err
	}

	vectors, err := e.embedder.EmbedBatch(ctx, []string{question})
	if err != nil {
		return nil, fmt.Errorf("embedding query: %w", err)
	}
	if len(vectors) != 1 {
		return nil, fmt.Errorf("%w: expected 1 query embedding, got %d", domain.ErrUnavailable, len(vectors))
	}

	hits, err := e.store.Query(ctx, vectors[0], filterFromSelection(sel), e.topK)
	if err != nil {
		return nil, fmt.Errorf("querying vector store: %w", err)
	}

	chunks := make([]domain.RetrievedChunk, 0, len(hits))
	for _, h := range hits {
		if h.Score < e.threshold {
			continue
		}
		chunks = append(chunks, domain.RetrievedChunk{
			SourceID:   h.Payload.SourceID,
			ChunkIndex: h.Payload.ChunkIndex,
			Content:    h.Payload.Text,
			Chapter:    h.Payload.Chapter,
			PageStart:  h.Payload.PageStart,
			PageEnd:    h.Payload.PageEnd,
			Score:      h.Score,
		})
	}

	sort.SliceStable(chunks, func(i, j int) bool {
		if chunks[i].Score != chunks[j].Score {
			return chunks[i].Score > chunks[j].Score
		}
		if chunks[i].ChunkIndex != chunks[j].ChunkIndex {
			return chunks[i].ChunkIndex < chunks[j].ChunkIndex
		}
		return chunks[i].SourceID < chunks[j].SourceID
	})

	logger.Debug("Retrieved %d/%d chunks above threshold %.2f", len(chunks), len(hits), e.threshold)
	return chunks, nil
}
