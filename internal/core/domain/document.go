package domain

import "time"

// FileType identifies a supported source file format.
// Ingestion accepts a small fixed whitelist; anything else is skipped.
type FileType string

// Supported file types.
const (
	FileTypeMarkdown  FileType = "md"
	FileTypeMarkdownX FileType = "mdx"
	FileTypeText      FileType = "txt"
)

// FileTypeFromExtension maps a lowercase extension (without the dot) to a
// FileType. The second return value is false for unsupported formats.
func FileTypeFromExtension(ext string) (FileType, bool) {
	switch FileType(ext) {
	case FileTypeMarkdown, FileTypeMarkdownX, FileTypeText:
		return FileType(ext), true
	}
	return "", false
}

// DocumentStatus tracks a document through the ingestion pipeline.
type DocumentStatus string

// Document processing states. A run as a whole reuses the same states:
// pending → processing → {completed | failed}.
const (
	StatusPending    DocumentStatus = "pending"
	StatusProcessing DocumentStatus = "processing"
	StatusCompleted  DocumentStatus = "completed"
	StatusFailed     DocumentStatus = "failed"
	StatusSkipped    DocumentStatus = "skipped"
)

// Document represents one ingested source unit.
// Created at ingestion start and mutated only by the ingestion orchestrator;
// retrieval and generation never touch it.
type Document struct {
	// ID is the unique identifier for the document.
	ID string

	// SourceID is the stable external identifier (derived from the
	// relative path stem). Citations refer to this.
	SourceID string

	// RelativePath is the path from the content root.
	RelativePath string

	// FileType is the source format.
	FileType FileType

	// FileSize is the size in bytes.
	FileSize int64

	// ContentHash is the sha256 fingerprint of the full text.
	ContentHash string

	// Status is the processing state.
	Status DocumentStatus

	// ChunkCount is the number of chunks produced from this document.
	ChunkCount int

	// CreatedAt is when ingestion of this document started.
	CreatedAt time.Time
}

// Chunk is a token-bounded slice of a Document and the unit of embedding
// and retrieval. Chunks are immutable once stored; re-ingestion of identical
// content is a no-op.
type Chunk struct {
	// ID is the unique identifier for the chunk.
	ID string

	// DocumentID links to the parent Document.
	DocumentID string

	// SourceID is the parent document's stable external identifier.
	SourceID string

	// Content is the text content of this chunk.
	Content string

	// Index is the ordinal position within the document.
	Index int

	// ContentHash is the sha256 fingerprint of the exact chunk bytes,
	// used for deduplication.
	ContentHash string

	// Embedding is the vector representation. Its dimension is fixed by
	// the embedding provider and constant across the whole index.
	Embedding []float32

	// Chapter is optional locational metadata.
	Chapter string

	// PageStart and PageEnd are optional page bounds. Zero means unset.
	PageStart int
	PageEnd   int
}

// RetrievedChunk is a chunk returned by the retrieval engine together with
// its similarity score.
type RetrievedChunk struct {
	SourceID   string
	ChunkIndex int
	Content    string
	Chapter    string
	PageStart  int
	PageEnd    int

	// Score is the cosine similarity against the query, in [0,1].
	Score float64
}
