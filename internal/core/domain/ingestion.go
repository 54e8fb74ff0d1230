package domain

import "time"

// IngestionErrorType categorises a per-file ingestion failure.
type IngestionErrorType string

// Ingestion error categories. Unsupported and oversized files are not
// errors; the scan rejects them up front as skipped.
const (
	ErrTypeFileNotFound     IngestionErrorType = "file_not_found"
	ErrTypePermissionDenied IngestionErrorType = "permission_denied"
	ErrTypeEmbeddingError   IngestionErrorType = "embedding_error"
	ErrTypeStorageError     IngestionErrorType = "storage_error"
	ErrTypeUnknown          IngestionErrorType = "unknown"
)

// IngestionError records a single file-scoped failure. File errors never
// abort a run; only provider-level outages do.
type IngestionError struct {
	// FilePath is the file that failed.
	FilePath string

	// Type is the error category.
	Type IngestionErrorType

	// Message is the underlying error text.
	Message string

	// Timestamp is when the error occurred.
	Timestamp time.Time
}

// IngestionReport summarises one ingestion run. Created when the run starts,
// finalised exactly once when it completes or fails, and retained for status
// polling. A finished report is never mutated; re-ingestion creates a fresh
// run.
type IngestionReport struct {
	// ID identifies the run for status polling and cancellation.
	ID string

	// SourcePath is the descriptor the run was started with.
	SourcePath string

	// Status is pending → processing → {completed | failed}.
	// A cancelled run terminates as failed with partial counts preserved.
	Status DocumentStatus

	// StartedAt and CompletedAt bound the run.
	StartedAt   time.Time
	CompletedAt time.Time

	// File counters.
	TotalFiles     int
	ProcessedFiles int
	SkippedFiles   int
	FailedFiles    int

	// ChunksCreated counts chunks embedded and stored by this run.
	ChunksCreated int

	// ChunksDeduplicated counts chunks skipped because their fingerprint
	// was already known.
	ChunksDeduplicated int

	// Errors lists per-file failures.
	Errors []IngestionError
}

// AddError records a file-scoped failure and bumps the failed counter.
func (r *IngestionReport) AddError(e IngestionError) {
	if e.Timestamp.IsZero() {
		e.Timestamp = time.Now().UTC()
	}
	r.Errors = append(r.Errors, e)
	r.FailedFiles++
}

// Terminal reports whether the run has finished.
func (r *IngestionReport) Terminal() bool {
	return r.Status == StatusCompleted || r.Status == StatusFailed
}

// Duration returns the run duration, or zero if still in flight.
func (r *IngestionReport) Duration() time.Duration {
	if r.CompletedAt.IsZero() {
		return 0
	}
	return r.CompletedAt.Sub(r.StartedAt)
}

// Clone returns a deep copy safe to hand to status pollers.
func (r *IngestionReport) Clone() *IngestionReport {
	cp := *r
	cp.Errors = make([]IngestionError, len(r.Errors))
	copy(cp.Errors, r.Errors)
	return &cp
}
