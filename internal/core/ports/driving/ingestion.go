package driving

import (
	"context"

	"github.com/custodia-labs/bookchat/internal/core/domain"
)

// SourceDescriptor identifies what an ingestion run should process.
type SourceDescriptor struct {
	// Path is a file or directory under the content root.
	Path string

	// Recursive scans subdirectories when Path is a directory.
	Recursive bool
}

// IngestionService runs document ingestion in the background.
//
// Runs are detached tasks identified by report ID: callers poll status
// rather than awaiting completion. Ingestion is idempotent per identical
// input: re-ingesting unchanged content creates no new chunks.
type IngestionService interface {
	// Start accepts a descriptor, registers a run and returns its report
	// ID immediately. Processing happens in the background.
	Start(ctx context.Context, desc SourceDescriptor) (string, error)

	// Status returns the current report snapshot for a run,
	// or domain.ErrNotFound for an unknown report ID.
	Status(ctx context.Context, reportID string) (*domain.IngestionReport, error)

	// Cancel requests cooperative cancellation of an in-flight run. The
	// report terminates as failed with partial counts preserved. Unknown
	// or already-finished runs return domain.ErrNotFound.
	Cancel(ctx context.Context, reportID string) error
}
