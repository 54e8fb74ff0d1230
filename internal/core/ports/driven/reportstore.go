package driven

import (
	"context"

	"github.com/custodia-labs/bookchat/internal/core/domain"
)

// ReportStore retains ingestion reports for status polling.
type ReportStore interface {
	// Save stores or replaces a report snapshot.
	Save(ctx context.Context, report domain.IngestionReport) error

	// Get retrieves a report by ID, or domain.ErrNotFound.
	Get(ctx context.Context, id string) (*domain.IngestionReport, error)

	// List returns all retained reports, newest first.
	List(ctx context.Context) ([]domain.IngestionReport, error)
}
