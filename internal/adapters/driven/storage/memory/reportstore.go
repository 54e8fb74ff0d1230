package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/custodia-labs/bookchat/internal/core/domain"
	"github.com/custodia-labs/bookchat/internal/core/ports/driven"
)

// Ensure ReportStore implements the interface.
var _ driven.ReportStore = (*ReportStore)(nil)

// ReportStore is an in-memory implementation of driven.ReportStore.
type ReportStore struct {
	mu      sync.RWMutex
	reports map[string]*domain.IngestionReport
}

// NewReportStore creates a new in-memory report store.
func NewReportStore() *ReportStore {
	return &ReportStore{
		reports: make(map[string]*domain.IngestionReport),
	}
}

// Save stores or replaces a report snapshot.
func (s *ReportStore) Save(_ context.Context, report domain.IngestionReport) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reports[report.ID] = report.Clone()
	return nil
}

// Get retrieves a report by ID.
func (s *ReportStore) Get(_ context.Context, id string) (*domain.IngestionReport, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	report, ok := s.reports[id]
	if !ok {
		return nil, fmt.Errorf("report %s: %w", id, domain.ErrNotFound)
	}
	return report.Clone(), nil
}

// List returns all retained reports, newest first.
func (s *ReportStore) List(_ context.Context) ([]domain.IngestionReport, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.IngestionReport, 0, len(s.reports))
	for _, r := range s.reports {
		out = append(out, *r.Clone())
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].StartedAt.After(out[j].StartedAt)
	})
	return out, nil
}
