package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/custodia-labs/bookchat/internal/core/domain"
	"github.com/custodia-labs/bookchat/internal/core/ports/driven"
)

// reportStore implements driven.ReportStore.
type reportStore struct {
	store *Store
}

var _ driven.ReportStore = (*reportStore)(nil)

// Save stores or replaces a report snapshot.
func (s *reportStore) Save(ctx context.Context, report domain.IngestionReport) error {
	var reportErrors any
	if len(report.Errors) > 0 {
		data, err := json.Marshal(report.Errors)
		if err != nil {
			return fmt.Errorf("encoding report errors: %w", err)
		}
		reportErrors = string(data)
	}

	var completedAt any
	if !report.CompletedAt.IsZero() {
		completedAt = report.CompletedAt.UTC().Format(timeFormat)
	}

	_, err := s.store.db.ExecContext(ctx, `
		INSERT INTO reports (
			id, source_path, status, started_at, completed_at,
			total_files, processed_files, skipped_files, failed_files,
			chunks_created, chunks_deduplicated, errors
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			status = excluded.status,
			completed_at = excluded.completed_at,
			total_files = excluded.total_files,
			processed_files = excluded.processed_files,
			skipped_files = excluded.skipped_files,
			failed_files = excluded.failed_files,
			chunks_created = excluded.chunks_created,
			chunks_deduplicated = excluded.chunks_deduplicated,
			errors = excluded.errors`,
		report.ID, report.SourcePath, string(report.Status),
		report.StartedAt.UTC().Format(timeFormat), completedAt,
		report.TotalFiles, report.ProcessedFiles, report.SkippedFiles, report.FailedFiles,
		report.ChunksCreated, report.ChunksDeduplicated, reportErrors,
	)
	if err != nil {
		return fmt.Errorf("saving report: %w", err)
	}
	return nil
}

// Get retrieves a report by ID.
func (s *reportStore) Get(ctx context.Context, id string) (*domain.IngestionReport, error) {
	row := s.store.db.QueryRowContext(ctx, `
		SELECT id, source_path, status, started_at, completed_at,
		       total_files, processed_files, skipped_files, failed_files,
		       chunks_created, chunks_deduplicated, errors
		FROM reports WHERE id = ?`, id)

	report, err := scanReport(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("report %s: %w", id, domain.ErrNotFound)
		}
		return nil, err
	}
	return report, nil
}

// List returns all retained reports, newest first.
func (s *reportStore) List(ctx context.Context) ([]domain.IngestionReport, error) {
	rows, err := s.store.db.QueryContext(ctx, `
		SELECT id, source_path, status, started_at, completed_at,
		       total_files, processed_files, skipped_files, failed_files,
		       chunks_created, chunks_deduplicated, errors
		FROM reports ORDER BY started_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("listing reports: %w", err)
	}
	defer rows.Close()

	var reports []domain.IngestionReport
	for rows.Next() {
		report, err := scanReport(rows)
		if err != nil {
			return nil, err
		}
		reports = append(reports, *report)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating reports: %w", err)
	}
	return reports, nil
}

// scanner abstracts sql.Row and sql.Rows for shared scanning.
type scanner interface {
	Scan(dest ...any) error
}

func scanReport(row scanner) (*domain.IngestionReport, error) {
	var report domain.IngestionReport
	var status, startedAt string
	var completedAt, reportErrors sql.NullString

	err := row.Scan(
		&report.ID, &report.SourcePath, &status, &startedAt, &completedAt,
		&report.TotalFiles, &report.ProcessedFiles, &report.SkippedFiles, &report.FailedFiles,
		&report.ChunksCreated, &report.ChunksDeduplicated, &reportErrors,
	)
	if err != nil {
		return nil, err
	}

	report.Status = domain.DocumentStatus(status)
	if report.StartedAt, err = time.Parse(timeFormat, startedAt); err != nil {
		return nil, fmt.Errorf("parsing started_at: %w", err)
	}
	if completedAt.Valid && completedAt.String != "" {
		if report.CompletedAt, err = time.Parse(timeFormat, completedAt.String); err != nil {
			return nil, fmt.Errorf("parsing completed_at: %w", err)
		}
	}
	if reportErrors.Valid && reportErrors.String != "" {
		if err := json.Unmarshal([]byte(reportErrors.String), &report.Errors); err != nil {
			return nil, fmt.Errorf("decoding report errors: %w", err)
		}
	}
	return &report, nil
}
