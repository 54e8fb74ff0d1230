package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/bookchat/internal/core/domain"
)

func TestReportStoreSaveAndGet(t *testing.T) {
	store := NewReportStore()
	ctx := context.Background()

	report := domain.IngestionReport{
		ID:         "r1",
		SourcePath: "/content",
		Status:     domain.StatusCompleted,
		StartedAt:  time.Now().UTC(),
	}
	require.NoError(t, store.Save(ctx, report))

	got, err := store.Get(ctx, "r1")
	require.NoError(t, err)
	assert.Equal(t, "/content", got.SourcePath)
	assert.Equal(t, domain.StatusCompleted, got.Status)
}

func TestReportStoreGetUnknown(t *testing.T) {
	store := NewReportStore()
	_, err := store.Get(context.Background(), "missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestReportStoreSaveReplaces(t *testing.T) {
	store := NewReportStore()
	ctx := context.Background()

	report := domain.IngestionReport{ID: "r1", Status: domain.StatusProcessing}
	require.NoError(t, store.Save(ctx, report))

	report.Status = domain.StatusFailed
	report.FailedFiles = 2
	require.NoError(t, store.Save(ctx, report))

	got, err := store.Get(ctx, "r1")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusFailed, got.Status)
	assert.Equal(t, 2, got.FailedFiles)
}

func TestReportStoreListNewestFirst(t *testing.T) {
	store := NewReportStore()
	ctx := context.Background()
	now := time.Now().UTC()

	require.NoError(t, store.Save(ctx, domain.IngestionReport{ID: "old", StartedAt: now.Add(-time.Hour)}))
	require.NoError(t, store.Save(ctx, domain.IngestionReport{ID: "new", StartedAt: now}))

	reports, err := store.List(ctx)
	require.NoError(t, err)
	require.Len(t, reports, 2)
	assert.Equal(t, "new", reports[0].ID)
	assert.Equal(t, "old", reports[1].ID)
}
