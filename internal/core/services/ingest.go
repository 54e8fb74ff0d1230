package services

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/custodia-labs/bookchat/internal/chunker"
	"github.com/custodia-labs/bookchat/internal/core/domain"
	"github.com/custodia-labs/bookchat/internal/core/ports/driven"
	"github.com/custodia-labs/bookchat/internal/core/ports/driving"
	"github.com/custodia-labs/bookchat/internal/dedup"
	"github.com/custodia-labs/bookchat/internal/logger"
)

// Ensure IngestionOrchestrator implements the interface.
var _ driving.IngestionService = (*IngestionOrchestrator)(nil)

// task pairs the document record for one accepted file with the absolute
// path needed to read it. The record starts pending and is advanced by
// the worker that picks the task up.
type task struct {
	doc     domain.Document
	absPath string
}

// run tracks one in-flight ingestion.
type run struct {
	mu     sync.Mutex
	report domain.IngestionReport
	cancel context.CancelFunc
}

func (r *run) update(fn func(rep *domain.IngestionReport)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	fn(&r.report)
}

func (r *run) snapshot() *domain.IngestionReport {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.report.Clone()
}

// IngestionOrchestrator runs background ingestion: scan, chunk,
// deduplicate, embed, store.
//
// Each run is a detached task identified by its report ID. File-scoped
// failures are recorded and skipped; a provider outage aborts the whole
// run because continuing would fail every remaining file the same way.
// Cancellation is cooperative and terminates the run as failed with
// partial counts preserved.
type IngestionOrchestrator struct {
	embedder driven.EmbeddingProvider
	store    driven.VectorStore
	reports  driven.ReportStore
	chunks   *chunker.Chunker
	cfg      domain.Config

	mu   sync.Mutex
	runs map[string]*run
}

// NewIngestionOrchestrator creates an ingestion orchestrator.
func NewIngestionOrchestrator(
	embedder driven.EmbeddingProvider,
	store driven.VectorStore,
	reports driven.ReportStore,
	chunks *chunker.Chunker,
	cfg domain.Config,
) *IngestionOrchestrator {
	return &IngestionOrchestrator{
		embedder: embedder,
		store:    store,
		reports:  reports,
		chunks:   chunks,
		cfg:      cfg,
		runs:     make(map[string]*run),
	}
}

// Start registers a run and returns its report ID. Processing happens on
// a background goroutine detached from the caller's context.
func (o *IngestionOrchestrator) Start(ctx context.Context, desc driving.SourceDescriptor) (string, error) {
	path := desc.Path
	if path == "" {
		path = o.cfg.ContentRoot
	}
	if !filepath.IsAbs(path) {
		path = filepath.Join(o.cfg.ContentRoot, path)
	}
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return "", fmt.Errorf("source path %s: %w", path, domain.ErrNotFound)
		}
		return "", fmt.Errorf("stat %s: %w", path, err)
	}

	runCtx, cancel := context.WithCancel(context.Background())
	r := &run{
		report: domain.IngestionReport{
			ID:         uuid.NewString(),
			SourcePath: path,
			Status:     domain.StatusPending,
			StartedAt:  time.Now().UTC(),
		},
		cancel: cancel,
	}

	o.mu.Lock()
	o.runs[r.report.ID] = r
	o.mu.Unlock()

	go o.execute(runCtx, r, path, info.IsDir(), desc.Recursive)

	logger.Info("Ingestion run %s started for %s", r.report.ID, path)
	return r.report.ID, nil
}

// Status returns the current report snapshot for a run.
func (o *IngestionOrchestrator) Status(ctx context.Context, reportID string) (*domain.IngestionReport, error) {
	o.mu.Lock()
	r, ok := o.runs[reportID]
	o.mu.Unlock()
	if ok {
		return r.snapshot(), nil
	}
	return o.reports.Get(ctx, reportID)
}

// Cancel requests cooperative cancellation of an in-flight run.
func (o *IngestionOrchestrator) Cancel(ctx context.Context, reportID string) error {
	o.mu.Lock()
	r, ok := o.runs[reportID]
	o.mu.Unlock()
	if !ok {
		return fmt.Errorf("run %s: %w", reportID, domain.ErrNotFound)
	}
	if r.snapshot().Terminal() {
		return fmt.Errorf("run %s already finished: %w", reportID, domain.ErrNotFound)
	}
	logger.Info("Cancelling ingestion run %s", reportID)
	r.cancel()
	return nil
}

// execute drives one run to a terminal state.
func (o *IngestionOrchestrator) execute(ctx context.Context, r *run, path string, isDir, recursive bool) {
	defer r.cancel()

	r.update(func(rep *domain.IngestionReport) { rep.Status = domain.StatusProcessing })

	err := o.process(ctx, r, path, isDir, recursive)

	r.update(func(rep *domain.IngestionReport) {
		rep.CompletedAt = time.Now().UTC()
		if err != nil {
			rep.Status = domain.StatusFailed
		} else {
			rep.Status = domain.StatusCompleted
		}
	})

	final := r.snapshot()
	if saveErr := o.reports.Save(context.Background(), *final); saveErr != nil {
		logger.Warn("Failed to persist report %s: %v", final.ID, saveErr)
	}

	o.mu.Lock()
	delete(o.runs, final.ID)
	o.mu.Unlock()

	if err != nil {
		logger.Warn("Ingestion run %s failed after %s: %v", final.ID, final.Duration(), err)
		return
	}
	logger.Info("Ingestion run %s completed in %s: %d files, %d chunks, %d deduplicated",
		final.ID, final.Duration(), final.ProcessedFiles, final.ChunksCreated, final.ChunksDeduplicated)
}

// process scans, then fans files out to workers. The returned error is
// run-fatal; per-file failures are recorded on the report instead.
func (o *IngestionOrchestrator) process(ctx context.Context, r *run, path string, isDir, recursive bool) error {
	files, err := o.scan(r, path, isDir, recursive)
	if err != nil {
		return err
	}
	r.update(func(rep *domain.IngestionReport) { rep.TotalFiles = len(files) + rep.SkippedFiles })
	if len(files) == 0 {
		return ctx.Err()
	}

	if err := o.store.EnsureCollection(ctx, o.embedder.Dimensions()); err != nil {
		return fmt.Errorf("ensuring collection: %w", err)
	}

	seen := dedup.NewSet()
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(o.cfg.IngestConcurrency)

	for _, f := range files {
		f := f
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			f.doc.Status = domain.StatusProcessing
			if err := o.processFile(gctx, r, seen, &f.doc, f.absPath); err != nil {
				// Provider outages and cancellation abort the run.
				if domain.IsDegraded(err) || errors.Is(err, context.Canceled) {
					return err
				}
				f.doc.Status = domain.StatusFailed
				r.update(func(rep *domain.IngestionReport) {
					rep.AddError(domain.IngestionError{
						FilePath: f.doc.RelativePath,
						Type:     classifyFileError(err),
						Message:  err.Error(),
					})
				})
				logger.Warn("Document %s failed: %v", f.doc.RelativePath, err)
				return nil
			}
			f.doc.Status = domain.StatusCompleted
			logger.Debug("Document %s %s: %d chunks", f.doc.SourceID, f.doc.Status, f.doc.ChunkCount)
			return nil
		})
	}

	err = g.Wait()
	if errors.Is(err, context.Canceled) && ctx.Err() != nil {
		r.update(func(rep *domain.IngestionReport) {
			rep.AddError(domain.IngestionError{
				FilePath: path,
				Type:     domain.ErrTypeUnknown,
				Message:  domain.ErrRunCancelled.Error(),
			})
		})
		return domain.ErrRunCancelled
	}
	return err
}

// scan collects ingestable files as pending document records. Unsupported
// formats and oversized files are rejected here and counted as skipped,
// never as failures.
func (o *IngestionOrchestrator) scan(r *run, path string, isDir, recursive bool) ([]task, error) {
	root := path
	if !isDir {
		root = filepath.Dir(path)
	}

	var files []task
	appendFile := func(abs string, info fs.FileInfo) {
		rel, err := filepath.Rel(root, abs)
		if err != nil {
			rel = filepath.Base(abs)
		}
		ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(abs)), ".")
		ft, ok := domain.FileTypeFromExtension(ext)
		if !ok {
			r.update(func(rep *domain.IngestionReport) { rep.SkippedFiles++ })
			logger.Debug("Skipping %s: unsupported format %q", rel, ext)
			return
		}
		doc := domain.Document{
			ID:           uuid.NewString(),
			SourceID:     sourceIDFromPath(rel),
			RelativePath: rel,
			FileType:     ft,
			FileSize:     info.Size(),
			Status:       domain.StatusPending,
			CreatedAt:    time.Now().UTC(),
		}
		if doc.FileSize > o.cfg.MaxFileSize {
			doc.Status = domain.StatusSkipped
			r.update(func(rep *domain.IngestionReport) { rep.SkippedFiles++ })
			logger.Debug("Document %s %s: %d bytes over the %d byte limit",
				doc.SourceID, doc.Status, doc.FileSize, o.cfg.MaxFileSize)
			return
		}
		files = append(files, task{doc: doc, absPath: abs})
	}

	if !isDir {
		info, err := os.Stat(path)
		if err != nil {
			return nil, fmt.Errorf("stat %s: %w", path, err)
		}
		appendFile(path, info)
		return files, nil
	}

	err := filepath.WalkDir(path, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if p != path && !recursive {
				return filepath.SkipDir
			}
			if strings.HasPrefix(d.Name(), ".") && p != path {
				return filepath.SkipDir
			}
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		appendFile(p, info)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("scanning %s: %w", path, err)
	}
	return files, nil
}

// processFile chunks, deduplicates, embeds and stores one document,
// filling in its content hash and chunk count as it goes.
func (o *IngestionOrchestrator) processFile(ctx context.Context, r *run, seen *dedup.Set, doc *domain.Document, absPath string) error {
	raw, err := os.ReadFile(absPath)
	if err != nil {
		return err
	}
	doc.ContentHash = dedup.Fingerprint(string(raw))

	meta, body := parseFrontMatter(string(raw))
	if meta.Chapter == "" {
		if dir := filepath.Dir(doc.RelativePath); dir != "." {
			meta.Chapter = filepath.Base(dir)
		}
	}

	pieces := o.chunks.Split(body)
	doc.ChunkCount = len(pieces)
	if len(pieces) == 0 {
		r.update(func(rep *domain.IngestionReport) { rep.ProcessedFiles++ })
		return nil
	}

	// Deduplicate within the run and against already-stored content.
	var fresh []domain.Chunk
	deduplicated := 0
	for i, text := range pieces {
		fp, isNew := seen.AddIfNew(text)
		if !isNew {
			deduplicated++
			continue
		}
		n, err := o.store.CountByHash(ctx, fp)
		if err != nil {
			return fmt.Errorf("checking fingerprint: %w", err)
		}
		if n > 0 {
			deduplicated++
			continue
		}
		fresh = append(fresh, domain.Chunk{
			ID:          chunkPointID(doc.SourceID, i, fp),
			DocumentID:  doc.ID,
			SourceID:    doc.SourceID,
			Content:     text,
			Index:       i,
			ContentHash: fp,
			Chapter:     meta.Chapter,
			PageStart:   meta.PageStart,
			PageEnd:     meta.PageEnd,
		})
	}

	if len(fresh) > 0 {
		texts := make([]string, len(fresh))
		for i, c := range fresh {
			texts[i] = c.Content
		}
		vectors, err := o.embedder.EmbedBatch(ctx, texts)
		if err != nil {
			return fmt.Errorf("embedding %s: %w", doc.RelativePath, err)
		}
		if len(vectors) != len(fresh) {
			return fmt.Errorf("embedding %s: got %d vectors for %d chunks", doc.RelativePath, len(vectors), len(fresh))
		}

		now := time.Now().UTC()
		points := make([]driven.Point, len(fresh))
		for i := range fresh {
			if len(vectors[i]) != o.embedder.Dimensions() {
				return fmt.Errorf("embedding %s chunk %d: got %d dimensions, want %d: %w",
					doc.RelativePath, fresh[i].Index, len(vectors[i]), o.embedder.Dimensions(), domain.ErrDimensionMismatch)
			}
			fresh[i].Embedding = vectors[i]
			points[i] = driven.Point{
				ID:     fresh[i].ID,
				Vector: fresh[i].Embedding,
				Payload: driven.ChunkPayload{
					SourceID:    fresh[i].SourceID,
					ChunkIndex:  fresh[i].Index,
					ContentHash: fresh[i].ContentHash,
					Text:        fresh[i].Content,
					Timestamp:   now,
					Chapter:     fresh[i].Chapter,
					PageStart:   fresh[i].PageStart,
					PageEnd:     fresh[i].PageEnd,
				},
			}
		}

		if err := o.store.Upsert(ctx, points); err != nil {
			return fmt.Errorf("storing %s: %w", doc.RelativePath, err)
		}
	}

	r.update(func(rep *domain.IngestionReport) {
		rep.ProcessedFiles++
		rep.ChunksCreated += len(fresh)
		rep.ChunksDeduplicated += deduplicated
	})
	logger.Debug("Ingested %s: %d new chunks, %d deduplicated", doc.RelativePath, len(fresh), deduplicated)
	return nil
}

// chunkPointID derives a stable point ID so re-ingesting identical content
// upserts in place instead of accumulating duplicates.
func chunkPointID(sourceID string, index int, hash string) string {
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte(fmt.Sprintf("bookchat:%s:%d:%s", sourceID, index, hash))).String()
}

// sourceIDFromPath derives the stable citation identifier from a relative
// path: separators become dashes and the extension is dropped.
func sourceIDFromPath(relPath string) string {
	p := strings.TrimSuffix(relPath, filepath.Ext(relPath))
	p = filepath.ToSlash(p)
	return strings.ReplaceAll(p, "/", "-")
}

// classifyFileError maps a per-file failure to a report error category.
func classifyFileError(err error) domain.IngestionErrorType {
	switch {
	case os.IsNotExist(err):
		return domain.ErrTypeFileNotFound
	case os.IsPermission(err):
		return domain.ErrTypePermissionDenied
	case errors.Is(err, domain.ErrDimensionMismatch):
		return domain.ErrTypeEmbeddingError
	case strings.Contains(err.Error(), "embedding"):
		return domain.ErrTypeEmbeddingError
	case strings.Contains(err.Error(), "storing"), strings.Contains(err.Error(), "fingerprint"):
		return domain.ErrTypeStorageError
	default:
		return domain.ErrTypeUnknown
	}
}
