// Package watcher re-ingests the content root when source files change.
// Events are debounced so a burst of writes (an editor save, a git checkout)
// triggers a single ingestion run. Because ingestion is idempotent per
// identical content, re-running over the whole root is safe and cheap.
package watcher

import (
	"context"
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/custodia-labs/bookchat/internal/core/domain"
	"github.com/custodia-labs/bookchat/internal/core/ports/driving"
	"github.com/custodia-labs/bookchat/internal/logger"
)

// DefaultDebounce is the quiet period required before a change triggers
// an ingestion run.
const DefaultDebounce = 2 * time.Second

// Watcher monitors a content root and starts ingestion runs on change.
type Watcher struct {
	service  driving.IngestionService
	root     string
	debounce time.Duration

	mu     sync.Mutex
	fw     *fsnotify.Watcher
	closed bool
}

// New creates a watcher over root. A non-positive debounce falls back to
// DefaultDebounce.
func New(service driving.IngestionService, root string, debounce time.Duration) (*Watcher, error) {
	if service == nil {
		return nil, fmt.Errorf("%w: ingestion service is required", domain.ErrInvalidInput)
	}
	if root == "" {
		return nil, fmt.Errorf("%w: content root is required", domain.ErrInvalidInput)
	}
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	return &Watcher{
		service:  service,
		root:     root,
		debounce: debounce,
	}, nil
}

// Run watches until the context is cancelled. It blocks; callers typically
// run it in a goroutine next to the interactive loop.
func (w *Watcher) Run(ctx context.Context) error {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return fmt.Errorf("watcher is closed")
	}
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		w.mu.Unlock()
		return fmt.Errorf("creating watcher: %w", err)
	}
	w.fw = fw
	w.mu.Unlock()
	defer w.Close()

	if err := w.addRecursive(w.root); err != nil {
		return fmt.Errorf("root path error: %w", err)
	}
	logger.Debug("watching %s for changes", w.root)

	var timer *time.Timer
	var fire <-chan time.Time
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case event, ok := <-fw.Events:
			if !ok {
				return nil
			}
			if !w.relevant(event) {
				continue
			}
			// New directories must be watched before their contents settle.
			if event.Op.Has(fsnotify.Create) {
				if err := w.addRecursive(event.Name); err == nil {
					logger.Debug("watching new directory %s", event.Name)
				}
			}
			logger.Debug("change detected: %s %s", event.Op, event.Name)
			if timer == nil {
				timer = time.NewTimer(w.debounce)
				fire = timer.C
			} else {
				if !timer.Stop() {
					select {
					case <-timer.C:
					default:
					}
				}
				timer.Reset(w.debounce)
			}

		case <-fire:
			timer = nil
			fire = nil
			reportID, err := w.service.Start(ctx, driving.SourceDescriptor{
				Path:      w.root,
				Recursive: true,
			})
			if err != nil {
				logger.Warn("ingestion after change failed to start: %v", err)
				continue
			}
			logger.Info("content changed, started ingestion run %s", reportID)

		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			logger.Warn("watch error: %v", err)
		}
	}
}

// Close stops the watcher. Safe to call more than once.
func (w *Watcher) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return nil
	}
	w.closed = true
	if w.fw != nil {
		return w.fw.Close()
	}
	return nil
}

// relevant filters out events that cannot affect the index: metadata-only
// changes, hidden paths and unsupported file formats. Directory events stay
// relevant so new subtrees get picked up.
func (w *Watcher) relevant(event fsnotify.Event) bool {
	if event.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Remove|fsnotify.Rename) == 0 {
		return false
	}
	if isHidden(event.Name) {
		return false
	}
	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(event.Name)), ".")
	if ext != "" {
		if _, ok := domain.FileTypeFromExtension(ext); !ok {
			return false
		}
	}
	return true
}

// addRecursive watches path and, if it is a directory, all visible
// subdirectories. A path that has vanished by the time we get here is
// not an error.
func (w *Watcher) addRecursive(path string) error {
	return filepath.WalkDir(path, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			if p == path {
				return err
			}
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		if p != path && isHidden(p) {
			return filepath.SkipDir
		}
		return w.fw.Add(p)
	})
}

// isHidden reports whether any path element starts with a dot.
func isHidden(path string) bool {
	base := filepath.Base(path)
	return base != "." && strings.HasPrefix(base, ".")
}
