package watcher

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/bookchat/internal/core/domain"
	"github.com/custodia-labs/bookchat/internal/core/ports/driving"
)

type stubIngestion struct {
	mu    sync.Mutex
	descs []driving.SourceDescriptor
}

func (s *stubIngestion) Start(_ context.Context, desc driving.SourceDescriptor) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.descs = append(s.descs, desc)
	return "run-1", nil
}

func (s *stubIngestion) Status(context.Context, string) (*domain.IngestionReport, error) {
	return nil, domain.ErrNotFound
}

func (s *stubIngestion) Cancel(context.Context, string) error {
	return domain.ErrNotFound
}

func (s *stubIngestion) starts() []driving.SourceDescriptor {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]driving.SourceDescriptor, len(s.descs))
	copy(out, s.descs)
	return out
}

func TestNewValidatesInput(t *testing.T) {
	_, err := New(nil, "/tmp", time.Second)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = New(&stubIngestion{}, "", time.Second)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestRunRejectsMissingRoot(t *testing.T) {
	w, err := New(&stubIngestion{}, filepath.Join(t.TempDir(), "missing"), time.Second)
	require.NoError(t, err)

	err = w.Run(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "root path error")
}

func TestBurstOfWritesTriggersSingleRun(t *testing.T) {
	root := t.TempDir()
	service := &stubIngestion{}
	w, err := New(service, root, 100*time.Millisecond)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan struct{})
	go func() {
		defer close(done)
		w.Run(ctx)
	}()
	time.Sleep(50 * time.Millisecond)

	for i := 0; i < 5; i++ {
		name := filepath.Join(root, "ch"+string(rune('a'+i))+".md")
		require.NoError(t, os.WriteFile(name, []byte("# chapter"), 0644))
		time.Sleep(10 * time.Millisecond)
	}

	require.Eventually(t, func() bool {
		return len(service.starts()) == 1
	}, 3*time.Second, 20*time.Millisecond, "debounced burst should start exactly one run")

	// Quiet period with no further changes starts nothing new.
	time.Sleep(300 * time.Millisecond)
	starts := service.starts()
	require.Len(t, starts, 1)
	assert.Equal(t, root, starts[0].Path)
	assert.True(t, starts[0].Recursive)

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("watcher did not stop after context cancellation")
	}
}

func TestUnsupportedFilesAreIgnored(t *testing.T) {
	root := t.TempDir()
	service := &stubIngestion{}
	w, err := New(service, root, 100*time.Millisecond)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go w.Run(ctx)
	time.Sleep(50 * time.Millisecond)

	require.NoError(t, os.WriteFile(filepath.Join(root, "cover.pdf"), []byte("%PDF"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(root, ".draft.md"), []byte("# wip"), 0644))

	time.Sleep(400 * time.Millisecond)
	assert.Empty(t, service.starts())
}

func TestRelevant(t *testing.T) {
	w, err := New(&stubIngestion{}, t.TempDir(), time.Second)
	require.NoError(t, err)

	tests := []struct {
		name     string
		event    fsnotify.Event
		expected bool
	}{
		{"markdown write", fsnotify.Event{Name: "/books/ch1.md", Op: fsnotify.Write}, true},
		{"text create", fsnotify.Event{Name: "/books/notes.txt", Op: fsnotify.Create}, true},
		{"mdx remove", fsnotify.Event{Name: "/books/intro.mdx", Op: fsnotify.Remove}, true},
		{"directory create", fsnotify.Event{Name: "/books/part2", Op: fsnotify.Create}, true},
		{"pdf write", fsnotify.Event{Name: "/books/cover.pdf", Op: fsnotify.Write}, false},
		{"hidden file", fsnotify.Event{Name: "/books/.swap.md", Op: fsnotify.Write}, false},
		{"chmod only", fsnotify.Event{Name: "/books/ch1.md", Op: fsnotify.Chmod}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, w.relevant(tt.event))
		})
	}
}

func TestIsHidden(t *testing.T) {
	assert.True(t, isHidden("/books/.git"))
	assert.True(t, isHidden(".hidden.md"))
	assert.False(t, isHidden("/books/ch1.md"))
	assert.False(t, isHidden("."))
}

func TestCloseIsIdempotent(t *testing.T) {
	w, err := New(&stubIngestion{}, t.TempDir(), time.Second)
	require.NoError(t, err)

	assert.NoError(t, w.Close())
	assert.NoError(t, w.Close())
}
