// Package logger prints the pipeline trace behind the --verbose flag.
//
// The ingestion and answer services report progress here: files chunked,
// fingerprints deduplicated, citations dropped, chunks excluded by the
// injection screen. Everything goes to stderr so it never mixes with
// command output on stdout, and nothing is printed unless verbose mode
// is on.
package logger

import (
	"fmt"
	"io"
	"os"
	"sync"
)

var (
	mu      sync.RWMutex
	verbose bool
	out     io.Writer = os.Stderr
)

// SetVerbose turns the trace on or off.
func SetVerbose(v bool) {
	mu.Lock()
	defer mu.Unlock()
	verbose = v
}

// IsVerbose reports whether the trace is on.
func IsVerbose() bool {
	mu.RLock()
	defer mu.RUnlock()
	return verbose
}

// SetOutput redirects the trace, for tests. Defaults to os.Stderr.
func SetOutput(w io.Writer) {
	mu.Lock()
	defer mu.Unlock()
	out = w
}

// write emits one tagged line under the read lock, so logging is safe
// against concurrent SetVerbose and SetOutput calls.
func write(tag, format string, args ...any) {
	mu.RLock()
	defer mu.RUnlock()
	if !verbose {
		return
	}
	fmt.Fprintf(out, "[%s] %s\n", tag, fmt.Sprintf(format, args...))
}

// Debug traces fine-grained pipeline steps.
func Debug(format string, args ...any) { write("DEBUG", format, args...) }

// Info traces run-level milestones.
func Info(format string, args ...any) { write("INFO", format, args...) }

// Warn traces recoverable trouble: degraded providers, dropped
// citations, excluded chunks.
func Warn(format string, args ...any) { write("WARN", format, args...) }
