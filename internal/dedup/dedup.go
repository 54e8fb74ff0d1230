// Package dedup computes content fingerprints for chunk deduplication.
//
// Fingerprints are taken over the exact chunk bytes, not the whole
// document, so partial content reuse across documents is still caught.
package dedup

import (
	"crypto/sha256"
	"encoding/hex"
	"sync"
)

// Fingerprint returns the hex sha256 of content.
func Fingerprint(content string) string {
	sum := sha256.Sum256([]byte(content))
	return hex.EncodeToString(sum[:])
}

// Set tracks fingerprints seen within a single ingestion run.
// Safe for concurrent use.
type Set struct {
	mu   sync.Mutex
	seen map[string]struct{}
}

// NewSet creates an empty fingerprint set.
func NewSet() *Set {
	return &Set{seen: make(map[string]struct{})}
}

// AddIfNew records the fingerprint of content. It returns the fingerprint
// and true if the content had not been seen before.
func (s *Set) AddIfNew(content string) (string, bool) {
	fp := Fingerprint(content)
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.seen[fp]; ok {
		return fp, false
	}
	s.seen[fp] = struct{}{}
	return fp, true
}
