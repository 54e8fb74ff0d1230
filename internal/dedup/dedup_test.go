package dedup

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestFingerprint_Deterministic tests stable hashing over exact bytes
func TestFingerprint_Deterministic(t *testing.T) {
	a := Fingerprint("the exact same content")
	b := Fingerprint("the exact same content")
	assert.Equal(t, a, b)
	assert.Len(t, a, 64)

	// Fingerprinting is over exact bytes: whitespace differences matter.
	c := Fingerprint("the exact  same content")
	assert.NotEqual(t, a, c)
}

// TestSet_AddIfNew tests duplicate detection
func TestSet_AddIfNew(t *testing.T) {
	s := NewSet()

	fp1, fresh := s.AddIfNew("chunk one")
	require.True(t, fresh)
	assert.Equal(t, Fingerprint("chunk one"), fp1)

	fp2, fresh := s.AddIfNew("chunk one")
	assert.False(t, fresh)
	assert.Equal(t, fp1, fp2)

	_, fresh = s.AddIfNew("chunk two")
	assert.True(t, fresh)

	_, fresh = s.AddIfNew("chunk two")
	assert.False(t, fresh)
}
