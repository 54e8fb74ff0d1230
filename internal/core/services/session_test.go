package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/bookchat/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/bookchat/internal/core/domain"
)

func newTestSessionManager(t *testing.T) (*SessionManager, *time.Time) {
	t.Helper()
	cfg := domain.DefaultConfig()
	cfg.SessionMaxMessages = 4
	m := NewSessionManager(memory.NewSessionStore(), cfg)

	now := time.Now().UTC()
	m.now = func() time.Time { return now }
	return m, &now
}

func TestSessionManagerStartAndGet(t *testing.T) {
	m, _ := newTestSessionManager(t)
	ctx := context.Background()

	session, err := m.Start(ctx)
	require.NoError(t, err)
	assert.NotEmpty(t, session.ID)

	got, err := m.Get(ctx, session.ID)
	require.NoError(t, err)
	assert.Equal(t, session.ID, got.ID)
	assert.Empty(t, got.Messages)
}

func TestSessionManagerLazyExpiry(t *testing.T) {
	m, now := newTestSessionManager(t)
	ctx := context.Background()

	session, err := m.Start(ctx)
	require.NoError(t, err)

	// Advance past the inactivity window; access must report not found.
	*now = now.Add(24*time.Hour + time.Minute)
	_, err = m.Get(ctx, session.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	// The expired session is gone, not resurrectable.
	_, err = m.Get(ctx, session.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestSessionManagerActivityExtendsWindow(t *testing.T) {
	m, now := newTestSessionManager(t)
	ctx := context.Background()

	session, err := m.Start(ctx)
	require.NoError(t, err)

	*now = now.Add(20 * time.Hour)
	require.NoError(t, m.Append(ctx, session.ID, domain.Message{Role: domain.RoleUser, Content: "hi"}))

	// 20h + 20h exceeds the 24h window only without the append.
	*now = now.Add(20 * time.Hour)
	_, err = m.Get(ctx, session.ID)
	assert.NoError(t, err)
}

func TestSessionManagerMessageCap(t *testing.T) {
	m, _ := newTestSessionManager(t)
	ctx := context.Background()

	session, err := m.Start(ctx)
	require.NoError(t, err)

	for i := 0; i < 4; i++ {
		require.NoError(t, m.Append(ctx, session.ID, domain.Message{Role: domain.RoleUser, Content: "m"}))
	}
	err = m.Append(ctx, session.ID, domain.Message{Role: domain.RoleUser, Content: "over"})
	assert.ErrorIs(t, err, domain.ErrMessageLimit)

	got, err := m.Get(ctx, session.ID)
	require.NoError(t, err)
	assert.Len(t, got.Messages, 4)
}

func TestSessionManagerSweepExpired(t *testing.T) {
	m, now := newTestSessionManager(t)
	ctx := context.Background()

	old, err := m.Start(ctx)
	require.NoError(t, err)

	*now = now.Add(25 * time.Hour)
	fresh, err := m.Start(ctx)
	require.NoError(t, err)

	removed, err := m.SweepExpired(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, removed)

	_, err = m.Get(ctx, old.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
	_, err = m.Get(ctx, fresh.ID)
	assert.NoError(t, err)
}

func TestSessionManagerDelete(t *testing.T) {
	m, _ := newTestSessionManager(t)
	ctx := context.Background()

	session, err := m.Start(ctx)
	require.NoError(t, err)
	require.NoError(t, m.Delete(ctx, session.ID))

	_, err = m.Get(ctx, session.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.ErrorIs(t, m.Delete(ctx, session.ID), domain.ErrNotFound)
}
