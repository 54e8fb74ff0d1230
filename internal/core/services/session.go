package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/custodia-labs/bookchat/internal/core/domain"
	"github.com/custodia-labs/bookchat/internal/core/ports/driven"
	"github.com/custodia-labs/bookchat/internal/logger"
)

// SessionManager enforces the session lifecycle on top of a SessionStore:
// inactivity expiry, the per-session message cap, and append-only history.
//
// Expiry is lazy. An expired session is detected on access, deleted, and
// reported as domain.ErrNotFound; SweepExpired exists for bulk cleanup but
// correctness never depends on it running.
type SessionManager struct {
	store       driven.SessionStore
	window      time.Duration
	maxMessages int

	// now is swappable for tests.
	now func() time.Time

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// NewSessionManager creates a session manager.
func NewSessionManager(store driven.SessionStore, cfg domain.Config) *SessionManager {
	return &SessionManager{
		store:       store,
		window:      cfg.SessionWindow,
		maxMessages: cfg.SessionMaxMessages,
		now:         func() time.Time { return time.Now().UTC() },
		locks:       make(map[string]*sync.Mutex),
	}
}

// lockFor returns the mutex serialising operations on one session.
func (m *SessionManager) lockFor(id string) *sync.Mutex {
	m.mu.Lock()
	defer m.mu.Unlock()
	l, ok := m.locks[id]
	if !ok {
		l = &sync.Mutex{}
		m.locks[id] = l
	}
	return l
}

func (m *SessionManager) dropLock(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.locks, id)
}

// Start creates a fresh session.
func (m *SessionManager) Start(ctx context.Context) (*domain.Session, error) {
	now := m.now()
	session := domain.Session{
		ID:           uuid.NewString(),
		CreatedAt:    now,
		LastActivity: now,
	}
	if err := m.store.Create(ctx, session); err != nil {
		return nil, fmt.Errorf("creating session: %w", err)
	}
	logger.Debug("Session %s created", session.ID)
	return &session, nil
}

// Get retrieves a live session. An expired session is deleted and reported
// as not found.
func (m *SessionManager) Get(ctx context.Context, id string) (*domain.Session, error) {
	session, err := m.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if session.Expired(m.now(), m.window) {
		logger.Debug("Session %s expired, removing", id)
		if err := m.store.Delete(ctx, id); err != nil {
			logger.Warn("Failed to remove expired session %s: %v", id, err)
		}
		m.dropLock(id)
		return nil, fmt.Errorf("session %s: %w", id, domain.ErrNotFound)
	}
	return session, nil
}

// Append adds one message to a session. The message cap applies to the
// total history length.
func (m *SessionManager) Append(ctx context.Context, id string, msg domain.Message) error {
	session, err := m.Get(ctx, id)
	if err != nil {
		return err
	}
	if len(session.Messages) >= m.maxMessages {
		return fmt.Errorf("session %s has %d messages: %w", id, len(session.Messages), domain.ErrMessageLimit)
	}
	if msg.ID == "" {
		msg.ID = uuid.NewString()
	}
	if msg.CreatedAt.IsZero() {
		msg.CreatedAt = m.now()
	}
	return m.store.Append(ctx, id, msg)
}

// Remaining reports how many more messages a session accepts.
func (m *SessionManager) Remaining(ctx context.Context, id string) (int, error) {
	session, err := m.Get(ctx, id)
	if err != nil {
		return 0, err
	}
	return m.maxMessages - len(session.Messages), nil
}

// Delete removes a session and its history.
func (m *SessionManager) Delete(ctx context.Context, id string) error {
	l := m.lockFor(id)
	l.Lock()
	defer l.Unlock()
	if err := m.store.Delete(ctx, id); err != nil {
		return err
	}
	m.dropLock(id)
	return nil
}

// SweepExpired removes all sessions past the inactivity window.
func (m *SessionManager) SweepExpired(ctx context.Context) (int, error) {
	cutoff := m.now().Add(-m.window)
	n, err := m.store.SweepExpired(ctx, cutoff)
	if err != nil {
		return 0, fmt.Errorf("sweeping sessions: %w", err)
	}
	if n > 0 {
		logger.Info("Swept %d expired sessions", n)
	}
	return n, nil
}
