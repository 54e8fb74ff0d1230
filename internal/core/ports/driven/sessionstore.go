package driven

import (
	"context"
	"time"

	"github.com/custodia-labs/bookchat/internal/core/domain"
)

// SessionStore persists conversation sessions.
//
// The default implementation is an in-process concurrency-safe map; a
// persistent implementation can be swapped in without touching the state
// machine logic. History is append-only: implementations never mutate or
// reorder stored messages.
type SessionStore interface {
	// Create stores a new session. An existing ID is domain.ErrInvalidInput.
	Create(ctx context.Context, session domain.Session) error

	// Get retrieves a session by ID, or domain.ErrNotFound.
	Get(ctx context.Context, id string) (*domain.Session, error)

	// Append adds one message to a session's history and advances
	// LastActivity to the message's CreatedAt.
	Append(ctx context.Context, id string, msg domain.Message) error

	// Delete removes a whole session, or domain.ErrNotFound.
	Delete(ctx context.Context, id string) error

	// SweepExpired deletes sessions whose LastActivity is before cutoff
	// and returns how many were removed.
	SweepExpired(ctx context.Context, cutoff time.Time) (int, error)
}
