package driving

import (
	"context"

	"github.com/custodia-labs/bookchat/internal/core/domain"
)

// ChatService answers questions over the ingested corpus within
// conversation sessions.
//
// Question answering always returns an answer value: grounded with
// citations, ungrounded with a disclaimer, or an explicit degraded
// response. Provider failures never surface as bare errors from Send.
type ChatService interface {
	// StartSession creates a fresh conversation session.
	StartSession(ctx context.Context) (*domain.Session, error)

	// Send asks a question within a session. Exactly one user and one
	// assistant message are appended. An expired or unknown session is
	// domain.ErrNotFound; creating a replacement session is the caller's
	// responsibility, never implicit.
	Send(ctx context.Context, sessionID, question string, selection *domain.ContentSelection) (*domain.Answer, error)

	// History returns the ordered message list for a session.
	History(ctx context.Context, sessionID string) ([]domain.Message, error)

	// DeleteSession removes a session and its history.
	DeleteSession(ctx context.Context, sessionID string) error

	// SweepExpired removes sessions past the inactivity window and
	// returns how many were removed.
	SweepExpired(ctx context.Context) (int, error)
}
