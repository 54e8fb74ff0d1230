package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/custodia-labs/bookchat/internal/core/domain"
	"github.com/custodia-labs/bookchat/internal/core/ports/driven"
)

// sessionStore implements driven.SessionStore.
type sessionStore struct {
	store *Store
}

var _ driven.SessionStore = (*sessionStore)(nil)

// timeFormat is the canonical timestamp encoding for all stored times.
const timeFormat = time.RFC3339Nano

// Create stores a new session.
func (s *sessionStore) Create(ctx context.Context, session domain.Session) error {
	_, err := s.store.db.ExecContext(ctx, `
		INSERT INTO sessions (id, created_at, last_activity)
		VALUES (?, ?, ?)`,
		session.ID,
		session.CreatedAt.UTC().Format(timeFormat),
		session.LastActivity.UTC().Format(timeFormat),
	)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint") {
			return fmt.Errorf("session %s already exists: %w", session.ID, domain.ErrInvalidInput)
		}
		return fmt.Errorf("creating session: %w", err)
	}
	return nil
}

// Get retrieves a session with its full ordered history.
func (s *sessionStore) Get(ctx context.Context, id string) (*domain.Session, error) {
	row := s.store.db.QueryRowContext(ctx, `
		SELECT id, created_at, last_activity FROM sessions WHERE id = ?`, id)

	var session domain.Session
	var createdAt, lastActivity string
	if err := row.Scan(&session.ID, &createdAt, &lastActivity); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("session %s: %w", id, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("getting session: %w", err)
	}

	var err error
	if session.CreatedAt, err = time.Parse(timeFormat, createdAt); err != nil {
		return nil, fmt.Errorf("parsing created_at: %w", err)
	}
	if session.LastActivity, err = time.Parse(timeFormat, lastActivity); err != nil {
		return nil, fmt.Errorf("parsing last_activity: %w", err)
	}

	rows, err := s.store.db.QueryContext(ctx, `
		SELECT id, role, content, selection, sources, disclaimer, created_at
		FROM messages WHERE session_id = ? ORDER BY seq`, id)
	if err != nil {
		return nil, fmt.Errorf("getting messages: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var msg domain.Message
		var selection, sources sql.NullString
		var createdAt string
		if err := rows.Scan(&msg.ID, &msg.Role, &msg.Content, &selection, &sources, &msg.Disclaimer, &createdAt); err != nil {
			return nil, fmt.Errorf("scanning message: %w", err)
		}
		if msg.CreatedAt, err = time.Parse(timeFormat, createdAt); err != nil {
			return nil, fmt.Errorf("parsing message created_at: %w", err)
		}
		if selection.Valid && selection.String != "" {
			var sel domain.ContentSelection
			if err := json.Unmarshal([]byte(selection.String), &sel); err != nil {
				return nil, fmt.Errorf("decoding selection: %w", err)
			}
			msg.Selection = &sel
		}
		if sources.Valid && sources.String != "" {
			if err := json.Unmarshal([]byte(sources.String), &msg.Sources); err != nil {
				return nil, fmt.Errorf("decoding sources: %w", err)
			}
		}
		session.Messages = append(session.Messages, msg)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating messages: %w", err)
	}

	return &session, nil
}

// Append adds one message and advances the session's last activity.
func (s *sessionStore) Append(ctx context.Context, id string, msg domain.Message) error {
	var selection, sources any
	if msg.Selection != nil {
		data, err := json.Marshal(msg.Selection)
		if err != nil {
			return fmt.Errorf("encoding selection: %w", err)
		}
		selection = string(data)
	}
	if len(msg.Sources) > 0 {
		data, err := json.Marshal(msg.Sources)
		if err != nil {
			return fmt.Errorf("encoding sources: %w", err)
		}
		sources = string(data)
	}

	tx, err := s.store.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("starting transaction: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `
		UPDATE sessions SET last_activity = ? WHERE id = ?`,
		msg.CreatedAt.UTC().Format(timeFormat), id)
	if err != nil {
		return fmt.Errorf("updating session activity: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking session: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("session %s: %w", id, domain.ErrNotFound)
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO messages (id, session_id, seq, role, content, selection, sources, disclaimer, created_at)
		VALUES (?, ?, (SELECT COALESCE(MAX(seq), 0) + 1 FROM messages WHERE session_id = ?), ?, ?, ?, ?, ?, ?)`,
		msg.ID, id, id, msg.Role, msg.Content, selection, sources, msg.Disclaimer,
		msg.CreatedAt.UTC().Format(timeFormat),
	)
	if err != nil {
		return fmt.Errorf("inserting message: %w", err)
	}

	return tx.Commit()
}

// Delete removes a session and its messages.
func (s *sessionStore) Delete(ctx context.Context, id string) error {
	res, err := s.store.db.ExecContext(ctx, `DELETE FROM sessions WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting session: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking delete: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("session %s: %w", id, domain.ErrNotFound)
	}
	return nil
}

// SweepExpired deletes sessions whose last activity is before cutoff.
func (s *sessionStore) SweepExpired(ctx context.Context, cutoff time.Time) (int, error) {
	res, err := s.store.db.ExecContext(ctx, `
		DELETE FROM sessions WHERE last_activity < ?`,
		cutoff.UTC().Format(timeFormat))
	if err != nil {
		return 0, fmt.Errorf("sweeping sessions: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("counting swept sessions: %w", err)
	}
	return int(affected), nil
}
