package domain

import "time"

// MessageRole identifies the sender of a conversation message.
type MessageRole string

// Message roles.
const (
	RoleUser      MessageRole = "user"
	RoleAssistant MessageRole = "assistant"
)

// Message is one conversation turn. Messages are append-only: never edited
// or reordered after creation.
type Message struct {
	// ID is the unique identifier for the message.
	ID string

	// Role is the sender.
	Role MessageRole

	// Content is the message text.
	Content string

	// Selection is the scope restriction used for this turn, if any.
	// Only set on user messages.
	Selection *ContentSelection

	// Sources are the citations backing an assistant answer.
	// Only set on assistant messages.
	Sources []Source

	// Disclaimer is set on assistant messages whose answer is not fully
	// grounded in the corpus.
	Disclaimer string

	// CreatedAt is when the message was appended.
	CreatedAt time.Time
}

// Session is one logical dialogue. Created on first interaction; expires
// after a fixed inactivity window. History is strictly append-only.
type Session struct {
	// ID is the unique identifier for the session.
	ID string

	// CreatedAt is when the session was created.
	CreatedAt time.Time

	// LastActivity is the time of the most recent append.
	LastActivity time.Time

	// Messages is the ordered conversation history.
	Messages []Message
}

// Expired reports whether the session's inactivity window has elapsed at
// the given instant.
func (s *Session) Expired(now time.Time, window time.Duration) bool {
	return now.Sub(s.LastActivity) > window
}

// Clone returns a deep copy so callers cannot mutate stored history.
func (s *Session) Clone() *Session {
	cp := *s
	cp.Messages = make([]Message, len(s.Messages))
	copy(cp.Messages, s.Messages)
	return &cp
}
