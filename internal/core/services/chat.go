package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/custodia-labs/bookchat/internal/core/domain"
	"github.com/custodia-labs/bookchat/internal/core/ports/driving"
	"github.com/custodia-labs/bookchat/internal/logger"
)

// Ensure ChatService implements the interface.
var _ driving.ChatService = (*ChatService)(nil)

// ChatService answers questions within sessions by composing retrieval,
// context assembly and generation.
//
// Send is serialised per session: one question appends exactly one user
// and one assistant message, and concurrent sends on the same session
// cannot interleave their pairs.
type ChatService struct {
	sessions  *SessionManager
	retriever *RetrievalEngine
	assembler *ContextAssembler
	generator *GenerationOrchestrator
}

// NewChatService creates a chat service.
func NewChatService(sessions *SessionManager, retriever *RetrievalEngine, assembler *ContextAssembler, generator *GenerationOrchestrator) *ChatService {
	return &ChatService{
		sessions:  sessions,
		retriever: retriever,
		assembler: assembler,
		generator: generator,
	}
}

// StartSession creates a fresh conversation session.
func (s *ChatService) StartSession(ctx context.Context) (*domain.Session, error) {
	return s.sessions.Start(ctx)
}

// Send asks a question within a session.
func (s *ChatService) Send(ctx context.Context, sessionID, question string, selection *domain.ContentSelection) (*domain.Answer, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return nil, fmt.Errorf("%w: empty question", domain.ErrInvalidInput)
	}
	if err := selection.Validate(); err != nil {
		return nil, err
	}

	lock := s.sessions.lockFor(sessionID)
	lock.Lock()
	defer lock.Unlock()

	// Both halves of the turn must fit before any provider work starts.
	remaining, err := s.sessions.Remaining(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if remaining < 2 {
		return nil, fmt.Errorf("session %s: %w", sessionID, domain.ErrMessageLimit)
	}

	answer, err := s.answer(ctx, question, selection)
	if err != nil {
		return nil, err
	}

	userMsg := domain.Message{
		Role:      domain.RoleUser,
		Content:   question,
		Selection: selection,
	}
	if err := s.sessions.Append(ctx, sessionID, userMsg); err != nil {
		return nil, err
	}

	assistantMsg := domain.Message{
		Role:       domain.RoleAssistant,
		Content:    answer.Text,
		Sources:    answer.Sources,
		Disclaimer: answer.Disclaimer,
	}
	if err := s.sessions.Append(ctx, sessionID, assistantMsg); err != nil {
		return nil, err
	}

	return answer, nil
}

// answer runs the retrieval, assembly and generation stages. Degraded
// retrieval skips straight to the fallback answer.
func (s *ChatService) answer(ctx context.Context, question string, selection *domain.ContentSelection) (*domain.Answer, error) {
	chunks, err := s.retriever.Retrieve(ctx, question, selection)
	if err != nil {
		if domain.IsDegraded(err) {
			logger.Warn("Retrieval degraded: %v", err)
			return &domain.Answer{
				Text:       FallbackText,
				Disclaimer: DisclaimerDegraded,
			}, nil
		}
		return nil, err
	}

	assembled := s.assembler.Assemble(chunks)
	return s.generator.Generate(ctx, question, assembled)
}

// History returns the ordered message list for a session.
func (s *ChatService) History(ctx context.Context, sessionID string) ([]domain.Message, error) {
	session, err := s.sessions.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	return session.Messages, nil
}

// DeleteSession removes a session and its history.
func (s *ChatService) DeleteSession(ctx context.Context, sessionID string) error {
	return s.sessions.Delete(ctx, sessionID)
}

// SweepExpired removes sessions past the inactivity window.
func (s *ChatService) SweepExpired(ctx context.Context) (int, error) {
	return s.sessions.SweepExpired(ctx)
}
