package services

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/bookchat/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/bookchat/internal/core/domain"
	"github.com/custodia-labs/bookchat/internal/core/ports/driven"
)

func newTestChat(t *testing.T, store *mockVectorStore, gen *mockGenerator, cfg domain.Config) *ChatService {
	t.Helper()
	sessions := NewSessionManager(memory.NewSessionStore(), cfg)
	retriever := NewRetrievalEngine(&mockEmbedder{vector: []float32{1, 0}, dims: 2}, store, cfg)
	assembler := NewContextAssembler(cfg)
	generator := NewGenerationOrchestrator(gen, cfg)
	return NewChatService(sessions, retriever, assembler, generator)
}

func TestSendGroundedTurn(t *testing.T) {
	store := &mockVectorStore{hits: []driven.Hit{hit("book-ch1", 2, 0.9)}}
	gen := &mockGenerator{response: "Answer with citation [book-ch1:2]."}
	chat := newTestChat(t, store, gen, domain.DefaultConfig())
	ctx := context.Background()

	session, err := chat.StartSession(ctx)
	require.NoError(t, err)

	answer, err := chat.Send(ctx, session.ID, "what happens?", nil)
	require.NoError(t, err)
	assert.True(t, answer.Grounded)
	require.Len(t, answer.Sources, 1)
	assert.Equal(t, "book-ch1", answer.Sources[0].SourceID)

	history, err := chat.History(ctx, session.ID)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, domain.RoleUser, history[0].Role)
	assert.Equal(t, "what happens?", history[0].Content)
	assert.Equal(t, domain.RoleAssistant, history[1].Role)
	assert.Equal(t, answer.Text, history[1].Content)
	require.Len(t, history[1].Sources, 1)
}

func TestSendNoRelevantContentIsDisclaimed(t *testing.T) {
	store := &mockVectorStore{hits: []driven.Hit{hit("a", 0, 0.1)}}
	gen := &mockGenerator{response: "A general answer."}
	chat := newTestChat(t, store, gen, domain.DefaultConfig())
	ctx := context.Background()

	session, err := chat.StartSession(ctx)
	require.NoError(t, err)

	answer, err := chat.Send(ctx, session.ID, "unrelated question", nil)
	require.NoError(t, err)
	assert.False(t, answer.Grounded)
	assert.Equal(t, DisclaimerUngrounded, answer.Disclaimer)
	assert.Empty(t, answer.Sources)
	assert.Equal(t, ungroundedSystemPrompt, gen.lastSystem)
}

func TestSendDegradedRetrievalFallsBack(t *testing.T) {
	store := &mockVectorStore{queryErr: domain.ErrCircuitOpen}
	gen := &mockGenerator{response: "never used"}
	chat := newTestChat(t, store, gen, domain.DefaultConfig())
	ctx := context.Background()

	session, err := chat.StartSession(ctx)
	require.NoError(t, err)

	answer, err := chat.Send(ctx, session.ID, "question", nil)
	require.NoError(t, err)
	assert.Equal(t, FallbackText, answer.Text)
	assert.Equal(t, DisclaimerDegraded, answer.Disclaimer)

	// The degraded turn is still recorded.
	history, err := chat.History(ctx, session.ID)
	require.NoError(t, err)
	assert.Len(t, history, 2)
}

func TestSendUnknownSession(t *testing.T) {
	chat := newTestChat(t, &mockVectorStore{}, &mockGenerator{}, domain.DefaultConfig())
	_, err := chat.Send(context.Background(), "nope", "question", nil)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestSendEmptyQuestion(t *testing.T) {
	chat := newTestChat(t, &mockVectorStore{}, &mockGenerator{}, domain.DefaultConfig())
	_, err := chat.Send(context.Background(), "any", "  ", nil)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestSendMessageCapRejectsWholeTurn(t *testing.T) {
	cfg := domain.DefaultConfig()
	cfg.SessionMaxMessages = 3
	store := &mockVectorStore{hits: []driven.Hit{hit("a", 0, 0.9)}}
	gen := &mockGenerator{response: "ok [a:0]"}
	chat := newTestChat(t, store, gen, cfg)
	ctx := context.Background()

	session, err := chat.StartSession(ctx)
	require.NoError(t, err)

	_, err = chat.Send(ctx, session.ID, "first", nil)
	require.NoError(t, err)

	// Two messages used; a third turn would need two more slots.
	_, err = chat.Send(ctx, session.ID, "second", nil)
	assert.ErrorIs(t, err, domain.ErrMessageLimit)

	history, err := chat.History(ctx, session.ID)
	require.NoError(t, err)
	assert.Len(t, history, 2)
}

func TestHistoryAlternatesRolesInOrder(t *testing.T) {
	store := &mockVectorStore{hits: []driven.Hit{hit("a", 0, 0.9)}}
	gen := &mockGenerator{response: "reply [a:0]"}
	chat := newTestChat(t, store, gen, domain.DefaultConfig())
	ctx := context.Background()

	session, err := chat.StartSession(ctx)
	require.NoError(t, err)

	const turns = 5
	for i := 0; i < turns; i++ {
		_, err := chat.Send(ctx, session.ID, fmt.Sprintf("question %d", i), nil)
		require.NoError(t, err)
	}

	history, err := chat.History(ctx, session.ID)
	require.NoError(t, err)
	require.Len(t, history, 2*turns)
	for i, msg := range history {
		if i%2 == 0 {
			assert.Equal(t, domain.RoleUser, msg.Role)
			assert.Equal(t, fmt.Sprintf("question %d", i/2), msg.Content)
		} else {
			assert.Equal(t, domain.RoleAssistant, msg.Role)
		}
	}
}

func TestDeleteSessionRemovesHistory(t *testing.T) {
	chat := newTestChat(t, &mockVectorStore{}, &mockGenerator{}, domain.DefaultConfig())
	ctx := context.Background()

	session, err := chat.StartSession(ctx)
	require.NoError(t, err)
	require.NoError(t, chat.DeleteSession(ctx, session.ID))

	_, err = chat.History(ctx, session.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
