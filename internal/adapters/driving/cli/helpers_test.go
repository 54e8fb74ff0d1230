package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/custodia-labs/bookchat/internal/core/domain"
	"github.com/custodia-labs/bookchat/internal/core/ports/driving"
)

// mockChatService records calls and returns canned answers.
type mockChatService struct {
	sendErr       error
	lastQuestion  string
	lastSelection *domain.ContentSelection
	deleted       []string
	swept         int
}

func (m *mockChatService) StartSession(context.Context) (*domain.Session, error) {
	now := time.Now().UTC()
	return &domain.Session{ID: "sess-test", CreatedAt: now, LastActivity: now}, nil
}

func (m *mockChatService) Send(_ context.Context, _ string, question string, selection *domain.ContentSelection) (*domain.Answer, error) {
	m.lastQuestion = question
	m.lastSelection = selection
	if m.sendErr != nil {
		return nil, m.sendErr
	}
	return &domain.Answer{
		Text:     "The mast broke during the night [voyage-ch3:0].",
		Grounded: true,
		Sources: []domain.Source{
			{SourceID: "voyage-ch3", ChunkIndex: 0, Score: 0.91, Excerpt: "The mast broke"},
		},
	}, nil
}

func (m *mockChatService) History(context.Context, string) ([]domain.Message, error) {
	return nil, nil
}

func (m *mockChatService) DeleteSession(_ context.Context, id string) error {
	m.deleted = append(m.deleted, id)
	return nil
}

func (m *mockChatService) SweepExpired(context.Context) (int, error) {
	return m.swept, nil
}

// mockIngestionService returns a completed report after one status poll.
type mockIngestionService struct {
	startErr  error
	lastDesc  driving.SourceDescriptor
	cancelled []string
	report    domain.IngestionReport
}

func (m *mockIngestionService) Start(_ context.Context, desc driving.SourceDescriptor) (string, error) {
	m.lastDesc = desc
	if m.startErr != nil {
		return "", m.startErr
	}
	return m.report.ID, nil
}

func (m *mockIngestionService) Status(_ context.Context, reportID string) (*domain.IngestionReport, error) {
	if reportID != m.report.ID {
		return nil, fmt.Errorf("report %s: %w", reportID, domain.ErrNotFound)
	}
	return m.report.Clone(), nil
}

func (m *mockIngestionService) Cancel(_ context.Context, reportID string) error {
	if reportID != m.report.ID {
		return fmt.Errorf("report %s: %w", reportID, domain.ErrNotFound)
	}
	m.cancelled = append(m.cancelled, reportID)
	return nil
}

func completedReport() domain.IngestionReport {
	started := time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)
	return domain.IngestionReport{
		ID:             "run-test",
		SourcePath:     "books",
		Status:         domain.StatusCompleted,
		StartedAt:      started,
		CompletedAt:    started.Add(2 * time.Second),
		TotalFiles:     3,
		ProcessedFiles: 2,
		SkippedFiles:   1,
		ChunksCreated:  12,
	}
}

// setupTestServices swaps in mocks and returns a cleanup restoring the
// previous wiring.
func setupTestServices() (*mockChatService, *mockIngestionService, func()) {
	oldChat := chatService
	oldIngestion := ingestionService

	chat := &mockChatService{}
	ingestion := &mockIngestionService{report: completedReport()}
	chatService = chat
	ingestionService = ingestion

	return chat, ingestion, func() {
		chatService = oldChat
		ingestionService = oldIngestion
	}
}
