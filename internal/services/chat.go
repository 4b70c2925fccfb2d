package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/mimrai-org/mimrai-sub004/internal/pkg/logger"
	"github.com/mimrai-org/mimrai-sub004/internal/repos"
	"github.com/mimrai-org/mimrai-sub004/internal/types"
)

type ChatService interface {
	GetThread(ctx context.Context, threadID string, teamID uuid.UUID) (*types.ChatThread, []*types.ChatMessage, error)
	ListThreads(ctx context.Context, teamID uuid.UUID, limit int) ([]*types.ChatThread, error)
	// RefreshThreadMeta re-derives the thread title and rolls the summary
	// from the persisted log. Invoked after the bridge appends turns.
	RefreshThreadMeta(ctx context.Context, threadID string, teamID uuid.UUID) error
}

type chatService struct {
	log        *logger.Logger
	chatRepo   repos.ChatRepo
	titleSvc   TitleService
	summarySvc SummaryService
}

func NewChatService(log *logger.Logger, chatRepo repos.ChatRepo, titleSvc TitleService, summarySvc SummaryService) ChatService {
	return &chatService{
		log:        log.With("service", "ChatService"),
		chatRepo:   chatRepo,
		titleSvc:   titleSvc,
		summarySvc: summarySvc,
	}
}

func (s *chatService) GetThread(ctx context.Context, threadID string, teamID uuid.UUID) (*types.ChatThread, []*types.ChatMessage, error) {
	thread, err := s.chatRepo.GetThread(ctx, nil, threadID, teamID)
	if err != nil {
		return nil, nil, err
	}
	messages, err := s.chatRepo.ListMessages(ctx, nil, threadID)
	if err != nil {
		return nil, nil, err
	}
	return thread, messages, nil
}

func (s *chatService) ListThreads(ctx context.Context, teamID uuid.UUID, limit int) ([]*types.ChatThread, error) {
	return s.chatRepo.ListThreads(ctx, nil, teamID, limit)
}

func (s *chatService) RefreshThreadMeta(ctx context.Context, threadID string, teamID uuid.UUID) error {
	thread, err := s.chatRepo.GetThread(ctx, nil, threadID, teamID)
	if errors.Is(err, repos.ErrNotFound) {
		// Nothing was bridged into this thread yet.
		return nil
	}
	if err != nil {
		return fmt.Errorf("load thread: %w", err)
	}
	messages, err := s.chatRepo.ListMessages(ctx, nil, threadID)
	if err != nil {
		return fmt.Errorf("load thread messages: %w", err)
	}

	title, err := s.titleSvc.Synthesize(ctx, messages, thread.Title)
	if err != nil {
		return fmt.Errorf("synthesize title: %w", err)
	}
	if title != "" && title != thread.Title {
		if err := s.chatRepo.UpdateTitle(ctx, nil, threadID, title); err != nil {
			return fmt.Errorf("persist title: %w", err)
		}
	}

	var lastSummaryAt time.Time
	if thread.LastSummaryAt != nil {
		lastSummaryAt = *thread.LastSummaryAt
	}
	if _, err := s.summarySvc.Roll(ctx, threadID, lastSummaryAt, thread.Summary); err != nil {
		return fmt.Errorf("roll summary: %w", err)
	}
	return nil
}
