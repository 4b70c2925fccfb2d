package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/mimrai-org/mimrai-sub004/internal/pkg/logger"
	"github.com/mimrai-org/mimrai-sub004/internal/repos"
)

// summaryBatchThreshold is the number of new messages that must accumulate
// before a roll regenerates the summary. At or under the threshold the
// previous summary is returned unchanged.
const summaryBatchThreshold = 20

const summaryInstruction = "You maintain a rolling summary of a conversation. Fold the new messages into the previous summary. Focus on decisions made and key facts; drop small talk. Reply with the updated summary only."

const noPreviousSummary = "(no previous summary)"

type SummaryService interface {
	// Roll fetches messages created strictly after lastSummaryAt and, when
	// enough have accumulated, folds them into an updated summary persisted
	// on the thread. The summary read and write are not transactionally
	// coupled; concurrent rolls race and the last write wins.
	Roll(ctx context.Context, threadID string, lastSummaryAt time.Time, lastSummary string) (string, error)
}

type summaryService struct {
	log      *logger.Logger
	gen      TextGenerator
	chatRepo repos.ChatRepo
	now      func() time.Time
}

func NewSummaryService(log *logger.Logger, gen TextGenerator, chatRepo repos.ChatRepo) SummaryService {
	return &summaryService{
		log:      log.With("service", "SummaryService"),
		gen:      gen,
		chatRepo: chatRepo,
		now:      time.Now,
	}
}

func (s *summaryService) Roll(ctx context.Context, threadID string, lastSummaryAt time.Time, lastSummary string) (string, error) {
	newMessages, err := s.chatRepo.ListMessagesAfter(ctx, nil, threadID, lastSummaryAt)
	if err != nil {
		return "", fmt.Errorf("list messages after %s: %w", lastSummaryAt, err)
	}

	if len(newMessages) <= summaryBatchThreshold {
		return lastSummary, nil
	}

	var lines []string
	for _, m := range newMessages {
		for _, text := range m.TextParts() {
			lines = append(lines, fmt.Sprintf("%s: %s", m.Role, text))
		}
	}

	previous := lastSummary
	if strings.TrimSpace(previous) == "" {
		previous = noPreviousSummary
	}
	input := fmt.Sprintf("Previous summary:\n%s\n\nNew messages:\n%s", previous, strings.Join(lines, "\n"))

	updated, err := s.gen.GenerateText(ctx, summaryInstruction, input)
	if err != nil {
		return "", fmt.Errorf("generate summary: %w", err)
	}
	updated = strings.TrimSpace(updated)

	if err := s.chatRepo.UpdateSummary(ctx, nil, threadID, updated, s.now().UTC()); err != nil {
		return "", fmt.Errorf("persist summary: %w", err)
	}
	return updated, nil
}
