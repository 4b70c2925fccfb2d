package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/mimrai-org/mimrai-sub004/internal/pkg/logger"
	"github.com/mimrai-org/mimrai-sub004/internal/types"
)

// UntitledChatTitle is the placeholder a thread keeps until there is enough
// conversation to name it.
const UntitledChatTitle = "Untitled chat"

// titleMinInputLength gates generation: transcripts at or under this length
// are too thin to produce a meaningful title.
const titleMinInputLength = 20

const titleInstruction = "Generate a 3-5 word descriptive title for this conversation. Reply with the title only, no extra text."

const titleFallbackLength = 50

const titleWindow = 3

type TitleService interface {
	// Synthesize returns the title to set on the thread. When currentTitle
	// was set by a user or an earlier run it is returned unchanged; an empty
	// return means no title could be produced.
	Synthesize(ctx context.Context, messages []*types.ChatMessage, currentTitle string) (string, error)
}

type titleService struct {
	log *logger.Logger
	gen TextGenerator
}

func NewTitleService(log *logger.Logger, gen TextGenerator) TitleService {
	return &titleService{
		log: log.With("service", "TitleService"),
		gen: gen,
	}
}

func (s *titleService) Synthesize(ctx context.Context, messages []*types.ChatMessage, currentTitle string) (string, error) {
	// Never overwrite a real title.
	if currentTitle != "" && currentTitle != UntitledChatTitle {
		return currentTitle, nil
	}

	window := messages
	if len(window) > titleWindow {
		window = window[len(window)-titleWindow:]
	}

	var lines []string
	for _, m := range window {
		for _, text := range m.TextParts() {
			lines = append(lines, fmt.Sprintf("%s: %s", m.Role, text))
		}
	}
	combined := strings.Join(lines, "\n")

	if len(combined) <= titleMinInputLength {
		return UntitledChatTitle, nil
	}

	title, err := s.gen.GenerateText(ctx, titleInstruction, combined)
	if err != nil {
		s.log.Warn("title generation failed, using truncated transcript", "error", err)
		return truncatedTitleFallback(window), nil
	}
	return strings.TrimSpace(title), nil
}

func truncatedTitleFallback(messages []*types.ChatMessage) string {
	var parts []string
	for _, m := range messages {
		if t := m.PlainText(); t != "" {
			parts = append(parts, t)
		}
	}
	plain := strings.Join(parts, " ")
	if plain == "" {
		return ""
	}
	if len(plain) > titleFallbackLength {
		plain = plain[:titleFallbackLength]
	}
	return plain
}
