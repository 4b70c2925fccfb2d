package services

import "context"

// TextGenerator is the narrow completion surface title and summary
// synthesis need. Satisfied by the openai client.
type TextGenerator interface {
	GenerateText(ctx context.Context, system string, user string) (string, error)
}
