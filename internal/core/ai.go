package core

import (
	"context"

	"github.com/markdave123-py/Synopsis/internal/models"
)

// TextGenerator is the single call into a language model: a prompt in, generated
// text out, with the output bounded by maxOutputTokens.
type TextGenerator interface {
	Generate(ctx context.Context, prompt string, maxOutputTokens int) (string, error)
}

// TextGeneratorFunc adapts a plain function to TextGenerator.
type TextGeneratorFunc func(ctx context.Context, prompt string, maxOutputTokens int) (string, error)

func (f TextGeneratorFunc) Generate(ctx context.Context, prompt string, maxOutputTokens int) (string, error) {
	return f(ctx, prompt, maxOutputTokens)
}

// Summarizer turns an ordered chunk sequence into one summary.
type Summarizer interface {
	Summarize(ctx context.Context, chunks []models.Chunk) (string, error)
}
