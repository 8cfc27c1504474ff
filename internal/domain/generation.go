package domain

import "context"

// Generator produces free text from a prompt. Implementations are expected to
// honour ctx deadlines; callers treat any error as a provider failure.
type Generator interface {
	Generate(ctx context.Context, prompt string) (GenerationResult, error)
}

// GenerationResult carries generated text and token usage.
type GenerationResult struct {
	Text        string
	TotalTokens int
}
