package domain

import "context"

// Generator is the prompt-to-completion contract for the hosted LLM.
type Generator interface {
	Generate(ctx context.Context, prompt string) (GenerationResult, error)
}

// GenerationResult carries the raw completion text and token usage.
// The text is returned to callers unvalidated.
type GenerationResult struct {
	Text        string
	TotalTokens int
}
