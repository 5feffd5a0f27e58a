package answer

import (
	"context"
	"fmt"
	"strings"
)

// NoAnswer is returned when no context is available to ground a
// recommendation.
const NoAnswer = "I don't know."

// Service produces grounded recommendations from retrieved context.
type Service struct {
	generator Generator
}

// New creates an answer service.
func New(generator Generator) *Service {
	return &Service{generator: generator}
}

// Answer generates assessment recommendations from the given context.
// A blank context short-circuits to NoAnswer without calling the
// provider.
func (s *Service) Answer(ctx context.Context, contextText string) (string, error) {
	if strings.TrimSpace(contextText) == "" {
		return NoAnswer, nil
	}

	result, err := s.generator.Generate(ctx, buildPrompt(contextText))
	if err != nil {
		return "", fmt.Errorf("generate answer: %w", err)
	}
	return result.Text, nil
}
