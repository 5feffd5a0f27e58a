// Package answer turns retrieved context into assessment
// recommendations via the generation provider.
package answer

import (
	"context"

	"github.com/hrtools/assessrag/internal/domain"
)

// Generator produces a completion for a prompt.
type Generator interface {
	Generate(ctx context.Context, prompt string) (domain.GenerationResult, error)
}
