// Package retrieval answers similarity queries over the indexed
// documents.
package retrieval

import (
	"context"

	"github.com/hrtools/assessrag/internal/domain"
)

// Store runs vector similarity queries.
type Store interface {
	Query(ctx context.Context, vector []float32, k int) ([]domain.Match, error)
}

// Embedder vectorizes text into embeddings.
type Embedder interface {
	Embed(ctx context.Context, text string) (domain.EmbeddingResult, error)
}
