// Package index vectorizes documents and writes them to the store in
// batches.
package index

import (
	"context"

	"github.com/hrtools/assessrag/internal/domain"
	"github.com/hrtools/assessrag/internal/store"
)

// Store persists vectorized documents.
type Store interface {
	Upsert(ctx context.Context, entries []store.Entry) error
}

// Embedder vectorizes text into embeddings.
type Embedder interface {
	Embed(ctx context.Context, text string) (domain.EmbeddingResult, error)
}
