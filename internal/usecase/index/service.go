package index

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/hrtools/assessrag/internal/domain"
	"github.com/hrtools/assessrag/internal/store"
)

// DefaultBatchSize is the number of entries per store write.
const DefaultBatchSize = 50

// Service handles document ingestion with automatic vectorization.
type Service struct {
	store     Store
	embedder  Embedder
	batchSize int
	logger    *zap.Logger
}

// New creates an index service.
func New(st Store, embedder Embedder, logger *zap.Logger) *Service {
	return &Service{
		store:     st,
		embedder:  embedder,
		batchSize: DefaultBatchSize,
		logger:    logger,
	}
}

// WithBatchSize configures the store write batch size.
func (s *Service) WithBatchSize(size int) *Service {
	if size > 0 {
		s.batchSize = size
	}
	return s
}

// Upsert validates, vectorizes, and stores the documents, returning
// their IDs in input order. Every document is validated before the
// first embedding call, and every document is embedded before the
// first write, so an embedding failure leaves the store untouched. A
// write failure on a later batch keeps earlier batches in place.
func (s *Service) Upsert(ctx context.Context, docs []domain.Document) ([]string, error) {
	for i := range docs {
		if err := docs[i].Validate(); err != nil {
			return nil, fmt.Errorf("document %d: %w", i, err)
		}
	}

	entries := make([]store.Entry, 0, len(docs))
	for i := range docs {
		result, err := s.embedder.Embed(ctx, docs[i].Text)
		if err != nil {
			return nil, fmt.Errorf("vectorize document %s: %w", docs[i].ID, err)
		}

		domain.UsageFromContext(ctx).AddTokens(result.TotalTokens)

		entries = append(entries, store.Entry{
			ID:     docs[i].ID,
			Vector: result.Embedding,
			Text:   docs[i].Text,
		})
	}

	batches := (len(entries) + s.batchSize - 1) / s.batchSize
	for start := 0; start < len(entries); start += s.batchSize {
		end := min(start+s.batchSize, len(entries))

		n := start/s.batchSize + 1
		s.logger.Debug("upserting batch",
			zap.Int("batch", n), zap.Int("of", batches), zap.Int("size", end-start))

		if err := s.store.Upsert(ctx, entries[start:end]); err != nil {
			return nil, fmt.Errorf("upsert batch %d of %d: %w: %w", n, batches, err, domain.ErrVectorStoreError)
		}
	}

	ids := make([]string, len(docs))
	for i := range docs {
		ids[i] = docs[i].ID
	}
	return ids, nil
}
