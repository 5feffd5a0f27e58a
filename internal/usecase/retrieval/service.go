package retrieval

import (
	"context"
	"fmt"
	"strings"

	"github.com/hrtools/assessrag/internal/domain"
)

// DefaultTopK is the number of matches returned per query.
const DefaultTopK = 5

// Service embeds queries and retrieves the most similar documents.
type Service struct {
	store    Store
	embedder Embedder
	topK     int
}

// New creates a retrieval service.
func New(st Store, embedder Embedder) *Service {
	return &Service{
		store:    st,
		embedder: embedder,
		topK:     DefaultTopK,
	}
}

// WithTopK configures how many matches a query returns.
func (s *Service) WithTopK(k int) *Service {
	if k > 0 {
		s.topK = k
	}
	return s
}

// Retrieve embeds the query and returns the top matches by similarity.
func (s *Service) Retrieve(ctx context.Context, query string) ([]domain.Match, error) {
	if strings.TrimSpace(query) == "" {
		return nil, fmt.Errorf("query is blank: %w", domain.ErrEmptyQuery)
	}

	result, err := s.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("vectorize query: %w", err)
	}

	domain.UsageFromContext(ctx).AddTokens(result.TotalTokens)

	matches, err := s.store.Query(ctx, result.Embedding, s.topK)
	if err != nil {
		return nil, fmt.Errorf("search index: %w: %w", err, domain.ErrVectorStoreError)
	}
	return matches, nil
}

// Texts projects matches onto their stored document text, in match order.
func Texts(matches []domain.Match) []string {
	texts := make([]string, len(matches))
	for i, m := range matches {
		texts[i] = m.Text
	}
	return texts
}
