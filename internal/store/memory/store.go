// Package memory implements the vector store contract with an in-process
// brute-force index. It trades scale for zero infrastructure: every query
// scans all stored vectors under a read lock.
package memory

import (
	"context"
	"fmt"
	"math"
	"sort"
	"sync"
	"time"

	"github.com/hrtools/assessrag/internal/domain"
	"github.com/hrtools/assessrag/internal/store"
)

// Compile-time check: Store implements store.Store.
var _ store.Store = (*Store)(nil)

type row struct {
	vector []float32
	text   string
}

// Store keeps all entries in process memory, keyed by id.
type Store struct {
	mu  sync.RWMutex
	def store.IndexDefinition
	ids []string // first-insert order, stable tiebreak for equal scores
	row map[string]row
}

// NewStore creates an empty in-process store for the given index definition.
func NewStore(def store.IndexDefinition) (*Store, error) {
	if err := def.Validate(); err != nil {
		return nil, fmt.Errorf("invalid index definition: %w", err)
	}
	return &Store{def: def, row: make(map[string]row)}, nil
}

// Upsert inserts or replaces entries by id.
func (s *Store) Upsert(_ context.Context, entries []store.Entry) error {
	if len(entries) == 0 {
		return nil
	}

	for _, e := range entries {
		if len(e.Vector) != s.def.Dimensions {
			return &store.Error{Op: store.OpUpsert, Err: fmt.Errorf(
				"%w: id %q has %d dimensions, index wants %d",
				domain.ErrVectorDimMismatch, e.ID, len(e.Vector), s.def.Dimensions,
			)}
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, e := range entries {
		vec := make([]float32, len(e.Vector))
		copy(vec, e.Vector)

		if _, exists := s.row[e.ID]; !exists {
			s.ids = append(s.ids, e.ID)
		}
		s.row[e.ID] = row{vector: vec, text: e.Text}
	}
	return nil
}

// Query scans all entries and returns the top k by the index metric,
// most similar first.
func (s *Store) Query(_ context.Context, vector []float32, k int) ([]domain.Match, error) {
	if k <= 0 {
		return nil, &store.Error{Op: store.OpQuery, Err: fmt.Errorf("k must be positive, got %d", k)}
	}
	if len(vector) != s.def.Dimensions {
		return nil, &store.Error{Op: store.OpQuery, Err: fmt.Errorf(
			"%w: query has %d dimensions, index wants %d",
			domain.ErrVectorDimMismatch, len(vector), s.def.Dimensions,
		)}
	}

	s.mu.RLock()
	matches := make([]domain.Match, 0, len(s.ids))
	for _, id := range s.ids {
		r := s.row[id]
		matches = append(matches, domain.Match{
			ID:    id,
			Score: s.score(vector, r.vector),
			Text:  r.text,
		})
	}
	s.mu.RUnlock()

	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Score > matches[j].Score
	})

	if len(matches) > k {
		matches = matches[:k]
	}
	return matches, nil
}

// Ping always succeeds: there is no connection to lose.
func (s *Store) Ping(_ context.Context) error { return nil }

// WaitForReady returns immediately.
func (s *Store) WaitForReady(_ context.Context, _ time.Duration) error { return nil }

// Close is a no-op.
func (s *Store) Close() {}

// score ranks b against the query a under the index metric. Higher is closer
// for every metric; absolute values are driver-relative and never exposed.
func (s *Store) score(a, b []float32) float64 {
	switch s.def.Metric {
	case store.DistanceIP:
		return dot(a, b)
	case store.DistanceL2:
		return -l2Squared(a, b)
	default: // cosine, clamped to [0,1] like the redis driver's distance conversion
		return math.Max(0, cosine(a, b))
	}
}

func dot(a, b []float32) float64 {
	var sum float64
	for i := range a {
		sum += float64(a[i]) * float64(b[i])
	}
	return sum
}

func l2Squared(a, b []float32) float64 {
	var sum float64
	for i := range a {
		d := float64(a[i]) - float64(b[i])
		sum += d * d
	}
	return sum
}

func cosine(a, b []float32) float64 {
	var dotP, normA, normB float64
	for i := range a {
		dotP += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dotP / (math.Sqrt(normA) * math.Sqrt(normB))
}
