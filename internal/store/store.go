// Package store defines the vector store capability contract shared by the
// in-process memory driver and the hosted redis driver. The composition root
// selects a driver by configuration; everything above it sees only Store.
package store

import (
	"context"
	"time"

	"github.com/hrtools/assessrag/internal/domain"
)

// Entry is one upsert unit: a document text keyed by id plus its vector.
// Upserts replace by id.
type Entry struct {
	ID     string
	Vector []float32
	Text   string
}

// Store is the vector store contract.
type Store interface {
	// Upsert inserts or replaces entries by id.
	Upsert(ctx context.Context, entries []Entry) error
	// Query returns up to k stored entries nearest to the vector,
	// most similar first.
	Query(ctx context.Context, vector []float32, k int) ([]domain.Match, error)
	Ping(ctx context.Context) error
	WaitForReady(ctx context.Context, timeout time.Duration) error
	Close()
}
