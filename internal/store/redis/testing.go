package redis

import (
	"github.com/redis/rueidis"

	"github.com/hrtools/assessrag/internal/store"
)

// NewStoreForTest creates a Store with the provided rueidis client (test-only).
func NewStoreForTest(c rueidis.Client, def store.IndexDefinition) *Store {
	return &Store{client: c, def: def}
}
