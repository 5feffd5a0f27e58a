package redis

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/hrtools/assessrag/internal/store"
)

// EnsureIndex creates the FT index if it does not exist yet.
// Safe to call on every boot; a concurrent create by another replica
// is treated as success.
func (s *Store) EnsureIndex(ctx context.Context) error {
	exists, err := s.indexExists(ctx)
	if err != nil {
		return err
	}
	if exists {
		return nil
	}

	if err := s.createIndex(ctx); err != nil {
		if errors.Is(err, store.ErrIndexExists) {
			return nil
		}
		return err
	}
	return nil
}

func (s *Store) createIndex(ctx context.Context) error {
	cmd := s.b().Arbitrary("FT.CREATE").Args(buildCreateArgs(&s.def)...).Build()
	if err := s.do(ctx, cmd).Error(); err != nil {
		if isRedisErr(err, "index already exists") {
			return store.ErrIndexExists
		}
		return &store.Error{Op: store.OpCreateIndex, Err: err}
	}
	return nil
}

// indexExists probes index existence via FT.INFO; "unknown index name" means absent.
func (s *Store) indexExists(ctx context.Context) (bool, error) {
	cmd := s.b().Arbitrary("FT.INFO").Args(s.def.Name).Build()
	if err := s.do(ctx, cmd).Error(); err != nil {
		if isRedisErr(err, "unknown index name") {
			return false, nil
		}
		return false, &store.Error{Op: store.OpIndexInfo, Err: err}
	}
	return true, nil
}

// buildCreateArgs renders the FT.CREATE argument list. The schema indexes only
// the vector field; the document text stays an unindexed hash field fetched
// back through RETURN.
func buildCreateArgs(def *store.IndexDefinition) []string {
	args := []string{
		def.Name,
		"ON", "HASH",
		"PREFIX", "1", def.KeyPrefix,
		"SCHEMA",
	}

	attrs := []string{
		"TYPE", "FLOAT32",
		"DIM", strconv.Itoa(def.Dimensions),
		"DISTANCE_METRIC", string(def.Metric),
	}
	if def.Algorithm == store.AlgorithmHNSW {
		if def.HNSWM > 0 {
			attrs = append(attrs, "M", strconv.Itoa(def.HNSWM))
		}
		if def.HNSWEFConstruct > 0 {
			attrs = append(attrs, "EF_CONSTRUCTION", strconv.Itoa(def.HNSWEFConstruct))
		}
	}

	args = append(args, fieldVector, "VECTOR", string(def.Algorithm), strconv.Itoa(len(attrs)))
	args = append(args, attrs...)
	return args
}

func (s *Store) key(id string) string {
	return s.def.KeyPrefix + id
}

func parseKey(key, prefix string) (string, error) {
	if len(key) < len(prefix) || key[:len(prefix)] != prefix {
		return "", fmt.Errorf("key %q does not carry prefix %q", key, prefix)
	}
	return key[len(prefix):], nil
}
