package redis

import (
	"context"
	"encoding/binary"
	"fmt"
	"math"
	"strconv"

	"github.com/redis/rueidis"

	"github.com/hrtools/assessrag/internal/domain"
	"github.com/hrtools/assessrag/internal/store"
)

// Hash field names under the index key prefix.
const (
	fieldVector = "vector"
	fieldText   = "text"
)

// scoreField is the distance attribute FT.SEARCH yields for the vector field.
const scoreField = "__vector_score"

// Upsert stores entries as hashes in a single pipelined round-trip.
// Replace-by-id comes for free: HSET overwrites the full key.
func (s *Store) Upsert(ctx context.Context, entries []store.Entry) error {
	if len(entries) == 0 {
		return nil
	}

	for _, e := range entries {
		if len(e.Vector) != s.def.Dimensions {
			return &store.Error{Op: store.OpHSet, Err: fmt.Errorf(
				"%w: id %q has %d dimensions, index wants %d",
				domain.ErrVectorDimMismatch, e.ID, len(e.Vector), s.def.Dimensions,
			)}
		}
	}

	cmds := make([]rueidis.Completed, len(entries))
	for i, e := range entries {
		cmds[i] = s.b().Hset().Key(s.key(e.ID)).FieldValue().
			FieldValue(fieldText, e.Text).
			FieldValue(fieldVector, vectorToBytes(e.Vector)).
			Build()
	}

	results := s.client.DoMulti(ctx, cmds...)
	for i, res := range results {
		if err := res.Error(); err != nil {
			return &store.Error{Op: store.OpHSet, Err: fmt.Errorf("key %s: %w", s.key(entries[i].ID), err)}
		}
	}
	return nil
}

// Query runs a KNN search via FT.SEARCH, nearest first.
func (s *Store) Query(ctx context.Context, vector []float32, k int) ([]domain.Match, error) {
	if k <= 0 {
		return nil, &store.Error{Op: store.OpSearch, Err: fmt.Errorf("k must be positive, got %d", k)}
	}
	if len(vector) != s.def.Dimensions {
		return nil, &store.Error{Op: store.OpSearch, Err: fmt.Errorf(
			"%w: query has %d dimensions, index wants %d",
			domain.ErrVectorDimMismatch, len(vector), s.def.Dimensions,
		)}
	}

	queryStr := fmt.Sprintf("*=>[KNN %d @%s $BLOB]", k, fieldVector)
	args := []string{
		s.def.Name, queryStr,
		"RETURN", "2", fieldText, scoreField,
		"SORTBY", scoreField,
		"LIMIT", "0", strconv.Itoa(k),
		"PARAMS", "2", "BLOB", vectorToBytes(vector),
		"DIALECT", "2",
	}

	cmd := s.b().Arbitrary("FT.SEARCH").Args(args...).Build()
	raw, err := s.do(ctx, cmd).ToArray()
	if err != nil {
		return nil, &store.Error{Op: store.OpSearch, Err: err}
	}

	return s.parseKNNResult(raw)
}

func (s *Store) parseKNNResult(raw []rueidis.RedisMessage) ([]domain.Match, error) {
	if len(raw) == 0 {
		return nil, nil
	}

	total, err := raw[0].AsInt64()
	if err != nil {
		return nil, fmt.Errorf("parse total: %w", err)
	}
	if total == 0 {
		return nil, nil
	}

	matches := make([]domain.Match, 0, total)
	// 2-stride: [total, key1, fields1, key2, fields2, ...]
	for i := 1; i+1 < len(raw); i += 2 {
		key, err := raw[i].ToString()
		if err != nil {
			continue
		}
		fields, err := raw[i+1].ToArray()
		if err != nil {
			continue
		}

		id, err := parseKey(key, s.def.KeyPrefix)
		if err != nil {
			continue
		}

		m := domain.Match{ID: id}
		pairs := parseFieldPairs(fields)
		m.Text = pairs[fieldText]
		if scoreStr, ok := pairs[scoreField]; ok {
			if d, err := strconv.ParseFloat(scoreStr, 64); err == nil {
				m.Score = s.distanceToScore(d)
			}
		}

		matches = append(matches, m)
	}

	return matches, nil
}

// distanceToScore converts the reported distance into a higher-is-closer
// score. Redis reports 1-similarity for COSINE and IP, squared distance
// for L2. Values are driver-relative and used for ordering only.
func (s *Store) distanceToScore(d float64) float64 {
	switch s.def.Metric {
	case store.DistanceIP:
		return 1.0 - d
	case store.DistanceL2:
		return -d
	default:
		return math.Max(0, 1.0-d)
	}
}

func parseFieldPairs(fields []rueidis.RedisMessage) map[string]string {
	m := make(map[string]string, len(fields)/2)
	for j := 0; j+1 < len(fields); j += 2 {
		name, err := fields[j].ToString()
		if err != nil {
			continue
		}
		value, err := fields[j+1].ToString()
		if err != nil {
			continue
		}
		m[name] = value
	}
	return m
}

func vectorToBytes(v []float32) string {
	buf := make([]byte, len(v)*4)
	for i, f := range v {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return string(buf)
}
