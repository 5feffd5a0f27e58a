package store

import (
	"errors"
	"fmt"
)

// DistanceMetric used for vector similarity ranking.
type DistanceMetric string

const (
	// DistanceL2 is Euclidean distance.
	DistanceL2 DistanceMetric = "L2"
	// DistanceIP is inner product distance.
	DistanceIP DistanceMetric = "IP"
	// DistanceCosine is cosine distance.
	DistanceCosine DistanceMetric = "COSINE"
)

// VectorAlgorithm selects the vector indexing algorithm.
type VectorAlgorithm string

const (
	// AlgorithmHNSW uses the HNSW graph algorithm.
	AlgorithmHNSW VectorAlgorithm = "HNSW"
	// AlgorithmFlat uses brute-force scanning.
	AlgorithmFlat VectorAlgorithm = "FLAT"
)

// ParseMetric maps a config metric name to a DistanceMetric.
func ParseMetric(s string) (DistanceMetric, error) {
	switch s {
	case "cosine", "":
		return DistanceCosine, nil
	case "ip":
		return DistanceIP, nil
	case "l2":
		return DistanceL2, nil
	default:
		return "", fmt.Errorf("unknown distance metric %q", s)
	}
}

// ParseAlgorithm maps a config algorithm name to a VectorAlgorithm.
func ParseAlgorithm(s string) (VectorAlgorithm, error) {
	switch s {
	case "hnsw", "":
		return AlgorithmHNSW, nil
	case "flat":
		return AlgorithmFlat, nil
	default:
		return "", fmt.Errorf("unknown vector algorithm %q", s)
	}
}

// IndexDefinition describes the single vector index both drivers build from
// configuration. The metric changes ranking, never correctness.
type IndexDefinition struct {
	Name            string
	KeyPrefix       string
	Dimensions      int
	Metric          DistanceMetric
	Algorithm       VectorAlgorithm
	HNSWM           int // max edges per node (default 16)
	HNSWEFConstruct int // build-time dynamic list size (default 200)
}

// Validate checks that the index definition is well-formed.
func (d *IndexDefinition) Validate() error {
	if d.Name == "" {
		return errors.New("index name is required")
	}
	if !IsValidIdentifier(d.Name) {
		return errors.New("index name contains invalid characters")
	}
	if d.Dimensions <= 0 {
		return errors.New("index dimensions must be positive")
	}
	switch d.Metric {
	case DistanceCosine, DistanceIP, DistanceL2:
	default:
		return fmt.Errorf("unknown distance metric %q", d.Metric)
	}
	switch d.Algorithm {
	case AlgorithmHNSW, AlgorithmFlat:
	default:
		return fmt.Errorf("unknown vector algorithm %q", d.Algorithm)
	}
	return nil
}

// IsValidIdentifier returns true if s matches [a-zA-Z0-9_:-]+.
func IsValidIdentifier(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c >= 'a' && c <= 'z':
		case c >= 'A' && c <= 'Z':
		case c >= '0' && c <= '9':
		case c == '_' || c == ':' || c == '-':
		default:
			return false
		}
	}
	return true
}
