package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrMalformedInput signals a request or input file that does not parse
	// into the expected shape.
	ErrMalformedInput = errors.New("malformed input")
	// ErrEmptyQuery signals a blank retrieval query.
	ErrEmptyQuery = errors.New("empty query")
	// ErrEmbeddingProviderError signals an embedding provider failure.
	ErrEmbeddingProviderError = errors.New("embedding provider error")
	// ErrGenerationProviderError signals a generation provider failure.
	ErrGenerationProviderError = errors.New("generation provider error")
	// ErrVectorStoreError signals a vector store failure.
	ErrVectorStoreError = errors.New("vector store error")
	// ErrVectorDimMismatch signals a vector dimension mismatch.
	ErrVectorDimMismatch = errors.New("vector dimension mismatch")
	// ErrRateLimited signals a rate limit hit on an upstream provider.
	ErrRateLimited = errors.New("rate limited")
)

// MalformedInputError wraps ErrMalformedInput with the originating file path.
type MalformedInputError struct {
	Path   string
	Detail string
}

func (e *MalformedInputError) Error() string {
	return fmt.Sprintf("%s: %s: %s", ErrMalformedInput.Error(), e.Path, e.Detail)
}

func (e *MalformedInputError) Unwrap() error { return ErrMalformedInput }

// NewMalformedInput creates a malformed input error for a source file.
func NewMalformedInput(path, detail string) error {
	return &MalformedInputError{Path: path, Detail: detail}
}
