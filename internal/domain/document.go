package domain

import "fmt"

// Document is the flattened unit of indexing: one assessment recommendation
// serialized as JSON, keyed by a run-unique id for replace-by-id upserts.
type Document struct {
	ID         string
	Text       string
	SourceFile string // provenance only
	PageNumber string // provenance only, constant "1" for JSON inputs
}

// Validate checks the fields every indexed document must carry.
func (d Document) Validate() error {
	if d.ID == "" {
		return fmt.Errorf("%w: document id is required", ErrMalformedInput)
	}
	if d.Text == "" {
		return fmt.Errorf("%w: document %q has empty text", ErrMalformedInput, d.ID)
	}
	return nil
}

// Match is a single vector search hit, most similar first.
// Score is backend-defined similarity and never leaves the service.
type Match struct {
	ID    string
	Score float64
	Text  string
}
