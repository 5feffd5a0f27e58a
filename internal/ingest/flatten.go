// Package ingest flattens assessment seed files into documents and
// drives the startup load.
package ingest

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/hrtools/assessrag/internal/domain"
)

// seedPageNumber is the page marker for documents produced from seed
// files, which carry no real pagination.
const seedPageNumber = "1"

// jobRecord mirrors one entry of a seed file: a job posting with its
// recommended assessments.
type jobRecord struct {
	Slug            string            `json:"slug"`
	Recommendations []json.RawMessage `json:"recommendations"`
}

// Flatten reads the given seed files and flattens every recommendation
// into one document, with the document counter starting at zero.
func Flatten(paths []string) ([]domain.Document, error) {
	docs, _, err := FlattenFrom(paths, 0)
	return docs, err
}

// FlattenFrom flattens seed files starting the document counter at next.
// The counter runs across all files and all jobs: each recommendation
// consumes one value, so IDs stay unique within a load. Returns the
// documents and the counter value after the last one. Any unreadable or
// malformed file aborts the whole flatten.
func FlattenFrom(paths []string, next int) ([]domain.Document, int, error) {
	var docs []domain.Document
	for _, path := range paths {
		fileDocs, n, err := flattenFile(path, next)
		if err != nil {
			return nil, next, err
		}
		docs = append(docs, fileDocs...)
		next = n
	}
	return docs, next, nil
}

func flattenFile(path string, next int) ([]domain.Document, int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, next, fmt.Errorf("read seed file: %w", err)
	}

	var jobs []jobRecord
	if err := json.Unmarshal(data, &jobs); err != nil {
		return nil, next, domain.NewMalformedInput(path, err.Error())
	}

	filename := filepath.Base(path)

	var docs []domain.Document
	for _, job := range jobs {
		// The slug fallback reads the counter before any of the
		// job's recommendations advance it.
		slug := job.Slug
		if slug == "" {
			slug = fmt.Sprintf("job-%d", next)
		}

		for _, rec := range job.Recommendations {
			text, err := compactJSON(rec)
			if err != nil {
				return nil, next, domain.NewMalformedInput(path, err.Error())
			}

			docs = append(docs, domain.Document{
				ID:         fmt.Sprintf("%s-%d", slug, next),
				Text:       text,
				SourceFile: filename,
				PageNumber: seedPageNumber,
			})
			next++
		}
	}
	return docs, next, nil
}

// compactJSON renders a raw record as single-line JSON so the stored
// text is stable regardless of seed file formatting.
func compactJSON(raw json.RawMessage) (string, error) {
	var buf bytes.Buffer
	if err := json.Compact(&buf, raw); err != nil {
		return "", fmt.Errorf("compact record: %w", err)
	}
	return buf.String(), nil
}
