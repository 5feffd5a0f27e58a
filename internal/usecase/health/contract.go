package health

import (
	"context"

	"github.com/hrtools/assessrag/internal/ingest"
)

// StorePinger checks vector store availability.
type StorePinger interface {
	Ping(ctx context.Context) error
}

// EmbeddingChecker checks embedding provider availability.
type EmbeddingChecker interface {
	HealthCheck(ctx context.Context) error
}

// IngestReporter reports the startup load outcome.
type IngestReporter interface {
	Status() ingest.Status
}
