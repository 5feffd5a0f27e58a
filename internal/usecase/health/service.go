package health

import (
	"context"

	"github.com/hrtools/assessrag/internal/ingest"
)

// Status represents the aggregated health status.
type Status string

const (
	// Healthy indicates all components are operational.
	Healthy Status = "ok"
	// Degraded indicates partial failure.
	Degraded Status = "degraded"
)

// CheckResult is an individual component health check outcome. For the
// startup ingest it carries the load state rather than a plain ok/error.
type CheckResult string

const (
	// CheckOK indicates a passing health check.
	CheckOK CheckResult = "ok"
	// CheckError indicates a failing health check.
	CheckError CheckResult = "error"
)

// Report aggregates health check results.
type Report struct {
	Status Status
	Checks map[string]CheckResult
}

// Service coordinates health checks.
type Service struct {
	store     StorePinger
	embedding EmbeddingChecker
	ingest    IngestReporter
}

// New creates a Service. embedding and ingest can be nil.
func New(store StorePinger, embedding EmbeddingChecker, ingest IngestReporter) *Service {
	return &Service{store: store, embedding: embedding, ingest: ingest}
}

// Check runs health checks against all components. A pending or skipped
// startup ingest is reported but does not degrade the service; a failed
// one does.
func (s *Service) Check(ctx context.Context) Report {
	checks := make(map[string]CheckResult)

	if err := s.store.Ping(ctx); err != nil {
		checks["store"] = CheckError
	} else {
		checks["store"] = CheckOK
	}

	if s.embedding != nil {
		if err := s.embedding.HealthCheck(ctx); err != nil {
			checks["embedding"] = CheckError
		} else {
			checks["embedding"] = CheckOK
		}
	}

	degraded := checks["store"] == CheckError || checks["embedding"] == CheckError

	if s.ingest != nil {
		st := s.ingest.Status()
		checks["startup_ingest"] = CheckResult(st.State)
		if st.State == ingest.LoadStateFailed {
			degraded = true
		}
	}

	status := Healthy
	if degraded {
		status = Degraded
	}
	return Report{Status: status, Checks: checks}
}
