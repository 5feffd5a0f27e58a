package ingest

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/hrtools/assessrag/internal/domain"
)

// LoadState is the lifecycle state of the startup load.
type LoadState string

const (
	// LoadStatePending means the load has not finished yet.
	LoadStatePending LoadState = "pending"
	// LoadStateOK means all seed documents were indexed.
	LoadStateOK LoadState = "ok"
	// LoadStateSkipped means the primary seed file was absent.
	LoadStateSkipped LoadState = "skipped"
	// LoadStateFailed means flattening or indexing failed.
	LoadStateFailed LoadState = "failed"
)

// Status is a snapshot of the startup load.
type Status struct {
	State    LoadState
	Inserted int
	Detail   string
}

// Indexer ingests flattened documents.
type Indexer interface {
	Upsert(ctx context.Context, docs []domain.Document) ([]string, error)
}

// Loader seeds the vector store from local JSON files on startup. It is
// meant to run in its own goroutine; the server keeps serving whatever
// happens here, and the outcome stays observable through Status.
type Loader struct {
	indexer Indexer
	dir     string
	files   []string
	logger  *zap.Logger

	mu     sync.RWMutex
	status Status
}

// NewLoader creates a startup loader over the seed files in dir.
func NewLoader(indexer Indexer, dir string, files []string, logger *zap.Logger) *Loader {
	return &Loader{
		indexer: indexer,
		dir:     dir,
		files:   files,
		logger:  logger,
		status:  Status{State: LoadStatePending},
	}
}

// Run executes the startup load once. Absence of the primary seed file
// skips the load; every other failure marks it failed without touching
// the caller.
func (l *Loader) Run(ctx context.Context) {
	defer func() {
		if r := recover(); r != nil {
			l.setStatus(Status{State: LoadStateFailed, Detail: fmt.Sprintf("panic: %v", r)})
			l.logger.Error("startup ingest panicked", zap.Any("panic", r))
		}
	}()

	if len(l.files) == 0 {
		l.setStatus(Status{State: LoadStateSkipped, Detail: "no seed files configured"})
		return
	}

	paths := make([]string, len(l.files))
	for i, f := range l.files {
		paths[i] = filepath.Join(l.dir, f)
	}

	// Only the primary seed file gates the load. Later files are
	// expected to exist once the primary does.
	if _, err := os.Stat(paths[0]); err != nil {
		l.setStatus(Status{State: LoadStateSkipped, Detail: l.files[0] + " not found"})
		l.logger.Warn("seed file not found, skipping startup ingest",
			zap.String("file", paths[0]))
		return
	}

	log := l.logger.With(zap.String("ingest_run_id", uuid.NewString()))
	log.Info("startup ingest started", zap.Strings("files", l.files))

	docs, err := Flatten(paths)
	if err != nil {
		l.setStatus(Status{State: LoadStateFailed, Detail: err.Error()})
		log.Error("startup ingest failed", zap.Error(err))
		return
	}

	ids, err := l.indexer.Upsert(ctx, docs)
	if err != nil {
		l.setStatus(Status{State: LoadStateFailed, Detail: err.Error()})
		log.Error("startup ingest failed", zap.Error(err))
		return
	}

	l.setStatus(Status{State: LoadStateOK, Inserted: len(ids)})
	log.Info("startup ingest finished", zap.Int("inserted", len(ids)))
}

// Status returns a snapshot of the load state.
func (l *Loader) Status() Status {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.status
}

func (l *Loader) setStatus(s Status) {
	l.mu.Lock()
	l.status = s
	l.mu.Unlock()
}
