package ingest

import (
	"context"
	"errors"
	"testing"

	"go.uber.org/zap"

	"github.com/hrtools/assessrag/internal/domain"
)

type fakeIndexer struct {
	docs  []domain.Document
	err   error
	panic bool
	calls int
}

func (f *fakeIndexer) Upsert(_ context.Context, docs []domain.Document) ([]string, error) {
	f.calls++
	if f.panic {
		panic("indexer exploded")
	}
	if f.err != nil {
		return nil, f.err
	}
	f.docs = docs
	ids := make([]string, len(docs))
	for i, d := range docs {
		ids[i] = d.ID
	}
	return ids, nil
}

func TestLoader_Run_IndexesSeedFiles(t *testing.T) {
	dir := t.TempDir()
	writeSeed(t, dir, "job_descriptions.json",
		`[{"slug":"java-dev","recommendations":[{"n":1},{"n":2}]}]`)
	writeSeed(t, dir, "job_descriptions_1.json",
		`[{"slug":"sales","recommendations":[{"n":3}]}]`)

	idx := &fakeIndexer{}
	l := NewLoader(idx, dir, []string{"job_descriptions.json", "job_descriptions_1.json"}, zap.NewNop())
	l.Run(context.Background())

	st := l.Status()
	if st.State != LoadStateOK {
		t.Fatalf("state = %q, want ok (detail: %s)", st.State, st.Detail)
	}
	if st.Inserted != 3 {
		t.Errorf("Inserted = %d, want 3", st.Inserted)
	}
	if len(idx.docs) != 3 {
		t.Fatalf("indexer received %d documents, want 3", len(idx.docs))
	}
	if idx.docs[2].ID != "sales-2" {
		t.Errorf("last doc ID = %q, want sales-2", idx.docs[2].ID)
	}
}

func TestLoader_Run_SkipsWhenPrimaryMissing(t *testing.T) {
	idx := &fakeIndexer{}
	l := NewLoader(idx, t.TempDir(), []string{"job_descriptions.json"}, zap.NewNop())
	l.Run(context.Background())

	st := l.Status()
	if st.State != LoadStateSkipped {
		t.Fatalf("state = %q, want skipped", st.State)
	}
	if idx.calls != 0 {
		t.Errorf("indexer called %d times, want 0", idx.calls)
	}
}

func TestLoader_Run_FailsWhenSecondaryMissing(t *testing.T) {
	dir := t.TempDir()
	writeSeed(t, dir, "job_descriptions.json",
		`[{"slug":"qa","recommendations":[{"n":1}]}]`)

	idx := &fakeIndexer{}
	l := NewLoader(idx, dir, []string{"job_descriptions.json", "job_descriptions_1.json"}, zap.NewNop())
	l.Run(context.Background())

	st := l.Status()
	if st.State != LoadStateFailed {
		t.Fatalf("state = %q, want failed", st.State)
	}
	if idx.calls != 0 {
		t.Errorf("indexer called %d times, want 0", idx.calls)
	}
}

func TestLoader_Run_FailsOnUpsertError(t *testing.T) {
	dir := t.TempDir()
	writeSeed(t, dir, "job_descriptions.json",
		`[{"slug":"qa","recommendations":[{"n":1}]}]`)

	idx := &fakeIndexer{err: errors.New("store down")}
	l := NewLoader(idx, dir, []string{"job_descriptions.json"}, zap.NewNop())
	l.Run(context.Background())

	st := l.Status()
	if st.State != LoadStateFailed {
		t.Fatalf("state = %q, want failed", st.State)
	}
	if st.Detail != "store down" {
		t.Errorf("Detail = %q, want store down", st.Detail)
	}
}

func TestLoader_Run_RecoversFromPanic(t *testing.T) {
	dir := t.TempDir()
	writeSeed(t, dir, "job_descriptions.json",
		`[{"slug":"qa","recommendations":[{"n":1}]}]`)

	idx := &fakeIndexer{panic: true}
	l := NewLoader(idx, dir, []string{"job_descriptions.json"}, zap.NewNop())
	l.Run(context.Background())

	if st := l.Status(); st.State != LoadStateFailed {
		t.Fatalf("state = %q, want failed", st.State)
	}
}

func TestLoader_Run_SkipsWithoutFiles(t *testing.T) {
	l := NewLoader(&fakeIndexer{}, t.TempDir(), nil, zap.NewNop())
	l.Run(context.Background())

	if st := l.Status(); st.State != LoadStateSkipped {
		t.Fatalf("state = %q, want skipped", st.State)
	}
}

func TestLoader_StatusBeforeRun(t *testing.T) {
	l := NewLoader(&fakeIndexer{}, t.TempDir(), []string{"job_descriptions.json"}, zap.NewNop())

	if st := l.Status(); st.State != LoadStatePending {
		t.Fatalf("state = %q, want pending", st.State)
	}
}
