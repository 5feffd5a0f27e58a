package chi

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/hrtools/assessrag/internal/domain"
	"github.com/hrtools/assessrag/internal/store"
	answeruc "github.com/hrtools/assessrag/internal/usecase/answer"
	healthuc "github.com/hrtools/assessrag/internal/usecase/health"
	indexuc "github.com/hrtools/assessrag/internal/usecase/index"
	retrievaluc "github.com/hrtools/assessrag/internal/usecase/retrieval"
)

// --- Mocks ---

type fakeEntryStore struct {
	entries []store.Entry
	err     error
}

func (f *fakeEntryStore) Upsert(_ context.Context, entries []store.Entry) error {
	if f.err != nil {
		return f.err
	}
	f.entries = append(f.entries, entries...)
	return nil
}

type fakeQueryStore struct {
	matches []domain.Match
	err     error
	lastK   int
}

func (f *fakeQueryStore) Query(_ context.Context, _ []float32, k int) ([]domain.Match, error) {
	f.lastK = k
	if f.err != nil {
		return nil, f.err
	}
	return f.matches, nil
}

type fakeEmbedder struct {
	vec    []float32
	tokens int
	err    error
}

func (f *fakeEmbedder) Embed(_ context.Context, _ string) (domain.EmbeddingResult, error) {
	if f.err != nil {
		return domain.EmbeddingResult{}, f.err
	}
	return domain.EmbeddingResult{Embedding: f.vec, TotalTokens: f.tokens}, nil
}

type fakeGenerator struct {
	text       string
	err        error
	lastPrompt string
	called     bool
}

func (f *fakeGenerator) Generate(_ context.Context, prompt string) (domain.GenerationResult, error) {
	f.called = true
	f.lastPrompt = prompt
	if f.err != nil {
		return domain.GenerationResult{}, f.err
	}
	return domain.GenerationResult{Text: f.text}, nil
}

type fakePinger struct {
	err error
}

func (f *fakePinger) Ping(_ context.Context) error { return f.err }

type serverFakes struct {
	entries   *fakeEntryStore
	queries   *fakeQueryStore
	embedder  *fakeEmbedder
	generator *fakeGenerator
	pinger    *fakePinger
}

func newTestRouter(t *testing.T, f serverFakes) http.Handler {
	t.Helper()

	if f.entries == nil {
		f.entries = &fakeEntryStore{}
	}
	if f.queries == nil {
		f.queries = &fakeQueryStore{}
	}
	if f.embedder == nil {
		f.embedder = &fakeEmbedder{vec: []float32{0.1, 0.2}, tokens: 7}
	}
	if f.generator == nil {
		f.generator = &fakeGenerator{text: "| table |"}
	}
	if f.pinger == nil {
		f.pinger = &fakePinger{}
	}

	srv := NewServer(
		indexuc.New(f.entries, f.embedder, zap.NewNop()),
		retrievaluc.New(f.queries, f.embedder),
		answeruc.New(f.generator),
		healthuc.New(f.pinger, nil, nil),
		zap.NewNop(),
	)
	r := chi.NewRouter()
	srv.Routes(r)
	return r
}

func postJSON(t *testing.T, handler http.Handler, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	return rr
}

func decodeError(t *testing.T, rr *httptest.ResponseRecorder) string {
	t.Helper()
	var resp errorResponse
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("decode error response: %v", err)
	}
	return resp.Error
}

// --- Tests ---

func TestPushDocs_IndexesDocuments(t *testing.T) {
	entries := &fakeEntryStore{}
	handler := newTestRouter(t, serverFakes{entries: entries})

	body := `{"items":[
		{"id":"java-dev-0","line":"{\"name\":\"Verify G+\"}","filename":"job_descriptions.json","page_number":"1"},
		{"id":"java-dev-1","line":"{\"name\":\"OPQ\"}","filename":"job_descriptions.json"}
	]}`
	rr := postJSON(t, handler, "/push_docs/", body)

	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d, want %d (body %s)", rr.Code, http.StatusOK, rr.Body.String())
	}

	var resp pushDocsResponse
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Status != "success" {
		t.Errorf("status field: got %q, want %q", resp.Status, "success")
	}
	if len(resp.InsertedIDs) != 2 || resp.InsertedIDs[0] != "java-dev-0" || resp.InsertedIDs[1] != "java-dev-1" {
		t.Errorf("inserted ids: got %v", resp.InsertedIDs)
	}
	if len(entries.entries) != 2 {
		t.Fatalf("stored entries: got %d, want 2", len(entries.entries))
	}
	if entries.entries[1].Text != `{"name":"OPQ"}` {
		t.Errorf("stored text: got %q", entries.entries[1].Text)
	}
}

func TestPushDocs_ReportsEmbeddingTokens(t *testing.T) {
	handler := newTestRouter(t, serverFakes{embedder: &fakeEmbedder{vec: []float32{0.1}, tokens: 7}})

	body := `{"items":[
		{"id":"a-0","line":"one","filename":"a.json"},
		{"id":"a-1","line":"two","filename":"a.json"}
	]}`
	rr := postJSON(t, handler, "/push_docs/", body)

	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d, want %d", rr.Code, http.StatusOK)
	}
	if got := rr.Header().Get("X-Embedding-Tokens"); got != "14" {
		t.Errorf("X-Embedding-Tokens: got %q, want %q", got, "14")
	}
}

func TestPushDocs_InvalidBody(t *testing.T) {
	handler := newTestRouter(t, serverFakes{})

	rr := postJSON(t, handler, "/push_docs/", "not json")

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("status: got %d, want %d", rr.Code, http.StatusBadRequest)
	}
	if msg := decodeError(t, rr); !strings.Contains(msg, "invalid request body") {
		t.Errorf("error message: got %q", msg)
	}
}

func TestPushDocs_RejectsDocumentWithoutID(t *testing.T) {
	entries := &fakeEntryStore{}
	handler := newTestRouter(t, serverFakes{entries: entries})

	body := `{"items":[{"id":"","line":"text","filename":"a.json"}]}`
	rr := postJSON(t, handler, "/push_docs/", body)

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("status: got %d, want %d", rr.Code, http.StatusBadRequest)
	}
	if msg := decodeError(t, rr); !strings.Contains(msg, "document id is required") {
		t.Errorf("error message: got %q", msg)
	}
	if len(entries.entries) != 0 {
		t.Errorf("store called on invalid input: %d entries", len(entries.entries))
	}
}

func TestPushDocs_StoreFailure(t *testing.T) {
	entries := &fakeEntryStore{err: fmt.Errorf("connection refused")}
	handler := newTestRouter(t, serverFakes{entries: entries})

	body := `{"items":[{"id":"a-0","line":"text","filename":"a.json"}]}`
	rr := postJSON(t, handler, "/push_docs/", body)

	if rr.Code != http.StatusBadGateway {
		t.Fatalf("status: got %d, want %d", rr.Code, http.StatusBadGateway)
	}
	if msg := decodeError(t, rr); msg != "vector store error" {
		t.Errorf("error message: got %q, want %q", msg, "vector store error")
	}
}

func TestPushDocs_EmbedderFailure(t *testing.T) {
	embedder := &fakeEmbedder{err: fmt.Errorf("quota: %w", domain.ErrEmbeddingProviderError)}
	handler := newTestRouter(t, serverFakes{embedder: embedder})

	body := `{"items":[{"id":"a-0","line":"text","filename":"a.json"}]}`
	rr := postJSON(t, handler, "/push_docs/", body)

	if rr.Code != http.StatusBadGateway {
		t.Fatalf("status: got %d, want %d", rr.Code, http.StatusBadGateway)
	}
	if msg := decodeError(t, rr); msg != "embedding provider error" {
		t.Errorf("error message: got %q, want %q", msg, "embedding provider error")
	}
}

func TestGetContext_ReturnsMatchedTexts(t *testing.T) {
	queries := &fakeQueryStore{matches: []domain.Match{
		{ID: "java-dev-0", Score: 0.92, Text: `{"name":"Verify G+"}`},
		{ID: "sales-3", Score: 0.87, Text: `{"name":"OPQ"}`},
	}}
	handler := newTestRouter(t, serverFakes{queries: queries})

	rr := postJSON(t, handler, "/context/", `{"query":"java developer assessments"}`)

	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d, want %d (body %s)", rr.Code, http.StatusOK, rr.Body.String())
	}
	if ct := rr.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("content type: got %q", ct)
	}
	if got := rr.Header().Get("X-Embedding-Tokens"); got != "7" {
		t.Errorf("X-Embedding-Tokens: got %q, want %q", got, "7")
	}

	var resp contextResponse
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(resp.Docs) != 2 || resp.Docs[0] != `{"name":"Verify G+"}` || resp.Docs[1] != `{"name":"OPQ"}` {
		t.Errorf("docs: got %v", resp.Docs)
	}
	if queries.lastK != retrievaluc.DefaultTopK {
		t.Errorf("top k: got %d, want %d", queries.lastK, retrievaluc.DefaultTopK)
	}
}

func TestGetContext_BlankQuery(t *testing.T) {
	handler := newTestRouter(t, serverFakes{})

	rr := postJSON(t, handler, "/context/", `{"query":"   "}`)

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("status: got %d, want %d", rr.Code, http.StatusBadRequest)
	}
	if msg := decodeError(t, rr); msg != "empty query" {
		t.Errorf("error message: got %q, want %q", msg, "empty query")
	}
}

func TestGetContext_StoreFailure(t *testing.T) {
	queries := &fakeQueryStore{err: fmt.Errorf("index gone")}
	handler := newTestRouter(t, serverFakes{queries: queries})

	rr := postJSON(t, handler, "/context/", `{"query":"java"}`)

	if rr.Code != http.StatusBadGateway {
		t.Fatalf("status: got %d, want %d", rr.Code, http.StatusBadGateway)
	}
	if msg := decodeError(t, rr); msg != "vector store error" {
		t.Errorf("error message: got %q, want %q", msg, "vector store error")
	}
}

func TestGetResponse_GeneratesAnswer(t *testing.T) {
	generator := &fakeGenerator{text: "| Verify G+ | https://example.com |"}
	handler := newTestRouter(t, serverFakes{generator: generator})

	body := `{"query":"java developer","context":"{\"name\":\"Verify G+\"}"}`
	rr := postJSON(t, handler, "/response/", body)

	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d, want %d (body %s)", rr.Code, http.StatusOK, rr.Body.String())
	}

	var resp answerResponse
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Output != "| Verify G+ | https://example.com |" {
		t.Errorf("output: got %q", resp.Output)
	}
	if !strings.Contains(generator.lastPrompt, `{"name":"Verify G+"}`) {
		t.Errorf("prompt missing context: %q", generator.lastPrompt)
	}
}

func TestGetResponse_BlankContext(t *testing.T) {
	generator := &fakeGenerator{}
	handler := newTestRouter(t, serverFakes{generator: generator})

	rr := postJSON(t, handler, "/response/", `{"query":"java developer","context":""}`)

	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d, want %d", rr.Code, http.StatusOK)
	}

	var resp answerResponse
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Output != answeruc.NoAnswer {
		t.Errorf("output: got %q, want %q", resp.Output, answeruc.NoAnswer)
	}
	if generator.called {
		t.Error("generator called for blank context")
	}
}

func TestGetResponse_RateLimited(t *testing.T) {
	generator := &fakeGenerator{err: fmt.Errorf("quota exceeded: %w", domain.ErrRateLimited)}
	handler := newTestRouter(t, serverFakes{generator: generator})

	rr := postJSON(t, handler, "/response/", `{"query":"q","context":"ctx"}`)

	if rr.Code != http.StatusTooManyRequests {
		t.Fatalf("status: got %d, want %d", rr.Code, http.StatusTooManyRequests)
	}
	if msg := decodeError(t, rr); msg != "rate limited" {
		t.Errorf("error message: got %q, want %q", msg, "rate limited")
	}
}

func TestGetResponse_GeneratorFailure(t *testing.T) {
	generator := &fakeGenerator{err: fmt.Errorf("backend: %w", domain.ErrGenerationProviderError)}
	handler := newTestRouter(t, serverFakes{generator: generator})

	rr := postJSON(t, handler, "/response/", `{"query":"q","context":"ctx"}`)

	if rr.Code != http.StatusBadGateway {
		t.Fatalf("status: got %d, want %d", rr.Code, http.StatusBadGateway)
	}
	if msg := decodeError(t, rr); msg != "generation provider error" {
		t.Errorf("error message: got %q, want %q", msg, "generation provider error")
	}
}

func TestSearch_EchoesQueryWithResults(t *testing.T) {
	queries := &fakeQueryStore{matches: []domain.Match{
		{ID: "qa-1", Score: 0.8, Text: `{"name":"Automata"}`},
	}}
	handler := newTestRouter(t, serverFakes{queries: queries})

	req := httptest.NewRequest(http.MethodGet, "/search/?query=cognitive+tests", http.NoBody)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d, want %d (body %s)", rr.Code, http.StatusOK, rr.Body.String())
	}

	var resp searchResponse
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Query != "cognitive tests" {
		t.Errorf("query echo: got %q", resp.Query)
	}
	if len(resp.Results) != 1 || resp.Results[0] != `{"name":"Automata"}` {
		t.Errorf("results: got %v", resp.Results)
	}
}

func TestSearch_MissingQuery(t *testing.T) {
	handler := newTestRouter(t, serverFakes{})

	req := httptest.NewRequest(http.MethodGet, "/search/", http.NoBody)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("status: got %d, want %d", rr.Code, http.StatusBadRequest)
	}
	if msg := decodeError(t, rr); msg != "empty query" {
		t.Errorf("error message: got %q, want %q", msg, "empty query")
	}
}

func TestHealthCheck_Healthy(t *testing.T) {
	handler := newTestRouter(t, serverFakes{})

	req := httptest.NewRequest(http.MethodGet, "/health", http.NoBody)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d, want %d", rr.Code, http.StatusOK)
	}

	var resp healthResponse
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Status != "ok" {
		t.Errorf("status field: got %q, want %q", resp.Status, "ok")
	}
	if resp.Checks["store"] != "ok" {
		t.Errorf("store check: got %q, want %q", resp.Checks["store"], "ok")
	}
}

func TestHealthCheck_DegradedStore(t *testing.T) {
	handler := newTestRouter(t, serverFakes{pinger: &fakePinger{err: fmt.Errorf("down")}})

	req := httptest.NewRequest(http.MethodGet, "/health", http.NoBody)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusServiceUnavailable {
		t.Fatalf("status: got %d, want %d", rr.Code, http.StatusServiceUnavailable)
	}

	var resp healthResponse
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Status != "degraded" {
		t.Errorf("status field: got %q, want %q", resp.Status, "degraded")
	}
	if resp.Checks["store"] != "error" {
		t.Errorf("store check: got %q, want %q", resp.Checks["store"], "error")
	}
}
