// Package chi exposes the RAG pipeline over HTTP.
package chi

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/hrtools/assessrag/internal/domain"
	answeruc "github.com/hrtools/assessrag/internal/usecase/answer"
	healthuc "github.com/hrtools/assessrag/internal/usecase/health"
	indexuc "github.com/hrtools/assessrag/internal/usecase/index"
	retrievaluc "github.com/hrtools/assessrag/internal/usecase/retrieval"
)

// errorHandler tries to handle a domain error. Returns true if handled.
type errorHandler func(w http.ResponseWriter, err error, msg string) bool

// Server holds the HTTP handlers for the RAG API.
type Server struct {
	index         *indexuc.Service
	retrieval     *retrievaluc.Service
	answer        *answeruc.Service
	health        *healthuc.Service
	logger        *zap.Logger
	errorHandlers []errorHandler
}

// NewServer creates an HTTP API server.
func NewServer(
	index *indexuc.Service,
	retrieval *retrievaluc.Service,
	answer *answeruc.Service,
	health *healthuc.Service,
	logger *zap.Logger,
) *Server {
	s := &Server{
		index:     index,
		retrieval: retrieval,
		answer:    answer,
		health:    health,
		logger:    logger,
	}
	s.errorHandlers = []errorHandler{
		malformedInputHandler,
		sentinelHandler(domain.ErrEmptyQuery, http.StatusBadRequest),
		sentinelHandler(domain.ErrRateLimited, http.StatusTooManyRequests),
		sentinelHandler(domain.ErrEmbeddingProviderError, http.StatusBadGateway),
		sentinelHandler(domain.ErrGenerationProviderError, http.StatusBadGateway),
		sentinelHandler(domain.ErrVectorStoreError, http.StatusBadGateway),
		sentinelHandler(domain.ErrVectorDimMismatch, http.StatusBadGateway),
	}
	return s
}

// Routes registers all API routes on the router.
func (s *Server) Routes(r chi.Router) {
	r.Post("/push_docs/", s.PushDocs)
	r.Post("/context/", s.GetContext)
	r.Post("/response/", s.GetResponse)
	r.Get("/search/", s.Search)
	r.Get("/health", s.HealthCheck)
	r.Get("/metrics", s.Metrics)
}

// --- Wire types ---

type pushItem struct {
	ID         string `json:"id"`
	Line       string `json:"line"`
	Filename   string `json:"filename"`
	PageNumber string `json:"page_number"`
}

type pushDocsRequest struct {
	Items []pushItem `json:"items"`
}

type pushDocsResponse struct {
	Status      string   `json:"status"`
	InsertedIDs []string `json:"inserted_ids"`
}

type queryRequest struct {
	Query string `json:"query"`
}

type contextResponse struct {
	Docs []string `json:"docs"`
}

type qaRequest struct {
	Query   string `json:"query"`
	Context string `json:"context"`
}

type answerResponse struct {
	Output string `json:"output"`
}

type searchResponse struct {
	Query   string   `json:"query"`
	Results []string `json:"results"`
}

type healthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// --- Handlers ---

// PushDocs handles POST /push_docs/. Documents are vectorized and
// indexed; the response lists the stored IDs in input order.
func (s *Server) PushDocs(w http.ResponseWriter, r *http.Request) {
	var req pushDocsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	docs := make([]domain.Document, len(req.Items))
	for i, item := range req.Items {
		page := item.PageNumber
		if page == "" {
			page = "1"
		}
		docs[i] = domain.Document{
			ID:         item.ID,
			Text:       item.Line,
			SourceFile: item.Filename,
			PageNumber: page,
		}
	}

	ctx, usage := domain.NewContextWithUsage(r.Context())
	ids, err := s.index.Upsert(ctx, docs)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	setEmbeddingHeaders(w, usage)
	writeJSON(w, http.StatusOK, pushDocsResponse{Status: "success", InsertedIDs: ids})
}

// GetContext handles POST /context/. Returns the stored text of the
// documents most similar to the query.
func (s *Server) GetContext(w http.ResponseWriter, r *http.Request) {
	var req queryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	ctx, usage := domain.NewContextWithUsage(r.Context())
	matches, err := s.retrieval.Retrieve(ctx, req.Query)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	setEmbeddingHeaders(w, usage)
	writeJSON(w, http.StatusOK, contextResponse{Docs: retrievaluc.Texts(matches)})
}

// GetResponse handles POST /response/. Generates assessment
// recommendations grounded in the supplied context.
func (s *Server) GetResponse(w http.ResponseWriter, r *http.Request) {
	var req qaRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	output, err := s.answer.Answer(r.Context(), req.Context)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, answerResponse{Output: output})
}

// Search handles GET /search/. Like /context/ but reads the query from
// the URL and echoes it back.
func (s *Server) Search(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("query")

	ctx, usage := domain.NewContextWithUsage(r.Context())
	matches, err := s.retrieval.Retrieve(ctx, query)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	setEmbeddingHeaders(w, usage)
	writeJSON(w, http.StatusOK, searchResponse{Query: query, Results: retrievaluc.Texts(matches)})
}

// HealthCheck handles GET /health. Degraded components turn the
// response into a 503 while keeping the per-check detail.
func (s *Server) HealthCheck(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())

	checks := make(map[string]string, len(report.Checks))
	for k, v := range report.Checks {
		checks[k] = string(v)
	}

	httpStatus := http.StatusOK
	if report.Status != healthuc.Healthy {
		httpStatus = http.StatusServiceUnavailable
	}

	writeJSON(w, httpStatus, healthResponse{
		Status: string(report.Status),
		Checks: checks,
	})
}

// Metrics handles GET /metrics.
func (s *Server) Metrics(w http.ResponseWriter, r *http.Request) {
	promhttp.Handler().ServeHTTP(w, r)
}

// --- Helpers ---

func setEmbeddingHeaders(w http.ResponseWriter, usage *domain.EmbeddingUsage) {
	if usage != nil && usage.Used {
		w.Header().Set("X-Embedding-Tokens", strconv.Itoa(usage.TotalTokens))
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Error: message})
}

// safeDomainMessage returns a sentinel error message for the client without exposing internals.
func safeDomainMessage(err error) string {
	sentinels := []error{
		domain.ErrMalformedInput,
		domain.ErrEmptyQuery,
		domain.ErrRateLimited,
		domain.ErrEmbeddingProviderError,
		domain.ErrGenerationProviderError,
		domain.ErrVectorStoreError,
		domain.ErrVectorDimMismatch,
	}
	for _, s := range sentinels {
		if errors.Is(err, s) {
			return s.Error()
		}
	}
	return "internal error"
}

// sentinelHandler returns an errorHandler that matches a single sentinel error.
func sentinelHandler(sentinel error, status int) errorHandler {
	return func(w http.ResponseWriter, err error, msg string) bool {
		if !errors.Is(err, sentinel) {
			return false
		}
		writeError(w, status, msg)
		return true
	}
}

// malformedInputHandler surfaces the full validation message. Input
// validation errors carry no internals, and the detail tells the caller
// which document was rejected.
func malformedInputHandler(w http.ResponseWriter, err error, _ string) bool {
	if !errors.Is(err, domain.ErrMalformedInput) {
		return false
	}
	writeError(w, http.StatusBadRequest, err.Error())
	return true
}

func (s *Server) handleDomainError(w http.ResponseWriter, err error) {
	s.logger.Warn("domain error", zap.Error(err))
	msg := safeDomainMessage(err)
	for _, h := range s.errorHandlers {
		if h(w, err, msg) {
			return
		}
	}
	s.logger.Error("internal error", zap.Error(err))
	writeError(w, http.StatusInternalServerError, "internal error")
}
