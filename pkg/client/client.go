package assessrag

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const defaultTimeout = 60 * time.Second

// Document is one unit of text to index.
type Document struct {
	ID         string
	Text       string
	SourceFile string
	PageNumber string
}

// SearchResult mirrors the /search/ payload.
type SearchResult struct {
	Query   string   `json:"query"`
	Results []string `json:"results"`
}

// HealthReport mirrors the /health payload.
type HealthReport struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}

// APIError is a non-2xx response from the service.
// Use errors.As() to inspect the status code.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("assessrag: api error %d: %s", e.StatusCode, e.Message)
}

// Option configures the client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.http = h }
}

// WithTimeout sets the request timeout on the default HTTP client.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.http.Timeout = d }
}

// Client calls the assessrag HTTP API.
type Client struct {
	baseURL string
	http    *http.Client
}

// New creates a client for the API at baseURL.
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: defaultTimeout},
	}
	for _, o := range opts {
		o(c)
	}
	return c
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

type errorResponse struct {
	Error string `json:"error"`
}

// --- API calls ---

// PushDocs indexes documents and returns the stored IDs in input order.
// An empty PageNumber defaults to "1" on the server.
func (c *Client) PushDocs(ctx context.Context, docs []Document) ([]string, error) {
	items := make([]pushItem, len(docs))
	for i, d := range docs {
		items[i] = pushItem{
			ID:         d.ID,
			Line:       d.Text,
			Filename:   d.SourceFile,
			PageNumber: d.PageNumber,
		}
	}

	var resp pushDocsResponse
	if err := c.post(ctx, "/push_docs/", pushDocsRequest{Items: items}, &resp); err != nil {
		return nil, err
	}
	return resp.InsertedIDs, nil
}

// Context returns the stored texts most similar to the query.
func (c *Client) Context(ctx context.Context, query string) ([]string, error) {
	var resp contextResponse
	if err := c.post(ctx, "/context/", queryRequest{Query: query}, &resp); err != nil {
		return nil, err
	}
	return resp.Docs, nil
}

// Response generates assessment recommendations grounded in contextText.
// A blank context yields the service's no-answer reply.
func (c *Client) Response(ctx context.Context, query, contextText string) (string, error) {
	var resp answerResponse
	if err := c.post(ctx, "/response/", qaRequest{Query: query, Context: contextText}, &resp); err != nil {
		return "", err
	}
	return resp.Output, nil
}

// Search retrieves matches for a query passed in the URL and echoes the
// query back alongside the results.
func (c *Client) Search(ctx context.Context, query string) (SearchResult, error) {
	var resp SearchResult
	endpoint := c.baseURL + "/search/?query=" + url.QueryEscape(query)
	if err := c.get(ctx, endpoint, &resp); err != nil {
		return SearchResult{}, err
	}
	return resp, nil
}

// Ask chains retrieval and generation: it fetches context for the query
// and feeds the newline-joined texts to the generator.
func (c *Client) Ask(ctx context.Context, query string) (string, error) {
	docs, err := c.Context(ctx, query)
	if err != nil {
		return "", fmt.Errorf("fetch context: %w", err)
	}
	return c.Response(ctx, query, strings.Join(docs, "\n"))
}

// Health reports service health. A degraded service still returns a
// report; only transport failures and unexpected statuses are errors.
func (c *Client) Health(ctx context.Context) (HealthReport, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/health", http.NoBody)
	if err != nil {
		return HealthReport{}, fmt.Errorf("assessrag: create request: %w", err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return HealthReport{}, fmt.Errorf("assessrag: request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusServiceUnavailable {
		return HealthReport{}, apiError(resp)
	}

	var report HealthReport
	if err := json.NewDecoder(resp.Body).Decode(&report); err != nil {
		return HealthReport{}, fmt.Errorf("assessrag: decode response: %w", err)
	}
	return report, nil
}

// --- Transport helpers ---

func (c *Client) post(ctx context.Context, path string, body, out any) error {
	data, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("assessrag: marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("assessrag: create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	return c.do(req, out)
}

func (c *Client) get(ctx context.Context, endpoint string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, http.NoBody)
	if err != nil {
		return fmt.Errorf("assessrag: create request: %w", err)
	}
	return c.do(req, out)
}

func (c *Client) do(req *http.Request, out any) error {
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("assessrag: request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return apiError(resp)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("assessrag: decode response: %w", err)
	}
	return nil
}

func apiError(resp *http.Response) error {
	var body errorResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil || body.Error == "" {
		return &APIError{StatusCode: resp.StatusCode, Message: http.StatusText(resp.StatusCode)}
	}
	return &APIError{StatusCode: resp.StatusCode, Message: body.Error}
}
