// Package gemini adapts the Google Generative AI API to the
// domain.Generator contract.
package gemini

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"

	"github.com/hrtools/assessrag/internal/domain"
	"github.com/hrtools/assessrag/internal/metrics"
)

const provider = "gemini"

// Generator is a text generation provider using the Gemini API.
type Generator struct {
	client *genai.Client
	model  *genai.GenerativeModel
	name   string
}

// Config holds the generation provider settings.
type Config struct {
	APIKey          string
	Model           string
	MaxOutputTokens int
	Temperature     float32
}

// NewGenerator creates a Gemini generation provider.
func NewGenerator(ctx context.Context, cfg *Config) (*Generator, error) {
	client, err := genai.NewClient(ctx, option.WithAPIKey(cfg.APIKey))
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}

	model := client.GenerativeModel(cfg.Model)
	model.SetTemperature(cfg.Temperature)
	if cfg.MaxOutputTokens > 0 {
		model.SetMaxOutputTokens(int32(cfg.MaxOutputTokens))
	}

	return &Generator{
		client: client,
		model:  model,
		name:   cfg.Model,
	}, nil
}

// Generate implements domain.Generator. Sends a single-turn prompt and
// returns the concatenated text parts of the first candidate.
func (g *Generator) Generate(ctx context.Context, prompt string) (domain.GenerationResult, error) {
	start := time.Now()

	resp, err := g.model.GenerateContent(ctx, genai.Text(prompt))

	duration := time.Since(start)

	if err != nil {
		metrics.GenerationRequestsTotal.WithLabelValues(provider, g.name, "error").Inc()
		return domain.GenerationResult{}, mapError(err)
	}

	text, err := extractText(resp)
	if err != nil {
		metrics.GenerationRequestsTotal.WithLabelValues(provider, g.name, "error").Inc()
		return domain.GenerationResult{}, err
	}

	metrics.GenerationRequestsTotal.WithLabelValues(provider, g.name, "success").Inc()
	metrics.GenerationRequestDuration.WithLabelValues(provider, g.name).Observe(duration.Seconds())

	tokens := tokenCount(resp)
	if tokens > 0 {
		metrics.GenerationTokensTotal.WithLabelValues(provider, g.name).Add(float64(tokens))
	}

	return domain.GenerationResult{
		Text:        text,
		TotalTokens: tokens,
	}, nil
}

// Close releases the underlying API client.
func (g *Generator) Close() error {
	return g.client.Close() //nolint:wrapcheck // delegating to underlying client
}

// mapError wraps provider failures for correct status mapping. Rate-limit
// responses map to domain.ErrRateLimited, everything else to
// domain.ErrGenerationProviderError.
func mapError(err error) error {
	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		wrap := domain.ErrGenerationProviderError
		if apiErr.Code == http.StatusTooManyRequests {
			wrap = domain.ErrRateLimited
		}
		return fmt.Errorf("generation API error %d: %s: %w", apiErr.Code, apiErr.Message, wrap)
	}

	return fmt.Errorf("generation request failed: %v: %w", err, domain.ErrGenerationProviderError)
}

// extractText concatenates the text parts of the first candidate.
func extractText(resp *genai.GenerateContentResponse) (string, error) {
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return "", fmt.Errorf("empty generation response: %w", domain.ErrGenerationProviderError)
	}

	var sb strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if text, ok := part.(genai.Text); ok {
			sb.WriteString(string(text))
		}
	}
	if sb.Len() == 0 {
		return "", fmt.Errorf("no text parts in generation response: %w", domain.ErrGenerationProviderError)
	}

	return sb.String(), nil
}

func tokenCount(resp *genai.GenerateContentResponse) int {
	if resp.UsageMetadata == nil {
		return 0
	}
	return int(resp.UsageMetadata.TotalTokenCount)
}
