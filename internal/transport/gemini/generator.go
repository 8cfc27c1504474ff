package gemini

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
	"google.golang.org/genai"

	"github.com/kailas-cloud/collabmatch/internal/domain"
	"github.com/kailas-cloud/collabmatch/internal/metrics"
	"github.com/kailas-cloud/collabmatch/internal/retry"
)

const (
	defaultModel = "gemini-2.5-flash"
	provider     = "gemini"

	systemInstruction = "You help employees find colleagues to collaborate with. " +
		"Respond with a single JSON object and nothing else."
)

// contentClient is the slice of *genai.Models the generator needs.
type contentClient interface {
	GenerateContent(
		ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig,
	) (*genai.GenerateContentResponse, error)
}

// Generator implements domain.Generator on the Gemini API.
type Generator struct {
	models      contentClient
	model       string
	temperature float32
	logger      *zap.Logger
}

// NewGenerator creates a Generator configured for the Gemini API backend.
func NewGenerator(ctx context.Context, apiKey, model string, temperature float32, logger *zap.Logger) (*Generator, error) {
	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		return nil, errors.New("gemini api key is required")
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}

	if model = strings.TrimSpace(model); model == "" {
		model = defaultModel
	}

	return &Generator{models: client.Models, model: model, temperature: temperature, logger: logger}, nil
}

// Provider returns the provider label used in metrics and logs.
func (g *Generator) Provider() string { return provider }

// Model returns the Gemini model name.
func (g *Generator) Model() string { return g.model }

// Generate sends the prompt and joins the textual parts of all candidates.
func (g *Generator) Generate(ctx context.Context, prompt string) (domain.GenerationResult, error) {
	prompt = strings.TrimSpace(prompt)
	if prompt == "" {
		return domain.GenerationResult{}, retry.Permanent(fmt.Errorf("prompt must not be empty: %w", domain.ErrProviderError))
	}

	temperature := g.temperature
	cfg := &genai.GenerateContentConfig{
		SystemInstruction: &genai.Content{Parts: []*genai.Part{{Text: systemInstruction}}},
		ResponseMIMEType:  "application/json",
		Temperature:       &temperature,
	}

	start := time.Now()
	resp, err := g.models.GenerateContent(ctx, g.model, genai.Text(prompt), cfg)
	duration := time.Since(start)

	if err != nil {
		metrics.GenerationRequestsTotal.WithLabelValues(provider, g.model, "error").Inc()
		return domain.GenerationResult{}, classifyError(err)
	}

	var builder strings.Builder
	for _, candidate := range resp.Candidates {
		if candidate == nil || candidate.Content == nil {
			continue
		}
		for _, part := range candidate.Content.Parts {
			if part == nil {
				continue
			}
			text := strings.TrimSpace(part.Text)
			if text == "" {
				continue
			}
			if builder.Len() > 0 {
				builder.WriteString("\n")
			}
			builder.WriteString(text)
		}
	}

	output := strings.TrimSpace(builder.String())
	if output == "" {
		metrics.GenerationRequestsTotal.WithLabelValues(provider, g.model, "error").Inc()
		return domain.GenerationResult{}, fmt.Errorf("gemini api returned empty response: %w", domain.ErrProviderError)
	}

	var tokens int
	if resp.UsageMetadata != nil {
		tokens = int(resp.UsageMetadata.TotalTokenCount)
	}

	metrics.GenerationRequestsTotal.WithLabelValues(provider, g.model, "success").Inc()
	metrics.GenerationRequestDuration.WithLabelValues(provider, g.model).Observe(duration.Seconds())
	if tokens > 0 {
		metrics.GenerationTokensTotal.WithLabelValues(provider, g.model).Add(float64(tokens))
	}
	domain.UsageFromContext(ctx).AddGenerationTokens(tokens)

	return domain.GenerationResult{Text: output, TotalTokens: tokens}, nil
}

func classifyError(err error) error {
	wrapped := fmt.Errorf("generate content: %w: %w", domain.ErrProviderError, err)

	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.Code {
		case http.StatusBadRequest, http.StatusUnauthorized, http.StatusForbidden, http.StatusNotFound:
			return retry.Permanent(wrapped)
		}
	}
	return wrapped
}
