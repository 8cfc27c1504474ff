package openai

import (
	"context"
	"fmt"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/kailas-cloud/collabmatch/internal/domain"
	"github.com/kailas-cloud/collabmatch/internal/metrics"
)

const systemPrompt = "You are an assistant that helps employees find colleagues to collaborate with. " +
	"Answer with a single JSON object and nothing else."

// ChatGenerator implements domain.Generator over chat completions in JSON mode.
type ChatGenerator struct {
	client      *openai.Client
	model       string
	temperature float32
	provider    string
	logger      *zap.Logger
}

// GeneratorConfig holds chat generation settings.
type GeneratorConfig struct {
	APIKey      string
	BaseURL     string
	Model       string
	Temperature float32
	Logger      *zap.Logger
}

// NewChatGenerator creates an OpenAI-compatible chat generator.
func NewChatGenerator(cfg *GeneratorConfig) *ChatGenerator {
	return &ChatGenerator{
		client:      newClient(cfg.APIKey, cfg.BaseURL),
		model:       cfg.Model,
		temperature: cfg.Temperature,
		provider:    "openai",
		logger:      cfg.Logger,
	}
}

// Provider returns the provider label used in metrics and logs.
func (g *ChatGenerator) Provider() string { return g.provider }

// Model returns the chat model name.
func (g *ChatGenerator) Model() string { return g.model }

// Generate sends the prompt as a user message and returns the first choice.
func (g *ChatGenerator) Generate(ctx context.Context, prompt string) (domain.GenerationResult, error) {
	req := openai.ChatCompletionRequest{
		Model: g.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
		Temperature: g.temperature,
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
	}

	start := time.Now()
	resp, err := g.client.CreateChatCompletion(ctx, req)
	duration := time.Since(start)

	if err != nil {
		metrics.GenerationRequestsTotal.WithLabelValues(g.provider, g.model, "error").Inc()
		return domain.GenerationResult{}, parseAPIError("generation", err)
	}

	if len(resp.Choices) == 0 || strings.TrimSpace(resp.Choices[0].Message.Content) == "" {
		metrics.GenerationRequestsTotal.WithLabelValues(g.provider, g.model, "error").Inc()
		return domain.GenerationResult{}, fmt.Errorf("empty chat completion: %w", domain.ErrProviderError)
	}

	metrics.GenerationRequestsTotal.WithLabelValues(g.provider, g.model, "success").Inc()
	metrics.GenerationRequestDuration.WithLabelValues(g.provider, g.model).Observe(duration.Seconds())
	if resp.Usage.TotalTokens > 0 {
		metrics.GenerationTokensTotal.WithLabelValues(g.provider, g.model).Add(float64(resp.Usage.TotalTokens))
	}
	domain.UsageFromContext(ctx).AddGenerationTokens(resp.Usage.TotalTokens)

	return domain.GenerationResult{
		Text:        resp.Choices[0].Message.Content,
		TotalTokens: resp.Usage.TotalTokens,
	}, nil
}
