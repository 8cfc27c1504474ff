// Package generation decorates a domain.Generator with retries, outbound pacing and logging.
package generation

import (
	"context"
	"fmt"
	"time"
	"unicode/utf8"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/kailas-cloud/collabmatch/internal/domain"
	"github.com/kailas-cloud/collabmatch/internal/logger"
	"github.com/kailas-cloud/collabmatch/internal/retry"
)

// RetryingGenerator bounds every generation call with a timeout and retries
// transient failures. Exhausted attempts surface as domain.ErrProviderError.
type RetryingGenerator struct {
	inner  domain.Generator
	policy retry.Policy
	logger *zap.Logger
}

// NewRetryingGenerator wraps inner with the given retry policy.
func NewRetryingGenerator(inner domain.Generator, policy retry.Policy, logger *zap.Logger) *RetryingGenerator {
	if policy.Operation == "" {
		policy.Operation = "generation"
	}
	return &RetryingGenerator{inner: inner, policy: policy, logger: logger}
}

// Generate implements domain.Generator.
func (r *RetryingGenerator) Generate(ctx context.Context, prompt string) (domain.GenerationResult, error) {
	return retry.Do(ctx, r.policy, r.logger, func(ctx context.Context) (domain.GenerationResult, error) {
		return r.inner.Generate(ctx, prompt)
	})
}

// PacedGenerator limits the outbound request rate to the provider.
type PacedGenerator struct {
	inner   domain.Generator
	limiter *rate.Limiter
}

// NewPacedGenerator wraps inner with a token bucket. rps <= 0 returns inner unchanged.
func NewPacedGenerator(inner domain.Generator, rps float64, burst int) domain.Generator {
	if rps <= 0 {
		return inner
	}
	if burst < 1 {
		burst = 1
	}
	return &PacedGenerator{inner: inner, limiter: rate.NewLimiter(rate.Limit(rps), burst)}
}

// Generate waits for a token, then delegates.
func (p *PacedGenerator) Generate(ctx context.Context, prompt string) (domain.GenerationResult, error) {
	if err := p.limiter.Wait(ctx); err != nil {
		return domain.GenerationResult{}, fmt.Errorf("generation pacing: %w", err)
	}
	return p.inner.Generate(ctx, prompt)
}

// InstrumentedGenerator logs prompt and response previews at debug level.
type InstrumentedGenerator struct {
	inner         domain.Generator
	provider      string
	model         string
	maxPreviewLen int
	logger        *zap.Logger
}

// NewInstrumentedGenerator wraps a generator with observability.
func NewInstrumentedGenerator(
	inner domain.Generator, provider, model string, maxPreviewLen int, logger *zap.Logger,
) *InstrumentedGenerator {
	return &InstrumentedGenerator{
		inner:         inner,
		provider:      provider,
		model:         model,
		maxPreviewLen: maxPreviewLen,
		logger:        logger,
	}
}

// Generate delegates to the inner generator and logs the exchange.
func (g *InstrumentedGenerator) Generate(ctx context.Context, prompt string) (domain.GenerationResult, error) {
	fields := logger.AIFields(g.provider, g.model)

	g.logger.Debug("Generation request", append(fields,
		zap.Int("prompt_length", utf8.RuneCountInString(prompt)),
		zap.String("prompt_preview", logger.TruncateForLog(prompt, g.maxPreviewLen)),
	)...)

	start := time.Now()
	res, err := g.inner.Generate(ctx, prompt)
	duration := time.Since(start)

	if err != nil {
		g.logger.Warn("Generation request failed", append(fields,
			zap.Duration("duration", duration),
			zap.Error(err),
		)...)
		return domain.GenerationResult{}, fmt.Errorf("generate: %w", err)
	}

	g.logger.Debug("Generation response", append(fields,
		zap.Duration("duration", duration),
		zap.Int("total_tokens", res.TotalTokens),
		zap.Int("response_length", utf8.RuneCountInString(res.Text)),
		zap.String("response_preview", logger.TruncateForLog(res.Text, g.maxPreviewLen)),
	)...)

	return res, nil
}
