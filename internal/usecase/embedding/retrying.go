package embedding

import (
	"context"

	"go.uber.org/zap"

	"github.com/kailas-cloud/collabmatch/internal/domain"
	"github.com/kailas-cloud/collabmatch/internal/retry"
)

// RetryingEmbedder bounds every embedding call with a timeout and retries
// transient failures. Exhausted attempts surface as domain.ErrProviderError.
type RetryingEmbedder struct {
	inner  domain.Embedder
	policy retry.Policy
	logger *zap.Logger
}

// NewRetryingEmbedder wraps inner with the given retry policy.
func NewRetryingEmbedder(inner domain.Embedder, policy retry.Policy, logger *zap.Logger) *RetryingEmbedder {
	if policy.Operation == "" {
		policy.Operation = "embedding"
	}
	return &RetryingEmbedder{inner: inner, policy: policy, logger: logger}
}

// Embed implements domain.Embedder.
func (r *RetryingEmbedder) Embed(ctx context.Context, text string) (domain.EmbeddingResult, error) {
	return retry.Do(ctx, r.policy, r.logger, func(ctx context.Context) (domain.EmbeddingResult, error) {
		return r.inner.Embed(ctx, text)
	})
}
