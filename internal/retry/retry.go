// Package retry runs remote calls with a per-attempt timeout and capped exponential backoff.
package retry

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/collabmatch/internal/domain"
	logpkg "github.com/kailas-cloud/collabmatch/internal/logger"
	"github.com/kailas-cloud/collabmatch/internal/metrics"
)

const maxBackoff = 5 * time.Second

// Policy bounds a retried call.
type Policy struct {
	Operation   string // metrics and log label, e.g. "embedding"
	MaxAttempts int
	Timeout     time.Duration // per attempt; 0 disables
	Backoff     time.Duration // delay before the second attempt, doubled after each failure
}

type permanentError struct{ err error }

func (e *permanentError) Error() string { return e.err.Error() }
func (e *permanentError) Unwrap() error { return e.err }

// Permanent marks err as not worth retrying (bad request, auth failure).
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return &permanentError{err: err}
}

// IsPermanent reports whether err was marked with Permanent.
func IsPermanent(err error) bool {
	var p *permanentError
	return errors.As(err, &p)
}

var wait = func(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// Do calls fn until it succeeds, fails permanently, the parent ctx ends, or
// attempts run out. A per-attempt timeout counts as a provider failure.
// The returned error always wraps domain.ErrProviderError.
// A request logger stored in ctx takes precedence over logger.
func Do[T any](ctx context.Context, p Policy, logger *zap.Logger, fn func(ctx context.Context) (T, error)) (T, error) {
	var zero T
	log := logpkg.FromContext(ctx, logger)
	attempts := max(p.MaxAttempts, 1)
	backoff := p.Backoff

	var lastErr error
	made := 0
	for attempt := 1; attempt <= attempts; attempt++ {
		made = attempt
		res, err := once(ctx, p.Timeout, fn)
		if err == nil {
			metrics.RetryAttemptsTotal.WithLabelValues(p.Operation, "ok").Inc()
			return res, nil
		}
		lastErr = err

		if ctx.Err() != nil || IsPermanent(err) || attempt == attempts {
			break
		}

		metrics.RetryAttemptsTotal.WithLabelValues(p.Operation, "retry").Inc()
		log.Warn("remote call failed, retrying",
			zap.String("operation", p.Operation),
			zap.Int("attempt", attempt),
			zap.Duration("backoff", backoff),
			zap.Error(err),
		)
		if werr := wait(ctx, backoff); werr != nil {
			lastErr = werr
			break
		}
		backoff = min(backoff*2, maxBackoff)
	}

	metrics.RetryAttemptsTotal.WithLabelValues(p.Operation, "exhausted").Inc()
	log.Warn("remote call failed, giving up",
		zap.String("operation", p.Operation),
		zap.Int("attempts", made),
		zap.Error(lastErr),
	)
	if errors.Is(lastErr, domain.ErrProviderError) {
		return zero, fmt.Errorf("%s failed: %w", p.Operation, lastErr)
	}
	return zero, fmt.Errorf("%s failed: %w: %w", p.Operation, domain.ErrProviderError, lastErr)
}

func once[T any](ctx context.Context, timeout time.Duration, fn func(ctx context.Context) (T, error)) (T, error) {
	if timeout <= 0 {
		return fn(ctx)
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	return fn(ctx)
}
