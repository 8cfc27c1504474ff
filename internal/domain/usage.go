package domain

import (
	"context"
	"sync"
)

type usageKey struct{}

// Usage collects provider token usage for a single request.
// The handler puts a pointer into the context before calling the service;
// providers add to it; the handler reads it for response headers.
// Explanations run concurrently, so writes are guarded.
type Usage struct {
	mu               sync.Mutex
	embeddingTokens  int
	generationTokens int
	embeddingUsed    bool
	generationUsed   bool
}

// NewContextWithUsage returns a context with an embedded usage collector.
func NewContextWithUsage(ctx context.Context) (context.Context, *Usage) {
	u := &Usage{}
	return context.WithValue(ctx, usageKey{}, u), u
}

// UsageFromContext extracts the usage collector from context. Returns nil if not set.
func UsageFromContext(ctx context.Context) *Usage {
	u, _ := ctx.Value(usageKey{}).(*Usage)
	return u
}

// AddEmbeddingTokens records tokens consumed by an embedding call.
func (u *Usage) AddEmbeddingTokens(n int) {
	if u == nil {
		return
	}
	u.mu.Lock()
	u.embeddingTokens += n
	u.embeddingUsed = true
	u.mu.Unlock()
}

// AddGenerationTokens records tokens consumed by a generation call.
func (u *Usage) AddGenerationTokens(n int) {
	if u == nil {
		return
	}
	u.mu.Lock()
	u.generationTokens += n
	u.generationUsed = true
	u.mu.Unlock()
}

// Embedding returns embedding tokens and whether an embedding call happened at all
// (a cache hit counts as used with zero tokens).
func (u *Usage) Embedding() (int, bool) {
	if u == nil {
		return 0, false
	}
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.embeddingTokens, u.embeddingUsed
}

// Generation returns generation tokens and whether a generation call happened.
func (u *Usage) Generation() (int, bool) {
	if u == nil {
		return 0, false
	}
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.generationTokens, u.generationUsed
}
