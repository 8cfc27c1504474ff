package health

import "context"

// ProfileCounter reports how many profiles are loaded.
type ProfileCounter interface {
	Len() int
}

// CachePinger checks the shared embedding cache.
type CachePinger interface {
	Ping(ctx context.Context) error
}

// EmbeddingChecker checks embedding provider availability.
type EmbeddingChecker interface {
	HealthCheck(ctx context.Context) error
}
