package recommend

import (
	"context"

	"github.com/kailas-cloud/collabmatch/internal/domain"
	"github.com/kailas-cloud/collabmatch/internal/domain/match"
	"github.com/kailas-cloud/collabmatch/internal/domain/profile"
	"github.com/kailas-cloud/collabmatch/internal/domain/query/mode"
)

// ProfileStore is the read side of the profile set plus memoized embeddings.
type ProfileStore interface {
	All() []profile.Profile
	Get(id string) (profile.Profile, error)
	Catalog() []string
	EmbeddingOf(ctx context.Context, p profile.Profile) ([]float32, error)
}

// Embedder vectorizes query text.
type Embedder interface {
	Embed(ctx context.Context, text string) (domain.EmbeddingResult, error)
}

// Classifier picks a mode for free text.
type Classifier interface {
	Classify(text string) mode.Mode
}

// Explainer annotates ranked candidates. It never fails.
type Explainer interface {
	Explain(ctx context.Context, text string, s match.Scored) match.Result
	Narrate(ctx context.Context, text string, results []match.Result) string
}
