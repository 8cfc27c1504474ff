package rank

import (
	"math"

	"github.com/kailas-cloud/collabmatch/internal/domain/match"
)

// Similarity ranks candidates by cosine similarity to a query embedding.
type Similarity struct {
	topK int
}

// NewSimilarity creates a similarity ranker returning at most topK results.
func NewSimilarity(topK int) *Similarity {
	if topK <= 0 {
		topK = DefaultTopK
	}
	return &Similarity{topK: topK}
}

// Rank scores every candidate and returns the best topK, ties broken by ID.
func (s *Similarity) Rank(query []float32, candidates []Candidate) []match.Scored {
	scored := make([]match.Scored, 0, len(candidates))
	for _, c := range candidates {
		scored = append(scored, match.Scored{
			Profile: c.Profile,
			Score:   match.Clamp(Cosine(query, c.Embedding)),
		})
	}
	return match.TopK(scored, s.topK)
}

// Cosine returns the cosine similarity of a and b. Zero vectors and
// mismatched dimensions yield 0. The result is symmetric in its arguments.
func Cosine(a, b []float32) float64 {
	if len(a) == 0 || len(a) != len(b) {
		return 0
	}

	var dot, na, nb float64
	for i := range a {
		x, y := float64(a[i]), float64(b[i])
		dot += x * y
		na += x * x
		nb += y * y
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}
