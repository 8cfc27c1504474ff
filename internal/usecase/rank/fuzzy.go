package rank

import (
	"strings"

	"github.com/adrg/strutil"
	"github.com/adrg/strutil/metrics"

	"github.com/kailas-cloud/collabmatch/internal/domain/match"
	"github.com/kailas-cloud/collabmatch/internal/domain/profile"
)

// DefaultNameThreshold is the minimum similarity for a name match.
const DefaultNameThreshold = 0.85

// FuzzyName ranks profiles by how closely their name resembles the query.
type FuzzyName struct {
	threshold float64
	topK      int
	jw        *metrics.JaroWinkler
	lev       *metrics.Levenshtein
}

// NewFuzzyName creates a name ranker. Candidates scoring below threshold are dropped.
func NewFuzzyName(threshold float64, topK int) *FuzzyName {
	if threshold <= 0 {
		threshold = DefaultNameThreshold
	}
	if topK <= 0 {
		topK = DefaultTopK
	}

	jw := metrics.NewJaroWinkler()
	jw.CaseSensitive = false
	lev := metrics.NewLevenshtein()
	lev.CaseSensitive = false

	return &FuzzyName{threshold: threshold, topK: topK, jw: jw, lev: lev}
}

// Similarity scores a query against a full name in [0,1]. Token scoring
// tolerates dropped middle names and reordering; the whole-string edit
// distance covers typos that split or merge tokens.
// Every query token must resemble some name token on its own: a shared
// surname does not carry a different first name over the threshold.
func (f *FuzzyName) Similarity(query, name string) float64 {
	q := strings.Fields(strings.ToLower(query))
	n := strings.Fields(strings.ToLower(name))
	if len(q) == 0 || len(n) == 0 {
		return 0
	}

	var sum float64
	worst := 1.0
	for _, qt := range q {
		best := 0.0
		for _, nt := range n {
			best = max(best, strutil.Similarity(qt, nt, f.jw))
		}
		sum += best
		worst = min(worst, best)
	}
	tokens := sum / float64(len(q))
	if worst < f.threshold {
		tokens = worst
	}

	whole := strutil.Similarity(strings.Join(q, " "), strings.Join(n, " "), f.lev)
	return match.Clamp(max(tokens, whole))
}

// Rank returns profiles at or above the threshold, best topK first.
// An empty result means nobody matched.
func (f *FuzzyName) Rank(query string, profiles []profile.Profile) []match.Scored {
	var scored []match.Scored
	for _, p := range profiles {
		s := f.Similarity(query, p.Name)
		if s < f.threshold {
			continue
		}
		scored = append(scored, match.Scored{Profile: p, Score: s})
	}
	return match.TopK(scored, f.topK)
}
