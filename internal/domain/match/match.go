package match

import (
	"sort"

	"github.com/kailas-cloud/collabmatch/internal/domain/profile"
)

// MaxSuggestions caps collaboration suggestions per result.
const MaxSuggestions = 3

// Scored is a ranker output: a candidate and its relevance in [0,1].
type Scored struct {
	Profile profile.Profile
	Score   float64
}

// Overlap is the structured evidence of why a candidate matches a query.
type Overlap struct {
	SharedSkills      []string
	MatchingProjects  []string
	MatchingDomains   []string
	TechOverlap       []string
	MatchingSeniority bool
	ReasonSummary     string
}

// Result is an annotated recommendation.
type Result struct {
	profile     profile.Profile
	score       float64
	overlap     Overlap
	suggestions []string
}

// New creates a result. Score is clamped to [0,1]; suggestions are capped at MaxSuggestions.
func New(p profile.Profile, score float64, overlap Overlap, suggestions []string) Result {
	if len(suggestions) > MaxSuggestions {
		suggestions = suggestions[:MaxSuggestions]
	}
	return Result{profile: p, score: Clamp(score), overlap: overlap, suggestions: suggestions}
}

// Profile returns the candidate profile.
func (r *Result) Profile() profile.Profile { return r.profile }

// Score returns the match score in [0,1].
func (r *Result) Score() float64 { return r.score }

// Summary returns the one-paragraph match explanation.
func (r *Result) Summary() string { return r.overlap.ReasonSummary }

// Overlap returns the structured match evidence.
func (r *Result) Overlap() Overlap { return r.overlap }

// Suggestions returns the collaboration suggestions.
func (r *Result) Suggestions() []string { return r.suggestions }

// Clamp bounds a score to [0,1].
func Clamp(s float64) float64 {
	switch {
	case s < 0 || s != s:
		return 0
	case s > 1:
		return 1
	default:
		return s
	}
}

// SortScored orders by descending score, ties by ascending profile ID.
func SortScored(items []Scored) {
	sort.SliceStable(items, func(i, j int) bool {
		if items[i].Score != items[j].Score {
			return items[i].Score > items[j].Score
		}
		return items[i].Profile.ID < items[j].Profile.ID
	})
}

// TopK sorts items and truncates them to k entries (k <= 0 keeps all).
func TopK(items []Scored, k int) []Scored {
	SortScored(items)
	if k > 0 && len(items) > k {
		items = items[:k]
	}
	return items
}
