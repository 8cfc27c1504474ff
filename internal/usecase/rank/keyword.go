package rank

import (
	"sort"
	"strings"

	"github.com/kailas-cloud/collabmatch/internal/domain/match"
	"github.com/kailas-cloud/collabmatch/internal/domain/profile"
	"github.com/kailas-cloud/collabmatch/internal/domain/vocab"
)

// Keyword ranks profiles by the fraction of query terms found in their skills, tools or title.
type Keyword struct {
	phrases []string // multi-word or punctuated catalogue terms, longest first
	topK    int
}

// NewKeyword creates a keyword ranker. catalog holds the skills and tools known
// to the store; they are matched whole in addition to the built-in vocabulary.
func NewKeyword(catalog []string, topK int) *Keyword {
	if topK <= 0 {
		topK = DefaultTopK
	}

	seen := make(map[string]bool)
	var phrases []string
	for _, group := range [][]string{vocab.Tech, catalog} {
		for _, t := range group {
			t = strings.ToLower(strings.TrimSpace(t))
			if t == "" || seen[t] || !compound(t) {
				continue
			}
			seen[t] = true
			phrases = append(phrases, t)
		}
	}
	sort.SliceStable(phrases, func(i, j int) bool { return len(phrases[i]) > len(phrases[j]) })

	return &Keyword{phrases: phrases, topK: topK}
}

// Terms extracts the distinct lower-case search terms of a query.
func (k *Keyword) Terms(text string) []string {
	rest := strings.ToLower(text)
	for _, t := range vocab.Triggers {
		rest = blank(rest, t)
	}

	var terms []string
	seen := make(map[string]bool)
	add := func(t string) {
		if !seen[t] {
			seen[t] = true
			terms = append(terms, t)
		}
	}

	for _, p := range k.phrases {
		if vocab.ContainsTerm(rest, p) {
			add(p)
			rest = blank(rest, p)
		}
	}
	for _, tok := range vocab.Tokens(rest) {
		if !vocab.Filler[tok] {
			add(tok)
		}
	}
	return terms
}

// Rank returns profiles matching at least one term, best topK first.
func (k *Keyword) Rank(text string, profiles []profile.Profile) []match.Scored {
	terms := k.Terms(text)
	if len(terms) == 0 {
		return nil
	}

	var scored []match.Scored
	for _, p := range profiles {
		matched := 0
		for _, t := range terms {
			if termMatches(t, p) {
				matched++
			}
		}
		if matched == 0 {
			continue
		}
		scored = append(scored, match.Scored{
			Profile: p,
			Score:   match.Clamp(float64(matched) / float64(max(1, len(terms)))),
		})
	}
	return match.TopK(scored, k.topK)
}

func termMatches(term string, p profile.Profile) bool {
	for _, group := range [][]string{p.Skills, p.Tools} {
		for _, s := range group {
			if strings.EqualFold(s, term) || vocab.ContainsTerm(s, term) {
				return true
			}
		}
	}
	return vocab.ContainsTerm(p.Title, term)
}

// compound reports whether a term would not survive plain tokenization.
func compound(t string) bool {
	return strings.ContainsAny(t, " ./+#-")
}

// blank replaces every word-bounded occurrence of term in the lower-case s with spaces.
func blank(s, term string) string {
	for {
		i := vocab.IndexTerm(s, term)
		if i < 0 {
			return s
		}
		s = s[:i] + strings.Repeat(" ", len(term)) + s[i+len(term):]
	}
}
