// Package classify decides how a raw recommendation input is interpreted.
package classify

import (
	"strings"
	"unicode"

	"github.com/kailas-cloud/collabmatch/internal/domain/query/mode"
	"github.com/kailas-cloud/collabmatch/internal/domain/vocab"
)

const (
	// maxQueryWords separates query-shaped input from prose.
	maxQueryWords = 12
	// maxNameLen and maxNameWords bound what still looks like a person's name.
	maxNameLen   = 50
	maxNameWords = 3
	// minReverseLen is the shortest token that may match as a vocabulary prefix ("kube").
	minReverseLen = 3
)

// Rule inspects the input and reports a mode when it applies.
type Rule struct {
	Name  string
	Match func(text string) (mode.Mode, bool)
}

var rules = []Rule{
	{Name: "trigger_phrase", Match: triggerPhrase},
	{Name: "vocabulary", Match: vocabulary},
	{Name: "name_shape", Match: nameShape},
}

// Rules returns the ordered rule table. The first matching rule wins;
// input no rule claims is treated as a resume.
func Rules() []Rule {
	out := make([]Rule, len(rules))
	copy(out, rules)
	return out
}

// Classifier maps free text to a query mode. It is stateless and safe for concurrent use.
type Classifier struct{}

// New creates a classifier.
func New() *Classifier {
	return &Classifier{}
}

// Classify returns the mode for text. It never fails.
func (c *Classifier) Classify(text string) mode.Mode {
	text = strings.TrimSpace(text)
	for _, r := range rules {
		if m, ok := r.Match(text); ok {
			return m
		}
	}
	return mode.Resume
}

func triggerPhrase(text string) (mode.Mode, bool) {
	if !queryShaped(text) {
		return "", false
	}
	for _, t := range vocab.Triggers {
		if vocab.ContainsTerm(text, t) {
			return mode.KeywordSearch, true
		}
	}
	return "", false
}

func vocabulary(text string) (mode.Mode, bool) {
	if !queryShaped(text) || text == "" {
		return "", false
	}
	single := len(strings.Fields(text)) == 1

	for _, term := range vocab.Tech {
		var found bool
		if vocab.Ambiguous[term] && !single {
			found = vocab.ContainsTermCased(text, term)
		} else {
			found = vocab.ContainsTerm(text, term)
		}
		if found {
			return mode.KeywordSearch, true
		}
	}

	// A lone lower-case fragment of a term ("kube", "postgre") is still a skill query.
	if single && len(text) >= minReverseLen && !startsUpper(text) {
		lower := strings.ToLower(text)
		for _, term := range vocab.Tech {
			if strings.Contains(term, lower) {
				return mode.KeywordSearch, true
			}
		}
	}
	return "", false
}

func nameShape(text string) (mode.Mode, bool) {
	if text == "" || len(text) >= maxNameLen {
		return "", false
	}
	words := strings.Fields(text)
	if len(words) > maxNameWords {
		return "", false
	}
	for _, r := range text {
		if !unicode.IsLetter(r) && r != ' ' && r != '\'' && r != '-' {
			return "", false
		}
	}
	for _, w := range words {
		if startsUpper(w) {
			return mode.NameSearch, true
		}
	}
	return "", false
}

func queryShaped(text string) bool {
	return len(strings.Fields(text)) <= maxQueryWords
}

func startsUpper(s string) bool {
	for _, r := range s {
		return unicode.IsUpper(r)
	}
	return false
}
