package explain

import (
	"strings"

	"github.com/kailas-cloud/collabmatch/internal/domain/match"
	"github.com/kailas-cloud/collabmatch/internal/domain/profile"
	"github.com/kailas-cloud/collabmatch/internal/domain/vocab"
)

// Facts computes the locally derivable overlap between a query and a candidate.
// ReasonSummary is left empty.
func (e *Explainer) Facts(text string, p profile.Profile) match.Overlap {
	terms := e.queryTerms(text)
	queryDomains := domainsIn(text)

	var o match.Overlap

	sharedSeen := make(map[string]bool)
	for _, s := range p.Skills {
		key := strings.ToLower(s)
		if terms[key] && !sharedSeen[key] {
			sharedSeen[key] = true
			o.SharedSkills = append(o.SharedSkills, s)
		}
	}

	seen := make(map[string]bool)
	addTech := func(t string) {
		key := strings.ToLower(t)
		if terms[key] && !seen[key] {
			seen[key] = true
			o.TechOverlap = append(o.TechOverlap, t)
		}
	}
	for _, pr := range p.Projects {
		for _, t := range pr.Tech {
			addTech(t)
		}
	}
	for _, t := range p.Tools {
		addTech(t)
	}

	shared := make(map[string]bool)
	for _, pr := range p.Projects {
		matched := false
		for _, d := range domainsIn(pr.Name + " " + pr.Description) {
			if contains(queryDomains, d) {
				shared[d] = true
				matched = true
			}
		}
		if matched {
			o.MatchingProjects = append(o.MatchingProjects, pr.Name)
		}
	}

	if p.Department != "" && vocab.ContainsTerm(text, p.Department) {
		o.MatchingDomains = append(o.MatchingDomains, p.Department)
	}
	for _, d := range vocab.Domains {
		if shared[d] && !contains(o.MatchingDomains, d) {
			o.MatchingDomains = append(o.MatchingDomains, d)
		}
	}

	if band, ok := inferBand(text); ok {
		o.MatchingSeniority = band == bandOf(p.ExperienceYears)
	}
	return o
}

// queryTerms returns the lower-case catalogue terms present in text.
func (e *Explainer) queryTerms(text string) map[string]bool {
	lower := strings.ToLower(text)
	terms := make(map[string]bool)
	for _, group := range [][]string{vocab.Tech, e.catalog} {
		for _, t := range group {
			t = strings.ToLower(t)
			if !terms[t] && vocab.IndexTerm(lower, t) >= 0 {
				terms[t] = true
			}
		}
	}
	return terms
}

// domainsIn returns the domain keywords mentioned in text, plural forms included.
func domainsIn(text string) []string {
	var out []string
	for _, d := range vocab.Domains {
		if vocab.ContainsTerm(text, d) || vocab.ContainsTerm(text, d+"s") {
			out = append(out, d)
		}
	}
	return out
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
