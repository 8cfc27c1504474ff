// Package explain turns a ranked candidate into a human-readable match explanation.
package explain

import (
	"context"
	_ "embed"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/kailas-cloud/collabmatch/internal/domain"
	"github.com/kailas-cloud/collabmatch/internal/domain/match"
	"github.com/kailas-cloud/collabmatch/internal/domain/profile"
	logpkg "github.com/kailas-cloud/collabmatch/internal/logger"
	"github.com/kailas-cloud/collabmatch/internal/metrics"
)

//go:embed prompt.md
var promptTemplate string

//go:embed narrative.md
var narrativeTemplate string

const (
	maxPromptQueryLen = 2000
	maxPromptSkills   = 8
	maxPromptProjects = 3

	genericReason = "Strong overlap in technical skills and project experience."
)

// Explanation source labels for metrics.
const (
	sourceGenerated = "generated"
	sourceFallback  = "fallback"
)

// Explainer builds explanations from local overlap facts and, when a
// generator is configured, a generated summary with suggestions.
type Explainer struct {
	gen     domain.Generator
	catalog []string
	logger  *zap.Logger
}

// New creates an explainer. gen may be nil, in which case every explanation
// comes from the deterministic template. catalog holds the store's skills and tools.
func New(gen domain.Generator, catalog []string, logger *zap.Logger) *Explainer {
	return &Explainer{gen: gen, catalog: catalog, logger: logger}
}

// Explain annotates a scored candidate. It never fails: generation errors
// and unusable output fall back to a template built from the overlap facts,
// so the summary is never empty and there is at least one suggestion.
// Remote call logs carry the request logger from ctx plus the candidate id.
func (e *Explainer) Explain(ctx context.Context, text string, s match.Scored) match.Result {
	log := logpkg.FromContext(ctx, e.logger).With(zap.String("employee_id", s.Profile.ID))
	ctx = logpkg.NewContext(ctx, log)
	overlap := e.Facts(text, s.Profile)

	g, err := e.generate(ctx, text, s.Profile, overlap)
	if err != nil {
		if e.gen != nil {
			log.Warn("Explanation generation failed, using template", zap.Error(err))
		}
		metrics.ExplanationsTotal.WithLabelValues(sourceFallback).Inc()
		overlap.ReasonSummary = fallbackReason(overlap, s.Profile)
		return match.New(s.Profile, s.Score, overlap, fallbackSuggestions(overlap))
	}

	metrics.ExplanationsTotal.WithLabelValues(sourceGenerated).Inc()
	overlap.ReasonSummary = g.Summary
	suggestions := g.Suggestions
	if len(suggestions) == 0 {
		suggestions = fallbackSuggestions(overlap)
	}
	return match.New(s.Profile, s.Score, overlap, suggestions)
}

func (e *Explainer) generate(ctx context.Context, text string, p profile.Profile, o match.Overlap) (generated, error) {
	if e.gen == nil {
		return generated{}, fmt.Errorf("no generator configured")
	}
	res, err := e.gen.Generate(ctx, buildPrompt(text, p, o))
	if err != nil {
		return generated{}, err
	}
	return parseExplanation(res.Text)
}

// Narrate writes a collaboration summary for a whole result set. Without a
// generator, or when generation fails, a summary is assembled from the results.
func (e *Explainer) Narrate(ctx context.Context, text string, results []match.Result) string {
	if len(results) == 0 {
		return "No colleagues matched this request."
	}
	if e.gen == nil {
		return fallbackNarrative(results)
	}

	res, err := e.gen.Generate(ctx, buildNarrativePrompt(text, results))
	if err == nil {
		var s string
		if s, err = parseNarrative(res.Text); err == nil {
			return s
		}
	}
	logpkg.FromContext(ctx, e.logger).Warn("Summary generation failed, using template", zap.Error(err))
	return fallbackNarrative(results)
}

func buildPrompt(text string, p profile.Profile, o match.Overlap) string {
	return strings.NewReplacer(
		"{{QUERY}}", clip(text, maxPromptQueryLen),
		"{{CANDIDATE}}", describeProfile(p),
		"{{OVERLAP}}", describeOverlap(o),
	).Replace(promptTemplate)
}

func buildNarrativePrompt(text string, results []match.Result) string {
	var b strings.Builder
	for _, r := range results {
		p := r.Profile()
		fmt.Fprintf(&b, "- %s (%s), match score %.2f\n  Skills: %s\n",
			p.Name, p.Title, r.Score(), joinOrNone(head(p.Skills, maxPromptSkills)))
	}
	return strings.NewReplacer(
		"{{QUERY}}", clip(text, maxPromptQueryLen),
		"{{RESULTS}}", b.String(),
	).Replace(narrativeTemplate)
}

func describeProfile(p profile.Profile) string {
	names := make([]string, 0, maxPromptProjects)
	for _, pr := range head(p.Projects, maxPromptProjects) {
		names = append(names, pr.Name)
	}
	return fmt.Sprintf("- Name: %s\n- Title: %s\n- Department: %s\n- Experience: %d years\n- Skills: %s\n- Recent projects: %s",
		p.Name, p.Title, p.Department, p.ExperienceYears,
		joinOrNone(head(p.Skills, maxPromptSkills)), joinOrNone(names))
}

func describeOverlap(o match.Overlap) string {
	return fmt.Sprintf("- Shared skills: %s\n- Tech stack overlap: %s\n- Matching projects: %s\n- Matching domains: %s\n- Similar seniority: %t",
		joinOrNone(o.SharedSkills), joinOrNone(o.TechOverlap), joinOrNone(o.MatchingProjects),
		joinOrNone(o.MatchingDomains), o.MatchingSeniority)
}

func fallbackReason(o match.Overlap, p profile.Profile) string {
	switch {
	case len(o.SharedSkills) > 0 && len(o.MatchingProjects) > 0:
		return fmt.Sprintf("Shared expertise in %s and similar project experience.", strings.Join(head(o.SharedSkills, 2), ", "))
	case len(o.SharedSkills) > 0:
		return fmt.Sprintf("Strong alignment on %s.", strings.Join(head(o.SharedSkills, 3), ", "))
	case len(o.MatchingProjects) > 0:
		return fmt.Sprintf("Experience on similar projects: %s.", strings.Join(head(o.MatchingProjects, 2), ", "))
	case len(o.MatchingDomains) > 0 && o.MatchingDomains[0] == p.Department:
		return fmt.Sprintf("Works in %s.", p.Department)
	default:
		return genericReason
	}
}

func fallbackSuggestions(o match.Overlap) []string {
	topic := "common technologies"
	if len(o.SharedSkills) > 0 {
		topic = o.SharedSkills[0]
	}
	return []string{
		fmt.Sprintf("Collaborate on projects involving %s.", topic),
		"Share knowledge and best practices in areas of expertise.",
	}
}

func fallbackNarrative(results []match.Result) string {
	names := make([]string, 0, len(results))
	for _, r := range results {
		p := r.Profile()
		names = append(names, fmt.Sprintf("%s (%s)", p.Name, p.Title))
	}
	return fmt.Sprintf("Recommended colleagues: %s. %s", strings.Join(names, ", "), results[0].Summary())
}

func joinOrNone(items []string) string {
	if len(items) == 0 {
		return "None"
	}
	return strings.Join(items, ", ")
}

func head[T any](items []T, n int) []T {
	if len(items) > n {
		return items[:n]
	}
	return items
}

// clip cuts text to at most n runes.
func clip(text string, n int) string {
	r := []rune(strings.TrimSpace(text))
	if len(r) > n {
		return string(r[:n])
	}
	return string(r)
}
