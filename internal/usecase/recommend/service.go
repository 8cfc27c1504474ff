// Package recommend orchestrates classification, ranking and explanation of colleague recommendations.
package recommend

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/kailas-cloud/collabmatch/internal/domain"
	"github.com/kailas-cloud/collabmatch/internal/domain/match"
	"github.com/kailas-cloud/collabmatch/internal/domain/profile"
	"github.com/kailas-cloud/collabmatch/internal/domain/query"
	"github.com/kailas-cloud/collabmatch/internal/domain/query/mode"
	logpkg "github.com/kailas-cloud/collabmatch/internal/logger"
	"github.com/kailas-cloud/collabmatch/internal/metrics"
	"github.com/kailas-cloud/collabmatch/internal/usecase/rank"
)

// DefaultMaxConcurrency bounds simultaneous explanation calls.
const DefaultMaxConcurrency = 5

type state string

const (
	stateReceived   state = "received"
	stateClassified state = "classified"
	stateRanked     state = "ranked"
	stateExplained  state = "explained"
	stateReturned   state = "returned"
	stateFailed     state = "failed"
)

// Request is a recommendation request. Mode is optional; when empty it is
// classified from whichever text field is populated.
type Request struct {
	Mode        string
	ResumeText  string
	SearchQuery string
}

// Response is an ordered recommendation list.
type Response struct {
	QueryID string
	Mode    mode.Mode
	Results []match.Result
	// NoMatch is set when no candidate qualified, e.g. a name nobody resembles.
	NoMatch bool
}

// Options tunes ranking and fan-out.
type Options struct {
	TopK           int
	MaxConcurrency int
	NameThreshold  float64
}

// Service runs the recommendation state machine.
type Service struct {
	store      ProfileStore
	embed      Embedder
	classifier Classifier
	explainer  Explainer

	similarity *rank.Similarity
	keyword    *rank.Keyword
	names      *rank.FuzzyName

	maxConcurrency int
	logger         *zap.Logger
}

// New creates a recommendation service.
func New(
	store ProfileStore, embed Embedder, classifier Classifier, explainer Explainer,
	opts Options, logger *zap.Logger,
) *Service {
	if opts.MaxConcurrency <= 0 {
		opts.MaxConcurrency = DefaultMaxConcurrency
	}
	return &Service{
		store:          store,
		embed:          embed,
		classifier:     classifier,
		explainer:      explainer,
		similarity:     rank.NewSimilarity(opts.TopK),
		keyword:        rank.NewKeyword(store.Catalog(), opts.TopK),
		names:          rank.NewFuzzyName(opts.NameThreshold, opts.TopK),
		maxConcurrency: opts.MaxConcurrency,
		logger:         logger,
	}
}

// Recommend classifies the request, ranks candidates for its mode and explains each one.
// Only a failure to rank fails the request; explanation problems degrade to templates.
func (s *Service) Recommend(ctx context.Context, req Request) (Response, error) {
	reqLog := logpkg.FromContext(ctx, s.logger)
	reqLog.Debug("Recommendation state", zap.String("state", string(stateReceived)), zap.String("mode", req.Mode))

	q, err := s.classify(req)
	if err != nil {
		metrics.RecommendationsTotal.WithLabelValues("unknown", string(stateFailed)).Inc()
		return Response{}, err
	}
	log := reqLog.With(zap.String("query_id", q.ID()), zap.String("mode", string(q.Mode())))
	ctx = logpkg.NewContext(ctx, log)
	log.Debug("Recommendation state", zap.String("state", string(stateClassified)))

	ranked, err := s.rank(ctx, q)
	if err != nil {
		log.Warn("Recommendation failed", zap.String("state", string(stateFailed)), zap.Error(err))
		metrics.RecommendationsTotal.WithLabelValues(string(q.Mode()), string(stateFailed)).Inc()
		return Response{}, err
	}
	log.Debug("Recommendation state", zap.String("state", string(stateRanked)), zap.Int("candidates", len(ranked)))

	results := s.explainAll(ctx, q.Text(), ranked)
	log.Debug("Recommendation state", zap.String("state", string(stateExplained)))

	metrics.RecommendationsTotal.WithLabelValues(string(q.Mode()), string(stateReturned)).Inc()
	metrics.RecommendationCandidates.WithLabelValues(string(q.Mode())).Observe(float64(len(results)))
	log.Debug("Recommendation state", zap.String("state", string(stateReturned)))

	return Response{
		QueryID: q.ID(),
		Mode:    q.Mode(),
		Results: results,
		NoMatch: len(results) == 0,
	}, nil
}

// FetchDetails explains a single known candidate against target text without ranking.
func (s *Service) FetchDetails(ctx context.Context, targetText, employeeID string) (match.Result, error) {
	if strings.TrimSpace(targetText) == "" {
		return match.Result{}, domain.NewInputError("targetText", "is required")
	}
	if strings.TrimSpace(employeeID) == "" {
		return match.Result{}, domain.NewInputError("employeeId", "is required")
	}

	p, err := s.store.Get(employeeID)
	if err != nil {
		return match.Result{}, err
	}
	return s.explainer.Explain(ctx, targetText, match.Scored{Profile: p}), nil
}

// Similar returns colleagues whose profile embedding is closest to an existing
// employee's, excluding that employee.
func (s *Service) Similar(ctx context.Context, employeeID string) ([]match.Result, error) {
	target, err := s.store.Get(employeeID)
	if err != nil {
		return nil, err
	}
	vec, err := s.store.EmbeddingOf(ctx, target)
	if err != nil {
		return nil, fmt.Errorf("embed employee %s: %w", employeeID, err)
	}

	var others []profile.Profile
	for _, p := range s.store.All() {
		if p.ID != target.ID {
			others = append(others, p)
		}
	}
	candidates, err := s.candidates(ctx, others)
	if err != nil {
		return nil, err
	}

	ranked := s.similarity.Rank(vec, candidates)
	return s.explainAll(ctx, target.EmbeddingText(), ranked), nil
}

// Summarize writes a narrative summary of a result set for the given request text.
func (s *Service) Summarize(ctx context.Context, text string, results []match.Result) string {
	return s.explainer.Narrate(ctx, text, results)
}

func (s *Service) classify(req Request) (query.Query, error) {
	resume := strings.TrimSpace(req.ResumeText)
	search := strings.TrimSpace(req.SearchQuery)

	if req.Mode != "" {
		m, err := mode.Parse(req.Mode)
		if err != nil {
			return query.Query{}, domain.NewInputError("mode", err.Error())
		}
		text := search
		if m == mode.Resume || text == "" {
			text = firstNonEmpty(resume, search)
		}
		return newQuery(text, m)
	}

	text := firstNonEmpty(search, resume)
	if text == "" {
		return query.Query{}, domain.NewInputError("searchQuery", "resumeText or searchQuery is required")
	}
	return newQuery(text, s.classifier.Classify(text))
}

func newQuery(text string, m mode.Mode) (query.Query, error) {
	if text == "" {
		return query.Query{}, domain.NewInputError("searchQuery", "resumeText or searchQuery is required")
	}
	q, err := query.New(text, m)
	if err != nil {
		return query.Query{}, domain.NewInputError("searchQuery", err.Error())
	}
	return q, nil
}

func (s *Service) rank(ctx context.Context, q query.Query) ([]match.Scored, error) {
	switch q.Mode() {
	case mode.Resume:
		res, err := s.embed.Embed(ctx, q.Text())
		if err != nil {
			return nil, fmt.Errorf("embed query: %w", err)
		}
		candidates, err := s.candidates(ctx, s.store.All())
		if err != nil {
			return nil, err
		}
		return s.similarity.Rank(res.Embedding, candidates), nil
	case mode.KeywordSearch:
		return s.keyword.Rank(q.Text(), s.store.All()), nil
	case mode.NameSearch:
		return s.names.Rank(q.Text(), s.store.All()), nil
	default:
		return nil, fmt.Errorf("unsupported mode %q: %w", q.Mode(), domain.ErrInvalidInput)
	}
}

// candidates pairs profiles with their embeddings. Profiles whose embedding
// cannot be computed are left out; if none can, the provider error is returned.
func (s *Service) candidates(ctx context.Context, profiles []profile.Profile) ([]rank.Candidate, error) {
	vecs := make([][]float32, len(profiles))
	errs := make([]error, len(profiles))

	var g errgroup.Group
	g.SetLimit(s.maxConcurrency)
	for i := range profiles {
		g.Go(func() error {
			vecs[i], errs[i] = s.store.EmbeddingOf(ctx, profiles[i])
			return nil
		})
	}
	_ = g.Wait()

	out := make([]rank.Candidate, 0, len(profiles))
	var failed []error
	for i, p := range profiles {
		if errs[i] != nil {
			s.logger.Warn("Skipping candidate without embedding",
				zap.String("employee_id", p.ID),
				zap.Error(errs[i]),
			)
			failed = append(failed, errs[i])
			continue
		}
		out = append(out, rank.Candidate{Profile: p, Embedding: vecs[i]})
	}

	if len(out) == 0 && len(failed) > 0 {
		err := failed[0]
		if !errors.Is(err, domain.ErrProviderError) {
			err = fmt.Errorf("%w: %w", domain.ErrProviderError, err)
		}
		return nil, fmt.Errorf("embed profiles: %w", err)
	}
	return out, nil
}

// explainAll explains every ranked candidate with bounded concurrency, keeping rank order.
func (s *Service) explainAll(ctx context.Context, text string, ranked []match.Scored) []match.Result {
	results := make([]match.Result, len(ranked))

	var g errgroup.Group
	g.SetLimit(s.maxConcurrency)
	for i := range ranked {
		g.Go(func() error {
			results[i] = s.explainer.Explain(ctx, text, ranked[i])
			return nil
		})
	}
	_ = g.Wait()

	return results
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
