package recommend

import (
	"context"
	"errors"
	"fmt"
	"hash/fnv"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/kailas-cloud/collabmatch/internal/domain"
	"github.com/kailas-cloud/collabmatch/internal/domain/match"
	"github.com/kailas-cloud/collabmatch/internal/domain/profile"
	"github.com/kailas-cloud/collabmatch/internal/domain/query/mode"
	"github.com/kailas-cloud/collabmatch/internal/usecase/classify"
	"github.com/kailas-cloud/collabmatch/internal/usecase/explain"
)

// --- Stubs ---

// hashEmbedder derives a deterministic vector from the text.
type hashEmbedder struct {
	err   error
	calls atomic.Int32
}

func (h *hashEmbedder) Embed(_ context.Context, text string) (domain.EmbeddingResult, error) {
	h.calls.Add(1)
	if h.err != nil {
		return domain.EmbeddingResult{}, h.err
	}
	return domain.EmbeddingResult{Embedding: vectorOf(text), TotalTokens: 3}, nil
}

func vectorOf(text string) []float32 {
	vec := make([]float32, 8)
	for i := range vec {
		f := fnv.New32a()
		_, _ = fmt.Fprintf(f, "%d:%s", i, text)
		vec[i] = float32(f.Sum32()%1000) / 1000
	}
	return vec
}

type stubStore struct {
	profiles []profile.Profile
	embedErr map[string]error
}

func (s *stubStore) All() []profile.Profile { return s.profiles }

func (s *stubStore) Get(id string) (profile.Profile, error) {
	for _, p := range s.profiles {
		if p.ID == id {
			return p, nil
		}
	}
	return profile.Profile{}, fmt.Errorf("employee %q: %w", id, domain.ErrNotFound)
}

func (s *stubStore) Catalog() []string { return nil }

func (s *stubStore) EmbeddingOf(_ context.Context, p profile.Profile) ([]float32, error) {
	if err := s.embedErr[p.ID]; err != nil {
		return nil, err
	}
	return vectorOf(p.EmbeddingText()), nil
}

type countingExplainer struct {
	inner    Explainer
	inFlight atomic.Int32
	mu       sync.Mutex
	peak     int32
}

func (c *countingExplainer) Explain(ctx context.Context, text string, s match.Scored) match.Result {
	n := c.inFlight.Add(1)
	c.mu.Lock()
	c.peak = max(c.peak, n)
	c.mu.Unlock()
	time.Sleep(5 * time.Millisecond)
	defer c.inFlight.Add(-1)
	return c.inner.Explain(ctx, text, s)
}

func (c *countingExplainer) Narrate(ctx context.Context, text string, results []match.Result) string {
	return c.inner.Narrate(ctx, text, results)
}

func testProfiles() []profile.Profile {
	skills := [][]string{
		{"Python", "Django", "PostgreSQL"},
		{"Go", "Kubernetes", "gRPC"},
		{"React", "TypeScript"},
		{"Python", "Machine Learning"},
		{"Java", "Spring", "Kafka"},
		{"Swift", "iOS"},
		{"Terraform", "AWS"},
		{"Python", "Airflow", "SQL"},
	}
	names := []string{
		"Joshua Hart", "Brenda Lee", "Ruby Chen", "Omar Haddad",
		"Priya Nair", "Lucas Silva", "Mei Tanaka", "Ivan Petrov",
	}
	out := make([]profile.Profile, len(names))
	for i, n := range names {
		out[i] = profile.Profile{
			ID:              fmt.Sprintf("emp%03d", i+1),
			Name:            n,
			Title:           "Software Engineer",
			Department:      "Engineering",
			ExperienceYears: 3 + i,
			Skills:          skills[i],
		}
	}
	return out
}

func newService(store ProfileStore, embed Embedder, explainer Explainer) *Service {
	if explainer == nil {
		explainer = explain.New(nil, store.Catalog(), zap.NewNop())
	}
	return New(store, embed, classify.New(), explainer, Options{TopK: 5, MaxConcurrency: 2}, zap.NewNop())
}

// --- Tests ---

func TestRecommend_ResumeIdempotent(t *testing.T) {
	svc := newService(&stubStore{profiles: testProfiles()}, &hashEmbedder{}, nil)
	req := Request{ResumeText: "Backend engineer with eight years of experience building payment platforms, " +
		"event pipelines and reliable distributed services for large retail companies."}

	first, err := svc.Recommend(context.Background(), req)
	if err != nil {
		t.Fatalf("Recommend: %v", err)
	}
	second, err := svc.Recommend(context.Background(), req)
	if err != nil {
		t.Fatalf("Recommend: %v", err)
	}

	if first.Mode != mode.Resume {
		t.Fatalf("expected resume mode, got %s", first.Mode)
	}
	if len(first.Results) != 5 || len(second.Results) != 5 {
		t.Fatalf("expected 5 results, got %d and %d", len(first.Results), len(second.Results))
	}
	for i := range first.Results {
		a, b := first.Results[i], second.Results[i]
		if a.Profile().ID != b.Profile().ID || a.Score() != b.Score() {
			t.Errorf("position %d differs: %s/%f vs %s/%f", i, a.Profile().ID, a.Score(), b.Profile().ID, b.Score())
		}
		if a.Summary() == "" || len(a.Suggestions()) == 0 {
			t.Errorf("position %d: missing explanation", i)
		}
	}
}

func TestRecommend_ResumeProviderFailure(t *testing.T) {
	embed := &hashEmbedder{err: fmt.Errorf("embedding failed: %w", domain.ErrProviderError)}
	svc := newService(&stubStore{profiles: testProfiles()}, embed, nil)

	_, err := svc.Recommend(context.Background(), Request{Mode: "resume", ResumeText: "anything at all"})
	if !errors.Is(err, domain.ErrProviderError) {
		t.Fatalf("expected ErrProviderError, got %v", err)
	}
}

func TestRecommend_AllProfileEmbeddingsFail(t *testing.T) {
	profiles := testProfiles()
	store := &stubStore{profiles: profiles, embedErr: map[string]error{}}
	for _, p := range profiles {
		store.embedErr[p.ID] = errors.New("timeout")
	}
	svc := newService(store, &hashEmbedder{}, nil)

	_, err := svc.Recommend(context.Background(), Request{Mode: "resume", ResumeText: "some resume"})
	if !errors.Is(err, domain.ErrProviderError) {
		t.Fatalf("expected ErrProviderError, got %v", err)
	}
}

func TestRecommend_SkipsCandidateWithoutEmbedding(t *testing.T) {
	store := &stubStore{profiles: testProfiles(), embedErr: map[string]error{"emp001": errors.New("timeout")}}
	svc := newService(store, &hashEmbedder{}, nil)

	resp, err := svc.Recommend(context.Background(), Request{Mode: "resume", ResumeText: "some resume"})
	if err != nil {
		t.Fatalf("Recommend: %v", err)
	}
	for _, r := range resp.Results {
		if r.Profile().ID == "emp001" {
			t.Error("candidate without embedding must be skipped")
		}
	}
}

func TestRecommend_KeywordClassified(t *testing.T) {
	embed := &hashEmbedder{}
	svc := newService(&stubStore{profiles: testProfiles()}, embed, nil)

	resp, err := svc.Recommend(context.Background(), Request{SearchQuery: "Find Python experts"})
	if err != nil {
		t.Fatalf("Recommend: %v", err)
	}
	if resp.Mode != mode.KeywordSearch {
		t.Fatalf("expected keyword_search, got %s", resp.Mode)
	}
	want := []string{"emp001", "emp004", "emp008"}
	if len(resp.Results) != len(want) {
		t.Fatalf("expected %d results, got %d", len(want), len(resp.Results))
	}
	for i, id := range want {
		if resp.Results[i].Profile().ID != id {
			t.Errorf("position %d: got %s, want %s", i, resp.Results[i].Profile().ID, id)
		}
	}
	if embed.calls.Load() != 0 {
		t.Error("keyword search must not call the embedding provider")
	}
}

type failingGenerator struct{}

func (failingGenerator) Generate(context.Context, string) (domain.GenerationResult, error) {
	return domain.GenerationResult{}, errors.New("upstream unavailable")
}

func TestRecommend_FallbackLogsCarryQueryContext(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	store := &stubStore{profiles: testProfiles()}
	svc := New(store, &hashEmbedder{}, classify.New(), explain.New(failingGenerator{}, nil, zap.NewNop()),
		Options{TopK: 5, MaxConcurrency: 2}, zap.New(core))

	resp, err := svc.Recommend(context.Background(), Request{SearchQuery: "Find Python experts"})
	if err != nil {
		t.Fatalf("Recommend: %v", err)
	}

	entries := logs.FilterMessage("Explanation generation failed, using template").All()
	if len(entries) != len(resp.Results) {
		t.Fatalf("expected %d fallback warnings, got %d", len(resp.Results), len(entries))
	}
	seen := make(map[any]bool)
	for _, e := range entries {
		fields := e.ContextMap()
		if fields["query_id"] != resp.QueryID || fields["mode"] != string(mode.KeywordSearch) {
			t.Errorf("warning missing request fields: %v", fields)
		}
		seen[fields["employee_id"]] = true
	}
	for _, r := range resp.Results {
		if !seen[r.Profile().ID] {
			t.Errorf("no fallback warning for %s", r.Profile().ID)
		}
	}
}

func TestRecommend_NameSearch(t *testing.T) {
	svc := newService(&stubStore{profiles: testProfiles()}, &hashEmbedder{}, nil)

	resp, err := svc.Recommend(context.Background(), Request{SearchQuery: "Josh Hart"})
	if err != nil {
		t.Fatalf("Recommend: %v", err)
	}
	if resp.Mode != mode.NameSearch || len(resp.Results) != 1 || resp.Results[0].Profile().ID != "emp001" {
		t.Fatalf("unexpected response: mode=%s results=%d", resp.Mode, len(resp.Results))
	}
	if resp.NoMatch {
		t.Error("NoMatch must be false when a candidate matched")
	}
}

func TestRecommend_NameSearchNoMatch(t *testing.T) {
	svc := newService(&stubStore{profiles: testProfiles()}, &hashEmbedder{}, nil)

	resp, err := svc.Recommend(context.Background(), Request{SearchQuery: "Zanzibar Quill"})
	if err != nil {
		t.Fatalf("no match must not be an error, got %v", err)
	}
	if !resp.NoMatch || len(resp.Results) != 0 {
		t.Errorf("expected NoMatch with empty results, got %+v", resp)
	}
}

func TestRecommend_ExplicitModeOverridesClassifier(t *testing.T) {
	svc := newService(&stubStore{profiles: testProfiles()}, &hashEmbedder{}, nil)

	resp, err := svc.Recommend(context.Background(), Request{Mode: "keyword_search", SearchQuery: "Ruby Chen"})
	if err != nil {
		t.Fatalf("Recommend: %v", err)
	}
	if resp.Mode != mode.KeywordSearch {
		t.Errorf("expected keyword_search, got %s", resp.Mode)
	}
}

func TestRecommend_InvalidInput(t *testing.T) {
	svc := newService(&stubStore{profiles: testProfiles()}, &hashEmbedder{}, nil)

	tests := []struct {
		name string
		req  Request
	}{
		{"empty", Request{}},
		{"whitespace", Request{ResumeText: "   ", SearchQuery: "\n"}},
		{"unknown mode", Request{Mode: "telepathy", SearchQuery: "python"}},
		{"mode without text", Request{Mode: "resume"}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := svc.Recommend(context.Background(), tc.req); !errors.Is(err, domain.ErrInvalidInput) {
				t.Errorf("expected ErrInvalidInput, got %v", err)
			}
		})
	}
}

func TestRecommend_BoundedExplanationFanOut(t *testing.T) {
	counter := &countingExplainer{inner: explain.New(nil, nil, zap.NewNop())}
	svc := newService(&stubStore{profiles: testProfiles()}, &hashEmbedder{}, counter)

	if _, err := svc.Recommend(context.Background(), Request{Mode: "resume", ResumeText: "resume"}); err != nil {
		t.Fatalf("Recommend: %v", err)
	}
	if counter.peak > 2 {
		t.Errorf("expected at most 2 concurrent explanations, got %d", counter.peak)
	}
}

func TestFetchDetails(t *testing.T) {
	svc := newService(&stubStore{profiles: testProfiles()}, &hashEmbedder{}, nil)

	r, err := svc.FetchDetails(context.Background(), "Looking for Go and Kubernetes help", "emp002")
	if err != nil {
		t.Fatalf("FetchDetails: %v", err)
	}
	if r.Profile().ID != "emp002" || r.Summary() == "" {
		t.Errorf("unexpected result: %s %q", r.Profile().ID, r.Summary())
	}
	if len(r.Overlap().SharedSkills) != 2 {
		t.Errorf("expected Go and Kubernetes shared, got %v", r.Overlap().SharedSkills)
	}

	if _, err = svc.FetchDetails(context.Background(), "text", "emp999"); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
	if _, err = svc.FetchDetails(context.Background(), "", "emp001"); !errors.Is(err, domain.ErrInvalidInput) {
		t.Errorf("expected ErrInvalidInput, got %v", err)
	}
}

func TestSimilar_ExcludesSelf(t *testing.T) {
	svc := newService(&stubStore{profiles: testProfiles()}, &hashEmbedder{}, nil)

	results, err := svc.Similar(context.Background(), "emp003")
	if err != nil {
		t.Fatalf("Similar: %v", err)
	}
	if len(results) != 5 {
		t.Fatalf("expected 5 results, got %d", len(results))
	}
	for _, r := range results {
		if r.Profile().ID == "emp003" {
			t.Error("Similar must exclude the employee itself")
		}
	}

	if _, err = svc.Similar(context.Background(), "emp999"); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestSummarize(t *testing.T) {
	svc := newService(&stubStore{profiles: testProfiles()}, &hashEmbedder{}, nil)

	results, err := svc.Similar(context.Background(), "emp001")
	if err != nil {
		t.Fatalf("Similar: %v", err)
	}
	if got := svc.Summarize(context.Background(), "emp001", results); got == "" {
		t.Error("expected a non-empty summary")
	}
}
