package chi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/kailas-cloud/collabmatch/internal/domain"
	"github.com/kailas-cloud/collabmatch/internal/domain/profile"
	"github.com/kailas-cloud/collabmatch/internal/extract"
	profilerepo "github.com/kailas-cloud/collabmatch/internal/repository/profile"
	"github.com/kailas-cloud/collabmatch/internal/usecase/classify"
	"github.com/kailas-cloud/collabmatch/internal/usecase/explain"
	healthuc "github.com/kailas-cloud/collabmatch/internal/usecase/health"
	recommenduc "github.com/kailas-cloud/collabmatch/internal/usecase/recommend"
)

// --- Mocks ---

type mockEmbedder struct {
	err error
}

func (m *mockEmbedder) Embed(ctx context.Context, text string) (domain.EmbeddingResult, error) {
	if m.err != nil {
		return domain.EmbeddingResult{}, m.err
	}
	domain.UsageFromContext(ctx).AddEmbeddingTokens(len(text))
	vec := []float32{float32(len(text) % 7), float32(len(text) % 5), 1}
	return domain.EmbeddingResult{Embedding: vec, TotalTokens: len(text)}, nil
}

func testProfiles() []profile.Profile {
	return []profile.Profile{
		{ID: "emp001", Name: "Joshua Hart", Title: "Backend Engineer", Department: "Engineering",
			ExperienceYears: 7, Skills: []string{"Python", "Go"}, PrimarySkills: []string{"Python"},
			Projects: []profile.Project{{Name: "API Rate Limiting Service", Tech: []string{"Go", "Redis"}}}},
		{ID: "emp002", Name: "Brenda Lee", Title: "Data Scientist", Department: "Data",
			ExperienceYears: 4, Skills: []string{"Python", "Machine Learning"}},
		{ID: "emp003", Name: "Ruby Chen", Title: "Frontend Engineer", Department: "Product",
			ExperienceYears: 2, Skills: []string{"React", "TypeScript"}},
	}
}

func newTestRouter(t *testing.T, embedErr error) http.Handler {
	t.Helper()
	logger := zap.NewNop()
	embedder := &mockEmbedder{err: embedErr}

	store, err := profilerepo.New(testProfiles(), embedder, nil, logger)
	if err != nil {
		t.Fatalf("profile store: %v", err)
	}
	svc := recommenduc.New(store, embedder, classify.New(), explain.New(nil, store.Catalog(), logger),
		recommenduc.Options{}, logger)
	server := NewServer(svc, store, extract.New(1<<20, logger), healthuc.New(store, nil, nil), 1<<20, logger)

	r := chi.NewRouter()
	server.Register(r)
	return r
}

func doJSON(t *testing.T, h http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if s, ok := body.(string); ok {
			buf.WriteString(s)
		} else if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func decode[T any](t *testing.T, rr *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.NewDecoder(rr.Body).Decode(&v); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return v
}

// --- Tests ---

func TestRecommend_KeywordSearch(t *testing.T) {
	h := newTestRouter(t, nil)

	rr := doJSON(t, h, "POST", "/api/recommend", RecommendRequest{SearchQuery: "Find Python experts"})
	if rr.Code != http.StatusOK {
		t.Fatalf("status %d: %s", rr.Code, rr.Body.String())
	}

	resp := decode[RecommendResponse](t, rr)
	if resp.Mode != "keyword_search" {
		t.Errorf("mode = %q", resp.Mode)
	}
	if len(resp.Recommendations) != 2 {
		t.Fatalf("expected 2 recommendations, got %d", len(resp.Recommendations))
	}
	first := resp.Recommendations[0]
	if first.ID != "emp001" || first.MatchScore != 1 {
		t.Errorf("unexpected first result: %s %f", first.ID, first.MatchScore)
	}
	if !strings.Contains(first.AvatarURL, "Joshua+Hart") {
		t.Errorf("avatarUrl = %q", first.AvatarURL)
	}
	if first.Summary == "" || len(first.CollaborationSuggestions) == 0 {
		t.Error("expected explanation on every result")
	}
	if first.ResumeMatch.SharedSkills == nil || first.ResumeMatch.TechOverlap == nil {
		t.Error("resumeMatch arrays must not be null")
	}
}

func TestRecommend_RawJSONShape(t *testing.T) {
	h := newTestRouter(t, nil)

	rr := doJSON(t, h, "POST", "/api/recommend", `{"searchQuery":"Joshua Hart"}`)
	if rr.Code != http.StatusOK {
		t.Fatalf("status %d", rr.Code)
	}

	var raw map[string]any
	if err := json.Unmarshal(rr.Body.Bytes(), &raw); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	recs := raw["recommendations"].([]any)
	item := recs[0].(map[string]any)
	for _, key := range []string{
		"id", "name", "title", "department", "email", "experienceYears", "professionalSummary",
		"skills", "primarySkills", "tools", "projects", "avatarUrl", "matchScore", "summary",
		"resumeMatch", "collaborationSuggestions",
	} {
		if _, ok := item[key]; !ok {
			t.Errorf("missing key %q", key)
		}
	}
	if raw["mode"] != "name_search" {
		t.Errorf("mode = %v", raw["mode"])
	}
}

func TestRecommend_NoMatch(t *testing.T) {
	h := newTestRouter(t, nil)

	rr := doJSON(t, h, "POST", "/api/recommend", RecommendRequest{SearchQuery: "Zanzibar Quill"})
	resp := decode[RecommendResponse](t, rr)
	if rr.Code != http.StatusOK || !resp.NoMatch || len(resp.Recommendations) != 0 {
		t.Errorf("status %d, noMatch %v, %d results", rr.Code, resp.NoMatch, len(resp.Recommendations))
	}
	if resp.Recommendations == nil {
		t.Error("recommendations must encode as an empty array")
	}
}

func TestRecommend_ResumeUsageHeader(t *testing.T) {
	h := newTestRouter(t, nil)

	rr := doJSON(t, h, "POST", "/api/recommend", RecommendRequest{Mode: "resume", ResumeText: "Backend engineer"})
	if rr.Code != http.StatusOK {
		t.Fatalf("status %d: %s", rr.Code, rr.Body.String())
	}
	if rr.Header().Get("X-Embedding-Tokens") == "" {
		t.Error("expected X-Embedding-Tokens header")
	}
	if rr.Header().Get("X-Generation-Tokens") != "" {
		t.Error("no generation happened, header must be absent")
	}
}

func TestRecommend_Errors(t *testing.T) {
	tests := []struct {
		name     string
		embedErr error
		body     any
		status   int
		code     string
	}{
		{"malformed json", nil, `{"searchQuery":`, http.StatusBadRequest, codeBadRequest},
		{"empty input", nil, RecommendRequest{}, http.StatusBadRequest, codeValidationFailed},
		{"bad mode", nil, RecommendRequest{Mode: "x", SearchQuery: "go"}, http.StatusBadRequest, codeValidationFailed},
		{
			"provider failure", fmt.Errorf("%w: connection refused", domain.ErrProviderError),
			RecommendRequest{Mode: "resume", ResumeText: "Backend engineer"},
			http.StatusBadGateway, codeProviderError,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			rr := doJSON(t, newTestRouter(t, tc.embedErr), "POST", "/api/recommend", tc.body)
			if rr.Code != tc.status {
				t.Fatalf("status %d, want %d: %s", rr.Code, tc.status, rr.Body.String())
			}
			if got := decode[ErrorResponse](t, rr); got.Code != tc.code {
				t.Errorf("code %q, want %q", got.Code, tc.code)
			}
		})
	}
}

func TestRecommend_ProviderErrorHidesDetails(t *testing.T) {
	h := newTestRouter(t, fmt.Errorf("%w: dial tcp 10.0.0.1:443: secret-host", domain.ErrProviderError))
	rr := doJSON(t, h, "POST", "/api/recommend", RecommendRequest{Mode: "resume", ResumeText: "text"})

	if strings.Contains(rr.Body.String(), "secret-host") {
		t.Errorf("internal details leaked: %s", rr.Body.String())
	}
}

func TestMatchDetails(t *testing.T) {
	h := newTestRouter(t, nil)

	rr := doJSON(t, h, "POST", "/api/match-details",
		MatchDetailsRequest{TargetText: "Python and Go backend work on a rate limiting API", EmployeeID: "emp001"})
	if rr.Code != http.StatusOK {
		t.Fatalf("status %d: %s", rr.Code, rr.Body.String())
	}
	resp := decode[MatchDetailsResponse](t, rr)
	if len(resp.ResumeMatch.SharedSkills) != 2 {
		t.Errorf("sharedSkills = %v", resp.ResumeMatch.SharedSkills)
	}
	if resp.ResumeMatch.ReasonSummary == "" || len(resp.CollaborationSuggestions) == 0 {
		t.Error("expected summary and suggestions")
	}

	rr = doJSON(t, h, "POST", "/api/match-details", MatchDetailsRequest{TargetText: "x", EmployeeID: "emp404"})
	if rr.Code != http.StatusNotFound {
		t.Errorf("unknown employee: status %d", rr.Code)
	}
}

func uploadRequest(t *testing.T, filename string, content []byte) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("file", filename)
	if err != nil {
		t.Fatalf("create form file: %v", err)
	}
	_, _ = fw.Write(content)
	_ = mw.Close()

	req := httptest.NewRequest("POST", "/api/extract", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func TestExtract(t *testing.T) {
	h := newTestRouter(t, nil)

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, uploadRequest(t, "resume.txt", []byte("Backend engineer\nGo, Kafka")))
	if rr.Code != http.StatusOK {
		t.Fatalf("status %d: %s", rr.Code, rr.Body.String())
	}
	if got := decode[ExtractResponse](t, rr); got.Text != "Backend engineer\nGo, Kafka" {
		t.Errorf("text = %q", got.Text)
	}

	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, uploadRequest(t, "resume.docx", []byte("PK\x03\x04")))
	if rr.Code != http.StatusUnprocessableEntity {
		t.Fatalf("status %d, want 422", rr.Code)
	}
	if got := decode[ErrorResponse](t, rr); got.Message != "could not read file" {
		t.Errorf("message = %q", got.Message)
	}
}

func TestExtract_NotMultipart(t *testing.T) {
	rr := doJSON(t, newTestRouter(t, nil), "POST", "/api/extract", `{"text":"x"}`)
	if rr.Code != http.StatusBadRequest {
		t.Errorf("status %d, want 400", rr.Code)
	}
}

func TestListEmployees(t *testing.T) {
	h := newTestRouter(t, nil)

	rr := doJSON(t, h, "GET", "/api/employees?limit=2&offset=1", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("status %d: %s", rr.Code, rr.Body.String())
	}
	resp := decode[EmployeeListResponse](t, rr)
	if resp.Total != 3 || resp.Limit != 2 || resp.Offset != 1 || len(resp.Items) != 2 {
		t.Errorf("unexpected page: %+v", resp)
	}
	if resp.Items[0].ID != "emp002" {
		t.Errorf("first item %s, want emp002", resp.Items[0].ID)
	}

	resp = decode[EmployeeListResponse](t, doJSON(t, h, "GET", "/api/employees?offset=10", nil))
	if len(resp.Items) != 0 || resp.Items == nil {
		t.Errorf("offset past the end must return an empty array, got %v", resp.Items)
	}

	for _, q := range []string{"limit=abc", "limit=0", "limit=1000", "offset=-1"} {
		if rr := doJSON(t, h, "GET", "/api/employees?"+q, nil); rr.Code != http.StatusBadRequest {
			t.Errorf("%s: status %d, want 400", q, rr.Code)
		}
	}
}

func TestGetEmployee(t *testing.T) {
	h := newTestRouter(t, nil)

	rr := doJSON(t, h, "GET", "/api/employees/emp003", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("status %d", rr.Code)
	}
	if got := decode[Employee](t, rr); got.Name != "Ruby Chen" || got.Projects == nil {
		t.Errorf("unexpected employee: %+v", got)
	}

	if rr := doJSON(t, h, "GET", "/api/employees/nobody", nil); rr.Code != http.StatusNotFound {
		t.Errorf("unknown id: status %d", rr.Code)
	}
}

func TestSimilarEmployees(t *testing.T) {
	h := newTestRouter(t, nil)

	rr := doJSON(t, h, "GET", "/api/employees/emp001/similar", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("status %d: %s", rr.Code, rr.Body.String())
	}
	resp := decode[SimilarResponse](t, rr)
	if len(resp.Recommendations) != 2 {
		t.Fatalf("expected 2 similar colleagues, got %d", len(resp.Recommendations))
	}
	for _, r := range resp.Recommendations {
		if r.ID == "emp001" {
			t.Error("employee must not be similar to itself")
		}
	}
}

func TestHealthCheck(t *testing.T) {
	rr := doJSON(t, newTestRouter(t, nil), "GET", "/health", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("status %d", rr.Code)
	}
	resp := decode[HealthResponse](t, rr)
	if resp.Status != "ok" || resp.Profiles != 3 || resp.Checks["profiles"] != "ok" {
		t.Errorf("unexpected health: %+v", resp)
	}
}
