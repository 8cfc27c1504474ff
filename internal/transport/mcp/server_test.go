package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	"go.uber.org/zap"

	"github.com/kailas-cloud/collabmatch/internal/domain"
	"github.com/kailas-cloud/collabmatch/internal/domain/match"
	"github.com/kailas-cloud/collabmatch/internal/domain/profile"
	"github.com/kailas-cloud/collabmatch/internal/domain/query/mode"
	recommenduc "github.com/kailas-cloud/collabmatch/internal/usecase/recommend"
)

// --- mocks ---

type mockRecommender struct {
	resp    recommenduc.Response
	details match.Result
	err     error

	lastReq recommenduc.Request
}

func (m *mockRecommender) Recommend(_ context.Context, req recommenduc.Request) (recommenduc.Response, error) {
	m.lastReq = req
	return m.resp, m.err
}

func (m *mockRecommender) FetchDetails(_ context.Context, _, _ string) (match.Result, error) {
	return m.details, m.err
}

type mockDirectory struct {
	profiles []profile.Profile
}

func (m *mockDirectory) All() []profile.Profile { return m.profiles }

// --- helpers ---

var joshua = profile.Profile{
	ID: "emp001", Name: "Joshua Hart", Title: "Backend Engineer",
	Department: "Engineering", Email: "joshua.hart.1@company.com",
}

func testDeps(rec *mockRecommender) Deps {
	return Deps{
		Recommender: rec,
		Directory:   &mockDirectory{profiles: []profile.Profile{joshua}},
		Version:     "test",
		Logger:      zap.NewNop(),
	}
}

func toolText(t *testing.T, result *mcp.CallToolResult) string {
	t.Helper()
	if len(result.Content) == 0 {
		t.Fatal("no content in result")
	}
	tc, ok := result.Content[0].(mcp.TextContent)
	if !ok {
		t.Fatalf("expected TextContent, got %T", result.Content[0])
	}
	return tc.Text
}

func makeCallToolRequest(name string, args map[string]any) mcp.CallToolRequest {
	return mcp.CallToolRequest{
		Params: mcp.CallToolParams{
			Name:      name,
			Arguments: args,
		},
	}
}

// --- tests ---

func TestRecommendColleagues(t *testing.T) {
	overlap := match.Overlap{SharedSkills: []string{"Python"}, ReasonSummary: "Shared expertise in Python."}
	rec := &mockRecommender{resp: recommenduc.Response{
		Mode:    mode.KeywordSearch,
		Results: []match.Result{match.New(joshua, 0.5, overlap, []string{"Pair on the API."})},
	}}
	handler := recommendColleagues(testDeps(rec))

	result, err := handler(context.Background(), makeCallToolRequest("recommend_colleagues", map[string]any{
		"query": "Find Python experts",
	}))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.IsError {
		t.Fatalf("unexpected tool error: %s", toolText(t, result))
	}

	var got recommendResult
	if err := json.Unmarshal([]byte(toolText(t, result)), &got); err != nil {
		t.Fatalf("decode result: %v", err)
	}
	if got.Mode != "keyword_search" || len(got.Recommendations) != 1 {
		t.Fatalf("unexpected result: %+v", got)
	}
	r := got.Recommendations[0]
	if r.ID != "emp001" || r.Score != 0.5 || r.Summary != "Shared expertise in Python." {
		t.Errorf("unexpected recommendation: %+v", r)
	}
	if rec.lastReq.SearchQuery != "Find Python experts" || rec.lastReq.Mode != "" {
		t.Errorf("unexpected request: %+v", rec.lastReq)
	}
}

func TestRecommendColleagues_ForcedMode(t *testing.T) {
	rec := &mockRecommender{resp: recommenduc.Response{Mode: mode.Resume, NoMatch: true}}
	handler := recommendColleagues(testDeps(rec))

	result, _ := handler(context.Background(), makeCallToolRequest("recommend_colleagues", map[string]any{
		"query": "Ten years of Go", "mode": "resume",
	}))
	if rec.lastReq.Mode != "resume" {
		t.Errorf("mode not forwarded: %+v", rec.lastReq)
	}
	if !strings.Contains(toolText(t, result), `"noMatch":true`) {
		t.Errorf("expected noMatch in %s", toolText(t, result))
	}
}

func TestRecommendColleagues_Errors(t *testing.T) {
	tests := []struct {
		name string
		args map[string]any
		err  error
		want string
	}{
		{"missing query", map[string]any{}, nil, "query is required"},
		{"invalid input", map[string]any{"query": "x"}, domain.NewInputError("mode", "bad"), "invalid input: mode bad"},
		{
			"provider failure", map[string]any{"query": "x"},
			fmt.Errorf("%w: upstream 10.0.0.1 refused", domain.ErrProviderError), "recommend failed: provider error",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			handler := recommendColleagues(testDeps(&mockRecommender{err: tc.err}))
			result, err := handler(context.Background(), makeCallToolRequest("recommend_colleagues", tc.args))
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !result.IsError {
				t.Fatal("expected tool error")
			}
			if text := toolText(t, result); !strings.Contains(text, tc.want) {
				t.Errorf("text %q does not contain %q", text, tc.want)
			}
		})
	}
}

func TestMatchDetails(t *testing.T) {
	overlap := match.Overlap{TechOverlap: []string{"Redis"}, ReasonSummary: "Both built caches."}
	rec := &mockRecommender{details: match.New(joshua, 0, overlap, []string{"Review the cache design."})}
	handler := matchDetails(testDeps(rec))

	result, err := handler(context.Background(), makeCallToolRequest("match_details", map[string]any{
		"target_text": "Redis caching", "employee_id": "emp001",
	}))
	if err != nil || result.IsError {
		t.Fatalf("unexpected failure: %v %s", err, toolText(t, result))
	}

	var got map[string]any
	if err := json.Unmarshal([]byte(toolText(t, result)), &got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got["employeeId"] != "emp001" || got["reasonSummary"] != "Both built caches." {
		t.Errorf("unexpected details: %v", got)
	}
}

func TestMatchDetails_Errors(t *testing.T) {
	handler := matchDetails(testDeps(&mockRecommender{}))
	result, _ := handler(context.Background(), makeCallToolRequest("match_details", map[string]any{
		"target_text": "Redis",
	}))
	if !result.IsError || toolText(t, result) != "employee_id is required" {
		t.Errorf("expected missing employee_id error, got %q", toolText(t, result))
	}

	handler = matchDetails(testDeps(&mockRecommender{err: fmt.Errorf("employee %q: %w", "x", domain.ErrNotFound)}))
	result, _ = handler(context.Background(), makeCallToolRequest("match_details", map[string]any{
		"target_text": "Redis", "employee_id": "x",
	}))
	if !result.IsError || !strings.HasSuffix(toolText(t, result), "not found") {
		t.Errorf("expected not found, got %q", toolText(t, result))
	}
}

func TestEmployeesResource(t *testing.T) {
	handler := employees(testDeps(&mockRecommender{}))

	contents, err := handler(context.Background(), mcp.ReadResourceRequest{
		Params: mcp.ReadResourceParams{URI: employeesURI},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(contents) != 1 {
		t.Fatalf("expected 1 content, got %d", len(contents))
	}
	tc, ok := contents[0].(mcp.TextResourceContents)
	if !ok {
		t.Fatalf("expected TextResourceContents, got %T", contents[0])
	}
	if !strings.Contains(tc.Text, `"id":"emp001"`) || tc.MIMEType != "application/json" {
		t.Errorf("unexpected resource: %+v", tc)
	}
}

func TestNewServer(t *testing.T) {
	if s := NewServer(testDeps(&mockRecommender{})); s == nil {
		t.Fatal("expected server")
	}
}
