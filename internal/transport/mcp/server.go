// Package mcp exposes colleague recommendations as Model Context Protocol tools.
package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"go.uber.org/zap"

	"github.com/kailas-cloud/collabmatch/internal/domain"
	"github.com/kailas-cloud/collabmatch/internal/domain/match"
	"github.com/kailas-cloud/collabmatch/internal/domain/profile"
	recommenduc "github.com/kailas-cloud/collabmatch/internal/usecase/recommend"
)

const employeesURI = "collabmatch://employees"

// Recommender runs recommendations and single-candidate explanations.
type Recommender interface {
	Recommend(ctx context.Context, req recommenduc.Request) (recommenduc.Response, error)
	FetchDetails(ctx context.Context, targetText, employeeID string) (match.Result, error)
}

// Directory lists employee profiles.
type Directory interface {
	All() []profile.Profile
}

// Deps holds dependencies for the MCP server.
type Deps struct {
	Recommender Recommender
	Directory   Directory
	Version     string
	Logger      *zap.Logger
}

// NewServer creates an MCP server with the recommendation tools and the employee resource registered.
func NewServer(deps Deps) *server.MCPServer {
	s := server.NewMCPServer(
		"collabmatch",
		deps.Version,
		server.WithToolCapabilities(true),
		server.WithResourceCapabilities(false, true),
		server.WithInstructions("collabmatch recommends colleagues to collaborate with and explains each match."),
		server.WithRecovery(),
	)

	s.AddTool(
		mcp.NewTool("recommend_colleagues",
			mcp.WithDescription("Recommend colleagues for a resume, a skill query or a person's name."),
			mcp.WithString("query", mcp.Description("Resume text, keyword query or name"), mcp.Required()),
			mcp.WithString("mode",
				mcp.Description("Force a mode instead of classifying the query"),
				mcp.Enum("resume", "keyword_search", "name_search"),
			),
		),
		recommendColleagues(deps),
	)

	s.AddTool(
		mcp.NewTool("match_details",
			mcp.WithDescription("Explain how one employee matches a piece of text."),
			mcp.WithString("target_text", mcp.Description("Resume or query text to match against"), mcp.Required()),
			mcp.WithString("employee_id", mcp.Description("Employee ID, e.g. emp001"), mcp.Required()),
		),
		matchDetails(deps),
	)

	s.AddResource(
		mcp.NewResource(
			employeesURI,
			"Employee Directory",
			mcp.WithResourceDescription("IDs, names and titles of all employees"),
			mcp.WithMIMEType("application/json"),
		),
		employees(deps),
	)

	return s
}

type recommendation struct {
	ID           string   `json:"id"`
	Name         string   `json:"name"`
	Title        string   `json:"title"`
	Department   string   `json:"department"`
	Email        string   `json:"email"`
	Score        float64  `json:"score"`
	Summary      string   `json:"summary"`
	SharedSkills []string `json:"sharedSkills,omitempty"`
	Suggestions  []string `json:"collaborationSuggestions"`
}

type recommendResult struct {
	Mode            string           `json:"mode"`
	NoMatch         bool             `json:"noMatch"`
	Recommendations []recommendation `json:"recommendations"`
}

func recommendColleagues(deps Deps) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		query, err := req.RequireString("query")
		if err != nil {
			return mcpError("query is required"), nil
		}
		m := req.GetString("mode", "")

		resp, err := deps.Recommender.Recommend(ctx, recommenduc.Request{Mode: m, SearchQuery: query})
		if err != nil {
			deps.Logger.Warn("MCP recommend failed", zap.String("mode", m), zap.Error(err))
			return mcpError("recommend failed: " + clientMessage(err)), nil
		}

		out := recommendResult{
			Mode:            string(resp.Mode),
			NoMatch:         resp.NoMatch,
			Recommendations: make([]recommendation, len(resp.Results)),
		}
		for i := range resp.Results {
			r := &resp.Results[i]
			p := r.Profile()
			out.Recommendations[i] = recommendation{
				ID:           p.ID,
				Name:         p.Name,
				Title:        p.Title,
				Department:   p.Department,
				Email:        p.Email,
				Score:        r.Score(),
				Summary:      r.Summary(),
				SharedSkills: r.Overlap().SharedSkills,
				Suggestions:  r.Suggestions(),
			}
		}
		return mcpJSON(out)
	}
}

func matchDetails(deps Deps) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		target, err := req.RequireString("target_text")
		if err != nil {
			return mcpError("target_text is required"), nil
		}
		id, err := req.RequireString("employee_id")
		if err != nil {
			return mcpError("employee_id is required"), nil
		}

		res, err := deps.Recommender.FetchDetails(ctx, target, id)
		if err != nil {
			deps.Logger.Warn("MCP match details failed", zap.String("employee_id", id), zap.Error(err))
			return mcpError("match details failed: " + clientMessage(err)), nil
		}

		o := res.Overlap()
		return mcpJSON(struct {
			EmployeeID        string   `json:"employeeId"`
			ReasonSummary     string   `json:"reasonSummary"`
			SharedSkills      []string `json:"sharedSkills"`
			TechOverlap       []string `json:"techOverlap"`
			MatchingProjects  []string `json:"matchingProjects"`
			MatchingDomains   []string `json:"matchingDomains"`
			MatchingSeniority bool     `json:"matchingSeniority"`
			Suggestions       []string `json:"collaborationSuggestions"`
		}{
			EmployeeID:        id,
			ReasonSummary:     o.ReasonSummary,
			SharedSkills:      o.SharedSkills,
			TechOverlap:       o.TechOverlap,
			MatchingProjects:  o.MatchingProjects,
			MatchingDomains:   o.MatchingDomains,
			MatchingSeniority: o.MatchingSeniority,
			Suggestions:       res.Suggestions(),
		})
	}
}

func employees(deps Deps) server.ResourceHandlerFunc {
	return func(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		type entry struct {
			ID    string `json:"id"`
			Name  string `json:"name"`
			Title string `json:"title"`
		}

		all := deps.Directory.All()
		entries := make([]entry, len(all))
		for i, p := range all {
			entries[i] = entry{ID: p.ID, Name: p.Name, Title: p.Title}
		}

		b, err := json.Marshal(entries)
		if err != nil {
			return nil, fmt.Errorf("marshal employees: %w", err)
		}

		return []mcp.ResourceContents{
			mcp.TextResourceContents{
				URI:      req.Params.URI,
				MIMEType: "application/json",
				Text:     string(b),
			},
		}, nil
	}
}

// clientMessage keeps provider internals out of tool output.
func clientMessage(err error) string {
	var ie *domain.InputError
	switch {
	case errors.As(err, &ie):
		return ie.Error()
	case errors.Is(err, domain.ErrNotFound):
		return domain.ErrNotFound.Error()
	case errors.Is(err, domain.ErrProviderError):
		return domain.ErrProviderError.Error()
	default:
		return "internal error"
	}
}

func mcpJSON(v any) (*mcp.CallToolResult, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return mcpError(fmt.Sprintf("failed to marshal result: %v", err)), nil
	}
	return mcpText(string(b)), nil
}

func mcpText(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.TextContent{Type: "text", Text: text},
		},
	}
}

func mcpError(msg string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.TextContent{Type: "text", Text: msg},
		},
		IsError: true,
	}
}
