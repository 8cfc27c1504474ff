package chi

import (
	"github.com/kailas-cloud/collabmatch/internal/domain/match"
	"github.com/kailas-cloud/collabmatch/internal/domain/profile"
)

// Error codes returned in ErrorResponse.Code.
const (
	codeBadRequest         = "bad_request"
	codeUnauthorized       = "unauthorized"
	codeValidationFailed   = "validation_failed"
	codeNotFound           = "not_found"
	codeProviderError      = "provider_error"
	codeUnreadableDocument = "unreadable_document"
	codeInternalError      = "internal_error"
)

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// RecommendRequest is the body of POST /api/recommend.
type RecommendRequest struct {
	Mode        string `json:"mode,omitempty"`
	ResumeText  string `json:"resumeText,omitempty"`
	SearchQuery string `json:"searchQuery,omitempty"`
}

// RecommendResponse is the result of POST /api/recommend.
type RecommendResponse struct {
	Recommendations []MatchResult `json:"recommendations"`
	Mode            string        `json:"mode"`
	NoMatch         bool          `json:"noMatch"`
}

// MatchDetailsRequest is the body of POST /api/match-details.
type MatchDetailsRequest struct {
	TargetText string `json:"targetText"`
	EmployeeID string `json:"employeeId"`
}

// MatchDetailsResponse carries the lazily computed explanation for one candidate.
type MatchDetailsResponse struct {
	ResumeMatch              ResumeMatch `json:"resumeMatch"`
	CollaborationSuggestions []string    `json:"collaborationSuggestions"`
}

// ExtractResponse is the result of POST /api/extract.
type ExtractResponse struct {
	Text string `json:"text"`
}

// EmployeeListResponse is a page of GET /api/employees.
type EmployeeListResponse struct {
	Items  []Employee `json:"items"`
	Total  int        `json:"total"`
	Limit  int        `json:"limit"`
	Offset int        `json:"offset"`
}

// SimilarResponse is the result of GET /api/employees/{id}/similar.
type SimilarResponse struct {
	EmployeeID      string        `json:"employeeId"`
	Recommendations []MatchResult `json:"recommendations"`
}

// HealthResponse is the result of GET /health.
type HealthResponse struct {
	Status   string            `json:"status"`
	Checks   map[string]string `json:"checks"`
	Profiles int               `json:"profiles"`
}

// Project is a project on an employee profile.
type Project struct {
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Tech        []string `json:"tech"`
}

// Employee is the public view of a profile.
type Employee struct {
	ID                  string    `json:"id"`
	Name                string    `json:"name"`
	Title               string    `json:"title"`
	Department          string    `json:"department"`
	Location            string    `json:"location"`
	Email               string    `json:"email"`
	Manager             string    `json:"manager"`
	ExperienceYears     int       `json:"experienceYears"`
	ProfessionalSummary string    `json:"professionalSummary"`
	Skills              []string  `json:"skills"`
	PrimarySkills       []string  `json:"primarySkills"`
	SecondarySkills     []string  `json:"secondarySkills"`
	Tools               []string  `json:"tools"`
	Projects            []Project `json:"projects"`
	AvatarURL           string    `json:"avatarUrl"`
}

// ResumeMatch is the structured overlap between a query and a candidate.
type ResumeMatch struct {
	SharedSkills      []string `json:"sharedSkills"`
	MatchingProjects  []string `json:"matchingProjects"`
	MatchingDomains   []string `json:"matchingDomains"`
	TechOverlap       []string `json:"techOverlap"`
	MatchingSeniority bool     `json:"matchingSeniority"`
	ReasonSummary     string   `json:"reasonSummary"`
}

// MatchResult is an employee annotated with a score and explanation.
type MatchResult struct {
	Employee
	MatchScore               float64     `json:"matchScore"`
	Summary                  string      `json:"summary"`
	ResumeMatch              ResumeMatch `json:"resumeMatch"`
	CollaborationSuggestions []string    `json:"collaborationSuggestions"`
}

func employeeFromDomain(p profile.Profile) Employee {
	projects := make([]Project, len(p.Projects))
	for i, pr := range p.Projects {
		projects[i] = Project{Name: pr.Name, Description: pr.Description, Tech: orEmpty(pr.Tech)}
	}
	return Employee{
		ID:                  p.ID,
		Name:                p.Name,
		Title:               p.Title,
		Department:          p.Department,
		Location:            p.Location,
		Email:               p.Email,
		Manager:             p.Manager,
		ExperienceYears:     p.ExperienceYears,
		ProfessionalSummary: p.Summary,
		Skills:              orEmpty(p.Skills),
		PrimarySkills:       orEmpty(p.PrimarySkills),
		SecondarySkills:     orEmpty(p.SecondarySkills),
		Tools:               orEmpty(p.Tools),
		Projects:            projects,
		AvatarURL:           p.AvatarURL(),
	}
}

func resumeMatchFromDomain(o match.Overlap) ResumeMatch {
	return ResumeMatch{
		SharedSkills:      orEmpty(o.SharedSkills),
		MatchingProjects:  orEmpty(o.MatchingProjects),
		MatchingDomains:   orEmpty(o.MatchingDomains),
		TechOverlap:       orEmpty(o.TechOverlap),
		MatchingSeniority: o.MatchingSeniority,
		ReasonSummary:     o.ReasonSummary,
	}
}

func matchResultFromDomain(r *match.Result) MatchResult {
	return MatchResult{
		Employee:                 employeeFromDomain(r.Profile()),
		MatchScore:               r.Score(),
		Summary:                  r.Summary(),
		ResumeMatch:              resumeMatchFromDomain(r.Overlap()),
		CollaborationSuggestions: orEmpty(r.Suggestions()),
	}
}

func matchResultsFromDomain(results []match.Result) []MatchResult {
	out := make([]MatchResult, len(results))
	for i := range results {
		out[i] = matchResultFromDomain(&results[i])
	}
	return out
}

// orEmpty keeps JSON arrays from encoding as null.
func orEmpty(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
