package chi

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/oapi-codegen/runtime"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/kailas-cloud/collabmatch/internal/domain"
	"github.com/kailas-cloud/collabmatch/internal/domain/profile"
	"github.com/kailas-cloud/collabmatch/internal/extract"
	logpkg "github.com/kailas-cloud/collabmatch/internal/logger"
	healthuc "github.com/kailas-cloud/collabmatch/internal/usecase/health"
	recommenduc "github.com/kailas-cloud/collabmatch/internal/usecase/recommend"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
	maxJSONBody     = 1 << 20
	multipartMemory = 8 << 20
)

// errorHandler tries to handle a domain error. Returns true if handled.
type errorHandler func(w http.ResponseWriter, err error, msg string) bool

// Directory lists and looks up employee profiles.
type Directory interface {
	All() []profile.Profile
	Get(id string) (profile.Profile, error)
}

// Server serves the recommendation API over chi.
type Server struct {
	recommend      *recommenduc.Service
	directory      Directory
	extractor      *extract.Extractor
	health         *healthuc.Service
	maxUploadBytes int64
	logger         *zap.Logger
	errorHandlers  []errorHandler
}

// NewServer creates an HTTP API server.
func NewServer(
	recommend *recommenduc.Service,
	directory Directory,
	extractor *extract.Extractor,
	health *healthuc.Service,
	maxUploadBytes int64,
	logger *zap.Logger,
) *Server {
	return &Server{
		recommend:      recommend,
		directory:      directory,
		extractor:      extractor,
		health:         health,
		maxUploadBytes: maxUploadBytes,
		logger:         logger,
		errorHandlers: []errorHandler{
			inputErrorHandler,
			sentinelHandler(domain.ErrNotFound, http.StatusNotFound, codeNotFound),
			sentinelHandler(domain.ErrUnreadableDocument, http.StatusUnprocessableEntity, codeUnreadableDocument),
			sentinelHandler(domain.ErrProviderError, http.StatusBadGateway, codeProviderError),
		},
	}
}

// Register mounts all routes on r.
func (s *Server) Register(r chi.Router) {
	r.Get("/health", s.HealthCheck)
	r.Get("/metrics", s.Metrics)

	r.Route("/api", func(r chi.Router) {
		r.Post("/recommend", s.Recommend)
		r.Post("/match-details", s.MatchDetails)
		r.Post("/extract", s.Extract)
		r.Get("/employees", s.ListEmployees)
		r.Get("/employees/{id}", s.GetEmployee)
		r.Get("/employees/{id}/similar", s.SimilarEmployees)
	})
}

// Recommend handles POST /api/recommend.
func (s *Server) Recommend(w http.ResponseWriter, r *http.Request) {
	var req RecommendRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	ctx, usage := domain.NewContextWithUsage(r.Context())
	resp, err := s.recommend.Recommend(ctx, recommenduc.Request{
		Mode:        req.Mode,
		ResumeText:  req.ResumeText,
		SearchQuery: req.SearchQuery,
	})
	setUsageHeaders(w, usage)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, RecommendResponse{
		Recommendations: matchResultsFromDomain(resp.Results),
		Mode:            string(resp.Mode),
		NoMatch:         resp.NoMatch,
	})
}

// MatchDetails handles POST /api/match-details.
func (s *Server) MatchDetails(w http.ResponseWriter, r *http.Request) {
	var req MatchDetailsRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	ctx, usage := domain.NewContextWithUsage(r.Context())
	res, err := s.recommend.FetchDetails(ctx, req.TargetText, req.EmployeeID)
	setUsageHeaders(w, usage)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, MatchDetailsResponse{
		ResumeMatch:              resumeMatchFromDomain(res.Overlap()),
		CollaborationSuggestions: orEmpty(res.Suggestions()),
	})
}

// Extract handles POST /api/extract (multipart field "file").
func (s *Server) Extract(w http.ResponseWriter, r *http.Request) {
	if s.maxUploadBytes > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, s.maxUploadBytes+multipartMemory)
	}
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, "expected multipart form with a file field")
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, codeValidationFailed, "file is required")
		return
	}
	defer func() { _ = file.Close() }()

	data, err := io.ReadAll(file)
	if err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, "could not read upload")
		return
	}

	text, err := s.extractor.Extract(r.Context(), header.Filename, data)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, ExtractResponse{Text: text})
}

// ListEmployees handles GET /api/employees.
func (s *Server) ListEmployees(w http.ResponseWriter, r *http.Request) {
	var limit, offset *int
	query := r.URL.Query()
	if err := runtime.BindQueryParameter("form", true, false, "limit", query, &limit); err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, "invalid limit")
		return
	}
	if err := runtime.BindQueryParameter("form", true, false, "offset", query, &offset); err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, "invalid offset")
		return
	}

	l := derefInt(limit, defaultPageSize)
	if l <= 0 || l > maxPageSize {
		writeError(w, http.StatusBadRequest, codeValidationFailed,
			"limit must be between 1 and "+strconv.Itoa(maxPageSize))
		return
	}
	o := derefInt(offset, 0)
	if o < 0 {
		writeError(w, http.StatusBadRequest, codeValidationFailed, "offset must not be negative")
		return
	}

	all := s.directory.All()
	start := min(o, len(all))
	end := min(start+l, len(all))

	items := make([]Employee, 0, end-start)
	for _, p := range all[start:end] {
		items = append(items, employeeFromDomain(p))
	}

	writeJSON(w, http.StatusOK, EmployeeListResponse{
		Items:  items,
		Total:  len(all),
		Limit:  l,
		Offset: o,
	})
}

// GetEmployee handles GET /api/employees/{id}.
func (s *Server) GetEmployee(w http.ResponseWriter, r *http.Request) {
	p, err := s.directory.Get(chi.URLParam(r, "id"))
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, employeeFromDomain(p))
}

// SimilarEmployees handles GET /api/employees/{id}/similar.
func (s *Server) SimilarEmployees(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	ctx, usage := domain.NewContextWithUsage(r.Context())
	results, err := s.recommend.Similar(ctx, id)
	setUsageHeaders(w, usage)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, SimilarResponse{
		EmployeeID:      id,
		Recommendations: matchResultsFromDomain(results),
	})
}

// HealthCheck handles GET /health.
func (s *Server) HealthCheck(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())

	checks := make(map[string]string, len(report.Checks))
	for k, v := range report.Checks {
		checks[k] = string(v)
	}

	httpStatus := http.StatusOK
	if report.Status != healthuc.Healthy {
		httpStatus = http.StatusServiceUnavailable
	}

	writeJSON(w, httpStatus, HealthResponse{
		Status:   string(report.Status),
		Checks:   checks,
		Profiles: report.Profiles,
	})
}

// Metrics handles GET /metrics.
func (s *Server) Metrics(w http.ResponseWriter, r *http.Request) {
	promhttp.Handler().ServeHTTP(w, r)
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(io.LimitReader(r.Body, maxJSONBody)).Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, "Invalid request body: "+err.Error())
		return false
	}
	return true
}

func setUsageHeaders(w http.ResponseWriter, usage *domain.Usage) {
	if tokens, used := usage.Embedding(); used {
		w.Header().Set("X-Embedding-Tokens", strconv.Itoa(tokens))
	}
	if tokens, used := usage.Generation(); used {
		w.Header().Set("X-Generation-Tokens", strconv.Itoa(tokens))
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, ErrorResponse{
		Code:    code,
		Message: message,
	})
}

// safeDomainMessage returns a sentinel error message for the client without exposing internals.
func safeDomainMessage(err error) string {
	var ie *domain.InputError
	if errors.As(err, &ie) {
		return ie.Error()
	}

	sentinels := []error{
		domain.ErrInvalidInput,
		domain.ErrNotFound,
		domain.ErrUnreadableDocument,
		domain.ErrProviderError,
	}
	for _, s := range sentinels {
		if errors.Is(err, s) {
			return s.Error()
		}
	}
	return "internal error"
}

// sentinelHandler returns an errorHandler that matches a single sentinel error.
func sentinelHandler(sentinel error, status int, code string) errorHandler {
	return func(w http.ResponseWriter, err error, msg string) bool {
		if !errors.Is(err, sentinel) {
			return false
		}
		writeError(w, status, code, msg)
		return true
	}
}

func inputErrorHandler(w http.ResponseWriter, err error, msg string) bool {
	if !errors.Is(err, domain.ErrInvalidInput) {
		return false
	}
	writeError(w, http.StatusBadRequest, codeValidationFailed, msg)
	return true
}

func (s *Server) handleDomainError(w http.ResponseWriter, r *http.Request, err error) {
	log := logpkg.FromContext(r.Context(), s.logger)
	log.Warn("domain error", zap.Error(err))
	msg := safeDomainMessage(err)
	for _, h := range s.errorHandlers {
		if h(w, err, msg) {
			return
		}
	}
	log.Error("internal error", zap.Error(err))
	writeError(w, http.StatusInternalServerError, codeInternalError, "internal error")
}

func derefInt(p *int, def int) int {
	if p == nil {
		return def
	}
	return *p
}
