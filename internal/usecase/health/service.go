package health

import "context"

// Status represents the aggregated health status.
type Status string

const (
	// Healthy indicates all components are operational.
	Healthy Status = "ok"
	// Degraded indicates a dependency is failing but recommendations can still be served.
	Degraded Status = "degraded"
	// Unhealthy indicates no profiles are loaded.
	Unhealthy Status = "error"
)

// CheckResult represents an individual component health check outcome.
type CheckResult string

const (
	// CheckOK indicates a passing health check.
	CheckOK CheckResult = "ok"
	// CheckError indicates a failing health check.
	CheckError CheckResult = "error"
)

// Report aggregates health check results.
type Report struct {
	Status   Status
	Checks   map[string]CheckResult
	Profiles int
}

// Service coordinates health checks.
type Service struct {
	profiles  ProfileCounter
	cache     CachePinger
	embedding EmbeddingChecker
}

// New creates a Service. cache and embedding can be nil.
func New(profiles ProfileCounter, cache CachePinger, embedding EmbeddingChecker) *Service {
	return &Service{profiles: profiles, cache: cache, embedding: embedding}
}

// Check runs health checks against all components.
func (s *Service) Check(ctx context.Context) Report {
	checks := make(map[string]CheckResult)

	count := s.profiles.Len()
	if count == 0 {
		checks["profiles"] = CheckError
	} else {
		checks["profiles"] = CheckOK
	}

	if s.cache != nil {
		checks["cache"] = result(s.cache.Ping(ctx))
	}
	if s.embedding != nil {
		checks["embedding"] = result(s.embedding.HealthCheck(ctx))
	}

	status := Healthy
	for _, v := range checks {
		if v == CheckError {
			status = Degraded
			break
		}
	}
	if count == 0 {
		status = Unhealthy
	}

	return Report{Status: status, Checks: checks, Profiles: count}
}

func result(err error) CheckResult {
	if err != nil {
		return CheckError
	}
	return CheckOK
}
