package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestMiddleware_RecordsDurationAndCount(t *testing.T) {
	r := chi.NewRouter()
	r.Use(Middleware())
	r.Post("/api/recommend", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("ok"))
	})

	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest("POST", "/api/recommend", http.NoBody))

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rr.Code)
	}
	if v := testutil.ToFloat64(httpRequestsTotal.WithLabelValues("POST", "/api/recommend", "200")); v < 1 {
		t.Errorf("expected http_requests_total >= 1, got %f", v)
	}
	if testutil.CollectAndCount(httpRequestDuration) == 0 {
		t.Error("expected http_request_duration_seconds to have observations")
	}
	if v := testutil.ToFloat64(httpInFlight); v != 0 {
		t.Errorf("in-flight gauge must return to 0, got %f", v)
	}
}

func TestMiddleware_UsesRoutePattern(t *testing.T) {
	r := chi.NewRouter()
	r.Use(Middleware())
	r.Get("/api/employees/{id}", func(w http.ResponseWriter, r *http.Request) {
		if chi.URLParam(r, "id") == "missing" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		_, _ = w.Write([]byte("{}"))
	})

	for _, id := range []string{"emp001", "emp002", "missing"} {
		r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("GET", "/api/employees/"+id, http.NoBody))
	}

	if ok := testutil.ToFloat64(httpRequestsTotal.WithLabelValues("GET", "/api/employees/{id}", "200")); ok < 2 {
		t.Errorf("expected 2 requests under route pattern, got %f", ok)
	}
	if nf := testutil.ToFloat64(httpRequestsTotal.WithLabelValues("GET", "/api/employees/{id}", "404")); nf < 1 {
		t.Errorf("expected 404 recorded under route pattern, got %f", nf)
	}
}

func TestRouteLabel_OutsideRouter(t *testing.T) {
	if got := routeLabel(httptest.NewRequest("GET", "/health", http.NoBody)); got != "unknown" {
		t.Errorf("routeLabel = %q, want unknown", got)
	}
}

func TestRegister_Idempotent(t *testing.T) {
	RegisterHTTPMetrics()
	RegisterHTTPMetrics()
	RegisterEmbeddingMetrics()
	RegisterEmbeddingMetrics()
	RegisterGenerationMetrics()
	RegisterGenerationMetrics()

	ExplanationsTotal.WithLabelValues("fallback").Inc()
	if v := testutil.ToFloat64(ExplanationsTotal.WithLabelValues("fallback")); v < 1 {
		t.Errorf("expected fallback counter >= 1, got %f", v)
	}
}
