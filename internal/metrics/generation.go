package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// Generation and recommendation Prometheus metrics.
var (
	GenerationRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "generation_requests_total",
			Help:      "Total number of text generation requests",
		},
		[]string{"provider", "model", "status"},
	)

	GenerationRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "generation_request_duration_seconds",
			Help:      "Text generation request duration in seconds",
			Buckets:   []float64{0.25, 0.5, 1, 2.5, 5, 10, 20, 30},
		},
		[]string{"provider", "model"},
	)

	GenerationTokensTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "generation_tokens_total",
			Help:      "Total generation tokens consumed",
		},
		[]string{"provider", "model"},
	)

	ExplanationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "explanations_total",
			Help:      "Match explanations by source",
		},
		[]string{"source"}, // "generated" / "fallback"
	)

	RecommendationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "recommendations_total",
			Help:      "Recommendation requests by mode and final state",
		},
		[]string{"mode", "state"},
	)

	RecommendationCandidates = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "recommendation_candidates",
			Help:      "Number of candidates returned per request",
			Buckets:   []float64{0, 1, 2, 3, 4, 5, 10},
		},
		[]string{"mode"},
	)
)

var genOnce sync.Once

// RegisterGenerationMetrics registers generation and recommendation metrics. Safe to call more than once.
func RegisterGenerationMetrics() {
	genOnce.Do(func() {
		prometheus.MustRegister(
			GenerationRequestsTotal,
			GenerationRequestDuration,
			GenerationTokensTotal,
			ExplanationsTotal,
			RecommendationsTotal,
			RecommendationCandidates,
		)
	})
}
