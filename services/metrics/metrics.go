// Package metrics defines the Prometheus instrumentation for the request
// pipeline: security classification counters, cache hit rate, and
// retrieval/LLM latency histograms. Exposed on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "secure_rag"

// Registry holds every metric the pipeline records. Build one with New and
// pass it to the orchestrator and handlers; there is no package-level
// singleton, so tests can use an isolated prometheus.Registry.
type Registry struct {
	RequestsTotal       *prometheus.CounterVec
	ClassificationTotal *prometheus.CounterVec
	OutputFilteredTotal prometheus.Counter
	BlockedTotal        prometheus.Counter

	CacheHitsTotal   prometheus.Counter
	CacheMissesTotal prometheus.Counter
	CacheSize        prometheus.Gauge

	RetrievalDurationSeconds prometheus.Histogram
	LLMDurationSeconds       *prometheus.HistogramVec

	ActiveStreams prometheus.Gauge
}

// New registers every metric against reg and returns the Registry. reg is
// typically prometheus.NewRegistry() in tests or prometheus.DefaultRegisterer
// in production, via promauto.With(reg).
func New(reg prometheus.Registerer) *Registry {
	f := promauto.With(reg)

	return &Registry{
		RequestsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "requests_total",
			Help:      "Total chat requests by endpoint and outcome.",
		}, []string{"endpoint", "outcome"}),

		ClassificationTotal: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "classification_total",
			Help:      "Total requests by security classification.",
		}, []string{"classification"}),

		OutputFilteredTotal: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "output_filtered_total",
			Help:      "Total LLM responses that were redacted or blocked by the output filter.",
		}),

		BlockedTotal: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "blocked_total",
			Help:      "Total requests blocked pre-LLM by the security middleware.",
		}),

		CacheHitsTotal: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_hits_total",
			Help:      "Total query cache hits.",
		}),

		CacheMissesTotal: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_misses_total",
			Help:      "Total query cache misses.",
		}),

		CacheSize: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "cache_size",
			Help:      "Current number of entries in the query cache.",
		}),

		RetrievalDurationSeconds: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "retrieval_duration_seconds",
			Help:      "Time spent in hybrid retrieval (vector + lexical fusion).",
			Buckets:   []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		}),

		LLMDurationSeconds: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "llm_duration_seconds",
			Help:      "Time spent waiting on the LLM client, by call mode.",
			Buckets:   []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		}, []string{"mode"}),

		ActiveStreams: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "active_streams",
			Help:      "Number of in-flight /api/chat/stream connections.",
		}),
	}
}
