package metrics

import "github.com/prometheus/client_golang/prometheus"

// Embedding and classification Prometheus metrics.
var (
	EmbeddingRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "genrecast",
			Name:      "embedding_requests_total",
			Help:      "Total number of embedding requests",
		},
		[]string{"provider", "model", "status"},
	)

	EmbeddingRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "genrecast",
			Name:      "embedding_request_duration_seconds",
			Help:      "Embedding request duration in seconds",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"provider", "model"},
	)

	EmbeddingErrorsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "genrecast",
			Name:      "embedding_errors_total",
			Help:      "Total embedding errors",
		},
		[]string{"provider", "model", "error_type"},
	)

	EmbeddingCacheTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "genrecast",
			Name:      "embedding_cache_total",
			Help:      "Embedding cache hits and misses",
		},
		[]string{"result"}, // "hit" / "miss"
	)

	ClassificationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "genrecast",
			Name:      "classifications_total",
			Help:      "Classify requests by outcome",
		},
		[]string{"result"}, // "ok" / "unknown" / "invalid_input" / "embedding_error" / "index_error"
	)

	ReconcileDocumentsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "genrecast",
			Name:      "reconcile_documents_total",
			Help:      "Documents processed by the embedding reconciliation job",
		},
		[]string{"result"}, // "updated" / "failed" / "skipped"
	)
)

var registered bool

// Register registers Prometheus metrics. Must be called once from main.
func Register() {
	if registered {
		return
	}
	prometheus.MustRegister(EmbeddingRequestsTotal)
	prometheus.MustRegister(EmbeddingRequestDuration)
	prometheus.MustRegister(EmbeddingErrorsTotal)
	prometheus.MustRegister(EmbeddingCacheTotal)
	prometheus.MustRegister(ClassificationsTotal)
	prometheus.MustRegister(ReconcileDocumentsTotal)
	registered = true
}
