package metrics

import "github.com/prometheus/client_golang/prometheus"

// Retrieval Prometheus metrics.
var (
	CollectionQueriesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "collection_queries_total",
			Help:      "Per-collection nearest-neighbour queries",
		},
		[]string{"collection", "status"}, // "ok" / "error" / "unavailable"
	)

	CollectionQueryDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "collection_query_duration_seconds",
			Help:      "Per-collection query duration in seconds",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		},
		[]string{"collection"},
	)

	IntentTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "intent_total",
			Help:      "Classified query intents",
		},
		[]string{"intent"},
	)

	FusedResults = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "fused_results",
			Help:      "Number of results returned after fusion",
			Buckets:   []float64{0, 1, 2, 5, 10, 20, 50, 100},
		},
		[]string{"operation"},
	)
)

var searchMetricsRegistered bool

// RegisterSearchMetrics registers retrieval metrics. Must be called once from main.
func RegisterSearchMetrics() {
	if searchMetricsRegistered {
		return
	}
	prometheus.MustRegister(CollectionQueriesTotal)
	prometheus.MustRegister(CollectionQueryDuration)
	prometheus.MustRegister(IntentTotal)
	prometheus.MustRegister(FusedResults)
	searchMetricsRegistered = true
}
