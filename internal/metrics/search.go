package metrics

import "github.com/prometheus/client_golang/prometheus"

// Search pipeline Prometheus metrics.
var (
	SearchCacheTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "nlpsearch",
			Name:      "result_cache_total",
			Help:      "Result cache hits and misses",
		},
		[]string{"result"}, // "hit" / "miss"
	)

	SearchStrategyTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "nlpsearch",
			Name:      "retrieval_strategy_total",
			Help:      "Which retrieval strategy produced the candidate set",
		},
		[]string{"strategy"}, // "ranked" / "tokens" / "nearest"
	)

	SearchPipelineDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "nlpsearch",
			Name:      "pipeline_duration_seconds",
			Help:      "Full query pipeline duration (cache misses only)",
			Buckets:   []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		},
	)

	SearchEmptyTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "nlpsearch",
			Name:      "empty_result_total",
			Help:      "Queries where no candidate survived acceptance",
		},
	)
)

// RegisterSearchMetrics registers pipeline metrics explicitly (no init()).
func RegisterSearchMetrics() {
	prometheus.MustRegister(
		SearchCacheTotal,
		SearchStrategyTotal,
		SearchPipelineDuration,
		SearchEmptyTotal,
	)
}
