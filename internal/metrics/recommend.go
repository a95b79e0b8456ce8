package metrics

import "github.com/prometheus/client_golang/prometheus"

// Recommendation and index metrics.
var (
	RecommendationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "recommendations_total",
			Help:      "Recommendation queries by outcome",
		},
		[]string{"tone", "filtered", "status"},
	)

	RecommendationResultSize = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "recommendation_result_size",
			Help:      "Number of books returned per recommendation query",
			Buckets:   []float64{0, 1, 2, 4, 8, 16, 32, 64},
		},
	)

	IndexRecords = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "index_records",
			Help:      "Description records held by the similarity index",
		},
	)

	IndexBuildDuration = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "index_build_duration_seconds",
			Help:      "Wall time of the last startup index build",
		},
	)
)
