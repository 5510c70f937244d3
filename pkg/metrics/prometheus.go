package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all prometheus metrics
type Metrics struct {
	GuidesGenerated   prometheus.Counter
	GuidesRefined     prometheus.Counter
	GenerationTime    prometheus.Histogram
	TableWriteRetries prometheus.Counter
	ErrorsCount       *prometheus.CounterVec
}

// NewMetrics creates new prometheus metrics
func NewMetrics(namespace string) *Metrics {
	return &Metrics{
		GuidesGenerated: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "guides_generated_total",
			Help:      "The total number of generated travel guides",
		}),
		GuidesRefined: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "guides_refined_total",
			Help:      "The total number of guide refinements",
		}),
		GenerationTime: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "guide_generation_time_seconds",
			Help:      "Time taken to generate a guide end to end",
			Buckets:   []float64{1, 2.5, 5, 10, 20, 30, 60, 120},
		}),
		TableWriteRetries: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "table_write_retries_total",
			Help:      "The total number of retried remote table writes",
		}),
		ErrorsCount: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "errors_total",
			Help:      "The total number of errors",
		}, []string{"operation"}),
	}
}
