package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	once sync.Once

	AnalystLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "pumpscan",
			Subsystem: "analyst",
			Name:      "latency_seconds",
			Help:      "Latency of model calls by kind",
			Buckets:   []float64{0.5, 1, 2, 5, 10, 20, 40, 60},
		},
		[]string{"call"},
	)

	AnalystErrors = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "pumpscan",
			Subsystem: "analyst",
			Name:      "errors_total",
			Help:      "Failed model calls by kind and stage",
		},
		[]string{"call", "stage"},
	)
)

// Register adds the analyst collectors to the default registry once.
func Register() {
	once.Do(func() {
		prometheus.MustRegister(AnalystLatency, AnalystErrors)
	})
}
