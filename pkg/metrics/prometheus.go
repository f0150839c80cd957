package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder implements domain.repository.Metrics using Prometheus.
type Recorder struct {
	scansTotal    *prometheus.CounterVec
	scanDuration  *prometheus.HistogramVec
	sourceFetches *prometheus.CounterVec
	sourceLatency *prometheus.HistogramVec
	events        prometheus.Gauge
	clusters      prometheus.Gauge
	highRisk      prometheus.Gauge
	volumeSpikes  prometheus.Gauge
	riskLevel     *prometheus.GaugeVec
	deliveries    *prometheus.CounterVec
	consumed      *prometheus.CounterVec
	consumeTime   *prometheus.HistogramVec
	errorsTotal   *prometheus.CounterVec
}

// New creates a Prometheus metrics recorder registered on reg.
// A nil reg uses the default registerer.
func New(reg prometheus.Registerer) *Recorder {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	f := promauto.With(reg)

	return &Recorder{
		scansTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "pumpscan_scans_total",
				Help: "Total number of completed scans",
			},
			[]string{"trigger"},
		),
		scanDuration: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "pumpscan_scan_duration_seconds",
				Help:    "Wall time of a full scan",
				Buckets: []float64{1, 5, 10, 30, 60, 120, 300},
			},
			[]string{"trigger"},
		),
		sourceFetches: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "pumpscan_source_fetches_total",
				Help: "Source fetch outcomes",
			},
			[]string{"source", "status"},
		),
		sourceLatency: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "pumpscan_source_fetch_seconds",
				Help:    "Duration of source fetches",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"source"},
		),
		events: f.NewGauge(prometheus.GaugeOpts{
			Name: "pumpscan_last_scan_events",
			Help: "Momentum events found by the last scan",
		}),
		clusters: f.NewGauge(prometheus.GaugeOpts{
			Name: "pumpscan_last_scan_clusters",
			Help: "Clusters found by the last scan",
		}),
		highRisk: f.NewGauge(prometheus.GaugeOpts{
			Name: "pumpscan_high_risk_patterns",
			Help: "High-risk coordination patterns in the last scan",
		}),
		volumeSpikes: f.NewGauge(prometheus.GaugeOpts{
			Name: "pumpscan_volume_spikes",
			Help: "Volume spikes in the last scan",
		}),
		riskLevel: f.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "pumpscan_risk_level",
				Help: "1 for the recommendation level of the last scan, 0 otherwise",
			},
			[]string{"level"},
		),
		deliveries: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "pumpscan_reports_delivered_total",
				Help: "Reports handed to a sink",
			},
			[]string{"sink"},
		),
		consumed: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "pumpscan_reports_consumed_total",
				Help: "Reports read back from the report topic by outcome",
			},
			[]string{"topic", "status"},
		),
		consumeTime: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "pumpscan_report_consume_seconds",
				Help:    "Time to record one consumed report",
				Buckets: []float64{0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
			},
			[]string{"topic"},
		),
		errorsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "pumpscan_errors_total",
				Help: "Total number of errors encountered",
			},
			[]string{"type"},
		),
	}
}

// RecordScan records one finished scan.
func (r *Recorder) RecordScan(trigger string, seconds float64, events, clusters int) {
	r.scansTotal.WithLabelValues(trigger).Inc()
	r.scanDuration.WithLabelValues(trigger).Observe(seconds)
	r.events.Set(float64(events))
	r.clusters.Set(float64(clusters))
}

// RecordSource records a fetch outcome and its latency.
func (r *Recorder) RecordSource(source, status string, seconds float64) {
	r.sourceFetches.WithLabelValues(source, status).Inc()
	r.sourceLatency.WithLabelValues(source).Observe(seconds)
}

// RecordRisk sets the risk gauges of the last scan.
func (r *Recorder) RecordRisk(level string, highRisk, spikes int) {
	r.highRisk.Set(float64(highRisk))
	r.volumeSpikes.Set(float64(spikes))
	r.riskLevel.Reset()
	r.riskLevel.WithLabelValues(level).Set(1)
}

// RecordDelivery records a report sent to a sink.
func (r *Recorder) RecordDelivery(sink string) {
	r.deliveries.WithLabelValues(sink).Inc()
}

// RecordConsumed records one report handled by the reports consumer.
func (r *Recorder) RecordConsumed(topic, status string, seconds float64) {
	r.consumed.WithLabelValues(topic, status).Inc()
	if seconds > 0 {
		r.consumeTime.WithLabelValues(topic).Observe(seconds)
	}
}

// RecordError records an error occurrence.
func (r *Recorder) RecordError(kind string) {
	r.errorsTotal.WithLabelValues(kind).Inc()
}

// Nop discards everything. Used when metrics are disabled and in tests.
type Nop struct{}

func (Nop) RecordScan(string, float64, int, int)   {}
func (Nop) RecordSource(string, string, float64)   {}
func (Nop) RecordRisk(string, int, int)            {}
func (Nop) RecordDelivery(string)                  {}
func (Nop) RecordConsumed(string, string, float64) {}
func (Nop) RecordError(string)                     {}
