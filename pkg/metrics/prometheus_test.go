package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestRecorderCounts(t *testing.T) {
	reg := prometheus.NewRegistry()
	r := New(reg)

	r.RecordScan("monitor", 12.5, 40, 6)
	r.RecordScan("api", 3, 10, 2)
	r.RecordSource("reddit", "ok", 1.2)
	r.RecordSource("4chan", "unavailable", 45)
	r.RecordError("publish")
	r.RecordDelivery("kafka")

	assert.Equal(t, 1.0, testutil.ToFloat64(r.scansTotal.WithLabelValues("monitor")))
	assert.Equal(t, 10.0, testutil.ToFloat64(r.events))
	assert.Equal(t, 2.0, testutil.ToFloat64(r.clusters))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.sourceFetches.WithLabelValues("4chan", "unavailable")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.errorsTotal.WithLabelValues("publish")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.deliveries.WithLabelValues("kafka")))
}

func TestRecordRiskKeepsOneLevel(t *testing.T) {
	r := New(prometheus.NewRegistry())

	r.RecordRisk("high_risk", 4, 7)
	r.RecordRisk("normal", 0, 1)

	assert.Equal(t, 1, testutil.CollectAndCount(r.riskLevel))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.riskLevel.WithLabelValues("normal")))
	assert.Equal(t, 0.0, testutil.ToFloat64(r.highRisk))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.volumeSpikes))
}

func TestRecordConsumedIsSeparateFromSources(t *testing.T) {
	r := New(prometheus.NewRegistry())

	r.RecordConsumed("pumpscan.reports", "ok", 0.02)
	r.RecordConsumed("pumpscan.reports", "invalid", 0)

	assert.Equal(t, 1.0, testutil.ToFloat64(r.consumed.WithLabelValues("pumpscan.reports", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.consumed.WithLabelValues("pumpscan.reports", "invalid")))
	assert.Equal(t, 0, testutil.CollectAndCount(r.sourceFetches))
	assert.Equal(t, 1, testutil.CollectAndCount(r.consumeTime))
}
