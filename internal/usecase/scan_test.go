package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"PumpScan/internal/domain/models"
	"PumpScan/internal/services/momentum"
)

func TestScanRunDelivers(t *testing.T) {
	f := newScanFixture(t, squeezeFetchers(), nil)
	ctx := context.Background()

	r, err := f.uc.Run(ctx, ScanParams{AnalyzeTop: 5})
	require.NoError(t, err)

	assert.NotEmpty(t, r.ScanID)
	assert.Equal(t, TriggerAPI, r.Trigger)
	assert.Equal(t, 2, r.Summary.MomentumEvents)
	require.Len(t, r.Clusters, 1)
	assert.Equal(t, momentum.ThemeSqueezePlay, r.Clusters[0].Theme)
	assert.Equal(t, 2, r.Clusters[0].PlatformDiversity)
	assert.Len(t, r.Sources, 3)
	assert.Nil(t, r.AI)

	latest, err := f.reports.Latest(ctx)
	require.NoError(t, err)
	assert.Equal(t, r.ScanID, latest.ScanID)
	byID, err := f.reports.Report(ctx, r.ScanID)
	require.NoError(t, err)
	assert.Equal(t, r.ScanID, byID.ScanID)

	require.Len(t, f.sink.reports, 1)
	require.Len(t, f.listener.reports, 1)

	rows, err := f.history.RecentSummaries(ctx, 10)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, r.ScanID, rows[0].ScanID)
}

func TestScanLockRejectsConcurrentScan(t *testing.T) {
	f := newScanFixture(t, squeezeFetchers(), nil)
	ctx := context.Background()

	ok, err := f.reports.AcquireScanLock(ctx)
	require.NoError(t, err)
	require.True(t, ok)

	_, err = f.uc.Run(ctx, ScanParams{})
	assert.ErrorIs(t, err, ErrScanInProgress)

	require.NoError(t, f.reports.ReleaseScanLock(ctx))
	_, err = f.uc.Run(ctx, ScanParams{})
	require.NoError(t, err)

	// released after the run
	_, err = f.uc.Run(ctx, ScanParams{})
	require.NoError(t, err)
}

func TestScanSinkFailureDoesNotFailScan(t *testing.T) {
	f := newScanFixture(t, squeezeFetchers(), nil)
	f.sink.err = errors.New("broker down")

	r, err := f.uc.Run(context.Background(), ScanParams{ScanID: "fixed", Trigger: TriggerOnce})
	require.NoError(t, err)
	assert.Equal(t, "fixed", r.ScanID)
	assert.Equal(t, TriggerOnce, r.Trigger)
	assert.Len(t, f.listener.reports, 1)
}

func TestScanWithAnalyst(t *testing.T) {
	analyst := &fakeAnalyst{probability: map[models.ThemeTag]float64{momentum.ThemeSqueezePlay: 82}}
	f := newScanFixture(t, squeezeFetchers(), analyst)

	r, err := f.uc.Run(context.Background(), ScanParams{AnalyzeTop: 3})
	require.NoError(t, err)
	require.NotNil(t, r.AI)
	require.Len(t, r.AI.ClusterAnalyses, 1)
	require.NotNil(t, r.AI.Overall)
	assert.Equal(t, models.AIRiskHigh, r.AI.Overall.RiskLevel)
	require.NotNil(t, r.AI.PlatformAnalysis)

	alerts, err := f.history.RecentAlerts(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, alerts, 1)
	assert.Equal(t, SeverityHigh, alerts[0].Severity)
	assert.Equal(t, r.ScanID, alerts[0].ScanID)

	_, err = f.uc.Run(context.Background(), ScanParams{AnalyzeTop: 0})
	require.NoError(t, err)
	assert.Equal(t, 1, analyst.calls)
}

func TestBuildReportCapsClusters(t *testing.T) {
	var res momentum.Result
	for i := 0; i < 12; i++ {
		c := models.MomentumCluster{Theme: models.ThemeTag("t"), PlatformDiversity: 1}
		for j := 0; j < 5; j++ {
			c.Events = append(c.Events, models.MomentumEvent{Text: "some text that is long enough"})
		}
		res.Clusters = append(res.Clusters, c)
	}
	start := time.Date(2025, 3, 14, 15, 0, 0, 0, time.FixedZone("x", 3600))

	r := BuildReport(ScanParams{ScanID: "s"}, start, time.Second, res, nil, nil)
	assert.Len(t, r.Clusters, 10)
	assert.Len(t, r.Clusters[0].SampleTexts, 3)
	assert.Equal(t, 5, r.Clusters[0].Events)
	assert.Equal(t, time.UTC, r.Timestamp.Location())
}
