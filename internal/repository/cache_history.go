package repository

import (
	"context"

	"PumpScan/internal/domain/models"
	"PumpScan/internal/domain/repository"
	pkgcache "PumpScan/pkg/cache"
)

const (
	summariesKey = "history:summaries"
	alertsKey    = "history:alerts"
)

// CacheHistory implements HistoryStore on capped cache lists.
// It backs history when no ClickHouse is configured; entries beyond keep are dropped.
type CacheHistory struct {
	c    pkgcache.Service
	keep int
}

func NewCacheHistory(c pkgcache.Service, keep int) repository.HistoryStore {
	if keep <= 0 {
		keep = 200
	}
	return &CacheHistory{c: c, keep: keep}
}

func (h *CacheHistory) Init(context.Context) error { return nil }

func (h *CacheHistory) SaveReport(ctx context.Context, r *models.ScanReport) error {
	return h.c.Push(ctx, summariesKey, SummaryOf(r), h.keep)
}

func (h *CacheHistory) SaveAlert(ctx context.Context, a *models.Alert) error {
	return h.c.Push(ctx, alertsKey, a, h.keep)
}

func (h *CacheHistory) RecentSummaries(ctx context.Context, limit int) ([]models.SummaryRecord, error) {
	return pkgcache.RangeTyped[models.SummaryRecord](ctx, h.c, summariesKey, limit)
}

func (h *CacheHistory) RecentAlerts(ctx context.Context, limit int) ([]models.Alert, error) {
	return pkgcache.RangeTyped[models.Alert](ctx, h.c, alertsKey, limit)
}

func (h *CacheHistory) Health(ctx context.Context) error {
	_, err := h.c.Exists(ctx, summariesKey)
	return err
}

func (h *CacheHistory) Close() error { return nil }

// SummaryOf flattens a report into its history row.
func SummaryOf(r *models.ScanReport) models.SummaryRecord {
	rec := models.SummaryRecord{
		ScanID:         r.ScanID,
		Timestamp:      r.Timestamp,
		Events:         r.Summary.MomentumEvents,
		Clusters:       r.Summary.ClustersFound,
		TopTheme:       string(r.Summary.TopTheme),
		HighRisk:       r.Summary.RiskIndicators.HighRiskPatternCount,
		VolumeSpikes:   r.Summary.RiskIndicators.VolumeSpikeCount,
		Recommendation: r.Summary.Recommendation.Level,
	}
	if r.AI != nil && r.AI.Overall != nil {
		rec.AIRiskLevel = string(r.AI.Overall.RiskLevel)
	}
	return rec
}
