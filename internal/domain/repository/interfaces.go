package repository

import (
	"context"

	"PumpScan/internal/domain/models"
)

// SourceFetcher pulls one batch of raw records from a platform.
type SourceFetcher interface {
	Name() string
	Platform() string
	Fetch(ctx context.Context) (*models.SourceBatch, error)
}

// Analyst asks a language model for a structured read of clusters and platform spread.
type Analyst interface {
	AnalyzeCluster(ctx context.Context, c models.MomentumCluster) (*models.ClusterAnalysis, error)
	AnalyzePlatforms(ctx context.Context, platformMomentum map[string]float64) (*models.PlatformAnalysis, error)
}

// ReportPublisher delivers finished reports to an external sink.
type ReportPublisher interface {
	PublishReport(ctx context.Context, r *models.ScanReport) error
	Close() error
}

// HistoryStore keeps past scan summaries and alerts.
type HistoryStore interface {
	Init(ctx context.Context) error
	SaveReport(ctx context.Context, r *models.ScanReport) error
	SaveAlert(ctx context.Context, a *models.Alert) error
	RecentSummaries(ctx context.Context, limit int) ([]models.SummaryRecord, error)
	RecentAlerts(ctx context.Context, limit int) ([]models.Alert, error)
	Health(ctx context.Context) error
	Close() error
}

// ReportCache holds the latest reports and the scan lock.
type ReportCache interface {
	SaveReport(ctx context.Context, r *models.ScanReport) error
	Latest(ctx context.Context) (*models.ScanReport, error)
	Report(ctx context.Context, scanID string) (*models.ScanReport, error)
	AcquireScanLock(ctx context.Context) (bool, error)
	ReleaseScanLock(ctx context.Context) error
}

// ReportListener receives every finished report (live feeds).
type ReportListener interface {
	Broadcast(r *models.ScanReport)
}

type Metrics interface {
	RecordScan(trigger string, seconds float64, events, clusters int)
	RecordSource(source, status string, seconds float64)
	RecordRisk(level string, highRisk, spikes int)
	RecordDelivery(sink string)
	RecordConsumed(topic, status string, seconds float64)
	RecordError(kind string)
}
