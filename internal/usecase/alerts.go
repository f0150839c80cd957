package usecase

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"PumpScan/internal/domain/models"
	domrepo "PumpScan/internal/domain/repository"
	applogger "PumpScan/pkg/logger"
)

const (
	SeverityHigh   = "HIGH"
	SeverityMedium = "MEDIUM"

	AlertTypeMomentum = "momentum_risk"
	AlertStatusActive = "ACTIVE"
)

// EvaluateAlert derives an alert from a report, or nil when the report is unremarkable.
func EvaluateAlert(r *models.ScanReport) *models.Alert {
	if r == nil {
		return nil
	}
	var aiLevel models.AIRiskLevel
	if r.AI != nil && r.AI.Overall != nil {
		aiLevel = r.AI.Overall.RiskLevel
	}

	var severity string
	switch {
	case r.Summary.Recommendation.Level == models.RiskHigh || aiLevel == models.AIRiskHigh:
		severity = SeverityHigh
	case r.Summary.Recommendation.Level == models.RiskElevated || aiLevel == models.AIRiskMedium:
		severity = SeverityMedium
	default:
		return nil
	}

	msg := fmt.Sprintf("%s: top theme %s, %d high-risk patterns, %d volume spikes",
		r.Summary.Recommendation.Message,
		r.Summary.TopThemeLabel,
		r.Summary.RiskIndicators.HighRiskPatternCount,
		r.Summary.RiskIndicators.VolumeSpikeCount)
	if aiLevel != "" {
		msg += fmt.Sprintf(", AI risk %s", aiLevel)
	}

	return &models.Alert{
		ID:         uuid.NewString(),
		ScanID:     r.ScanID,
		Type:       AlertTypeMomentum,
		Severity:   severity,
		Theme:      r.Summary.TopTheme,
		Message:    msg,
		Indicators: r.Summary.RiskIndicators,
		Status:     AlertStatusActive,
		CreatedAt:  r.Timestamp,
	}
}

// ReportRecorder writes finished reports to history and raises alerts.
type ReportRecorder struct {
	history domrepo.HistoryStore
	alerts  bool
	metrics domrepo.Metrics
	log     *applogger.Logger
}

func NewReportRecorder(history domrepo.HistoryStore, alerts bool, metrics domrepo.Metrics, log *applogger.Logger) *ReportRecorder {
	if log == nil {
		log = applogger.Nop()
	}
	return &ReportRecorder{
		history: history,
		alerts:  alerts,
		metrics: metrics,
		log:     log.With(applogger.Component("recorder")),
	}
}

// Record persists the report summary and its alert, if any.
func (rr *ReportRecorder) Record(ctx context.Context, r *models.ScanReport) (*models.Alert, error) {
	if err := rr.history.SaveReport(ctx, r); err != nil {
		rr.metrics.RecordError("history")
		return nil, fmt.Errorf("save report %s: %w", r.ScanID, err)
	}
	if !rr.alerts {
		return nil, nil
	}

	a := EvaluateAlert(r)
	if a == nil {
		return nil, nil
	}
	rr.log.Warn("momentum alert",
		applogger.String("scan_id", a.ScanID),
		applogger.String("severity", a.Severity),
		applogger.String("theme", string(a.Theme)),
		applogger.String("message", a.Message))

	if err := rr.history.SaveAlert(ctx, a); err != nil {
		rr.metrics.RecordError("alert")
		return a, fmt.Errorf("save alert %s: %w", a.ID, err)
	}
	return a, nil
}
