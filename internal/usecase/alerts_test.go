package usecase

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"PumpScan/internal/domain/models"
	"PumpScan/internal/repository"
	pkgcache "PumpScan/pkg/cache"
	"PumpScan/pkg/metrics"
)

func reportWith(level models.RiskLevel, ai models.AIRiskLevel) *models.ScanReport {
	r := &models.ScanReport{
		ScanID:    "scan-1",
		Timestamp: time.Date(2025, 3, 14, 15, 0, 0, 0, time.UTC),
		Summary: models.RiskSummary{
			TopTheme:       "squeeze_play",
			TopThemeLabel:  "Squeeze Play",
			Recommendation: models.Recommendation{Level: level, Message: "msg"},
		},
	}
	if ai != "" {
		r.AI = &models.AIAnalysis{Overall: &models.OverallAssessment{RiskLevel: ai}}
	}
	return r
}

func TestEvaluateAlert(t *testing.T) {
	cases := []struct {
		name     string
		level    models.RiskLevel
		ai       models.AIRiskLevel
		severity string
	}{
		{"high recommendation", models.RiskHigh, "", SeverityHigh},
		{"high ai", models.RiskNormal, models.AIRiskHigh, SeverityHigh},
		{"elevated", models.RiskElevated, models.AIRiskLow, SeverityMedium},
		{"medium ai", models.RiskNormal, models.AIRiskMedium, SeverityMedium},
		{"normal", models.RiskNormal, models.AIRiskLow, ""},
		{"normal without ai", models.RiskNormal, "", ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			a := EvaluateAlert(reportWith(tc.level, tc.ai))
			if tc.severity == "" {
				assert.Nil(t, a)
				return
			}
			require.NotNil(t, a)
			assert.Equal(t, tc.severity, a.Severity)
			assert.Equal(t, AlertTypeMomentum, a.Type)
			assert.Equal(t, AlertStatusActive, a.Status)
			assert.Equal(t, "scan-1", a.ScanID)
			assert.Equal(t, models.ThemeTag("squeeze_play"), a.Theme)
			assert.NotEmpty(t, a.ID)
			assert.Contains(t, a.Message, "Squeeze Play")
		})
	}
	assert.Nil(t, EvaluateAlert(nil))
}

func TestRecorderAlertsToggle(t *testing.T) {
	mem := pkgcache.NewMemoryCache()
	defer mem.Close()
	history := repository.NewCacheHistory(mem, 10)
	ctx := context.Background()

	off := NewReportRecorder(history, false, metrics.Nop{}, nil)
	a, err := off.Record(ctx, reportWith(models.RiskHigh, ""))
	require.NoError(t, err)
	assert.Nil(t, a)

	on := NewReportRecorder(history, true, metrics.Nop{}, nil)
	a, err = on.Record(ctx, reportWith(models.RiskHigh, ""))
	require.NoError(t, err)
	require.NotNil(t, a)

	rows, err := history.RecentSummaries(ctx, 10)
	require.NoError(t, err)
	assert.Len(t, rows, 2)
	alerts, err := history.RecentAlerts(ctx, 10)
	require.NoError(t, err)
	require.Len(t, alerts, 1)
	assert.Equal(t, a.ID, alerts[0].ID)
}
