package momentum

import (
	"fmt"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"

	"PumpScan/internal/domain/models"
)

func cluster(theme models.ThemeTag, total float64, platforms ...string) models.MomentumCluster {
	events := make([]models.MomentumEvent, 0, len(platforms))
	for i, p := range platforms {
		events = append(events, models.MomentumEvent{ID: fmt.Sprintf("%s-%d", theme, i), Platform: p})
	}
	return models.MomentumCluster{
		Theme:             theme,
		Events:            events,
		TotalMomentum:     total,
		PlatformDiversity: len(platforms),
		Platforms:         platforms,
	}
}

func TestSummarizeEmpty(t *testing.T) {
	s := NewSummarizer(DefaultRules())
	got := s.Summarize(nil, nil)

	assert.Zero(t, got.MomentumEvents)
	assert.Zero(t, got.ClustersFound)
	assert.Empty(t, got.ThemeBreakdown)
	assert.NotNil(t, got.ThemeBreakdown)
	assert.Empty(t, got.PlatformMomentum)
	assert.Equal(t, models.RiskIndicators{}, got.RiskIndicators)
	assert.Equal(t, models.ThemeTag(""), got.TopTheme)
	assert.Equal(t, "None", got.TopThemeLabel)
	assert.Equal(t, "Last 2-4 hours", got.PeakTime)
	assert.Equal(t, models.RiskNormal, got.Recommendation.Level)
	assert.Equal(t, MessageNormal, got.Recommendation.Message)
}

func TestSummarizeCoordination(t *testing.T) {
	s := NewSummarizer(DefaultRules())

	got := s.Summarize([]models.MomentumCluster{
		cluster(ThemeMARumor, 9, "reddit", "4chan", "stocktwits"),
		cluster(ThemeEarningsPlay, 4, "reddit", "4chan"),
	}, nil)

	assert.Equal(t, 1, got.RiskIndicators.HighRiskPatternCount)
	assert.GreaterOrEqual(t, got.RiskIndicators.CoordinatedPlatformMax, 3)
	assert.Equal(t, 3, got.RiskIndicators.CoordinatedPlatformMax)
	assert.Zero(t, got.RiskIndicators.NewAccountRatioEstimate)
}

func TestSummarizeBreakdownAndPlatforms(t *testing.T) {
	s := NewSummarizer(DefaultRules())
	events := []models.MomentumEvent{
		{ID: "1", Platform: "reddit", MomentumScore: 3.0},
		{ID: "2", Platform: "reddit", MomentumScore: 5.0},
		{ID: "3", Platform: "4chan", MomentumScore: 5.5},
	}

	got := s.Summarize([]models.MomentumCluster{
		cluster(ThemePumpHype, 8.5, "reddit", "4chan"),
		cluster(ThemeSqueezePlay, 8.5, "reddit", "reddit"),
	}, events)

	assert.Equal(t, 3, got.MomentumEvents)
	assert.Equal(t, 2, got.ClustersFound)
	assert.Equal(t, models.ThemeStats{Count: 2, TotalMomentum: 8.5}, got.ThemeBreakdown[ThemePumpHype])
	assert.InDelta(t, 8.0, got.PlatformMomentum["reddit"], 1e-9)
	assert.InDelta(t, 5.5, got.PlatformMomentum["4chan"], 1e-9)
	// 5.0 is not above the spike threshold
	assert.Equal(t, 1, got.RiskIndicators.VolumeSpikeCount)
	assert.InDelta(t, 0.35, got.RiskIndicators.NewAccountRatioEstimate, 1e-9)
	// equal totals resolve lexicographically
	assert.Equal(t, ThemePumpHype, got.TopTheme)
	assert.Equal(t, "Pump Hype", got.TopThemeLabel)
}

func TestSummarizeRecommendationBoundaries(t *testing.T) {
	s := NewSummarizer(DefaultRules())
	three := []string{"reddit", "4chan", "stocktwits"}

	mk := func(coordinated, plain int) []models.MomentumCluster {
		var out []models.MomentumCluster
		for i := 0; i < coordinated; i++ {
			out = append(out, cluster(models.ThemeTag(fmt.Sprintf("c%d", i)), 1, three...))
		}
		for i := 0; i < plain; i++ {
			out = append(out, cluster(models.ThemeTag(fmt.Sprintf("p%d", i)), 1, "reddit", "reddit"))
		}
		return out
	}

	tests := []struct {
		name     string
		clusters []models.MomentumCluster
		want     models.RiskLevel
	}{
		{"three coordinated is not high", mk(3, 0), models.RiskNormal},
		{"four coordinated is high", mk(4, 0), models.RiskHigh},
		{"five clusters is normal", mk(0, 5), models.RiskNormal},
		{"six clusters is elevated", mk(0, 6), models.RiskElevated},
		{"high wins over elevated", mk(4, 4), models.RiskHigh},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, s.Summarize(tt.clusters, nil).Recommendation.Level)
		})
	}
}

func TestSummarizeSpanBoundary(t *testing.T) {
	s := NewSummarizer(DefaultRules())
	got := s.Summarize([]models.MomentumCluster{cluster(ThemeMARumor, 1, "reddit", "4chan")}, nil)
	assert.Zero(t, got.RiskIndicators.HighRiskPatternCount)
	assert.Zero(t, got.RiskIndicators.CoordinatedPlatformMax)
}

func TestThemeLabel(t *testing.T) {
	assert.Equal(t, "Squeeze Play", ThemeLabel(ThemeSqueezePlay))
	assert.Equal(t, "Sector Ai", ThemeLabel("sector_ai"))
	assert.Equal(t, "Ma Rumor", ThemeLabel(ThemeMARumor))
	assert.Equal(t, "None", ThemeLabel(""))
	assert.Equal(t, "Émoji Pump", ThemeLabel("émoji_pump"))
	assert.True(t, utf8.ValidString(ThemeLabel("ünicode_ß")))
}
