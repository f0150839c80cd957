package momentum

import (
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"

	"PumpScan/internal/domain/models"
)

// Summarizer reduces clusters and events to a RiskSummary.
type Summarizer struct {
	rules Rules
}

func NewSummarizer(rules Rules) *Summarizer {
	return &Summarizer{rules: rules}
}

func (s *Summarizer) Summarize(clusters []models.MomentumCluster, events []models.MomentumEvent) models.RiskSummary {
	summary := models.RiskSummary{
		MomentumEvents:   len(events),
		ClustersFound:    len(clusters),
		ThemeBreakdown:   make(map[models.ThemeTag]models.ThemeStats, len(clusters)),
		PlatformMomentum: make(map[string]float64),
		PeakTime:         s.rules.PeakTimeLabel,
	}

	for _, c := range clusters {
		st := summary.ThemeBreakdown[c.Theme]
		st.Count += len(c.Events)
		st.TotalMomentum += c.TotalMomentum
		summary.ThemeBreakdown[c.Theme] = st
	}

	for _, e := range events {
		summary.PlatformMomentum[e.Platform] += e.MomentumScore
		if e.MomentumScore > s.rules.VolumeSpikeMomentum {
			summary.RiskIndicators.VolumeSpikeCount++
		}
	}

	for _, c := range clusters {
		if c.PlatformDiversity > s.rules.CoordinationSpan {
			summary.RiskIndicators.HighRiskPatternCount++
			if c.PlatformDiversity > summary.RiskIndicators.CoordinatedPlatformMax {
				summary.RiskIndicators.CoordinatedPlatformMax = c.PlatformDiversity
			}
		}
	}

	// Placeholder: no account-age data is collected, so the ratio is a fixed
	// estimate whenever a squeeze or pump cluster exists.
	if s.hasNewAccountTheme(clusters) {
		summary.RiskIndicators.NewAccountRatioEstimate = s.rules.NewAccountRatio
	}

	summary.TopTheme = topTheme(summary.ThemeBreakdown)
	summary.TopThemeLabel = ThemeLabel(summary.TopTheme)
	summary.Recommendation = s.recommend(summary.RiskIndicators, len(clusters))
	return summary
}

func (s *Summarizer) hasNewAccountTheme(clusters []models.MomentumCluster) bool {
	for _, c := range clusters {
		for _, needle := range s.rules.NewAccountThemes {
			if needle != "" && strings.Contains(string(c.Theme), needle) {
				return true
			}
		}
	}
	return false
}

func (s *Summarizer) recommend(ind models.RiskIndicators, clusters int) models.Recommendation {
	switch {
	case ind.HighRiskPatternCount > s.rules.HighRiskPatterns:
		return models.Recommendation{Level: models.RiskHigh, Message: MessageHighRisk}
	case clusters > s.rules.ElevatedClusters:
		return models.Recommendation{Level: models.RiskElevated, Message: MessageElevated}
	default:
		return models.Recommendation{Level: models.RiskNormal, Message: MessageNormal}
	}
}

// topTheme picks the highest total momentum; equal totals resolve to the smaller name.
func topTheme(breakdown map[models.ThemeTag]models.ThemeStats) models.ThemeTag {
	themes := make([]models.ThemeTag, 0, len(breakdown))
	for t := range breakdown {
		themes = append(themes, t)
	}
	sort.Slice(themes, func(i, j int) bool { return themes[i] < themes[j] })

	var (
		best  models.ThemeTag
		total float64
	)
	for i, t := range themes {
		if i == 0 || breakdown[t].TotalMomentum > total {
			best, total = t, breakdown[t].TotalMomentum
		}
	}
	return best
}

// ThemeLabel renders a tag for display: "squeeze_play" -> "Squeeze Play", "" -> "None".
func ThemeLabel(t models.ThemeTag) string {
	if t == "" {
		return "None"
	}
	words := strings.Fields(strings.ReplaceAll(string(t), "_", " "))
	for i, w := range words {
		r, size := utf8.DecodeRuneInString(w)
		words[i] = string(unicode.ToUpper(r)) + strings.ToLower(w[size:])
	}
	return strings.Join(words, " ")
}
