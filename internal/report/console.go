package report

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/dustin/go-humanize"

	"PumpScan/internal/domain/models"
)

const (
	barMax          = 30
	themeBarUnit    = 10.0
	platformBarUnit = 20.0
	maxAssets       = 5
	maxRedFlags     = 3
	maxMentions     = 5
)

// Render writes the operator view of a report. Map-backed sections are printed in sorted order.
func Render(w io.Writer, r *models.ScanReport) error {
	p := &printer{w: w}
	s := r.Summary

	p.line(strings.Repeat("=", 80))
	p.line("     MOMENTUM-BASED PUMP DETECTOR  scan %s", r.ScanID)
	p.line(strings.Repeat("=", 80))
	p.line("")
	p.line("Scan completed in %.1f seconds at %s", r.ScanTime.Seconds(), r.Timestamp.Format("2006-01-02 15:04:05 MST"))

	p.line("")
	p.line("SOURCES:")
	for _, src := range sortedSources(r.Sources) {
		if src.Status == models.SourceOK {
			p.line("   %-15s ok           %s records", src.Source, humanize.Comma(int64(src.Records)))
		} else {
			p.line("   %-15s unavailable  %s", src.Source, src.Reason)
		}
	}

	p.line("")
	p.line("MOMENTUM ANALYSIS:")
	p.line("   High-momentum events detected: %s", humanize.Comma(int64(s.MomentumEvents)))
	p.line("   Theme clusters identified: %d", s.ClustersFound)

	if len(s.ThemeBreakdown) > 0 {
		p.line("")
		p.line("MOMENTUM THEMES DETECTED:")
		p.line(strings.Repeat("-", 60))
		for _, t := range sortedThemes(s.ThemeBreakdown) {
			st := s.ThemeBreakdown[t]
			if st.Count == 0 {
				continue
			}
			p.line("   %-20s Events: %3d | Momentum: %s", t, st.Count, Bar("█", st.TotalMomentum, themeBarUnit))
		}
	}

	if len(s.PlatformMomentum) > 0 {
		p.line("")
		p.line("PLATFORM ACTIVITY:")
		p.line(strings.Repeat("-", 60))
		for _, name := range sortedKeys(s.PlatformMomentum) {
			p.line("   %-15s %s", name, Bar("▓", s.PlatformMomentum[name], platformBarUnit))
		}
	}

	ind := s.RiskIndicators
	if ind.HighRiskPatternCount > 0 {
		p.line("")
		p.line("HIGH RISK PATTERNS DETECTED:")
		p.line("   Coordinated activity across %d platforms", ind.CoordinatedPlatformMax)
		p.line("   Unusual volume spikes: %d", ind.VolumeSpikeCount)
		p.line("   New account activity: %.1f%%", ind.NewAccountRatioEstimate*100)
	}

	p.line("")
	p.line("INSIGHTS:")
	p.line("   - %d high-momentum events found", s.MomentumEvents)
	p.line("   - Strongest activity in: %s themes", s.TopThemeLabel)
	p.line("   - Peak momentum time: %s", s.PeakTime)

	p.line("")
	p.line("RECOMMENDATION: %s", s.Recommendation.Message)

	if r.AI != nil {
		renderAI(p, r.AI)
	}
	return p.err
}

func renderAI(p *printer, ai *models.AIAnalysis) {
	p.line("")
	p.line("AI ANALYSIS:")
	p.line(strings.Repeat("=", 60))

	for _, ta := range ai.ClusterAnalyses {
		p.line("")
		p.line("%s:", strings.ToUpper(strings.ReplaceAll(string(ta.Theme), "_", " ")))
		if ta.Analysis == nil {
			p.line("   Analysis failed: %s", ta.Error)
			continue
		}
		a := ta.Analysis
		p.line("   Pump Probability: %s%%", humanize.Ftoa(a.PumpProbability))
		p.line("   Type: %s", orDefault(a.PumpType, "Unknown"))
		p.line("   Coordination: %s/10", humanize.Ftoa(a.CoordinationScore))
		p.line("   Action: %s", orDefault(a.RecommendedAction, "monitor"))
		if len(a.DetectedAssets) > 0 {
			p.line("   Assets Detected: %s", strings.Join(head(a.DetectedAssets, maxAssets), ", "))
		}
		if len(a.AssetMentions) > 0 {
			p.line("   Top Mentions:")
			for _, m := range topMentions(a.AssetMentions, maxMentions) {
				p.line("      - %s: %d mentions", m, a.AssetMentions[m])
			}
		}
		if len(a.RedFlags) > 0 {
			p.line("   Red Flags: %s", strings.Join(head(a.RedFlags, maxRedFlags), ", "))
		}
	}

	if pa := ai.PlatformAnalysis; pa != nil {
		p.line("")
		p.line("CROSS-PLATFORM ANALYSIS:")
		p.line("   Coordination Level: %s/10", humanize.Ftoa(pa.CoordinationLevel))
		p.line("   Pattern: %s", orDefault(pa.SpreadPattern, "Unknown"))
		p.line("   Risk: %s", orDefault(pa.RiskAssessment, "Unknown"))
	} else if ai.PlatformError != "" {
		p.line("")
		p.line("CROSS-PLATFORM ANALYSIS failed: %s", ai.PlatformError)
	}

	if oa := ai.Overall; oa != nil {
		p.line("")
		p.line("OVERALL RISK: %s", oa.RiskLevel)
		p.line("   Highest Pump Probability: %s%%", humanize.Ftoa(oa.HighestPumpProbability))
	}
}

// Bar draws value/unit glyphs, capped at 30.
func Bar(glyph string, value, unit float64) string {
	n := int(value / unit)
	if n < 0 {
		n = 0
	}
	if n > barMax {
		n = barMax
	}
	return strings.Repeat(glyph, n)
}

type printer struct {
	w   io.Writer
	err error
}

func (p *printer) line(format string, args ...interface{}) {
	if p.err != nil {
		return
	}
	_, p.err = fmt.Fprintf(p.w, format+"\n", args...)
}

func sortedThemes(m map[models.ThemeTag]models.ThemeStats) []models.ThemeTag {
	out := make([]models.ThemeTag, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

func sortedKeys(m map[string]float64) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

func sortedSources(in []models.SourceResult) []models.SourceResult {
	out := append([]models.SourceResult(nil), in...)
	sort.Slice(out, func(i, j int) bool { return out[i].Source < out[j].Source })
	return out
}

// topMentions returns assets by mention count descending, name ascending on ties.
func topMentions(m map[string]int, n int) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Slice(out, func(i, j int) bool {
		if m[out[i]] != m[out[j]] {
			return m[out[i]] > m[out[j]]
		}
		return out[i] < out[j]
	})
	return head(out, n)
}

func head(s []string, n int) []string {
	if len(s) > n {
		return s[:n]
	}
	return s
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}
