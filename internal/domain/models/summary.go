package models

// ThemeStats aggregates cluster sizes and momentum for one theme.
type ThemeStats struct {
	Count         int     `json:"count"`
	TotalMomentum float64 `json:"total_momentum"`
}

// RiskIndicators are the coordination and volume heuristics of a scan.
type RiskIndicators struct {
	HighRiskPatternCount    int     `json:"high_risk_patterns"`
	CoordinatedPlatformMax  int     `json:"coordinated_platforms"`
	VolumeSpikeCount        int     `json:"volume_spikes"`
	NewAccountRatioEstimate float64 `json:"new_account_ratio"`
}

type RiskLevel string

const (
	RiskHigh     RiskLevel = "high_risk"
	RiskElevated RiskLevel = "elevated"
	RiskNormal   RiskLevel = "normal"
)

// Recommendation is the operator-facing verdict derived from the indicators.
type Recommendation struct {
	Level   RiskLevel `json:"level"`
	Message string    `json:"message"`
}

// RiskSummary is the final aggregate of one scan.
type RiskSummary struct {
	MomentumEvents   int                     `json:"momentum_events"`
	ClustersFound    int                     `json:"clusters_found"`
	ThemeBreakdown   map[ThemeTag]ThemeStats `json:"theme_breakdown"`
	PlatformMomentum map[string]float64      `json:"platform_momentum"`
	RiskIndicators   RiskIndicators          `json:"risk_indicators"`
	TopTheme         ThemeTag                `json:"top_theme,omitempty"`
	TopThemeLabel    string                  `json:"top_theme_label"`
	PeakTime         string                  `json:"peak_time"`
	Recommendation   Recommendation          `json:"recommendation"`
}
