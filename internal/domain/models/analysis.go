package models

// ClusterAnalysis is the model's assessment of one momentum cluster.
type ClusterAnalysis struct {
	PumpProbability   float64        `json:"pump_probability"`
	PumpType          string         `json:"pump_type"`
	CoordinationScore float64        `json:"coordination_score"`
	UrgencyIndicators []string       `json:"urgency_indicators"`
	RedFlags          []string       `json:"red_flags"`
	TimeSensitivity   string         `json:"time_sensitivity"`
	RecommendedAction string         `json:"recommended_action"`
	DetectedAssets    []string       `json:"detected_assets"`
	AssetMentions     map[string]int `json:"asset_mentions"`
	AnalysisSummary   string         `json:"analysis_summary"`
}

// ThemeAnalysis pairs a cluster theme with its analysis or the reason it failed.
type ThemeAnalysis struct {
	Theme    ThemeTag         `json:"theme"`
	Analysis *ClusterAnalysis `json:"analysis,omitempty"`
	Error    string           `json:"error,omitempty"`
}

// PlatformAnalysis is the model's view of cross-platform spread.
type PlatformAnalysis struct {
	CoordinationLevel    float64  `json:"coordination_level"`
	OriginationPlatform  string   `json:"origination_platform"`
	SpreadPattern        string   `json:"spread_pattern"`
	ArtificialIndicators []string `json:"artificial_indicators"`
	RiskAssessment       string   `json:"risk_assessment"`
	Confidence           float64  `json:"confidence"`
}

type AIRiskLevel string

const (
	AIRiskHigh   AIRiskLevel = "HIGH"
	AIRiskMedium AIRiskLevel = "MEDIUM"
	AIRiskLow    AIRiskLevel = "LOW"
)

// OverallAssessment rolls cluster analyses into one level.
type OverallAssessment struct {
	HighestPumpProbability float64     `json:"highest_pump_probability"`
	ThemesAnalyzed         int         `json:"themes_analyzed"`
	RiskLevel              AIRiskLevel `json:"risk_level"`
}

// AIAnalysis is the optional model section of a report.
type AIAnalysis struct {
	ClusterAnalyses  []ThemeAnalysis    `json:"cluster_analyses"`
	PlatformAnalysis *PlatformAnalysis  `json:"platform_analysis,omitempty"`
	PlatformError    string             `json:"platform_error,omitempty"`
	Overall          *OverallAssessment `json:"overall_assessment,omitempty"`
}
