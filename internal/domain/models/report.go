package models

import "time"

// ScanReport is everything one scan produced. It is what gets cached, published and rendered.
type ScanReport struct {
	ScanID    string          `json:"scan_id"`
	Timestamp time.Time       `json:"timestamp"`
	ScanTime  time.Duration   `json:"scan_time_ns"`
	Trigger   string          `json:"trigger"`
	Summary   RiskSummary     `json:"summary"`
	Clusters  []ClusterDigest `json:"clusters"`
	Sources   []SourceResult  `json:"sources"`
	AI        *AIAnalysis     `json:"ai_analysis,omitempty"`
}

// ClusterDigest is a cluster without its member payloads, as kept in reports.
type ClusterDigest struct {
	Theme             ThemeTag `json:"theme"`
	Events            int      `json:"events"`
	TotalMomentum     float64  `json:"total_momentum"`
	PlatformDiversity int      `json:"platform_diversity"`
	Platforms         []string `json:"platforms"`
	SampleTexts       []string `json:"sample_texts,omitempty"`
}

// Digest summarizes a cluster keeping up to samples text previews.
func (c MomentumCluster) Digest(samples, previewLen int) ClusterDigest {
	d := ClusterDigest{
		Theme:             c.Theme,
		Events:            len(c.Events),
		TotalMomentum:     c.TotalMomentum,
		PlatformDiversity: c.PlatformDiversity,
		Platforms:         c.Platforms,
	}
	for i := 0; i < len(c.Events) && i < samples; i++ {
		d.SampleTexts = append(d.SampleTexts, c.Events[i].Preview(previewLen))
	}
	return d
}

// Alert is raised when a report crosses a risk threshold.
type Alert struct {
	ID         string         `json:"id"`
	ScanID     string         `json:"scan_id"`
	Type       string         `json:"type"`
	Severity   string         `json:"severity"`
	Theme      ThemeTag       `json:"theme,omitempty"`
	Message    string         `json:"message"`
	Indicators RiskIndicators `json:"indicators"`
	Status     string         `json:"status"`
	CreatedAt  time.Time      `json:"created_at"`
}

// SummaryRecord is one persisted row of scan history.
type SummaryRecord struct {
	ScanID         string    `json:"scan_id"`
	Timestamp      time.Time `json:"timestamp"`
	Events         int       `json:"events"`
	Clusters       int       `json:"clusters"`
	TopTheme       string    `json:"top_theme"`
	HighRisk       int       `json:"high_risk_patterns"`
	VolumeSpikes   int       `json:"volume_spikes"`
	Recommendation RiskLevel `json:"recommendation"`
	AIRiskLevel    string    `json:"ai_risk_level,omitempty"`
}
