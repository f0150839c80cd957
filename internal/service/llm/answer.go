package llm

import (
	"bytes"
	"encoding/json"
	"math"
	"strconv"
	"strings"

	"PumpScan/internal/domain/models"
)

// number accepts 85, 85.5, "85" and "85%". Anything else, NaN and infinities
// included, decodes to 0.
type number float64

func finite(v float64) number {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return number(v)
}

func (n *number) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || string(b) == "null" {
		*n = 0
		return nil
	}
	if b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		s = strings.TrimSuffix(strings.TrimSpace(s), "%")
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			*n = 0
			return nil
		}
		*n = finite(v)
		return nil
	}
	var v float64
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	*n = finite(v)
	return nil
}

type clusterAnswer struct {
	PumpProbability   number            `json:"pump_probability"`
	PumpType          string            `json:"pump_type"`
	CoordinationScore number            `json:"coordination_score"`
	UrgencyIndicators []string          `json:"urgency_indicators"`
	RedFlags          []string          `json:"red_flags"`
	TimeSensitivity   string            `json:"time_sensitivity"`
	RecommendedAction string            `json:"recommended_action"`
	DetectedAssets    []string          `json:"detected_assets"`
	AssetMentions     map[string]number `json:"asset_mentions"`
	AnalysisSummary   string            `json:"analysis_summary"`
}

func (a clusterAnswer) model() *models.ClusterAnalysis {
	out := &models.ClusterAnalysis{
		PumpProbability:   clamp(float64(a.PumpProbability), 0, 100),
		PumpType:          a.PumpType,
		CoordinationScore: clamp(float64(a.CoordinationScore), 0, 10),
		UrgencyIndicators: a.UrgencyIndicators,
		RedFlags:          a.RedFlags,
		TimeSensitivity:   a.TimeSensitivity,
		RecommendedAction: a.RecommendedAction,
		DetectedAssets:    a.DetectedAssets,
		AnalysisSummary:   a.AnalysisSummary,
	}
	if len(a.AssetMentions) > 0 {
		out.AssetMentions = make(map[string]int, len(a.AssetMentions))
		for k, v := range a.AssetMentions {
			out.AssetMentions[k] = int(v)
		}
	}
	return out
}

type platformAnswer struct {
	CoordinationLevel    number   `json:"coordination_level"`
	OriginationPlatform  string   `json:"origination_platform"`
	SpreadPattern        string   `json:"spread_pattern"`
	ArtificialIndicators []string `json:"artificial_indicators"`
	RiskAssessment       string   `json:"risk_assessment"`
	Confidence           number   `json:"confidence"`
}

func (a platformAnswer) model() *models.PlatformAnalysis {
	return &models.PlatformAnalysis{
		CoordinationLevel:    clamp(float64(a.CoordinationLevel), 0, 10),
		OriginationPlatform:  a.OriginationPlatform,
		SpreadPattern:        a.SpreadPattern,
		ArtificialIndicators: a.ArtificialIndicators,
		RiskAssessment:       a.RiskAssessment,
		Confidence:           clamp(float64(a.Confidence), 0, 100),
	}
}

func clamp(v, lo, hi float64) float64 {
	if math.IsNaN(v) || v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
