package llm

import (
	"fmt"
	"sort"
	"strings"

	"PumpScan/internal/domain/models"
)

const (
	promptSamples = 5
	previewRunes  = 100
)

// ClusterPrompt describes one cluster and its first sample events.
func ClusterPrompt(c models.MomentumCluster) string {
	var b strings.Builder
	b.WriteString("You are an expert at detecting cryptocurrency and stock pump and dump schemes.\n")
	b.WriteString("Analyze this momentum cluster for pump indicators.\n\n")
	b.WriteString("MOMENTUM CLUSTER DATA:\n")
	fmt.Fprintf(&b, "- Theme: %s\n", c.Theme)
	fmt.Fprintf(&b, "- Total Events: %d\n", c.Size())
	fmt.Fprintf(&b, "- Platforms Involved: %d\n", c.PlatformDiversity)
	fmt.Fprintf(&b, "- Total Momentum Score: %.1f\n\n", c.TotalMomentum)
	b.WriteString("Sample Events:\n")

	for i, e := range c.Events {
		if i == promptSamples {
			break
		}
		fmt.Fprintf(&b, "\nEvent %d:\n", i+1)
		fmt.Fprintf(&b, "- Platform: %s\n", e.Platform)
		fmt.Fprintf(&b, "- Momentum Score: %.1f\n", e.MomentumScore)
		fmt.Fprintf(&b, "- Type: %s\n", e.SourceType)
		fmt.Fprintf(&b, "- Preview: %s\n", e.Preview(previewRunes))
	}

	b.WriteString(`
Extract every company, cryptocurrency or other tradeable asset named in the content,
using names rather than ticker symbols, and count how often each is mentioned.

Assess coordination across platforms, urgency language ("NOW", "MOON", "DON'T MISS"),
promises of unrealistic returns, bot-like or copy-paste posting, and the likely pump type.

Respond with JSON only:
{
    "pump_probability": <0-100>,
    "pump_type": "crypto_pump|penny_stock|squeeze_play|earnings_pump|other",
    "coordination_score": <0-10>,
    "urgency_indicators": ["..."],
    "red_flags": ["..."],
    "time_sensitivity": "immediate|hours|days",
    "recommended_action": "high_alert|monitor|normal",
    "detected_assets": ["asset names"],
    "asset_mentions": {"asset name": <count>},
    "analysis_summary": "short explanation naming the assets being pushed"
}
`)
	return b.String()
}

// PlatformPrompt lists platform momentum totals in name order.
func PlatformPrompt(momentum map[string]float64) string {
	names := make([]string, 0, len(momentum))
	for p := range momentum {
		names = append(names, p)
	}
	sort.Strings(names)

	var b strings.Builder
	b.WriteString("Analyze these platform activity patterns for pump and dump indicators.\n\n")
	b.WriteString("PLATFORM MOMENTUM DATA:\n")
	for _, p := range names {
		fmt.Fprintf(&b, "- %s: %.1f momentum score\n", p, momentum[p])
	}
	b.WriteString(`
Assess which platforms show simultaneous activity, where the activity originated,
whether it looks organic or coordinated, and how likely bot activity is.

Respond with JSON only:
{
    "coordination_level": <0-10>,
    "origination_platform": "platform_name",
    "spread_pattern": "organic|coordinated|bot_driven",
    "artificial_indicators": ["..."],
    "risk_assessment": "low|medium|high|extreme",
    "confidence": <0-100>
}
`)
	return b.String()
}
