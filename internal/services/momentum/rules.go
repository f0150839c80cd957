package momentum

import (
	"time"

	"PumpScan/internal/domain/models"
)

// KeywordRule assigns Tag when any keyword occurs in the lower-cased event text.
type KeywordRule struct {
	Tag      models.ThemeTag `yaml:"tag"`
	Keywords []string        `yaml:"keywords"`
}

// Rules holds every keyword table and threshold the pipeline uses.
// Zero values are not meaningful; start from DefaultRules and override fields.
type Rules struct {
	Themes  []KeywordRule
	Sectors []KeywordRule

	// post_surge: (score + weight*comments) / max(age, minAge) / baseline
	PostBaseline        float64
	PostCommentWeight   float64
	PostMinAgeHours     float64
	PostDefaultAgeHours float64
	PostMomentumFloor   float64 // kept only when strictly above

	// chat_burst: count / baseline for buckets strictly larger than BurstMinMessages
	BurstWindow      time.Duration
	BurstMinMessages int
	BurstBaseline    float64

	// forum_thread: replies / baseline for threads strictly above ThreadMinReplies
	ThreadMinReplies int
	ThreadBaseline   float64

	MinClusterSize int

	CoordinationSpan    int     // cluster platforms strictly above this count as coordinated
	VolumeSpikeMomentum float64 // event momentum strictly above this is a spike
	HighRiskPatterns    int     // more than this many coordinated clusters -> high risk
	ElevatedClusters    int     // more than this many clusters -> elevated
	NewAccountRatio     float64
	NewAccountThemes    []string // substrings of a cluster theme that trigger NewAccountRatio
	PeakTimeLabel       string
}

const (
	ThemeSqueezePlay     models.ThemeTag = "squeeze_play"
	ThemePumpHype        models.ThemeTag = "pump_hype"
	ThemeMARumor         models.ThemeTag = "ma_rumor"
	ThemeEarningsPlay    models.ThemeTag = "earnings_play"
	ThemeBiotechCatalyst models.ThemeTag = "biotech_catalyst"
	ThemeCryptoMomentum  models.ThemeTag = "crypto_momentum"

	SectorTech    models.ThemeTag = "sector_tech"
	SectorBiotech models.ThemeTag = "sector_biotech"
	SectorEnergy  models.ThemeTag = "sector_energy"
	SectorFinance models.ThemeTag = "sector_finance"
	SectorRetail  models.ThemeTag = "sector_retail"
	SectorCrypto  models.ThemeTag = "sector_crypto"
)

const (
	MessageHighRisk = "HIGH PUMP RISK - Multiple coordinated patterns detected"
	MessageElevated = "ELEVATED ACTIVITY - Monitor these themes closely"
	MessageNormal   = "NORMAL MARKET CHATTER - No significant pump patterns"
)

// DefaultRules returns the stock vocabulary and thresholds.
func DefaultRules() Rules {
	return Rules{
		Themes: []KeywordRule{
			{Tag: ThemeSqueezePlay, Keywords: []string{"squeeze", "short", "gamma"}},
			{Tag: ThemePumpHype, Keywords: []string{"pump", "moon", "rocket"}},
			{Tag: ThemeMARumor, Keywords: []string{"merger", "acquisition", "buyout"}},
			{Tag: ThemeEarningsPlay, Keywords: []string{"earnings", "revenue", "beat"}},
			{Tag: ThemeBiotechCatalyst, Keywords: []string{"fda", "approval", "clinical"}},
			{Tag: ThemeCryptoMomentum, Keywords: []string{"crypto", "bitcoin", "defi"}},
		},
		Sectors: []KeywordRule{
			{Tag: SectorTech, Keywords: []string{"tech", "software", "saas", "cloud", "ai"}},
			{Tag: SectorBiotech, Keywords: []string{"biotech", "pharma", "drug", "clinical"}},
			{Tag: SectorEnergy, Keywords: []string{"oil", "energy", "solar", "renewable"}},
			{Tag: SectorFinance, Keywords: []string{"bank", "financial", "fintech", "payment"}},
			{Tag: SectorRetail, Keywords: []string{"retail", "consumer", "store", "ecommerce"}},
			{Tag: SectorCrypto, Keywords: []string{"crypto", "bitcoin", "ethereum", "defi"}},
		},

		PostBaseline:        50.0,
		PostCommentWeight:   2.0,
		PostMinAgeHours:     0.5,
		PostDefaultAgeHours: 24.0,
		PostMomentumFloor:   0.5,

		BurstWindow:      30 * time.Minute,
		BurstMinMessages: 10,
		BurstBaseline:    5.0,

		ThreadMinReplies: 50,
		ThreadBaseline:   25.0,

		MinClusterSize: 2,

		CoordinationSpan:    2,
		VolumeSpikeMomentum: 5.0,
		HighRiskPatterns:    3,
		ElevatedClusters:    5,
		NewAccountRatio:     0.35,
		NewAccountThemes:    []string{"squeeze", "pump"},
		PeakTimeLabel:       "Last 2-4 hours",
	}
}
