package models

// ThemeTag labels a topical pattern (squeeze_play, pump_hype, sector_tech, ...).
type ThemeTag string

// MomentumCluster groups events sharing one theme.
type MomentumCluster struct {
	Theme             ThemeTag        `json:"theme"`
	Events            []MomentumEvent `json:"events"`
	TotalMomentum     float64         `json:"total_momentum"`
	PlatformDiversity int             `json:"platform_diversity"`
	Platforms         []string        `json:"platforms"`
}

// Size returns the number of member events.
func (c MomentumCluster) Size() int { return len(c.Events) }
