package momentum

import (
	"sort"

	"PumpScan/internal/domain/models"
)

// Aggregator groups tagged events into per-theme clusters.
type Aggregator struct {
	minSize int
}

func NewAggregator(rules Rules) *Aggregator {
	size := rules.MinClusterSize
	if size < 1 {
		size = 1
	}
	return &Aggregator{minSize: size}
}

type clusterAcc struct {
	events    []models.MomentumEvent
	ids       map[string]struct{}
	platforms map[string]struct{}
	total     float64
}

// Aggregate builds clusters with at least the minimum number of distinct events,
// sorted by total momentum descending and then by theme name.
func (a *Aggregator) Aggregate(tagged []models.TaggedEvent) []models.MomentumCluster {
	groups := make(map[models.ThemeTag]*clusterAcc)
	for _, te := range tagged {
		for _, tag := range te.Tags {
			g, ok := groups[tag]
			if !ok {
				g = &clusterAcc{ids: map[string]struct{}{}, platforms: map[string]struct{}{}}
				groups[tag] = g
			}
			if _, dup := g.ids[te.Event.ID]; dup {
				continue
			}
			g.ids[te.Event.ID] = struct{}{}
			g.platforms[te.Event.Platform] = struct{}{}
			g.events = append(g.events, te.Event)
			g.total += te.Event.MomentumScore
		}
	}

	clusters := make([]models.MomentumCluster, 0, len(groups))
	for theme, g := range groups {
		if len(g.events) < a.minSize {
			continue
		}
		platforms := make([]string, 0, len(g.platforms))
		for p := range g.platforms {
			platforms = append(platforms, p)
		}
		sort.Strings(platforms)
		clusters = append(clusters, models.MomentumCluster{
			Theme:             theme,
			Events:            g.events,
			TotalMomentum:     g.total,
			PlatformDiversity: len(platforms),
			Platforms:         platforms,
		})
	}

	sort.Slice(clusters, func(i, j int) bool {
		if clusters[i].TotalMomentum != clusters[j].TotalMomentum {
			return clusters[i].TotalMomentum > clusters[j].TotalMomentum
		}
		return clusters[i].Theme < clusters[j].Theme
	})
	return clusters
}
