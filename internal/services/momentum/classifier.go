package momentum

import (
	"strings"

	"PumpScan/internal/domain/models"
)

// Classifier tags text using the theme and sector keyword tables.
type Classifier struct {
	rules []KeywordRule
}

func NewClassifier(rules Rules) *Classifier {
	tables := make([]KeywordRule, 0, len(rules.Themes)+len(rules.Sectors))
	for _, src := range [][]KeywordRule{rules.Themes, rules.Sectors} {
		for _, r := range src {
			kw := make([]string, 0, len(r.Keywords))
			for _, k := range r.Keywords {
				if k = strings.ToLower(strings.TrimSpace(k)); k != "" {
					kw = append(kw, k)
				}
			}
			tables = append(tables, KeywordRule{Tag: r.Tag, Keywords: kw})
		}
	}
	return &Classifier{rules: tables}
}

// Classify returns the matching tags in table order, themes before sectors.
// Matching is by substring, so "ai" also fires on "said".
func (c *Classifier) Classify(text string) []models.ThemeTag {
	lower := strings.ToLower(text)
	var tags []models.ThemeTag
	seen := make(map[models.ThemeTag]struct{})
	for _, r := range c.rules {
		if _, ok := seen[r.Tag]; ok {
			continue
		}
		for _, k := range r.Keywords {
			if strings.Contains(lower, k) {
				tags = append(tags, r.Tag)
				seen[r.Tag] = struct{}{}
				break
			}
		}
	}
	return tags
}

// Tag classifies every event. Events with no tags are kept with an empty tag list.
func (c *Classifier) Tag(events []models.MomentumEvent) []models.TaggedEvent {
	out := make([]models.TaggedEvent, 0, len(events))
	for _, e := range events {
		out = append(out, models.TaggedEvent{Event: e, Tags: c.Classify(e.Text)})
	}
	return out
}
