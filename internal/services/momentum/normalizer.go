package momentum

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"PumpScan/internal/domain/models"
)

// NormalizeStats counts what happened to the raw records of a batch.
type NormalizeStats struct {
	Records   int `json:"records"`
	Events    int `json:"events"`
	Malformed int `json:"malformed"`
	Filtered  int `json:"filtered"` // valid records below the momentum threshold
}

func (s *NormalizeStats) add(o NormalizeStats) {
	s.Records += o.Records
	s.Events += o.Events
	s.Malformed += o.Malformed
	s.Filtered += o.Filtered
}

type NormalizerOption func(*Normalizer)

// WithClock replaces time.Now for post age computation.
func WithClock(now func() time.Time) NormalizerOption {
	return func(n *Normalizer) {
		if now != nil {
			n.now = now
		}
	}
}

// Normalizer turns platform batches into scored MomentumEvents.
type Normalizer struct {
	rules Rules
	now   func() time.Time
}

func NewNormalizer(rules Rules, opts ...NormalizerOption) *Normalizer {
	n := &Normalizer{rules: rules, now: time.Now}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

// Normalize converts one batch. Records that are malformed or below threshold are
// skipped individually and counted in the returned stats.
func (n *Normalizer) Normalize(batch models.SourceBatch) ([]models.MomentumEvent, NormalizeStats) {
	switch batch.Shape {
	case models.SourcePostSurge:
		return n.posts(batch)
	case models.SourceChatBurst:
		return n.bursts(batch)
	case models.SourceForumThread:
		return n.threads(batch)
	}
	return nil, NormalizeStats{Records: batch.Len()}
}

// PostMomentum is the engagement rate of a post relative to the baseline.
func (n *Normalizer) PostMomentum(p models.Post) float64 {
	age := n.rules.PostDefaultAgeHours
	if !p.CreatedAt.IsZero() {
		age = n.now().Sub(p.CreatedAt).Hours()
	}
	if age < n.rules.PostMinAgeHours {
		age = n.rules.PostMinAgeHours
	}
	if age <= 0 {
		return 0
	}
	engagement := float64(p.Score) + n.rules.PostCommentWeight*float64(p.NumComments)
	return perBaseline(engagement/age, n.rules.PostBaseline)
}

// perBaseline scores v against a baseline; a non-positive baseline scores 0.
func perBaseline(v, baseline float64) float64 {
	if baseline <= 0 {
		return 0
	}
	return v / baseline
}

func (n *Normalizer) posts(batch models.SourceBatch) ([]models.MomentumEvent, NormalizeStats) {
	stats := NormalizeStats{Records: len(batch.Posts)}
	var out []models.MomentumEvent
	for i := range batch.Posts {
		p := batch.Posts[i]
		if p.ID == "" || p.NumComments < 0 || (strings.TrimSpace(p.Title) == "" && strings.TrimSpace(p.SelfText) == "") {
			stats.Malformed++
			continue
		}
		score := n.PostMomentum(p)
		if !(score > n.rules.PostMomentumFloor) {
			stats.Filtered++
			continue
		}
		out = append(out, models.MomentumEvent{
			ID:            eventID(batch.Platform, p.ID),
			SourceType:    models.SourcePostSurge,
			Platform:      batch.Platform,
			Source:        batch.Source,
			Raw:           models.RawContent{Post: &p},
			Text:          p.Title + " " + p.SelfText,
			MomentumScore: score,
			CreatedAt:     p.CreatedAt,
		})
	}
	stats.Events = len(out)
	return out, stats
}

type burstKey struct {
	channel string
	start   time.Time
}

func (n *Normalizer) bursts(batch models.SourceBatch) ([]models.MomentumEvent, NormalizeStats) {
	stats := NormalizeStats{Records: len(batch.Messages)}
	window := n.rules.BurstWindow
	if window <= 0 {
		window = 30 * time.Minute
	}

	buckets := make(map[burstKey][]models.ChatMessage)
	seen := make(map[string]struct{}, len(batch.Messages))
	for _, m := range batch.Messages {
		if m.ID == "" || m.CreatedAt.IsZero() || strings.TrimSpace(m.Body) == "" {
			stats.Malformed++
			continue
		}
		if _, dup := seen[m.Channel+"/"+m.ID]; dup {
			stats.Malformed++
			continue
		}
		seen[m.Channel+"/"+m.ID] = struct{}{}
		k := burstKey{channel: m.Channel, start: m.CreatedAt.UTC().Truncate(window)}
		buckets[k] = append(buckets[k], m)
	}

	keys := make([]burstKey, 0, len(buckets))
	for k := range buckets {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].channel != keys[j].channel {
			return keys[i].channel < keys[j].channel
		}
		return keys[i].start.Before(keys[j].start)
	})

	var out []models.MomentumEvent
	for _, k := range keys {
		msgs := buckets[k]
		if len(msgs) <= n.rules.BurstMinMessages {
			stats.Filtered += len(msgs)
			continue
		}
		sort.SliceStable(msgs, func(i, j int) bool {
			if !msgs[i].CreatedAt.Equal(msgs[j].CreatedAt) {
				return msgs[i].CreatedAt.Before(msgs[j].CreatedAt)
			}
			return msgs[i].ID < msgs[j].ID
		})
		bodies := make([]string, len(msgs))
		for i, m := range msgs {
			bodies[i] = m.Body
		}
		out = append(out, models.MomentumEvent{
			ID:            eventID(batch.Platform, fmt.Sprintf("%s:%d", k.channel, k.start.Unix())),
			SourceType:    models.SourceChatBurst,
			Platform:      batch.Platform,
			Source:        batch.Source,
			Raw:           models.RawContent{Messages: msgs},
			Text:          strings.Join(bodies, " "),
			MomentumScore: perBaseline(float64(len(msgs)), n.rules.BurstBaseline),
			CreatedAt:     k.start,
		})
	}
	stats.Events = len(out)
	return out, stats
}

func (n *Normalizer) threads(batch models.SourceBatch) ([]models.MomentumEvent, NormalizeStats) {
	stats := NormalizeStats{Records: len(batch.Threads)}
	var out []models.MomentumEvent
	for i := range batch.Threads {
		t := batch.Threads[i]
		if t.ID == "" || t.Replies < 0 || (strings.TrimSpace(t.Subject) == "" && strings.TrimSpace(t.Comment) == "") {
			stats.Malformed++
			continue
		}
		if t.Replies <= n.rules.ThreadMinReplies {
			stats.Filtered++
			continue
		}
		out = append(out, models.MomentumEvent{
			ID:            eventID(batch.Platform, t.ID),
			SourceType:    models.SourceForumThread,
			Platform:      batch.Platform,
			Source:        batch.Source,
			Raw:           models.RawContent{Thread: &t},
			Text:          t.Subject + " " + t.Comment,
			MomentumScore: perBaseline(float64(t.Replies), n.rules.ThreadBaseline),
			CreatedAt:     t.CreatedAt,
		})
	}
	stats.Events = len(out)
	return out, stats
}

func eventID(platform, id string) string {
	return platform + ":" + id
}
