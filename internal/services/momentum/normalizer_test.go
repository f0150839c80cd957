package momentum

import (
	"fmt"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"PumpScan/internal/domain/models"
)

var testNow = time.Date(2025, 3, 14, 15, 0, 0, 0, time.UTC)

func fixedClock() time.Time { return testNow }

func postBatch(posts ...models.Post) models.SourceBatch {
	return models.SourceBatch{Source: "r/pennystocks", Platform: "reddit", Shape: models.SourcePostSurge, Posts: posts}
}

func TestPostMomentum(t *testing.T) {
	n := NewNormalizer(DefaultRules(), WithClock(fixedClock))

	tests := []struct {
		name string
		post models.Post
		want float64
	}{
		{"one hour old", models.Post{Score: 100, NumComments: 25, CreatedAt: testNow.Add(-time.Hour)}, 3.0},
		{"ten hours old", models.Post{Score: 5, CreatedAt: testNow.Add(-10 * time.Hour)}, 0.01},
		{"fresh post clamps age", models.Post{Score: 50, CreatedAt: testNow.Add(-time.Minute)}, 2.0},
		{"future timestamp clamps age", models.Post{Score: 50, CreatedAt: testNow.Add(time.Hour)}, 2.0},
		{"missing timestamp uses a day", models.Post{Score: 1200}, 1.0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, n.PostMomentum(tt.post), 1e-9)
		})
	}
}

func TestNormalizePosts(t *testing.T) {
	n := NewNormalizer(DefaultRules(), WithClock(fixedClock))

	events, stats := n.Normalize(postBatch(
		models.Post{ID: "a", Title: "GME", SelfText: "squeeze incoming", Score: 100, NumComments: 25, CreatedAt: testNow.Add(-time.Hour)},
		models.Post{ID: "b", Title: "quiet", Score: 5, CreatedAt: testNow.Add(-10 * time.Hour)},
		models.Post{ID: "", Title: "no id", Score: 1000},
		models.Post{ID: "c", Score: 1000},
		models.Post{ID: "d", Title: "bad counts", Score: 1000, NumComments: -1},
	))

	require.Len(t, events, 1)
	e := events[0]
	assert.Equal(t, "reddit:a", e.ID)
	assert.Equal(t, models.SourcePostSurge, e.SourceType)
	assert.Equal(t, "reddit", e.Platform)
	assert.Equal(t, "r/pennystocks", e.Source)
	assert.Equal(t, "GME squeeze incoming", e.Text)
	assert.InDelta(t, 3.0, e.MomentumScore, 1e-9)
	require.NotNil(t, e.Raw.Post)
	assert.Equal(t, "a", e.Raw.Post.ID)

	assert.Equal(t, NormalizeStats{Records: 5, Events: 1, Malformed: 3, Filtered: 1}, stats)
}

func TestNormalizePostFloorIsExclusive(t *testing.T) {
	n := NewNormalizer(DefaultRules(), WithClock(fixedClock))
	// 25 / 1h / 50 == 0.5 exactly
	events, stats := n.Normalize(postBatch(models.Post{ID: "x", Title: "t", Score: 25, CreatedAt: testNow.Add(-time.Hour)}))
	assert.Empty(t, events)
	assert.Equal(t, 1, stats.Filtered)
}

func chatMessages(channel string, start time.Time, count int) []models.ChatMessage {
	msgs := make([]models.ChatMessage, count)
	for i := range msgs {
		msgs[i] = models.ChatMessage{
			ID:        fmt.Sprintf("%s-%d", channel, i),
			Body:      fmt.Sprintf("msg %d", i),
			Channel:   channel,
			CreatedAt: start.Add(time.Duration(i) * time.Minute),
		}
	}
	return msgs
}

func TestNormalizeChatBursts(t *testing.T) {
	n := NewNormalizer(DefaultRules(), WithClock(fixedClock))
	start := time.Date(2025, 3, 14, 14, 0, 0, 0, time.UTC)

	msgs := chatMessages("GME", start, 11)
	msgs = append(msgs, chatMessages("AMC", start, 10)...)
	msgs = append(msgs, models.ChatMessage{ID: "nots", Body: "no time", Channel: "GME"})

	events, stats := n.Normalize(models.SourceBatch{
		Source: "stocktwits", Platform: "stocktwits", Shape: models.SourceChatBurst, Messages: msgs,
	})

	require.Len(t, events, 1)
	e := events[0]
	assert.Equal(t, models.SourceChatBurst, e.SourceType)
	assert.InDelta(t, 2.2, e.MomentumScore, 1e-9)
	assert.Equal(t, start, e.CreatedAt)
	assert.Len(t, e.Raw.Messages, 11)
	assert.Equal(t, fmt.Sprintf("stocktwits:GME:%d", start.Unix()), e.ID)
	assert.Contains(t, e.Text, "msg 0 msg 1")

	assert.Equal(t, 22, stats.Records)
	assert.Equal(t, 1, stats.Malformed)
	assert.Equal(t, 10, stats.Filtered)
}

func TestNormalizeChatBucketsSplitOnWindow(t *testing.T) {
	n := NewNormalizer(DefaultRules(), WithClock(fixedClock))
	// 20 messages one minute apart starting at :20 straddle the :30 boundary: 10 + 10.
	start := time.Date(2025, 3, 14, 14, 20, 0, 0, time.UTC)
	events, _ := n.Normalize(models.SourceBatch{
		Platform: "stocktwits", Shape: models.SourceChatBurst, Messages: chatMessages("TSLA", start, 20),
	})
	assert.Empty(t, events)
}

func TestNormalizeThreads(t *testing.T) {
	n := NewNormalizer(DefaultRules(), WithClock(fixedClock))

	events, stats := n.Normalize(models.SourceBatch{
		Source: "/biz/", Platform: "4chan", Shape: models.SourceForumThread,
		Threads: []models.Thread{
			{ID: "1", Subject: "LINK", Comment: "to the moon", Replies: 100},
			{ID: "2", Subject: "exactly fifty", Replies: 50},
			{ID: "3", Replies: 300},
			{ID: "4", Subject: "neg", Replies: -2},
		},
	})

	require.Len(t, events, 1)
	assert.Equal(t, "4chan:1", events[0].ID)
	assert.Equal(t, "LINK to the moon", events[0].Text)
	assert.InDelta(t, 4.0, events[0].MomentumScore, 1e-9)
	assert.Equal(t, NormalizeStats{Records: 4, Events: 1, Malformed: 2, Filtered: 1}, stats)
}

func TestNormalizeZeroBaselines(t *testing.T) {
	rules := DefaultRules()
	rules.PostBaseline = 0
	rules.BurstBaseline = 0
	rules.ThreadBaseline = -1
	n := NewNormalizer(rules, WithClock(fixedClock))

	assert.Zero(t, n.PostMomentum(models.Post{ID: "p", Title: "x", Score: 5000, CreatedAt: testNow.Add(-time.Hour)}))

	start := time.Date(2025, 3, 14, 14, 0, 0, 0, time.UTC)
	bursts, _ := n.Normalize(models.SourceBatch{
		Platform: "stocktwits", Shape: models.SourceChatBurst, Messages: chatMessages("GME", start, 12),
	})
	threads, _ := n.Normalize(models.SourceBatch{
		Platform: "4chan", Shape: models.SourceForumThread,
		Threads: []models.Thread{{ID: "1", Subject: "LINK", Replies: 120}},
	})

	for _, e := range append(bursts, threads...) {
		assert.False(t, math.IsInf(e.MomentumScore, 0), e.ID)
		assert.Zero(t, e.MomentumScore, e.ID)
	}
	assert.Len(t, bursts, 1)
	assert.Len(t, threads, 1)
}

func TestNormalizeUnknownShape(t *testing.T) {
	n := NewNormalizer(DefaultRules())
	events, stats := n.Normalize(models.SourceBatch{Platform: "x"})
	assert.Empty(t, events)
	assert.Zero(t, stats.Events)
}

func TestNormalizeDoesNotMutateInput(t *testing.T) {
	n := NewNormalizer(DefaultRules(), WithClock(fixedClock))
	start := time.Date(2025, 3, 14, 14, 0, 0, 0, time.UTC)
	msgs := chatMessages("GME", start, 12)
	// reverse so the normalizer has to reorder
	for i, j := 0, len(msgs)-1; i < j; i, j = i+1, j-1 {
		msgs[i], msgs[j] = msgs[j], msgs[i]
	}
	first := msgs[0].ID

	events, _ := n.Normalize(models.SourceBatch{Platform: "stocktwits", Shape: models.SourceChatBurst, Messages: msgs})
	require.Len(t, events, 1)
	assert.Equal(t, first, msgs[0].ID)
	assert.Equal(t, "GME-0", events[0].Raw.Messages[0].ID)
}
