package momentum

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"PumpScan/internal/domain/models"
)

func scanBatches() []models.SourceBatch {
	burstStart := time.Date(2025, 3, 14, 14, 0, 0, 0, time.UTC)
	msgs := chatMessages("GME", burstStart, 12)
	for i := range msgs {
		msgs[i].Body = "GME squeeze"
	}

	hot := postBatch(
		models.Post{ID: "p1", Title: "GME short squeeze", SelfText: "to the moon", Score: 400, NumComments: 50, CreatedAt: testNow.Add(-2 * time.Hour)},
		models.Post{ID: "p2", Title: "Merger rumor", SelfText: "buyout soon", Score: 300, CreatedAt: testNow.Add(-time.Hour)},
		models.Post{ID: "p3", Title: "boring", Score: 2, CreatedAt: testNow.Add(-5 * time.Hour)},
	)
	rising := postBatch(
		models.Post{ID: "p1", Title: "GME short squeeze", SelfText: "to the moon", Score: 400, NumComments: 50, CreatedAt: testNow.Add(-2 * time.Hour)},
	)
	return []models.SourceBatch{
		hot,
		rising,
		{Source: "stocktwits", Platform: "stocktwits", Shape: models.SourceChatBurst, Messages: msgs},
		{Source: "/biz/", Platform: "4chan", Shape: models.SourceForumThread, Threads: []models.Thread{
			{ID: "t1", Subject: "GME gamma squeeze", Comment: "pump it", Replies: 150},
			{ID: "t2", Subject: "acquisition of XYZ", Replies: 75},
		}},
	}
}

func TestPipelineRun(t *testing.T) {
	p := NewPipeline(DefaultRules(), WithClock(fixedClock))
	res := p.Run(scanBatches())

	// p1 appears in two batches and counts once
	require.Len(t, res.Events, 5)
	assert.Equal(t, 5, res.Summary.MomentumEvents)
	assert.Equal(t, 1, res.Stats.Filtered)

	require.NotEmpty(t, res.Clusters)
	top := res.Clusters[0]
	assert.Equal(t, ThemeSqueezePlay, top.Theme)
	assert.Equal(t, 3, top.PlatformDiversity)
	assert.InDelta(t, 13.4, top.TotalMomentum, 1e-9)
	assert.Equal(t, 1, res.Summary.RiskIndicators.HighRiskPatternCount)
	assert.Equal(t, 2, res.Summary.RiskIndicators.VolumeSpikeCount)
	assert.Equal(t, ThemeSqueezePlay, res.Summary.TopTheme)
	assert.InDelta(t, 0.35, res.Summary.RiskIndicators.NewAccountRatioEstimate, 1e-9)

	for i := 1; i < len(res.Clusters); i++ {
		assert.GreaterOrEqual(t, res.Clusters[i-1].TotalMomentum, res.Clusters[i].TotalMomentum)
	}
	for _, c := range res.Clusters {
		assert.GreaterOrEqual(t, c.Size(), 2)
		assert.LessOrEqual(t, c.PlatformDiversity, c.Size())
	}
	for _, e := range res.Events {
		assert.GreaterOrEqual(t, e.MomentumScore, 0.0)
		assert.NotEmpty(t, e.Text)
	}
}

func TestPipelineIdempotent(t *testing.T) {
	p := NewPipeline(DefaultRules(), WithClock(fixedClock))

	first, err := json.Marshal(p.Run(scanBatches()).Summary)
	require.NoError(t, err)
	second, err := json.Marshal(p.Run(scanBatches()).Summary)
	require.NoError(t, err)
	assert.Equal(t, string(first), string(second))
}

func TestPipelineMissingTimestampIsDeterministic(t *testing.T) {
	batch := postBatch(models.Post{ID: "x", Title: "pump", Score: 1800})

	a := NewPipeline(DefaultRules(), WithClock(fixedClock)).Run([]models.SourceBatch{batch})
	b := NewPipeline(DefaultRules(), WithClock(func() time.Time { return testNow.Add(72 * time.Hour) })).Run([]models.SourceBatch{batch})

	require.Len(t, a.Events, 1)
	assert.InDelta(t, 1.5, a.Events[0].MomentumScore, 1e-9)
	assert.Equal(t, a.Events[0].MomentumScore, b.Events[0].MomentumScore)
}

func TestPipelineEmpty(t *testing.T) {
	res := NewPipeline(DefaultRules()).Run(nil)
	assert.Empty(t, res.Events)
	assert.Empty(t, res.Clusters)
	assert.Equal(t, models.RiskNormal, res.Summary.Recommendation.Level)
}
