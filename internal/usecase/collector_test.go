package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"PumpScan/internal/domain/models"
	domrepo "PumpScan/internal/domain/repository"
	"PumpScan/pkg/metrics"
)

func byName(results []models.SourceResult) map[string]models.SourceResult {
	out := make(map[string]models.SourceResult, len(results))
	for _, r := range results {
		out[r.Source] = r
	}
	return out
}

func TestCollectIsolatesFailures(t *testing.T) {
	fetchers := []domrepo.SourceFetcher{
		threadFetcher("4chan", "4chan", models.Thread{ID: "1", Subject: "x", Replies: 60}),
		&fakeFetcher{name: "reddit", platform: "reddit", err: errors.New("status 429")},
		&fakeFetcher{name: "stocktwits", platform: "stocktwits", block: true},
		&fakeFetcher{name: "bitcointalk", platform: "bitcointalk", panics: true},
		&fakeFetcher{name: "empty", platform: "empty"},
	}
	c := NewCollector(fetchers, 3, 50*time.Millisecond, metrics.Nop{}, nil)

	results := byName(c.Collect(context.Background(), nil))
	require.Len(t, results, 5)

	ok := results["4chan"]
	assert.True(t, ok.OK())
	assert.Equal(t, 1, ok.Records)
	assert.Equal(t, "4chan", ok.Batch.Source)
	assert.Equal(t, "4chan", ok.Batch.Platform)

	assert.Equal(t, models.SourceUnavailable, results["reddit"].Status)
	assert.Equal(t, "status 429", results["reddit"].Reason)
	assert.Contains(t, results["stocktwits"].Reason, "timeout after")
	assert.Contains(t, results["bitcointalk"].Reason, "panic: parser exploded")
	assert.Equal(t, "no data", results["empty"].Reason)

	batches := Batches(c.Collect(context.Background(), nil))
	assert.Len(t, batches, 1)
}

func TestCollectOrdersBySource(t *testing.T) {
	fetchers := []domrepo.SourceFetcher{
		&fakeFetcher{name: "stocktwits", platform: "stocktwits", delay: 40 * time.Millisecond},
		&fakeFetcher{name: "4chan", platform: "4chan", delay: 20 * time.Millisecond},
		&fakeFetcher{name: "reddit", platform: "reddit"},
		&fakeFetcher{name: "bitcointalk", platform: "bitcointalk", delay: 30 * time.Millisecond},
	}
	c := NewCollector(fetchers, 4, time.Second, metrics.Nop{}, nil)

	for i := 0; i < 3; i++ {
		results := c.Collect(context.Background(), nil)
		names := make([]string, len(results))
		for j, r := range results {
			names[j] = r.Source
		}
		assert.Equal(t, []string{"4chan", "bitcointalk", "reddit", "stocktwits"}, names)
	}
}

func TestCollectOnlySelected(t *testing.T) {
	c := NewCollector(squeezeFetchers(), 4, time.Second, metrics.Nop{}, nil)
	assert.Equal(t, []string{"4chan", "bitcointalk", "reddit"}, c.Sources())

	results := c.Collect(context.Background(), []string{"bitcointalk"})
	require.Len(t, results, 1)
	assert.Equal(t, "bitcointalk", results[0].Source)

	assert.Nil(t, c.Collect(context.Background(), []string{"nope"}))
}

func TestCollectCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	fetchers := []domrepo.SourceFetcher{
		&fakeFetcher{name: "a", platform: "a", block: true},
		&fakeFetcher{name: "b", platform: "b", block: true},
		&fakeFetcher{name: "c", platform: "c", block: true},
	}
	c := NewCollector(fetchers, 1, time.Second, metrics.Nop{}, nil)
	results := c.Collect(ctx, nil)
	require.Len(t, results, 3)
	for _, r := range results {
		assert.Equal(t, models.SourceUnavailable, r.Status, r.Source)
		assert.NotEmpty(t, r.Reason)
	}
}
