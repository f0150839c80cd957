package logger

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type capturePublisher struct {
	mu      sync.Mutex
	batches [][]AggregatedLogEntry
}

func (p *capturePublisher) PublishMessage(_ context.Context, _ string, payload interface{}) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.batches = append(p.batches, payload.([]AggregatedLogEntry))
	return nil
}

func (p *capturePublisher) count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.batches)
}

func TestCollectorDeduplicates(t *testing.T) {
	pub := &capturePublisher{}
	c := NewLogCollector(&CollectionConfig{TimeInterval: time.Hour, CountThreshold: 10, Topic: "logs", Publisher: pub})

	fields := map[string]interface{}{"source": "reddit"}
	c.AddLog("error", "fetch failed", fields, "a.go:1")
	c.AddLog("error", "fetch failed", fields, "a.go:1")
	c.AddLog("warn", "slow", nil, "b.go:2")
	assert.Equal(t, 2, c.Pending())

	c.Close()
	require.Equal(t, 1, pub.count())
	batch := pub.batches[0]
	require.Len(t, batch, 2)
	assert.Equal(t, "fetch failed", batch[0].Message)
	assert.Equal(t, 2, batch[0].Count)
}

func TestCollectorFlushesAtThreshold(t *testing.T) {
	pub := &capturePublisher{}
	c := NewLogCollector(&CollectionConfig{TimeInterval: time.Hour, CountThreshold: 2, Topic: "logs", Publisher: pub})
	defer c.Close()

	c.AddLog("error", "one", nil, "x")
	c.AddLog("error", "two", nil, "x")

	require.Eventually(t, func() bool { return pub.count() == 1 }, time.Second, 10*time.Millisecond)
	assert.Zero(t, c.Pending())
}

func TestLoggerWithCollector(t *testing.T) {
	pub := &capturePublisher{}
	l := Nop()
	l.AddCollector(&CollectionConfig{TimeInterval: time.Hour, CountThreshold: 100, Publisher: pub})

	child := l.With(Component("scan"))
	child.Info("ignored by collector")
	child.Warn("kept", String("source", "4chan"), Float64("momentum", 2.5))
	child.Error("kept too", Error(assert.AnError))

	l.RemoveCollector()
	require.Equal(t, 1, pub.count())
	assert.Len(t, pub.batches[0], 2)
}
