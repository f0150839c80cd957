package ratelimit

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestAllowPerKey(t *testing.T) {
	l := New(2, 1)
	clock := time.Unix(1700000000, 0)
	l.now = func() time.Time { return clock }

	assert.True(t, l.Allow("a"))
	assert.True(t, l.Allow("a"))
	assert.False(t, l.Allow("a"))
	assert.True(t, l.Allow("b"))

	clock = clock.Add(61 * time.Second)
	assert.True(t, l.Allow("a"))
	assert.False(t, l.Allow("a"))
}

func TestSweepDropsIdleKeys(t *testing.T) {
	l := New(1, 1)
	clock := time.Unix(1700000000, 0)
	l.now = func() time.Time { return clock }

	l.Allow("old")
	clock = clock.Add(11 * time.Minute)
	l.Allow("fresh")

	assert.Equal(t, 1, l.Sweep())
	assert.Equal(t, 1, l.Len())
}

func TestRetryAfter(t *testing.T) {
	assert.Equal(t, time.Minute, New(3, 1).RetryAfter())
	assert.Equal(t, 30*time.Second, New(3, 2).RetryAfter())
	assert.Equal(t, time.Duration(0), New(3, 0).RetryAfter())
}
