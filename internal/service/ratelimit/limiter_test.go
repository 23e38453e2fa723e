package ratelimit

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLimiterPerKey(t *testing.T) {
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	l := New(time.Minute, 2)
	l.now = func() time.Time { return now }

	assert.True(t, l.Allow("AAPL"))
	assert.True(t, l.Allow("AAPL"))
	assert.False(t, l.Allow("AAPL"), "burst spent")
	assert.True(t, l.Allow("MSFT"), "keys are independent")

	now = now.Add(time.Minute)
	assert.True(t, l.Allow("AAPL"), "one token refilled")
	assert.False(t, l.Allow("AAPL"))
}

func TestLimiterEvictsIdleKeys(t *testing.T) {
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	l := New(time.Second, 1)
	l.now = func() time.Time { return now }

	l.Allow("a")
	l.Allow("b")
	now = now.Add(11 * time.Minute)
	l.Allow("c")
	assert.Equal(t, 1, l.Len())
}

func TestLimiterDisabled(t *testing.T) {
	l := New(0, 1)
	for i := 0; i < 5; i++ {
		assert.True(t, l.Allow("x"))
	}
	var nilLimiter *Limiter
	assert.True(t, nilLimiter.Allow("x"))
}
