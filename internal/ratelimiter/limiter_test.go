package ratelimiter

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func newTestLimiter(requests int, frame time.Duration) (*TokenBucketLimiter, *time.Time) {
	now := time.Date(2026, 10, 18, 12, 0, 0, 0, time.UTC)
	rl := NewTokenBucketLimiter(Config{RequestsPerTimeFrame: requests, TimeFrame: frame, Enabled: true})
	rl.now = func() time.Time { return now }
	return rl, &now
}

func TestTokenBucketLimiter_BurstThenBlock(t *testing.T) {
	rl, _ := newTestLimiter(3, 3*time.Second)

	for i := 0; i < 3; i++ {
		ok, _ := rl.Allow("1.1.1.1")
		assert.True(t, ok, "request %d", i)
	}

	ok, retry := rl.Allow("1.1.1.1")
	assert.False(t, ok)
	assert.InDelta(t, float64(time.Second), float64(retry), float64(10*time.Millisecond))
}

func TestTokenBucketLimiter_KeysAreIndependent(t *testing.T) {
	rl, _ := newTestLimiter(1, time.Second)

	ok, _ := rl.Allow("a")
	assert.True(t, ok)
	ok, _ = rl.Allow("a")
	assert.False(t, ok)

	ok, _ = rl.Allow("b")
	assert.True(t, ok)
}

func TestTokenBucketLimiter_Refills(t *testing.T) {
	rl, now := newTestLimiter(2, 2*time.Second)

	rl.Allow("a")
	rl.Allow("a")
	ok, _ := rl.Allow("a")
	assert.False(t, ok)

	*now = now.Add(time.Second)
	ok, _ = rl.Allow("a")
	assert.True(t, ok)
}

func TestTokenBucketLimiter_Cleanup(t *testing.T) {
	rl, now := newTestLimiter(5, time.Second)

	rl.Allow("old")
	*now = now.Add(10 * time.Second)
	rl.Allow("fresh")

	rl.Cleanup()

	assert.NotContains(t, rl.clients, "old")
	assert.Contains(t, rl.clients, "fresh")
}
