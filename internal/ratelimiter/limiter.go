package ratelimiter

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

type Config struct {
	RequestsPerTimeFrame int
	TimeFrame            time.Duration
	Enabled              bool
}

type Limiter interface {
	Allow(key string) (bool, time.Duration)
}

type client struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// TokenBucketLimiter keeps one token bucket per key (client IP). A bucket
// refills RequestsPerTimeFrame tokens every TimeFrame and bursts up to the
// same amount.
type TokenBucketLimiter struct {
	sync.Mutex
	clients map[string]*client
	limit   rate.Limit
	burst   int
	idle    time.Duration
	now     func() time.Time
}

func NewTokenBucketLimiter(cfg Config) *TokenBucketLimiter {
	burst := cfg.RequestsPerTimeFrame
	if burst < 1 {
		burst = 1
	}
	return &TokenBucketLimiter{
		clients: make(map[string]*client),
		limit:   rate.Limit(float64(burst) / cfg.TimeFrame.Seconds()),
		burst:   burst,
		idle:    3 * cfg.TimeFrame,
		now:     time.Now,
	}
}

// Allow reports whether key may proceed now and, if not, how long to wait.
func (rl *TokenBucketLimiter) Allow(key string) (bool, time.Duration) {
	rl.Lock()
	defer rl.Unlock()

	now := rl.now()
	c, ok := rl.clients[key]
	if !ok {
		c = &client{limiter: rate.NewLimiter(rl.limit, rl.burst)}
		rl.clients[key] = c
	}
	c.lastSeen = now

	r := c.limiter.ReserveN(now, 1)
	if delay := r.DelayFrom(now); delay > 0 {
		r.CancelAt(now)
		return false, delay
	}
	return true, 0
}

// Cleanup forgets clients idle for more than three time frames. Run it
// periodically; see Run.
func (rl *TokenBucketLimiter) Cleanup() {
	rl.Lock()
	defer rl.Unlock()

	cutoff := rl.now().Add(-rl.idle)
	for key, c := range rl.clients {
		if c.lastSeen.Before(cutoff) {
			delete(rl.clients, key)
		}
	}
}

// Run calls Cleanup every interval until done is closed.
func (rl *TokenBucketLimiter) Run(done <-chan struct{}, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-done:
			return
		case <-ticker.C:
			rl.Cleanup()
		}
	}
}
