package ratelimit

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// Limiter keeps one token bucket per key. Buckets idle longer than ttl are dropped on the next Allow.
type Limiter struct {
	mu    sync.Mutex
	m     map[string]*bucket
	every time.Duration
	burst int
	ttl   time.Duration
	now   func() time.Time
}

type bucket struct {
	lim  *rate.Limiter
	last time.Time
}

// New allows burst events per key, refilled at one token per every.
// every <= 0 disables limiting.
func New(every time.Duration, burst int) *Limiter {
	if burst < 1 {
		burst = 1
	}
	return &Limiter{
		m:     make(map[string]*bucket),
		every: every,
		burst: burst,
		ttl:   10 * time.Minute,
		now:   time.Now,
	}
}

// Allow reports whether one event for key may happen now.
func (l *Limiter) Allow(key string) bool {
	if l == nil || l.every <= 0 {
		return true
	}
	now := l.now()
	l.mu.Lock()
	defer l.mu.Unlock()

	b, ok := l.m[key]
	if !ok {
		l.evict(now)
		b = &bucket{lim: rate.NewLimiter(rate.Every(l.every), l.burst)}
		l.m[key] = b
	}
	b.last = now
	return b.lim.AllowN(now, 1)
}

func (l *Limiter) evict(now time.Time) {
	for k, b := range l.m {
		if now.Sub(b.last) > l.ttl {
			delete(l.m, k)
		}
	}
}

func (l *Limiter) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.m)
}
