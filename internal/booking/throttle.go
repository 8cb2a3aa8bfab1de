package booking

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// LocalThrottle is an in-process Throttle backed by one token bucket per key
type LocalThrottle struct {
	mu       sync.Mutex
	limiters map[string]*throttleEntry
	interval time.Duration
	now      func() time.Time
}

type throttleEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// maxIdleKeys bounds the map before idle keys are evicted
const maxIdleKeys = 1024

// NewLocalThrottle allows one action per key every interval
func NewLocalThrottle(interval time.Duration) *LocalThrottle {
	if interval <= 0 {
		interval = time.Minute
	}
	return &LocalThrottle{
		limiters: make(map[string]*throttleEntry),
		interval: interval,
		now:      time.Now,
	}
}

// Allow reports whether the key may act now
func (t *LocalThrottle) Allow(_ context.Context, key string) (bool, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	now := t.now()
	entry, ok := t.limiters[key]
	if !ok {
		if len(t.limiters) >= maxIdleKeys {
			t.evictIdle(now)
		}
		entry = &throttleEntry{limiter: rate.NewLimiter(rate.Every(t.interval), 1)}
		t.limiters[key] = entry
	}
	entry.lastSeen = now
	return entry.limiter.AllowN(now, 1), nil
}

// evictIdle drops keys whose bucket has fully refilled
func (t *LocalThrottle) evictIdle(now time.Time) {
	for key, entry := range t.limiters {
		if now.Sub(entry.lastSeen) > t.interval {
			delete(t.limiters, key)
		}
	}
}

var _ Throttle = (*LocalThrottle)(nil)
