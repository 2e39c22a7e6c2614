package utils

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// KeyedLimiter keeps one token bucket per key.
type KeyedLimiter struct {
	mu       sync.Mutex
	limiters map[string]*limiterEntry
	every    time.Duration
	burst    int
	ttl      time.Duration
}

type limiterEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// NewKeyedLimiter allows burst events per key, refilling one every interval.
func NewKeyedLimiter(every time.Duration, burst int) *KeyedLimiter {
	if burst <= 0 {
		burst = 1
	}
	return &KeyedLimiter{
		limiters: make(map[string]*limiterEntry),
		every:    every,
		burst:    burst,
		ttl:      every*time.Duration(burst) + 10*time.Minute,
	}
}

// Allow reports whether an event for key may happen now.
func (l *KeyedLimiter) Allow(key string) bool {
	if l == nil || l.every <= 0 {
		return true
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	now := time.Now()
	entry, ok := l.limiters[key]
	if !ok {
		entry = &limiterEntry{limiter: rate.NewLimiter(rate.Every(l.every), l.burst)}
		l.limiters[key] = entry
		if len(l.limiters) > 10000 {
			l.evict(now)
		}
	}
	entry.lastSeen = now
	return entry.limiter.AllowN(now, 1)
}

func (l *KeyedLimiter) evict(now time.Time) {
	for key, entry := range l.limiters {
		if now.Sub(entry.lastSeen) > l.ttl {
			delete(l.limiters, key)
		}
	}
}
