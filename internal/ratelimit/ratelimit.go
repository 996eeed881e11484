// Package ratelimit bounds chat requests per client IP within a fixed
// window. The counter lives in a key-value store with TTL = window length;
// once the key expires the next request starts a fresh window at count 1.
// Supports both in-memory (single instance) and Redis (distributed) backends.
package ratelimit

import (
	"context"
	"sync"
	"time"
)

// Limiter is the check-and-increment contract used by the chat handler.
// Allow reports whether the request may proceed and the count observed for
// the current window. The read and the increment are not atomic together:
// concurrent requests can both see a stale count and briefly overshoot the
// limit. That looseness is accepted for a soft usage cap.
type Limiter interface {
	Allow(ctx context.Context, key string) (allowed bool, count int, err error)
	Limit() int
	Window() time.Duration
}

// InMemoryLimiter keeps fixed windows in a map with lazy expiry. Suitable
// for single-instance deployments and tests.
type InMemoryLimiter struct {
	mu      sync.Mutex
	limit   int
	window  time.Duration
	windows map[string]*window
}

type window struct {
	count   int
	resetAt time.Time
}

func NewInMemoryLimiter(limit int, windowLen time.Duration) *InMemoryLimiter {
	return &InMemoryLimiter{
		limit:   limit,
		window:  windowLen,
		windows: make(map[string]*window),
	}
}

func (l *InMemoryLimiter) Allow(ctx context.Context, key string) (bool, int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := time.Now()

	w, ok := l.windows[key]
	if !ok || now.After(w.resetAt) {
		w = &window{resetAt: now.Add(l.window)}
		l.windows[key] = w
	}

	if w.count >= l.limit {
		return false, w.count, nil
	}

	w.count++
	return true, w.count, nil
}

func (l *InMemoryLimiter) Limit() int {
	return l.limit
}

func (l *InMemoryLimiter) Window() time.Duration {
	return l.window
}
