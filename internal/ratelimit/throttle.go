package ratelimit

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// ClientThrottle is a per-client token bucket used to slow deployment spam.
// Unlike Limiter it is purely local and advisory; each instance throttles
// independently.
type ClientThrottle struct {
	mu      sync.Mutex
	rps     rate.Limit
	burst   int
	clients map[string]*throttleEntry
	idleTTL time.Duration
	done    chan struct{}
}

type throttleEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

func NewClientThrottle(rps float64, burst int) *ClientThrottle {
	t := &ClientThrottle{
		rps:     rate.Limit(rps),
		burst:   burst,
		clients: make(map[string]*throttleEntry),
		idleTTL: 10 * time.Minute,
		done:    make(chan struct{}),
	}
	go t.sweep()
	return t
}

// Stop ends the background idle-entry sweeper. The throttle itself keeps
// working after Stop; only the cleanup goroutine exits.
func (t *ClientThrottle) Stop() {
	close(t.done)
}

func (t *ClientThrottle) Allow(key string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	e, ok := t.clients[key]
	if !ok {
		e = &throttleEntry{limiter: rate.NewLimiter(t.rps, t.burst)}
		t.clients[key] = e
	}
	e.lastSeen = time.Now()

	return e.limiter.Allow()
}

func (t *ClientThrottle) sweep() {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-t.done:
			return
		case <-ticker.C:
			t.mu.Lock()
			cutoff := time.Now().Add(-t.idleTTL)
			for key, e := range t.clients {
				if e.lastSeen.Before(cutoff) {
					delete(t.clients, key)
				}
			}
			t.mu.Unlock()
		}
	}
}
