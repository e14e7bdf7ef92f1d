package signal

import (
	"sync"
	"time"

	"github.com/p2parena/lobbyd/internal/domain"
)

// EventRateLimiter caps how many events one connection may submit per
// sliding window. Position streams are the hot path, so the budget
// has to accommodate frame-rate traffic.
type EventRateLimiter struct {
	mu      sync.Mutex
	history map[domain.ConnID][]time.Time
	limit   int
	window  time.Duration
}

func NewEventRateLimiter(limit int, window time.Duration) *EventRateLimiter {
	return &EventRateLimiter{
		history: make(map[domain.ConnID][]time.Time),
		limit:   limit,
		window:  window,
	}
}

func (rl *EventRateLimiter) Allow(connID domain.ConnID) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := time.Now()
	windowStart := now.Add(-rl.window)

	attempts := rl.history[connID]
	fresh := make([]time.Time, 0, len(attempts))
	for _, t := range attempts {
		if t.After(windowStart) {
			fresh = append(fresh, t)
		}
	}

	if len(fresh) >= rl.limit {
		rl.history[connID] = fresh
		return false
	}

	rl.history[connID] = append(fresh, now)
	return true
}

// Forget drops a connection's history once it is gone.
func (rl *EventRateLimiter) Forget(connID domain.ConnID) {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	delete(rl.history, connID)
}
