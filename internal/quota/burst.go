package quota

import (
	"sync"
	"time"
)

// BurstLimiter is a sliding-window rate limiter over arbitrary string keys.
// Each key holds the timestamps of its admitted events; a request is admitted
// iff the number of events inside the trailing window is below the limit.
// Rejected attempts are not recorded, so hammering a limited key does not
// extend the lockout.
//
// State is per-process only. See the package comment for the authority model.
type BurstLimiter struct {
	mu     sync.Mutex
	limit  int
	window time.Duration
	now    func() time.Time
	events map[string][]time.Time
}

// NewBurstLimiter creates a limiter admitting at most limit events per key
// within the trailing window. The now function is injectable for tests; pass
// nil to use time.Now.
func NewBurstLimiter(limit int, window time.Duration, now func() time.Time) *BurstLimiter {
	if now == nil {
		now = time.Now
	}
	return &BurstLimiter{
		limit:  limit,
		window: window,
		now:    now,
		events: make(map[string][]time.Time),
	}
}

// Allow reports whether an event for key is admitted, recording it if so.
func (l *BurstLimiter) Allow(key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	cutoff := now.Add(-l.window)

	// Drop events that have aged out of the window.
	kept := l.events[key][:0]
	for _, ts := range l.events[key] {
		if ts.After(cutoff) {
			kept = append(kept, ts)
		}
	}

	if len(kept) >= l.limit {
		// Keep the pruned list but do not record the rejected attempt.
		l.events[key] = kept
		return false
	}

	l.events[key] = append(kept, now)
	return true
}

// Pending returns the number of events currently inside the window for key.
func (l *BurstLimiter) Pending(key string) int {
	l.mu.Lock()
	defer l.mu.Unlock()

	cutoff := l.now().Add(-l.window)
	n := 0
	for _, ts := range l.events[key] {
		if ts.After(cutoff) {
			n++
		}
	}
	return n
}
