package quota

import (
	"sync"
	"time"
)

// ConcurrentLimiter bounds how many in-flight (not yet completed) calls a
// single key may have within a short trailing window. It is distinct from the
// burst limiter: a burst limiter counts starts, this counts unfinished work,
// which stops a user from flooding the model before earlier calls return.
//
// Entries expire after the window even when never released, so an abandoned
// request (client gave up, handler crashed mid-flight) cannot pin a slot
// forever.
type ConcurrentLimiter struct {
	mu       sync.Mutex
	limit    int
	window   time.Duration
	now      func() time.Time
	inFlight map[string][]time.Time
}

// NewConcurrentLimiter creates a limiter allowing at most limit unfinished
// calls per key within the trailing window. Pass nil for now to use time.Now.
func NewConcurrentLimiter(limit int, window time.Duration, now func() time.Time) *ConcurrentLimiter {
	if now == nil {
		now = time.Now
	}
	return &ConcurrentLimiter{
		limit:    limit,
		window:   window,
		now:      now,
		inFlight: make(map[string][]time.Time),
	}
}

// Acquire attempts to claim an in-flight slot for key. On success it returns
// a release function (safe to call once) and true. On rejection the attempt
// leaves no trace.
func (l *ConcurrentLimiter) Acquire(key string) (func(), bool) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	cutoff := now.Add(-l.window)

	kept := l.inFlight[key][:0]
	for _, ts := range l.inFlight[key] {
		if ts.After(cutoff) {
			kept = append(kept, ts)
		}
	}

	if len(kept) >= l.limit {
		l.inFlight[key] = kept
		return nil, false
	}

	l.inFlight[key] = append(kept, now)

	var once sync.Once
	release := func() {
		once.Do(func() {
			l.release(key, now)
		})
	}
	return release, true
}

// release removes the entry recorded at ts for key, if still present.
func (l *ConcurrentLimiter) release(key string, ts time.Time) {
	l.mu.Lock()
	defer l.mu.Unlock()

	entries := l.inFlight[key]
	for i, e := range entries {
		if e.Equal(ts) {
			l.inFlight[key] = append(entries[:i], entries[i+1:]...)
			return
		}
	}
}

// Active returns the number of unfinished calls currently tracked for key.
func (l *ConcurrentLimiter) Active(key string) int {
	l.mu.Lock()
	defer l.mu.Unlock()

	cutoff := l.now().Add(-l.window)
	n := 0
	for _, ts := range l.inFlight[key] {
		if ts.After(cutoff) {
			n++
		}
	}
	return n
}
