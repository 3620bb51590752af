// Package ratelimit implements sliding-window admission control keyed by
// client address.
package ratelimit

import (
	"sync"
	"time"
)

// DefaultCapacity matches Zalo's recommended ceiling of webhook deliveries
// per minute per source.
const DefaultCapacity = 100

// DefaultWindow is the width of the sliding window.
const DefaultWindow = time.Minute

// Limiter admits at most capacity calls per key within any trailing
// window. Admission decisions for a key are ordered by arrival at the
// limiter; a single mutex covers all keys, which is fine at webhook
// throughput.
type Limiter struct {
	mu       sync.Mutex
	window   time.Duration
	capacity int
	windows  map[string][]time.Time
}

// New creates a Limiter. Non-positive capacity or window fall back to the
// defaults.
func New(capacity int, window time.Duration) *Limiter {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	if window <= 0 {
		window = DefaultWindow
	}
	return &Limiter{
		window:   window,
		capacity: capacity,
		windows:  make(map[string][]time.Time),
	}
}

// Admit reports whether a call for key at time now is within the limit.
// Rejected attempts are not recorded, so a client hammering the endpoint
// does not push its own window forward.
func (l *Limiter) Admit(key string, now time.Time) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	w := l.evictLocked(key, now)
	if len(w) >= l.capacity {
		l.windows[key] = w
		return false
	}
	l.windows[key] = append(w, now)
	return true
}

// Remaining returns how many admissions key has left in the current
// window. Read-only apart from lazy eviction.
func (l *Limiter) Remaining(key string, now time.Time) int {
	l.mu.Lock()
	defer l.mu.Unlock()

	w := l.evictLocked(key, now)
	l.windows[key] = w
	if n := l.capacity - len(w); n > 0 {
		return n
	}
	return 0
}

// Capacity returns the per-key admission limit.
func (l *Limiter) Capacity() int {
	return l.capacity
}

// evictLocked drops timestamps older than the window start. Caller holds
// the mutex.
func (l *Limiter) evictLocked(key string, now time.Time) []time.Time {
	w := l.windows[key]
	cutoff := now.Add(-l.window)
	i := 0
	for i < len(w) && !w[i].After(cutoff) {
		i++
	}
	return w[i:]
}
