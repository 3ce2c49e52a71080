// Package ratelimit throttles write-heavy public routes with a per-key
// sliding window kept in process memory.
package ratelimit

import (
	"sync"
	"time"
)

// Result is the outcome of one Allow call.
type Result struct {
	Allowed   bool
	Limit     int
	Remaining int
	ResetAt   time.Time
}

// Windows tracks request timestamps per key. A sliding window avoids the
// burst a fixed window allows at its boundary.
type Windows struct {
	mu      sync.Mutex
	buckets map[string][]time.Time
	now     func() time.Time
}

func NewWindows() *Windows {
	return &Windows{
		buckets: make(map[string][]time.Time),
		now:     time.Now,
	}
}

// Allow records a request for key when fewer than limit requests happened in
// the trailing window.
func (w *Windows) Allow(key string, limit int, window time.Duration) Result {
	w.mu.Lock()
	defer w.mu.Unlock()

	now := w.now()
	stamps := trim(w.buckets[key], now.Add(-window))
	if len(stamps) >= limit {
		w.buckets[key] = stamps
		return Result{Limit: limit, ResetAt: stamps[0].Add(window)}
	}

	stamps = append(stamps, now)
	w.buckets[key] = stamps
	return Result{
		Allowed:   true,
		Limit:     limit,
		Remaining: limit - len(stamps),
		ResetAt:   stamps[0].Add(window),
	}
}

// Sweep drops keys with no request inside window.
func (w *Windows) Sweep(window time.Duration) int {
	w.mu.Lock()
	defer w.mu.Unlock()
	cutoff := w.now().Add(-window)
	removed := 0
	for key, stamps := range w.buckets {
		if len(trim(stamps, cutoff)) == 0 {
			delete(w.buckets, key)
			removed++
		}
	}
	return removed
}

func trim(stamps []time.Time, cutoff time.Time) []time.Time {
	i := 0
	for ; i < len(stamps); i++ {
		if stamps[i].After(cutoff) {
			break
		}
	}
	return stamps[i:]
}
