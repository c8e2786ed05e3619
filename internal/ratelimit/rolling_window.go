package ratelimit

import (
	"sync"
	"time"
)

// entry is one (monotonic_time, value) pair in the window.
type entry struct {
	at    time.Time
	value float64
}

// RollingWindow is a "Rolling-Window Counter": a time-ordered
// sequence of (monotonic_time, value) entries where entries older than
// MaxAge are discarded on read and Total is the sum of the surviving
// entries. It backs the rate-limited service variant's can_process check
// (spec §4.1: "counter.total < rate_limit"), fronting one LLM provider
// instance per rolling window sized in seconds (spec §5, typically 60).
type RollingWindow struct {
	mu      sync.Mutex
	entries []entry
	maxAge  time.Duration
	now     func() time.Time // overridable for deterministic tests
}

// NewRollingWindow creates a window that discards entries older than maxAge.
func NewRollingWindow(maxAge time.Duration) *RollingWindow {
	return &RollingWindow{maxAge: maxAge, now: time.Now}
}

// Record appends a new entry with the current time and the given value
// (e.g. tokens consumed by one LLM call).
func (w *RollingWindow) Record(value float64) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.entries = append(w.entries, entry{at: w.now(), value: value})
}

// Total prunes entries older than maxAge and returns the sum of what
// remains. Per spec §8: "after sleeping >T, total == 0".
func (w *RollingWindow) Total() float64 {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.prune()

	var total float64
	for _, e := range w.entries {
		total += e.value
	}
	return total
}

// prune must be called with mu held.
func (w *RollingWindow) prune() {
	cutoff := w.now().Add(-w.maxAge)
	i := 0
	for ; i < len(w.entries); i++ {
		if w.entries[i].at.After(cutoff) {
			break
		}
	}
	if i > 0 {
		w.entries = w.entries[i:]
	}
}

// CanProcess reports whether the current Total is strictly under limit —
// the rate-limited service's can_process predicate (spec §4.1). The cost
// of the next entry is not taken into account.
func (w *RollingWindow) CanProcess(limit float64) bool {
	return w.Total() < limit
}

// Len reports the number of live (unpruned) entries, mainly for tests.
func (w *RollingWindow) Len() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.prune()
	return len(w.entries)
}
