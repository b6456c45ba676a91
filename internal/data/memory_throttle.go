package data

import (
	"context"
	"sync"
	"time"
)

// MemoryThrottle is an in-process fixed-window attempt counter, used
// when Redis is not configured. Counters are per-replica and lost on
// restart, which is acceptable for single-instance local deployments.
type MemoryThrottle struct {
	mu      sync.Mutex
	entries map[string]*windowEntry
	limit   int
	window  time.Duration
	now     func() time.Time
}

type windowEntry struct {
	count   int
	resetAt time.Time
}

// MemoryThrottleOptions groups construction parameters for MemoryThrottle.
type MemoryThrottleOptions struct {
	Limit  int              // Optional: attempts per window (default 10)
	Window time.Duration    // Optional: window length (default 1m)
	Now    func() time.Time // Optional: clock override for tests
}

// NewMemoryThrottle creates an in-process login throttle.
func NewMemoryThrottle(opts MemoryThrottleOptions) *MemoryThrottle {
	limit := opts.Limit
	if limit <= 0 {
		limit = DefaultThrottleLimit
	}
	window := opts.Window
	if window <= 0 {
		window = DefaultThrottleWindow
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	return &MemoryThrottle{
		entries: make(map[string]*windowEntry),
		limit:   limit,
		window:  window,
		now:     now,
	}
}

// Allow records an attempt for key and reports whether it is within budget.
func (m *MemoryThrottle) Allow(_ context.Context, key string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	entry, ok := m.entries[key]
	if !ok || now.After(entry.resetAt) {
		entry = &windowEntry{resetAt: now.Add(m.window)}
		m.entries[key] = entry
	}
	entry.count++
	return entry.count <= m.limit, nil
}

// Reset clears the counter for key.
func (m *MemoryThrottle) Reset(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.entries, key)
	return nil
}
