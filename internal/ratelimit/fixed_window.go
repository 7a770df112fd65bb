// Package ratelimit provides per-identity fixed-window admission
// control for the gateway.
package ratelimit

import (
	"sync"
	"time"

	"go.uber.org/zap"
)

// cleanupInterval is how often stale per-identity counters are removed.
const cleanupInterval = 5 * time.Minute

// Result is the outcome of an admission check.
type Result struct {
	// Allowed indicates whether the request is admitted.
	Allowed bool

	// Limit is the maximum number of admissions per window.
	Limit int

	// Remaining is the number of admissions left in the current window.
	Remaining int

	// ResetAfter is the duration until the identity's window resets.
	ResetAfter time.Duration
}

// Limiter is a fixed-window rate limiter. Each identity owns a counter
// that resets once a full window has elapsed since its window started.
// A burst of up to twice the limit can span a window boundary; that
// imprecision is an accepted property of the algorithm.
type Limiter struct {
	limit  int
	window time.Duration
	logger *zap.Logger

	counters sync.Map // identity -> *windowCounter

	stopCh   chan struct{}
	stopOnce sync.Once
}

// windowCounter tracks one identity's admissions in the current window.
type windowCounter struct {
	mu          sync.Mutex
	windowStart time.Time
	count       int
}

// NewLimiter creates a fixed-window limiter admitting limit requests
// per window for each identity.
func NewLimiter(limit int, window time.Duration, logger *zap.Logger) *Limiter {
	if logger == nil {
		logger = zap.NewNop()
	}

	l := &Limiter{
		limit:  limit,
		window: window,
		logger: logger,
		stopCh: make(chan struct{}),
	}

	go l.cleanupLoop()

	return l
}

// Allow performs an admission check for the given identity.
func (l *Limiter) Allow(identity string) *Result {
	now := time.Now()

	value, _ := l.counters.LoadOrStore(identity, &windowCounter{windowStart: now})
	wc := value.(*windowCounter)

	wc.mu.Lock()
	defer wc.mu.Unlock()

	if now.Sub(wc.windowStart) >= l.window {
		wc.windowStart = now
		wc.count = 0
	}

	wc.count++
	allowed := wc.count <= l.limit

	remaining := l.limit - wc.count
	if remaining < 0 {
		remaining = 0
	}

	resetAfter := wc.windowStart.Add(l.window).Sub(now)
	if resetAfter < 0 {
		resetAfter = 0
	}

	return &Result{
		Allowed:    allowed,
		Limit:      l.limit,
		Remaining:  remaining,
		ResetAfter: resetAfter,
	}
}

// Limit returns the configured per-window limit.
func (l *Limiter) Limit() int {
	return l.limit
}

// Window returns the configured window length.
func (l *Limiter) Window() time.Duration {
	return l.window
}

// Reset drops the counter for the given identity.
func (l *Limiter) Reset(identity string) {
	l.counters.Delete(identity)
}

// Stop terminates the background cleanup goroutine.
func (l *Limiter) Stop() {
	l.stopOnce.Do(func() { close(l.stopCh) })
}

// cleanupLoop periodically drops counters whose window has long
// expired, bounding memory for churning identities.
func (l *Limiter) cleanupLoop() {
	ticker := time.NewTicker(cleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			l.cleanup()
		case <-l.stopCh:
			return
		}
	}
}

func (l *Limiter) cleanup() {
	now := time.Now()
	removed := 0

	l.counters.Range(func(key, value interface{}) bool {
		wc := value.(*windowCounter)
		wc.mu.Lock()
		stale := now.Sub(wc.windowStart) >= 2*l.window
		wc.mu.Unlock()

		if stale {
			l.counters.Delete(key)
			removed++
		}
		return true
	})

	if removed > 0 {
		l.logger.Debug("removed stale rate limit counters", zap.Int("removed", removed))
	}
}
