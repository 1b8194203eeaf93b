package ratelimit

import (
	"context"
	"sync"
	"time"
)

// MemoryLimiter is the single-instance fallback: a mutex-guarded map of
// per-identifier request timestamps. Check-then-update for one identifier is
// atomic relative to concurrent callers.
type MemoryLimiter struct {
	mu             sync.Mutex
	entries        map[string][]time.Time
	policy         Policy
	maxIdentifiers int
	now            func() time.Time
}

// NewMemoryLimiter builds a limiter for one policy. maxIdentifiers bounds the
// tracked-identifier count; crossing it triggers opportunistic cleanup of
// identifiers whose windows have fully aged out.
func NewMemoryLimiter(policy Policy, maxIdentifiers int) *MemoryLimiter {
	if maxIdentifiers <= 0 {
		maxIdentifiers = 10000
	}
	return &MemoryLimiter{
		entries:        make(map[string][]time.Time),
		policy:         policy,
		maxIdentifiers: maxIdentifiers,
		now:            time.Now,
	}
}

// Check records the request and decides admission.
func (l *MemoryLimiter) Check(_ context.Context, identifier string) (Result, error) {
	now := l.now()
	windowStart := now.Add(-l.policy.Window)

	l.mu.Lock()
	defer l.mu.Unlock()

	recent := prune(l.entries[identifier], windowStart)
	recent = append(recent, now)
	l.entries[identifier] = recent

	if len(l.entries) > l.maxIdentifiers {
		l.cleanupLocked(windowStart)
	}

	remaining := l.policy.Limit - len(recent)
	if remaining < 0 {
		remaining = 0
	}

	return Result{
		Allowed:   len(recent) <= l.policy.Limit,
		Limit:     l.policy.Limit,
		Remaining: remaining,
		ResetAt:   recent[0].Add(l.policy.Window),
	}, nil
}

// cleanupLocked drops identifiers with no requests left in the window. Count
// triggered rather than timer driven, so sustained load from many distinct
// identifiers pays the sweep cost instead of a background goroutine.
func (l *MemoryLimiter) cleanupLocked(windowStart time.Time) {
	for id, stamps := range l.entries {
		if live := prune(stamps, windowStart); len(live) == 0 {
			delete(l.entries, id)
		} else {
			l.entries[id] = live
		}
	}
}

func prune(stamps []time.Time, windowStart time.Time) []time.Time {
	live := stamps[:0]
	for _, t := range stamps {
		if t.After(windowStart) {
			live = append(live, t)
		}
	}
	return live
}

// TrackedIdentifiers reports the current map size, used by tests and metrics.
func (l *MemoryLimiter) TrackedIdentifiers() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.entries)
}
