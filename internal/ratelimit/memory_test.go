package ratelimit

import (
	"context"
	"sync"
	"testing"
	"time"
)

func TestMemoryLimiterWindow(t *testing.T) {
	limiter := NewMemoryLimiter(Policy{Namespace: "login", Limit: 5, Window: 15 * time.Minute}, 100)

	now := time.Now()
	limiter.now = func() time.Time { return now }

	for i := 0; i < 5; i++ {
		result, err := limiter.Check(context.Background(), "client-a")
		if err != nil {
			t.Fatalf("check %d: %v", i, err)
		}
		if !result.Allowed {
			t.Fatalf("check %d should be allowed", i)
		}
		if want := 5 - (i + 1); result.Remaining != want {
			t.Fatalf("check %d remaining = %d, want %d", i, result.Remaining, want)
		}
	}

	result, err := limiter.Check(context.Background(), "client-a")
	if err != nil {
		t.Fatalf("check: %v", err)
	}
	if result.Allowed {
		t.Fatal("6th check within the window must be denied")
	}
	if result.Remaining != 0 {
		t.Fatalf("denied remaining = %d, want 0", result.Remaining)
	}
	if !result.ResetAt.After(now) {
		t.Fatal("reset must be in the future")
	}

	// Another identifier is unaffected.
	other, err := limiter.Check(context.Background(), "client-b")
	if err != nil {
		t.Fatalf("check: %v", err)
	}
	if !other.Allowed {
		t.Fatal("distinct identifier should have its own budget")
	}

	// After the window fully elapses the identifier is admitted again.
	limiter.now = func() time.Time { return now.Add(15*time.Minute + time.Second) }
	result, err = limiter.Check(context.Background(), "client-a")
	if err != nil {
		t.Fatalf("check: %v", err)
	}
	if !result.Allowed {
		t.Fatal("check after window elapsed must be allowed")
	}
}

func TestMemoryLimiterCleanup(t *testing.T) {
	limiter := NewMemoryLimiter(Policy{Namespace: "login", Limit: 5, Window: time.Minute}, 2)

	now := time.Now()
	limiter.now = func() time.Time { return now }
	if _, err := limiter.Check(context.Background(), "stale-1"); err != nil {
		t.Fatal(err)
	}
	if _, err := limiter.Check(context.Background(), "stale-2"); err != nil {
		t.Fatal(err)
	}

	// Crossing the ceiling with everything stale sweeps the old identifiers.
	limiter.now = func() time.Time { return now.Add(2 * time.Minute) }
	if _, err := limiter.Check(context.Background(), "fresh"); err != nil {
		t.Fatal(err)
	}

	if got := limiter.TrackedIdentifiers(); got != 1 {
		t.Fatalf("tracked identifiers = %d, want 1", got)
	}
}

func TestMemoryLimiterConcurrentSameIdentifier(t *testing.T) {
	const limit = 50
	limiter := NewMemoryLimiter(Policy{Namespace: "login", Limit: limit, Window: time.Minute}, 1000)

	var wg sync.WaitGroup
	var mu sync.Mutex
	allowed := 0

	for i := 0; i < 2*limit; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			result, err := limiter.Check(context.Background(), "shared")
			if err != nil {
				t.Error(err)
				return
			}
			if result.Allowed {
				mu.Lock()
				allowed++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	if allowed != limit {
		t.Fatalf("allowed = %d, want exactly %d", allowed, limit)
	}
}
