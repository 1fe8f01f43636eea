package http

import (
	"testing"
	"time"
)

func TestRateLimiterAllowsWithinBudget(t *testing.T) {
	t.Parallel()

	rl := NewRateLimiter(3, 3, time.Minute)
	t.Cleanup(rl.Close)

	current := time.Unix(0, 0)
	rl.now = func() time.Time {
		return current
	}

	key := "1.2.3.4"

	for i := 0; i < 3; i++ {
		if !rl.Allow(key) {
			t.Fatalf("expected request %d to be allowed", i+1)
		}
	}

	if rl.Allow(key) {
		t.Fatalf("expected fourth request to be denied")
	}

	if !rl.Allow("5.6.7.8") {
		t.Fatalf("expected a different client to have its own budget")
	}

	current = current.Add(time.Second)

	if !rl.Allow(key) {
		t.Fatalf("expected request after refill to be allowed")
	}
}

func TestRateLimiterPrunesIdleClients(t *testing.T) {
	t.Parallel()

	rl := NewRateLimiter(1, 1, time.Hour)
	t.Cleanup(rl.Close)

	current := time.Unix(0, 0)
	rl.now = func() time.Time {
		return current
	}

	rl.Allow("a")
	current = current.Add(30 * time.Minute)
	rl.Allow("b")
	current = current.Add(45 * time.Minute)

	rl.pruneStale()

	if got := rl.size(); got != 1 {
		t.Fatalf("expected one client to survive pruning, got %d", got)
	}
}
