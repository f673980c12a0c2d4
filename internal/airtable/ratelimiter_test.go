package airtable

import (
	"context"
	"testing"
	"time"
)

func TestRateLimiterBurstThenBlocks(t *testing.T) {
	rl := NewRateLimiter(2, time.Hour)

	for i := 0; i < 2; i++ {
		if err := rl.Wait(context.Background()); err != nil {
			t.Fatalf("burst token %d: unexpected error: %v", i, err)
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if err := rl.Wait(ctx); err == nil {
		t.Fatal("expected context error once the bucket is empty")
	}
}

func TestRateLimiterRefills(t *testing.T) {
	rl := NewRateLimiter(1, 10*time.Millisecond)
	if err := rl.Wait(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	start := time.Now()
	if err := rl.Wait(ctx); err != nil {
		t.Fatalf("expected refill, got %v", err)
	}
	if time.Since(start) > 500*time.Millisecond {
		t.Fatalf("refill took too long: %v", time.Since(start))
	}
}

func TestRateLimiterRefillCapsAtMax(t *testing.T) {
	rl := NewRateLimiter(3, time.Millisecond)
	rl.tokens = 0
	rl.refill(rl.lastRefill.Add(time.Second))
	if rl.tokens != 3 {
		t.Fatalf("expected tokens capped at 3, got %d", rl.tokens)
	}
}
