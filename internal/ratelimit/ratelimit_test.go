package ratelimit

import (
	"testing"
	"time"
)

func TestLimiterAllow(t *testing.T) {
	t.Parallel()

	limiter := New(3, 0.001)

	// First 3 requests should be allowed
	for i := 0; i < 3; i++ {
		if !limiter.Allow() {
			t.Errorf("Request %d should be allowed", i+1)
		}
	}

	// 4th request should be denied
	if limiter.Allow() {
		t.Error("4th request should be denied")
	}
}

func TestLimiterRefill(t *testing.T) {
	t.Parallel()

	limiter := New(1, 100) // fast refill for testing

	if !limiter.Allow() {
		t.Fatal("First request should be allowed")
	}
	if limiter.Allow() {
		t.Fatal("Second immediate request should be denied")
	}

	time.Sleep(50 * time.Millisecond)

	if !limiter.Allow() {
		t.Error("Request after refill should be allowed")
	}
}

func TestLimiterAvailable(t *testing.T) {
	t.Parallel()

	limiter := New(10, 0.001)

	if got := limiter.Available(); got != 10 {
		t.Errorf("Expected 10 tokens initially, got %f", got)
	}

	limiter.Allow()
	limiter.Allow()

	if got := limiter.Available(); got >= 10 {
		t.Errorf("Expected fewer than 10 tokens after use, got %f", got)
	}
}

func TestLimiterIsFull(t *testing.T) {
	t.Parallel()

	limiter := New(5, 0.001)

	if !limiter.IsFull() {
		t.Error("Fresh limiter should be full")
	}

	limiter.Allow()

	if limiter.IsFull() {
		t.Error("Limiter should not be full after consuming a token")
	}
}
