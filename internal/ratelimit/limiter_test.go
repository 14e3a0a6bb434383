package ratelimit

import (
	"testing"
	"time"
)

// fakeClock lets tests advance time manually.
type fakeClock struct {
	t time.Time
}

func (c *fakeClock) now() time.Time          { return c.t }
func (c *fakeClock) advance(d time.Duration) { c.t = c.t.Add(d) }

func newTestLimiter(rule Rule) (*Limiter, *fakeClock) {
	clock := &fakeClock{t: time.Unix(1000, 0)}
	l := NewLimiter(rule)
	l.now = clock.now
	return l, clock
}

func TestAllow_UpToLimit(t *testing.T) {
	l, _ := newTestLimiter(Rule{Limit: 10, Window: time.Minute})

	for i := 0; i < 10; i++ {
		if !l.Allow("u1") {
			t.Fatalf("message %d should be allowed", i+1)
		}
		l.Consume("u1")
	}

	if l.Allow("u1") {
		t.Error("11th message within the window should be denied")
	}
}

func TestAllow_DoesNotConsume(t *testing.T) {
	l, _ := newTestLimiter(Rule{Limit: 2, Window: time.Minute})

	// Checking repeatedly without consuming must not use up the budget.
	for i := 0; i < 5; i++ {
		if !l.Allow("u1") {
			t.Fatalf("check %d should be allowed, nothing consumed yet", i+1)
		}
	}
	if l.Remaining("u1") != 2 {
		t.Errorf("remaining = %d, want 2", l.Remaining("u1"))
	}
}

func TestWindow_ResetsAfterExpiry(t *testing.T) {
	l, clock := newTestLimiter(Rule{Limit: 10, Window: time.Minute})

	for i := 0; i < 10; i++ {
		l.Consume("u1")
	}
	if l.Allow("u1") {
		t.Fatal("budget should be exhausted")
	}

	clock.advance(61 * time.Second)

	if !l.Allow("u1") {
		t.Error("new window should allow messages again")
	}
	if l.Remaining("u1") != 10 {
		t.Errorf("remaining after reset = %d, want 10", l.Remaining("u1"))
	}
}

func TestWindow_NotSliding(t *testing.T) {
	l, clock := newTestLimiter(Rule{Limit: 2, Window: time.Minute})

	l.Consume("u1")
	clock.advance(30 * time.Second)
	l.Consume("u1")

	// Still inside the original window: denied.
	if l.Allow("u1") {
		t.Error("should be denied 30s into the window")
	}

	// 61s after the first message the window has elapsed.
	clock.advance(31 * time.Second)
	if !l.Allow("u1") {
		t.Error("should be allowed once the fixed window expires")
	}
}

func TestLimiter_PerUserIsolation(t *testing.T) {
	l, _ := newTestLimiter(Rule{Limit: 1, Window: time.Minute})

	l.Consume("u1")
	if l.Allow("u1") {
		t.Error("u1 should be limited")
	}
	if !l.Allow("u2") {
		t.Error("u2 should be unaffected by u1's window")
	}
}

func TestForget(t *testing.T) {
	l, _ := newTestLimiter(Rule{Limit: 1, Window: time.Minute})

	l.Consume("u1")
	if l.Allow("u1") {
		t.Fatal("u1 should be limited")
	}

	l.Forget("u1")
	if !l.Allow("u1") {
		t.Error("forgotten user should start with a fresh window")
	}
}
