package ratelimit

import (
	"testing"
	"time"
)

type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() time.Time { return c.now }

func (c *fakeClock) Advance(d time.Duration) { c.now = c.now.Add(d) }

func newTestLimiter(rules ...Rule) (*Limiter, *fakeClock) {
	clock := &fakeClock{now: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)}
	l := NewLimiter(rules)
	l.clock = clock
	return l, clock
}

func TestAllow_NoRule(t *testing.T) {
	l, _ := newTestLimiter()

	res, ok := l.Allow("1.2.3.4", "GET", "/api/preview")
	if !ok {
		t.Fatal("expected request without a rule to be allowed")
	}
	if res.Limit != 0 {
		t.Errorf("expected zero result, got %+v", res)
	}
}

func TestAllow_WithinLimit(t *testing.T) {
	l, _ := newTestLimiter(Rule{Method: "GET", Path: "/api/preview", Limit: 3, Window: time.Minute})

	for i := 0; i < 3; i++ {
		res, ok := l.Allow("1.2.3.4", "GET", "/api/preview")
		if !ok {
			t.Fatalf("request %d: expected allowed", i+1)
		}
		if res.Remaining != 2-i {
			t.Errorf("request %d: remaining = %d, want %d", i+1, res.Remaining, 2-i)
		}
	}

	res, ok := l.Allow("1.2.3.4", "GET", "/api/preview")
	if ok {
		t.Fatal("expected fourth request to be rejected")
	}
	if res.RetryIn != time.Minute {
		t.Errorf("retry in = %v, want %v", res.RetryIn, time.Minute)
	}
}

func TestAllow_WindowResets(t *testing.T) {
	l, clock := newTestLimiter(Rule{Method: "POST", Path: "/api/previews", Limit: 1, Window: time.Minute})

	if _, ok := l.Allow("1.2.3.4", "POST", "/api/previews"); !ok {
		t.Fatal("expected first request allowed")
	}
	if _, ok := l.Allow("1.2.3.4", "POST", "/api/previews"); ok {
		t.Fatal("expected second request rejected")
	}

	clock.Advance(time.Minute)
	if _, ok := l.Allow("1.2.3.4", "POST", "/api/previews"); !ok {
		t.Fatal("expected request allowed after window reset")
	}
}

func TestAllow_PerIP(t *testing.T) {
	l, _ := newTestLimiter(Rule{Method: "GET", Path: "/api/preview", Limit: 1, Window: time.Minute})

	if _, ok := l.Allow("1.1.1.1", "GET", "/api/preview"); !ok {
		t.Fatal("expected first IP allowed")
	}
	if _, ok := l.Allow("2.2.2.2", "GET", "/api/preview"); !ok {
		t.Fatal("expected second IP to have its own window")
	}
}

func TestCleanup(t *testing.T) {
	l, clock := newTestLimiter(
		Rule{Method: "GET", Path: "/api/preview", Limit: 5, Window: time.Minute},
		Rule{Method: "POST", Path: "/api/previews", Limit: 5, Window: time.Hour},
	)

	l.Allow("1.1.1.1", "GET", "/api/preview")
	l.Allow("1.1.1.1", "POST", "/api/previews")

	clock.Advance(2 * time.Minute)
	if n := l.Cleanup(); n != 1 {
		t.Errorf("Cleanup() = %d, want 1", n)
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if len(l.windows) != 1 {
		t.Fatalf("expected 1 window after cleanup, got %d", len(l.windows))
	}
	if _, ok := l.windows["1.1.1.1|POST /api/previews"]; !ok {
		t.Error("expected the hour-long window to survive cleanup")
	}
}

func TestNewLimiter_SkipsDisabledRules(t *testing.T) {
	l, _ := newTestLimiter(
		Rule{Method: "GET", Path: "/api/preview", Limit: 0, Window: time.Minute},
		Rule{Method: "POST", Path: "/api/previews", Limit: 3, Window: 0},
	)

	if l.Routes() != 0 {
		t.Fatalf("Routes() = %d, want 0", l.Routes())
	}
	for i := 0; i < 10; i++ {
		if _, ok := l.Allow("1.1.1.1", "GET", "/api/preview"); !ok {
			t.Fatal("a zero limit must not block requests")
		}
	}
}
