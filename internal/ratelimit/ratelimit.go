package ratelimit

import (
	"sync"
	"time"
)

// Clock abstracts time for testing.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

// Rule caps the number of requests a single client may make to one route
// within a fixed window. A Limit of zero or less disables the rule.
type Rule struct {
	Method string
	Path   string
	Limit  int
	Window time.Duration
}

func (r Rule) route() string { return r.Method + " " + r.Path }

// Result describes the quota left for a client after a request.
type Result struct {
	Limit     int
	Remaining int
	ResetAt   time.Time
	RetryIn   time.Duration
}

// window tracks one client's usage of one route. It carries its own length so
// expiry checks never consult the rule table.
type window struct {
	start  time.Time
	length time.Duration
	count  int
}

func (w *window) expired(now time.Time) bool {
	return now.Sub(w.start) >= w.length
}

// Limiter is a fixed-window limiter keyed by client and route.
type Limiter struct {
	mu      sync.Mutex
	rules   map[string]Rule
	windows map[string]*window
	clock   Clock
}

// NewLimiter builds a Limiter from rules. Rules with a non-positive limit or
// window are skipped; a later rule for the same route replaces an earlier one.
func NewLimiter(rules []Rule) *Limiter {
	l := &Limiter{
		rules:   make(map[string]Rule, len(rules)),
		windows: make(map[string]*window),
		clock:   systemClock{},
	}
	for _, r := range rules {
		if r.Limit <= 0 || r.Window <= 0 {
			continue
		}
		l.rules[r.route()] = r
	}
	return l
}

// Routes returns the number of routes under a limit.
func (l *Limiter) Routes() int { return len(l.rules) }

// Allow records a request from client to method and path. Routes without a
// rule are always allowed and report a zero Result.
func (l *Limiter) Allow(client, method, path string) (Result, bool) {
	route := method + " " + path
	rule, ok := l.rules[route]
	if !ok {
		return Result{}, true
	}

	now := l.clock.Now()
	key := client + "|" + route

	l.mu.Lock()
	defer l.mu.Unlock()

	w := l.windows[key]
	if w == nil || w.expired(now) {
		w = &window{start: now, length: rule.Window}
		l.windows[key] = w
	}

	res := Result{Limit: rule.Limit, ResetAt: w.start.Add(w.length)}
	if w.count >= rule.Limit {
		res.RetryIn = res.ResetAt.Sub(now)
		return res, false
	}

	w.count++
	res.Remaining = rule.Limit - w.count
	return res, true
}

// Cleanup drops windows that have run out and reports how many it removed.
func (l *Limiter) Cleanup() int {
	now := l.clock.Now()

	l.mu.Lock()
	defer l.mu.Unlock()

	removed := 0
	for key, w := range l.windows {
		if w.expired(now) {
			delete(l.windows, key)
			removed++
		}
	}
	return removed
}
