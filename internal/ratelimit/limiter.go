// Package ratelimit provides a fixed-window message-count limiter keyed by
// connection id. The admission check and the counter increment are separate
// steps: Allow decides, Consume counts. A message that is rejected or dropped
// before relay is therefore never charged against the window.
//
// The limiter is advisory abuse mitigation, not a security boundary; state is
// lost on process restart. Access is serialized by the session manager.
package ratelimit

import "time"

// Rule defines a rate limiting policy: maximum number of messages allowed in
// the window, and the window duration.
type Rule struct {
	Limit  int           // max count in the window
	Window time.Duration // time window
}

// RuleMessage allows 10 relayed messages per minute per user.
var RuleMessage = Rule{Limit: 10, Window: time.Minute}

// window is the per-user counter state. It is reset lazily on the first
// check after resetAt elapses.
type window struct {
	count   int
	resetAt time.Time
}

// Limiter tracks fixed-window counters per user id.
type Limiter struct {
	rule    Rule
	windows map[string]*window
	now     func() time.Time // overridable for tests
}

// NewLimiter creates a Limiter enforcing the given rule.
func NewLimiter(rule Rule) *Limiter {
	return &Limiter{
		rule:    rule,
		windows: make(map[string]*window),
		now:     time.Now,
	}
}

// current returns the user's window, lazily creating or resetting it if the
// previous window has elapsed.
func (l *Limiter) current(id string) *window {
	now := l.now()
	w, ok := l.windows[id]
	if !ok || now.After(w.resetAt) {
		w = &window{resetAt: now.Add(l.rule.Window)}
		l.windows[id] = w
	}
	return w
}

// Allow reports whether the user may send another message in the current
// window. It does not consume capacity; callers that go on to relay the
// message must call Consume.
func (l *Limiter) Allow(id string) bool {
	return l.current(id).count < l.rule.Limit
}

// Consume charges one message against the user's current window.
func (l *Limiter) Consume(id string) {
	l.current(id).count++
}

// Remaining returns how many messages the user has left in the current window.
func (l *Limiter) Remaining(id string) int {
	left := l.rule.Limit - l.current(id).count
	if left < 0 {
		return 0
	}
	return left
}

// Forget drops the user's window state. Called on connection teardown.
func (l *Limiter) Forget(id string) {
	delete(l.windows, id)
}
