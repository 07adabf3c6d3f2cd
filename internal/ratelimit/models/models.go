package models

import (
	"math"
	"time"
)

// Window is the fixed-window counter for one identity. A window is replaced,
// never extended, once the clock passes ResetAt.
type Window struct {
	Count   int       `json:"count"`
	ResetAt time.Time `json:"reset_at"`
}

// Expired reports whether now is past the window's reset time.
func (w Window) Expired(now time.Time) bool {
	return now.After(w.ResetAt)
}

// Policy is a request ceiling per fixed window.
type Policy struct {
	MaxRequests int
	Window      time.Duration
}

// Unlimited reports whether the policy disables throttling.
func (p Policy) Unlimited() bool {
	return p.MaxRequests <= 0
}

// Decision is the outcome of one limiter check.
type Decision struct {
	Allowed   bool      `json:"allowed"`
	Limit     int       `json:"limit"`
	Remaining int       `json:"remaining"`
	ResetAt   time.Time `json:"reset_at"`
	// RetryAfter is whole seconds until ResetAt, only set when not allowed.
	RetryAfter int `json:"retry_after,omitempty"`
	// Degraded is set when the decision came from the fallback store.
	Degraded bool `json:"-"`
}

// Allow builds an allowing decision.
func Allow(limit, remaining int, resetAt time.Time) Decision {
	if remaining < 0 {
		remaining = 0
	}
	return Decision{Allowed: true, Limit: limit, Remaining: remaining, ResetAt: resetAt}
}

// Reject builds a rejecting decision with a retry hint of at least one second.
func Reject(limit int, resetAt, now time.Time) Decision {
	return Decision{
		Allowed:    false,
		Limit:      limit,
		Remaining:  0,
		ResetAt:    resetAt,
		RetryAfter: RetryAfterSeconds(resetAt, now),
	}
}

// RetryAfterSeconds rounds the wait up to whole seconds, never below one.
func RetryAfterSeconds(resetAt, now time.Time) int {
	secs := int(math.Ceil(resetAt.Sub(now).Seconds()))
	if secs < 1 {
		return 1
	}
	return secs
}
