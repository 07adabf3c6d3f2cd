// Package circuit provides a consecutive-failure circuit breaker used to stop
// hammering an unhealthy dependency.
package circuit

import (
	"sync"
	"time"
)

// Breaker opens after threshold consecutive failures and stays open for the
// cooldown. The first call after the cooldown is let through (half-open); its
// outcome closes or re-opens the circuit.
type Breaker struct {
	mu sync.Mutex

	name      string
	threshold int
	cooldown  time.Duration
	now       func() time.Time

	failures  int
	openUntil time.Time
	open      bool
}

// Option configures a Breaker.
type Option func(*Breaker)

// WithThreshold sets the consecutive failures that open the circuit.
func WithThreshold(n int) Option {
	return func(b *Breaker) {
		if n > 0 {
			b.threshold = n
		}
	}
}

// WithCooldown sets how long the circuit stays open.
func WithCooldown(d time.Duration) Option {
	return func(b *Breaker) {
		if d > 0 {
			b.cooldown = d
		}
	}
}

// WithClock overrides time.Now, for tests.
func WithClock(now func() time.Time) Option {
	return func(b *Breaker) {
		if now != nil {
			b.now = now
		}
	}
}

func New(name string, opts ...Option) *Breaker {
	b := &Breaker{
		name:      name,
		threshold: 5,
		cooldown:  30 * time.Second,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

func (b *Breaker) Name() string { return b.name }

// Allow reports whether a call may proceed.
func (b *Breaker) Allow() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.open {
		return true
	}
	if b.now().After(b.openUntil) {
		// half-open: one probe; a failure re-opens immediately
		b.open = false
		b.failures = b.threshold - 1
		return true
	}
	return false
}

// RecordSuccess closes the circuit.
func (b *Breaker) RecordSuccess() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.failures = 0
	b.open = false
}

// RecordFailure counts a failure and reports whether this call opened the circuit.
func (b *Breaker) RecordFailure() (opened bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.failures++
	if !b.open && b.failures >= b.threshold {
		b.open = true
		b.openUntil = b.now().Add(b.cooldown)
		return true
	}
	return false
}

// IsOpen reports whether calls are currently being short-circuited.
func (b *Breaker) IsOpen() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.open
}
