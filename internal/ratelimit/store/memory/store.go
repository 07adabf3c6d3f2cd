// Package memory is a process-local fixed-window store. Windows live in a
// mutex-guarded map owned by the store; idle windows are purged by Sweep.
package memory

import (
	"context"
	"errors"
	"sync"
	"time"

	"avd/internal/ratelimit/models"
)

const (
	DefaultMaxKeys     = 100_000
	DefaultIdleWindows = 2
)

// ErrCapacity is returned when a new identity arrives and the store is full
// even after purging idle windows.
var ErrCapacity = errors.New("rate limiter capacity exceeded")

type entry struct {
	models.Window
	length time.Duration
}

// Store implements fixed-window counting. The check-and-reset-or-increment
// sequence for a key runs under a single lock acquisition.
type Store struct {
	mu          sync.Mutex
	windows     map[string]*entry
	now         func() time.Time
	maxKeys     int
	idleWindows int
}

type Option func(*Store)

// WithClock overrides time.Now, for tests.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		if now != nil {
			s.now = now
		}
	}
}

// WithMaxKeys bounds the number of tracked identities.
func WithMaxKeys(n int) Option {
	return func(s *Store) {
		if n > 0 {
			s.maxKeys = n
		}
	}
}

// WithIdleWindows sets how many full windows a key may sit expired before
// Sweep purges it. Zero purges as soon as the window expires.
func WithIdleWindows(n int) Option {
	return func(s *Store) {
		if n >= 0 {
			s.idleWindows = n
		}
	}
}

func New(opts ...Option) *Store {
	s := &Store{
		windows:     make(map[string]*entry),
		now:         time.Now,
		maxKeys:     DefaultMaxKeys,
		idleWindows: DefaultIdleWindows,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Allow counts one request for key.
func (s *Store) Allow(_ context.Context, key string, limit int, window time.Duration) (models.Decision, error) {
	now := s.now()

	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.windows[key]
	if !ok || e.Expired(now) {
		if !ok && len(s.windows) >= s.maxKeys {
			s.sweepLocked(now)
			if len(s.windows) >= s.maxKeys {
				return models.Decision{}, ErrCapacity
			}
		}
		e = &entry{Window: models.Window{Count: 1, ResetAt: now.Add(window)}, length: window}
		s.windows[key] = e
		return models.Allow(limit, limit-1, e.ResetAt), nil
	}

	if e.Count >= limit {
		return models.Reject(limit, e.ResetAt, now), nil
	}
	e.Count++
	return models.Allow(limit, limit-e.Count, e.ResetAt), nil
}

// Window returns a copy of the current window for key.
func (s *Store) Window(key string) (models.Window, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.windows[key]
	if !ok {
		return models.Window{}, false
	}
	return e.Window, true
}

// Len returns the number of tracked identities.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.windows)
}

// Sweep purges windows that have been expired for longer than the idle
// allowance and returns how many were removed.
func (s *Store) Sweep() int {
	now := s.now()
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sweepLocked(now)
}

func (s *Store) sweepLocked(now time.Time) int {
	removed := 0
	for key, e := range s.windows {
		idle := time.Duration(s.idleWindows) * e.length
		if now.Sub(e.ResetAt) > idle {
			delete(s.windows, key)
			removed++
		}
	}
	return removed
}

// RunSweeper calls Sweep every interval until ctx is done. onSweep, when
// non-nil, receives the number of purged windows.
func (s *Store) RunSweeper(ctx context.Context, interval time.Duration, onSweep func(removed int)) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			removed := s.Sweep()
			if onSweep != nil {
				onSweep(removed)
			}
		}
	}
}
