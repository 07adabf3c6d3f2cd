package memory

import (
	"context"
	"sync"

	audit "avd/pkg/platform/audit"
	"avd/pkg/platform/sentinel"
)

// InMemoryStore keeps entries in append order. Used by dev mode and tests.
type InMemoryStore struct {
	mu      sync.RWMutex
	entries []audit.Entry
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{}
}

func (s *InMemoryStore) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = nil
}

func (s *InMemoryStore) Append(_ context.Context, entry audit.Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = append(s.entries, entry)
	return nil
}

// List walks newest to oldest so pagination matches the postgres store.
func (s *InMemoryStore) List(_ context.Context, filter audit.Filter) ([]audit.Entry, error) {
	filter = filter.Normalize()
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]audit.Entry, 0, min(filter.Limit, len(s.entries)))
	skipped := 0
	for i := len(s.entries) - 1; i >= 0 && len(out) < filter.Limit; i-- {
		e := s.entries[i]
		if !filter.Matches(e) {
			continue
		}
		if skipped < filter.Offset {
			skipped++
			continue
		}
		out = append(out, e)
	}
	return out, nil
}

func (s *InMemoryStore) Latest(_ context.Context, resource, resourceID string) (*audit.Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for i := len(s.entries) - 1; i >= 0; i-- {
		e := s.entries[i]
		if e.Resource == resource && (resourceID == "" || e.ResourceID == resourceID) {
			return &e, nil
		}
	}
	return nil, sentinel.ErrNotFound
}

// Len reports how many entries were appended.
func (s *InMemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}
