package localstore

import (
	"context"
	"sync"
)

// InMemoryStore keeps cache entries in memory. Used by tests and as a
// fallback when no durable path is available.
type InMemoryStore struct {
	mu      sync.RWMutex
	entries map[string]string
}

// NewInMemory constructs an empty in-memory cache.
func NewInMemory() *InMemoryStore {
	return &InMemoryStore{entries: make(map[string]string)}
}

func (s *InMemoryStore) Get(_ context.Context, key Key) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	value, ok := s.entries[key.String()]
	if !ok {
		return "", ErrNotFound
	}
	return value, nil
}

func (s *InMemoryStore) Put(_ context.Context, key Key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[key.String()] = value
	return nil
}

func (s *InMemoryStore) Delete(_ context.Context, key Key) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, key.String())
	return nil
}

var _ Store = (*InMemoryStore)(nil)
