// Package balance keeps the latest account balance snapshot.
package balance

import (
	"sync"

	"main/internal/schema"
)

// Store holds the single balance snapshot.
type Store struct {
	mu   sync.RWMutex
	snap schema.Balance
	set  bool
}

// NewStore allocates an empty balance store.
func NewStore() *Store {
	return &Store{}
}

// Update replaces the snapshot.
func (s *Store) Update(snap schema.Balance) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snap = snap
	s.set = true
}

// Get returns the latest snapshot. The second return is false before the
// first update arrives.
func (s *Store) Get() (schema.Balance, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snap, s.set
}
