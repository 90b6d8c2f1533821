package simserver

import (
	"sync"

	"github.com/autopeer-io/simetry/pkg/generichttp"
)

// Store holds the state currently published by the simulation.
// A nil state means no simulation is running.
type Store struct {
	mu    sync.RWMutex
	state *generichttp.SimState
}

// NewStore returns an empty Store.
func NewStore() *Store {
	return &Store{}
}

// Get returns a copy of the current state, or false if none is published.
func (s *Store) Get() (*generichttp.SimState, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.state == nil {
		return nil, false
	}
	return s.state.DeepCopy(), true
}

// Set replaces the published state.
func (s *Store) Set(state *generichttp.SimState) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = state.DeepCopy()
}

// Clear withdraws the published state.
func (s *Store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = nil
}
