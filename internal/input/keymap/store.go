package keymap

import (
	"sync/atomic"
)

// Store holds the active snapshot.
//
// Publish swaps a single pointer, so a reader sees either the entire old
// snapshot or the entire new one. Readers should call Current once per
// decision and use that snapshot throughout.
type Store struct {
	current    atomic.Pointer[Snapshot]
	generation atomic.Uint64
}

// NewStore creates a store holding an empty snapshot.
func NewStore() *Store {
	s := &Store{}
	s.current.Store(EmptySnapshot())
	return s
}

// Current returns the active snapshot. It never returns nil.
func (s *Store) Current() *Snapshot {
	return s.current.Load()
}

// Publish makes snap the active snapshot and returns the one it replaced.
// A nil snap publishes an empty snapshot.
func (s *Store) Publish(snap *Snapshot) *Snapshot {
	if snap == nil {
		snap = EmptySnapshot()
	}
	prev := s.current.Swap(snap)
	s.generation.Add(1)
	return prev
}

// Generation returns how many snapshots have been published.
func (s *Store) Generation() uint64 {
	return s.generation.Load()
}
