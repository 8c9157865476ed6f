package catalog

import "sync/atomic"

// Store holds the current catalog snapshot. Readers never block; a refresh
// replaces the whole snapshot and in-flight readers keep the one they loaded.
type Store struct {
	current atomic.Pointer[Catalog]
}

func NewStore() *Store { return &Store{} }

// Load returns the current snapshot or nil before the first Swap.
func (s *Store) Load() *Catalog { return s.current.Load() }

// Swap installs c and returns the previous snapshot.
func (s *Store) Swap(c *Catalog) *Catalog { return s.current.Swap(c) }

func (s *Store) Ready() bool { return s.current.Load() != nil }
