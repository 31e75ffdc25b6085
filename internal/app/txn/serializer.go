// Package txn provides the single-writer transaction discipline the ledger
// invariants assume. The original execution environment serialized every
// operation for us; here the serializer makes that explicit with one
// exclusive lock per ledger instance.
package txn

import "sync"

// Serializer runs mutating operations one at a time. Readers may run
// concurrently with each other but never overlap a writer, so they observe
// only committed state.
type Serializer struct {
	mu sync.RWMutex
}

// New returns a Serializer.
func New() *Serializer {
	return &Serializer{}
}

// Update runs fn while holding the exclusive lock. Outbound dispatches must
// be queued after Update returns, never inside fn.
func (s *Serializer) Update(fn func() error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return fn()
}

// View runs fn while holding the shared lock.
func (s *Serializer) View(fn func() error) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return fn()
}
