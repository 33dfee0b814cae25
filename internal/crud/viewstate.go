package crud

import "sync"

// ViewState holds the records currently shown for one collection. Live
// snapshots replace the whole set; Remove drops a single record ahead
// of store confirmation so one-shot views update without a re-read.
type ViewState[T any] struct {
	id func(T) string

	mu      sync.RWMutex
	records []T
}

// NewViewState creates a ViewState keyed by the given identity
// function.
func NewViewState[T any](id func(T) string) *ViewState[T] {
	return &ViewState[T]{id: id}
}

// Replace swaps in a full snapshot.
func (s *ViewState[T]) Replace(records []T) {
	copied := make([]T, len(records))
	copy(copied, records)

	s.mu.Lock()
	s.records = copied
	s.mu.Unlock()
}

// Remove drops the record with the given identity, if present. It
// reports whether anything was removed.
func (s *ViewState[T]) Remove(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, rec := range s.records {
		if s.id(rec) == id {
			s.records = append(s.records[:i:i], s.records[i+1:]...)
			return true
		}
	}
	return false
}

// Snapshot returns a copy of the current records.
func (s *ViewState[T]) Snapshot() []T {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]T, len(s.records))
	copy(out, s.records)
	return out
}

// Len returns the current record count.
func (s *ViewState[T]) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}
