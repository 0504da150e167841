package staging

import "github.com/google/uuid"

// Entry is one pending delta.
type Entry struct {
	ID    uuid.UUID
	Delta int
}

// DeltaStore is the sparse overlay of uncommitted adjustments keyed by stock row id.
// Entries keep their insertion order. A zero delta is never stored.
// DeltaStore is not safe for concurrent use; Session serializes access to it.
type DeltaStore struct {
	deltas map[uuid.UUID]int
	order  []uuid.UUID
}

func NewDeltaStore() *DeltaStore {
	return &DeltaStore{deltas: make(map[uuid.UUID]int)}
}

// Stage adds amount to the pending delta of id. base is the last fetched quantity
// of the row. It reports false, leaving the store unchanged, when amount is zero or
// when base plus the new delta would go below zero.
func (s *DeltaStore) Stage(id uuid.UUID, base, amount int) bool {
	if amount == 0 {
		return false
	}
	current, exists := s.deltas[id]
	next := current + amount
	if base+next < 0 {
		return false
	}

	switch {
	case next == 0:
		s.remove(id)
	case exists:
		s.deltas[id] = next
	default:
		s.deltas[id] = next
		s.order = append(s.order, id)
	}
	return true
}

// Delta returns the pending delta of id, 0 when none.
func (s *DeltaStore) Delta(id uuid.UUID) int {
	return s.deltas[id]
}

func (s *DeltaStore) Len() int {
	return len(s.deltas)
}

func (s *DeltaStore) HasPendingChanges() bool {
	return len(s.deltas) > 0
}

// Entries returns a copy of the pending deltas in insertion order.
func (s *DeltaStore) Entries() []Entry {
	entries := make([]Entry, 0, len(s.order))
	for _, id := range s.order {
		entries = append(entries, Entry{ID: id, Delta: s.deltas[id]})
	}
	return entries
}

// DiscardAll drops every pending delta.
func (s *DeltaStore) DiscardAll() {
	s.deltas = make(map[uuid.UUID]int)
	s.order = nil
}

func (s *DeltaStore) remove(id uuid.UUID) {
	delete(s.deltas, id)
	for i, v := range s.order {
		if v == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			return
		}
	}
}
