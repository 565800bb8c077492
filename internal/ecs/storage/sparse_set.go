// Package storage implements the sparse-set backed column storage that the
// component registry uses for every component type: O(1) add/remove/lookup,
// contiguous dense iteration, and swap-remove compaction.
//
// This package is kept independent of package ecs (which itself imports
// storage) by declaring its own EntityID alias instead of importing ecs's.
package storage

import (
	"fmt"
)

// EntityID mirrors ecs.EntityID's underlying representation (uint64). Kept
// as a distinct type so this package has no import-cycle dependency on ecs.
type EntityID uint64

// SparseSet maps entity ids to dense-array slots in O(1), independent of
// the values stored at those slots. Column stores embed one of these to
// track membership; the dense value array itself lives in Column.
type SparseSet struct {
	sparse map[EntityID]int
	dense  []EntityID
	size   int
}

// NewSparseSet creates an empty sparse set with room for 256 entities
// before its first reallocation.
func NewSparseSet() *SparseSet {
	return &SparseSet{
		sparse: make(map[EntityID]int),
		dense:  make([]EntityID, 0, 256),
	}
}

// Add inserts entity into the set, returning the dense slot it was placed
// at. Callers use this slot to index a parallel value column.
func (s *SparseSet) Add(entity EntityID) (int, error) {
	if _, exists := s.sparse[entity]; exists {
		return -1, fmt.Errorf("entity %d already present in sparse set", entity)
	}

	slot := s.size
	if slot >= len(s.dense) {
		s.dense = append(s.dense, entity)
	} else {
		s.dense[slot] = entity
	}
	s.sparse[entity] = slot
	s.size++
	return slot, nil
}

// Remove deletes entity from the set. It returns the slot entity occupied
// (removedSlot). If entity was not in the last slot, the last entity is
// swapped into removedSlot and returned as movedEntity with moved=true; if
// entity was in the last slot, nothing moves and moved is false.
// Callers must mirror this swap in their value column.
func (s *SparseSet) Remove(entity EntityID) (removedSlot int, movedEntity EntityID, moved bool, err error) {
	slot, exists := s.sparse[entity]
	if !exists {
		return -1, 0, false, fmt.Errorf("entity %d not present in sparse set", entity)
	}

	lastSlot := s.size - 1
	lastEntity := s.dense[lastSlot]

	delete(s.sparse, entity)
	s.size--

	if slot == lastSlot {
		return slot, 0, false, nil
	}

	s.dense[slot] = lastEntity
	s.sparse[lastEntity] = slot
	return slot, lastEntity, true, nil
}

// Contains reports whether entity is present.
func (s *SparseSet) Contains(entity EntityID) bool {
	_, exists := s.sparse[entity]
	return exists
}

// Slot returns the dense index for entity.
func (s *SparseSet) Slot(entity EntityID) (int, bool) {
	slot, ok := s.sparse[entity]
	return slot, ok
}

// EntityAt returns the entity occupying a dense slot.
func (s *SparseSet) EntityAt(slot int) (EntityID, bool) {
	if slot < 0 || slot >= s.size {
		return 0, false
	}
	return s.dense[slot], true
}

// Len returns the number of entities currently present.
func (s *SparseSet) Len() int {
	return s.size
}

// Entities returns a copy of the dense entity array in slot order.
func (s *SparseSet) Entities() []EntityID {
	out := make([]EntityID, s.size)
	copy(out, s.dense[:s.size])
	return out
}

// Clear empties the set, keeping the dense backing array allocated.
func (s *SparseSet) Clear() {
	s.sparse = make(map[EntityID]int)
	s.size = 0
}
