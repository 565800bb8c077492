package storage

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func Test_SparseSet_CreateAndInitialize(t *testing.T) {
	s := NewSparseSet()

	assert.NotNil(t, s)
	assert.Equal(t, 0, s.Len())
}

func Test_SparseSet_AddEntity(t *testing.T) {
	s := NewSparseSet()
	entity := EntityID(123)

	slot, err := s.Add(entity)

	assert.NoError(t, err)
	assert.Equal(t, 0, slot)
	assert.True(t, s.Contains(entity))
	assert.Equal(t, 1, s.Len())
}

func Test_SparseSet_AddDuplicateEntity(t *testing.T) {
	s := NewSparseSet()
	entity := EntityID(123)
	_, err := s.Add(entity)
	assert.NoError(t, err)

	_, err = s.Add(entity)

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "already present")
	assert.Equal(t, 1, s.Len())
}

func Test_SparseSet_RemoveEntity(t *testing.T) {
	s := NewSparseSet()
	entity := EntityID(456)
	_, err := s.Add(entity)
	assert.NoError(t, err)

	_, _, _, err = s.Remove(entity)

	assert.NoError(t, err)
	assert.False(t, s.Contains(entity))
	assert.Equal(t, 0, s.Len())
}

func Test_SparseSet_RemoveUnknownEntity(t *testing.T) {
	s := NewSparseSet()

	_, _, _, err := s.Remove(EntityID(999))

	assert.Error(t, err)
}

func Test_SparseSet_RemoveSwapsLastEntityIntoFreedSlot(t *testing.T) {
	s := NewSparseSet()
	a, b, c := EntityID(1), EntityID(2), EntityID(3)
	_, _ = s.Add(a)
	_, _ = s.Add(b)
	_, _ = s.Add(c)

	removedSlot, moved, didMove, err := s.Remove(a)

	assert.NoError(t, err)
	assert.True(t, didMove)
	assert.Equal(t, c, moved)
	assert.Equal(t, 0, removedSlot)

	slot, ok := s.Slot(c)
	assert.True(t, ok)
	assert.Equal(t, 0, slot)
	assert.Equal(t, 2, s.Len())
}

func Test_SparseSet_RemoveLastSlotDoesNotMove(t *testing.T) {
	s := NewSparseSet()
	a, b := EntityID(1), EntityID(2)
	_, _ = s.Add(a)
	_, _ = s.Add(b)

	_, _, didMove, err := s.Remove(b)

	assert.NoError(t, err)
	assert.False(t, didMove)
	assert.Equal(t, 1, s.Len())
}

func Test_SparseSet_EntitiesReturnsDenseOrder(t *testing.T) {
	s := NewSparseSet()
	_, _ = s.Add(EntityID(10))
	_, _ = s.Add(EntityID(20))

	entities := s.Entities()

	assert.ElementsMatch(t, []EntityID{10, 20}, entities)
}

func Test_SparseSet_Clear(t *testing.T) {
	s := NewSparseSet()
	_, _ = s.Add(EntityID(1))
	_, _ = s.Add(EntityID(2))

	s.Clear()

	assert.Equal(t, 0, s.Len())
	assert.False(t, s.Contains(EntityID(1)))
}

func Test_Column_SetAndGet(t *testing.T) {
	col := NewColumn()
	entity := EntityID(7)

	inserted := col.Set(entity, 42)

	assert.True(t, inserted)
	v, ok := col.Get(entity)
	assert.True(t, ok)
	assert.Equal(t, 42, v)
}

func Test_Column_SetOverwritesExisting(t *testing.T) {
	col := NewColumn()
	entity := EntityID(7)
	col.Set(entity, 1)

	inserted := col.Set(entity, 2)

	assert.False(t, inserted)
	v, _ := col.Get(entity)
	assert.Equal(t, 2, v)
}

func Test_Column_RemoveCompactsDenseArray(t *testing.T) {
	col := NewColumn()
	col.Set(EntityID(1), "a")
	col.Set(EntityID(2), "b")
	col.Set(EntityID(3), "c")

	ok := col.Remove(EntityID(1))
	assert.True(t, ok)

	_, stillPresent := col.Get(EntityID(1))
	assert.False(t, stillPresent)

	v2, ok2 := col.Get(EntityID(2))
	assert.True(t, ok2)
	assert.Equal(t, "b", v2)

	v3, ok3 := col.Get(EntityID(3))
	assert.True(t, ok3)
	assert.Equal(t, "c", v3)

	assert.Equal(t, 2, col.Len())
}

func Test_Column_ForEachVisitsAllPairs(t *testing.T) {
	col := NewColumn()
	col.Set(EntityID(1), "a")
	col.Set(EntityID(2), "b")

	seen := make(map[EntityID]any)
	col.ForEach(func(e EntityID, v any) {
		seen[e] = v
	})

	assert.Equal(t, map[EntityID]any{1: "a", 2: "b"}, seen)
}
