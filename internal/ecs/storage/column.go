package storage

// Column is a single component type's storage: a SparseSet tracking
// membership plus a dense value array kept in the same slot order, so
// a component lookup or iteration never touches entities that lack it.
// Grounded on the teacher's SparseSet+ComponentStore pairing, generalized
// so the dense array holds the component value directly instead of a
// second map[EntityID]Component lookup.
type Column struct {
	membership *SparseSet
	values     []any
}

// NewColumn creates an empty column for one component type.
func NewColumn() *Column {
	return &Column{
		membership: NewSparseSet(),
		values:     make([]any, 0, 256),
	}
}

// Set inserts or overwrites entity's value. Returns true if this was a
// fresh insert (entity had no prior value in this column).
func (c *Column) Set(entity EntityID, value any) (inserted bool) {
	if slot, ok := c.membership.Slot(entity); ok {
		c.values[slot] = value
		return false
	}
	slot, _ := c.membership.Add(entity)
	if slot >= len(c.values) {
		c.values = append(c.values, value)
	} else {
		c.values[slot] = value
	}
	return true
}

// Get returns entity's value and whether it is present.
func (c *Column) Get(entity EntityID) (any, bool) {
	slot, ok := c.membership.Slot(entity)
	if !ok {
		return nil, false
	}
	return c.values[slot], true
}

// Has reports whether entity has a value in this column.
func (c *Column) Has(entity EntityID) bool {
	return c.membership.Contains(entity)
}

// Remove deletes entity's value, swap-compacting the dense array to match
// the underlying sparse set's swap-remove.
func (c *Column) Remove(entity EntityID) bool {
	removedSlot, _, moved, err := c.membership.Remove(entity)
	if err != nil {
		return false
	}
	lastIdx := len(c.values) - 1
	if moved {
		c.values[removedSlot] = c.values[lastIdx]
	}
	c.values = c.values[:lastIdx]
	return true
}

// Len returns the number of entities holding a value in this column.
func (c *Column) Len() int {
	return c.membership.Len()
}

// Entities returns the entities in this column, in dense slot order.
func (c *Column) Entities() []EntityID {
	return c.membership.Entities()
}

// ForEach visits every (entity, value) pair in dense slot order. It is
// safe for the callback to read other columns but must not mutate this
// one mid-iteration.
func (c *Column) ForEach(fn func(EntityID, any)) {
	for slot, e := range c.membership.Entities() {
		fn(e, c.values[slot])
	}
}

// Clear empties the column.
func (c *Column) Clear() {
	c.membership.Clear()
	c.values = c.values[:0]
}
