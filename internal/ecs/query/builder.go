// Package query exposes the registry's query operations (spec §4.C) as a
// small builder over an index.Adapter, resolving every call against
// indices instead of scanning component columns. Grounded on the
// teacher's query/builder.go fluent With/Without chain, generalized from
// bitset-backed component filters to the index adapter's sets.
package query

import (
	"enginecore/internal/ecs"
	"enginecore/internal/ecs/index"
)

// Builder accumulates component-type filters, then resolves them against
// idx in a single call.
type Builder struct {
	idx  *index.Adapter
	with []ecs.ComponentType
}

// New creates a query builder over idx.
func New(idx *index.Adapter) *Builder {
	return &Builder{idx: idx}
}

// With adds a required component type to the query.
func (b *Builder) With(typeID ecs.ComponentType) *Builder {
	b.with = append(b.with, typeID)
	return b
}

// Execute resolves the accumulated filters against the component index,
// intersecting smallest-set-first (delegated to index.Adapter).
func (b *Builder) Execute() []ecs.EntityID {
	if len(b.with) == 0 {
		return nil
	}
	strs := make([]string, len(b.with))
	for i, t := range b.with {
		strs[i] = string(t)
	}
	var raw []uint64
	if len(strs) == 1 {
		raw = b.idx.WithComponent(strs[0])
	} else {
		raw = b.idx.WithComponents(strs)
	}
	return toEntityIDs(raw)
}

// ListAllEntities returns every live entity.
func ListAllEntities(idx *index.Adapter) []ecs.EntityID {
	return toEntityIDs(idx.ListAllEntities())
}

// WithComponent returns every entity carrying typeID.
func WithComponent(idx *index.Adapter, typeID ecs.ComponentType) []ecs.EntityID {
	return toEntityIDs(idx.WithComponent(string(typeID)))
}

// WithComponents returns the intersection of entities carrying every
// type in typeIDs.
func WithComponents(idx *index.Adapter, typeIDs []ecs.ComponentType) []ecs.EntityID {
	strs := make([]string, len(typeIDs))
	for i, t := range typeIDs {
		strs[i] = string(t)
	}
	return toEntityIDs(idx.WithComponents(strs))
}

// Roots returns every entity with no parent.
func Roots(idx *index.Adapter) []ecs.EntityID {
	return toEntityIDs(idx.Roots())
}

// Descendants returns every descendant of e via BFS over the hierarchy
// index.
func Descendants(idx *index.Adapter, e ecs.EntityID) []ecs.EntityID {
	return toEntityIDs(idx.Descendants(uint64(e)))
}

// FindByName returns every entity with the given name.
func FindByName(idx *index.Adapter, name string) []ecs.EntityID {
	return toEntityIDs(idx.FindByName(name))
}

// FindByTag returns every entity with the given tag.
func FindByTag(idx *index.Adapter, tag string) []ecs.EntityID {
	return toEntityIDs(idx.FindByTag(tag))
}

func toEntityIDs(raw []uint64) []ecs.EntityID {
	if raw == nil {
		return nil
	}
	out := make([]ecs.EntityID, len(raw))
	for i, e := range raw {
		out[i] = ecs.EntityID(e)
	}
	return out
}
