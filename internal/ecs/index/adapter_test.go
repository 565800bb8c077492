package index

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"enginecore/internal/ecs/events"
)

func Test_Adapter_EntityCreated_AddsToEntityIndex(t *testing.T) {
	bus := events.NewBus()
	idx := New(bus)

	bus.Publish(events.Event{Type: events.EntityCreated, Entity: 1, Name: "hero"})

	assert.ElementsMatch(t, []uint64{1}, idx.ListAllEntities())
	assert.ElementsMatch(t, []uint64{1}, idx.FindByName("hero"))
}

func Test_Adapter_EntityDestroyed_RemovesFromEveryIndex(t *testing.T) {
	bus := events.NewBus()
	idx := New(bus)
	bus.Publish(events.Event{Type: events.EntityCreated, Entity: 1, Name: "hero"})
	bus.Publish(events.Event{Type: events.ComponentAdded, Entity: 1, Component: "Transform"})

	bus.Publish(events.Event{Type: events.EntityDestroyed, Entity: 1})

	assert.Empty(t, idx.ListAllEntities())
	assert.Empty(t, idx.WithComponent("Transform"))
	assert.Empty(t, idx.FindByName("hero"))
}

func Test_Adapter_ComponentAdded_UpdatesComponentIndex(t *testing.T) {
	bus := events.NewBus()
	idx := New(bus)

	bus.Publish(events.Event{Type: events.ComponentAdded, Entity: 1, Component: "Transform"})
	bus.Publish(events.Event{Type: events.ComponentAdded, Entity: 2, Component: "Transform"})

	assert.ElementsMatch(t, []uint64{1, 2}, idx.WithComponent("Transform"))
}

func Test_Adapter_WithComponents_ReturnsIntersection(t *testing.T) {
	bus := events.NewBus()
	idx := New(bus)
	bus.Publish(events.Event{Type: events.ComponentAdded, Entity: 1, Component: "Transform"})
	bus.Publish(events.Event{Type: events.ComponentAdded, Entity: 1, Component: "RigidBody"})
	bus.Publish(events.Event{Type: events.ComponentAdded, Entity: 2, Component: "Transform"})

	result := idx.WithComponents([]string{"Transform", "RigidBody"})

	assert.ElementsMatch(t, []uint64{1}, result)
}

func Test_Adapter_Roots_ExcludesEntitiesWithParent(t *testing.T) {
	bus := events.NewBus()
	idx := New(bus)
	bus.Publish(events.Event{Type: events.EntityCreated, Entity: 1})
	bus.Publish(events.Event{Type: events.EntityCreated, Entity: 2})
	bus.Publish(events.Event{Type: events.EntityParentChanged, Entity: 2, NewParent: 1})

	roots := idx.Roots()

	assert.ElementsMatch(t, []uint64{1}, roots)
}

func Test_Adapter_Descendants_WalksHierarchyBFS(t *testing.T) {
	bus := events.NewBus()
	idx := New(bus)
	bus.Publish(events.Event{Type: events.EntityCreated, Entity: 1})
	bus.Publish(events.Event{Type: events.EntityCreated, Entity: 2})
	bus.Publish(events.Event{Type: events.EntityCreated, Entity: 3})
	bus.Publish(events.Event{Type: events.EntityParentChanged, Entity: 2, NewParent: 1})
	bus.Publish(events.Event{Type: events.EntityParentChanged, Entity: 3, NewParent: 2})

	descendants := idx.Descendants(1)

	assert.ElementsMatch(t, []uint64{2, 3}, descendants)
}

func Test_Adapter_EntityParentChanged_MovesChildBetweenParents(t *testing.T) {
	bus := events.NewBus()
	idx := New(bus)
	bus.Publish(events.Event{Type: events.EntityCreated, Entity: 1})
	bus.Publish(events.Event{Type: events.EntityCreated, Entity: 2})
	bus.Publish(events.Event{Type: events.EntityCreated, Entity: 3})
	bus.Publish(events.Event{Type: events.EntityParentChanged, Entity: 3, NewParent: 1})

	bus.Publish(events.Event{Type: events.EntityParentChanged, Entity: 3, OldParent: 1, NewParent: 2})

	assert.Empty(t, idx.Descendants(1))
	assert.ElementsMatch(t, []uint64{3}, idx.Descendants(2))
}

func Test_Adapter_FindByTag_ReflectsRetagging(t *testing.T) {
	bus := events.NewBus()
	idx := New(bus)
	bus.Publish(events.Event{Type: events.EntityCreated, Entity: 1})
	bus.Publish(events.Event{Type: events.EntityTagged, Entity: 1, Tag: "enemy"})

	bus.Publish(events.Event{Type: events.EntityTagged, Entity: 1, Tag: "boss"})

	assert.Empty(t, idx.FindByTag("enemy"))
	assert.ElementsMatch(t, []uint64{1}, idx.FindByTag("boss"))
}
