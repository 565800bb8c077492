package query

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"enginecore/internal/ecs"
	"enginecore/internal/ecs/events"
	"enginecore/internal/ecs/index"
)

func Test_Builder_Execute_WithSingleType(t *testing.T) {
	bus := events.NewBus()
	idx := index.New(bus)
	bus.Publish(events.Event{Type: events.ComponentAdded, Entity: 1, Component: "Transform"})

	result := New(idx).With(ecs.ComponentTransform).Execute()

	assert.ElementsMatch(t, []ecs.EntityID{1}, result)
}

func Test_Builder_Execute_WithMultipleTypesIntersects(t *testing.T) {
	bus := events.NewBus()
	idx := index.New(bus)
	bus.Publish(events.Event{Type: events.ComponentAdded, Entity: 1, Component: "Transform"})
	bus.Publish(events.Event{Type: events.ComponentAdded, Entity: 1, Component: "RigidBody"})
	bus.Publish(events.Event{Type: events.ComponentAdded, Entity: 2, Component: "Transform"})

	result := New(idx).With(ecs.ComponentTransform).With(ecs.ComponentRigidBody).Execute()

	assert.ElementsMatch(t, []ecs.EntityID{1}, result)
}

func Test_Descendants_WalksHierarchy(t *testing.T) {
	bus := events.NewBus()
	idx := index.New(bus)
	bus.Publish(events.Event{Type: events.EntityCreated, Entity: 1})
	bus.Publish(events.Event{Type: events.EntityCreated, Entity: 2})
	bus.Publish(events.Event{Type: events.EntityParentChanged, Entity: 2, NewParent: 1})

	result := Descendants(idx, ecs.EntityID(1))

	assert.ElementsMatch(t, []ecs.EntityID{2}, result)
}

func Test_Roots_ReturnsOnlyParentlessEntities(t *testing.T) {
	bus := events.NewBus()
	idx := index.New(bus)
	bus.Publish(events.Event{Type: events.EntityCreated, Entity: 1})
	bus.Publish(events.Event{Type: events.EntityCreated, Entity: 2})
	bus.Publish(events.Event{Type: events.EntityParentChanged, Entity: 2, NewParent: 1})

	result := Roots(idx)

	assert.ElementsMatch(t, []ecs.EntityID{1}, result)
}
