package ecs

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"enginecore/internal/ecs/events"
	"enginecore/internal/errkit"
)

func healthDefinition() Definition {
	return Definition{
		TypeID: "Health",
		Fields: []FieldSchema{
			{Name: "current", Kind: FieldFloat, Default: 100.0},
			{Name: "max", Kind: FieldFloat, Default: 100.0},
		},
	}
}

func Test_Registry_Register_IsIdempotentForIdenticalDefinition(t *testing.T) {
	reg := NewRegistry(nil)
	def := healthDefinition()

	require.NoError(t, reg.Register(def))
	err := reg.Register(def)

	assert.NoError(t, err)
}

func Test_Registry_Register_RejectsMismatchedRedefinition(t *testing.T) {
	reg := NewRegistry(nil)
	require.NoError(t, reg.Register(healthDefinition()))

	mismatched := healthDefinition()
	mismatched.Category = "gameplay"
	err := reg.Register(mismatched)

	require.Error(t, err)
	assert.True(t, errkit.Is(err, errkit.DuplicateTypeMismatch))
}

func Test_Registry_AddComponent_RejectsUnknownType(t *testing.T) {
	reg := NewRegistry(nil)

	err := reg.AddComponent(1, "Nonexistent", nil)

	require.Error(t, err)
	assert.True(t, errkit.Is(err, errkit.UnknownComponentType))
}

func Test_Registry_AddComponent_FillsDefaultsAndStores(t *testing.T) {
	reg := NewRegistry(nil)
	require.NoError(t, reg.Register(healthDefinition()))

	err := reg.AddComponent(1, "Health", map[string]any{"current": 50.0})

	require.NoError(t, err)
	data, ok := reg.GetComponentData(1, "Health")
	require.True(t, ok)
	assert.Equal(t, 50.0, data["current"])
	assert.Equal(t, 100.0, data["max"])
}

func Test_Registry_AddComponent_RejectsUnknownField(t *testing.T) {
	reg := NewRegistry(nil)
	require.NoError(t, reg.Register(healthDefinition()))

	err := reg.AddComponent(1, "Health", map[string]any{"bogus": 1})

	require.Error(t, err)
	assert.True(t, errkit.Is(err, errkit.ValidationFailed))
}

func Test_Registry_AddComponent_RejectsDuplicate(t *testing.T) {
	reg := NewRegistry(nil)
	require.NoError(t, reg.Register(healthDefinition()))
	require.NoError(t, reg.AddComponent(1, "Health", nil))

	err := reg.AddComponent(1, "Health", nil)

	require.Error(t, err)
	assert.True(t, errkit.Is(err, errkit.ComponentExists))
}

func Test_Registry_AddComponent_RejectsUnmetDependency(t *testing.T) {
	reg := NewRegistry(nil)
	require.NoError(t, reg.Register(healthDefinition()))
	buff := Definition{
		TypeID:       "Buff",
		Dependencies: []ComponentType{"Health"},
	}
	require.NoError(t, reg.Register(buff))

	err := reg.AddComponent(1, "Buff", nil)

	require.Error(t, err)
	assert.True(t, errkit.Is(err, errkit.DependencyUnmet))
}

func Test_Registry_AddComponent_RejectsConflict(t *testing.T) {
	reg := NewRegistry(nil)
	require.NoError(t, reg.Register(healthDefinition()))
	exclusive := Definition{
		TypeID:    "Invincible",
		Conflicts: []ComponentType{"Health"},
	}
	require.NoError(t, reg.Register(exclusive))
	require.NoError(t, reg.AddComponent(1, "Health", nil))

	err := reg.AddComponent(1, "Invincible", nil)

	require.Error(t, err)
	assert.True(t, errkit.Is(err, errkit.ConflictPresent))
}

func Test_Registry_AddComponent_EmitsComponentAdded(t *testing.T) {
	bus := events.NewBus()
	reg := NewRegistry(bus)
	require.NoError(t, reg.Register(healthDefinition()))
	var got events.Event
	bus.Subscribe(events.ComponentAdded, func(e events.Event) { got = e })

	require.NoError(t, reg.AddComponent(1, "Health", nil))

	assert.Equal(t, uint64(1), got.Entity)
	assert.Equal(t, "Health", got.Component)
}

func Test_Registry_UpdateComponent_MergesShallowAndRevalidates(t *testing.T) {
	reg := NewRegistry(nil)
	require.NoError(t, reg.Register(healthDefinition()))
	require.NoError(t, reg.AddComponent(1, "Health", map[string]any{"current": 100.0}))

	err := reg.UpdateComponent(1, "Health", map[string]any{"current": 40.0})

	require.NoError(t, err)
	data, _ := reg.GetComponentData(1, "Health")
	assert.Equal(t, 40.0, data["current"])
	assert.Equal(t, 100.0, data["max"])
}

func Test_Registry_UpdateComponent_FailsWhenMissing(t *testing.T) {
	reg := NewRegistry(nil)
	require.NoError(t, reg.Register(healthDefinition()))

	err := reg.UpdateComponent(1, "Health", map[string]any{"current": 1.0})

	require.Error(t, err)
	assert.True(t, errkit.Is(err, errkit.ComponentNotFound))
}

func Test_Registry_RemoveComponent_IsNoOpWhenAbsent(t *testing.T) {
	reg := NewRegistry(nil)
	require.NoError(t, reg.Register(healthDefinition()))

	err := reg.RemoveComponent(1, "Health")

	assert.NoError(t, err)
}

func Test_Registry_RemoveComponent_ClearsData(t *testing.T) {
	reg := NewRegistry(nil)
	require.NoError(t, reg.Register(healthDefinition()))
	require.NoError(t, reg.AddComponent(1, "Health", nil))

	require.NoError(t, reg.RemoveComponent(1, "Health"))

	assert.False(t, reg.HasComponent(1, "Health"))
}

func Test_Registry_RemoveAllInReverseOrder_RunsHooksInReverseAddOrder(t *testing.T) {
	reg := NewRegistry(nil)
	var order []string
	first := Definition{
		TypeID:   "First",
		OnRemove: func(_ *Registry, _ EntityID, _ map[string]any) { order = append(order, "first") },
	}
	second := Definition{
		TypeID:   "Second",
		OnRemove: func(_ *Registry, _ EntityID, _ map[string]any) { order = append(order, "second") },
	}
	require.NoError(t, reg.Register(first))
	require.NoError(t, reg.Register(second))
	require.NoError(t, reg.AddComponent(1, "First", nil))
	require.NoError(t, reg.AddComponent(1, "Second", nil))

	reg.RemoveAllInReverseOrder(1)

	assert.Equal(t, []string{"second", "first"}, order)
}

func Test_Registry_EntitiesWithAll_ReturnsIntersection(t *testing.T) {
	reg := NewRegistry(nil)
	require.NoError(t, reg.Register(healthDefinition()))
	tag := Definition{TypeID: "Tag"}
	require.NoError(t, reg.Register(tag))

	require.NoError(t, reg.AddComponent(1, "Health", nil))
	require.NoError(t, reg.AddComponent(1, "Tag", nil))
	require.NoError(t, reg.AddComponent(2, "Health", nil))

	result := reg.EntitiesWithAll([]ComponentType{"Health", "Tag"})

	assert.ElementsMatch(t, []EntityID{1}, result)
}

func Test_Registry_HookPanicDoesNotCorruptState(t *testing.T) {
	reg := NewRegistry(nil)
	panicky := Definition{
		TypeID: "Panicky",
		OnAdd:  func(_ *Registry, _ EntityID, _ map[string]any) { panic("boom") },
	}
	require.NoError(t, reg.Register(panicky))

	err := reg.AddComponent(1, "Panicky", nil)

	require.NoError(t, err)
	assert.True(t, reg.HasComponent(1, "Panicky"))
}
