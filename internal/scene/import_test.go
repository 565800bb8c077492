package scene

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"enginecore/internal/ecs"
)

func Test_Import_CreatesEntitiesWithGivenPersistentIds(t *testing.T) {
	store, reg, ids := newTestWorld(t)
	doc := &Document{
		Version: CurrentVersion,
		Entities: []Entity{
			{PersistentId: "11111111-1111-1111-1111-111111111111", Name: "root", Components: map[string]map[string]any{}},
		},
	}

	result, err := Import(doc, store, reg, ids, ImportOptions{})

	require.NoError(t, err)
	require.Len(t, result.Created, 1)
	pid, ok := store.PersistentID(result.Created[0])
	assert.True(t, ok)
	assert.Equal(t, "11111111-1111-1111-1111-111111111111", pid)
}

func Test_Import_ResolvesParentsInSecondPass(t *testing.T) {
	store, reg, ids := newTestWorld(t)
	childFirst := &Document{
		Version: CurrentVersion,
		Entities: []Entity{
			{PersistentId: "22222222-2222-2222-2222-222222222222", Name: "child", ParentPersistentId: "11111111-1111-1111-1111-111111111111", Components: map[string]map[string]any{}},
			{PersistentId: "11111111-1111-1111-1111-111111111111", Name: "parent", Components: map[string]map[string]any{}},
		},
	}

	result, err := Import(childFirst, store, reg, ids, ImportOptions{})
	require.NoError(t, err)

	var child, parent ecs.EntityID
	for _, e := range result.Created {
		if pid, _ := store.PersistentID(e); pid == "22222222-2222-2222-2222-222222222222" {
			child = e
		} else {
			parent = e
		}
	}
	actualParent, ok := store.Parent(child)
	require.True(t, ok)
	assert.Equal(t, parent, actualParent)
}

func Test_Import_DuplicatePersistentId_RemapsByDefault(t *testing.T) {
	store, reg, ids := newTestWorld(t)
	_, err := store.CreateEntity("existing", nil)
	require.NoError(t, err)
	existingPid, _ := store.PersistentID(mustFirstEntity(store))

	doc := &Document{
		Version: CurrentVersion,
		Entities: []Entity{
			{PersistentId: existingPid, Name: "incoming", Components: map[string]map[string]any{}},
		},
	}

	result, err := Import(doc, store, reg, ids, ImportOptions{OnDuplicate: DuplicateRemap})

	require.NoError(t, err)
	require.Contains(t, result.Remapped, existingPid)
	newPid := result.Remapped[existingPid]
	assert.NotEqual(t, existingPid, newPid)
}

func Test_Import_DuplicatePersistentId_FailsWhenPolicyIsFail(t *testing.T) {
	store, reg, ids := newTestWorld(t)
	_, err := store.CreateEntity("existing", nil)
	require.NoError(t, err)
	existingPid, _ := store.PersistentID(mustFirstEntity(store))

	doc := &Document{
		Version:  CurrentVersion,
		Entities: []Entity{{PersistentId: existingPid, Components: map[string]map[string]any{}}},
	}

	_, err = Import(doc, store, reg, ids, ImportOptions{OnDuplicate: DuplicateFail})

	assert.Error(t, err)
}

func Test_Import_DependencyOrderedComponentsAreBuffered(t *testing.T) {
	store, reg, ids := newTestWorld(t)
	doc := &Document{
		Version: CurrentVersion,
		Entities: []Entity{
			{
				PersistentId: "33333333-3333-3333-3333-333333333333",
				Components: map[string]map[string]any{
					string(ecs.ComponentMeshRenderer): {"mesh": "cube"},
					string(ecs.ComponentTransform):    {},
				},
			},
		},
	}

	result, err := Import(doc, store, reg, ids, ImportOptions{})

	require.NoError(t, err)
	require.Len(t, result.Created, 1)
	assert.True(t, reg.HasComponent(result.Created[0], ecs.ComponentMeshRenderer))
	assert.True(t, reg.HasComponent(result.Created[0], ecs.ComponentTransform))
}

func Test_Import_UnknownComponentTypePreservedAsOpaque(t *testing.T) {
	store, reg, ids := newTestWorld(t)
	doc := &Document{
		Version: CurrentVersion,
		Entities: []Entity{
			{
				PersistentId: "44444444-4444-4444-4444-444444444444",
				Components: map[string]map[string]any{
					"CustomGameplayFlag": {"value": true},
				},
			},
		},
	}

	result, err := Import(doc, store, reg, ids, ImportOptions{})

	require.NoError(t, err)
	require.Contains(t, result.Opaque, "44444444-4444-4444-4444-444444444444")
	assert.Equal(t, true, result.Opaque["44444444-4444-4444-4444-444444444444"]["CustomGameplayFlag"]["value"])
	assert.False(t, reg.HasComponent(result.Created[0], "CustomGameplayFlag"))
}

func Test_Import_UnsupportedVersionFails(t *testing.T) {
	store, reg, ids := newTestWorld(t)
	doc := &Document{Version: 99}

	_, err := Import(doc, store, reg, ids, ImportOptions{})

	assert.Error(t, err)
}

func mustFirstEntity(store *ecs.Store) ecs.EntityID {
	for _, e := range store.ActiveEntities() {
		return e
	}
	return 0
}
