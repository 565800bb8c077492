package scene

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"enginecore/internal/ecs"
	"enginecore/internal/ecs/components"
	"enginecore/internal/ecs/events"
	"enginecore/internal/identity"
)

func newTestWorld(t *testing.T) (*ecs.Store, *ecs.Registry, *identity.Service) {
	t.Helper()
	bus := events.NewBus()
	reg := ecs.NewRegistry(bus)
	require.NoError(t, components.RegisterAll(reg))
	ids := identity.NewService(identity.KindUUID)
	return ecs.NewStore(reg, bus, ids), reg, ids
}

func Test_Export_OrdersEntitiesByPersistentIdAscending(t *testing.T) {
	store, reg, _ := newTestWorld(t)
	var pids []string
	for i := 0; i < 5; i++ {
		e, err := store.CreateEntity("e", nil)
		require.NoError(t, err)
		pid, _ := store.PersistentID(e)
		pids = append(pids, pid)
	}

	doc, err := Export(store, reg, ExportOptions{})

	require.NoError(t, err)
	require.Len(t, doc.Entities, 5)
	for i := 1; i < len(doc.Entities); i++ {
		assert.Less(t, doc.Entities[i-1].PersistentId, doc.Entities[i].PersistentId)
	}
	_ = pids
}

func Test_Export_RepeatedExportIsByteIdentical(t *testing.T) {
	store, reg, _ := newTestWorld(t)
	_, err := store.CreateEntity("root", nil)
	require.NoError(t, err)

	docA, err := Export(store, reg, ExportOptions{})
	require.NoError(t, err)
	docB, err := Export(store, reg, ExportOptions{})
	require.NoError(t, err)

	rawA, err := Encode(docA)
	require.NoError(t, err)
	rawB, err := Encode(docB)
	require.NoError(t, err)
	assert.Equal(t, rawA, rawB)
}

func Test_Export_RecordsParentByPersistentId(t *testing.T) {
	store, reg, _ := newTestWorld(t)
	parent, err := store.CreateEntity("parent", nil)
	require.NoError(t, err)
	child, err := store.CreateEntity("child", &parent)
	require.NoError(t, err)
	parentPid, _ := store.PersistentID(parent)
	childPid, _ := store.PersistentID(child)

	doc, err := Export(store, reg, ExportOptions{})
	require.NoError(t, err)

	var exportedChild Entity
	for _, e := range doc.Entities {
		if e.PersistentId == childPid {
			exportedChild = e
		}
	}
	assert.Equal(t, parentPid, exportedChild.ParentPersistentId)
}

func Test_Export_IncludesComponentData(t *testing.T) {
	store, reg, _ := newTestWorld(t)
	e, err := store.CreateEntity("root", nil)
	require.NoError(t, err)
	require.NoError(t, reg.UpdateComponent(e, ecs.ComponentTransform, map[string]any{"position": ecs.Vector3{X: 1, Y: 2, Z: 3}}))

	doc, err := Export(store, reg, ExportOptions{})

	require.NoError(t, err)
	assert.Contains(t, doc.Entities[0].Components, string(ecs.ComponentTransform))
}

func Test_ExportStreaming_EmitsChunksOfRequestedSize(t *testing.T) {
	store, reg, _ := newTestWorld(t)
	for i := 0; i < 5; i++ {
		_, err := store.CreateEntity("e", nil)
		require.NoError(t, err)
	}

	var chunkSizes []int
	err := ExportStreaming(store, reg, ExportOptions{ChunkSize: 2}, func(chunk []Entity) error {
		chunkSizes = append(chunkSizes, len(chunk))
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, []int{2, 2, 1}, chunkSizes)
}

func Test_ExportStreaming_CancelStopsEarly(t *testing.T) {
	store, reg, _ := newTestWorld(t)
	for i := 0; i < 5; i++ {
		_, err := store.CreateEntity("e", nil)
		require.NoError(t, err)
	}
	cancel := make(chan struct{})
	close(cancel)

	var chunks int
	err := ExportStreaming(store, reg, ExportOptions{ChunkSize: 1, Cancel: cancel}, func(chunk []Entity) error {
		chunks++
		return nil
	})

	assert.Error(t, err)
	assert.Equal(t, 0, chunks)
}
