package scripting

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"enginecore/internal/ecs"
)

func Test_PlaySession_InactiveIgnoresTrackingCalls(t *testing.T) {
	p := NewPlaySession()
	p.TrackCreated(ecs.EntityID(1))
	p.SnapshotBeforeMutation(ecs.EntityID(1), ecs.ComponentTransform, map[string]any{"x": 1})

	assert.False(t, p.Active())
	assert.Empty(t, p.createdByGO)
	assert.Empty(t, p.snapshots)
}

func Test_PlaySession_SnapshotOnlyKeepsFirstPerEntityAndComponent(t *testing.T) {
	p := NewPlaySession()
	p.Start()

	p.SnapshotBeforeMutation(ecs.EntityID(1), ecs.ComponentTransform, map[string]any{"x": 1.0})
	p.SnapshotBeforeMutation(ecs.EntityID(1), ecs.ComponentTransform, map[string]any{"x": 2.0})

	assert.Len(t, p.snapshots, 1)
	assert.Equal(t, 1.0, p.snapshots[0].data["x"])
}

func Test_PlaySession_StopDestroysCreatedAndRestoresSnapshotsThenDeactivates(t *testing.T) {
	p := NewPlaySession()
	p.Start()
	p.TrackCreated(ecs.EntityID(10))
	p.SnapshotBeforeMutation(ecs.EntityID(1), ecs.ComponentTransform, map[string]any{"x": 5.0})

	var destroyed []ecs.EntityID
	var restored []ecs.EntityID
	p.Stop(
		func(e ecs.EntityID) error { destroyed = append(destroyed, e); return nil },
		func(e ecs.EntityID, _ ecs.ComponentType, _ map[string]any) error { restored = append(restored, e); return nil },
	)

	assert.Equal(t, []ecs.EntityID{10}, destroyed)
	assert.Equal(t, []ecs.EntityID{1}, restored)
	assert.False(t, p.Active())
}
