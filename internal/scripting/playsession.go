package scripting

import (
	"strconv"

	"enginecore/internal/ecs"
)

// componentSnapshot is one entity's component data at the moment play mode
// started, used to revert structural changes scripts made to pre-existing
// entities while playing (spec §4.E "Play session").
type componentSnapshot struct {
	entity ecs.EntityID
	typeID ecs.ComponentType
	data   map[string]any
}

// PlaySession tracks entities created during play mode and snapshots of
// components modified on pre-existing entities, so Stop can restore the
// pre-play world exactly.
type PlaySession struct {
	active       bool
	createdByGO  []ecs.EntityID
	snapshots    []componentSnapshot
	snapshotSeen map[string]bool
}

// NewPlaySession creates an inactive play session.
func NewPlaySession() *PlaySession {
	return &PlaySession{}
}

// Start begins tracking. Calling Start while already active is a no-op.
func (p *PlaySession) Start() {
	if p.active {
		return
	}
	p.active = true
	p.createdByGO = nil
	p.snapshots = nil
	p.snapshotSeen = map[string]bool{}
}

// Active reports whether play mode is currently running.
func (p *PlaySession) Active() bool {
	return p.active
}

// TrackCreated records an entity created via gameObject/prefab while play
// is active, destroyed on Stop.
func (p *PlaySession) TrackCreated(e ecs.EntityID) {
	if p.active {
		p.createdByGO = append(p.createdByGO, e)
	}
}

// SnapshotBeforeMutation records a pre-existing entity's component data
// the first time play mode sees it mutated, so Stop can revert it. Only
// the first snapshot per (entity, component) pair is kept.
func (p *PlaySession) SnapshotBeforeMutation(e ecs.EntityID, typeID ecs.ComponentType, priorData map[string]any) {
	if !p.active {
		return
	}
	key := string(typeID) + "#" + snapshotEntityKey(e)
	if p.snapshotSeen[key] {
		return
	}
	p.snapshotSeen[key] = true
	dataCopy := make(map[string]any, len(priorData))
	for k, v := range priorData {
		dataCopy[k] = v
	}
	p.snapshots = append(p.snapshots, componentSnapshot{entity: e, typeID: typeID, data: dataCopy})
}

func snapshotEntityKey(e ecs.EntityID) string {
	return strconv.FormatUint(uint64(e), 10)
}

// Stop destroys every tracked created entity and restores every snapshot,
// then deactivates the session. destroy and restore are provided by the
// caller (the runtime), which holds the actual Store/Registry.
func (p *PlaySession) Stop(destroy func(ecs.EntityID) error, restore func(ecs.EntityID, ecs.ComponentType, map[string]any) error) {
	if !p.active {
		return
	}
	for i := len(p.createdByGO) - 1; i >= 0; i-- {
		_ = destroy(p.createdByGO[i])
	}
	for _, snap := range p.snapshots {
		_ = restore(snap.entity, snap.typeID, snap.data)
	}
	p.active = false
	p.createdByGO = nil
	p.snapshots = nil
	p.snapshotSeen = nil
}
