// Package render defines the boundary between the engine core and a host
// rendering/input/audio backend. The core never imports a concrete
// graphics library directly; it depends only on the interfaces here, and
// a host wires a concrete Adapter (render/ebiten_adapter.go is the
// reference implementation) at composition time (spec §4.F).
package render

import "enginecore/internal/ecs"

// FrameColumns is the read-only view over the component columns a
// renderer needs to draw one frame. SyncFrame must not write through it;
// render state lives entirely on the adapter side.
type FrameColumns struct {
	Transform    func(e ecs.EntityID) (map[string]any, bool)
	MeshRenderer func(e ecs.EntityID) (map[string]any, bool)
	Material     func(e ecs.EntityID) (map[string]any, bool)
	Light        func(e ecs.EntityID) (map[string]any, bool)
	Camera       func(e ecs.EntityID) (map[string]any, bool)
	Entities     []ecs.EntityID
}

// Adapter is the renderer's half of the frame boundary: given the current
// frame's component data, draw it. Implementations own every graphics
// resource and must not mutate the columns they are handed.
type Adapter interface {
	SyncFrame(columns FrameColumns) error
}

// View is the restricted per-entity object surfaced to scripts through
// the `three` API (spec §4.E surface 3): material property setters and a
// narrow set of read/query operations, gated to a whitelisted field set
// by the implementation rather than by the caller.
type View interface {
	SetColor(e ecs.EntityID, r, g, b, a float64) error
	SetMetalness(e ecs.EntityID, value float64) error
	SetRoughness(e ecs.EntityID, value float64) error
	SetOpacity(e ecs.EntityID, value float64) error
	SetVisible(e ecs.EntityID, visible bool) error
	Raycast(origin, dir ecs.Vector3) (RaycastHit, bool)
	RaycastAll(origin, dir ecs.Vector3) []RaycastHit
}

// RaycastHit is one result of a View.Raycast or query surface raycast.
type RaycastHit struct {
	Entity   ecs.EntityID
	Point    ecs.Vector3
	Normal   ecs.Vector3
	Distance float64
}

// InputSource is the polling surface behind the `input` API (spec §4.E
// surface 5).
type InputSource interface {
	IsKeyDown(key string) bool
	IsKeyPressed(key string) bool
	IsKeyReleased(key string) bool
	IsMouseButtonDown(button int) bool
	CursorPosition() (x, y float64)
	CursorDelta() (dx, dy float64)
	WheelDelta() float64
}

// AudioSource is the playback surface behind the `audio` API (spec §4.E
// surface 9).
type AudioSource interface {
	Play(clip string, volume float64, loop bool, spatial bool) (soundID int64, err error)
	Stop(soundID int64) error
	StopClip(clip string) error
	AttachToEntity(soundID int64, e ecs.EntityID, follow bool) error
}
