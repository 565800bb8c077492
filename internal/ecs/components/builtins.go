// Package components defines the registry definitions for the engine's
// special component types (spec §4.C): Transform, MeshRenderer, Camera,
// Light, RigidBody, MeshCollider, Material, PersistentId, and Script.
//
// Ported from the teacher's components/transform.go, physics.go,
// sprite.go, and audio.go field shapes, re-expressed as schema-validated
// Definitions instead of concrete structs with hand-written getters —
// the registry stores everything as structured values, not Go types.
package components

import (
	"math"

	"enginecore/internal/ecs"
)

var ptr = func(f float64) *float64 { return &f }

// DegToRad converts degrees to the radians Transform.Rotation stores.
// Renderer/editor adapters working in degrees must convert at this one
// boundary point (spec §4.C: unit mismatches across boundaries are a
// known source of bugs).
func DegToRad(deg ecs.Vector3) ecs.Vector3 {
	return ecs.Vector3{X: deg.X * math.Pi / 180, Y: deg.Y * math.Pi / 180, Z: deg.Z * math.Pi / 180}
}

// RadToDeg converts Transform.Rotation's stored radians to degrees.
func RadToDeg(rad ecs.Vector3) ecs.Vector3 {
	return ecs.Vector3{X: rad.X * 180 / math.Pi, Y: rad.Y * 180 / math.Pi, Z: rad.Z * 180 / math.Pi}
}

// Transform holds local position/rotation/scale. Rotation is stored in
// radians (matches the teacher's TransformComponent.SetRotation, which
// documents "rotation in radians"). No world matrix is stored or cached.
func Transform() ecs.Definition {
	return ecs.Definition{
		TypeID:   ecs.ComponentTransform,
		Category: "core",
		Fields: []ecs.FieldSchema{
			{Name: "position", Kind: ecs.FieldVec3, Default: ecs.Vector3{}},
			{Name: "rotation", Kind: ecs.FieldVec3, Default: ecs.Vector3{}},
			{Name: "scale", Kind: ecs.FieldVec3, Default: ecs.Vector3{X: 1, Y: 1, Z: 1}},
		},
	}
}

// MeshRenderer references a mesh and material for the external rendering
// adapter to draw. Ported from components/sprite.go's draw-order/
// visibility fields, generalized from 2D sprite frames to a mesh/material
// reference pair.
func MeshRenderer() ecs.Definition {
	return ecs.Definition{
		TypeID:       ecs.ComponentMeshRenderer,
		Category:     "rendering",
		Dependencies: []ecs.ComponentType{ecs.ComponentTransform},
		Fields: []ecs.FieldSchema{
			{Name: "mesh", Kind: ecs.FieldString, Default: ""},
			{Name: "material", Kind: ecs.FieldString, Default: ""},
			{Name: "visible", Kind: ecs.FieldBool, Default: true},
			{Name: "layer", Kind: ecs.FieldInt, Default: 0},
		},
	}
}

// Camera marks an entity as a view source for the renderer adapter.
func Camera() ecs.Definition {
	return ecs.Definition{
		TypeID:       ecs.ComponentCamera,
		Category:     "rendering",
		Dependencies: []ecs.ComponentType{ecs.ComponentTransform},
		Fields: []ecs.FieldSchema{
			{Name: "fov", Kind: ecs.FieldFloat, Default: 60.0, Min: ptr(1), Max: ptr(179)},
			{Name: "near", Kind: ecs.FieldFloat, Default: 0.1, Min: ptr(0)},
			{Name: "far", Kind: ecs.FieldFloat, Default: 1000.0, Min: ptr(0)},
			{Name: "active", Kind: ecs.FieldBool, Default: true},
		},
	}
}

// Light describes a renderer-adapter light source.
func Light() ecs.Definition {
	return ecs.Definition{
		TypeID:       ecs.ComponentLight,
		Category:     "rendering",
		Dependencies: []ecs.ComponentType{ecs.ComponentTransform},
		Fields: []ecs.FieldSchema{
			{Name: "kind", Kind: ecs.FieldEnum, Default: "point", Enum: []string{"point", "directional", "spot"}},
			{Name: "color", Kind: ecs.FieldColor, Default: ecs.Color{R: 1, G: 1, B: 1, A: 1}},
			{Name: "intensity", Kind: ecs.FieldFloat, Default: 1.0, Min: ptr(0)},
		},
	}
}

// RigidBody is the physics adapter's per-entity body description. Ported
// from components/physics.go (mass, velocity, drag, kinematic flag).
func RigidBody() ecs.Definition {
	return ecs.Definition{
		TypeID:       ecs.ComponentRigidBody,
		Category:     "physics",
		Dependencies: []ecs.ComponentType{ecs.ComponentTransform},
		Fields: []ecs.FieldSchema{
			{Name: "mass", Kind: ecs.FieldFloat, Default: 1.0, Min: ptr(0)},
			{Name: "velocity", Kind: ecs.FieldVec3, Default: ecs.Vector3{}},
			{Name: "drag", Kind: ecs.FieldFloat, Default: 0.0, Min: ptr(0)},
			{Name: "kinematic", Kind: ecs.FieldBool, Default: false},
		},
	}
}

// MeshCollider is the physics adapter's collision shape reference.
// Conflicts with nothing by default but requires RigidBody or Transform
// depending on host use; spec leaves conflict/dependency sets to the
// host, so only Transform is required here.
func MeshCollider() ecs.Definition {
	return ecs.Definition{
		TypeID:       ecs.ComponentMeshCollider,
		Category:     "physics",
		Dependencies: []ecs.ComponentType{ecs.ComponentTransform},
		Fields: []ecs.FieldSchema{
			{Name: "shape", Kind: ecs.FieldEnum, Default: "box", Enum: []string{"box", "sphere", "mesh"}},
			{Name: "trigger", Kind: ecs.FieldBool, Default: false},
		},
	}
}

// Material describes the surface appearance the renderer adapter
// samples when drawing a MeshRenderer. Ported from components/sprite.go
// tint/blend fields, generalized past 2D sprites.
func Material() ecs.Definition {
	return ecs.Definition{
		TypeID:   ecs.ComponentMaterial,
		Category: "rendering",
		Fields: []ecs.FieldSchema{
			{Name: "color", Kind: ecs.FieldColor, Default: ecs.Color{R: 1, G: 1, B: 1, A: 1}},
			{Name: "texture", Kind: ecs.FieldString, Default: ""},
			{Name: "shader", Kind: ecs.FieldString, Default: "standard"},
		},
	}
}

// PersistentId stores the entity's stable cross-session identity. The
// Entity Store writes this on create_entity; it is not meant to be
// mutated by update_component directly (scene import does so via a
// dedicated path that also updates the identity.Service reservation).
func PersistentId() ecs.Definition {
	return ecs.Definition{
		TypeID:   ecs.ComponentPersistentId,
		Category: "core",
		Fields: []ecs.FieldSchema{
			{Name: "value", Kind: ecs.FieldString, Default: ""},
		},
	}
}

// Script references the Lua source an entity runs each frame through the
// scripting runtime, plus per-entity script-local state the runtime
// manages (spec §4.E). parameters declares named values the host (editor
// or loader) can set per instance; the runtime injects them into the
// script's Lua environment as the `params` global on attach.
func Script() ecs.Definition {
	return ecs.Definition{
		TypeID:   ecs.ComponentScript,
		Category: "scripting",
		Fields: []ecs.FieldSchema{
			{Name: "source", Kind: ecs.FieldString, Default: ""},
			{Name: "enabled", Kind: ecs.FieldBool, Default: true},
			{Name: "parameters", Kind: ecs.FieldMap, Default: map[string]any{}},
		},
	}
}

// RegisterAll registers every built-in component type with reg. Hosts
// that need additional gameplay component types (the teacher's
// components/health.go and components/ai.go are examples of this
// category) register them the same way, tagged with their own category.
func RegisterAll(reg *ecs.Registry) error {
	defs := []ecs.Definition{
		Transform(),
		MeshRenderer(),
		Camera(),
		Light(),
		RigidBody(),
		MeshCollider(),
		Material(),
		PersistentId(),
		Script(),
	}
	for _, def := range defs {
		if err := reg.Register(def); err != nil {
			return err
		}
	}
	return nil
}
