// Package scene implements versioned scene import/export (spec §4.D): a
// full v5 snapshot format, streaming chunked export (import takes a whole
// document, with progress and cancellation), v4-to-v5
// migration, and delta/overrides application. No teacher file grounds this
// package directly (the teacher has no serializer); it follows the
// teacher's *errkit.EngineError and encoding/json idiom throughout.
package scene

import (
	"time"

	"enginecore/internal/errkit"
)

// CurrentVersion is the schema version this package writes on export.
const CurrentVersion = 5

// LegacyVersion is the last version this package can migrate from.
const LegacyVersion = 4

// Entity is one exported entity: its stable identity, optional display
// name, optional parent reference (by PersistentId, never by EntityID, so
// exports are portable across worlds), and its component data keyed by
// type id.
type Entity struct {
	PersistentId       string                    `json:"persistentId"`
	Name               string                    `json:"name,omitempty"`
	ParentPersistentId string                    `json:"parentPersistentId,omitempty"`
	Components         map[string]map[string]any `json:"components"`
}

// Document is the full v5 export record.
type Document struct {
	Version   int            `json:"version"`
	Timestamp *time.Time     `json:"timestamp,omitempty"`
	Metadata  map[string]any `json:"metadata,omitempty"`
	Entities  []Entity       `json:"entities"`
}

// Patch describes the partial component updates recorded for one entity in
// a delta/overrides document.
type Patch struct {
	PersistentId string                    `json:"persistentId"`
	Components   map[string]map[string]any `json:"components"`
}

// Delta is the output of computing overrides between a base scene and the
// current world: a set of per-entity component patches.
type Delta struct {
	SceneId string  `json:"sceneId"`
	Patches []Patch `json:"patches"`
}

// validateVersion rejects anything this package cannot read.
func validateVersion(version int) *errkit.EngineError {
	switch version {
	case CurrentVersion, LegacyVersion:
		return nil
	default:
		return errkit.New(errkit.UnsupportedVersion, "scene document version is not supported").
			WithFields([]errkit.FieldError{{Path: "version", Message: "expected 4 or 5"}})
	}
}
