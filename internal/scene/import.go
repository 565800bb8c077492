package scene

import (
	"fmt"

	"enginecore/internal/ecs"
	"enginecore/internal/errkit"
	"enginecore/internal/identity"
)

// DuplicatePolicy selects how Import handles a PersistentId already
// reserved in the target world.
type DuplicatePolicy int

const (
	// DuplicateRemap generates a fresh PersistentId for the incoming
	// entity and records the old->new mapping in ImportResult.Remapped.
	DuplicateRemap DuplicatePolicy = iota
	// DuplicateFail aborts the import with errkit.DuplicatePersistentId.
	DuplicateFail
)

// EntityTarget is the entity-lifecycle surface Import writes through.
// *ecs.Store satisfies it.
type EntityTarget interface {
	CreateEntityWithPersistentID(name, pid string, parent *ecs.EntityID) (ecs.EntityID, error)
	SetParent(e ecs.EntityID, parent *ecs.EntityID) error
	DeleteEntity(e ecs.EntityID) error
}

// ComponentTarget is the component surface Import writes through.
// *ecs.Registry satisfies it.
type ComponentTarget interface {
	AddComponent(e ecs.EntityID, typeID ecs.ComponentType, data map[string]any) error
	IsRegistered(typeID ecs.ComponentType) bool
}

// IdentityTarget is the PersistentId bookkeeping surface Import uses.
// *identity.Service satisfies it.
type IdentityTarget interface {
	Reserve(id string) error
	Generate() string
	Release(id string)
	MigrateIfLegacy(id string) (string, *identity.MigrationRecord)
}

// ImportWarning records a non-fatal condition surfaced during import.
type ImportWarning struct {
	PersistentId string
	Message      string
}

// ImportResult summarizes what Import did.
type ImportResult struct {
	Created  []ecs.EntityID
	Remapped map[string]string
	Warnings []ImportWarning
	// Opaque holds component data for type ids the target registry does
	// not recognize, keyed by final (post-remap) PersistentId then type
	// id, so a later Export call can merge it back in and round-trip it
	// losslessly without the registry ever validating its schema.
	Opaque map[string]map[string]map[string]any
}

// ImportOptions controls Import's duplicate and cancellation behavior.
type ImportOptions struct {
	OnDuplicate      DuplicatePolicy
	Progress         ProgressFunc
	Cancel           <-chan struct{}
	RollbackOnCancel bool
}

// Import applies doc to the target world following spec §4.D's seven-step
// resolution order: validate, migrate legacy ids, reserve/remap
// duplicates, create with no parent, add components (dependency-ordered,
// retry-buffered), resolve parents in a second pass, and preserve unknown
// component types as opaque payloads.
func Import(doc *Document, entities EntityTarget, components ComponentTarget, ids IdentityTarget, opts ImportOptions) (*ImportResult, error) {
	if verr := validateVersion(doc.Version); verr != nil {
		return nil, verr
	}
	working := doc
	if doc.Version == LegacyVersion {
		working = migrateV4ToV5(doc)
	}

	result := &ImportResult{
		Remapped: map[string]string{},
		Opaque:   map[string]map[string]map[string]any{},
	}
	pidToEntity := map[string]ecs.EntityID{}
	pidRemap := map[string]string{} // original doc pid -> final pid used in the world
	total := len(working.Entities)

	createdAny := func() bool { return len(result.Created) > 0 }
	rollback := func() {
		if !opts.RollbackOnCancel {
			return
		}
		for i := len(result.Created) - 1; i >= 0; i-- {
			_ = entities.DeleteEntity(result.Created[i])
		}
		result.Created = nil
	}

	// Steps 1-4: migrate id, reserve/remap, create with no parent.
	type pendingComponents struct {
		entity ecs.EntityID
		data   map[string]map[string]any
	}
	var pending []pendingComponents

	for i, src := range working.Entities {
		select {
		case <-opts.Cancel:
			rollback()
			return result, errResourceCancelled()
		default:
		}

		finalPid := src.PersistentId
		if migrated, rec := ids.MigrateIfLegacy(finalPid); rec != nil {
			finalPid = migrated
			result.Warnings = append(result.Warnings, ImportWarning{
				PersistentId: src.PersistentId,
				Message:      fmt.Sprintf("migrated legacy PersistentId %q to %q", rec.OldID, rec.NewID),
			})
		}

		if err := ids.Reserve(finalPid); err != nil {
			switch opts.OnDuplicate {
			case DuplicateFail:
				if createdAny() {
					rollback()
				}
				return result, errkit.New(errkit.DuplicatePersistentId, fmt.Sprintf("duplicate PersistentId %q", finalPid))
			default: // DuplicateRemap
				remapped := ids.Generate()
				if err := ids.Reserve(remapped); err != nil {
					if createdAny() {
						rollback()
					}
					return result, err
				}
				result.Remapped[finalPid] = remapped
				pidRemap[src.PersistentId] = remapped
				finalPid = remapped
			}
		} else {
			pidRemap[src.PersistentId] = finalPid
		}

		eid, err := entities.CreateEntityWithPersistentID(src.Name, finalPid, nil)
		if err != nil {
			if createdAny() {
				rollback()
			}
			return result, err
		}
		result.Created = append(result.Created, eid)
		pidToEntity[finalPid] = eid
		pending = append(pending, pendingComponents{entity: eid, data: src.Components})

		if opts.Progress != nil {
			opts.Progress(i+1, &total)
		}
	}

	// Step 5: add components, buffering dependency failures for a retry
	// round once every entity in the document exists.
	type componentAdd struct {
		entity ecs.EntityID
		typeID string
		data   map[string]any
		pid    string
	}
	var buffered []componentAdd
	for _, pc := range pending {
		for typeID, data := range pc.data {
			// The entity already carries its final (possibly remapped)
			// PersistentId from CreateEntityWithPersistentID.
			if typeID == string(ecs.ComponentPersistentId) {
				continue
			}
			if !components.IsRegistered(ecs.ComponentType(typeID)) {
				finalPid := persistentIdOf(pidToEntity, pc.entity)
				if result.Opaque[finalPid] == nil {
					result.Opaque[finalPid] = map[string]map[string]any{}
				}
				result.Opaque[finalPid][typeID] = data
				result.Warnings = append(result.Warnings, ImportWarning{
					PersistentId: finalPid,
					Message:      fmt.Sprintf("unknown component type %q preserved as opaque payload", typeID),
				})
				continue
			}
			if err := components.AddComponent(pc.entity, ecs.ComponentType(typeID), data); err != nil {
				if errkit.Is(err, errkit.DependencyUnmet) {
					buffered = append(buffered, componentAdd{entity: pc.entity, typeID: typeID, data: data})
					continue
				}
				return result, err
			}
		}
	}
	for round := 0; len(buffered) > 0 && round < len(buffered)+1; round++ {
		var next []componentAdd
		progressed := false
		for _, add := range buffered {
			if err := components.AddComponent(add.entity, ecs.ComponentType(add.typeID), add.data); err != nil {
				if errkit.Is(err, errkit.DependencyUnmet) {
					next = append(next, add)
					continue
				}
				return result, err
			}
			progressed = true
		}
		buffered = next
		if !progressed {
			break
		}
	}
	for _, add := range buffered {
		return result, errkit.New(errkit.DependencyUnmet,
			fmt.Sprintf("component %q on entity %d could not resolve its dependencies", add.typeID, add.entity))
	}

	// Step 6: resolve parents now that every entity exists.
	for _, src := range working.Entities {
		if src.ParentPersistentId == "" {
			continue
		}
		childPid, ok := pidRemap[src.PersistentId]
		if !ok {
			continue
		}
		child, ok := pidToEntity[childPid]
		if !ok {
			continue
		}
		parentPid, ok := pidRemap[src.ParentPersistentId]
		if !ok {
			result.Warnings = append(result.Warnings, ImportWarning{
				PersistentId: childPid,
				Message:      fmt.Sprintf("parent PersistentId %q not found in import set", src.ParentPersistentId),
			})
			continue
		}
		parent, ok := pidToEntity[parentPid]
		if !ok {
			continue
		}
		if err := entities.SetParent(child, &parent); err != nil {
			return result, err
		}
	}

	return result, nil
}

func persistentIdOf(index map[string]ecs.EntityID, e ecs.EntityID) string {
	for pid, eid := range index {
		if eid == e {
			return pid
		}
	}
	return ""
}

// migrateV4ToV5 converts a legacy v4 document to the v5 shape in memory.
// v4 differs only in that it has no documented ParentPersistentId field
// name change from v5 (both versions reference parents by PersistentId);
// the conversion here exists to stamp the version field and give future
// v4-specific field renames a single place to land, per spec.md §4.D
// "v4 payloads are converted in-memory to v5 and imported."
func migrateV4ToV5(doc *Document) *Document {
	migrated := &Document{
		Version:  CurrentVersion,
		Metadata: doc.Metadata,
		Entities: doc.Entities,
	}
	return migrated
}
