package scene

import (
	"enginecore/internal/ecs"
	"enginecore/internal/errkit"
)

// ComputeDelta diffs base against current, both ordered by PersistentId,
// producing one Patch per entity whose component data changed. Entities
// present only in current (added since base was taken) or only in base
// (deleted) are represented by, respectively, a patch carrying their full
// component set, or no patch at all — deletions are not expressible as a
// component-level patch and must be tracked by the caller separately.
func ComputeDelta(sceneID string, base, current *Document) *Delta {
	baseByPid := map[string]Entity{}
	for _, e := range base.Entities {
		baseByPid[e.PersistentId] = e
	}

	delta := &Delta{SceneId: sceneID}
	for _, curr := range current.Entities {
		prior, existed := baseByPid[curr.PersistentId]
		patch := Patch{PersistentId: curr.PersistentId, Components: map[string]map[string]any{}}
		for typeID, data := range curr.Components {
			if !existed {
				patch.Components[typeID] = data
				continue
			}
			priorData, had := prior.Components[typeID]
			if !had {
				patch.Components[typeID] = data
				continue
			}
			if changed := diffComponent(priorData, data); len(changed) > 0 {
				patch.Components[typeID] = changed
			}
		}
		if len(patch.Components) > 0 {
			delta.Patches = append(delta.Patches, patch)
		}
	}
	return delta
}

// diffComponent returns only the fields in next that differ from prior,
// one level deep (matching the registry's own shallow-merge semantics for
// update_component).
func diffComponent(prior, next map[string]any) map[string]any {
	out := map[string]any{}
	for k, v := range next {
		if pv, ok := prior[k]; !ok || !valuesEqual(pv, v) {
			out[k] = v
		}
	}
	return out
}

func valuesEqual(a, b any) bool {
	am, aok := a.(map[string]any)
	bm, bok := b.(map[string]any)
	if aok && bok {
		if len(am) != len(bm) {
			return false
		}
		for k, av := range am {
			bv, ok := bm[k]
			if !ok || !valuesEqual(av, bv) {
				return false
			}
		}
		return true
	}
	return a == b
}

// PatchTarget is the surface ApplyDelta writes through. *ecs.Registry
// satisfies it.
type PatchTarget interface {
	UpdateComponent(e ecs.EntityID, typeID ecs.ComponentType, partial map[string]any) error
	AddComponent(e ecs.EntityID, typeID ecs.ComponentType, data map[string]any) error
	HasComponent(e ecs.EntityID, typeID ecs.ComponentType) bool
}

// ApplyDelta applies every patch in d against components, resolving each
// patch's PersistentId through resolve. It performs a structural merge
// per component (UpdateComponent's shallow merge), so fields the patch
// doesn't mention are left untouched — last-writer-wins on the fields it
// does mention. Re-applying the same delta is idempotent: each field ends
// up holding the same value as after the first application.
func ApplyDelta(d *Delta, resolve func(pid string) (ecs.EntityID, bool), components PatchTarget) []error {
	var errs []error
	for _, patch := range d.Patches {
		eid, ok := resolve(patch.PersistentId)
		if !ok {
			errs = append(errs, errkit.New(errkit.EntityNotFound, "delta patch references unknown PersistentId "+patch.PersistentId))
			continue
		}
		for typeID, fields := range patch.Components {
			ct := ecs.ComponentType(typeID)
			var err error
			if components.HasComponent(eid, ct) {
				err = components.UpdateComponent(eid, ct, fields)
			} else {
				err = components.AddComponent(eid, ct, fields)
			}
			if err != nil {
				errs = append(errs, err)
			}
		}
	}
	return errs
}
