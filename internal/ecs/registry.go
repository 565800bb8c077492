package ecs

import (
	"fmt"
	"reflect"
	"sort"
	"sync"

	"enginecore/internal/diag"
	"enginecore/internal/ecs/events"
	"enginecore/internal/ecs/storage"
	"enginecore/internal/errkit"
)

// hookDiagCapacity bounds how many recent hook-panic diagnostics a
// Registry retains; older entries are evicted first.
const hookDiagCapacity = 64

// ComponentRecord pairs a component's structured value with the order it
// was added in, so Store.DeleteEntity can run onRemove in reverse add-order
// per spec §3 invariant 4.
type ComponentRecord struct {
	Data     map[string]any
	AddOrder int
}

// Registry is the authoritative store for component instances: schema
// validation, dependency/conflict enforcement, lifecycle hooks, and
// sparse-set-backed columns per type. Grounded on the teacher's
// ComponentTypeInfo/ComponentRegistry shape (component.go) and
// storage/sparse_set.go + storage/component_store.go for the column
// layer, with real schema validation and dependency/conflict checks
// added (the teacher leaves both as unimplemented interface surface).
type Registry struct {
	mu sync.RWMutex

	definitions map[ComponentType]Definition
	columns     map[ComponentType]*storage.Column
	addCounter  map[EntityID]int

	bus  *events.Bus
	diag *diag.Sink
}

// NewRegistry creates an empty registry publishing lifecycle events on bus.
// It owns its own diagnostic sink (see Diagnostics) so a panicking hook is
// always logged even if the caller never inspects it.
func NewRegistry(bus *events.Bus) *Registry {
	return &Registry{
		definitions: make(map[ComponentType]Definition),
		columns:     make(map[ComponentType]*storage.Column),
		addCounter:  make(map[EntityID]int),
		bus:         bus,
		diag:        diag.NewSink(hookDiagCapacity),
	}
}

// Diagnostics returns the registry's hook-panic diagnostic sink: the
// recent-history and counts-by-code record backing the HookPanicked
// events a panicking OnAdd/OnRemove hook raises (spec §4.C failure
// model).
func (r *Registry) Diagnostics() *diag.Sink {
	return r.diag
}

// Register adds a component type definition. Re-registering the same
// TypeID with an identical definition succeeds (idempotent); a different
// definition fails with DuplicateTypeMismatch.
func (r *Registry) Register(def Definition) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if existing, ok := r.definitions[def.TypeID]; ok {
		if !definitionsEqual(existing, def) {
			return errkit.New(errkit.DuplicateTypeMismatch,
				fmt.Sprintf("component type %q already registered with a different definition", def.TypeID)).
				WithComponent(string(def.TypeID))
		}
		return nil
	}

	r.definitions[def.TypeID] = def
	r.columns[def.TypeID] = storage.NewColumn()
	return nil
}

func definitionsEqual(a, b Definition) bool {
	return reflect.DeepEqual(a.Fields, b.Fields) &&
		reflect.DeepEqual(a.Dependencies, b.Dependencies) &&
		reflect.DeepEqual(a.Conflicts, b.Conflicts) &&
		a.Category == b.Category
}

// IsRegistered reports whether typeID has a definition.
func (r *Registry) IsRegistered(typeID ComponentType) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.definitions[typeID]
	return ok
}

// AddComponent validates data against typeID's schema, checks
// dependencies and conflicts, writes the columns, runs onAdd, and emits
// component-added. On any failure the registry is left unchanged.
func (r *Registry) AddComponent(e EntityID, typeID ComponentType, data map[string]any) error {
	r.mu.Lock()

	def, ok := r.definitions[typeID]
	if !ok {
		r.mu.Unlock()
		return errkit.New(errkit.UnknownComponentType, fmt.Sprintf("component type %q not registered", typeID)).
			WithEntity(uint64(e)).WithComponent(string(typeID))
	}

	if col := r.columns[typeID]; col.Has(storage.EntityID(e)) {
		r.mu.Unlock()
		return errkit.New(errkit.ComponentExists, fmt.Sprintf("entity already has component %q", typeID)).
			WithEntity(uint64(e)).WithComponent(string(typeID))
	}

	for _, dep := range def.Dependencies {
		col, ok := r.columns[dep]
		if !ok || !col.Has(storage.EntityID(e)) {
			r.mu.Unlock()
			return errkit.New(errkit.DependencyUnmet, fmt.Sprintf("component %q requires %q", typeID, dep)).
				WithEntity(uint64(e)).WithComponent(string(typeID))
		}
	}
	for _, conflict := range def.Conflicts {
		if col, ok := r.columns[conflict]; ok && col.Has(storage.EntityID(e)) {
			r.mu.Unlock()
			return errkit.New(errkit.ConflictPresent, fmt.Sprintf("component %q conflicts with present %q", typeID, conflict)).
				WithEntity(uint64(e)).WithComponent(string(typeID))
		}
	}

	validated, fieldErrs := def.validate(data)
	if len(fieldErrs) > 0 {
		r.mu.Unlock()
		return errkit.New(errkit.ValidationFailed, fmt.Sprintf("invalid data for component %q", typeID)).
			WithEntity(uint64(e)).WithComponent(string(typeID)).WithFields(fieldErrs)
	}

	r.addCounter[e]++
	order := r.addCounter[e]
	r.columns[typeID].Set(storage.EntityID(e), &ComponentRecord{Data: validated, AddOrder: order})
	r.mu.Unlock()

	r.runHookIsolated(def.OnAdd, e, validated)

	if r.bus != nil {
		r.bus.Publish(events.Event{Type: events.ComponentAdded, Entity: uint64(e), Component: string(typeID), NewValue: validated})
	}
	return nil
}

// UpdateComponent merges partial into the entity's existing value for
// typeID (shallow, with one level of nested-map merge), re-validates the
// result, and writes it back.
func (r *Registry) UpdateComponent(e EntityID, typeID ComponentType, partial map[string]any) error {
	r.mu.Lock()

	def, ok := r.definitions[typeID]
	if !ok {
		r.mu.Unlock()
		return errkit.New(errkit.UnknownComponentType, fmt.Sprintf("component type %q not registered", typeID)).
			WithEntity(uint64(e)).WithComponent(string(typeID))
	}

	col := r.columns[typeID]
	raw, ok := col.Get(storage.EntityID(e))
	if !ok {
		r.mu.Unlock()
		return errkit.New(errkit.ComponentNotFound, fmt.Sprintf("entity has no component %q", typeID)).
			WithEntity(uint64(e)).WithComponent(string(typeID))
	}
	record := raw.(*ComponentRecord)
	oldData := record.Data

	merged := def.mergeShallow(oldData, partial)
	validated, fieldErrs := def.validate(merged)
	if len(fieldErrs) > 0 {
		r.mu.Unlock()
		return errkit.New(errkit.ValidationFailed, fmt.Sprintf("invalid update for component %q", typeID)).
			WithEntity(uint64(e)).WithComponent(string(typeID)).WithFields(fieldErrs)
	}

	col.Set(storage.EntityID(e), &ComponentRecord{Data: validated, AddOrder: record.AddOrder})
	r.mu.Unlock()

	if r.bus != nil {
		r.bus.Publish(events.Event{Type: events.ComponentUpdated, Entity: uint64(e), Component: string(typeID), OldValue: oldData, NewValue: validated})
	}
	return nil
}

// RemoveComponent runs onRemove and clears typeID's columns for e. It is
// a no-op if e has no such component.
func (r *Registry) RemoveComponent(e EntityID, typeID ComponentType) error {
	r.mu.Lock()

	def, ok := r.definitions[typeID]
	if !ok {
		r.mu.Unlock()
		return errkit.New(errkit.UnknownComponentType, fmt.Sprintf("component type %q not registered", typeID)).
			WithEntity(uint64(e)).WithComponent(string(typeID))
	}
	col := r.columns[typeID]
	raw, ok := col.Get(storage.EntityID(e))
	if !ok {
		r.mu.Unlock()
		return nil
	}
	record := raw.(*ComponentRecord)
	col.Remove(storage.EntityID(e))
	r.mu.Unlock()

	r.runHookIsolated(def.OnRemove, e, record.Data)

	if r.bus != nil {
		r.bus.Publish(events.Event{Type: events.ComponentRemoved, Entity: uint64(e), Component: string(typeID)})
	}
	return nil
}

// runHookIsolated runs a user hook without letting a panic corrupt
// registry state (spec §4.C failure model: "a hook cannot corrupt
// registry state"). The mutation has already been committed by the time
// this runs, so a panicking hook only loses its own side effects. The
// panic is wrapped as a HookError, recorded to the registry's
// diagnostic sink, and published as a HookPanicked event distinct from
// ComponentUpdated so subscribers can tell a genuine value change from
// a recovered failure.
func (r *Registry) runHookIsolated(hook func(*Registry, EntityID, map[string]any), e EntityID, data map[string]any) {
	if hook == nil {
		return
	}
	defer func() {
		if rec := recover(); rec != nil {
			err := errkit.New(errkit.HookError, fmt.Sprintf("hook panic: %v", rec)).WithEntity(uint64(e))
			if r.diag != nil {
				r.diag.Record(diag.Entry{
					Code:     string(errkit.HookError),
					Entity:   uint64(e),
					Message:  err.Message,
					Severity: diag.Warning,
				})
			}
			if r.bus != nil {
				r.bus.Publish(events.Event{Type: events.HookPanicked, Entity: uint64(e), NewValue: err})
			}
		}
	}()
	hook(r, e, data)
}

// GetComponentData returns a copy of e's structured value for typeID.
func (r *Registry) GetComponentData(e EntityID, typeID ComponentType) (map[string]any, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	col, ok := r.columns[typeID]
	if !ok {
		return nil, false
	}
	raw, ok := col.Get(storage.EntityID(e))
	if !ok {
		return nil, false
	}
	return raw.(*ComponentRecord).Data, true
}

// HasComponent reports whether e carries a component of typeID.
func (r *Registry) HasComponent(e EntityID, typeID ComponentType) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	col, ok := r.columns[typeID]
	return ok && col.Has(storage.EntityID(e))
}

// ListComponents returns every (typeID, data) pair attached to e.
func (r *Registry) ListComponents(e EntityID) []struct {
	TypeID ComponentType
	Data   map[string]any
} {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []struct {
		TypeID ComponentType
		Data   map[string]any
	}
	for typeID, col := range r.columns {
		if raw, ok := col.Get(storage.EntityID(e)); ok {
			out = append(out, struct {
				TypeID ComponentType
				Data   map[string]any
			}{TypeID: typeID, Data: raw.(*ComponentRecord).Data})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].TypeID < out[j].TypeID })
	return out
}

// RemoveAllInReverseOrder removes every component on e, running onRemove
// in reverse add-order, used by Store.DeleteEntity (spec §3 invariant 4).
func (r *Registry) RemoveAllInReverseOrder(e EntityID) {
	r.mu.RLock()
	type entry struct {
		typeID ComponentType
		order  int
	}
	var entries []entry
	for typeID, col := range r.columns {
		if raw, ok := col.Get(storage.EntityID(e)); ok {
			entries = append(entries, entry{typeID: typeID, order: raw.(*ComponentRecord).AddOrder})
		}
	}
	r.mu.RUnlock()

	sort.Slice(entries, func(i, j int) bool { return entries[i].order > entries[j].order })
	for _, en := range entries {
		_ = r.RemoveComponent(e, en.typeID)
	}

	r.mu.Lock()
	delete(r.addCounter, e)
	r.mu.Unlock()
}

// EntitiesWith returns every entity carrying typeID.
func (r *Registry) EntitiesWith(typeID ComponentType) []EntityID {
	r.mu.RLock()
	defer r.mu.RUnlock()
	col, ok := r.columns[typeID]
	if !ok {
		return nil
	}
	entities := col.Entities()
	out := make([]EntityID, len(entities))
	for i, se := range entities {
		out[i] = EntityID(se)
	}
	return out
}

// EntitiesWithAll returns the intersection of entities carrying every
// type in typeIDs, iterating the smallest set first per spec §4.C.
func (r *Registry) EntitiesWithAll(typeIDs []ComponentType) []EntityID {
	if len(typeIDs) == 0 {
		return nil
	}
	r.mu.RLock()
	defer r.mu.RUnlock()

	cols := make([]*storage.Column, 0, len(typeIDs))
	for _, t := range typeIDs {
		col, ok := r.columns[t]
		if !ok {
			return nil
		}
		cols = append(cols, col)
	}
	sort.Slice(cols, func(i, j int) bool { return cols[i].Len() < cols[j].Len() })

	smallest := cols[0].Entities()
	out := make([]EntityID, 0, len(smallest))
	for _, se := range smallest {
		present := true
		for _, col := range cols[1:] {
			if !col.Has(se) {
				present = false
				break
			}
		}
		if present {
			out = append(out, EntityID(se))
		}
	}
	return out
}
