package ecs

import (
	"fmt"
	"sync"

	"enginecore/internal/ecs/events"
	"enginecore/internal/errkit"
	"enginecore/internal/identity"
)

// entityRecord is the Store's bookkeeping for one live entity.
type entityRecord struct {
	persistentID string
	name         string
	active       bool
	tag          string
}

// Store manages entity lifecycle and hierarchy: creation, destruction,
// reparenting, and the active flag (spec §4.B). Grounded directly on the
// teacher's DefaultEntityManager (entity_manager.go): a dense active-set
// map, a recycled-id stack, and parentMap/childrenMap for hierarchy,
// extended with PersistentId issuance and automatic Transform attachment.
type Store struct {
	mu sync.Mutex

	nextID        EntityID
	recycled      []EntityID
	records       map[EntityID]*entityRecord
	parentMap     map[EntityID]EntityID
	childrenMap   map[EntityID][]EntityID
	byPersistentID map[string]EntityID

	identity *identity.Service
	registry *Registry
	bus      *events.Bus
}

// NewStore creates an entity store backed by reg for components and bus
// for lifecycle events, issuing PersistentIds from ids.
func NewStore(reg *Registry, bus *events.Bus, ids *identity.Service) *Store {
	return &Store{
		nextID:         1,
		records:        make(map[EntityID]*entityRecord),
		parentMap:      make(map[EntityID]EntityID),
		childrenMap:    make(map[EntityID][]EntityID),
		byPersistentID: make(map[string]EntityID),
		identity:       ids,
		registry:       reg,
		bus:            bus,
	}
}

// CreateEntity allocates an eid, issues a PersistentId, attaches an
// identity-valued Transform, and optionally sets parent. parent must be an
// entity that existed before this call (the new eid itself is rejected),
// so a new entity can never close a cycle.
func (s *Store) CreateEntity(name string, parent *EntityID) (EntityID, error) {
	s.mu.Lock()

	var id EntityID
	if n := len(s.recycled); n > 0 {
		id = s.recycled[n-1]
		s.recycled = s.recycled[:n-1]
	} else {
		id = s.nextID
		s.nextID++
	}

	pid := s.identity.Generate()
	if err := s.identity.Reserve(pid); err != nil {
		s.mu.Unlock()
		return 0, err
	}

	s.records[id] = &entityRecord{persistentID: pid, name: name, active: true}
	s.byPersistentID[pid] = id

	if parent != nil {
		if _, ok := s.records[*parent]; !ok || *parent == id {
			delete(s.records, id)
			delete(s.byPersistentID, pid)
			s.identity.Release(pid)
			s.mu.Unlock()
			return 0, errkit.New(errkit.EntityNotFound, fmt.Sprintf("parent entity %d not found", *parent)).WithEntity(uint64(*parent))
		}
		s.parentMap[id] = *parent
		s.childrenMap[*parent] = append(s.childrenMap[*parent], id)
	}
	s.mu.Unlock()

	if err := s.registry.AddComponent(id, ComponentPersistentId, map[string]any{"value": pid}); err != nil {
		return 0, err
	}
	if err := s.registry.AddComponent(id, ComponentTransform, map[string]any{}); err != nil {
		return 0, err
	}

	if s.bus != nil {
		s.bus.Publish(events.Event{Type: events.EntityCreated, Entity: uint64(id), Name: name})
	}
	return id, nil
}

// CreateEntityWithPersistentID allocates an eid and sets parent like
// CreateEntity, but binds the entity to a caller-supplied PersistentId
// instead of generating one and attaches only the PersistentId component,
// no Transform. The scene importer uses this and then adds the document's
// own components; it has already resolved duplicates against the identity
// service and reserved pid itself, so this method assumes pid is already
// reserved and only records it.
func (s *Store) CreateEntityWithPersistentID(name string, pid string, parent *EntityID) (EntityID, error) {
	s.mu.Lock()

	var id EntityID
	if n := len(s.recycled); n > 0 {
		id = s.recycled[n-1]
		s.recycled = s.recycled[:n-1]
	} else {
		id = s.nextID
		s.nextID++
	}

	s.records[id] = &entityRecord{persistentID: pid, name: name, active: true}
	s.byPersistentID[pid] = id

	if parent != nil {
		if _, ok := s.records[*parent]; !ok || *parent == id {
			delete(s.records, id)
			delete(s.byPersistentID, pid)
			s.mu.Unlock()
			return 0, errkit.New(errkit.EntityNotFound, fmt.Sprintf("parent entity %d not found", *parent)).WithEntity(uint64(*parent))
		}
		s.parentMap[id] = *parent
		s.childrenMap[*parent] = append(s.childrenMap[*parent], id)
	}
	s.mu.Unlock()

	if err := s.registry.AddComponent(id, ComponentPersistentId, map[string]any{"value": pid}); err != nil {
		return 0, err
	}

	if s.bus != nil {
		s.bus.Publish(events.Event{Type: events.EntityCreated, Entity: uint64(id), Name: name})
	}
	return id, nil
}

// DeleteEntity recursively deletes e's descendants post-order, removes
// all components (onRemove firing in reverse add-order), releases e's
// PersistentId, and recycles its eid.
func (s *Store) DeleteEntity(e EntityID) error {
	s.mu.Lock()
	if _, ok := s.records[e]; !ok {
		s.mu.Unlock()
		return errkit.New(errkit.EntityNotFound, fmt.Sprintf("entity %d not found", e)).WithEntity(uint64(e))
	}
	children := append([]EntityID(nil), s.childrenMap[e]...)
	s.mu.Unlock()

	for _, child := range children {
		if err := s.DeleteEntity(child); err != nil {
			return err
		}
	}

	s.mu.Lock()
	record := s.records[e]
	if parent, hasParent := s.parentMap[e]; hasParent {
		s.childrenMap[parent] = removeEntity(s.childrenMap[parent], e)
		delete(s.parentMap, e)
	}
	delete(s.childrenMap, e)
	delete(s.records, e)
	delete(s.byPersistentID, record.persistentID)
	s.recycled = append(s.recycled, e)
	s.mu.Unlock()

	s.registry.RemoveAllInReverseOrder(e)
	s.identity.Release(record.persistentID)

	if s.bus != nil {
		s.bus.Publish(events.Event{Type: events.EntityDestroyed, Entity: uint64(e)})
	}
	return nil
}

// SetParent changes e's parent, rejecting cycles (a reparent that would
// make e its own ancestor). Passing parent=nil clears e's parent,
// making it a root.
func (s *Store) SetParent(e EntityID, parent *EntityID) error {
	s.mu.Lock()

	if _, ok := s.records[e]; !ok {
		s.mu.Unlock()
		return errkit.New(errkit.EntityNotFound, fmt.Sprintf("entity %d not found", e)).WithEntity(uint64(e))
	}

	var oldParent EntityID
	hadParent := false
	if p, ok := s.parentMap[e]; ok {
		oldParent = p
		hadParent = true
	}

	if parent != nil {
		if _, ok := s.records[*parent]; !ok {
			s.mu.Unlock()
			return errkit.New(errkit.EntityNotFound, fmt.Sprintf("parent entity %d not found", *parent)).WithEntity(uint64(*parent))
		}
		if e == *parent || s.isAncestorLocked(e, *parent) {
			s.mu.Unlock()
			return errkit.New(errkit.CircularParenting, fmt.Sprintf("reparenting %d under %d would create a cycle", e, *parent)).WithEntity(uint64(e))
		}
	}

	if hadParent {
		s.childrenMap[oldParent] = removeEntity(s.childrenMap[oldParent], e)
		delete(s.parentMap, e)
	}
	if parent != nil {
		s.parentMap[e] = *parent
		s.childrenMap[*parent] = append(s.childrenMap[*parent], e)
	}
	s.mu.Unlock()

	if s.bus != nil {
		ev := events.Event{Type: events.EntityParentChanged, Entity: uint64(e)}
		if hadParent {
			ev.OldParent = uint64(oldParent)
		}
		if parent != nil {
			ev.NewParent = uint64(*parent)
		}
		s.bus.Publish(ev)
	}
	return nil
}

// isAncestorLocked reports whether candidate is an ancestor of e,
// walking parentMap. Caller must hold s.mu. Ported from the teacher's
// DefaultEntityManager.IsAncestor / wouldCreateCycle check.
func (s *Store) isAncestorLocked(e, candidate EntityID) bool {
	current := candidate
	for {
		parent, ok := s.parentMap[current]
		if !ok {
			return false
		}
		if parent == e {
			return true
		}
		current = parent
	}
}

// SetActive flags e active or inactive. Inactive entities are skipped by
// the script runtime but remain queryable. Publishes entity-active-changed,
// mirroring SetParent/SetTag (spec §4.B: every entity mutation emits one
// event).
func (s *Store) SetActive(e EntityID, active bool) error {
	s.mu.Lock()
	record, ok := s.records[e]
	if !ok {
		s.mu.Unlock()
		return errkit.New(errkit.EntityNotFound, fmt.Sprintf("entity %d not found", e)).WithEntity(uint64(e))
	}
	record.active = active
	s.mu.Unlock()

	if s.bus != nil {
		s.bus.Publish(events.Event{Type: events.EntityActiveChanged, Entity: uint64(e), NewValue: active})
	}
	return nil
}

// IsActive reports e's active flag.
func (s *Store) IsActive(e EntityID) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	record, ok := s.records[e]
	return ok && record.active
}

// SetTag assigns a string tag to e, used by find_by_tag. Ported from the
// teacher's DefaultEntityManager.SetTag; generalized to emit through the
// shared event bus instead of a dedicated tag-changed handler list.
func (s *Store) SetTag(e EntityID, tag string) error {
	s.mu.Lock()
	record, ok := s.records[e]
	if !ok {
		s.mu.Unlock()
		return errkit.New(errkit.EntityNotFound, fmt.Sprintf("entity %d not found", e)).WithEntity(uint64(e))
	}
	record.tag = tag
	s.mu.Unlock()

	if s.bus != nil {
		s.bus.Publish(events.Event{Type: events.EntityTagged, Entity: uint64(e), Tag: tag})
	}
	return nil
}

// Tag returns e's tag, if any.
func (s *Store) Tag(e EntityID) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	record, ok := s.records[e]
	if !ok || record.tag == "" {
		return "", false
	}
	return record.tag, true
}

// IsValid reports whether e is a currently live entity.
func (s *Store) IsValid(e EntityID) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.records[e]
	return ok
}

// PersistentID returns e's PersistentId string.
func (s *Store) PersistentID(e EntityID) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	record, ok := s.records[e]
	if !ok {
		return "", false
	}
	return record.persistentID, true
}

// EntityByPersistentID resolves a PersistentId string back to its live
// EntityID, the reverse of PersistentID. Used to turn a PersistentId-typed
// script parameter or scene reference into a live handle.
func (s *Store) EntityByPersistentID(pid string) (EntityID, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.byPersistentID[pid]
	return e, ok
}

// Name returns e's human-readable name.
func (s *Store) Name(e EntityID) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	record, ok := s.records[e]
	if !ok {
		return "", false
	}
	return record.name, true
}

// Parent returns e's parent, if any.
func (s *Store) Parent(e EntityID) (EntityID, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.parentMap[e]
	return p, ok
}

// Children returns a copy of e's direct children.
func (s *Store) Children(e EntityID) []EntityID {
	s.mu.Lock()
	defer s.mu.Unlock()
	children := s.childrenMap[e]
	out := make([]EntityID, len(children))
	copy(out, children)
	return out
}

// ActiveEntities returns every currently live entity id.
func (s *Store) ActiveEntities() []EntityID {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]EntityID, 0, len(s.records))
	for e := range s.records {
		out = append(out, e)
	}
	return out
}

// ClearAll deletes every entity, used before loading a new scene.
func (s *Store) ClearAll() error {
	for _, e := range s.roots() {
		if err := s.DeleteEntity(e); err != nil {
			return err
		}
	}
	return nil
}

func (s *Store) roots() []EntityID {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []EntityID
	for e := range s.records {
		if _, hasParent := s.parentMap[e]; !hasParent {
			out = append(out, e)
		}
	}
	return out
}

func removeEntity(list []EntityID, target EntityID) []EntityID {
	out := list[:0]
	for _, e := range list {
		if e != target {
			out = append(out, e)
		}
	}
	return out
}
