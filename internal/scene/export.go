package scene

import (
	"sort"

	"enginecore/internal/ecs"
)

// EntitySource is the entity-bookkeeping surface Export reads identity,
// name, and hierarchy from. *ecs.Store satisfies it.
type EntitySource interface {
	ActiveEntities() []ecs.EntityID
	PersistentID(e ecs.EntityID) (string, bool)
	Name(e ecs.EntityID) (string, bool)
	Parent(e ecs.EntityID) (ecs.EntityID, bool)
}

// ComponentSource is the component-data surface Export reads from.
// *ecs.Registry satisfies it.
type ComponentSource interface {
	ListComponents(e ecs.EntityID) []struct {
		TypeID ecs.ComponentType
		Data   map[string]any
	}
}

// ProgressFunc reports export/import progress. total is nil when the
// caller did not supply a known entity count up front.
type ProgressFunc func(done int, total *int)

// ExportOptions controls Export/ExportStreaming.
type ExportOptions struct {
	Metadata  map[string]any
	ChunkSize int
	Progress  ProgressFunc
	Cancel    <-chan struct{}
}

// Export produces a complete v5 Document. Entities are ordered ascending
// by PersistentId so that exporting an unchanged world twice produces a
// byte-identical result (spec §4.D "byte-identical outputs").
func Export(entities EntitySource, components ComponentSource, opts ExportOptions) (*Document, error) {
	out, err := collectEntities(entities, components, opts.Progress, opts.Cancel)
	if err != nil {
		return nil, err
	}
	return &Document{
		Version:  CurrentVersion,
		Metadata: opts.Metadata,
		Entities: out,
	}, nil
}

// ExportStreaming yields entities in chunks of opts.ChunkSize (default 100)
// via emit, in the same stable PersistentId-ascending order Export uses.
// emit is called once per chunk; returning an error from emit aborts the
// stream immediately.
func ExportStreaming(entitySource EntitySource, components ComponentSource, opts ExportOptions, emit func(chunk []Entity) error) error {
	chunkSize := opts.ChunkSize
	if chunkSize <= 0 {
		chunkSize = 100
	}
	entities, err := collectEntities(entitySource, components, opts.Progress, opts.Cancel)
	if err != nil {
		return err
	}
	for start := 0; start < len(entities); start += chunkSize {
		end := start + chunkSize
		if end > len(entities) {
			end = len(entities)
		}
		select {
		case <-opts.Cancel:
			return errResourceCancelled()
		default:
		}
		if err := emit(entities[start:end]); err != nil {
			return err
		}
	}
	return nil
}

func collectEntities(entitySource EntitySource, components ComponentSource, progress ProgressFunc, cancel <-chan struct{}) ([]Entity, error) {
	eids := entitySource.ActiveEntities()
	out := make([]Entity, 0, len(eids))
	total := len(eids)
	for i, eid := range eids {
		select {
		case <-cancel:
			return nil, errResourceCancelled()
		default:
		}

		pid, ok := entitySource.PersistentID(eid)
		if !ok {
			continue
		}
		ent := Entity{PersistentId: pid, Components: map[string]map[string]any{}}
		if name, ok := entitySource.Name(eid); ok {
			ent.Name = name
		}
		if parent, ok := entitySource.Parent(eid); ok {
			if ppid, ok := entitySource.PersistentID(parent); ok {
				ent.ParentPersistentId = ppid
			}
		}
		for _, c := range components.ListComponents(eid) {
			ent.Components[string(c.TypeID)] = c.Data
		}
		out = append(out, ent)
		if progress != nil {
			progress(i+1, &total)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].PersistentId < out[j].PersistentId })
	return out, nil
}
