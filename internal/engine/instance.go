package engine

import (
	"log"
	"sort"
	"sync"

	"enginecore/internal/ecs"
	"enginecore/internal/ecs/components"
	"enginecore/internal/ecs/events"
	"enginecore/internal/ecs/index"
	"enginecore/internal/identity"
	"enginecore/internal/render"
	"enginecore/internal/scene"
	"enginecore/internal/scripting"
)

// System is one ordered step of an Instance's per-frame schedule.
// Grounded on the teacher's System interface (GetType/GetPriority/
// Update), narrowed to what engine.Instance actually drives: this
// engine's systems are plain functions over the instance rather than a
// polymorphic registry of GetRequiredComponents/Shutdown/thread-safety-level
// machinery, since nothing in spec.md calls for that generality.
type System interface {
	Name() string
	Priority() int
	Update(inst *Instance, deltaTime float64) error
}

// Instance is one isolated engine world: its own identity service, ECS
// registry/store/index, scripting runtime, and (optionally) a renderer
// adapter. Two Instances never share mutable state (spec §4.F "multiple
// isolated instances"); a process hosting several just constructs
// several.
type Instance struct {
	mu sync.Mutex

	Config   Config
	Identity *identity.Service
	Bus      *events.Bus
	Registry *ecs.Registry
	Store    *ecs.Store
	Index    *index.Adapter
	Scripts  *scripting.Runtime

	adapter render.Adapter

	systems  []System
	disposed bool

	// opaque holds component data for types the registry doesn't
	// recognize, preserved across an ImportScene so a later ExportScene
	// round-trips it losslessly (spec §4.D step 7) instead of silently
	// dropping it at the facade boundary.
	opaque map[string]map[string]map[string]any
}

// New constructs a ready-to-run Instance: registers the built-in
// component set, wires the index adapter to the event bus, and seeds the
// scripting runtime's RNG from cfg.RNGSeed (spec §8 invariant 15).
func New(cfg Config) (*Instance, error) {
	bus := events.NewBus()
	reg := ecs.NewRegistry(bus)
	if err := components.RegisterAll(reg); err != nil {
		return nil, err
	}
	ids := identity.NewService(cfg.IDKind)
	store := ecs.NewStore(reg, bus, ids)
	idx := index.New(bus)
	scripts := scripting.NewRuntime(store, reg, idx, cfg.RNGSeed)

	return &Instance{
		Config:   cfg,
		Identity: ids,
		Bus:      bus,
		Registry: reg,
		Store:    store,
		Index:    idx,
		Scripts:  scripts,
	}, nil
}

// BindRenderer attaches the render adapter this instance drives each
// frame and exposes as the scripting runtime's three/input/audio
// surfaces. adapter may additionally implement render.View/
// render.InputSource/render.AudioSource (as EbitenAdapter does); any it
// doesn't, those script surfaces stay no-ops.
func (inst *Instance) BindRenderer(adapter render.Adapter) {
	inst.mu.Lock()
	defer inst.mu.Unlock()
	inst.adapter = adapter

	view, _ := adapter.(render.View)
	input, _ := adapter.(render.InputSource)
	audio, _ := adapter.(render.AudioSource)
	inst.Scripts.BindRenderViews(view, input, audio)
}

// AddSystem registers a system in the schedule. Systems run in
// descending priority order; equal priority ties break by registration
// order (matches the teacher's SystemManagerImpl.executionOrder
// append-then-stable-sort behavior).
func (inst *Instance) AddSystem(sys System) {
	inst.mu.Lock()
	defer inst.mu.Unlock()
	inst.systems = append(inst.systems, sys)
	sort.SliceStable(inst.systems, func(i, j int) bool {
		return inst.systems[i].Priority() > inst.systems[j].Priority()
	})
}

// Tick runs one frame: every registered System in priority order, then
// the scripting runtime, then (if bound) syncs the renderer from the
// current component columns.
func (inst *Instance) Tick(deltaTime float64) error {
	inst.mu.Lock()
	systems := append([]System(nil), inst.systems...)
	scripts := inst.Scripts
	adapter := inst.adapter
	inst.mu.Unlock()

	for _, sys := range systems {
		if err := sys.Update(inst, deltaTime); err != nil {
			log.Printf("engine: system %q returned error: %v", sys.Name(), err)
			return err
		}
	}

	if err := scripts.Tick(deltaTime); err != nil {
		return err
	}

	if adapter != nil {
		return adapter.SyncFrame(inst.frameColumns())
	}
	return nil
}

// ExportScene serializes the instance's current world into a v5 scene
// document, ordered ascending by PersistentId (scene.Export), then merges
// back any opaque component data a prior ImportScene preserved for this
// instance (spec §4.D step 7 "round-trips losslessly").
func (inst *Instance) ExportScene(opts scene.ExportOptions) (*scene.Document, error) {
	doc, err := scene.Export(inst.Store, inst.Registry, opts)
	if err != nil {
		return nil, err
	}
	inst.mu.Lock()
	opaque := inst.opaque
	inst.mu.Unlock()
	if len(opaque) > 0 {
		scene.MergeOpaque(doc, opaque)
	}
	return doc, nil
}

// ImportScene loads doc into the instance's world (scene.Import),
// resolving duplicate PersistentIds and legacy ids through the instance's
// own identity service, and retains any component data for types the
// registry doesn't recognize so a later ExportScene can restore it.
func (inst *Instance) ImportScene(doc *scene.Document, opts scene.ImportOptions) (*scene.ImportResult, error) {
	result, err := scene.Import(doc, inst.Store, inst.Registry, inst.Identity, opts)
	if err != nil {
		return nil, err
	}
	inst.mu.Lock()
	inst.opaque = result.Opaque
	inst.mu.Unlock()
	return result, nil
}

func (inst *Instance) frameColumns() render.FrameColumns {
	get := func(typeID ecs.ComponentType) func(ecs.EntityID) (map[string]any, bool) {
		return func(e ecs.EntityID) (map[string]any, bool) { return inst.Registry.GetComponentData(e, typeID) }
	}
	return render.FrameColumns{
		Transform:    get(ecs.ComponentTransform),
		MeshRenderer: get(ecs.ComponentMeshRenderer),
		Material:     get(ecs.ComponentMaterial),
		Light:        get(ecs.ComponentLight),
		Camera:       get(ecs.ComponentCamera),
		Entities:     inst.Store.ActiveEntities(),
	}
}

// Dispose detaches the script of every entity Store.ActiveEntities returns
// (running on_destroy for started scripts) and drops the system schedule
// and the render adapter, per spec.md §4.F "explicit dispose." The Store,
// Registry, Index, Identity and Scripts fields stay set. A disposed
// Instance must not be ticked again.
func (inst *Instance) Dispose() {
	inst.mu.Lock()
	defer inst.mu.Unlock()
	if inst.disposed {
		return
	}
	inst.disposed = true
	for _, e := range inst.Store.ActiveEntities() {
		if inst.Registry.HasComponent(e, ecs.ComponentScript) {
			inst.Scripts.DetachScript(e)
		}
	}
	inst.systems = nil
	inst.adapter = nil
}
