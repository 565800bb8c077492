package scripting

import (
	"fmt"
	"sort"
	"sync"

	lua "github.com/yuin/gopher-lua"

	"enginecore/internal/ecs"
	"enginecore/internal/ecs/index"
	"enginecore/internal/errkit"
	"enginecore/internal/render"
)

// entityScript is one entity's live script state: its compiled proto, its
// sandboxed Lua environment, and the lifecycle flags the frame schedule
// consults.
type entityScript struct {
	entity   ecs.EntityID
	compiled *CompiledScript
	state    *lua.LState
	started  bool
	errored  bool
	errMsg   string
}

// structuralMutation is a create/destroy requested mid-frame by a script,
// applied at the end of the frame (spec §4.E frame schedule step 5) so
// intra-frame observers see a consistent world.
type structuralMutation struct {
	kind      string // "destroy", "create", or "clone"
	entity    ecs.EntityID // destroy target, or clone source
	name      string
	parent    *ecs.EntityID
	position  *ecs.Vector3
	rotation  *ecs.Vector3
	overrides map[string]map[string]any // clone: typeID -> fields to merge over the cloned value
	result    *ecs.EntityID
}

// Runtime executes scripts against a fixed API surface each frame,
// grounded on the teacher's mod/lua packages' sandboxing and conversion
// helpers, generalized from "mod code reaching the ECS" to "a compiled
// script attached to one entity."
type Runtime struct {
	mu sync.Mutex

	store    *ecs.Store
	registry *ecs.Registry
	idx      *index.Adapter

	view  render.View
	input render.InputSource
	audio render.AudioSource

	cache *compileCache
	rng   *scriptRNG

	scripts map[ecs.EntityID]*entityScript
	timers  *timerQueue
	events  *scriptEventBus
	play    *PlaySession

	startTime  float64
	frameTime  float64
	deltaTime  float64
	frameCount int64

	pendingMutations []structuralMutation

	actionSubs   []*actionSubscription
	nextActionID int64
}

// NewRuntime creates a scripting runtime bound to the given world. rngSeed
// fixes the `math` surface's RNG so two identically-seeded worlds produce
// identical sequences (spec §8 invariant 15).
func NewRuntime(store *ecs.Store, registry *ecs.Registry, idx *index.Adapter, rngSeed int64) *Runtime {
	return &Runtime{
		store:    store,
		registry: registry,
		idx:      idx,
		cache:    newCompileCache(),
		rng:      newScriptRNG(rngSeed),
		scripts:  map[ecs.EntityID]*entityScript{},
		timers:   newTimerQueue(),
		events:   newScriptEventBus(),
		play:     NewPlaySession(),
	}
}

// BindRenderViews wires the render-adapter-backed surfaces (`three`,
// `input`, `audio`). Safe to call before any script is attached; nil
// views simply make those surfaces no-ops.
func (r *Runtime) BindRenderViews(view render.View, input render.InputSource, audio render.AudioSource) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.view, r.input, r.audio = view, input, audio
}

// PlaySession exposes the runtime's play-mode tracker.
func (r *Runtime) PlaySession() *PlaySession {
	return r.play
}

// AttachScript compiles source (cache hit if already seen) and binds a
// fresh sandboxed environment for e. Compilation failure marks the
// entity errored rather than failing the whole tick (spec §4.E
// "Compilation failure is surfaced as a diagnostic; the entity continues
// without the script but is marked as errored").
func (r *Runtime) AttachScript(e ecs.EntityID, source string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	compiled, err := r.cache.compile(source)
	if err != nil {
		r.scripts[e] = &entityScript{entity: e, errored: true, errMsg: err.Error()}
		return err
	}

	state := lua.NewState(lua.Options{SkipOpenLibs: false})
	applySandbox(state)
	r.bindAPI(e, state)
	bindScriptParameters(r, e, state)

	r.scripts[e] = &entityScript{entity: e, compiled: compiled, state: state}
	return nil
}

// bindScriptParameters exposes the Script component's declared parameters
// (spec §6 `{source, parameters: {name: value}, enabled}`) to the script as
// the `params` global, read-only from the script's perspective: scripts see
// what the editor/loader set, they don't write it back.
func bindScriptParameters(r *Runtime, e ecs.EntityID, state *lua.LState) {
	data, _ := r.registry.GetComponentData(e, ecs.ComponentScript)
	params, _ := data["parameters"].(map[string]any)
	state.SetGlobal("params", goToLua(state, params))
}

// DetachScript runs on_destroy exactly once (if the script ever started),
// clears e's timers and event subscriptions, and releases its Lua state.
// Called when the entity is destroyed or its Script component is removed
// (spec §4.E "Cancellation and cleanup").
func (r *Runtime) DetachScript(e ecs.EntityID) {
	r.mu.Lock()
	sc, ok := r.scripts[e]
	if ok {
		delete(r.scripts, e)
	}
	r.timers.clearOwner(e)
	r.events.clearOwner(e)
	r.mu.Unlock()
	r.clearActionsOwner(e)

	if ok && sc.started && !sc.errored && sc.state != nil {
		r.callLifecycle(sc, "on_destroy")
	}
	if ok && sc.state != nil {
		sc.state.Close()
	}
}

// queueCreate records a structural create requested by a script this
// frame; it is applied after the frame's scripts finish running. position
// and rotation, if non-nil, are applied to the new entity's Transform once
// created (spec §4.E #13 create_primitive/create_model/prefab.spawn's
// {position?, rotation?} option table).
func (r *Runtime) queueCreate(name string, parent *ecs.EntityID, position, rotation *ecs.Vector3) *ecs.EntityID {
	result := new(ecs.EntityID)
	r.pendingMutations = append(r.pendingMutations, structuralMutation{
		kind: "create", name: name, parent: parent, position: position, rotation: rotation, result: result,
	})
	return result
}

// queueClone records a structural clone requested by a script this frame
// (spec §4.E #13 `clone(src, overrides?)`): src's components are copied
// onto a freshly created entity, with overrides merged field-by-field over
// the matching cloned component.
func (r *Runtime) queueClone(src ecs.EntityID, overrides map[string]map[string]any, position, rotation *ecs.Vector3) *ecs.EntityID {
	result := new(ecs.EntityID)
	r.pendingMutations = append(r.pendingMutations, structuralMutation{
		kind: "clone", entity: src, overrides: overrides, position: position, rotation: rotation, result: result,
	})
	return result
}

// queueDestroy records a structural destroy requested by a script this
// frame.
func (r *Runtime) queueDestroy(e ecs.EntityID) {
	r.pendingMutations = append(r.pendingMutations, structuralMutation{kind: "destroy", entity: e})
}

// Tick runs one frame: snapshot time, drain the timer budget, run
// on_start/on_update for every active+enabled script in ascending eid
// order, deliver queued script events, then apply structural mutations
// (spec §4.E "Frame schedule").
func (r *Runtime) Tick(deltaTime float64) error {
	r.mu.Lock()
	r.deltaTime = deltaTime
	r.frameTime += deltaTime
	r.frameCount++
	frame := r.frameCount
	r.mu.Unlock()

	r.timers.runFrameCallbacks(frame, r.callLuaValue)
	r.timers.drain(deltaTime*1000, r.callLuaValue)
	r.pollActions()

	entities := r.registry.EntitiesWith(ecs.ComponentScript)
	sort.Slice(entities, func(i, j int) bool { return entities[i] < entities[j] })

	for _, e := range entities {
		r.mu.Lock()
		sc, ok := r.scripts[e]
		r.mu.Unlock()
		if !ok || sc.errored {
			continue
		}

		data, _ := r.registry.GetComponentData(e, ecs.ComponentScript)
		enabled, _ := data["enabled"].(bool)
		if !enabled {
			continue
		}
		active := r.store.IsActive(e)
		if !active {
			continue
		}

		if !sc.started {
			sc.started = true
			r.runScriptBody(sc)
			r.callLifecycle(sc, "on_start")
		}
		r.callLifecycleArgs(sc, "on_update", lua.LNumber(deltaTime))
	}

	r.events.flush(r.callLuaValueWithArg)

	r.mu.Lock()
	pending := r.pendingMutations
	r.pendingMutations = nil
	r.mu.Unlock()
	return r.applyMutations(pending)
}

func (r *Runtime) applyMutations(pending []structuralMutation) error {
	for _, m := range pending {
		switch m.kind {
		case "create":
			e, err := r.store.CreateEntity(m.name, m.parent)
			if err != nil {
				return err
			}
			r.applyInitialTransform(e, m.position, m.rotation)
			if m.result != nil {
				*m.result = e
			}
			r.play.TrackCreated(e)
		case "clone":
			e, err := r.cloneEntity(m.entity, m.overrides)
			if err != nil {
				return err
			}
			r.applyInitialTransform(e, m.position, m.rotation)
			if m.result != nil {
				*m.result = e
			}
			r.play.TrackCreated(e)
		case "destroy":
			r.DetachScript(m.entity)
			if err := r.store.DeleteEntity(m.entity); err != nil {
				return err
			}
		}
	}
	return nil
}

// applyInitialTransform sets the position and/or rotation a create/clone
// request asked for, left untouched (at the component's defaults) when
// both are nil.
func (r *Runtime) applyInitialTransform(e ecs.EntityID, position, rotation *ecs.Vector3) {
	partial := map[string]any{}
	if position != nil {
		partial["position"] = *position
	}
	if rotation != nil {
		partial["rotation"] = *rotation
	}
	if len(partial) == 0 {
		return
	}
	_ = r.registry.UpdateComponent(e, ecs.ComponentTransform, partial)
}

// cloneEntity creates a new entity carrying a copy of src's components
// (same name and parent, a fresh PersistentId), applying overrides
// field-by-field over each cloned component's data before it is attached.
func (r *Runtime) cloneEntity(src ecs.EntityID, overrides map[string]map[string]any) (ecs.EntityID, error) {
	name, _ := r.store.Name(src)
	var parent *ecs.EntityID
	if p, ok := r.store.Parent(src); ok {
		parent = &p
	}
	e, err := r.store.CreateEntity(name, parent)
	if err != nil {
		return 0, err
	}
	for _, c := range r.registry.ListComponents(src) {
		if c.TypeID == ecs.ComponentPersistentId {
			continue
		}
		data := c.Data
		if ov, ok := overrides[string(c.TypeID)]; ok {
			data = mergeComponentData(data, ov)
		}
		if c.TypeID == ecs.ComponentTransform {
			_ = r.registry.UpdateComponent(e, c.TypeID, data)
			continue
		}
		_ = r.registry.AddComponent(e, c.TypeID, data)
	}
	return e, nil
}

func mergeComponentData(base, override map[string]any) map[string]any {
	out := make(map[string]any, len(base)+len(override))
	for k, v := range base {
		out[k] = v
	}
	for k, v := range override {
		out[k] = v
	}
	return out
}

// runScriptBody executes the compiled chunk once to populate global
// functions (on_start/on_update/...) into the script's environment.
func (r *Runtime) runScriptBody(sc *entityScript) {
	if sc.state == nil || sc.compiled == nil {
		return
	}
	fn := sc.state.NewFunctionFromProto(sc.compiled.proto)
	sc.state.Push(fn)
	if err := sc.state.PCall(0, lua.MultRet, nil); err != nil {
		sc.errored = true
		sc.errMsg = errkit.Wrap(errkit.ScriptRuntimeError, "script body raised an error", err).Error()
	}
}

func (r *Runtime) callLifecycle(sc *entityScript, name string) {
	r.callLifecycleArgs(sc, name)
}

func (r *Runtime) callLifecycleArgs(sc *entityScript, name string, args ...lua.LValue) {
	if sc.state == nil || sc.errored {
		return
	}
	fn := sc.state.GetGlobal(name)
	if fn == lua.LNil {
		return
	}
	if err := sc.state.CallByParam(lua.P{Fn: fn, NRet: 0, Protect: true}, args...); err != nil {
		sc.errored = true
		sc.errMsg = fmt.Sprintf("%s: %v", name, err)
	}
}

func (r *Runtime) callLuaValue(state *lua.LState, fn lua.LValue) {
	_ = state.CallByParam(lua.P{Fn: fn, NRet: 0, Protect: true})
}

func (r *Runtime) callLuaValueWithArg(state *lua.LState, fn lua.LValue, arg lua.LValue) {
	_ = state.CallByParam(lua.P{Fn: fn, NRet: 0, Protect: true}, arg)
}

// ScriptError reports an errored script's last diagnostic, if any.
func (r *Runtime) ScriptError(e ecs.EntityID) (string, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	sc, ok := r.scripts[e]
	if !ok || !sc.errored {
		return "", false
	}
	return sc.errMsg, true
}
