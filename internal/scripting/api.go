package scripting

import (
	"fmt"

	lua "github.com/yuin/gopher-lua"

	"enginecore/internal/ecs"
)

// bindAPI registers all 14 fixed API surfaces (spec §4.E) as Lua globals
// in state, scoped to entity e. Entity ids a script passes in are handed
// to the store and registry as given, without a liveness or ownership
// check first; entities.exists and entities.get are the surfaces that
// check liveness.
func (r *Runtime) bindAPI(e ecs.EntityID, state *lua.LState) {
	r.bindEntityAPI(e, state)
	r.bindTransformAPI(e, state)
	r.bindThreeAPI(e, state)
	r.bindMathAPI(state)
	r.bindInputAPI(e, state)
	r.bindTimeAPI(e, state)
	r.bindConsoleAPI(e, state)
	r.bindEventsAPI(e, state)
	r.bindAudioAPI(e, state)
	r.bindTimerAPI(e, state)
	r.bindQueryAPI(state)
	r.bindPrefabAPI(e, state)
	r.bindGameObjectAPI(e, state)
	r.bindEntitiesAPI(state)
}

func argEntity(l *lua.LState, pos int, fallback ecs.EntityID) ecs.EntityID {
	v := l.Get(pos)
	if n, ok := v.(lua.LNumber); ok {
		return ecs.EntityID(n)
	}
	return fallback
}

func tableArg(l *lua.LState, pos int) *lua.LTable {
	if t, ok := l.Get(pos).(*lua.LTable); ok {
		return t
	}
	return nil
}

// --- surface 1: entity ---

func (r *Runtime) bindEntityAPI(e ecs.EntityID, state *lua.LState) {
	state.SetGlobal("entity", r.entityHandle(state, e))
}

// entityHandle builds the same method table bindEntityAPI exposes as the
// owning script's `entity` global, scoped to an arbitrary eid instead. It
// backs entities.get/from_ref (spec §4.E #14), which hand a script a
// live handle onto any entity, not just its own.
func (r *Runtime) entityHandle(state *lua.LState, e ecs.EntityID) *lua.LTable {
	t := state.NewTable()
	t.RawSetString("id", lua.LNumber(e))
	t.RawSetString("get", state.NewFunction(func(l *lua.LState) int {
		typeID := ecs.ComponentType(l.CheckString(1))
		data, ok := r.registry.GetComponentData(e, typeID)
		if !ok {
			l.Push(lua.LNil)
			return 1
		}
		l.Push(goToLua(l, data))
		return 1
	}))
	t.RawSetString("set", state.NewFunction(func(l *lua.LState) int {
		typeID := ecs.ComponentType(l.CheckString(1))
		raw := tableArg(l, 2)
		var data map[string]any
		if raw != nil {
			data, _ = luaTableToGo(raw).(map[string]any)
		}
		r.play.SnapshotBeforeMutation(e, typeID, priorComponentData(r, e, typeID))
		var err error
		if r.registry.HasComponent(e, typeID) {
			err = r.registry.UpdateComponent(e, typeID, data)
		} else {
			err = r.registry.AddComponent(e, typeID, data)
		}
		l.Push(lua.LBool(err == nil))
		return 1
	}))
	t.RawSetString("has", state.NewFunction(func(l *lua.LState) int {
		typeID := ecs.ComponentType(l.CheckString(1))
		l.Push(lua.LBool(r.registry.HasComponent(e, typeID)))
		return 1
	}))
	t.RawSetString("remove", state.NewFunction(func(l *lua.LState) int {
		typeID := ecs.ComponentType(l.CheckString(1))
		l.Push(lua.LBool(r.registry.RemoveComponent(e, typeID) == nil))
		return 1
	}))
	t.RawSetString("destroy", state.NewFunction(func(l *lua.LState) int {
		r.queueDestroy(e)
		return 0
	}))
	t.RawSetString("set_active", state.NewFunction(func(l *lua.LState) int {
		_ = r.store.SetActive(e, l.CheckBool(1))
		return 0
	}))
	t.RawSetString("is_active", state.NewFunction(func(l *lua.LState) int {
		l.Push(lua.LBool(r.store.IsActive(e)))
		return 1
	}))
	t.RawSetString("parent", state.NewFunction(func(l *lua.LState) int {
		if p, ok := r.store.Parent(e); ok {
			l.Push(lua.LNumber(p))
			return 1
		}
		l.Push(lua.LNil)
		return 1
	}))
	t.RawSetString("children", state.NewFunction(func(l *lua.LState) int {
		kids := r.store.Children(e)
		out := l.NewTable()
		for i, c := range kids {
			out.RawSetInt(i+1, lua.LNumber(c))
		}
		l.Push(out)
		return 1
	}))
	return t
}

func priorComponentData(r *Runtime, e ecs.EntityID, typeID ecs.ComponentType) map[string]any {
	data, _ := r.registry.GetComponentData(e, typeID)
	return data
}

// --- surface 2: transform ---

func (r *Runtime) bindTransformAPI(e ecs.EntityID, state *lua.LState) {
	t := state.NewTable()
	get := func() (ecs.Vector3, ecs.Vector3, ecs.Vector3) {
		data, _ := r.registry.GetComponentData(e, ecs.ComponentTransform)
		pos, _ := data["position"].(ecs.Vector3)
		rot, _ := data["rotation"].(ecs.Vector3)
		scale, _ := data["scale"].(ecs.Vector3)
		return pos, rot, scale
	}
	t.RawSetString("position", state.NewFunction(func(l *lua.LState) int {
		pos, _, _ := get()
		l.Push(vectorToLua(l, pos))
		return 1
	}))
	t.RawSetString("rotation", state.NewFunction(func(l *lua.LState) int {
		_, rot, _ := get()
		l.Push(vectorToLua(l, rot))
		return 1
	}))
	t.RawSetString("scale", state.NewFunction(func(l *lua.LState) int {
		_, _, scale := get()
		l.Push(vectorToLua(l, scale))
		return 1
	}))
	t.RawSetString("set_position", state.NewFunction(func(l *lua.LState) int {
		r.play.SnapshotBeforeMutation(e, ecs.ComponentTransform, priorComponentData(r, e, ecs.ComponentTransform))
		_ = r.registry.UpdateComponent(e, ecs.ComponentTransform, map[string]any{"position": vectorFromArgs(l)})
		return 0
	}))
	t.RawSetString("set_rotation", state.NewFunction(func(l *lua.LState) int {
		r.play.SnapshotBeforeMutation(e, ecs.ComponentTransform, priorComponentData(r, e, ecs.ComponentTransform))
		_ = r.registry.UpdateComponent(e, ecs.ComponentTransform, map[string]any{"rotation": vectorFromArgs(l)})
		return 0
	}))
	t.RawSetString("set_scale", state.NewFunction(func(l *lua.LState) int {
		r.play.SnapshotBeforeMutation(e, ecs.ComponentTransform, priorComponentData(r, e, ecs.ComponentTransform))
		_ = r.registry.UpdateComponent(e, ecs.ComponentTransform, map[string]any{"scale": vectorFromArgs(l)})
		return 0
	}))
	t.RawSetString("translate", state.NewFunction(func(l *lua.LState) int {
		pos, _, _ := get()
		delta := vectorFromArgs(l)
		r.play.SnapshotBeforeMutation(e, ecs.ComponentTransform, priorComponentData(r, e, ecs.ComponentTransform))
		_ = r.registry.UpdateComponent(e, ecs.ComponentTransform, map[string]any{"position": pos.Add(delta)})
		return 0
	}))
	t.RawSetString("rotate", state.NewFunction(func(l *lua.LState) int {
		_, rot, _ := get()
		delta := vectorFromArgs(l)
		r.play.SnapshotBeforeMutation(e, ecs.ComponentTransform, priorComponentData(r, e, ecs.ComponentTransform))
		_ = r.registry.UpdateComponent(e, ecs.ComponentTransform, map[string]any{"rotation": rot.Add(delta)})
		return 0
	}))
	t.RawSetString("forward", state.NewFunction(func(l *lua.LState) int {
		_, rot, _ := get()
		l.Push(vectorToLua(l, rotateVector(ecs.Vector3{Z: -1}, rot)))
		return 1
	}))
	t.RawSetString("right", state.NewFunction(func(l *lua.LState) int {
		_, rot, _ := get()
		l.Push(vectorToLua(l, rotateVector(ecs.Vector3{X: 1}, rot)))
		return 1
	}))
	t.RawSetString("up", state.NewFunction(func(l *lua.LState) int {
		_, rot, _ := get()
		l.Push(vectorToLua(l, rotateVector(ecs.Vector3{Y: 1}, rot)))
		return 1
	}))
	t.RawSetString("look_at", state.NewFunction(func(l *lua.LState) int {
		pos, _, _ := get()
		target := vectorFromArgs(l)
		r.play.SnapshotBeforeMutation(e, ecs.ComponentTransform, priorComponentData(r, e, ecs.ComponentTransform))
		_ = r.registry.UpdateComponent(e, ecs.ComponentTransform, map[string]any{"rotation": lookAtRotation(pos, target)})
		return 0
	}))
	state.SetGlobal("transform", t)
}

func vectorToLua(l *lua.LState, v ecs.Vector3) *lua.LTable {
	t := l.NewTable()
	t.RawSetString("x", lua.LNumber(v.X))
	t.RawSetString("y", lua.LNumber(v.Y))
	t.RawSetString("z", lua.LNumber(v.Z))
	return t
}

// vectorFromTable reads a {x,y,z} vector from opts[key], returning nil if
// opts is nil or the key isn't a table (used for the position?/rotation?
// fields of create_primitive/create_model/prefab.spawn's opts table).
func vectorFromTable(opts *lua.LTable, key string) *ecs.Vector3 {
	if opts == nil {
		return nil
	}
	sub, ok := opts.RawGetString(key).(*lua.LTable)
	if !ok {
		return nil
	}
	v := ecs.Vector3{
		X: float64(lua.LVAsNumber(sub.RawGetString("x"))),
		Y: float64(lua.LVAsNumber(sub.RawGetString("y"))),
		Z: float64(lua.LVAsNumber(sub.RawGetString("z"))),
	}
	return &v
}

func vectorFromArgs(l *lua.LState) ecs.Vector3 {
	if t, ok := l.Get(1).(*lua.LTable); ok {
		return ecs.Vector3{
			X: float64(lua.LVAsNumber(t.RawGetString("x"))),
			Y: float64(lua.LVAsNumber(t.RawGetString("y"))),
			Z: float64(lua.LVAsNumber(t.RawGetString("z"))),
		}
	}
	return ecs.Vector3{
		X: float64(l.OptNumber(1, 0)),
		Y: float64(l.OptNumber(2, 0)),
		Z: float64(l.OptNumber(3, 0)),
	}
}

// --- surface 3: three (renderer view) ---

func (r *Runtime) bindThreeAPI(e ecs.EntityID, state *lua.LState) {
	t := state.NewTable()
	t.RawSetString("set_color", state.NewFunction(func(l *lua.LState) int {
		if r.view == nil {
			l.Push(lua.LBool(false))
			return 1
		}
		err := r.view.SetColor(e, float64(l.CheckNumber(1)), float64(l.CheckNumber(2)), float64(l.CheckNumber(3)), float64(l.OptNumber(4, 1)))
		l.Push(lua.LBool(err == nil))
		return 1
	}))
	t.RawSetString("set_metalness", state.NewFunction(func(l *lua.LState) int {
		if r.view != nil {
			_ = r.view.SetMetalness(e, float64(l.CheckNumber(1)))
		}
		return 0
	}))
	t.RawSetString("set_roughness", state.NewFunction(func(l *lua.LState) int {
		if r.view != nil {
			_ = r.view.SetRoughness(e, float64(l.CheckNumber(1)))
		}
		return 0
	}))
	t.RawSetString("set_opacity", state.NewFunction(func(l *lua.LState) int {
		if r.view != nil {
			_ = r.view.SetOpacity(e, float64(l.CheckNumber(1)))
		}
		return 0
	}))
	t.RawSetString("set_visible", state.NewFunction(func(l *lua.LState) int {
		if r.view != nil {
			_ = r.view.SetVisible(e, l.CheckBool(1))
		}
		return 0
	}))
	t.RawSetString("raycast", state.NewFunction(func(l *lua.LState) int {
		if r.view == nil {
			l.Push(lua.LNil)
			return 1
		}
		origin := vectorFromArgs(l)
		hit, ok := r.view.Raycast(origin, ecs.Vector3{})
		if !ok {
			l.Push(lua.LNil)
			return 1
		}
		out := l.NewTable()
		out.RawSetString("entity", lua.LNumber(hit.Entity))
		out.RawSetString("distance", lua.LNumber(hit.Distance))
		l.Push(out)
		return 1
	}))
	state.SetGlobal("three", t)
}

// --- surface 4: math ---

// bindMathAPI extends gopher-lua's own stdlib `math` table (sin/cos/sqrt/
// floor/...) with spec-specific helpers instead of replacing it, and
// overrides math.random/math.random_range to draw from the runtime's
// dedicated per-world RNG rather than gopher-lua's own (spec §8
// invariant 15: identical seeds must produce identical sequences).
func (r *Runtime) bindMathAPI(state *lua.LState) {
	t, ok := state.GetGlobal("math").(*lua.LTable)
	if !ok || t == nil {
		t = state.NewTable()
	}
	t.RawSetString("lerp", state.NewFunction(func(l *lua.LState) int {
		l.Push(lua.LNumber(lerp(float64(l.CheckNumber(1)), float64(l.CheckNumber(2)), float64(l.CheckNumber(3)))))
		return 1
	}))
	t.RawSetString("clamp", state.NewFunction(func(l *lua.LState) int {
		l.Push(lua.LNumber(clamp(float64(l.CheckNumber(1)), float64(l.CheckNumber(2)), float64(l.CheckNumber(3)))))
		return 1
	}))
	t.RawSetString("distance", state.NewFunction(func(l *lua.LState) int {
		l.Push(lua.LNumber(distance(
			float64(l.CheckNumber(1)), float64(l.CheckNumber(2)), float64(l.CheckNumber(3)),
			float64(l.CheckNumber(4)), float64(l.CheckNumber(5)), float64(l.CheckNumber(6)))))
		return 1
	}))
	t.RawSetString("deg_to_rad", state.NewFunction(func(l *lua.LState) int {
		l.Push(lua.LNumber(degToRad(float64(l.CheckNumber(1)))))
		return 1
	}))
	t.RawSetString("rad_to_deg", state.NewFunction(func(l *lua.LState) int {
		l.Push(lua.LNumber(radToDeg(float64(l.CheckNumber(1)))))
		return 1
	}))
	t.RawSetString("random", state.NewFunction(func(l *lua.LState) int {
		r.mu.Lock()
		v := r.rng.random()
		r.mu.Unlock()
		l.Push(lua.LNumber(v))
		return 1
	}))
	t.RawSetString("random_range", state.NewFunction(func(l *lua.LState) int {
		min, max := float64(l.CheckNumber(1)), float64(l.CheckNumber(2))
		r.mu.Lock()
		v := r.rng.randomRange(min, max)
		r.mu.Unlock()
		l.Push(lua.LNumber(v))
		return 1
	}))
	state.SetGlobal("math", t)
}

// --- surface 5: input ---

func (r *Runtime) bindInputAPI(e ecs.EntityID, state *lua.LState) {
	t := state.NewTable()
	t.RawSetString("is_key_down", state.NewFunction(func(l *lua.LState) int {
		l.Push(lua.LBool(r.input != nil && r.input.IsKeyDown(l.CheckString(1))))
		return 1
	}))
	t.RawSetString("is_key_pressed", state.NewFunction(func(l *lua.LState) int {
		l.Push(lua.LBool(r.input != nil && r.input.IsKeyPressed(l.CheckString(1))))
		return 1
	}))
	t.RawSetString("is_key_released", state.NewFunction(func(l *lua.LState) int {
		l.Push(lua.LBool(r.input != nil && r.input.IsKeyReleased(l.CheckString(1))))
		return 1
	}))
	t.RawSetString("cursor_position", state.NewFunction(func(l *lua.LState) int {
		if r.input == nil {
			l.Push(lua.LNumber(0))
			l.Push(lua.LNumber(0))
			return 2
		}
		x, y := r.input.CursorPosition()
		l.Push(lua.LNumber(x))
		l.Push(lua.LNumber(y))
		return 2
	}))
	t.RawSetString("wheel_delta", state.NewFunction(func(l *lua.LState) int {
		if r.input == nil {
			l.Push(lua.LNumber(0))
			return 1
		}
		l.Push(lua.LNumber(r.input.WheelDelta()))
		return 1
	}))
	t.RawSetString("is_mouse_button_down", state.NewFunction(func(l *lua.LState) int {
		l.Push(lua.LBool(r.input != nil && r.input.IsMouseButtonDown(int(l.CheckNumber(1)))))
		return 1
	}))
	t.RawSetString("cursor_delta", state.NewFunction(func(l *lua.LState) int {
		if r.input == nil {
			l.Push(lua.LNumber(0))
			l.Push(lua.LNumber(0))
			return 2
		}
		dx, dy := r.input.CursorDelta()
		l.Push(lua.LNumber(dx))
		l.Push(lua.LNumber(dy))
		return 2
	}))
	t.RawSetString("get_action_value", state.NewFunction(func(l *lua.LState) int {
		m := tableArg(l, 1)
		action := l.CheckString(2)
		x, y, z, dims := evalActionValue(r.input, m, action)
		switch dims {
		case 3:
			out := l.NewTable()
			out.RawSetString("x", lua.LNumber(x))
			out.RawSetString("y", lua.LNumber(y))
			out.RawSetString("z", lua.LNumber(z))
			l.Push(out)
		case 2:
			out := l.NewTable()
			out.RawSetString("x", lua.LNumber(x))
			out.RawSetString("y", lua.LNumber(y))
			l.Push(out)
		default:
			l.Push(lua.LNumber(x))
		}
		return 1
	}))
	t.RawSetString("is_action_active", state.NewFunction(func(l *lua.LState) int {
		m := tableArg(l, 1)
		action := l.CheckString(2)
		x, y, z, _ := evalActionValue(r.input, m, action)
		l.Push(lua.LBool(x != 0 || y != 0 || z != 0))
		return 1
	}))
	t.RawSetString("on_action", state.NewFunction(func(l *lua.LState) int {
		m := tableArg(l, 1)
		action := l.CheckString(2)
		handler := l.CheckFunction(3)
		id := r.onAction(e, state, m, action, handler)
		l.Push(state.NewFunction(func(l2 *lua.LState) int {
			r.offAction(id)
			return 0
		}))
		return 1
	}))
	state.SetGlobal("input", t)
}

// --- surface 6: time ---

func (r *Runtime) bindTimeAPI(e ecs.EntityID, state *lua.LState) {
	t := state.NewTable()
	t.RawSetString("time", state.NewFunction(func(l *lua.LState) int {
		r.mu.Lock()
		v := r.frameTime
		r.mu.Unlock()
		l.Push(lua.LNumber(v))
		return 1
	}))
	t.RawSetString("delta_time", state.NewFunction(func(l *lua.LState) int {
		r.mu.Lock()
		v := r.deltaTime
		r.mu.Unlock()
		l.Push(lua.LNumber(v))
		return 1
	}))
	t.RawSetString("frame_count", state.NewFunction(func(l *lua.LState) int {
		r.mu.Lock()
		v := r.frameCount
		r.mu.Unlock()
		l.Push(lua.LNumber(v))
		return 1
	}))
	state.SetGlobal("time", t)
}

// --- surface 7: console ---

func (r *Runtime) bindConsoleAPI(e ecs.EntityID, state *lua.LState) {
	t := state.NewTable()
	prefix := fmt.Sprintf("[Script:%d]", e)
	register := func(level string) lua.LGFunction {
		return func(l *lua.LState) int {
			msg := l.CheckString(1)
			fmt.Printf("%s %s %s\n", prefix, level, msg)
			return 0
		}
	}
	t.RawSetString("log", state.NewFunction(register("LOG")))
	t.RawSetString("info", state.NewFunction(register("INFO")))
	t.RawSetString("warn", state.NewFunction(register("WARN")))
	t.RawSetString("error", state.NewFunction(register("ERROR")))
	state.SetGlobal("console", t)
}

// --- surface 8: events ---

func (r *Runtime) bindEventsAPI(e ecs.EntityID, state *lua.LState) {
	t := state.NewTable()
	t.RawSetString("on", state.NewFunction(func(l *lua.LState) int {
		name := l.CheckString(1)
		fn := l.CheckFunction(2)
		id := r.events.on(name, e, state, fn)
		l.Push(lua.LNumber(id))
		return 1
	}))
	t.RawSetString("off", state.NewFunction(func(l *lua.LState) int {
		r.events.off(l.CheckString(1), int64(l.CheckNumber(2)))
		return 0
	}))
	t.RawSetString("emit", state.NewFunction(func(l *lua.LState) int {
		r.events.emit(l.CheckString(1), l.Get(2))
		return 0
	}))
	state.SetGlobal("events", t)
}

// --- surface 9: audio ---

func (r *Runtime) bindAudioAPI(e ecs.EntityID, state *lua.LState) {
	t := state.NewTable()
	t.RawSetString("play", state.NewFunction(func(l *lua.LState) int {
		clip := l.CheckString(1)
		if err := validatePathLike(clip); err != nil || r.audio == nil {
			l.Push(lua.LNil)
			return 1
		}
		opts := tableArg(l, 2)
		volume, loop, spatial := 1.0, false, false
		if opts != nil {
			volume = float64(lua.LVAsNumber(opts.RawGetString("volume")))
			if volume == 0 {
				volume = 1
			}
			loop = opts.RawGetString("loop") == lua.LTrue
			spatial = opts.RawGetString("spatial") == lua.LTrue
		}
		id, err := r.audio.Play(clip, volume, loop, spatial)
		if err != nil {
			l.Push(lua.LNil)
			return 1
		}
		l.Push(lua.LNumber(id))
		return 1
	}))
	t.RawSetString("stop", state.NewFunction(func(l *lua.LState) int {
		if r.audio != nil {
			_ = r.audio.Stop(int64(l.CheckNumber(1)))
		}
		return 0
	}))
	t.RawSetString("attach_to_entity", state.NewFunction(func(l *lua.LState) int {
		if r.audio == nil {
			l.Push(lua.LBool(false))
			return 1
		}
		soundID := int64(l.CheckNumber(1))
		follow := l.CheckBool(2)
		l.Push(lua.LBool(r.audio.AttachToEntity(soundID, e, follow) == nil))
		return 1
	}))
	state.SetGlobal("audio", t)
}

// --- surface 10: timer ---

func (r *Runtime) bindTimerAPI(e ecs.EntityID, state *lua.LState) {
	t := state.NewTable()
	t.RawSetString("set_timeout", state.NewFunction(func(l *lua.LState) int {
		fn := l.CheckFunction(1)
		ms := float64(l.CheckNumber(2))
		id := r.timers.setTimeout(e, state, fn, ms)
		l.Push(lua.LNumber(id))
		return 1
	}))
	t.RawSetString("clear_timeout", state.NewFunction(func(l *lua.LState) int {
		r.timers.clear(int64(l.CheckNumber(1)))
		return 0
	}))
	t.RawSetString("set_interval", state.NewFunction(func(l *lua.LState) int {
		fn := l.CheckFunction(1)
		ms := float64(l.CheckNumber(2))
		id := r.timers.setInterval(e, state, fn, ms)
		l.Push(lua.LNumber(id))
		return 1
	}))
	t.RawSetString("clear_interval", state.NewFunction(func(l *lua.LState) int {
		r.timers.clear(int64(l.CheckNumber(1)))
		return 0
	}))
	t.RawSetString("next_tick", state.NewFunction(func(l *lua.LState) int {
		fn := l.CheckFunction(1)
		r.mu.Lock()
		frame := r.frameCount
		r.mu.Unlock()
		r.timers.nextTick(e, state, fn, frame)
		return 0
	}))
	t.RawSetString("wait_frames", state.NewFunction(func(l *lua.LState) int {
		n := int64(l.CheckNumber(1))
		fn := l.CheckFunction(2)
		r.mu.Lock()
		frame := r.frameCount
		r.mu.Unlock()
		r.timers.waitFrames(e, state, fn, n, frame)
		return 0
	}))
	state.SetGlobal("timer", t)
}

// --- surface 11: query ---

func (r *Runtime) bindQueryAPI(state *lua.LState) {
	t := state.NewTable()
	t.RawSetString("find_by_tag", state.NewFunction(func(l *lua.LState) int {
		tag := l.CheckString(1)
		out := l.NewTable()
		for i, eid := range r.idx.FindByTag(tag) {
			out.RawSetInt(i+1, lua.LNumber(eid))
		}
		l.Push(out)
		return 1
	}))
	t.RawSetString("raycast_first", state.NewFunction(func(l *lua.LState) int {
		if r.view == nil {
			l.Push(lua.LNil)
			return 1
		}
		origin := vectorFromArgs(l)
		hit, ok := r.view.Raycast(origin, ecs.Vector3{})
		if !ok {
			l.Push(lua.LNil)
			return 1
		}
		out := l.NewTable()
		out.RawSetString("entity", lua.LNumber(hit.Entity))
		l.Push(out)
		return 1
	}))
	t.RawSetString("raycast_all", state.NewFunction(func(l *lua.LState) int {
		out := l.NewTable()
		if r.view == nil {
			l.Push(out)
			return 1
		}
		origin := vectorFromArgs(l)
		for i, hit := range r.view.RaycastAll(origin, ecs.Vector3{}) {
			row := l.NewTable()
			row.RawSetString("entity", lua.LNumber(hit.Entity))
			row.RawSetString("distance", lua.LNumber(hit.Distance))
			out.RawSetInt(i+1, row)
		}
		l.Push(out)
		return 1
	}))
	state.SetGlobal("query", t)
}

// --- surface 12: prefab ---

func (r *Runtime) bindPrefabAPI(e ecs.EntityID, state *lua.LState) {
	t := state.NewTable()
	t.RawSetString("spawn", state.NewFunction(func(l *lua.LState) int {
		prefabID := l.CheckString(1)
		if err := validatePathLike(prefabID); err != nil {
			l.Push(lua.LNil)
			return 1
		}
		opts := tableArg(l, 2)
		result := r.queueCreate(prefabID, nil, vectorFromTable(opts, "position"), vectorFromTable(opts, "rotation"))
		l.Push(lua.LNumber(*result))
		return 1
	}))
	t.RawSetString("destroy", state.NewFunction(func(l *lua.LState) int {
		r.queueDestroy(argEntity(l, 1, e))
		return 0
	}))
	t.RawSetString("set_active", state.NewFunction(func(l *lua.LState) int {
		_ = r.store.SetActive(argEntity(l, 1, e), l.CheckBool(2))
		return 0
	}))
	state.SetGlobal("prefab", t)
}

// --- surface 13: gameObject ---

// bindGameObjectAPI binds entity-creation helpers. Creates are structural
// mutations applied at the end of the frame (Runtime.applyMutations), so
// the id returned here is a placeholder until then; scripts that need to
// act on the real id should do so from on_update on a later frame or via
// timer.next_tick.
func (r *Runtime) bindGameObjectAPI(e ecs.EntityID, state *lua.LState) {
	t := state.NewTable()
	t.RawSetString("create_entity", state.NewFunction(func(l *lua.LState) int {
		name := l.OptString(1, "")
		var parent *ecs.EntityID
		if n, ok := l.Get(2).(lua.LNumber); ok {
			p := ecs.EntityID(n)
			parent = &p
		}
		result := r.queueCreate(name, parent, nil, nil)
		l.Push(lua.LNumber(*result))
		return 1
	}))
	t.RawSetString("create_primitive", state.NewFunction(func(l *lua.LState) int {
		kind := l.CheckString(1)
		opts := tableArg(l, 2)
		result := r.queueCreate(kind, nil, vectorFromTable(opts, "position"), vectorFromTable(opts, "rotation"))
		l.Push(lua.LNumber(*result))
		return 1
	}))
	t.RawSetString("create_model", state.NewFunction(func(l *lua.LState) int {
		path := l.CheckString(1)
		if err := validatePathLike(path); err != nil {
			l.Push(lua.LNil)
			return 1
		}
		opts := tableArg(l, 2)
		result := r.queueCreate(path, nil, vectorFromTable(opts, "position"), vectorFromTable(opts, "rotation"))
		l.Push(lua.LNumber(*result))
		return 1
	}))
	t.RawSetString("clone", state.NewFunction(func(l *lua.LState) int {
		src := argEntity(l, 1, e)
		overridesTable := tableArg(l, 2)
		overrides := map[string]map[string]any{}
		if overridesTable != nil {
			overridesTable.ForEach(func(k, v lua.LValue) {
				row, ok := v.(*lua.LTable)
				if !ok {
					return
				}
				data, _ := luaTableToGo(row).(map[string]any)
				overrides[k.String()] = data
			})
		}
		result := r.queueClone(src, overrides, nil, nil)
		l.Push(lua.LNumber(*result))
		return 1
	}))
	t.RawSetString("attach_components", state.NewFunction(func(l *lua.LState) int {
		target := argEntity(l, 1, e)
		spec := tableArg(l, 2)
		if spec == nil {
			return 0
		}
		spec.ForEach(func(_, v lua.LValue) {
			row, ok := v.(*lua.LTable)
			if !ok {
				return
			}
			typeID := ecs.ComponentType(lua.LVAsString(row.RawGetInt(1)))
			dataRaw, _ := row.RawGetInt(2).(*lua.LTable)
			var data map[string]any
			if dataRaw != nil {
				data, _ = luaTableToGo(dataRaw).(map[string]any)
			}
			_ = r.registry.AddComponent(target, typeID, data)
		})
		return 0
	}))
	t.RawSetString("set_parent", state.NewFunction(func(l *lua.LState) int {
		target := argEntity(l, 1, e)
		var parent *ecs.EntityID
		if n, ok := l.Get(2).(lua.LNumber); ok {
			p := ecs.EntityID(n)
			parent = &p
		}
		l.Push(lua.LBool(r.store.SetParent(target, parent) == nil))
		return 1
	}))
	t.RawSetString("set_active", state.NewFunction(func(l *lua.LState) int {
		_ = r.store.SetActive(argEntity(l, 1, e), l.CheckBool(2))
		return 0
	}))
	t.RawSetString("destroy", state.NewFunction(func(l *lua.LState) int {
		r.queueDestroy(argEntity(l, 1, e))
		return 0
	}))
	state.SetGlobal("gameObject", t)
}

// --- surface 14: entities ---

func (r *Runtime) bindEntitiesAPI(state *lua.LState) {
	t := state.NewTable()
	t.RawSetString("exists", state.NewFunction(func(l *lua.LState) int {
		l.Push(lua.LBool(r.store.IsValid(ecs.EntityID(l.CheckNumber(1)))))
		return 1
	}))
	t.RawSetString("find_by_name", state.NewFunction(func(l *lua.LState) int {
		out := l.NewTable()
		for i, eid := range r.idx.FindByName(l.CheckString(1)) {
			out.RawSetInt(i+1, lua.LNumber(eid))
		}
		l.Push(out)
		return 1
	}))
	t.RawSetString("find_by_tag", state.NewFunction(func(l *lua.LState) int {
		out := l.NewTable()
		for i, eid := range r.idx.FindByTag(l.CheckString(1)) {
			out.RawSetInt(i+1, lua.LNumber(eid))
		}
		l.Push(out)
		return 1
	}))
	t.RawSetString("get", state.NewFunction(func(l *lua.LState) int {
		eid := ecs.EntityID(l.CheckNumber(1))
		if !r.store.IsValid(eid) {
			l.Push(lua.LNil)
			return 1
		}
		l.Push(r.entityHandle(l, eid))
		return 1
	}))
	t.RawSetString("from_ref", state.NewFunction(func(l *lua.LState) int {
		eid, ok := r.store.EntityByPersistentID(l.CheckString(1))
		if !ok {
			l.Push(lua.LNil)
			return 1
		}
		l.Push(r.entityHandle(l, eid))
		return 1
	}))
	state.SetGlobal("entities", t)
}
