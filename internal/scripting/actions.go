package scripting

import (
	lua "github.com/yuin/gopher-lua"

	"enginecore/internal/ecs"
	"enginecore/internal/render"
)

// actionSubscription is one on_action registration (spec §4.E #5
// "Action-based queries"): handler fires the frame the bound action
// transitions from inactive to active, polled from Tick rather than
// driven by an input event (the reference adapter only exposes polling).
type actionSubscription struct {
	id       int64
	entity   ecs.EntityID
	state    *lua.LState
	mapTable *lua.LTable
	action   string
	handler  *lua.LFunction
	wasActive bool
}

// onAction registers a subscription and returns its id, used to build the
// unsubscribe closure on_action returns to the script.
func (r *Runtime) onAction(e ecs.EntityID, state *lua.LState, m *lua.LTable, action string, handler *lua.LFunction) int64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextActionID++
	id := r.nextActionID
	r.actionSubs = append(r.actionSubs, &actionSubscription{
		id: id, entity: e, state: state, mapTable: m, action: action, handler: handler,
	})
	return id
}

// offAction removes a subscription by id; called both by the unsubscribe
// closure and by clearActionsOwner on detach.
func (r *Runtime) offAction(id int64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := r.actionSubs[:0]
	for _, sub := range r.actionSubs {
		if sub.id != id {
			out = append(out, sub)
		}
	}
	r.actionSubs = out
}

func (r *Runtime) clearActionsOwner(e ecs.EntityID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := r.actionSubs[:0]
	for _, sub := range r.actionSubs {
		if sub.entity != e {
			out = append(out, sub)
		}
	}
	r.actionSubs = out
}

// pollActions evaluates every on_action subscription once per frame and
// fires handlers on an inactive-to-active transition.
func (r *Runtime) pollActions() {
	r.mu.Lock()
	subs := append([]*actionSubscription(nil), r.actionSubs...)
	input := r.input
	r.mu.Unlock()

	for _, sub := range subs {
		x, y, z, _ := evalActionValue(input, sub.mapTable, sub.action)
		active := x != 0 || y != 0 || z != 0
		if active && !sub.wasActive {
			_ = sub.state.CallByParam(lua.P{Fn: sub.handler, NRet: 0, Protect: true})
		}
		sub.wasActive = active
	}
}

// evalActionValue resolves action inside mapTable to a scalar, 2D, or 3D
// value (dims reports which): a bare key name is a digital 0/1 scalar; a
// table with positive/negative keys is a 1D axis combining two digital
// readings; a table with x/y(/z) sub-bindings is a 2D or 3D vector built
// from the same resolution recursively.
func evalActionValue(input render.InputSource, mapTable *lua.LTable, action string) (x, y, z float64, dims int) {
	if mapTable == nil {
		return 0, 0, 0, 1
	}
	binding := mapTable.RawGetString(action)
	if t, ok := binding.(*lua.LTable); ok {
		if xv := t.RawGetString("x"); xv != lua.LNil {
			x = resolveBindingValue(input, xv)
			yv := t.RawGetString("y")
			zv := t.RawGetString("z")
			switch {
			case zv != lua.LNil:
				y = resolveBindingValue(input, yv)
				z = resolveBindingValue(input, zv)
				return x, y, z, 3
			case yv != lua.LNil:
				y = resolveBindingValue(input, yv)
				return x, y, 0, 2
			default:
				return x, 0, 0, 1
			}
		}
	}
	return resolveBindingValue(input, binding), 0, 0, 1
}

// resolveBindingValue resolves a single action binding (a key name, or a
// positive/negative pair combining two key names into a -1..1 axis) to a
// scalar.
func resolveBindingValue(input render.InputSource, v lua.LValue) float64 {
	switch b := v.(type) {
	case lua.LString:
		return digitalValue(input, string(b))
	case *lua.LTable:
		pos := b.RawGetString("positive")
		neg := b.RawGetString("negative")
		if pos != lua.LNil || neg != lua.LNil {
			return resolveBindingValue(input, pos) - resolveBindingValue(input, neg)
		}
	}
	return 0
}

func digitalValue(input render.InputSource, key string) float64 {
	if input == nil || key == "" {
		return 0
	}
	if input.IsKeyDown(key) {
		return 1
	}
	return 0
}
