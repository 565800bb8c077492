package scripting

import (
	lua "github.com/yuin/gopher-lua"

	"enginecore/internal/ecs"
)

type scriptSubscription struct {
	id    int64
	owner ecs.EntityID
	state *lua.LState
	fn    lua.LValue
}

type queuedEvent struct {
	name    string
	payload lua.LValue
}

// scriptEventBus is the `events` API's named global bus (spec §4.E
// surface 8): on/off/emit, delivered FIFO per subscriber, queued during
// the frame and flushed in emit order by Runtime.Tick step 4.
type scriptEventBus struct {
	nextID    int64
	subsByName map[string][]*scriptSubscription
	queue     []queuedEvent
}

func newScriptEventBus() *scriptEventBus {
	return &scriptEventBus{subsByName: map[string][]*scriptSubscription{}}
}

func (b *scriptEventBus) on(name string, owner ecs.EntityID, state *lua.LState, fn lua.LValue) int64 {
	b.nextID++
	b.subsByName[name] = append(b.subsByName[name], &scriptSubscription{id: b.nextID, owner: owner, state: state, fn: fn})
	return b.nextID
}

func (b *scriptEventBus) off(name string, id int64) {
	subs := b.subsByName[name]
	out := subs[:0]
	for _, s := range subs {
		if s.id != id {
			out = append(out, s)
		}
	}
	b.subsByName[name] = out
}

func (b *scriptEventBus) emit(name string, payload lua.LValue) {
	b.queue = append(b.queue, queuedEvent{name: name, payload: payload})
}

// clearOwner removes every subscription e holds, run on destroy/script
// removal.
func (b *scriptEventBus) clearOwner(e ecs.EntityID) {
	for name, subs := range b.subsByName {
		out := subs[:0]
		for _, s := range subs {
			if s.owner != e {
				out = append(out, s)
			}
		}
		b.subsByName[name] = out
	}
}

// flush delivers every queued event to its subscribers in emit order,
// each subscriber seeing its own events FIFO.
func (b *scriptEventBus) flush(call func(state *lua.LState, fn lua.LValue, payload lua.LValue)) {
	pending := b.queue
	b.queue = nil
	for _, ev := range pending {
		for _, sub := range b.subsByName[ev.name] {
			call(sub.state, sub.fn, ev.payload)
		}
	}
}
