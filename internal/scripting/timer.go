package scripting

import (
	"time"

	lua "github.com/yuin/gopher-lua"

	"enginecore/internal/ecs"
)

// timerBudget is the per-frame wall-clock allowance for deferred callback
// work (spec §4.E "timer," "no more than 5 ms... runs per frame").
const timerBudget = 5 * time.Millisecond

type scheduledTimer struct {
	id         int64
	owner      ecs.EntityID
	fn         *lua.LValue
	state      *lua.LState
	dueAtMs    float64
	intervalMs float64
	isInterval bool
}

type frameCallback struct {
	owner       ecs.EntityID
	fn          *lua.LValue
	state       *lua.LState
	atFrame     int64
	isNextTick  bool
}

// timerQueue tracks set_timeout/set_interval registrations and the
// next_tick/wait_frames one-shot frame callbacks, FIFO per spec §4.E.
type timerQueue struct {
	nextID    int64
	nowMs     float64
	pending   []*scheduledTimer // not yet due
	ready     []*scheduledTimer // due, waiting for budget, FIFO
	frameCbs  []*frameCallback
}

func newTimerQueue() *timerQueue {
	return &timerQueue{}
}

func (q *timerQueue) setTimeout(owner ecs.EntityID, state *lua.LState, fn lua.LValue, delayMs float64) int64 {
	q.nextID++
	q.pending = append(q.pending, &scheduledTimer{
		id: q.nextID, owner: owner, fn: &fn, state: state, dueAtMs: q.nowMs + delayMs,
	})
	return q.nextID
}

func (q *timerQueue) setInterval(owner ecs.EntityID, state *lua.LState, fn lua.LValue, intervalMs float64) int64 {
	q.nextID++
	q.pending = append(q.pending, &scheduledTimer{
		id: q.nextID, owner: owner, fn: &fn, state: state, dueAtMs: q.nowMs + intervalMs,
		intervalMs: intervalMs, isInterval: true,
	})
	return q.nextID
}

func (q *timerQueue) clear(id int64) {
	q.pending = removeTimer(q.pending, id)
	q.ready = removeTimer(q.ready, id)
}

func removeTimer(list []*scheduledTimer, id int64) []*scheduledTimer {
	out := list[:0]
	for _, t := range list {
		if t.id != id {
			out = append(out, t)
		}
	}
	return out
}

// clearOwner drops every timer and frame callback belonging to e, run when
// e is destroyed or its script is removed (spec §4.E "Cancellation and
// cleanup").
func (q *timerQueue) clearOwner(e ecs.EntityID) {
	var kept []*scheduledTimer
	for _, t := range q.pending {
		if t.owner != e {
			kept = append(kept, t)
		}
	}
	q.pending = kept

	kept = nil
	for _, t := range q.ready {
		if t.owner != e {
			kept = append(kept, t)
		}
	}
	q.ready = kept

	var keptCbs []*frameCallback
	for _, cb := range q.frameCbs {
		if cb.owner != e {
			keptCbs = append(keptCbs, cb)
		}
	}
	q.frameCbs = keptCbs
}

func (q *timerQueue) nextTick(owner ecs.EntityID, state *lua.LState, fn lua.LValue, currentFrame int64) {
	q.frameCbs = append(q.frameCbs, &frameCallback{owner: owner, fn: &fn, state: state, atFrame: currentFrame + 1, isNextTick: true})
}

func (q *timerQueue) waitFrames(owner ecs.EntityID, state *lua.LState, fn lua.LValue, n int64, currentFrame int64) {
	q.frameCbs = append(q.frameCbs, &frameCallback{owner: owner, fn: &fn, state: state, atFrame: currentFrame + n})
}

// runFrameCallbacks fires every frame callback due at frame, outside the
// timer budget (they are frame-boundary hooks, not deferred work).
func (q *timerQueue) runFrameCallbacks(frame int64, call func(state *lua.LState, fn lua.LValue)) {
	var remaining []*frameCallback
	for _, cb := range q.frameCbs {
		if cb.atFrame <= frame {
			call(cb.state, *cb.fn)
			continue
		}
		remaining = append(remaining, cb)
	}
	q.frameCbs = remaining
}

// drain advances the timer clock by deltaMs and runs due callbacks up to
// timerBudget of actual wall-clock execution time, carrying any remainder
// over to the next frame in FIFO order (spec §4.E, S5).
func (q *timerQueue) drain(deltaMs float64, call func(state *lua.LState, fn lua.LValue)) {
	q.nowMs += deltaMs

	var stillPending []*scheduledTimer
	for _, t := range q.pending {
		if t.dueAtMs <= q.nowMs {
			q.ready = append(q.ready, t)
		} else {
			stillPending = append(stillPending, t)
		}
	}
	q.pending = stillPending

	var spent time.Duration
	for len(q.ready) > 0 && spent < timerBudget {
		t := q.ready[0]
		q.ready = q.ready[1:]

		start := time.Now()
		call(t.state, *t.fn)
		spent += time.Since(start)

		if t.isInterval {
			t.dueAtMs = q.nowMs + t.intervalMs
			q.pending = append(q.pending, t)
		}
	}
}
