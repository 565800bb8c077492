package scripting

import (
	"testing"
	"time"

	lua "github.com/yuin/gopher-lua"

	"github.com/stretchr/testify/assert"

	"enginecore/internal/ecs"
)

func Test_TimerQueue_SetTimeoutFiresOnceDueTimeReached(t *testing.T) {
	q := newTimerQueue()
	var fired int
	fn := lua.LValue(lua.LNil)
	q.setTimeout(ecs.EntityID(1), nil, fn, 10)

	q.drain(5, func(*lua.LState, lua.LValue) { fired++ })
	assert.Equal(t, 0, fired)

	q.drain(10, func(*lua.LState, lua.LValue) { fired++ })
	assert.Equal(t, 1, fired)
}

func Test_TimerQueue_SetIntervalReschedulesItself(t *testing.T) {
	q := newTimerQueue()
	var fired int
	q.setInterval(ecs.EntityID(1), nil, lua.LNil, 10)

	for i := 0; i < 3; i++ {
		q.drain(10, func(*lua.LState, lua.LValue) { fired++ })
	}
	assert.Equal(t, 3, fired)
}

func Test_TimerQueue_ClearRemovesPendingTimer(t *testing.T) {
	q := newTimerQueue()
	var fired int
	id := q.setTimeout(ecs.EntityID(1), nil, lua.LNil, 10)
	q.clear(id)

	q.drain(100, func(*lua.LState, lua.LValue) { fired++ })
	assert.Equal(t, 0, fired)
}

func Test_TimerQueue_ClearOwnerDropsAllOfThatOwnersWork(t *testing.T) {
	q := newTimerQueue()
	var fired int
	q.setTimeout(ecs.EntityID(1), nil, lua.LNil, 10)
	q.setTimeout(ecs.EntityID(2), nil, lua.LNil, 10)
	q.clearOwner(ecs.EntityID(1))

	q.drain(100, func(*lua.LState, lua.LValue) { fired++ })
	assert.Equal(t, 1, fired)
}

func Test_TimerQueue_DrainStopsAtBudgetAndCarriesRemainderFIFO(t *testing.T) {
	q := newTimerQueue()
	var order []int
	for i := 0; i < 20; i++ {
		q.setTimeout(ecs.EntityID(i), nil, lua.LNumber(i), 0)
	}

	call := func(_ *lua.LState, fn lua.LValue) {
		n := int(fn.(lua.LNumber))
		order = append(order, n)
		time.Sleep(2 * time.Millisecond)
	}

	q.drain(1, call)
	firstRoundCount := len(order)
	assert.Less(t, firstRoundCount, 20)
	assert.Greater(t, firstRoundCount, 0)

	for round := 0; round < 20 && len(order) < 20; round++ {
		q.drain(1, call)
	}
	assert.Equal(t, 20, len(order))

	for i := 1; i < len(order); i++ {
		assert.Less(t, order[i-1], order[i])
	}
}

func Test_TimerQueue_RunFrameCallbacksFiresNextTickOneFrameLater(t *testing.T) {
	q := newTimerQueue()
	var fired bool
	q.nextTick(ecs.EntityID(1), nil, lua.LNil, 5)

	q.runFrameCallbacks(5, func(*lua.LState, lua.LValue) { fired = true })
	assert.False(t, fired)

	q.runFrameCallbacks(6, func(*lua.LState, lua.LValue) { fired = true })
	assert.True(t, fired)
}

func Test_TimerQueue_WaitFramesFiresAfterNFrames(t *testing.T) {
	q := newTimerQueue()
	var fired bool
	q.waitFrames(ecs.EntityID(1), nil, lua.LNil, 3, 1)

	q.runFrameCallbacks(3, func(*lua.LState, lua.LValue) { fired = true })
	assert.False(t, fired)

	q.runFrameCallbacks(4, func(*lua.LState, lua.LValue) { fired = true })
	assert.True(t, fired)
}
