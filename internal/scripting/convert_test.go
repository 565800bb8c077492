package scripting

import (
	"testing"

	lua "github.com/yuin/gopher-lua"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"enginecore/internal/ecs"
)

func Test_GoToLua_ConvertsVector3ToTableWithXYZFields(t *testing.T) {
	state := lua.NewState()
	defer state.Close()

	v := goToLua(state, ecs.Vector3{X: 1, Y: 2, Z: 3})
	table, ok := v.(*lua.LTable)
	require.True(t, ok)
	assert.Equal(t, lua.LNumber(1), table.RawGetString("x"))
	assert.Equal(t, lua.LNumber(2), table.RawGetString("y"))
	assert.Equal(t, lua.LNumber(3), table.RawGetString("z"))
}

func Test_GoToLua_ConvertsMapToTable(t *testing.T) {
	state := lua.NewState()
	defer state.Close()

	v := goToLua(state, map[string]any{"name": "crate", "count": 3})
	table, ok := v.(*lua.LTable)
	require.True(t, ok)
	assert.Equal(t, lua.LString("crate"), table.RawGetString("name"))
	assert.Equal(t, lua.LNumber(3), table.RawGetString("count"))
}

func Test_LuaToGo_RoundTripsMapThroughTable(t *testing.T) {
	state := lua.NewState()
	defer state.Close()

	original := map[string]any{"name": "crate", "count": float64(3)}
	lv := goToLua(state, original)
	back := luaToGo(lv)

	backMap, ok := back.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, original["name"], backMap["name"])
	assert.Equal(t, original["count"], backMap["count"])
}

func Test_LuaTableToGo_DetectsArrayShape(t *testing.T) {
	state := lua.NewState()
	defer state.Close()

	table := state.NewTable()
	table.RawSetInt(1, lua.LString("a"))
	table.RawSetInt(2, lua.LString("b"))

	back := luaTableToGo(table)
	arr, ok := back.([]any)
	require.True(t, ok)
	assert.Equal(t, []any{"a", "b"}, arr)
}
