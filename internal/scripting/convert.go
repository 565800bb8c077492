package scripting

import (
	"fmt"
	"reflect"

	lua "github.com/yuin/gopher-lua"

	"enginecore/internal/ecs"
)

// goToLua converts a Go value into its Lua representation. Ported from the
// teacher's lua.convertGoToLua, extended with ecs.Vector3/ecs.Color cases
// so component data round-trips through scripts without a reflection pass.
func goToLua(state *lua.LState, value any) lua.LValue {
	if value == nil {
		return lua.LNil
	}
	switch v := value.(type) {
	case string:
		return lua.LString(v)
	case int:
		return lua.LNumber(float64(v))
	case int64:
		return lua.LNumber(float64(v))
	case float32:
		return lua.LNumber(float64(v))
	case float64:
		return lua.LNumber(v)
	case bool:
		return lua.LBool(v)
	case ecs.Vector3:
		t := state.NewTable()
		t.RawSetString("x", lua.LNumber(v.X))
		t.RawSetString("y", lua.LNumber(v.Y))
		t.RawSetString("z", lua.LNumber(v.Z))
		return t
	case ecs.Color:
		t := state.NewTable()
		t.RawSetString("r", lua.LNumber(v.R))
		t.RawSetString("g", lua.LNumber(v.G))
		t.RawSetString("b", lua.LNumber(v.B))
		t.RawSetString("a", lua.LNumber(v.A))
		return t
	case []string:
		t := state.NewTable()
		for i, s := range v {
			t.RawSetInt(i+1, lua.LString(s))
		}
		return t
	case map[string]any:
		t := state.NewTable()
		for k, val := range v {
			t.RawSetString(k, goToLua(state, val))
		}
		return t
	default:
		return structToLua(state, value)
	}
}

func structToLua(state *lua.LState, value any) lua.LValue {
	v := reflect.ValueOf(value)
	t := reflect.TypeOf(value)
	if v.Kind() == reflect.Ptr {
		if v.IsNil() {
			return lua.LNil
		}
		v = v.Elem()
		t = t.Elem()
	}
	if v.Kind() != reflect.Struct {
		return lua.LNil
	}
	table := state.NewTable()
	for i := 0; i < v.NumField(); i++ {
		field := v.Field(i)
		if !field.CanInterface() {
			continue
		}
		name := t.Field(i).Name
		if tag := t.Field(i).Tag.Get("json"); tag != "" && tag != "-" {
			name = tag
		}
		table.RawSetString(name, goToLua(state, field.Interface()))
	}
	return table
}

// luaToGo converts a Lua value into a plain Go value (string, float64,
// bool, map[string]any, []any, or nil), mirroring the component registry's
// own structured-value representation so script-authored component data
// can be passed straight to Registry.AddComponent/UpdateComponent.
func luaToGo(value lua.LValue) any {
	switch v := value.(type) {
	case lua.LString:
		return string(v)
	case lua.LNumber:
		return float64(v)
	case lua.LBool:
		return bool(v)
	case *lua.LTable:
		return luaTableToGo(v)
	case *lua.LNilType:
		return nil
	default:
		return fmt.Sprintf("%v", v)
	}
}

func luaTableToGo(table *lua.LTable) any {
	maxN := table.Len()
	isArray := maxN > 0
	if isArray {
		for i := 1; i <= maxN; i++ {
			if table.RawGetInt(i) == lua.LNil {
				isArray = false
				break
			}
		}
	}
	if isArray {
		out := make([]any, 0, maxN)
		for i := 1; i <= maxN; i++ {
			out = append(out, luaToGo(table.RawGetInt(i)))
		}
		return out
	}
	out := map[string]any{}
	table.ForEach(func(key, val lua.LValue) {
		out[key.String()] = luaToGo(val)
	})
	return out
}
