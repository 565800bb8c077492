package scripting

import (
	"testing"

	lua "github.com/yuin/gopher-lua"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_ApplySandbox_NilsDangerousGlobals(t *testing.T) {
	state := lua.NewState(lua.Options{SkipOpenLibs: false})
	defer state.Close()
	applySandbox(state)

	for _, name := range []string{"io", "os", "dofile", "loadfile", "debug", "package", "require", "load", "loadstring", "collectgarbage"} {
		assert.Equal(t, lua.LNil, state.GetGlobal(name), "global %q should be nil-ed", name)
	}
}

func Test_ApplySandbox_ScriptCannotReachIO(t *testing.T) {
	state := lua.NewState(lua.Options{SkipOpenLibs: false})
	defer state.Close()
	applySandbox(state)

	err := state.DoString(`io.open("/etc/passwd")`)
	require.Error(t, err)
}

func Test_ValidatePathLike_RejectsTraversalAndDangerousPatterns(t *testing.T) {
	cases := []string{
		"../../etc/passwd",
		"/etc/passwd",
		"rm -rf /",
		"http://example.com/payload",
		"~/.ssh/id_rsa",
	}
	for _, c := range cases {
		assert.Error(t, validatePathLike(c), "expected %q to be rejected", c)
	}
}

func Test_ValidatePathLike_AllowsOrdinaryAssetPaths(t *testing.T) {
	assert.NoError(t, validatePathLike("models/crate.glb"))
	assert.NoError(t, validatePathLike("prefabs/enemy"))
}
