// Package scripting executes per-entity Lua behavior against the fixed
// 14-surface API (spec §4.E), sandboxed with github.com/yuin/gopher-lua.
// Grounded on the teacher's internal/core/ecs/lua and internal/core/ecs/mod
// packages.
package scripting

import (
	"fmt"
	"regexp"

	lua "github.com/yuin/gopher-lua"

	"enginecore/internal/errkit"
)

// applySandbox nils out every global a script could use to reach outside
// its injected API: the filesystem, OS commands, debug/registry internals,
// and the module loader. Ported directly from the teacher's
// lua.applySandbox.
func applySandbox(state *lua.LState) {
	state.SetGlobal("io", lua.LNil)
	state.SetGlobal("os", lua.LNil)
	state.SetGlobal("dofile", lua.LNil)
	state.SetGlobal("loadfile", lua.LNil)
	state.SetGlobal("debug", lua.LNil)
	state.SetGlobal("package", lua.LNil)
	state.SetGlobal("require", lua.LNil)
	state.SetGlobal("load", lua.LNil)
	state.SetGlobal("loadstring", lua.LNil)
	state.SetGlobal("collectgarbage", lua.LNil)
}

// dangerousPatterns flags string arguments a script passes into path-like
// or identifier-like API parameters (gameObject.create_model paths, prefab
// ids, audio clip names). Ported from the teacher's
// mod.AdvancedSecurityValidator.dangerousPatterns.
var dangerousPatterns = []*regexp.Regexp{
	regexp.MustCompile(`\.\.+/`),
	regexp.MustCompile(`(rm|del|delete).*(-r|-rf)`),
	regexp.MustCompile(`^(exec|cmd)$`),
	regexp.MustCompile(`(http|tcp|udp)://`),
	regexp.MustCompile(`/etc/(passwd|shadow)`),
	regexp.MustCompile(`\.(ssh|config)`),
}

// validatePathLike rejects a string parameter that matches a dangerous
// pattern, used on every API surface that accepts a free-form string
// destined for a filesystem-like lookup (model paths, clip names).
func validatePathLike(value string) error {
	for _, p := range dangerousPatterns {
		if p.MatchString(value) {
			return errkit.New(errkit.SandboxViolation, fmt.Sprintf("value %q matches a disallowed pattern", value))
		}
	}
	return nil
}
