package scripting

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"sync"

	lua "github.com/yuin/gopher-lua"

	"enginecore/internal/errkit"
)

// APIVersion is stamped into the compile cache key so a future breaking
// API change invalidates every cached proto, matching spec.md §4.E
// "cached by (source hash, API version)."
const APIVersion = "1"

// CompiledScript is a parsed, cacheable Lua chunk, ready to run against a
// fresh per-entity environment.
type CompiledScript struct {
	Source string
	proto  *lua.FunctionProto
}

// compileCache memoizes compiled scripts by sha256(source)+APIVersion, so
// N entities sharing one script source compile it exactly once. Ported
// from the teacher's mod/factory.go per-id caching idea, rekeyed from mod
// identity to (source hash, API version).
type compileCache struct {
	mu    sync.RWMutex
	byKey map[string]*CompiledScript
}

func newCompileCache() *compileCache {
	return &compileCache{byKey: map[string]*CompiledScript{}}
}

func cacheKey(source string) string {
	sum := sha256.Sum256([]byte(source))
	return hex.EncodeToString(sum[:]) + ":" + APIVersion
}

// compile returns the cached CompiledScript for source, parsing it on
// first use. A parse failure is returned as errkit.ScriptCompileError and
// is not cached, so a corrected source on the next call recompiles.
func (c *compileCache) compile(source string) (*CompiledScript, error) {
	key := cacheKey(source)

	c.mu.RLock()
	if cs, ok := c.byKey[key]; ok {
		c.mu.RUnlock()
		return cs, nil
	}
	c.mu.RUnlock()

	chunk, err := parseLua(source)
	if err != nil {
		return nil, errkit.Wrap(errkit.ScriptCompileError, "script compilation failed", err)
	}

	cs := &CompiledScript{Source: source, proto: chunk}
	c.mu.Lock()
	c.byKey[key] = cs
	c.mu.Unlock()
	return cs, nil
}

func parseLua(source string) (*lua.FunctionProto, error) {
	chunk, err := lua.Parse(strings.NewReader(source), "script")
	if err != nil {
		return nil, err
	}
	proto, err := lua.Compile(chunk, "script")
	if err != nil {
		return nil, err
	}
	return proto, nil
}
