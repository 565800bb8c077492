// Package engine composes an identity service, ECS store/registry/index,
// scene serializer, and scripting runtime into one ready-to-run instance,
// exposing an ordered per-frame system schedule and explicit Dispose
// (spec §4.F/§4.G).
package engine

import (
	"os"

	"gopkg.in/yaml.v3"

	"enginecore/internal/identity"
)

// Config holds the parameters an Instance is built from, loadable from
// YAML. Grounded on the teacher's WorldConfig/DefaultWorldConfig
// pattern. New reads IDKind and RNGSeed. MaxScriptFrameBudgetMs and
// ScriptExecutionOrderTiebreak are loaded and defaulted but not passed to
// the scripting runtime, which uses a fixed 5 ms timer budget and always
// runs scripts in ascending eid order.
type Config struct {
	IDKind                       identity.Kind `yaml:"id_kind"`
	MaxScriptFrameBudgetMs       float64       `yaml:"max_script_frame_budget_ms"`
	RNGSeed                      int64         `yaml:"rng_seed"`
	ScriptExecutionOrderTiebreak string        `yaml:"script_execution_order_tiebreak"`
}

// DefaultConfig mirrors the teacher's DefaultWorldConfig(): a config
// usable as-is for development, with every field at a sensible default.
func DefaultConfig() Config {
	return Config{
		IDKind:                       identity.KindUUID,
		MaxScriptFrameBudgetMs:       5,
		RNGSeed:                      1,
		ScriptExecutionOrderTiebreak: "eid",
	}
}

// LoadConfig reads and parses a YAML config file, filling any field the
// file omits from DefaultConfig.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	raw, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}
