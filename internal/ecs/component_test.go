package ecs

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func Test_Definition_Validate_FillsDefaults(t *testing.T) {
	def := Definition{
		Fields: []FieldSchema{
			{Name: "speed", Kind: FieldFloat, Default: 5.0},
		},
	}

	data, errs := def.validate(map[string]any{})

	assert.Empty(t, errs)
	assert.Equal(t, 5.0, data["speed"])
}

func Test_Definition_Validate_RejectsOutOfRange(t *testing.T) {
	min := 0.0
	max := 100.0
	def := Definition{
		Fields: []FieldSchema{
			{Name: "health", Kind: FieldFloat, Default: 0.0, Min: &min, Max: &max},
		},
	}

	_, errs := def.validate(map[string]any{"health": 150.0})

	assert.Len(t, errs, 1)
	assert.Equal(t, "health", errs[0].Path)
}

func Test_Definition_Validate_RejectsUnknownEnumValue(t *testing.T) {
	def := Definition{
		Fields: []FieldSchema{
			{Name: "kind", Kind: FieldEnum, Default: "point", Enum: []string{"point", "spot"}},
		},
	}

	_, errs := def.validate(map[string]any{"kind": "laser"})

	assert.Len(t, errs, 1)
}

func Test_Definition_Validate_RejectsUnknownField(t *testing.T) {
	def := Definition{
		Fields: []FieldSchema{
			{Name: "speed", Kind: FieldFloat, Default: 1.0},
		},
	}

	_, errs := def.validate(map[string]any{"unknown": 1})

	assert.Len(t, errs, 1)
	assert.Equal(t, "unknown field", errs[0].Message)
}

func Test_Definition_MergeShallow_MergesNestedMapOneLevel(t *testing.T) {
	def := Definition{}
	existing := map[string]any{
		"position": map[string]any{"x": 1.0, "y": 2.0, "z": 3.0},
		"name":     "a",
	}
	partial := map[string]any{
		"position": map[string]any{"x": 9.0},
	}

	merged := def.mergeShallow(existing, partial)

	pos := merged["position"].(map[string]any)
	assert.Equal(t, 9.0, pos["x"])
	assert.Equal(t, 2.0, pos["y"])
	assert.Equal(t, "a", merged["name"])
}
