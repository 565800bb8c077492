package ecs

import (
	"enginecore/internal/errkit"
)

// FieldKind names the primitive shape of a schema field for validation and
// default-filling purposes.
type FieldKind string

const (
	FieldFloat  FieldKind = "float"
	FieldInt    FieldKind = "int"
	FieldBool   FieldKind = "bool"
	FieldString FieldKind = "string"
	FieldEnum   FieldKind = "enum"
	FieldVec3   FieldKind = "vec3"
	FieldColor  FieldKind = "color"
	FieldMap    FieldKind = "map"
)

// FieldSchema describes one field of a component's structured value:
// its kind, default, optional numeric range, and optional enum set.
type FieldSchema struct {
	Name     string
	Kind     FieldKind
	Default  any
	Min, Max *float64
	Enum     []string
}

// Definition is what a component type registers with the registry:
// its schema, dependency/conflict lists, category tag, and lifecycle
// hooks. Grounded on the teacher's ComponentTypeInfo (component.go).
type Definition struct {
	TypeID       ComponentType
	Fields       []FieldSchema
	Dependencies []ComponentType
	Conflicts    []ComponentType
	Category     string
	OnAdd        func(reg *Registry, e EntityID, data map[string]any)
	OnRemove     func(reg *Registry, e EntityID, data map[string]any)
}

// validate checks data against the schema, filling in defaults for
// missing fields and rejecting unknown or out-of-range ones. It returns
// a new map (data is never mutated) plus a field-error list.
func (d Definition) validate(data map[string]any) (map[string]any, []errkit.FieldError) {
	out := make(map[string]any, len(d.Fields))
	var fieldErrs []errkit.FieldError

	known := make(map[string]FieldSchema, len(d.Fields))
	for _, f := range d.Fields {
		known[f.Name] = f
	}

	for name, f := range known {
		value, provided := data[name]
		if !provided {
			out[name] = f.Default
			continue
		}
		if err := checkField(f, value); err != "" {
			fieldErrs = append(fieldErrs, errkit.FieldError{Path: name, Message: err})
			continue
		}
		out[name] = value
	}

	for name := range data {
		if _, ok := known[name]; !ok {
			fieldErrs = append(fieldErrs, errkit.FieldError{Path: name, Message: "unknown field"})
		}
	}

	return out, fieldErrs
}

// mergeShallow applies a partial update to an existing structured value,
// merging nested map[string]any one level deep (spec §4.C update_component
// semantics). It does not validate; Registry.UpdateComponent validates the
// merged result before storing it.
func (d Definition) mergeShallow(existing, partial map[string]any) map[string]any {
	merged := make(map[string]any, len(existing))
	for k, v := range existing {
		merged[k] = v
	}
	for k, v := range partial {
		if existingNested, ok := merged[k].(map[string]any); ok {
			if newNested, ok := v.(map[string]any); ok {
				mergedNested := make(map[string]any, len(existingNested))
				for nk, nv := range existingNested {
					mergedNested[nk] = nv
				}
				for nk, nv := range newNested {
					mergedNested[nk] = nv
				}
				merged[k] = mergedNested
				continue
			}
		}
		merged[k] = v
	}
	return merged
}

func checkField(f FieldSchema, value any) string {
	switch f.Kind {
	case FieldFloat, FieldInt:
		num, ok := toFloat(value)
		if !ok {
			return "expected numeric value"
		}
		if f.Min != nil && num < *f.Min {
			return "value below minimum"
		}
		if f.Max != nil && num > *f.Max {
			return "value above maximum"
		}
	case FieldBool:
		if _, ok := value.(bool); !ok {
			return "expected bool value"
		}
	case FieldString:
		if _, ok := value.(string); !ok {
			return "expected string value"
		}
	case FieldEnum:
		s, ok := value.(string)
		if !ok {
			return "expected string value"
		}
		valid := false
		for _, e := range f.Enum {
			if e == s {
				valid = true
				break
			}
		}
		if !valid {
			return "value not in enum"
		}
	case FieldVec3:
		if _, ok := value.(Vector3); !ok {
			return "expected vec3 value"
		}
	case FieldColor:
		if _, ok := value.(Color); !ok {
			return "expected color value"
		}
	case FieldMap:
		if _, ok := value.(map[string]any); !ok {
			return "expected map value"
		}
	}
	return ""
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	}
	return 0, false
}
