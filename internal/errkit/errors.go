// Package errkit provides the error representation shared by every core
// subsystem: identity, the component registry, the scene serializer, and the
// scripting runtime all return *EngineError rather than panic or abort the
// world.
package errkit

import (
	"fmt"
	"time"
)

// Code identifies the kind of failure, matching the error kinds in §7.
type Code string

const (
	ValidationFailed      Code = "VALIDATION_FAILED"
	DependencyUnmet       Code = "DEPENDENCY_UNMET"
	ConflictPresent       Code = "CONFLICT_PRESENT"
	DuplicatePersistentId Code = "DUPLICATE_PERSISTENT_ID"
	DuplicateTypeMismatch Code = "DUPLICATE_TYPE_MISMATCH"
	UnsupportedVersion    Code = "UNSUPPORTED_VERSION"
	CircularParenting     Code = "CIRCULAR_PARENTING"
	UnknownComponentType  Code = "UNKNOWN_COMPONENT_TYPE"
	ScriptCompileError    Code = "SCRIPT_COMPILE_ERROR"
	ScriptRuntimeError    Code = "SCRIPT_RUNTIME_ERROR"
	HookError             Code = "HOOK_ERROR"
	ResourceCancelled     Code = "RESOURCE_CANCELLED"
	EntityNotFound        Code = "ENTITY_NOT_FOUND"
	ComponentNotFound     Code = "COMPONENT_NOT_FOUND"
	ComponentExists       Code = "COMPONENT_EXISTS"
	InvalidOperation      Code = "INVALID_OPERATION"
	SandboxViolation      Code = "SANDBOX_VIOLATION"
)

// FieldError names one invalid field inside a validation failure, keyed by
// its dotted path inside the component's structured value.
type FieldError struct {
	Path    string `json:"path"`
	Message string `json:"message"`
}

// EngineError is the single error type returned by core subsystem calls.
type EngineError struct {
	Code      Code         `json:"code"`
	Message   string       `json:"message"`
	Entity    uint64       `json:"entity,omitempty"`
	Component string       `json:"component,omitempty"`
	Fields    []FieldError `json:"fields,omitempty"`
	Timestamp time.Time    `json:"timestamp"`
}

func (e *EngineError) Error() string {
	switch {
	case e.Entity != 0 && e.Component != "":
		return fmt.Sprintf("[%s] %s (entity: %d, component: %s)", e.Code, e.Message, e.Entity, e.Component)
	case e.Entity != 0:
		return fmt.Sprintf("[%s] %s (entity: %d)", e.Code, e.Message, e.Entity)
	case e.Component != "":
		return fmt.Sprintf("[%s] %s (component: %s)", e.Code, e.Message, e.Component)
	default:
		return fmt.Sprintf("[%s] %s", e.Code, e.Message)
	}
}

// New creates a bare engine error with the current timestamp.
func New(code Code, message string) *EngineError {
	return &EngineError{Code: code, Message: message, Timestamp: time.Now()}
}

// WithEntity attaches entity context and returns the same error for chaining.
func (e *EngineError) WithEntity(eid uint64) *EngineError {
	e.Entity = eid
	return e
}

// WithComponent attaches component-type context.
func (e *EngineError) WithComponent(typeID string) *EngineError {
	e.Component = typeID
	return e
}

// WithFields attaches a field-path list, used by validation failures.
func (e *EngineError) WithFields(fields []FieldError) *EngineError {
	e.Fields = fields
	return e
}

// Wrap folds an underlying error's text into a new EngineError without
// losing the original error's message.
func Wrap(code Code, message string, err error) *EngineError {
	return New(code, fmt.Sprintf("%s: %v", message, err))
}

// Is reports whether err is an *EngineError carrying the given code.
func Is(err error, code Code) bool {
	ee, ok := err.(*EngineError)
	return ok && ee.Code == code
}
