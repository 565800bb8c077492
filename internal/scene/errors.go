package scene

import "enginecore/internal/errkit"

func errResourceCancelled() *errkit.EngineError {
	return errkit.New(errkit.ResourceCancelled, "scene operation cancelled")
}
