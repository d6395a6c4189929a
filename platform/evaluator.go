package platform

import (
	"context"

	"github.com/robbyt/go-jsgate/platform/data"
)

// Evaluator runs one synthesized executable unit.
type Evaluator interface {
	// Eval runs the compiled wrapper unit with the snippet and variables it was built from.
	// The unit is single use: evaluators never share interpreter state between calls.
	Eval(ctx context.Context) (EvaluatorResponse, error)
}

// EvaluatorResponse is the JSON-model value produced by an evaluation.
type EvaluatorResponse interface {
	// Type of the object.
	Type() data.Types

	// Inspect returns a string representation of the given object.
	Inspect() string

	// Interface returns the JSON-model Go value (nil, bool, string, int64, float64,
	// []any, map[string]any).
	Interface() any

	// GetScriptExeID returns the ID of the executable unit that produced the value.
	GetScriptExeID() string

	// GetExecTime returns the time it took to execute the script
	GetExecTime() string
}
