package evaluator

import (
	"errors"

	"github.com/robbyt/go-jsgate/engines/goja/compiler"
)

var (
	// ErrCompileFailure is shared with the compiler: running the prelude threw, or it
	// left no callable wrapper behind.
	ErrCompileFailure = compiler.ErrCompileFailure

	ErrTimeout               = errors.New("evaluation timed out")
	ErrRuntimeFailure        = errors.New("runtime failure")
	ErrUnsupportedResultType = errors.New("unsupported result type")

	// ErrStackOverflow is wrapped in ErrRuntimeFailure when the call stack limit is hit.
	ErrStackOverflow = errors.New("maximum call stack size exceeded")

	ErrExecUnitNil     = errors.New("executable unit is nil")
	ErrContentNil      = errors.New("content is nil")
	ErrBytecodeInvalid = errors.New("invalid bytecode")
)
