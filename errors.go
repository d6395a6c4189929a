package jsgate

import (
	"errors"

	"github.com/robbyt/go-jsgate/engines/goja/compiler"
	"github.com/robbyt/go-jsgate/engines/goja/evaluator"
	"github.com/robbyt/go-jsgate/engines/goja/wrapper"
	"github.com/robbyt/go-jsgate/platform/binding"
	"github.com/robbyt/go-jsgate/platform/request"
)

// Kind names the outcome of an evaluation in the error envelope and in metrics.
type Kind string

const (
	KindOK                    Kind = "ok"
	KindParseError            Kind = "parse_error"
	KindBindingError          Kind = "binding_error"
	KindInvalidName           Kind = "invalid_name"
	KindRenderError           Kind = "render_error"
	KindCompileFailure        Kind = "compile_failure"
	KindTimeout               Kind = "timeout"
	KindRuntimeFailure        Kind = "runtime_failure"
	KindUnsupportedResultType Kind = "unsupported_result_type"
	KindInternalError         Kind = "internal_error"
)

// Kinds lists every kind, successful outcome first.
var Kinds = []Kind{
	KindOK,
	KindParseError,
	KindBindingError,
	KindInvalidName,
	KindRenderError,
	KindCompileFailure,
	KindTimeout,
	KindRuntimeFailure,
	KindUnsupportedResultType,
	KindInternalError,
}

// ErrInternal marks failures that are not attributable to the request.
var ErrInternal = errors.New("internal error")

// KindOf classifies err by the sentinel it wraps. A nil error is KindOK.
func KindOf(err error) Kind {
	switch {
	case err == nil:
		return KindOK
	case errors.Is(err, request.ErrParse):
		return KindParseError
	case errors.Is(err, binding.ErrNotAnObject):
		return KindBindingError
	case errors.Is(err, binding.ErrInvalidName):
		return KindInvalidName
	case errors.Is(err, wrapper.ErrRender):
		return KindRenderError
	case errors.Is(err, evaluator.ErrTimeout):
		return KindTimeout
	case errors.Is(err, evaluator.ErrUnsupportedResultType):
		return KindUnsupportedResultType
	case errors.Is(err, evaluator.ErrRuntimeFailure):
		return KindRuntimeFailure
	case errors.Is(err, compiler.ErrCompileFailure):
		return KindCompileFailure
	default:
		return KindInternalError
	}
}
