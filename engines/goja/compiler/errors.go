package compiler

import "errors"

var (
	// ErrCompileFailure means the prelude or the wrapper declaration is not valid JavaScript,
	// or could not be installed in the runtime.
	ErrCompileFailure = errors.New("compile failure")

	ErrContentNil         = errors.New("script content is nil")
	ErrExecCreationFailed = errors.New("unable to create goja executable")
)
