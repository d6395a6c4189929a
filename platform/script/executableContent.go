package script

// ExecutableContent is compiled script content that is ready for execution.
// Implementations like the goja compiler's executable keep the source next to
// the engine-specific program.
type ExecutableContent interface {
	// GetSource returns the source text that was compiled.
	GetSource() string

	// GetByteCode returns the compiled program in an engine-specific format. The engine
	// asserts it into the type it requires and fails the evaluation if it cannot.
	GetByteCode() any
}
