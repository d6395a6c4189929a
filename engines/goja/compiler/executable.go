package compiler

import (
	gojaLib "github.com/dop251/goja"
)

// Executable implements script.ExecutableContent for goja programs.
// A *goja.Program is immutable and may be run by any number of runtimes.
type Executable struct {
	source   string
	ByteCode *gojaLib.Program
}

// NewExecutable returns nil when source is empty or program is nil.
func NewExecutable(source string, program *gojaLib.Program) *Executable {
	if source == "" || program == nil {
		return nil
	}
	return &Executable{
		source:   source,
		ByteCode: program,
	}
}

// GetSource returns the original script content
func (e *Executable) GetSource() string {
	return e.source
}

// GetByteCode returns the compiled program as a generic interface
func (e *Executable) GetByteCode() any {
	return e.ByteCode
}

// GetGojaByteCode returns the compiled program with its proper type
func (e *Executable) GetGojaByteCode() *gojaLib.Program {
	return e.ByteCode
}
