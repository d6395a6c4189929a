package script

import "io"

// Compiler validates source text and turns it into ExecutableContent.
//
// Example usage:
//
//	var comp Compiler = compiler.New()
//	content, err := comp.Compile(reader)
//	if err != nil {
//	    // syntax error in the prelude or the wrapper
//	}
type Compiler interface {
	// Compile reads and closes scriptReader, returning the compiled content or an
	// error describing why the source is not valid.
	Compile(scriptReader io.ReadCloser) (ExecutableContent, error)
}
