// Package wrapper synthesizes the JavaScript unit that exposes request variables to a snippet.
//
// The generated source is the operator prelude followed by a single function declaration:
//
//	function wrapper(script_snippet, { a, b } ){ return eval(script_snippet) }
//
// The snippet is evaluated with a direct eval inside that function, so the only names it
// sees beyond the global scope are the destructured bindings.
package wrapper

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// EntryPoint is the name of the function declared by Render.
const EntryPoint = "wrapper"

const (
	declarationPrefix = "function " + EntryPoint + "(script_snippet, { "
	declarationSuffix = " } ){ return eval(script_snippet) }"
)

// Render returns prelude + newline + the wrapper declaration for bindings.
// Bindings are emitted verbatim and in the given order.
func Render(prelude string, bindings []string) (string, error) {
	if !utf8.ValidString(prelude) {
		return "", fmt.Errorf("%w: prelude is not valid UTF-8", ErrRender)
	}
	for i, name := range bindings {
		if !utf8.ValidString(name) {
			return "", fmt.Errorf("%w: binding %d is not valid UTF-8", ErrRender, i)
		}
	}

	var sb strings.Builder
	sb.Grow(len(prelude) + len(declarationPrefix) + len(declarationSuffix) + 16*len(bindings))
	sb.WriteString(prelude)
	sb.WriteByte('\n')
	sb.WriteString(Declaration(bindings))
	return sb.String(), nil
}

// Declaration returns the wrapper function declaration without any prelude.
func Declaration(bindings []string) string {
	return declarationPrefix + strings.Join(bindings, ", ") + declarationSuffix
}
