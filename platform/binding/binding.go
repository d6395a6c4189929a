// Package binding derives the names exposed to a snippet from the request's variables.
package binding

import (
	"fmt"
	"regexp"
	"slices"
)

var identRE = regexp.MustCompile(`^[A-Za-z_$][A-Za-z0-9_$]*$`)

// reserved words that cannot appear as a binding identifier in a destructuring pattern
var reserved = map[string]struct{}{
	"break": {}, "case": {}, "catch": {}, "class": {}, "const": {}, "continue": {},
	"debugger": {}, "default": {}, "delete": {}, "do": {}, "else": {}, "enum": {},
	"export": {}, "extends": {}, "false": {}, "finally": {}, "for": {}, "function": {},
	"if": {}, "import": {}, "in": {}, "instanceof": {}, "new": {}, "null": {},
	"return": {}, "super": {}, "switch": {}, "this": {}, "throw": {}, "true": {},
	"try": {}, "typeof": {}, "var": {}, "void": {}, "while": {}, "with": {},
	// strict mode and contextual
	"implements": {}, "interface": {}, "let": {}, "package": {}, "private": {},
	"protected": {}, "public": {}, "static": {}, "yield": {}, "await": {},
}

// Resolve returns the keys of variables in ascending order. Any value other than a JSON
// object fails with ErrNotAnObject. Names are not checked for identifier syntax; see Validate.
func Resolve(variables any) ([]string, error) {
	object, ok := variables.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("%w: got %s", ErrNotAnObject, describe(variables))
	}

	names := make([]string, 0, len(object))
	for name := range object {
		names = append(names, name)
	}
	slices.Sort(names)
	return names, nil
}

// Validate checks that every name can be used as a plain identifier in the wrapper's
// parameter list. Only ASCII identifiers are accepted.
func Validate(names []string) error {
	for _, name := range names {
		if !identRE.MatchString(name) {
			return fmt.Errorf("%w: %q is not an identifier", ErrInvalidName, name)
		}
		if _, ok := reserved[name]; ok {
			return fmt.Errorf("%w: %q is a reserved word", ErrInvalidName, name)
		}
	}
	return nil
}

func describe(v any) string {
	switch v.(type) {
	case nil:
		return "null"
	case []any:
		return "array"
	case string:
		return "string"
	case bool:
		return "boolean"
	case map[string]any:
		return "object"
	default:
		return "number"
	}
}
