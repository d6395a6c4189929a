package binding

import "errors"

var (
	// ErrNotAnObject is returned when the variables value is not a JSON object.
	ErrNotAnObject = errors.New("variables are not an object")

	// ErrInvalidName is returned by Validate for a key that is not a usable identifier.
	ErrInvalidName = errors.New("invalid binding name")
)
