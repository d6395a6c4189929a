package request

import "errors"

var (
	// ErrParse marks every failure to turn a payload into an EvaluationRequest.
	ErrParse = errors.New("malformed evaluation request")

	ErrMissingScript    = errors.New(`"script" is required and must be a string`)
	ErrMissingVariables = errors.New(`"variables" is required`)
	ErrTrailingData     = errors.New("unexpected data after the JSON value")
)
