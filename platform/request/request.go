// Package request decodes the wire payload of an evaluation request.
package request

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"time"
)

// EvaluationRequest is the validated shape of one evaluation.
type EvaluationRequest struct {
	// Script is the untrusted snippet. It is opaque text; only the interpreter parses it.
	Script string

	// Variables is the decoded JSON value of the "variables" field. Numbers are
	// json.Number so integers keep their precision until they reach the interpreter.
	Variables any

	// Timeout is the requested deadline in milliseconds. Zero means none was supplied.
	Timeout uint64
}

// maxTimeoutMillis is the largest millisecond count a time.Duration can hold.
const maxTimeoutMillis = uint64(math.MaxInt64 / int64(time.Millisecond))

// TimeoutDuration returns Timeout as a time.Duration, saturating instead of overflowing.
func (r *EvaluationRequest) TimeoutDuration() time.Duration {
	if r.Timeout > maxTimeoutMillis {
		return time.Duration(math.MaxInt64)
	}
	return time.Duration(r.Timeout) * time.Millisecond
}

type wireRequest struct {
	Script    *string         `json:"script"`
	Variables json.RawMessage `json:"variables"`
	Timeout   *uint64         `json:"timeout"`
}

// Parse decodes raw into an EvaluationRequest. Unknown fields are ignored.
func Parse(raw []byte) (*EvaluationRequest, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return nil, fmt.Errorf("%w: empty payload", ErrParse)
	}
	if trimmed[0] != '{' {
		return nil, fmt.Errorf("%w: payload must be a JSON object", ErrParse)
	}

	var wire wireRequest
	if err := decodeStrict(trimmed, &wire); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrParse, err)
	}

	if wire.Script == nil {
		return nil, fmt.Errorf("%w: %w", ErrParse, ErrMissingScript)
	}
	if len(wire.Variables) == 0 {
		return nil, fmt.Errorf("%w: %w", ErrParse, ErrMissingVariables)
	}

	var variables any
	if err := decodeStrict(wire.Variables, &variables); err != nil {
		return nil, fmt.Errorf("%w: variables: %w", ErrParse, err)
	}

	req := &EvaluationRequest{
		Script:    *wire.Script,
		Variables: variables,
	}
	if wire.Timeout != nil {
		req.Timeout = *wire.Timeout
	}
	return req, nil
}

// decodeStrict decodes exactly one JSON value, keeping numbers as json.Number.
func decodeStrict(raw []byte, v any) error {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	if err := dec.Decode(v); err != nil {
		return err
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return ErrTrailingData
	}
	return nil
}
