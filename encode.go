package jsgate

import (
	"bytes"
	"encoding/json"
	"fmt"
)

type errorEnvelope struct {
	Error errorBody `json:"error"`
}

type errorBody struct {
	Kind    Kind   `json:"kind"`
	Message string `json:"message"`
}

// Encode renders the response body: the JSON of value on success, or an error envelope
// {"error":{"kind":"...","message":"..."}} when err is non-nil. It never panics.
func Encode(value any, err error) []byte {
	body, _ := encode(value, err)
	return body
}

// encode also reports the kind that ended up in the body, which differs from KindOf(err)
// when value cannot be marshalled.
func encode(value any, err error) ([]byte, Kind) {
	if err != nil {
		kind := KindOf(err)
		return encodeError(kind, err.Error()), kind
	}

	body, mErr := marshal(value)
	if mErr != nil {
		return encodeError(KindInternalError, fmt.Sprintf("%s: encode result: %s", ErrInternal, mErr)), KindInternalError
	}
	return body, KindOK
}

func encodeError(kind Kind, message string) []byte {
	body, err := marshal(errorEnvelope{Error: errorBody{Kind: kind, Message: message}})
	if err != nil {
		// two plain strings always marshal
		return []byte(`{"error":{"kind":"internal_error","message":"encode failure"}}`)
	}
	return body
}

// marshal is json.Marshal without HTML escaping and without a trailing newline.
func marshal(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimSuffix(buf.Bytes(), []byte("\n")), nil
}
