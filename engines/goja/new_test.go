package goja

import (
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/robbyt/go-jsgate/engines/goja/compiler"
	"github.com/robbyt/go-jsgate/engines/goja/evaluator"
	"github.com/robbyt/go-jsgate/engines/goja/wrapper"
	"github.com/robbyt/go-jsgate/platform/binding"
	"github.com/robbyt/go-jsgate/platform/request"
)

func discardHandler() slog.Handler {
	return slog.NewTextHandler(io.Discard, nil)
}

func mustParse(t *testing.T, payload string) *request.EvaluationRequest {
	t.Helper()
	req, err := request.Parse([]byte(payload))
	require.NoError(t, err)
	return req
}

func TestNewEvaluator(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		prelude  string
		payload  string
		expected any
	}{
		{
			name:     "binding arithmetic",
			payload:  `{"script": "a+3", "variables": {"a": 3}, "timeout": 100}`,
			expected: int64(6),
		},
		{
			name:     "top-level return",
			payload:  `{"script": "return 1", "variables": {"a": 2, "b": [1, 2, 3]}}`,
			expected: int64(1),
		},
		{
			name:     "empty variables",
			payload:  `{"script": "'empty'", "variables": {}}`,
			expected: "empty",
		},
		{
			name:     "prelude constant",
			prelude:  "var GREETING = 'hi';",
			payload:  `{"script": "GREETING + ', ' + name", "variables": {"name": "bob"}}`,
			expected: "hi, bob",
		},
		{
			// JS numbers are doubles: 2^53+1 rounds to 2^53 inside the runtime
			name:     "large integer rounds to nearest double",
			payload:  `{"script": "n", "variables": {"n": 9007199254740993}}`,
			expected: int64(9007199254740992),
		},
		{
			name:     "safe integer is exact",
			payload:  `{"script": "n", "variables": {"n": 9007199254740991}}`,
			expected: int64(9007199254740991),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			eval, err := NewEvaluator(discardHandler(), tt.prelude, mustParse(t, tt.payload),
				WithEvaluatorOptions(evaluator.WithTimeout(time.Second)))
			require.NoError(t, err)

			resp, err := eval.Eval(t.Context())
			require.NoError(t, err)
			assert.Equal(t, tt.expected, resp.Interface())
		})
	}
}

func TestNewEvaluatorBindingFailures(t *testing.T) {
	t.Parallel()

	for _, variables := range []string{`[1, 2, 3]`, `null`, `"s"`, `1`, `true`} {
		for _, script := range []string{"1", "return 1", "while(true){}"} {
			payload := `{"script": ` + quote(script) + `, "variables": ` + variables + `}`
			_, err := NewEvaluator(discardHandler(), "", mustParse(t, payload))
			require.ErrorIs(t, err, binding.ErrNotAnObject, payload)
		}
	}
}

func TestNewEvaluatorStrictNames(t *testing.T) {
	t.Parallel()

	req := mustParse(t, `{"script": "1", "variables": {"not-an-ident": 1}}`)

	t.Run("lenient names reach the compiler", func(t *testing.T) {
		_, err := NewEvaluator(discardHandler(), "", req)
		require.ErrorIs(t, err, compiler.ErrCompileFailure)
	})

	t.Run("strict names fail early", func(t *testing.T) {
		_, err := NewEvaluator(discardHandler(), "", req, WithStrictNames(true))
		require.ErrorIs(t, err, binding.ErrInvalidName)
	})
}

func TestNewEvaluatorErrors(t *testing.T) {
	t.Parallel()

	t.Run("nil request", func(t *testing.T) {
		_, err := NewEvaluator(discardHandler(), "", nil)
		require.ErrorIs(t, err, request.ErrParse)
	})

	t.Run("invalid prelude", func(t *testing.T) {
		_, err := NewEvaluator(discardHandler(), "function (", mustParse(t, `{"script": "1", "variables": {}}`))
		require.ErrorIs(t, err, compiler.ErrCompileFailure)
	})

	t.Run("prelude not utf8", func(t *testing.T) {
		_, err := NewEvaluator(discardHandler(), "var s = '\xff';", mustParse(t, `{"script": "1", "variables": {}}`))
		require.ErrorIs(t, err, wrapper.ErrRender)
	})

	t.Run("strict compiler option", func(t *testing.T) {
		req := mustParse(t, `{"script": "undeclared = 1", "variables": {}}`)
		eval, err := NewEvaluator(discardHandler(), "", req, WithCompilerOptions(compiler.WithStrict(true)))
		require.NoError(t, err)
		_, err = eval.Eval(t.Context())
		require.ErrorIs(t, err, evaluator.ErrRuntimeFailure)
	})
}

func TestNewEvaluatorTimeout(t *testing.T) {
	t.Parallel()

	req := mustParse(t, `{"script": "while (true) {}", "variables": {"a": 1}, "timeout": 50}`)
	eval, err := NewEvaluator(discardHandler(), "", req)
	require.NoError(t, err)

	start := time.Now()
	_, err = eval.Eval(t.Context())
	require.ErrorIs(t, err, evaluator.ErrTimeout)
	assert.Less(t, time.Since(start), 2*time.Second)
}

func TestNewEvaluatorUnitID(t *testing.T) {
	t.Parallel()

	req := mustParse(t, `{"script": "1", "variables": {}}`)
	eval, err := NewEvaluator(discardHandler(), "", req, WithUnitID("fixed-id"))
	require.NoError(t, err)

	resp, err := eval.Eval(t.Context())
	require.NoError(t, err)
	assert.Equal(t, "fixed-id", resp.GetScriptExeID())
}

func quote(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, `\"`) + `"`
}
