package internal

import (
	"encoding/json"
	"strings"
	"testing"

	gojaLib "github.com/dop251/goja"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConvertToGojaValue(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		input any
		// check is evaluated with the converted value bound to v
		check    string
		expected any
	}{
		{name: "null", input: nil, check: "v === null", expected: true},
		{name: "bool", input: true, check: "v === true", expected: true},
		{name: "string", input: "hi", check: "v + '!'", expected: "hi!"},
		{name: "integer number", input: json.Number("3"), check: "v + 3", expected: int64(6)},
		{name: "fractional number", input: json.Number("1.5"), check: "v * 2", expected: int64(3)},
		{name: "exponent number", input: json.Number("1e2"), check: "v", expected: int64(100)},
		{name: "float64", input: 2.25, check: "v", expected: 2.25},
		{name: "array", input: []any{json.Number("1"), "x"}, check: "Array.isArray(v) && v.length", expected: int64(2)},
		{name: "object", input: map[string]any{"b": json.Number("2"), "a": json.Number("1")}, check: "Object.keys(v).join(',')", expected: "a,b"},
		{name: "nested", input: map[string]any{"list": []any{map[string]any{"k": "v"}}}, check: "v.list[0].k", expected: "v"},
		{name: "__proto__ key is an own property", input: map[string]any{"__proto__": json.Number("1")}, check: "Object.getOwnPropertyNames(v).join(',') + '=' + v.__proto__", expected: "__proto__=1"},
		{name: "__proto__ key keeps prototype", input: map[string]any{"__proto__": map[string]any{"x": json.Number("1")}}, check: "Object.getPrototypeOf(v) === Object.prototype && v.x === undefined", expected: true},
		{name: "__proto__ key destructures", input: map[string]any{"__proto__": json.Number("7")}, check: "(function ({ __proto__ }) { return __proto__ })(v)", expected: int64(7)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			vm := gojaLib.New()
			val, err := ConvertToGojaValue(vm, tt.input)
			require.NoError(t, err)
			require.NoError(t, vm.Set("v", val))

			res, err := vm.RunString(tt.check)
			require.NoError(t, err)
			got, err := NewResultConverter(vm, nil).Convert(res)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestConvertToGojaValueErrors(t *testing.T) {
	t.Parallel()

	t.Run("unsupported type", func(t *testing.T) {
		_, err := ConvertToGojaValue(gojaLib.New(), struct{}{})
		require.ErrorIs(t, err, ErrUnsupportedInput)
	})

	t.Run("out of range number", func(t *testing.T) {
		_, err := ConvertToGojaValue(gojaLib.New(), map[string]any{"n": json.Number("1e400")})
		require.ErrorIs(t, err, ErrUnsupportedInput)
		assert.Contains(t, err.Error(), `key "n"`)
	})

	t.Run("too deep", func(t *testing.T) {
		var v any = "leaf"
		for range MaxDepth + 1 {
			v = []any{v}
		}
		_, err := ConvertToGojaValue(gojaLib.New(), v)
		require.ErrorIs(t, err, ErrUnsupportedInput)
	})
}

func TestResultConverter(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		script   string
		expected any
	}{
		{name: "undefined", script: "undefined", expected: nil},
		{name: "null", script: "null", expected: nil},
		{name: "bool", script: "1 < 2", expected: true},
		{name: "string", script: "'a' + 'b'", expected: "ab"},
		{name: "int", script: "40 + 2", expected: int64(42)},
		{name: "integral float", script: "12 / 4", expected: int64(3)},
		{name: "float", script: "1 / 4", expected: 0.25},
		{name: "array", script: "[1, 'two', null, [true]]", expected: []any{int64(1), "two", nil, []any{true}}},
		{name: "sparse array", script: "var a = []; a[2] = 1; a", expected: []any{nil, nil, int64(1)}},
		{name: "object", script: "({b: 2, a: {c: 'd'}})", expected: map[string]any{"a": map[string]any{"c": "d"}, "b": int64(2)}},
		{name: "undefined member dropped", script: "({a: undefined, b: 1})", expected: map[string]any{"b": int64(1)}},
		{name: "shared reference", script: "var s = {x: 1}; [s, s]", expected: []any{map[string]any{"x": int64(1)}, map[string]any{"x": int64(1)}}},
		{name: "class instance", script: "class P { constructor() { this.n = 1 } }; new P()", expected: map[string]any{"n": int64(1)}},
		{name: "date", script: "new Date(Date.UTC(2024, 0, 2, 3, 4, 5, 6))", expected: "2024-01-02T03:04:05.006Z"},
		{name: "boxed number", script: "new Number(7)", expected: int64(7)},
		{name: "boxed string", script: "new String('s')", expected: "s"},
		{name: "boxed false", script: "new Boolean(false)", expected: false},
		{name: "null prototype", script: "var o = Object.create(null); o.k = 'v'; o", expected: map[string]any{"k": "v"}},
		{name: "subclass instance", script: "class A {}; class B extends A { constructor() { super(); this.b = true } }; new B()", expected: map[string]any{"b": true}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			vm := gojaLib.New()
			res, err := vm.RunString(tt.script)
			require.NoError(t, err)

			got, err := NewResultConverter(vm, nil).Convert(res)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestResultConverterUnsupported(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		script string
	}{
		{name: "function", script: "(function () {})"},
		{name: "arrow function", script: "() => 1"},
		{name: "function member", script: "({f: function () {}})"},
		{name: "symbol", script: "Symbol('s')"},
		{name: "NaN", script: "NaN"},
		{name: "Infinity", script: "1 / 0"},
		{name: "negative infinity in array", script: "[-1 / 0]"},
		{name: "regexp", script: "/a/"},
		{name: "map", script: "new Map()"},
		{name: "set", script: "new Set()"},
		{name: "promise", script: "Promise.resolve(1)"},
		{name: "map with entries", script: "new Map([[1, 2]])"},
		{name: "weak map", script: "new WeakMap()"},
		{name: "weak set", script: "new WeakSet()"},
		{name: "array buffer", script: "new ArrayBuffer(8)"},
		{name: "data view", script: "new DataView(new ArrayBuffer(8))"},
		{name: "typed array", script: "new Uint8Array([1, 2])"},
		{name: "float typed array", script: "new Float64Array(2)"},
		{name: "map subclass", script: "class M extends Map {}; new M()"},
		{name: "object inheriting from Map", script: "Object.create(Map.prototype)"},
		{name: "map nested in object", script: "({m: new Map()})"},
		{name: "set nested in array", script: "[new Set([1])]"},
		{name: "error", script: "new Error('x')"},
		{name: "invalid date", script: "new Date(NaN)"},
		{name: "cycle", script: "var o = {}; o.self = o; o"},
		{name: "array cycle", script: "var a = []; a.push(a); a"},
		{name: "too deep", script: "var d = 0; for (var i = 0; i < 300; i++) { d = [d] }; d"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			vm := gojaLib.New()
			res, err := vm.RunString(tt.script)
			require.NoError(t, err)

			got, err := NewResultConverter(vm, nil).Convert(res)
			require.ErrorIs(t, err, ErrUnsupportedValue)
			assert.Nil(t, got)
		})
	}
}

func TestResultConverterReassignedGlobals(t *testing.T) {
	t.Parallel()

	vm := gojaLib.New()
	conv := NewResultConverter(vm, nil)

	res, err := vm.RunString("var m = new WeakMap(); WeakMap = undefined; m")
	require.NoError(t, err)

	_, err = conv.Convert(res)
	require.ErrorIs(t, err, ErrUnsupportedValue)
}

func TestResultConverterStop(t *testing.T) {
	t.Parallel()

	vm := gojaLib.New()
	res, err := vm.RunString("[1, 2, 3]")
	require.NoError(t, err)

	calls := 0
	conv := NewResultConverter(vm, func() bool {
		calls++
		return calls > 2
	})
	_, err = conv.Convert(res)
	require.ErrorIs(t, err, ErrInterrupted)
}

func TestDescribe(t *testing.T) {
	t.Parallel()
	vm := gojaLib.New()
	sym, err := vm.RunString("Symbol('x')")
	require.NoError(t, err)
	assert.Equal(t, "symbol", describe(sym))
	assert.True(t, strings.Contains(describe(vm.ToValue(1)), "int64"))
}
