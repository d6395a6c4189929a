// Package internal converts between the JSON data model and goja runtime values.
package internal

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"reflect"
	"slices"
	"strconv"
	"time"

	gojaLib "github.com/dop251/goja"
)

// MaxDepth is the deepest array/object nesting accepted in either direction.
const MaxDepth = 256

var reflectTypeMap = reflect.TypeOf(map[string]any(nil))

// isoMillis matches Date.prototype.toISOString for UTC times.
const isoMillis = "2006-01-02T15:04:05.000Z07:00"

var (
	// ErrUnsupportedInput is returned for Go values that have no JSON-model equivalent.
	ErrUnsupportedInput = errors.New("unsupported input value")

	// ErrUnsupportedValue is returned for JS values that have no JSON-model equivalent.
	ErrUnsupportedValue = errors.New("unsupported result value")

	// ErrInterrupted is returned when the stop check fires during result conversion.
	ErrInterrupted = errors.New("conversion interrupted")
)

// ConvertToGojaValue turns a JSON-model Go value (as produced by encoding/json with
// UseNumber) into a native value owned by vm. Object keys are inserted in sorted order.
func ConvertToGojaValue(vm *gojaLib.Runtime, v any) (gojaLib.Value, error) {
	return toGoja(vm, v, 0)
}

func toGoja(vm *gojaLib.Runtime, v any, depth int) (gojaLib.Value, error) {
	if depth > MaxDepth {
		return nil, fmt.Errorf("%w: nesting deeper than %d", ErrUnsupportedInput, MaxDepth)
	}

	switch val := v.(type) {
	case nil:
		return gojaLib.Null(), nil
	case bool, string, int, int32, int64, uint32, float32, float64:
		return vm.ToValue(val), nil
	case json.Number:
		if i, err := val.Int64(); err == nil {
			return vm.ToValue(i), nil
		}
		f, err := val.Float64()
		if err != nil {
			return nil, fmt.Errorf("%w: number %s: %w", ErrUnsupportedInput, val, err)
		}
		return vm.ToValue(f), nil
	case []any:
		items := make([]any, len(val))
		for i, item := range val {
			converted, err := toGoja(vm, item, depth+1)
			if err != nil {
				return nil, fmt.Errorf("index %d: %w", i, err)
			}
			items[i] = converted
		}
		return vm.NewArray(items...), nil
	case map[string]any:
		obj := vm.NewObject()
		keys := make([]string, 0, len(val))
		for k := range val {
			keys = append(keys, k)
		}
		slices.Sort(keys)
		for _, k := range keys {
			converted, err := toGoja(vm, val[k], depth+1)
			if err != nil {
				return nil, fmt.Errorf("key %q: %w", k, err)
			}
			// own data property, so "__proto__" is a key and not the prototype setter
			err = obj.DefineDataProperty(k, converted, gojaLib.FLAG_TRUE, gojaLib.FLAG_TRUE, gojaLib.FLAG_TRUE)
			if err != nil {
				return nil, fmt.Errorf("key %q: %w", k, err)
			}
		}
		return obj, nil
	default:
		return nil, fmt.Errorf("%w: %T", ErrUnsupportedInput, v)
	}
}

// ResultConverter turns a goja value into the JSON model: nil, bool, string, int64,
// float64, []any or map[string]any.
type ResultConverter struct {
	// Stop is polled once per visited value; returning true aborts with ErrInterrupted.
	Stop func() bool

	path   map[*gojaLib.Object]struct{}
	exotic map[*gojaLib.Object]string
}

// exoticBuiltins are the constructors whose instances have no JSON-model equivalent even
// though goja reports their class as "Object".
var exoticBuiltins = []string{
	"Map", "Set", "WeakMap", "WeakSet", "Promise", "ArrayBuffer", "DataView",
	"Int8Array", "Uint8Array", "Uint8ClampedArray", "Int16Array", "Uint16Array",
	"Int32Array", "Uint32Array", "Float32Array", "Float64Array",
}

// NewResultConverter creates a converter bound to vm. It snapshots the built-in prototypes
// from vm's globals, so create it before running untrusted code that could reassign them.
func NewResultConverter(vm *gojaLib.Runtime, stop func() bool) *ResultConverter {
	if stop == nil {
		stop = func() bool { return false }
	}
	exotic := make(map[*gojaLib.Object]string, len(exoticBuiltins))
	for _, name := range exoticBuiltins {
		ctor, ok := vm.Get(name).(*gojaLib.Object)
		if !ok {
			continue
		}
		if proto, ok := ctor.Get("prototype").(*gojaLib.Object); ok {
			exotic[proto] = name
		}
	}
	return &ResultConverter{
		Stop:   stop,
		path:   make(map[*gojaLib.Object]struct{}),
		exotic: exotic,
	}
}

// Convert returns the JSON-model value for v.
func (c *ResultConverter) Convert(v gojaLib.Value) (any, error) {
	return c.convert(v, 0)
}

func (c *ResultConverter) convert(v gojaLib.Value, depth int) (any, error) {
	if c.Stop() {
		return nil, ErrInterrupted
	}
	if depth > MaxDepth {
		return nil, fmt.Errorf("%w: nesting deeper than %d", ErrUnsupportedValue, MaxDepth)
	}
	if v == nil || gojaLib.IsUndefined(v) || gojaLib.IsNull(v) {
		return nil, nil
	}

	obj, ok := v.(*gojaLib.Object)
	if !ok {
		return convertPrimitive(v)
	}

	if _, seen := c.path[obj]; seen {
		return nil, fmt.Errorf("%w: cyclic structure", ErrUnsupportedValue)
	}
	c.path[obj] = struct{}{}
	defer delete(c.path, obj)

	switch class := obj.ClassName(); class {
	case "Array":
		return c.convertArray(obj, depth)
	case "Object":
		if _, isFunc := gojaLib.AssertFunction(obj); isFunc {
			return nil, fmt.Errorf("%w: function", ErrUnsupportedValue)
		}
		if name := c.exoticOf(obj); name != "" {
			return nil, fmt.Errorf("%w: %s", ErrUnsupportedValue, name)
		}
		return c.convertObject(obj, depth)
	case "Function":
		return nil, fmt.Errorf("%w: function", ErrUnsupportedValue)
	case "Date":
		return convertDate(obj)
	case "Number", "String", "Boolean":
		return c.unbox(obj, depth)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedValue, class)
	}
}

func convertPrimitive(v gojaLib.Value) (any, error) {
	if _, ok := v.(*gojaLib.Symbol); ok {
		return nil, fmt.Errorf("%w: symbol", ErrUnsupportedValue)
	}
	switch val := v.Export().(type) {
	case bool, string:
		return val, nil
	case int64:
		return val, nil
	case float64:
		return normalizeFloat(val)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedValue, describe(v))
	}
}

// normalizeFloat maps integral doubles to int64 so 6 and 6.0 encode the same way.
func normalizeFloat(f float64) (any, error) {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return nil, fmt.Errorf("%w: non-finite number %v", ErrUnsupportedValue, f)
	}
	if f == math.Trunc(f) && f >= -(1<<63) && f < 1<<63 {
		return int64(f), nil
	}
	return f, nil
}

func (c *ResultConverter) convertArray(obj *gojaLib.Object, depth int) (any, error) {
	length := obj.Get("length").ToInteger()
	out := make([]any, 0, min(length, 1024))
	for i := range length {
		item, err := c.convert(obj.Get(strconv.FormatInt(i, 10)), depth+1)
		if err != nil {
			return nil, fmt.Errorf("index %d: %w", i, err)
		}
		out = append(out, item)
	}
	return out, nil
}

// exoticOf returns the name of the built-in whose prototype obj inherits from, or "" when
// obj is an ordinary object. Map, Set, Promise, WeakMap, buffers and typed arrays all report
// class "Object"; class instances and Object.create(null) are ordinary.
func (c *ResultConverter) exoticOf(obj *gojaLib.Object) string {
	if t := obj.ExportType(); t != reflectTypeMap {
		if name := c.protoName(obj); name != "" {
			return name
		}
		if t == nil {
			return obj.ClassName()
		}
		return t.String()
	}
	return c.protoName(obj)
}

func (c *ResultConverter) protoName(obj *gojaLib.Object) string {
	for p, n := obj.Prototype(), 0; p != nil && n < MaxDepth; p, n = p.Prototype(), n+1 {
		if name, ok := c.exotic[p]; ok {
			return name
		}
	}
	return ""
}

func (c *ResultConverter) convertObject(obj *gojaLib.Object, depth int) (any, error) {
	keys := obj.Keys()
	out := make(map[string]any, len(keys))
	for _, k := range keys {
		val := obj.Get(k)
		// undefined members are omitted, as JSON.stringify does
		if val == nil || gojaLib.IsUndefined(val) {
			continue
		}
		item, err := c.convert(val, depth+1)
		if err != nil {
			return nil, fmt.Errorf("key %q: %w", k, err)
		}
		out[k] = item
	}
	return out, nil
}

func convertDate(obj *gojaLib.Object) (any, error) {
	t, ok := obj.Export().(time.Time)
	if !ok {
		return nil, fmt.Errorf("%w: invalid Date", ErrUnsupportedValue)
	}
	return t.UTC().Format(isoMillis), nil
}

// unbox calls valueOf on a Number, String or Boolean wrapper object.
func (c *ResultConverter) unbox(obj *gojaLib.Object, depth int) (any, error) {
	valueOf, ok := gojaLib.AssertFunction(obj.Get("valueOf"))
	if !ok {
		return nil, fmt.Errorf("%w: %s without valueOf", ErrUnsupportedValue, obj.ClassName())
	}
	prim, err := valueOf(obj)
	if err != nil {
		return nil, err
	}
	if _, isObj := prim.(*gojaLib.Object); isObj {
		return nil, fmt.Errorf("%w: %s valueOf returned an object", ErrUnsupportedValue, obj.ClassName())
	}
	return c.convert(prim, depth)
}

func describe(v gojaLib.Value) string {
	if _, ok := v.(*gojaLib.Symbol); ok {
		return "symbol"
	}
	if t := v.ExportType(); t != nil {
		return t.String()
	}
	return v.String()
}
