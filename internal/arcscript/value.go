package arcscript

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
)

// Kind identifies the dynamic type held by a Value.
type Kind uint8

const (
	KindNull Kind = iota
	KindInt
	KindFloat
	KindBool
	KindString
)

// String returns the Arcscript type name for the kind.
func (k Kind) String() string {
	switch k {
	case KindInt:
		return "integer"
	case KindFloat:
		return "float"
	case KindBool:
		return "boolean"
	case KindString:
		return "string"
	default:
		return "null"
	}
}

// Value is the tagged union every expression evaluates to.
// The zero Value is null.
type Value struct {
	kind Kind
	i    int64
	f    float64
	b    bool
	s    string
}

func Null() Value { return Value{} }
func Int(n int64) Value { return Value{kind: KindInt, i: n} }
func Float(f float64) Value { return Value{kind: KindFloat, f: f} }
func Bool(b bool) Value { return Value{kind: KindBool, b: b} }
func String(s string) Value { return Value{kind: KindString, s: s} }
func (v Value) Kind() Kind { return v.kind }
func (v Value) IsNull() bool { return v.kind == KindNull }
func (v Value) IsString() bool { return v.kind == KindString }

// IsNumber reports whether v is an integer or a float.
func (v Value) IsNumber() bool {
	return v.kind == KindInt || v.kind == KindFloat
}

// Truthy converts v to a boolean the way conditions see it.
func (v Value) Truthy() bool {
	switch v.kind {
	case KindInt:
		return v.i != 0
	case KindFloat:
		return v.f != 0 && !math.IsNaN(v.f)
	case KindBool:
		return v.b
	case KindString:
		return v.s != ""
	default:
		return false
	}
}

// String renders v with its default text conversion, used by interpolation,
// show() and string concatenation. Null renders as the empty string.
func (v Value) String() string {
	switch v.kind {
	case KindInt:
		return strconv.FormatInt(v.i, 10)
	case KindFloat:
		return formatFloat(v.f)
	case KindBool:
		if v.b {
			return "true"
		}
		return "false"
	case KindString:
		return v.s
	default:
		return ""
	}
}

func formatFloat(f float64) string {
	switch {
	case math.IsInf(f, 1):
		return "Infinity"
	case math.IsInf(f, -1):
		return "-Infinity"
	case math.IsNaN(f):
		return "NaN"
	}
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// Interface returns v as a plain Go value (nil, int64, float64, bool, string).
func (v Value) Interface() interface{} {
	switch v.kind {
	case KindInt:
		return v.i
	case KindFloat:
		return v.f
	case KindBool:
		return v.b
	case KindString:
		return v.s
	default:
		return nil
	}
}

// MarshalJSON encodes v as its plain JSON equivalent.
func (v Value) MarshalJSON() ([]byte, error) {
	return json.Marshal(v.Interface())
}

// FromInterface converts a plain Go value into a Value.
func FromInterface(x interface{}) (Value, error) {
	switch t := x.(type) {
	case nil:
		return Null(), nil
	case Value:
		return t, nil
	case bool:
		return Bool(t), nil
	case int:
		return Int(int64(t)), nil
	case int32:
		return Int(int64(t)), nil
	case int64:
		return Int(t), nil
	case float32:
		return Float(float64(t)), nil
	case float64:
		return Float(t), nil
	case string:
		return String(t), nil
	case json.Number:
		if n, err := t.Int64(); err == nil {
			return Int(n), nil
		}
		f, err := t.Float64()
		if err != nil {
			return Null(), fmt.Errorf("invalid number %q: %w", t.String(), err)
		}
		return Float(f), nil
	default:
		return Null(), fmt.Errorf("unsupported value type %T", x)
	}
}

// FromTyped converts a decoded JSON value using an explicit type name
// ("integer", "float", "boolean", "string"). JSON decoding yields float64 for
// every number, so the type name decides whether an integral value stays an
// integer.
func FromTyped(typeName string, x interface{}) (Value, error) {
	v, err := FromInterface(x)
	if err != nil {
		return Null(), err
	}
	switch typeName {
	case "", "any":
		return v, nil
	case "null":
		return Null(), nil
	case "integer", "int":
		switch v.kind {
		case KindInt, KindNull:
			return Int(v.i), nil
		case KindFloat:
			return Int(int64(v.f)), nil
		}
	case "float":
		switch v.kind {
		case KindInt:
			return Float(float64(v.i)), nil
		case KindFloat, KindNull:
			return Float(v.f), nil
		}
	case "boolean", "bool":
		if v.kind == KindBool || v.kind == KindNull {
			return Bool(v.b), nil
		}
	case "string":
		if v.kind == KindNull {
			return String(""), nil
		}
		return String(v.String()), nil
	default:
		return Null(), fmt.Errorf("unknown variable type %q", typeName)
	}
	return Null(), fmt.Errorf("cannot use %s value as %s", v.kind, typeName)
}

// DecodeJSON decodes a single JSON scalar. Integral numbers become
// integers; typeName, when set, is applied as in FromTyped.
func DecodeJSON(data []byte, typeName string) (Value, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var x interface{}
	if err := dec.Decode(&x); err != nil {
		return Null(), fmt.Errorf("invalid value: %w", err)
	}
	if typeName != "" {
		return FromTyped(typeName, x)
	}
	return FromInterface(x)
}

// numeric extracts v as a number. Booleans count as 0/1 and null as 0.
// Strings are not numbers.
func (v Value) numeric() (i int64, f float64, isFloat, ok bool) {
	switch v.kind {
	case KindInt:
		return v.i, float64(v.i), false, true
	case KindFloat:
		return 0, v.f, true, true
	case KindBool:
		if v.b {
			return 1, 1, false, true
		}
		return 0, 0, false, true
	case KindNull:
		return 0, 0, false, true
	}
	return 0, 0, false, false
}

// AsFloat returns v as float64 when it is numeric.
func (v Value) AsFloat() (float64, bool) {
	_, f, _, ok := v.numeric()
	return f, ok
}

// AsInt returns v as int64 when it is numeric. Floats are truncated.
func (v Value) AsInt() (int64, bool) {
	i, f, isFloat, ok := v.numeric()
	if isFloat {
		return int64(f), ok
	}
	return i, ok
}
