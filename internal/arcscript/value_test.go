package arcscript

import (
	"encoding/json"
	"errors"
	"testing"
)

func TestValueString(t *testing.T) {
	tests := []struct {
		v    Value
		want string
	}{
		{Null(), ""},
		{Int(-7), "-7"},
		{Float(2.5), "2.5"},
		{Float(3), "3"},
		{Bool(true), "true"},
		{String("x"), "x"},
	}
	for _, tt := range tests {
		if got := tt.v.String(); got != tt.want {
			t.Errorf("%s String() = %q, want %q", tt.v.Kind(), got, tt.want)
		}
	}
}

func TestTruthy(t *testing.T) {
	truthy := []Value{Int(1), Float(0.1), Bool(true), String("a")}
	falsy := []Value{Null(), Int(0), Float(0), Bool(false), String("")}

	for _, v := range truthy {
		if !v.Truthy() {
			t.Errorf("expected %s %q to be truthy", v.Kind(), v.String())
		}
	}
	for _, v := range falsy {
		if v.Truthy() {
			t.Errorf("expected %s %q to be falsy", v.Kind(), v.String())
		}
	}
}

func TestEqualCoercion(t *testing.T) {
	if !Equal(Int(2), Float(2)) {
		t.Error("expected 2 == 2.0")
	}
	if !Equal(Null(), Int(0)) {
		t.Error("expected null == 0")
	}
	if Equal(String("1"), Int(1)) {
		t.Error("strings should only equal strings")
	}
	if !Equal(Bool(true), Int(1)) {
		t.Error("expected true == 1")
	}
}

func TestArithmeticPromotion(t *testing.T) {
	v, err := Add(Int(1), Int(2))
	if err != nil || v.Kind() != KindInt {
		t.Errorf("int + int should stay int, got %s (%v)", v.Kind(), err)
	}

	v, err = Mul(Int(2), Float(1.5))
	if err != nil || v.Kind() != KindFloat || v.String() != "3" {
		t.Errorf("int * float should be float 3, got %s %q (%v)", v.Kind(), v.String(), err)
	}

	if _, err := Div(Int(1), Int(0)); !errors.Is(err, ErrDivisionByZero) {
		t.Errorf("expected division by zero, got %v", err)
	}
	if _, err := Mod(Float(1), Float(0)); !errors.Is(err, ErrDivisionByZero) {
		t.Errorf("expected modulo by zero, got %v", err)
	}
	if _, err := Sub(String("a"), Int(1)); err == nil {
		t.Error("expected error subtracting from a string")
	}
}

func TestFromTyped(t *testing.T) {
	tests := []struct {
		typ  string
		raw  string
		want Value
	}{
		{"integer", "5", Int(5)},
		{"float", "1.25", Float(1.25)},
		{"boolean", "true", Bool(true)},
		{"string", `"hi"`, String("hi")},
	}
	for _, tt := range tests {
		var x interface{}
		if err := json.Unmarshal([]byte(tt.raw), &x); err != nil {
			t.Fatalf("unmarshal %s: %v", tt.raw, err)
		}
		got, err := FromTyped(tt.typ, x)
		if err != nil {
			t.Errorf("FromTyped(%s, %s) error: %v", tt.typ, tt.raw, err)
			continue
		}
		if got.Kind() != tt.want.Kind() || got.String() != tt.want.String() {
			t.Errorf("FromTyped(%s, %s) = %s %q", tt.typ, tt.raw, got.Kind(), got.String())
		}
	}
}

func TestDecodeJSON(t *testing.T) {
	tests := []struct {
		raw  string
		typ  string
		want Value
	}{
		{"7", "", Int(7)},
		{"7.5", "", Float(7.5)},
		{"true", "", Bool(true)},
		{`"gold"`, "", String("gold")},
		{"null", "", Null()},
		{"7", "float", Float(7)},
		{"3", "string", String("3")},
	}
	for _, tt := range tests {
		got, err := DecodeJSON([]byte(tt.raw), tt.typ)
		if err != nil {
			t.Errorf("DecodeJSON(%s, %q) error: %v", tt.raw, tt.typ, err)
			continue
		}
		if got.Kind() != tt.want.Kind() || got.String() != tt.want.String() {
			t.Errorf("DecodeJSON(%s, %q) = %s %q", tt.raw, tt.typ, got.Kind(), got.String())
		}
	}

	if _, err := DecodeJSON([]byte("{"), ""); err == nil {
		t.Error("expected error for invalid JSON")
	}
	if _, err := DecodeJSON([]byte(`{"a": 1}`), ""); err == nil {
		t.Error("expected error for an object")
	}
}
