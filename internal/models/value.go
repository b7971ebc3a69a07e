package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
)

// Value is an optional float64. A Value is either present or unavailable;
// unavailable values are never coerced to zero.
type Value struct {
	v  float64
	ok bool
}

// Some returns a present Value.
func Some(v float64) Value {
	return Value{v: v, ok: true}
}

// Finite returns a present Value for finite v and an unavailable Value otherwise.
func Finite(v float64) Value {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return Value{}
	}
	return Value{v: v, ok: true}
}

// None returns an unavailable Value.
func None() Value {
	return Value{}
}

// Get returns the value and whether it is present.
func (x Value) Get() (float64, bool) {
	return x.v, x.ok
}

// Available reports whether the value is present.
func (x Value) Available() bool {
	return x.ok
}

// IsNonFinite reports whether a present value is NaN or infinite.
func (x Value) IsNonFinite() bool {
	return x.ok && (math.IsNaN(x.v) || math.IsInf(x.v, 0))
}

// Or returns the value, or fallback when unavailable.
func (x Value) Or(fallback float64) float64 {
	if !x.ok {
		return fallback
	}
	return x.v
}

func (x Value) String() string {
	if !x.ok {
		return "n/a"
	}
	return fmt.Sprintf("%g", x.v)
}

// MarshalJSON encodes an unavailable value as null.
func (x Value) MarshalJSON() ([]byte, error) {
	if !x.ok {
		return []byte("null"), nil
	}
	return json.Marshal(x.v)
}

// UnmarshalJSON accepts a number or null.
func (x *Value) UnmarshalJSON(data []byte) error {
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		*x = Value{}
		return nil
	}
	var f float64
	if err := json.Unmarshal(data, &f); err != nil {
		return fmt.Errorf("failed to unmarshal value: %w", err)
	}
	*x = Some(f)
	return nil
}

// Div returns num/den when both are present and den is non-zero.
func Div(num, den Value) Value {
	n, ok1 := num.Get()
	d, ok2 := den.Get()
	if !ok1 || !ok2 || d == 0 {
		return None()
	}
	return Finite(n / d)
}

// DivPositive returns num/den only when den is strictly positive.
func DivPositive(num, den Value) Value {
	d, ok := den.Get()
	if !ok || d <= 0 {
		return None()
	}
	return Div(num, den)
}
