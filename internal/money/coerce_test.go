package money

import (
	"math"
	"testing"
)

type coerceCase struct {
	name   string
	in     interface{}
	want   float64
	wantOK bool
}

func TestCoerce(t *testing.T) {
	cases := []coerceCase{
		// Plain numerics
		{name: "float64", in: float64(4.5), want: 4.5, wantOK: true},
		{name: "int", in: 100, want: 100, wantOK: true},
		{name: "int64", in: int64(-3), want: -3, wantOK: true},
		{name: "zero", in: float64(0), want: 0, wantOK: true},
		// Non-finite
		{name: "NaN", in: math.NaN(), wantOK: false},
		{name: "Inf", in: math.Inf(1), wantOK: false},
		{name: "negative Inf", in: math.Inf(-1), wantOK: false},
		// Nil
		{name: "nil", in: nil, wantOK: false},
		// Strings
		{name: "plain numeric string", in: "42.5", want: 42.5, wantOK: true},
		{name: "dollar sign", in: "$1,250.00", want: 1250, wantOK: true},
		{name: "euro sign", in: "€99", want: 99, wantOK: true},
		{name: "spaced thousands", in: "1 500 000", want: 1500000, wantOK: true},
		{name: "currency code", in: "USD 250", want: 250, wantOK: true},
		{name: "negative string", in: "-12.75", want: -12.75, wantOK: true},
		{name: "alphabetic", in: "Tier 1", wantOK: false},
		{name: "rate description", in: "standard rate", wantOK: false},
		{name: "empty string", in: "", wantOK: false},
		{name: "whitespace only", in: "   ", wantOK: false},
		// Objects
		{name: "amount key", in: map[string]interface{}{"amount": 12.5}, want: 12.5, wantOK: true},
		{name: "value key", in: map[string]interface{}{"value": "3.25"}, want: 3.25, wantOK: true},
		{name: "rate key", in: map[string]interface{}{"rate": 0.05}, want: 0.05, wantOK: true},
		{name: "baseAmount key", in: map[string]interface{}{"baseAmount": "$400"}, want: 400, wantOK: true},
		{name: "nested amount", in: map[string]interface{}{"amount": map[string]interface{}{"value": 7}}, want: 7, wantOK: true},
		{name: "no amount key", in: map[string]interface{}{"label": "Tier 1"}, wantOK: false},
		{name: "amount key non-numeric", in: map[string]interface{}{"amount": "n/a"}, wantOK: false},
		// Unsupported types
		{name: "bool", in: true, wantOK: false},
		{name: "slice", in: []interface{}{1.0}, wantOK: false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, ok := Coerce(tc.in)
			if ok != tc.wantOK {
				t.Fatalf("Coerce(%v) ok = %v, want %v", tc.in, ok, tc.wantOK)
			}
			if ok && got != tc.want {
				t.Errorf("Coerce(%v) = %v, want %v", tc.in, got, tc.want)
			}
		})
	}
}

// Coercing an already-coerced value must not change it.
func TestCoerce_Idempotent(t *testing.T) {
	inputs := []interface{}{float64(10), "42.5", "$1,000", int64(7)}
	for _, in := range inputs {
		first, ok := Coerce(in)
		if !ok {
			t.Fatalf("Coerce(%v) unexpectedly rejected", in)
		}
		second, ok := Coerce(first)
		if !ok {
			t.Fatalf("Coerce(Coerce(%v)) unexpectedly rejected", in)
		}
		if first != second {
			t.Errorf("Coerce not idempotent for %v: %v != %v", in, first, second)
		}
	}
}
