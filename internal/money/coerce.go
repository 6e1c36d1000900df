// Package money converts heterogeneous externally-sourced values into
// definite float64 amounts. Rule data is AI-extracted or hand-edited, so
// every number crossing into the engine goes through Coerce first; a
// rejected value never propagates as NaN or a silent zero.
package money

import (
	"math"
	"strconv"
	"strings"
)

// amountKeys are the map keys, in lookup order, that may carry a nested
// amount when a value arrives as an object instead of a number.
var amountKeys = []string{"amount", "value", "rate", "baseAmount", "number"}

// currencyReplacer strips currency symbols and thousands separators before
// a second parse attempt.
var currencyReplacer = strings.NewReplacer(
	"$", "", "€", "", "£", "", "¥", "", "₹", "",
	"USD", "", "EUR", "", "GBP", "",
	",", "", " ", "", "\t", "",
)

// Coerce converts v to a finite float64. The second return is false when v
// cannot be interpreted as a number: nil, NaN/Inf, non-numeric text, or an
// object without a recognizable amount key.
func Coerce(v interface{}) (float64, bool) {
	switch n := v.(type) {
	case nil:
		return 0, false
	case int:
		return float64(n), true
	case int8:
		return float64(n), true
	case int16:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint:
		return float64(n), true
	case uint8:
		return float64(n), true
	case uint16:
		return float64(n), true
	case uint32:
		return float64(n), true
	case uint64:
		return float64(n), true
	case float32:
		return finite(float64(n))
	case float64:
		return finite(n)
	case string:
		return parseString(n)
	case map[string]interface{}:
		for _, key := range amountKeys {
			if inner, ok := n[key]; ok {
				return Coerce(inner)
			}
		}
		return 0, false
	}
	return 0, false
}

func finite(f float64) (float64, bool) {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

func parseString(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return finite(f)
	}
	// Retry with currency symbols and separators stripped.
	stripped := strings.TrimSpace(currencyReplacer.Replace(s))
	if stripped == "" || stripped == s {
		return 0, false
	}
	f, err := strconv.ParseFloat(stripped, 64)
	if err != nil {
		return 0, false
	}
	return finite(f)
}
