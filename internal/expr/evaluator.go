package expr

import (
	"math"
	"sort"

	"github.com/fernwell/royaltyd/internal/money"
)

// Bindings maps line-item field names to values available during evaluation.
type Bindings map[string]interface{}

// Evaluate reduces a calculation tree to a primitive (number, string, tier
// list, or lookup map). A node that cannot be fully resolved yields nil;
// callers treat nil as "formula did not produce a usable rate" and fall back
// to legacy flat-rate fields. Evaluation is pure and never panics on
// malformed trees.
func Evaluate(n *Node, b Bindings) interface{} {
	if n == nil {
		return nil
	}
	switch n.Type {
	case NodeLiteral:
		return n.Value
	case NodeReference:
		// Informational: documents which binding the node draws from.
		if n.Field == "" {
			return nil
		}
		return n.Field
	case NodeMultiply:
		return reduceNumeric(n.Operands, b, 1, func(acc, v float64) float64 { return acc * v })
	case NodeAdd:
		return reduceNumeric(n.Operands, b, 0, func(acc, v float64) float64 { return acc + v })
	case NodeSubtract:
		left, lok := money.Coerce(Evaluate(n.Left, b))
		right, rok := money.Coerce(Evaluate(n.Right, b))
		if !lok || !rok {
			return nil
		}
		return left - right
	case NodePremium:
		return evalPremium(n, b)
	case NodeMax:
		return pickNumeric(n.Operands, b, func(vals []float64) float64 {
			sort.Float64s(vals)
			return vals[len(vals)-1]
		})
	case NodeMin:
		return pickNumeric(n.Operands, b, func(vals []float64) float64 {
			sort.Float64s(vals)
			return vals[0]
		})
	case NodeRound:
		return evalRound(n, b)
	case NodeTier:
		return evalTiers(n, b)
	case NodeLookup:
		return evalLookup(n, b)
	case NodeIf:
		cond, ok := b[n.Field].(bool)
		if !ok {
			return nil
		}
		if cond {
			return Evaluate(n.Then, b)
		}
		return Evaluate(n.Else, b)
	}
	return nil
}

// numericOperands evaluates operands and keeps only the ones that coerce to
// numbers. Non-numeric operands are filtered, not fatal.
func numericOperands(operands []*Node, b Bindings) []float64 {
	vals := make([]float64, 0, len(operands))
	for _, op := range operands {
		if f, ok := money.Coerce(Evaluate(op, b)); ok {
			vals = append(vals, f)
		}
	}
	return vals
}

func reduceNumeric(operands []*Node, b Bindings, identity float64, fn func(acc, v float64) float64) interface{} {
	vals := numericOperands(operands, b)
	if len(vals) == 0 {
		return nil
	}
	acc := identity
	for _, v := range vals {
		acc = fn(acc, v)
	}
	return acc
}

func pickNumeric(operands []*Node, b Bindings, pick func([]float64) float64) interface{} {
	vals := numericOperands(operands, b)
	if len(vals) == 0 {
		return nil
	}
	return pick(vals)
}

func evalPremium(n *Node, b Bindings) interface{} {
	base, ok := money.Coerce(Evaluate(n.Base, b))
	if !ok {
		return nil
	}
	pct, ok := money.Coerce(n.Percentage)
	if !ok {
		return nil
	}
	if n.Mode == "multiplicative" {
		return base * (1 + pct/100)
	}
	// additive is the default mode
	return base + pct
}

func evalRound(n *Node, b Bindings) interface{} {
	raw, ok := money.Coerce(Evaluate(n.Of, b))
	if !ok {
		return nil
	}
	precision := 2
	if n.Precision != nil {
		precision = *n.Precision
	}
	scale := math.Pow(10, float64(precision))
	switch n.Mode {
	case "floor":
		return math.Floor(raw*scale) / scale
	case "ceil":
		return math.Ceil(raw*scale) / scale
	default:
		return math.Round(raw*scale) / scale
	}
}

// evalTiers returns the full evaluated tier table. Tier selection by
// quantity is deliberately left to the applying layer so the same tree can
// be introspected for preview without a live quantity. Entries with an
// uncoercible min are skipped.
func evalTiers(n *Node, b Bindings) interface{} {
	if len(n.Tiers) == 0 {
		return nil
	}
	out := make([]TierValue, 0, len(n.Tiers))
	for _, def := range n.Tiers {
		min, ok := money.Coerce(def.Min)
		if !ok {
			continue
		}
		tv := TierValue{Min: min, Label: def.Label, Rate: Evaluate(def.Rate, b)}
		if max, ok := money.Coerce(def.Max); ok {
			tv.Max = &max
		}
		out = append(out, tv)
	}
	if len(out) == 0 {
		return nil
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Min < out[j].Min })
	return out
}

// evalLookup resolves a table keyed by a reference field (commonly "season"
// or "territory"), evaluating each entry to a primitive.
func evalLookup(n *Node, b Bindings) interface{} {
	if len(n.Table) == 0 {
		return nil
	}
	out := make(map[string]interface{}, len(n.Table))
	for k, vn := range n.Table {
		if v := Evaluate(vn, b); v != nil {
			out[k] = v
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

// KeyField returns the binding name a lookup node selects entries by, or ""
// when the node carries no usable key reference.
func (n *Node) KeyField() string {
	if n == nil || n.Type != NodeLookup || n.Key == nil {
		return ""
	}
	if n.Key.Type != NodeReference {
		return ""
	}
	return n.Key.Field
}
