package expr

import (
	"math"
	"testing"
)

func lit(v interface{}) *Node { return &Node{Type: NodeLiteral, Value: v} }
func ref(field string) *Node  { return &Node{Type: NodeReference, Field: field} }
func intp(i int) *int         { return &i }

type evalCase struct {
	name string
	node *Node
	b    Bindings
	want interface{}
}

func TestEvaluate(t *testing.T) {
	cases := []evalCase{
		{
			name: "literal number",
			node: lit(4.5),
			want: 4.5,
		},
		{
			name: "literal string passes through verbatim",
			node: lit("standard"),
			want: "standard",
		},
		{
			name: "reference returns field name",
			node: ref("quantity"),
			want: "quantity",
		},
		{
			name: "reference without field",
			node: &Node{Type: NodeReference},
			want: nil,
		},
		{
			name: "multiply",
			node: &Node{Type: NodeMultiply, Operands: []*Node{lit(4.0), lit(2.5)}},
			want: 10.0,
		},
		{
			name: "multiply filters non-numeric operands",
			node: &Node{Type: NodeMultiply, Operands: []*Node{lit(3.0), lit("Tier 1"), lit(2.0)}},
			want: 6.0,
		},
		{
			name: "multiply with no numeric operands",
			node: &Node{Type: NodeMultiply, Operands: []*Node{lit("a"), lit("b")}},
			want: nil,
		},
		{
			name: "add",
			node: &Node{Type: NodeAdd, Operands: []*Node{lit(1.0), lit(2.0), lit(3.5)}},
			want: 6.5,
		},
		{
			name: "add coerces currency strings",
			node: &Node{Type: NodeAdd, Operands: []*Node{lit("$1,000"), lit(500)}},
			want: 1500.0,
		},
		{
			name: "subtract",
			node: &Node{Type: NodeSubtract, Left: lit(10.0), Right: lit(4.0)},
			want: 6.0,
		},
		{
			name: "subtract with non-numeric side",
			node: &Node{Type: NodeSubtract, Left: lit(10.0), Right: lit("n/a")},
			want: nil,
		},
		{
			name: "premium multiplicative",
			node: &Node{Type: NodePremium, Base: lit(100.0), Percentage: 50, Mode: "multiplicative"},
			want: 150.0,
		},
		{
			name: "premium additive default",
			node: &Node{Type: NodePremium, Base: lit(100.0), Percentage: 15},
			want: 115.0,
		},
		{
			name: "premium non-numeric base",
			node: &Node{Type: NodePremium, Base: lit("n/a"), Percentage: 15},
			want: nil,
		},
		{
			name: "max",
			node: &Node{Type: NodeMax, Operands: []*Node{lit(3.0), lit(9.0), lit(5.0)}},
			want: 9.0,
		},
		{
			name: "min filters non-numeric",
			node: &Node{Type: NodeMin, Operands: []*Node{lit("x"), lit(7.0), lit(2.0)}},
			want: 2.0,
		},
		{
			name: "min with nothing numeric",
			node: &Node{Type: NodeMin, Operands: []*Node{lit("x")}},
			want: nil,
		},
		{
			name: "round nearest default precision",
			node: &Node{Type: NodeRound, Of: lit(3.14159)},
			want: 3.14,
		},
		{
			name: "round floor precision 1",
			node: &Node{Type: NodeRound, Of: lit(2.79), Mode: "floor", Precision: intp(1)},
			want: 2.7,
		},
		{
			name: "round ceil precision 0",
			node: &Node{Type: NodeRound, Of: lit(2.01), Mode: "ceil", Precision: intp(0)},
			want: 3.0,
		},
		{
			name: "if true branch",
			node: &Node{Type: NodeIf, Field: "is_exclusive", Then: lit(5.0), Else: lit(3.0)},
			b:    Bindings{"is_exclusive": true},
			want: 5.0,
		},
		{
			name: "if false branch",
			node: &Node{Type: NodeIf, Field: "is_exclusive", Then: lit(5.0), Else: lit(3.0)},
			b:    Bindings{"is_exclusive": false},
			want: 3.0,
		},
		{
			name: "if condition unbound",
			node: &Node{Type: NodeIf, Field: "is_exclusive", Then: lit(5.0), Else: lit(3.0)},
			b:    Bindings{},
			want: nil,
		},
		{
			name: "nested tree",
			node: &Node{Type: NodeRound, Of: &Node{
				Type: NodeMultiply,
				Operands: []*Node{
					lit(4.0),
					&Node{Type: NodePremium, Base: lit(1.0), Percentage: 12.5, Mode: "multiplicative"},
				},
			}},
			want: 4.5,
		},
		{
			name: "unknown type",
			node: &Node{Type: NodeType("bogus")},
			want: nil,
		},
		{
			name: "nil node",
			node: nil,
			want: nil,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := Evaluate(tc.node, tc.b)
			if got != tc.want {
				t.Errorf("Evaluate() = %v (%T), want %v (%T)", got, got, tc.want, tc.want)
			}
		})
	}
}

func TestEvaluate_Tier(t *testing.T) {
	node := &Node{Type: NodeTier, Tiers: []TierDef{
		{Min: 1000, Max: nil, Rate: lit(3.0), Label: "volume"},
		{Min: 0, Max: 999, Rate: lit(5.0), Label: "base"},
		{Min: "junk", Rate: lit(9.0)}, // uncoercible min is skipped
	}}

	got, ok := Evaluate(node, nil).([]TierValue)
	if !ok {
		t.Fatalf("expected []TierValue, got %T", Evaluate(node, nil))
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 tiers, got %d", len(got))
	}
	// Sorted ascending by min.
	if got[0].Min != 0 || got[0].Rate != 5.0 || got[0].Label != "base" {
		t.Errorf("first tier = %+v, want min=0 rate=5 label=base", got[0])
	}
	if got[0].Max == nil || *got[0].Max != 999 {
		t.Errorf("first tier max = %v, want 999", got[0].Max)
	}
	if got[1].Min != 1000 || got[1].Max != nil || got[1].Rate != 3.0 {
		t.Errorf("second tier = %+v, want min=1000 open-ended rate=3", got[1])
	}
}

func TestEvaluate_Lookup(t *testing.T) {
	node := &Node{
		Type: NodeLookup,
		Key:  ref("season"),
		Table: map[string]*Node{
			"winter": lit(1.2),
			"summer": {Type: NodePremium, Base: lit(1.0), Percentage: 10, Mode: "multiplicative"},
		},
	}

	got, ok := Evaluate(node, nil).(map[string]interface{})
	if !ok {
		t.Fatalf("expected map result, got %T", Evaluate(node, nil))
	}
	if got["winter"] != 1.2 {
		t.Errorf("winter = %v, want 1.2", got["winter"])
	}
	if f, _ := got["summer"].(float64); math.Abs(f-1.1) > 1e-9 {
		t.Errorf("summer = %v, want 1.1", got["summer"])
	}
	if node.KeyField() != "season" {
		t.Errorf("KeyField() = %q, want season", node.KeyField())
	}
}

// Round bounds: floor never exceeds the raw value, ceil never undershoots,
// nearest stays within half a unit of the last kept digit.
func TestEvaluate_RoundBounds(t *testing.T) {
	values := []float64{0.001, 1.005, 2.675, 3.14159, 99.999, -1.2345}
	for _, raw := range values {
		floor, _ := Evaluate(&Node{Type: NodeRound, Of: lit(raw), Mode: "floor"}, nil).(float64)
		ceil, _ := Evaluate(&Node{Type: NodeRound, Of: lit(raw), Mode: "ceil"}, nil).(float64)
		nearest, _ := Evaluate(&Node{Type: NodeRound, Of: lit(raw)}, nil).(float64)
		if floor > raw {
			t.Errorf("floor(%v) = %v exceeds raw", raw, floor)
		}
		if ceil < raw {
			t.Errorf("ceil(%v) = %v undershoots raw", raw, ceil)
		}
		if math.Abs(nearest-raw) > 0.5*math.Pow(10, -2)+1e-12 {
			t.Errorf("nearest(%v) = %v drifted more than half a cent", raw, nearest)
		}
	}
}
