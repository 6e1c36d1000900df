// Package expr holds the calculation tree attached to royalty rules and its
// evaluator. Trees are authored in YAML/JSON by the contract extraction side;
// every node is immutable once unmarshalled and owned by exactly one rule.
package expr

import "strings"

// NodeType discriminates the node variants of a calculation tree.
type NodeType string

const (
	NodeLiteral   NodeType = "literal"
	NodeReference NodeType = "reference"
	NodeMultiply  NodeType = "multiply"
	NodeAdd       NodeType = "add"
	NodeSubtract  NodeType = "subtract"
	NodePremium   NodeType = "premium"
	NodeMax       NodeType = "max"
	NodeMin       NodeType = "min"
	NodeRound     NodeType = "round"
	NodeTier      NodeType = "tier"
	NodeLookup    NodeType = "lookup"
	NodeIf        NodeType = "if"
)

// knownTypes is the closed set accepted by config validation.
var knownTypes = map[NodeType]struct{}{
	NodeLiteral: {}, NodeReference: {}, NodeMultiply: {}, NodeAdd: {},
	NodeSubtract: {}, NodePremium: {}, NodeMax: {}, NodeMin: {},
	NodeRound: {}, NodeTier: {}, NodeLookup: {}, NodeIf: {},
}

// KnownType reports whether t is a recognized node variant.
func KnownType(t NodeType) bool {
	_, ok := knownTypes[t]
	return ok
}

// Node is one node of a calculation tree. Which fields are meaningful
// depends on Type; unused fields stay at their zero value.
type Node struct {
	Type NodeType `yaml:"type" json:"type"`

	// literal: Value is returned verbatim. Unit "percent" marks a number the
	// applying layer divides by 100 when interpreting it as a rate.
	Value interface{} `yaml:"value,omitempty" json:"value,omitempty"`
	Unit  string      `yaml:"unit,omitempty" json:"unit,omitempty"`

	// reference: the binding name. Also the boolean binding consulted by if.
	Field string `yaml:"field,omitempty" json:"field,omitempty"`

	// multiply, add, max, min
	Operands []*Node `yaml:"operands,omitempty" json:"operands,omitempty"`

	// subtract
	Left  *Node `yaml:"left,omitempty" json:"left,omitempty"`
	Right *Node `yaml:"right,omitempty" json:"right,omitempty"`

	// premium: Base scaled (mode "multiplicative") or offset (default
	// "additive") by Percentage.
	Base       *Node       `yaml:"base,omitempty" json:"base,omitempty"`
	Percentage interface{} `yaml:"percentage,omitempty" json:"percentage,omitempty"`

	// premium mode ("multiplicative"/"additive") and round mode
	// ("floor"/"ceil"/nearest by default) share this field.
	Mode string `yaml:"mode,omitempty" json:"mode,omitempty"`

	// round: Of is the value to round, Precision the decimal digits (default 2).
	Of        *Node `yaml:"of,omitempty" json:"of,omitempty"`
	Precision *int  `yaml:"precision,omitempty" json:"precision,omitempty"`

	// tier
	Tiers []TierDef `yaml:"tiers,omitempty" json:"tiers,omitempty"`

	// lookup: Key is a reference node naming the binding that selects a
	// table entry; Table values are evaluated recursively.
	Key   *Node            `yaml:"key,omitempty" json:"key,omitempty"`
	Table map[string]*Node `yaml:"table,omitempty" json:"table,omitempty"`

	// if
	Then *Node `yaml:"then,omitempty" json:"then,omitempty"`
	Else *Node `yaml:"else,omitempty" json:"else,omitempty"`
}

// TierDef is one authored tier range. Min and Max pass through coercion at
// evaluation time; Max nil means open-ended.
type TierDef struct {
	Min   interface{} `yaml:"min" json:"min"`
	Max   interface{} `yaml:"max,omitempty" json:"max,omitempty"`
	Rate  *Node       `yaml:"rate" json:"rate"`
	Label string      `yaml:"label,omitempty" json:"label,omitempty"`
}

// TierValue is an evaluated tier entry. Rate is a primitive (usually a
// number); selection by quantity is the caller's responsibility.
type TierValue struct {
	Min   float64     `json:"min"`
	Max   *float64    `json:"max,omitempty"`
	Rate  interface{} `json:"rate"`
	Label string      `json:"label,omitempty"`
}

// PercentLiteral reports whether n is a literal annotated with unit
// "percent", meaning callers interpreting it as a rate divide by 100.
func (n *Node) PercentLiteral() bool {
	return n != nil && n.Type == NodeLiteral && strings.EqualFold(n.Unit, "percent")
}
