// Package rule defines contract-derived royalty rules and the matcher that
// selects the single applicable rule for a sales line item.
package rule

import "github.com/fernwell/royaltyd/internal/expr"

// Type enumerates the rule kinds a contract can carry.
type Type string

const (
	TypeTiered             Type = "tiered"
	TypePercentage         Type = "percentage"
	TypeMinimumGuarantee   Type = "minimum_guarantee"
	TypeCap                Type = "cap"
	TypeFixedFee           Type = "fixed_fee"
	TypePerUnit            Type = "per_unit"
	TypeContainerSizeTiers Type = "container_size_tiered"
	TypeFormulaBased       Type = "formula_based"
)

// Rule is one row of contract royalty logic. Rules are read-only inputs to a
// calculation run; the engine never mutates them.
type Rule struct {
	ID         string `yaml:"id" json:"id"`
	ContractID string `yaml:"-" json:"contract_id"`
	Name       string `yaml:"name" json:"name"`
	Type       Type   `yaml:"rule_type" json:"rule_type"`

	// ProductCategories empty marks a global fallback rule, chosen only when
	// no category-scoped rule matches.
	ProductCategories []string `yaml:"product_categories" json:"product_categories"`

	// Territories empty or containing "All" means unconstrained.
	Territories []string `yaml:"territories" json:"territories"`

	// Priority orders rules within a specificity tier; lower wins.
	Priority int `yaml:"priority" json:"priority"`

	Active bool `yaml:"active" json:"active"`

	Calculation Calculation `yaml:"calculation" json:"calculation"`
}

// Calculation is a two-armed union: a structured expression tree when
// present, else the legacy flat fields. The engine branches on Kind rather
// than probing fields.
type Calculation struct {
	Tree   *expr.Node  `yaml:"tree,omitempty" json:"tree,omitempty"`
	Legacy *LegacyCalc `yaml:"legacy,omitempty" json:"legacy,omitempty"`
}

// CalcKind tags which arm of a Calculation is populated.
type CalcKind int

const (
	CalcNone CalcKind = iota
	CalcTree
	CalcLegacy
)

// Kind returns the populated arm, preferring the tree when both exist.
func (c Calculation) Kind() CalcKind {
	switch {
	case c.Tree != nil:
		return CalcTree
	case c.Legacy != nil:
		return CalcLegacy
	default:
		return CalcNone
	}
}

// LegacyCalc holds the flat-rate fields used by rules authored before
// structured trees. Amount carries the contract-level figure for
// minimum_guarantee and cap rules; it passes through coercion because
// extracted values arrive as strings or nested objects as often as numbers.
type LegacyCalc struct {
	BaseRate            interface{}        `yaml:"base_rate,omitempty" json:"base_rate,omitempty"`
	Amount              interface{}        `yaml:"amount,omitempty" json:"amount,omitempty"`
	VolumeTiers         []VolumeTier       `yaml:"volume_tiers,omitempty" json:"volume_tiers,omitempty"`
	SeasonalAdjustments map[string]float64 `yaml:"seasonal_adjustments,omitempty" json:"seasonal_adjustments,omitempty"`
	TerritoryPremiums   map[string]float64 `yaml:"territory_premiums,omitempty" json:"territory_premiums,omitempty"`
}

// VolumeTier is one quantity band of a legacy tiered rate. Max nil means
// open-ended.
type VolumeTier struct {
	Min  float64     `yaml:"min" json:"min"`
	Max  *float64    `yaml:"max,omitempty" json:"max,omitempty"`
	Rate interface{} `yaml:"rate" json:"rate"`
}

// Contains reports whether q falls inside the tier's [min, max] band.
func (t VolumeTier) Contains(q float64) bool {
	if q < t.Min {
		return false
	}
	return t.Max == nil || q <= *t.Max
}
