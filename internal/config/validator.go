package config

import (
	"fmt"
	"strings"

	"github.com/fernwell/royaltyd/internal/expr"
	"github.com/fernwell/royaltyd/internal/rule"
)

// Validate checks the rule file for:
//   - Duplicate contract and rule IDs
//   - Unknown expression node types anywhere in a calculation tree
//   - Volume tiers with inverted [min, max] bands
//   - Required fields
//
// Individual malformed rules are still skipped at match time; validation
// exists so authoring mistakes surface at load, not mid-batch.
func Validate(cfg *Config) error {
	if cfg.Version == "" {
		return fmt.Errorf("config: version is required")
	}
	ids := make(map[string]string) // id → location
	var errs []string

	for i, c := range cfg.Contracts {
		if c.ID == "" {
			errs = append(errs, fmt.Sprintf("contracts[%d]: id is required", i))
			continue
		}
		loc := fmt.Sprintf("contract %s", c.ID)
		if prev, ok := ids[c.ID]; ok {
			errs = append(errs, fmt.Sprintf("duplicate id %q (first seen at %s, again at %s)", c.ID, prev, loc))
		} else {
			ids[c.ID] = loc
		}
		for j, r := range c.Rules {
			validateRule(&r, fmt.Sprintf("%s.rules[%d]", loc, j), ids, &errs)
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("rule validation errors:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}

func validateRule(r *rule.Rule, loc string, ids map[string]string, errs *[]string) {
	if r.ID == "" {
		*errs = append(*errs, fmt.Sprintf("%s: id is required", loc))
		return
	}
	loc = fmt.Sprintf("rule %s", r.ID)
	if prev, ok := ids[r.ID]; ok {
		*errs = append(*errs, fmt.Sprintf("duplicate id %q (first seen at %s, again at %s)", r.ID, prev, loc))
	} else {
		ids[r.ID] = loc
	}
	if r.Type == "" {
		*errs = append(*errs, fmt.Sprintf("%s: rule_type is required", loc))
	}
	if r.Calculation.Kind() == rule.CalcNone && r.Type != rule.TypeMinimumGuarantee && r.Type != rule.TypeCap {
		*errs = append(*errs, fmt.Sprintf("%s: calculation must carry a tree or legacy fields", loc))
	}
	if legacy := r.Calculation.Legacy; legacy != nil {
		for k, t := range legacy.VolumeTiers {
			if t.Max != nil && *t.Max < t.Min {
				*errs = append(*errs, fmt.Sprintf("%s: volume_tiers[%d] has max %v below min %v", loc, k, *t.Max, t.Min))
			}
		}
	}
	if tree := r.Calculation.Tree; tree != nil {
		validateNode(tree, loc+".tree", errs)
	}
}

func validateNode(n *expr.Node, loc string, errs *[]string) {
	if n == nil {
		return
	}
	if !expr.KnownType(n.Type) {
		*errs = append(*errs, fmt.Sprintf("%s: unknown node type %q", loc, n.Type))
		return
	}
	for i, op := range n.Operands {
		validateNode(op, fmt.Sprintf("%s.operands[%d]", loc, i), errs)
	}
	validateNode(n.Left, loc+".left", errs)
	validateNode(n.Right, loc+".right", errs)
	validateNode(n.Base, loc+".base", errs)
	validateNode(n.Of, loc+".of", errs)
	validateNode(n.Key, loc+".key", errs)
	validateNode(n.Then, loc+".then", errs)
	validateNode(n.Else, loc+".else", errs)
	for i, t := range n.Tiers {
		validateNode(t.Rate, fmt.Sprintf("%s.tiers[%d].rate", loc, i), errs)
	}
	for k, v := range n.Table {
		validateNode(v, fmt.Sprintf("%s.table[%s]", loc, k), errs)
	}
}
