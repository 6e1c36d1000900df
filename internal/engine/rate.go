package engine

import (
	"fmt"
	"strings"

	"github.com/fernwell/royaltyd/internal/expr"
	"github.com/fernwell/royaltyd/internal/metrics"
	"github.com/fernwell/royaltyd/internal/money"
	"github.com/fernwell/royaltyd/internal/rule"
	"github.com/fernwell/royaltyd/internal/sales"
)

// rateLine matches and rates a single line item. It is a total function:
// every data-quality problem becomes a zero-contribution result with an
// explanation, never an error.
func rateLine(rules []rule.Rule, item sales.LineItem) LineResult {
	res := LineResult{
		LineItemID:  item.ID,
		ProductName: item.ProductName,
	}

	qty, ok := money.Coerce(item.Quantity)
	if !ok || qty < 0 {
		metrics.CoercionFailures.Inc()
		res.Explanation = fmt.Sprintf("quantity %v did not coerce to a non-negative number; line excluded", item.Quantity)
		return res
	}
	// An absent gross amount asserts nothing; only a present, uncoercible
	// one marks the line as malformed.
	gross := 0.0
	if item.GrossAmount != nil {
		gross, ok = money.Coerce(item.GrossAmount)
		if !ok || gross < 0 {
			metrics.CoercionFailures.Inc()
			res.Explanation = fmt.Sprintf("gross amount %v did not coerce to a non-negative number; line excluded", item.GrossAmount)
			return res
		}
	}

	matched := rule.Match(rules, item)
	if matched == nil {
		metrics.LinesUnmatched.Inc()
		res.Explanation = "no applicable rule for this line item"
		return res
	}

	res.Matched = true
	res.RuleApplied = ruleName(matched)
	res.SeasonalMultiplier = 1
	res.TerritoryMultiplier = 1

	bindings := expr.Bindings{
		"quantity":     qty,
		"category":     item.Category,
		"territory":    item.Territory,
		"product_name": item.ProductName,
		"gross_amount": gross,
		"season":       item.Season(),
	}

	var (
		rate   float64
		source string
		rateOK bool
	)
	switch matched.Calculation.Kind() {
	case rule.CalcTree:
		rate, source, rateOK = treeRate(matched, qty, bindings, &res)
		if !rateOK && matched.Calculation.Legacy != nil {
			rate, source, rateOK = legacyRate(matched.Calculation.Legacy, qty, &res)
		}
	case rule.CalcLegacy:
		rate, source, rateOK = legacyRate(matched.Calculation.Legacy, qty, &res)
	case rule.CalcNone:
		// fall through with rateOK false
	}
	if !rateOK {
		res.Explanation = fmt.Sprintf("rule %q produced no usable rate; zero contribution", res.RuleApplied)
		return res
	}

	// Seasonal multiplier first, territory premium second. The chaining
	// order is fixed because it moves cent-level rounding.
	season := item.Season()
	if legacy := matched.Calculation.Legacy; legacy != nil {
		if m, ok := legacy.SeasonalAdjustments[season]; ok {
			res.SeasonalMultiplier = m
		}
		if m, ok := lookupFold(legacy.TerritoryPremiums, item.Territory); ok {
			res.TerritoryMultiplier = m
		}
	}

	res.CalculatedRoyalty = qty * rate * res.SeasonalMultiplier * res.TerritoryMultiplier
	res.Explanation = fmt.Sprintf("rule %q: %.2f × %.4f (%s)", res.RuleApplied, qty, rate, source)
	if res.SeasonalMultiplier != 1 {
		res.Explanation += fmt.Sprintf(" × %.2f (%s)", res.SeasonalMultiplier, season)
	}
	if res.TerritoryMultiplier != 1 {
		res.Explanation += fmt.Sprintf(" × %.2f (%s)", res.TerritoryMultiplier, item.Territory)
	}
	res.Explanation += fmt.Sprintf(" = %.2f", res.CalculatedRoyalty)

	metrics.RulesApplied.WithLabelValues(string(matched.Type)).Inc()
	return res
}

// treeRate evaluates a rule's calculation tree and interprets the primitive
// it yields as an effective per-unit rate.
func treeRate(r *rule.Rule, qty float64, b expr.Bindings, res *LineResult) (float64, string, bool) {
	tree := r.Calculation.Tree
	switch v := expr.Evaluate(tree, b).(type) {
	case []expr.TierValue:
		tier, ok := selectTier(v, qty)
		if !ok {
			return 0, "", false
		}
		rate, ok := money.Coerce(tier.Rate)
		if !ok {
			return 0, "", false
		}
		res.TierRate = rate
		label := tier.Label
		if label == "" {
			label = fmt.Sprintf("tier from %.0f", tier.Min)
		}
		return rate, "tree " + label, true
	case map[string]interface{}:
		key, _ := b[tree.KeyField()].(string)
		entry, ok := v[key]
		if !ok {
			return 0, "", false
		}
		rate, ok := money.Coerce(entry)
		if !ok {
			return 0, "", false
		}
		return rate, fmt.Sprintf("tree lookup %s=%s", tree.KeyField(), key), true
	default:
		rate, ok := money.Coerce(v)
		if !ok {
			return 0, "", false
		}
		if tree.PercentLiteral() {
			rate /= 100
		}
		return rate, "tree rate", true
	}
}

// legacyRate derives the effective rate from flat legacy fields: the volume
// tier containing the quantity when tiers exist, else the base rate.
func legacyRate(legacy *rule.LegacyCalc, qty float64, res *LineResult) (float64, string, bool) {
	if len(legacy.VolumeTiers) > 0 {
		tier, ok := selectVolumeTier(legacy.VolumeTiers, qty)
		if !ok {
			return 0, "", false
		}
		rate, ok := money.Coerce(tier.Rate)
		if !ok {
			return 0, "", false
		}
		res.TierRate = rate
		return rate, fmt.Sprintf("volume tier from %.0f", tier.Min), true
	}
	rate, ok := money.Coerce(legacy.BaseRate)
	if !ok {
		return 0, "", false
	}
	return rate, "base rate", true
}

// selectTier picks the tier whose band contains qty from an evaluated tier
// table (sorted ascending by min). An out-of-range quantity clamps to the
// nearest tier: below the lowest min takes the first tier, above the last
// bounded max takes the last.
func selectTier(tiers []expr.TierValue, qty float64) (expr.TierValue, bool) {
	if len(tiers) == 0 {
		return expr.TierValue{}, false
	}
	for _, t := range tiers {
		if qty >= t.Min && (t.Max == nil || qty <= *t.Max) {
			return t, true
		}
	}
	if qty < tiers[0].Min {
		return tiers[0], true
	}
	return tiers[len(tiers)-1], true
}

// selectVolumeTier is selectTier for legacy flat tiers, with the same
// clamp-to-nearest out-of-range policy.
func selectVolumeTier(tiers []rule.VolumeTier, qty float64) (rule.VolumeTier, bool) {
	sorted := make([]rule.VolumeTier, len(tiers))
	copy(sorted, tiers)
	for i := 1; i < len(sorted); i++ {
		for j := i; j > 0 && sorted[j].Min < sorted[j-1].Min; j-- {
			sorted[j], sorted[j-1] = sorted[j-1], sorted[j]
		}
	}
	for _, t := range sorted {
		if t.Contains(qty) {
			return t, true
		}
	}
	if qty < sorted[0].Min {
		return sorted[0], true
	}
	return sorted[len(sorted)-1], true
}

// lookupFold finds a map entry by case-insensitive key.
func lookupFold(m map[string]float64, key string) (float64, bool) {
	if v, ok := m[key]; ok {
		return v, true
	}
	for k, v := range m {
		if strings.EqualFold(k, key) {
			return v, true
		}
	}
	return 0, false
}

func ruleName(r *rule.Rule) string {
	if r.Name != "" {
		return r.Name
	}
	return r.ID
}
