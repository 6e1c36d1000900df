package rule

import (
	"sort"
	"strings"

	"github.com/fernwell/royaltyd/internal/sales"
)

// stopWords are dropped before keyword-overlap comparison so filler tokens
// in extracted category names don't manufacture matches.
var stopWords = map[string]struct{}{
	"the": {}, "a": {}, "an": {}, "and": {}, "or": {}, "of": {},
	"for": {}, "with": {}, "per": {}, "all": {}, "any": {}, "in": {},
}

// abstractTerritories are placeholder names synthetic sales data uses
// instead of real geography. Items carrying one bypass territory
// enforcement entirely.
var abstractTerritories = map[string]struct{}{
	"primary": {}, "secondary": {}, "tertiary": {},
	"domestic": {}, "international": {},
	"north": {}, "south": {}, "east": {}, "west": {},
}

const territoryAll = "all"

// Match selects the single applicable rule for item, or nil when nothing
// matches. The search is two-phase: category-scoped rules first, global
// fallback rules second, each phase in ascending priority order. Specificity
// always outranks genericity regardless of priority numbers, so a narrow
// rule can override a generic one without coordinating priorities across
// tiers. Match is deterministic and never errors; malformed rules are
// skipped.
func Match(rules []Rule, item sales.LineItem) *Rule {
	ordered := byPriority(rules)

	for _, r := range ordered {
		if contractClause(r.Type) || len(r.ProductCategories) == 0 {
			continue
		}
		if categoryMatches(r.ProductCategories, item) && territoryMatches(r.Territories, item.Territory) {
			return r
		}
	}

	// Fallback phase: global rules, territory check only.
	for _, r := range ordered {
		if contractClause(r.Type) || len(r.ProductCategories) != 0 {
			continue
		}
		if territoryMatches(r.Territories, item.Territory) {
			return r
		}
	}
	return nil
}

// contractClause reports whether a rule type is a batch-level clause
// (guarantee floor, cap ceiling) rather than a line-matchable rule. Clauses
// never rate individual line items, even when they carry no categories.
func contractClause(t Type) bool {
	return t == TypeMinimumGuarantee || t == TypeCap
}

// byPriority returns pointers into a stable priority-sorted copy of rules.
func byPriority(rules []Rule) []*Rule {
	sorted := make([]Rule, len(rules))
	copy(sorted, rules)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Priority < sorted[j].Priority })
	out := make([]*Rule, len(sorted))
	for i := range sorted {
		out[i] = &sorted[i]
	}
	return out
}

// categoryMatches reports whether any configured category fits the item's
// product name or category, first by case-insensitive substring in either
// direction, then by keyword overlap.
func categoryMatches(categories []string, item sales.LineItem) bool {
	name := strings.ToLower(item.ProductName)
	itemCat := strings.ToLower(item.Category)
	for _, c := range categories {
		cat := strings.ToLower(strings.TrimSpace(c))
		if cat == "" {
			continue
		}
		if substringEither(cat, name) || substringEither(cat, itemCat) {
			return true
		}
		if keywordOverlap(cat, name) || keywordOverlap(cat, itemCat) {
			return true
		}
	}
	return false
}

func substringEither(a, b string) bool {
	if a == "" || b == "" {
		return false
	}
	return strings.Contains(a, b) || strings.Contains(b, a)
}

// keywordOverlap tokenizes both strings, drops stop words, and requires at
// least one token of one side to be a substring of a token on the other.
// This is what lets a "Roses" category claim a "Pacific Sunset Rose" item.
func keywordOverlap(a, b string) bool {
	at := tokens(a)
	bt := tokens(b)
	for _, x := range at {
		for _, y := range bt {
			if strings.Contains(x, y) || strings.Contains(y, x) {
				return true
			}
		}
	}
	return false
}

func tokens(s string) []string {
	fields := strings.FieldsFunc(s, func(r rune) bool {
		return !('a' <= r && r <= 'z' || 'A' <= r && r <= 'Z' || '0' <= r && r <= '9')
	})
	out := fields[:0]
	for _, f := range fields {
		f = strings.ToLower(f)
		if _, stop := stopWords[f]; stop {
			continue
		}
		out = append(out, f)
	}
	return out
}

// territoryMatches enforces a rule's territory scoping against an item.
// Unconstrained rules (no territories, or the "All" sentinel) always pass,
// as do items whose territory is blank or one of the abstract placeholder
// names. Otherwise the item territory must substring-match one configured
// territory in either direction.
func territoryMatches(territories []string, itemTerritory string) bool {
	if len(territories) == 0 {
		return true
	}
	it := strings.ToLower(strings.TrimSpace(itemTerritory))
	if it == "" {
		return true
	}
	if _, abstract := abstractTerritories[it]; abstract {
		return true
	}
	for _, t := range territories {
		rt := strings.ToLower(strings.TrimSpace(t))
		if rt == territoryAll {
			return true
		}
		if substringEither(rt, it) {
			return true
		}
	}
	return false
}
