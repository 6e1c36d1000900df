package config

import (
	"strings"
	"testing"

	"gopkg.in/yaml.v3"

	"github.com/fernwell/royaltyd/internal/rule"
)

const sampleYAML = `
version: v1
engine:
  line_workers: 8
contracts:
  - id: contract-rosa
    name: Rosa Breeders License
    rules:
      - id: r-roses
        name: Rose per-unit royalty
        rule_type: per_unit
        product_categories: [Roses]
        territories: [All]
        priority: 1
        active: true
        calculation:
          legacy:
            base_rate: 4.0
            volume_tiers:
              - {min: 0, max: 999, rate: 5}
              - {min: 1000, rate: 3}
            seasonal_adjustments: {winter: 1.2}
            territory_premiums: {Japan: 1.1}
      - id: r-formula
        name: Formula rate
        rule_type: formula_based
        product_categories: [Tulips]
        priority: 2
        active: true
        calculation:
          tree:
            type: round
            mode: floor
            of:
              type: premium
              mode: multiplicative
              percentage: 10
              base: {type: literal, value: 2.5}
      - id: r-mg
        name: Annual minimum
        rule_type: minimum_guarantee
        priority: 99
        active: true
        calculation:
          legacy: {amount: "10000"}
`

func parse(t *testing.T, doc string) *Config {
	t.Helper()
	var cfg Config
	if err := yaml.Unmarshal([]byte(doc), &cfg); err != nil {
		t.Fatalf("yaml unmarshal: %v", err)
	}
	return &cfg
}

func TestValidate_SampleConfig(t *testing.T) {
	cfg := parse(t, sampleYAML)
	if err := Validate(cfg); err != nil {
		t.Fatalf("Validate: %v", err)
	}

	c := cfg.Contracts[0]
	if len(c.Rules) != 3 {
		t.Fatalf("expected 3 rules, got %d", len(c.Rules))
	}
	r := c.Rules[0]
	if r.Calculation.Kind() != rule.CalcLegacy {
		t.Errorf("r-roses kind = %v, want legacy", r.Calculation.Kind())
	}
	tiers := r.Calculation.Legacy.VolumeTiers
	if len(tiers) != 2 || tiers[1].Max != nil {
		t.Errorf("volume tiers = %+v, want second tier open-ended", tiers)
	}
	if cfg.Contracts[0].Rules[1].Calculation.Kind() != rule.CalcTree {
		t.Error("r-formula should carry a tree calculation")
	}
}

func TestValidate_Errors(t *testing.T) {
	cases := []struct {
		name    string
		mutate  func(*Config)
		wantSub string
	}{
		{
			name:    "missing version",
			mutate:  func(c *Config) { c.Version = "" },
			wantSub: "version is required",
		},
		{
			name: "duplicate rule id",
			mutate: func(c *Config) {
				c.Contracts[0].Rules[1].ID = c.Contracts[0].Rules[0].ID
			},
			wantSub: "duplicate id",
		},
		{
			name: "inverted tier band",
			mutate: func(c *Config) {
				max := 10.0
				c.Contracts[0].Rules[0].Calculation.Legacy.VolumeTiers[0].Min = 500
				c.Contracts[0].Rules[0].Calculation.Legacy.VolumeTiers[0].Max = &max
			},
			wantSub: "below min",
		},
		{
			name: "unknown node type",
			mutate: func(c *Config) {
				c.Contracts[0].Rules[1].Calculation.Tree.Of.Type = "exponentiate"
			},
			wantSub: "unknown node type",
		},
		{
			name: "rule without calculation",
			mutate: func(c *Config) {
				c.Contracts[0].Rules[0].Calculation = rule.Calculation{}
			},
			wantSub: "calculation must carry",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := parse(t, sampleYAML)
			tc.mutate(cfg)
			err := Validate(cfg)
			if err == nil {
				t.Fatal("expected validation error, got nil")
			}
			if !strings.Contains(err.Error(), tc.wantSub) {
				t.Errorf("error %q does not mention %q", err, tc.wantSub)
			}
		})
	}
}
