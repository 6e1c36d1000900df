package engine

// LineResult is the audit record for one rated line item.
type LineResult struct {
	LineItemID        string  `json:"line_item_id"`
	ProductName       string  `json:"product_name,omitempty"`
	Matched           bool    `json:"matched"`
	RuleApplied       string  `json:"rule_applied,omitempty"`
	CalculatedRoyalty float64 `json:"calculated_royalty"`
	Explanation       string  `json:"explanation"`

	// Diagnostic fields for audit replay.
	TierRate            float64 `json:"tier_rate,omitempty"`
	SeasonalMultiplier  float64 `json:"seasonal_multiplier,omitempty"`
	TerritoryMultiplier float64 `json:"territory_multiplier,omitempty"`
}

// BatchResult aggregates a full calculation run for one contract.
type BatchResult struct {
	ContractID       string       `json:"contract_id"`
	TotalRoyalty     float64      `json:"total_royalty"`
	MinimumGuarantee *float64     `json:"minimum_guarantee,omitempty"`
	Cap              *float64     `json:"cap,omitempty"`
	FinalRoyalty     float64      `json:"final_royalty"`
	RulesApplied     []string     `json:"rules_applied"`
	Lines            []LineResult `json:"lines"`
	DurationMs       int64        `json:"duration_ms"`
}
