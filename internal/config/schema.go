package config

import "github.com/fernwell/royaltyd/internal/rule"

// Config is the top-level YAML structure: engine tuning plus the contracts
// and their royalty rules.
type Config struct {
	Version   string     `yaml:"version"`
	Engine    EngineConf `yaml:"engine"`
	Contracts []Contract `yaml:"contracts"`
}

// EngineConf holds tunable concurrency settings for the calculator.
type EngineConf struct {
	LineWorkers    int `yaml:"line_workers"`
	QueueDepth     int `yaml:"queue_depth"`
	BatchTimeoutMs int `yaml:"batch_timeout_ms"`
}

// Contract groups the rules extracted from one licensing contract.
type Contract struct {
	ID    string      `yaml:"id"`
	Name  string      `yaml:"name"`
	Rules []rule.Rule `yaml:"rules"`
}
