// Package engine orchestrates royalty calculation: it matches each sales
// line item to a rule, evaluates the rule's calculation, and reconciles the
// batch total against contract-level minimum-guarantee and cap clauses.
package engine

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/fernwell/royaltyd/internal/config"
	"github.com/fernwell/royaltyd/internal/expr"
	"github.com/fernwell/royaltyd/internal/metrics"
	"github.com/fernwell/royaltyd/internal/money"
	"github.com/fernwell/royaltyd/internal/rule"
	"github.com/fernwell/royaltyd/internal/sales"
)

// RuleSource supplies the active rule set for one contract. Implemented by
// the store; rules arrive in arbitrary order, the matcher imposes its own.
type RuleSource interface {
	RulesForContract(contractID string) ([]rule.Rule, error)
}

// Calculator rates batches of line items against contract rules. Line items
// within a batch are independent, so rating fans out across a worker pool
// and reduces into the batch accumulator at the end.
type Calculator struct {
	source RuleSource
	pool   *workerPool[*lineWork]
	conf   *config.EngineConf
}

type lineWork struct {
	idx     int
	item    sales.LineItem
	rules   []rule.Rule
	resultC chan<- indexedLine
}

type indexedLine struct {
	idx int
	res LineResult
}

// New creates a Calculator using conf and starts its worker pool.
func New(ctx context.Context, source RuleSource, conf config.EngineConf) *Calculator {
	if conf.LineWorkers <= 0 {
		conf.LineWorkers = 16
	}
	if conf.QueueDepth <= 0 {
		conf.QueueDepth = 1024
	}
	c := &Calculator{source: source, conf: &conf}
	c.pool = newWorkerPool(ctx, conf.LineWorkers, conf.QueueDepth, func(_ context.Context, w *lineWork) {
		w.resultC <- indexedLine{idx: w.idx, res: rateLine(w.rules, w.item)}
	})
	return c
}

// Calculate rates all items against contractID's rules and returns the
// reconciled batch result. An empty batch is not an error: all totals come
// back zero. Rule sets and items are read-only snapshots for the duration
// of the call.
func (c *Calculator) Calculate(ctx context.Context, contractID string, items []sales.LineItem) (*BatchResult, error) {
	start := time.Now()
	if c.conf.BatchTimeoutMs > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, time.Duration(c.conf.BatchTimeoutMs)*time.Millisecond)
		defer cancel()
	}
	rules, err := c.source.RulesForContract(contractID)
	if err != nil {
		return nil, fmt.Errorf("load rules for contract %s: %w", contractID, err)
	}

	result := &BatchResult{
		ContractID:   contractID,
		Lines:        make([]LineResult, len(items)),
		RulesApplied: []string{},
	}

	if len(items) > 0 {
		resultC := make(chan indexedLine, len(items))
		for i, item := range items {
			w := &lineWork{idx: i, item: item, rules: rules, resultC: resultC}
			if !c.pool.Submit(w) {
				// Queue full: rate inline rather than drop a financial line.
				resultC <- indexedLine{idx: i, res: rateLine(rules, item)}
			}
		}
		for range items {
			select {
			case r := <-resultC:
				result.Lines[r.idx] = r.res
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}
	}

	applied := make(map[string]struct{})
	for _, line := range result.Lines {
		if !line.Matched {
			continue
		}
		result.TotalRoyalty += line.CalculatedRoyalty
		if line.RuleApplied != "" {
			applied[line.RuleApplied] = struct{}{}
		}
	}
	for name := range applied {
		result.RulesApplied = append(result.RulesApplied, name)
	}
	sort.Strings(result.RulesApplied)

	reconcile(result, rules)

	result.DurationMs = time.Since(start).Milliseconds()
	metrics.BatchesProcessed.Inc()
	metrics.LinesRated.Add(float64(len(items)))
	metrics.BatchDuration.Observe(float64(result.DurationMs))
	return result, nil
}

// QueueUtilization returns queue used / capacity (0–1).
func (c *Calculator) QueueUtilization() float64 {
	if c.pool.QueueCap() == 0 {
		return 0
	}
	return float64(c.pool.QueueLen()) / float64(c.pool.QueueCap())
}

// Shutdown drains the worker pool gracefully.
func (c *Calculator) Shutdown() {
	c.pool.Drain()
}

// reconcile applies contract-level clauses to the batch total: the
// minimum-guarantee floor first, then the cap ceiling. The order is a
// design decision, not an accident — when a contract carries a guarantee
// above its cap, the cap must win.
func reconcile(result *BatchResult, rules []rule.Rule) {
	result.FinalRoyalty = result.TotalRoyalty
	if mg, ok := clauseAmount(rules, rule.TypeMinimumGuarantee); ok {
		result.MinimumGuarantee = &mg
		if mg > result.FinalRoyalty {
			result.FinalRoyalty = mg
		}
	}
	if ceiling, ok := clauseAmount(rules, rule.TypeCap); ok {
		result.Cap = &ceiling
		if ceiling < result.FinalRoyalty {
			result.FinalRoyalty = ceiling
		}
	}
}

// clauseAmount finds the lowest-priority-numbered rule of the given type and
// coerces its amount. Guarantee and cap figures arrive in the same unreliable
// shapes as every other extracted value.
func clauseAmount(rules []rule.Rule, t rule.Type) (float64, bool) {
	var found *rule.Rule
	for i := range rules {
		r := &rules[i]
		if r.Type != t {
			continue
		}
		if found == nil || r.Priority < found.Priority {
			found = r
		}
	}
	if found == nil {
		return 0, false
	}
	if legacy := found.Calculation.Legacy; legacy != nil {
		if amt, ok := money.Coerce(legacy.Amount); ok {
			return amt, true
		}
		if amt, ok := money.Coerce(legacy.BaseRate); ok {
			return amt, true
		}
	}
	if tree := found.Calculation.Tree; tree != nil {
		if amt, ok := money.Coerce(expr.Evaluate(tree, nil)); ok {
			return amt, true
		}
	}
	return 0, false
}
