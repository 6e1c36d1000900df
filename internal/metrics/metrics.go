package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	BatchesProcessed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "royaltyd_batches_processed_total",
		Help: "Total number of calculation batches fully processed.",
	})

	LinesRated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "royaltyd_line_items_rated_total",
		Help: "Total number of sales line items run through the rating loop.",
	})

	LinesUnmatched = promauto.NewCounter(prometheus.CounterOpts{
		Name: "royaltyd_line_items_unmatched_total",
		Help: "Total number of line items no rule matched (zero contribution).",
	})

	CoercionFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "royaltyd_coercion_failures_total",
		Help: "Total number of line items excluded because quantity or gross amount did not coerce.",
	})

	RulesApplied = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "royaltyd_rules_applied_total",
		Help: "Total number of rule applications, labelled by rule type.",
	}, []string{"rule_type"})

	BatchDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "royaltyd_batch_duration_ms",
		Help:    "End-to-end batch calculation latency in milliseconds.",
		Buckets: []float64{1, 5, 10, 25, 50, 100, 250, 500, 1000, 2500},
	})

	QueueUtilization = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "royaltyd_queue_utilization_ratio",
		Help: "Current rating queue utilization (0–1).",
	})
)
