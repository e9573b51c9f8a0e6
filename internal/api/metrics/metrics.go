// Package metrics defines and registers all custom Prometheus metrics for the
// prompt catalog API. It is the single source of truth for metric names,
// labels, and help strings.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "promptshare"

// ── Catalog metrics ───────────────────────────────────────────────────────────

// PromptsCreatedTotal counts newly created prompts.
// Labels:
//   - target_model: the AI model the prompt targets (e.g. "Claude")
//   - visibility: "public" or "private"
var PromptsCreatedTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "prompts_created_total",
		Help:      "Total number of prompts created, by target model and visibility.",
	},
	[]string{"target_model", "visibility"},
)

// ListDuration measures how long the list query takes end-to-end.
var ListDuration = promauto.NewHistogram(
	prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "list_duration_seconds",
		Help:      "Duration of prompt list queries including count and page fetch.",
		Buckets:   prometheus.DefBuckets,
	},
)

// ── Rating metrics ────────────────────────────────────────────────────────────

// RatingsTotal counts rating attempts by outcome.
// Label:
//   - result: "applied", "duplicate", "self", "conflict", or "error"
var RatingsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "ratings_total",
		Help:      "Total number of rating attempts, labelled by outcome.",
	},
	[]string{"result"},
)

// ── Reconciliation metrics ────────────────────────────────────────────────────

// ReconcileQueueDepth tracks the number of back-reference repair tasks
// pending in each reconciler worker channel.
// Label:
//   - worker_id: numeric worker index (e.g. "0", "1", …)
var ReconcileQueueDepth = promauto.NewGaugeVec(
	prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "reconcile_queue_depth",
		Help:      "Current number of tasks pending in each reconciler worker channel.",
	},
	[]string{"worker_id"},
)

// ReconcileTasksTotal counts completed reconciliation tasks.
// Labels:
//   - op: "attach" or "detach"
//   - result: "applied" or "failed"
var ReconcileTasksTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "reconcile_tasks_total",
		Help:      "Total number of back-reference reconciliation tasks, by op and result.",
	},
	[]string{"op", "result"},
)
