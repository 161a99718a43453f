// Package metrics defines and registers all custom Prometheus metrics for the
// tracking service. It is the single source of truth for metric names,
// labels, and help strings.
//
// Metrics are registered with the default Prometheus registry when the
// package is loaded; HTTP request metrics come from the echoprometheus
// middleware and share the same registry.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "tracking"

// ── Lookup metrics ────────────────────────────────────────────────────────────

// LookupsTotal counts tracking lookups.
// Labels:
//   - outcome: "ok" or "error"
//   - reason: failure kind ("transport", "timeout", "method_not_found", "empty_response"), empty on success
var LookupsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "lookups_total",
		Help:      "Total number of tracking lookups, by outcome and failure reason.",
	},
	[]string{"outcome", "reason"},
)

// StatusesTotal counts the statuses reported by successful lookups.
// Label:
//   - status: the normalized status label (e.g. "Livré", "unknown")
var StatusesTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "statuses_total",
		Help:      "Total number of successful lookups, by reported status.",
	},
	[]string{"status"},
)

// RemoteCallDuration measures the SOAP round trip of a single lookup.
// Label:
//   - method: the remote operation invoked (e.g. "trackSkybillV2")
var RemoteCallDuration = promauto.NewHistogramVec(
	prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "remote_call_duration_seconds",
		Help:      "Duration of the remote tracking call.",
		Buckets:   prometheus.DefBuckets, // .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10
	},
	[]string{"method"},
)

// ── Audit metrics ─────────────────────────────────────────────────────────────

// AuditQueueDepth tracks the number of lookup records waiting in each worker channel.
// Label:
//   - worker_id: numeric worker index (e.g. "0", "1", …)
var AuditQueueDepth = promauto.NewGaugeVec(
	prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "audit_queue_depth",
		Help:      "Current number of lookup records pending in each dispatcher worker channel.",
	},
	[]string{"worker_id"},
)

// AuditDroppedTotal counts lookup records dropped because a worker channel was full.
var AuditDroppedTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "audit_dropped_total",
		Help:      "Total number of lookup records dropped on a full dispatcher queue.",
	},
)

// AuditErrorsTotal counts lookup records that could not be persisted.
var AuditErrorsTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "audit_errors_total",
		Help:      "Total number of lookup records that failed to persist.",
	},
)

// ── Rate limiting ─────────────────────────────────────────────────────────────

// RateLimitedTotal counts requests rejected by the rate limiter.
var RateLimitedTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "rate_limited_total",
		Help:      "Total number of requests rejected by the rate limiter.",
	},
)
