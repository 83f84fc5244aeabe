// Package metrics defines the Prometheus metrics exported by the chat widget
// client. It is the single source of truth for metric names, labels, and help
// strings. Metrics register with the default registry on package load.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "chatwidget"

// ── Backend metrics ───────────────────────────────────────────────────────────

// BackendRequestsTotal counts requests sent to the chat backend.
// Labels:
//   - operation: "signup", "signin", "list", "send", "edit", "delete"
//   - status: HTTP status code, or "error" when no response arrived
var BackendRequestsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "backend_requests_total",
		Help:      "Total number of requests sent to the chat backend.",
	},
	[]string{"operation", "status"},
)

// BackendRequestDuration measures round-trip time per backend operation.
var BackendRequestDuration = promauto.NewHistogramVec(
	prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "backend_request_duration_seconds",
		Help:      "Round-trip duration of chat backend requests.",
		Buckets:   prometheus.DefBuckets,
	},
	[]string{"operation"},
)

// ── Session metrics ───────────────────────────────────────────────────────────

// SessionTransitionsTotal counts session store transitions.
// Label:
//   - transition: "login", "logout", "verify_ok", "verify_failed", "verify_empty"
var SessionTransitionsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "session_transitions_total",
		Help:      "Total number of session store transitions, by kind.",
	},
	[]string{"transition"},
)

// ── Synchronizer metrics ──────────────────────────────────────────────────────

// SyncOperationsTotal counts message synchronizer operations by outcome.
// Labels:
//   - operation: "load", "send", "edit", "delete"
//   - result: "ok", "unauthorized", "failed", "stale", "skipped"
var SyncOperationsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "sync_operations_total",
		Help:      "Total number of message synchronizer operations, by outcome.",
	},
	[]string{"operation", "result"},
)

// PendingMessages tracks optimistic entries currently awaiting the backend.
var PendingMessages = promauto.NewGauge(
	prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "pending_messages",
		Help:      "Number of optimistic messages awaiting backend confirmation.",
	},
)
