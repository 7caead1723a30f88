// Package metrics defines the custom Prometheus metrics of the portfolio API.
// Metrics are registered with the default registry on package init.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "portfolio"

// ── Auth metrics ──────────────────────────────────────────────────────────────

// LoginAttemptsTotal counts login attempts.
// Label:
//   - outcome: "success", "invalid_credentials", "rate_limited" or "error"
var LoginAttemptsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "auth",
		Name:      "login_attempts_total",
		Help:      "Total number of login attempts, by outcome.",
	},
	[]string{"outcome"},
)

// RegistrationsTotal counts registration attempts.
// Label:
//   - outcome: "success", "username_taken", "email_taken" or "error"
var RegistrationsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "auth",
		Name:      "registrations_total",
		Help:      "Total number of registration attempts, by outcome.",
	},
	[]string{"outcome"},
)

// GuardDecisionsTotal counts access guard decisions.
// Labels:
//   - gate: "authenticate", "user" or "admin"
//   - outcome: "allowed", "missing_token", "invalid_token", "account_missing", "forbidden" or "error"
var GuardDecisionsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "auth",
		Name:      "guard_decisions_total",
		Help:      "Total number of access guard decisions, by gate and outcome.",
	},
	[]string{"gate", "outcome"},
)

// ── Content metrics ───────────────────────────────────────────────────────────

var BlogsCreatedTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "blogs_created_total",
		Help:      "Total number of blog posts created.",
	},
)

// CommentsTotal counts comment mutations.
// Label:
//   - action: "created" or "deleted"
var CommentsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "comments_total",
		Help:      "Total number of comment mutations, by action.",
	},
	[]string{"action"},
)

// ── Dispatcher metrics ────────────────────────────────────────────────────────

// LoginEventsQueueDepth tracks the number of last-login updates waiting in each worker channel.
var LoginEventsQueueDepth = promauto.NewGaugeVec(
	prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "login_events_queue_depth",
		Help:      "Current number of last-login updates pending in each dispatcher worker channel.",
	},
	[]string{"worker_id"},
)

// LoginEventsTotal counts last-login updates leaving the dispatcher.
// Label:
//   - result: "applied", "dropped" or "failed"
var LoginEventsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "login_events_total",
		Help:      "Total number of last-login updates, by result.",
	},
	[]string{"result"},
)
