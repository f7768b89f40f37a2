// Package metrics defines the custom Prometheus metrics of the journal API.
// They register with the default registry on import and are served on
// /metrics next to the HTTP metrics from echoprometheus.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "journal"

// AuthEventsTotal counts authentication operations.
// Labels:
//   - event: signup, login, refresh, logout, forgot_password, reset_password
//   - outcome: success or the failure reason (e.g. "invalid_credentials")
var AuthEventsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "auth_events_total",
		Help:      "Total number of authentication operations by event and outcome.",
	},
	[]string{"event", "outcome"},
)

// ResetEmailsTotal counts password reset emails handed to the mailer.
var ResetEmailsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "reset_emails_total",
		Help:      "Total number of password reset emails, labelled by result (sent/failed).",
	},
	[]string{"result"},
)

// JournalEntryOperationsTotal counts entry mutations and reads.
var JournalEntryOperationsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "journal_entry_operations_total",
		Help:      "Total number of journal entry operations by operation.",
	},
	[]string{"operation"},
)

// RateLimitedTotal counts requests rejected by the rate limiter.
var RateLimitedTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "rate_limited_total",
		Help:      "Total number of requests rejected with 429, by limiter scope.",
	},
	[]string{"scope"},
)

// RefreshTokensPrunedTotal counts expired refresh tokens removed by the janitor.
var RefreshTokensPrunedTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "refresh_tokens_pruned_total",
		Help:      "Total number of expired refresh tokens deleted.",
	},
)
