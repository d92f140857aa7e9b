// Package metrics holds the Prometheus collectors the service exports.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "teamreports"

var (
	ReportsSubmitted = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "reports_submitted_total",
		Help:      "Reports persisted, by shape (templated or legacy).",
	}, []string{"shape"})

	ReportValidationFailures = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "report_validation_failures_total",
		Help:      "Submissions rejected with field errors.",
	})

	SheetSync = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "sheet_sync_total",
		Help:      "Sheet sync attempts by result (ok, failed, skipped).",
	}, []string{"result"})

	BotUpdates = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "bot_updates_total",
		Help:      "Telegram webhook updates by command.",
	}, []string{"command"})

	IdentityResolutions = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "identity_resolutions_total",
		Help:      "Identity resolutions by outcome (created, updated, unchanged).",
	}, []string{"outcome"})
)
