package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// ActionsTotal counts value-moving actions by action and outcome
	ActionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "miner_client_actions_total",
			Help: "Total number of value-moving actions",
		},
		[]string{"action", "status"},
	)

	// ActionPhaseFailures counts failures by protocol phase
	ActionPhaseFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "miner_client_action_phase_failures_total",
			Help: "Total number of action failures by protocol phase",
		},
		[]string{"action", "phase"},
	)

	// ApproveAmount tracks approved amounts in tokens
	ApproveAmount = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "miner_client_approve_amount",
			Help:    "Amount of tokens approved per action",
			Buckets: []float64{0.05, 0.1, 0.5, 1, 5, 10, 50, 100, 1000},
		},
		[]string{"action"},
	)

	// BalanceRefreshesTotal counts ledger balance refreshes by status
	BalanceRefreshesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "miner_client_balance_refreshes_total",
			Help: "Total number of ledger balance refreshes",
		},
		[]string{"status"},
	)

	// LoginsTotal counts login attempts by outcome
	LoginsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "miner_client_logins_total",
			Help: "Total number of login attempts",
		},
		[]string{"status"},
	)

	// SessionClassification tracks the current session classification as a
	// one-hot gauge
	SessionClassification = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "miner_client_session_classification",
			Help: "Current session classification (one-hot)",
		},
		[]string{"classification"},
	)

	// BoxesListed tracks the number of boxes returned by the last registry refresh
	BoxesListed = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "miner_client_boxes_listed",
			Help: "Number of boxes returned by the last registry refresh",
		},
	)
)

var classifications = []string{
	"loading", "unauthenticated", "authenticated_unregistered", "authenticated_registered",
}

// SetSessionClassification sets the one-hot classification gauge.
func SetSessionClassification(current string) {
	for _, c := range classifications {
		v := 0.0
		if c == current {
			v = 1
		}
		SessionClassification.WithLabelValues(c).Set(v)
	}
}
