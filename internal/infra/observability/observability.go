// Package observability defines the Prometheus metrics for the lottery
// daemon. Metrics are registered via promauto and exposed on /metrics by the
// API server when enabled in config.
package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// ─── Round Metrics ──────────────────────────────────────────────────────────

// TicketsPurchased counts accepted ticket purchases by tier.
var TicketsPurchased = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "lotto",
	Subsystem: "round",
	Name:      "tickets_purchased_total",
	Help:      "Total tickets purchased, by tier.",
}, []string{"tier"})

// RevealsAccepted counts successful number reveals.
var RevealsAccepted = promauto.NewCounter(prometheus.CounterOpts{
	Namespace: "lotto",
	Subsystem: "round",
	Name:      "reveals_accepted_total",
	Help:      "Total numbers revealed successfully.",
})

// OperationsRejected counts protocol rejections by operation and reason.
var OperationsRejected = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "lotto",
	Subsystem: "round",
	Name:      "operations_rejected_total",
	Help:      "Total rejected operations, by operation and reason.",
}, []string{"op", "reason"})

// PayoutsExecuted counts settled rounds.
var PayoutsExecuted = promauto.NewCounter(prometheus.CounterOpts{
	Namespace: "lotto",
	Subsystem: "round",
	Name:      "payouts_total",
	Help:      "Total round payouts executed.",
})

// RewardPoolWei tracks the current round's pooled reward.
var RewardPoolWei = promauto.NewGauge(prometheus.GaugeOpts{
	Namespace: "lotto",
	Subsystem: "round",
	Name:      "reward_pool_wei",
	Help:      "Current round reward pool in wei.",
})

// RoundIndex tracks the current round number.
var RoundIndex = promauto.NewGauge(prometheus.GaugeOpts{
	Namespace: "lotto",
	Subsystem: "round",
	Name:      "index",
	Help:      "Index of the current round.",
})

// ─── Ledger Metrics ─────────────────────────────────────────────────────────

// Withdrawals counts balance withdrawals (including zero-balance no-ops).
var Withdrawals = promauto.NewCounter(prometheus.CounterOpts{
	Namespace: "lotto",
	Subsystem: "ledger",
	Name:      "withdrawals_total",
	Help:      "Total withdrawal operations.",
})

// WithdrawnWei accumulates the value paid out through withdrawals.
var WithdrawnWei = promauto.NewCounter(prometheus.CounterOpts{
	Namespace: "lotto",
	Subsystem: "ledger",
	Name:      "withdrawn_wei_total",
	Help:      "Total wei withdrawn from the ledger.",
})
