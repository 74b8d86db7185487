package services

import "github.com/prometheus/client_golang/prometheus"

// Purchase outcome labels.
const (
	outcomeGranted       = "granted"
	outcomeGrantedTopUp  = "granted_topup"
	outcomeDirect        = "direct"
	outcomeAlreadyOwned  = "already_owned"
	outcomeNotEntitled   = "not_entitled"
	outcomeQuotaExceeded = "quota_exceeded"
	outcomeNotAvailable  = "lead_not_available"
	outcomeConflict      = "conflict"
	outcomeError         = "error"
)

var (
	// purchaseOutcomes counts admission decisions by outcome.
	purchaseOutcomes = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lead_purchases_total",
			Help: "Lead purchase attempts by outcome.",
		},
		[]string{"outcome"},
	)

	// purchaseRetries counts optimistic retries of the grant step.
	purchaseRetries = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "lead_purchase_retries_total",
			Help: "Optimistic retries of the atomic grant step.",
		},
	)

	// quotaResets counts persisted lazy window rollovers.
	quotaResets = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "quota_window_resets_total",
			Help: "Lazy quota window rollovers written to the store.",
		},
	)
)

func init() {
	prometheus.MustRegister(purchaseOutcomes, purchaseRetries, quotaResets)
}
