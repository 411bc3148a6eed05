package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	HTTPRequests = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "translation_http_requests_total",
		Help: "HTTP requests by route, method and status.",
	}, []string{"route", "method", "status"})

	HTTPDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "translation_http_request_duration_seconds",
		Help:    "HTTP request latency by route.",
		Buckets: prometheus.DefBuckets,
	}, []string{"route", "method"})

	CheckoutSessions = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "translation_checkout_sessions_total",
		Help: "Checkout session attempts by environment and outcome.",
	}, []string{"environment", "outcome"})

	DocumentTransitions = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "translation_document_transitions_total",
		Help: "Document status transitions by target status and outcome.",
	}, []string{"to", "outcome"})

	Reconciliations = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "translation_reconciliations_total",
		Help: "Reconciliation runs by outcome.",
	}, []string{"outcome"})

	ReconciledRecords = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "translation_reconciled_records_total",
		Help: "Verification and translated rows removed by reconciliation.",
	})

	Dispatches = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "translation_dispatches_total",
		Help: "Processing webhook calls by outcome.",
	}, []string{"outcome"})
)

func init() {
	prometheus.MustRegister(
		HTTPRequests,
		HTTPDuration,
		CheckoutSessions,
		DocumentTransitions,
		Reconciliations,
		ReconciledRecords,
		Dispatches,
	)
}

// Outcome labels an operation result.
func Outcome(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}
