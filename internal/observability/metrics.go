package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Contract-level collectors. Label values are small fixed sets so
// cardinality stays bounded.
var (
	// OracleRequests counts requestDateCheck calls by result
	// (issued, invalid, insufficient_funds, error).
	OracleRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rental_oracle_requests_total",
			Help: "Oracle date-check requests by result.",
		},
		[]string{"result"},
	)

	// OracleFulfillments counts fulfillDateCheck calls by result
	// (accepted, unauthorized, unknown, duplicate, expired, insufficient_funds, error).
	OracleFulfillments = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rental_oracle_fulfillments_total",
			Help: "Oracle fulfillments by result.",
		},
		[]string{"result"},
	)

	// RentPayments counts payment engine outcomes
	// (paid, already_paid, not_qualifying).
	RentPayments = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rental_payments_total",
			Help: "Payment engine outcomes per fulfilled date.",
		},
		[]string{"outcome"},
	)

	// PendingRequests gauges outstanding oracle requests.
	PendingRequests = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "rental_oracle_requests_pending",
			Help: "Oracle requests waiting for fulfillment.",
		},
	)

	// ExpiredRequests counts requests cancelled by the expiry worker.
	ExpiredRequests = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "rental_oracle_requests_expired_total",
			Help: "Oracle requests expired and refunded.",
		},
	)

	// EventPublishes counts broker publications by result (ok, error).
	EventPublishes = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rental_event_publish_total",
			Help: "Contract events forwarded to the broker by result.",
		},
		[]string{"result"},
	)

	// BreakerState is 0 closed, 1 open, 2 half-open.
	BreakerState = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "rental_event_breaker_state",
			Help: "Event publisher circuit breaker state (0 closed, 1 open, 2 half-open).",
		},
	)
)

func init() {
	prometheus.MustRegister(
		OracleRequests,
		OracleFulfillments,
		RentPayments,
		PendingRequests,
		ExpiredRequests,
		EventPublishes,
		BreakerState,
	)
}

// PublishResult records one broker publication.
func PublishResult(err error) {
	if err != nil {
		EventPublishes.WithLabelValues("error").Inc()
		return
	}
	EventPublishes.WithLabelValues("ok").Inc()
}
