// Package metrics provides Prometheus metrics collection for shopgate.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Collector holds all Prometheus metrics for shopgate.
type Collector struct {
	// Cart metrics
	CartMutations *prometheus.CounterVec

	// Checkout metrics
	CheckoutAttempts *prometheus.CounterVec
	IntentAmount     prometheus.Histogram

	// Webhook metrics
	WebhookEvents    *prometheus.CounterVec
	WebhookDuplicate prometheus.Counter

	// Key lifecycle metrics
	KeyServiceCalls *prometheus.CounterVec
	OutboxRetries   prometheus.Counter
	OutboxPending   prometheus.Gauge

	// Reminder metrics
	RemindersSent prometheus.Counter
}

// New creates a new metrics collector with all metrics registered.
func New() *Collector {
	return &Collector{
		CartMutations: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "shopgate",
				Name:      "cart_mutations_total",
				Help:      "Total number of cart mutations",
			},
			[]string{"op"},
		),
		CheckoutAttempts: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "shopgate",
				Name:      "checkout_attempts_total",
				Help:      "Total number of checkout attempts",
			},
			[]string{"result"},
		),
		IntentAmount: promauto.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: "shopgate",
				Name:      "intent_amount_cents",
				Help:      "Payment intent amounts in cents",
				Buckets:   []float64{500, 1000, 2500, 5000, 10000, 25000, 50000, 100000},
			},
		),
		WebhookEvents: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "shopgate",
				Name:      "webhook_events_total",
				Help:      "Total number of webhook events received",
			},
			[]string{"type", "result"},
		),
		WebhookDuplicate: promauto.NewCounter(
			prometheus.CounterOpts{
				Namespace: "shopgate",
				Name:      "webhook_duplicate_events_total",
				Help:      "Total number of replayed webhook deliveries skipped",
			},
		),
		KeyServiceCalls: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "shopgate",
				Name:      "key_service_calls_total",
				Help:      "Total number of key-issuance service calls",
			},
			[]string{"op", "result"},
		),
		OutboxRetries: promauto.NewCounter(
			prometheus.CounterOpts{
				Namespace: "shopgate",
				Name:      "outbox_retries_total",
				Help:      "Total number of outbox retry attempts",
			},
		),
		OutboxPending: promauto.NewGauge(
			prometheus.GaugeOpts{
				Namespace: "shopgate",
				Name:      "outbox_pending_operations",
				Help:      "Number of key operations waiting in the outbox",
			},
		),
		RemindersSent: promauto.NewCounter(
			prometheus.CounterOpts{
				Namespace: "shopgate",
				Name:      "renewal_reminders_sent_total",
				Help:      "Total number of renewal reminder emails sent",
			},
		),
	}
}
