package metrics

import (
	"strings"

	"github.com/prometheus/client_golang/prometheus"
)

func init() {
	register(
		paymentsTotal,
		paymentsRevenueTotal,
		invoicesTotal,
		webhookEventsTotal,
	)
}

var (
	paymentsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "payments_total",
			Help: "Payments by terminal status (success/failed/refunded/disputed).",
		},
		[]string{"status"},
	)

	paymentsRevenueTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "payments_revenue_total",
			Help: "The total monetary value of successful payments, labeled by currency.",
		},
		[]string{"currency"},
	)

	invoicesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "invoices_total",
			Help: "Invoices by terminal status (paid/cancelled/failed/refunded).",
		},
		[]string{"status"},
	)

	webhookEventsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "webhook_events_total",
			Help: "Gateway webhook deliveries by event and outcome.",
		},
		[]string{"event", "outcome"}, // outcome: 'ok', 'invalid_signature', 'error'
	)
)

func norm(s string) string { return strings.ToLower(strings.TrimSpace(s)) }

func IncPayment(status string) {
	paymentsTotal.WithLabelValues(norm(status)).Inc()
}

func AddPaymentRevenue(currency string, amount int64) {
	paymentsRevenueTotal.WithLabelValues(norm(currency)).Add(float64(amount))
}

func IncInvoice(status string) {
	invoicesTotal.WithLabelValues(norm(status)).Inc()
}

func IncWebhookEvent(event, outcome string) {
	webhookEventsTotal.WithLabelValues(norm(event), norm(outcome)).Inc()
}
