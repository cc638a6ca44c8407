package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	"reetrack-billing/internal/domain/model"
)

func init() {
	register(
		subscriptionsExpiredTotal,
		subscriptionsTotal,
	)
}

var (
	subscriptionsExpiredTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "subscriptions_expired_total",
			Help: "Total number of subscriptions processed by the expiry worker.",
		},
	)

	subscriptionsTotal = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "subscriptions_total",
			Help: "Current number of subscriptions by status.",
		},
		[]string{"status"},
	)
)

func IncSubscriptionsExpired(count int) {
	subscriptionsExpiredTotal.Add(float64(count))
}

func SetSubscriptionsTotal(counts map[model.SubscriptionStatus]int) {
	statuses := []model.SubscriptionStatus{
		model.SubscriptionStatusPending,
		model.SubscriptionStatusActive,
		model.SubscriptionStatusPaused,
		model.SubscriptionStatusCanceled,
		model.SubscriptionStatusExpired,
		model.SubscriptionStatusFailed,
	}
	for _, status := range statuses {
		if count, ok := counts[status]; ok {
			subscriptionsTotal.WithLabelValues(string(status)).Set(float64(count))
		}
	}
}
