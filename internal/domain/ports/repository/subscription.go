package repository

import (
	"context"
	"time"

	"reetrack-billing/internal/domain/model"
)

// SubscriptionRepository is the port for subscriptions. Only the lifecycle
// manager and reconciliation use case write status through it.
type SubscriptionRepository interface {
	Save(ctx context.Context, tx Tx, sub *model.Subscription) error
	FindByID(ctx context.Context, tx Tx, id string) (*model.Subscription, error)
	ListBySubscriber(ctx context.Context, tx Tx, subscriberType model.SubscriberType, subscriberID string) ([]*model.Subscription, error)

	// CountByPlan counts subscription rows for a plan; with onlyActive it
	// counts status=active rows only. Used by the plan mutation guards.
	CountByPlan(ctx context.Context, tx Tx, planID string, onlyActive bool) (int, error)

	// CountActiveByPlanForOrg returns active-subscription counts keyed by
	// plan id across one organization's plans.
	CountActiveByPlanForOrg(ctx context.Context, tx Tx, orgID string) (map[string]int, error)

	// FindDueForExpiry returns active or failed subscriptions whose period
	// ended at or before asOf, oldest first.
	FindDueForExpiry(ctx context.Context, tx Tx, asOf time.Time, limit int) ([]*model.Subscription, error)

	// FindExpiring returns active subscriptions expiring within the window.
	FindExpiring(ctx context.Context, tx Tx, within time.Duration) ([]*model.Subscription, error)

	// CountByStatus returns subscription counts keyed by status, for gauges.
	CountByStatus(ctx context.Context, tx Tx) (map[model.SubscriptionStatus]int, error)
}
