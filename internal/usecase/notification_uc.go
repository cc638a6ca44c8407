package usecase

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"reetrack-billing/internal/domain/ports/adapter"
	"reetrack-billing/internal/domain/ports/repository"
)

// Compile-time check
var _ NotificationUseCase = (*notificationUC)(nil)

type NotificationUseCase interface {
	// CheckAndSendExpiryNotifications emits an expiring event for every
	// active subscription that runs out within N days. Returns how many
	// were notified.
	CheckAndSendExpiryNotifications(ctx context.Context, withinDays int) (int, error)
}

type notificationUC struct {
	subs     repository.SubscriptionRepository
	notifier adapter.Notifier
	log      *zerolog.Logger
}

func NewNotificationUseCase(subs repository.SubscriptionRepository, notifier adapter.Notifier, logger *zerolog.Logger) *notificationUC {
	return &notificationUC{subs: subs, notifier: notifier, log: logger}
}

func (n *notificationUC) CheckAndSendExpiryNotifications(ctx context.Context, withinDays int) (int, error) {
	items, err := n.subs.FindExpiring(ctx, repository.NoTX, time.Duration(withinDays)*24*time.Hour)
	if err != nil {
		return 0, err
	}
	now := time.Now()
	for _, s := range items {
		n.notifier.Notify(ctx, adapter.Event{
			Kind:           adapter.EventSubscriptionExpiring,
			OccurredAt:     now,
			SubscriberType: s.SubscriberType,
			SubscriberID:   s.SubscriberID,
			SubscriptionID: s.ID,
		})
	}
	return len(items), nil
}
