package sched

import (
	"context"

	"github.com/rs/zerolog"

	"reetrack-billing/internal/usecase"
)

// NotificationWorker emits heads-up events for subscriptions expiring soon.
type NotificationWorker struct {
	notifUC    usecase.NotificationUseCase
	windowDays int
	log        *zerolog.Logger
}

func NewNotificationWorker(notifUC usecase.NotificationUseCase, windowDays int, logger *zerolog.Logger) *NotificationWorker {
	if windowDays <= 0 {
		windowDays = 3
	}
	l := logger.With().Str("component", "NotificationWorker").Logger()
	return &NotificationWorker{notifUC: notifUC, windowDays: windowDays, log: &l}
}

func (w *NotificationWorker) Name() string { return "expiry_notify" }

func (w *NotificationWorker) Run(ctx context.Context) error {
	n, err := w.notifUC.CheckAndSendExpiryNotifications(ctx, w.windowDays)
	if err != nil {
		return err
	}
	if n > 0 {
		w.log.Info().Int("count", n).Msg("expiry notifications sent")
	}
	return nil
}
