package notify

import (
	"context"

	"github.com/rs/zerolog"

	"reetrack-billing/internal/domain/ports/adapter"
)

var _ adapter.Notifier = (*logNotifier)(nil)

// logNotifier emits billing events as structured log lines. Stands in for a
// real delivery channel (email, webhook fan-out) which lives outside this
// service.
type logNotifier struct {
	log *zerolog.Logger
}

func NewLogNotifier(logger *zerolog.Logger) *logNotifier {
	l := logger.With().Str("component", "Notifier").Logger()
	return &logNotifier{log: &l}
}

func (n *logNotifier) Notify(_ context.Context, ev adapter.Event) {
	n.log.Info().
		Str("event", string(ev.Kind)).
		Time("occurred_at", ev.OccurredAt).
		Str("subscriber_type", string(ev.SubscriberType)).
		Str("subscriber_id", ev.SubscriberID).
		Str("subscription_id", ev.SubscriptionID).
		Str("invoice_id", ev.InvoiceID).
		Str("payment_id", ev.PaymentID).
		Int64("amount", ev.Amount).
		Msg("billing event")
}
