package adapter

import (
	"context"
	"time"

	"reetrack-billing/internal/domain/model"
)

type EventKind string

const (
	EventInvoiceCreated      EventKind = "invoice.created"
	EventPaymentSucceeded    EventKind = "payment.succeeded"
	EventPaymentDisputed     EventKind = "payment.disputed"
	EventSubscriptionExpiring EventKind = "subscription.expiring"
	EventSubscriptionPastDue  EventKind = "subscription.pastdue"
	EventSubscriptionExpired  EventKind = "subscription.expired"
)

// Event is a fire-and-forget billing notification. Delivery is the
// notification collaborator's problem; the lifecycle core only emits.
type Event struct {
	Kind           EventKind
	OccurredAt     time.Time
	SubscriberType model.SubscriberType
	SubscriberID   string
	SubscriptionID string
	InvoiceID      string
	PaymentID      string
	Amount         int64
}

// Notifier is the hex port for outbound notifications. Implementations must
// not block the caller on delivery and must not return delivery errors into
// lifecycle flows.
type Notifier interface {
	Notify(ctx context.Context, ev Event)
}
