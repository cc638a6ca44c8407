package model

import (
	"time"

	"github.com/oklog/ulid/v2"

	"reetrack-billing/internal/domain"
)

type InvoiceStatus string

const (
	InvoiceStatusPending   InvoiceStatus = "pending"
	InvoiceStatusPaid      InvoiceStatus = "paid"
	InvoiceStatusCancelled InvoiceStatus = "cancelled"
	InvoiceStatusFailed    InvoiceStatus = "failed"
	InvoiceStatusRefunded  InvoiceStatus = "refunded"
)

// CanTransition enforces the invoice ledger rules: pending may settle, be
// cancelled or fail; only a paid invoice may be refunded.
func (s InvoiceStatus) CanTransition(to InvoiceStatus) bool {
	switch s {
	case InvoiceStatusPending:
		return to == InvoiceStatusPaid || to == InvoiceStatusCancelled || to == InvoiceStatusFailed
	case InvoiceStatusPaid:
		return to == InvoiceStatusRefunded
	}
	return false
}

// Invoice is a billing record for an amount owed, independent of payment
// attempts. Amount is immutable once the invoice is paid.
type Invoice struct {
	ID             string // UUID
	Number         string // human-readable, globally unique
	BilledType     SubscriberType
	BilledToID     string  // UUID of member or organization
	SubscriptionID *string // nil for ad hoc invoices
	Amount         int64   // minor units
	Currency       string
	Status         InvoiceStatus
	DueDate        time.Time
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// NewInvoiceNumber generates a human-readable, lexicographically sortable
// invoice number.
func NewInvoiceNumber() string {
	return "INV-" + ulid.Make().String()
}

// NewInvoice creates a pending invoice due after the given grace period.
func NewInvoice(id string, billedType SubscriberType, billedToID string, subscriptionID *string, amount int64, currency string, due time.Time) (*Invoice, error) {
	if id == "" || billedToID == "" || !billedType.Valid() || amount <= 0 || currency == "" {
		return nil, domain.ErrInvalidArgument
	}
	now := time.Now()
	return &Invoice{
		ID:             id,
		Number:         NewInvoiceNumber(),
		BilledType:     billedType,
		BilledToID:     billedToID,
		SubscriptionID: subscriptionID,
		Amount:         amount,
		Currency:       currency,
		Status:         InvoiceStatusPending,
		DueDate:        due,
		CreatedAt:      now,
		UpdatedAt:      now,
	}, nil
}

func (i *Invoice) IsZero() bool { return i == nil || i.ID == "" }
