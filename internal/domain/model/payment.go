package model

import (
	"time"

	"reetrack-billing/internal/domain"
)

type PaymentStatus string

const (
	PaymentStatusPending  PaymentStatus = "pending"  // staged at provider; awaiting callback or verification
	PaymentStatusSuccess  PaymentStatus = "success"  // verified OK at provider
	PaymentStatusFailed   PaymentStatus = "failed"   // declined, abandoned, or reaped
	PaymentStatusRefunded PaymentStatus = "refunded" // refunded at provider after success
	PaymentStatusDisputed PaymentStatus = "disputed" // amount mismatch or double settlement; manual review
)

// Payment records one attempt to satisfy an invoice through an external
// gateway. A retried checkout creates a new row; rows are never rewritten
// except for status. At most one payment reaches success per invoice.
type Payment struct {
	ID          string // UUID
	InvoiceID   string // UUID
	PayerType   SubscriberType
	Amount      int64 // minor units, copied from the invoice at staging time
	Currency    string
	Provider    string  // e.g. "paystack"
	ProviderRef string  // gateway transaction reference, unique per provider
	AccessCode  string  // gateway checkout handle returned at initialization
	Method      *string // e.g. card, bank_transfer; set by the gateway callback
	Status      PaymentStatus
	CreatedAt   time.Time
	UpdatedAt   time.Time
	PaidAt      *time.Time // set when status becomes success
}

// NewPayment stages a pending payment attempt for an invoice.
func NewPayment(id string, inv *Invoice, payerType SubscriberType, provider, providerRef, accessCode string) (*Payment, error) {
	if id == "" || inv.IsZero() || provider == "" || providerRef == "" || !payerType.Valid() {
		return nil, domain.ErrInvalidArgument
	}
	now := time.Now()
	return &Payment{
		ID:          id,
		InvoiceID:   inv.ID,
		PayerType:   payerType,
		Amount:      inv.Amount,
		Currency:    inv.Currency,
		Provider:    provider,
		ProviderRef: providerRef,
		AccessCode:  accessCode,
		Status:      PaymentStatusPending,
		CreatedAt:   now,
		UpdatedAt:   now,
	}, nil
}
