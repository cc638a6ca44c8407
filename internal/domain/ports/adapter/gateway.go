package adapter

import (
	"context"
	"time"
)

// InitializeResult is the checkout handle issued by a provider when a
// payment attempt is staged.
type InitializeResult struct {
	Reference        string // provider transaction reference
	AccessCode       string // provider checkout token
	AuthorizationURL string // where the payer completes the checkout
}

// VerifyResult is a provider's answer to a status query for one reference.
type VerifyResult struct {
	Status   string // provider status, e.g. success / failed / abandoned
	Amount   int64  // minor units, as settled at the provider
	Currency string
	Channel  string // e.g. card, bank_transfer
	PaidAt   time.Time
}

// RefundResult captures a minimal, provider-agnostic refund outcome.
type RefundResult struct {
	ID     string // provider refund id
	Status string // provider refund status, e.g. pending / processed
	Amount int64
}

// PaymentGateway is the hex port for payment providers. Implementations must
// enforce their own request timeouts; callers never hold a database
// transaction open across these calls.
type PaymentGateway interface {
	Name() string

	// Initialize stages a payment intent for amount in minor units and
	// returns the provider's checkout handle.
	Initialize(ctx context.Context, amount int64, currency, email string, metadata map[string]string) (InitializeResult, error)

	// Verify queries the provider for the outcome of a reference.
	Verify(ctx context.Context, reference string) (VerifyResult, error)

	// Refund issues a refund for a settled transaction.
	Refund(ctx context.Context, reference string, amount int64) (RefundResult, error)
}
