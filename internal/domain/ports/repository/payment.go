package repository

import (
	"context"
	"time"

	"reetrack-billing/internal/domain/model"
)

// PaymentRepository is the port for payment attempts.
type PaymentRepository interface {
	Save(ctx context.Context, tx Tx, p *model.Payment) error
	FindByID(ctx context.Context, tx Tx, id string) (*model.Payment, error)
	FindByProviderRef(ctx context.Context, tx Tx, provider, providerRef string) (*model.Payment, error)
	ListByInvoice(ctx context.Context, tx Tx, invoiceID string) ([]*model.Payment, error)

	// UpdateStatusIfPending atomically updates status only when the current
	// status is still pending, reporting whether a row was changed. The
	// reconciliation idempotency guarantee rests on this guard.
	UpdateStatusIfPending(ctx context.Context, tx Tx, id string, status model.PaymentStatus, method *string, paidAt *time.Time) (bool, error)

	// UpdateStatus updates status unconditionally (refund path, after the
	// use case has validated the current state under a row lock).
	UpdateStatus(ctx context.Context, tx Tx, id string, status model.PaymentStatus) error

	// ListPendingOlderThan returns stale pending payments for the reaper.
	ListPendingOlderThan(ctx context.Context, tx Tx, olderThan time.Time, limit int) ([]*model.Payment, error)

	// SumSucceededSince sums succeeded payment amounts for invoices billed
	// within one organization, for payments settled at or after since.
	SumSucceededSince(ctx context.Context, tx Tx, orgID string, since time.Time) (int64, error)
}
