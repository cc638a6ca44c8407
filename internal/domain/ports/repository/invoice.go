package repository

import (
	"context"

	"reetrack-billing/internal/domain/model"
)

// InvoiceRepository is the port for the invoice ledger.
type InvoiceRepository interface {
	Save(ctx context.Context, tx Tx, inv *model.Invoice) error
	FindByID(ctx context.Context, tx Tx, id string) (*model.Invoice, error)
	FindByNumber(ctx context.Context, tx Tx, number string) (*model.Invoice, error)
	ListByBilledTo(ctx context.Context, tx Tx, billedType model.SubscriberType, billedToID string, offset, limit int) ([]*model.Invoice, error)

	// FindOpenBySubscription returns the pending invoice linked to a
	// subscription, or ErrNotFound. The renewal sweep uses it to avoid
	// generating duplicate renewal invoices.
	FindOpenBySubscription(ctx context.Context, tx Tx, subscriptionID string) (*model.Invoice, error)

	// UpdateStatus moves an invoice between ledger states. Implementations
	// must not rewrite amount.
	UpdateStatus(ctx context.Context, tx Tx, id string, status model.InvoiceStatus) error
}
