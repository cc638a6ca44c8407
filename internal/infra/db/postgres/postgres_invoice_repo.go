package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgconn"
	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"reetrack-billing/internal/domain"
	"reetrack-billing/internal/domain/model"
	"reetrack-billing/internal/domain/ports/repository"
)

var _ repository.InvoiceRepository = (*invoiceRepo)(nil)

type invoiceRepo struct{ pool *pgxpool.Pool }

func NewInvoiceRepo(pool *pgxpool.Pool) *invoiceRepo {
	return &invoiceRepo{pool: pool}
}

const invoiceColumns = `id, number, billed_type, billed_to_id, subscription_id, amount, currency, status, due_date, created_at, updated_at`

func (r *invoiceRepo) Save(ctx context.Context, tx repository.Tx, inv *model.Invoice) error {
	const q = `
INSERT INTO invoices (id, number, billed_type, billed_to_id, subscription_id, amount, currency, status, due_date, created_at, updated_at)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,NOW())
ON CONFLICT (id) DO UPDATE SET
  status=$8, due_date=$9, updated_at=NOW();`

	_, err := execSQL(ctx, r.pool, tx, q,
		inv.ID, inv.Number, inv.BilledType, inv.BilledToID, inv.SubscriptionID, inv.Amount, inv.Currency, inv.Status, inv.DueDate, inv.CreatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			// invoices.number carries a unique constraint
			return domain.ErrAlreadyExists
		}
		if err == domain.ErrInvalidArgument || err == domain.ErrInvalidExecContext {
			return err
		}
		return domain.ErrOperationFailed
	}
	return nil
}

func (r *invoiceRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.Invoice, error) {
	q := `SELECT ` + invoiceColumns + ` FROM invoices WHERE id=$1`
	if _, ok := tx.(pgx.Tx); ok {
		q += " FOR UPDATE"
	}
	q += ";"
	row, err := pickRow(ctx, r.pool, tx, q, id)
	if err != nil {
		return nil, err
	}
	return scanInvoice(row)
}

func (r *invoiceRepo) FindByNumber(ctx context.Context, tx repository.Tx, number string) (*model.Invoice, error) {
	const q = `SELECT ` + invoiceColumns + ` FROM invoices WHERE number=$1;`
	row, err := pickRow(ctx, r.pool, tx, q, number)
	if err != nil {
		return nil, err
	}
	return scanInvoice(row)
}

func (r *invoiceRepo) ListByBilledTo(ctx context.Context, tx repository.Tx, billedType model.SubscriberType, billedToID string, offset, limit int) ([]*model.Invoice, error) {
	if limit <= 0 {
		limit = 50
	}
	const q = `SELECT ` + invoiceColumns + ` FROM invoices WHERE billed_type=$1 AND billed_to_id=$2 ORDER BY created_at DESC OFFSET $3 LIMIT $4;`
	rows, err := queryRows(ctx, r.pool, tx, q, billedType, billedToID, offset, limit)
	if err != nil {
		if err == domain.ErrInvalidArgument || err == domain.ErrInvalidExecContext {
			return nil, err
		}
		return nil, domain.ErrOperationFailed
	}
	defer rows.Close()

	var out []*model.Invoice
	for rows.Next() {
		inv, err := scanInvoice(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, inv)
	}
	return out, nil
}

func (r *invoiceRepo) FindOpenBySubscription(ctx context.Context, tx repository.Tx, subscriptionID string) (*model.Invoice, error) {
	q := `SELECT ` + invoiceColumns + ` FROM invoices WHERE subscription_id=$1 AND status='pending' ORDER BY created_at DESC LIMIT 1`
	if _, ok := tx.(pgx.Tx); ok {
		q += " FOR UPDATE"
	}
	q += ";"
	row, err := pickRow(ctx, r.pool, tx, q, subscriptionID)
	if err != nil {
		return nil, err
	}
	return scanInvoice(row)
}

func (r *invoiceRepo) UpdateStatus(ctx context.Context, tx repository.Tx, id string, status model.InvoiceStatus) error {
	const q = `UPDATE invoices SET status=$2, updated_at=NOW() WHERE id=$1;`
	ct, err := execSQL(ctx, r.pool, tx, q, id, status)
	if err != nil {
		if err == domain.ErrInvalidArgument || err == domain.ErrInvalidExecContext {
			return err
		}
		return domain.ErrOperationFailed
	}
	if ct.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func scanInvoice(row pgx.Row) (*model.Invoice, error) {
	inv := &model.Invoice{}
	err := row.Scan(&inv.ID, &inv.Number, &inv.BilledType, &inv.BilledToID, &inv.SubscriptionID, &inv.Amount, &inv.Currency, &inv.Status, &inv.DueDate, &inv.CreatedAt, &inv.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, domain.ErrReadDatabaseRow
	}
	return inv, nil
}
