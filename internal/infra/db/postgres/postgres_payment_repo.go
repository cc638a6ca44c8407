package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgconn"
	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"reetrack-billing/internal/domain"
	"reetrack-billing/internal/domain/model"
	"reetrack-billing/internal/domain/ports/repository"
)

var _ repository.PaymentRepository = (*paymentRepo)(nil)

type paymentRepo struct{ pool *pgxpool.Pool }

func NewPaymentRepo(pool *pgxpool.Pool) *paymentRepo {
	return &paymentRepo{pool: pool}
}

const paymentColumns = `id, invoice_id, payer_type, amount, currency, provider, provider_ref, access_code, method, status, created_at, updated_at, paid_at`

func (r *paymentRepo) Save(ctx context.Context, tx repository.Tx, p *model.Payment) error {
	const q = `
INSERT INTO payments (id, invoice_id, payer_type, amount, currency, provider, provider_ref, access_code, method, status, created_at, updated_at, paid_at)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,NOW(),$12)
ON CONFLICT (id) DO UPDATE SET
  method=$9, status=$10, updated_at=NOW(), paid_at=$12;`

	_, err := execSQL(ctx, r.pool, tx, q,
		p.ID, p.InvoiceID, p.PayerType, p.Amount, p.Currency, p.Provider, p.ProviderRef, p.AccessCode, p.Method, p.Status, p.CreatedAt, p.PaidAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			// payments(provider, provider_ref) is unique
			return domain.ErrAlreadyExists
		}
		if err == domain.ErrInvalidArgument || err == domain.ErrInvalidExecContext {
			return err
		}
		return domain.ErrOperationFailed
	}
	return nil
}

func (r *paymentRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.Payment, error) {
	q := `SELECT ` + paymentColumns + ` FROM payments WHERE id=$1`
	if _, ok := tx.(pgx.Tx); ok {
		q += " FOR UPDATE"
	}
	q += ";"
	row, err := pickRow(ctx, r.pool, tx, q, id)
	if err != nil {
		return nil, err
	}
	return scanPayment(row)
}

// FindByProviderRef takes the row lock that serializes concurrent
// reconciliations for the same gateway reference.
func (r *paymentRepo) FindByProviderRef(ctx context.Context, tx repository.Tx, provider, providerRef string) (*model.Payment, error) {
	q := `SELECT ` + paymentColumns + ` FROM payments WHERE provider=$1 AND provider_ref=$2 LIMIT 1`
	if _, ok := tx.(pgx.Tx); ok {
		q += " FOR UPDATE"
	}
	q += ";"
	row, err := pickRow(ctx, r.pool, tx, q, provider, providerRef)
	if err != nil {
		return nil, err
	}
	return scanPayment(row)
}

func (r *paymentRepo) ListByInvoice(ctx context.Context, tx repository.Tx, invoiceID string) ([]*model.Payment, error) {
	const q = `SELECT ` + paymentColumns + ` FROM payments WHERE invoice_id=$1 ORDER BY created_at ASC;`
	return r.list(ctx, tx, q, invoiceID)
}

// UpdateStatusIfPending atomically updates status only when the current
// status is still 'pending'.
func (r *paymentRepo) UpdateStatusIfPending(ctx context.Context, tx repository.Tx, id string, status model.PaymentStatus, method *string, paidAt *time.Time) (bool, error) {
	const q = `
UPDATE payments
   SET status = $2,
       method = COALESCE($3, method),
       paid_at = COALESCE($4, paid_at),
       updated_at = NOW()
 WHERE id = $1
   AND status = 'pending';`

	ct, err := execSQL(ctx, r.pool, tx, q, id, string(status), method, paidAt)
	if err != nil {
		if err == domain.ErrInvalidArgument || err == domain.ErrInvalidExecContext {
			return false, err
		}
		return false, domain.ErrOperationFailed
	}
	return ct.RowsAffected() >= 1, nil
}

func (r *paymentRepo) UpdateStatus(ctx context.Context, tx repository.Tx, id string, status model.PaymentStatus) error {
	const q = `UPDATE payments SET status=$2, updated_at=NOW() WHERE id=$1;`
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

func (r *paymentRepo) ListPendingOlderThan(ctx context.Context, tx repository.Tx, olderThan time.Time, limit int) ([]*model.Payment, error) {
	if limit <= 0 {
		limit = 100
	}
	const q = `SELECT ` + paymentColumns + ` FROM payments WHERE status='pending' AND created_at < $1 ORDER BY created_at ASC LIMIT $2;`
	return r.list(ctx, tx, q, olderThan, limit)
}

func (r *paymentRepo) SumSucceededSince(ctx context.Context, tx repository.Tx, orgID string, since time.Time) (int64, error) {
	// Covers both org-billed invoices and member-billed invoices whose
	// member belongs to the organization.
	const q = `
SELECT COALESCE(SUM(p.amount), 0)
  FROM payments p
  JOIN invoices i ON i.id = p.invoice_id
  LEFT JOIN members m ON i.billed_type = 'member' AND m.id = i.billed_to_id
 WHERE p.status = 'success'
   AND p.paid_at >= $2
   AND (i.billed_to_id = $1 OR m.org_id = $1);`
	row, err := pickRow(ctx, r.pool, tx, q, orgID, since)
	if err != nil {
		return 0, err
	}
	var sum int64
	if err := row.Scan(&sum); err != nil {
		return 0, domain.ErrReadDatabaseRow
	}
	return sum, nil
}

func (r *paymentRepo) list(ctx context.Context, tx repository.Tx, q string, args ...interface{}) ([]*model.Payment, error) {
	rows, err := queryRows(ctx, r.pool, tx, q, args...)
	if err != nil {
		if err == domain.ErrInvalidArgument || err == domain.ErrInvalidExecContext {
			return nil, err
		}
		return nil, domain.ErrOperationFailed
	}
	defer rows.Close()

	var out []*model.Payment
	for rows.Next() {
		p, err := scanPayment(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, nil
}

func scanPayment(row pgx.Row) (*model.Payment, error) {
	p := &model.Payment{}
	err := row.Scan(&p.ID, &p.InvoiceID, &p.PayerType, &p.Amount, &p.Currency, &p.Provider, &p.ProviderRef, &p.AccessCode, &p.Method, &p.Status, &p.CreatedAt, &p.UpdatedAt, &p.PaidAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, domain.ErrReadDatabaseRow
	}
	return p, nil
}
