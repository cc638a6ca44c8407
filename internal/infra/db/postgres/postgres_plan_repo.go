package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"reetrack-billing/internal/domain"
	"reetrack-billing/internal/domain/model"
	"reetrack-billing/internal/domain/ports/repository"
)

// Ensure interface compliance
var _ repository.PlanRepository = (*planRepo)(nil)

type planRepo struct{ pool *pgxpool.Pool }

func NewPlanRepo(pool *pgxpool.Pool) *planRepo {
	return &planRepo{pool: pool}
}

const planColumns = `id, org_id, name, description, price, currency, billing_interval, interval_count, features, is_active, created_at, updated_at`

func (r *planRepo) Save(ctx context.Context, tx repository.Tx, p *model.Plan) error {
	const q = `
INSERT INTO plans (id, org_id, name, description, price, currency, billing_interval, interval_count, features, is_active, created_at, updated_at)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,NOW())
ON CONFLICT (id) DO UPDATE SET
  name=$3, description=$4, price=$5, currency=$6, billing_interval=$7,
  interval_count=$8, features=$9, is_active=$10, updated_at=NOW();`

	_, err := execSQL(ctx, r.pool, tx, q,
		p.ID, p.OrgID, p.Name, p.Description, p.Price, p.Currency, p.Interval, p.IntervalCount, p.Features, p.IsActive, p.CreatedAt,
	)
	if err != nil {
		if err == domain.ErrInvalidArgument || err == domain.ErrInvalidExecContext {
			return err
		}
		return domain.ErrOperationFailed
	}
	return nil
}

func (r *planRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.Plan, error) {
	q := `SELECT ` + planColumns + ` FROM plans WHERE id=$1`
	if _, ok := tx.(pgx.Tx); ok {
		q += " FOR UPDATE"
	}
	q += ";"
	row, err := pickRow(ctx, r.pool, tx, q, id)
	if err != nil {
		return nil, err
	}
	return scanPlan(row)
}

func (r *planRepo) ListByOrg(ctx context.Context, tx repository.Tx, orgID string) ([]*model.Plan, error) {
	const q = `SELECT ` + planColumns + ` FROM plans WHERE org_id=$1 ORDER BY created_at ASC;`
	rows, err := queryRows(ctx, r.pool, tx, q, orgID)
	if err != nil {
		if err == domain.ErrInvalidArgument || err == domain.ErrInvalidExecContext {
			return nil, err
		}
		return nil, domain.ErrOperationFailed
	}
	defer rows.Close()

	var out []*model.Plan
	for rows.Next() {
		p, err := scanPlan(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, nil
}

func (r *planRepo) Delete(ctx context.Context, tx repository.Tx, id string) error {
	const q = `DELETE FROM plans WHERE id=$1;`
	ct, err := execSQL(ctx, r.pool, tx, q, id)
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

func scanPlan(row pgx.Row) (*model.Plan, error) {
	p := &model.Plan{}
	err := row.Scan(&p.ID, &p.OrgID, &p.Name, &p.Description, &p.Price, &p.Currency, &p.Interval, &p.IntervalCount, &p.Features, &p.IsActive, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, domain.ErrReadDatabaseRow
	}
	return p, nil
}
