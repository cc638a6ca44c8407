package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"reetrack-billing/internal/domain"
	"reetrack-billing/internal/domain/model"
	"reetrack-billing/internal/domain/ports/repository"
)

var _ repository.SubscriptionRepository = (*subscriptionRepo)(nil)

type subscriptionRepo struct{ pool *pgxpool.Pool }

func NewSubscriptionRepo(pool *pgxpool.Pool) *subscriptionRepo {
	return &subscriptionRepo{pool: pool}
}

const subColumns = `id, plan_id, subscriber_type, subscriber_id, status, auto_renew, started_at, expires_at, paused_at, canceled_at, created_at, updated_at`

func (r *subscriptionRepo) Save(ctx context.Context, tx repository.Tx, s *model.Subscription) error {
	const q = `
INSERT INTO subscriptions (id, plan_id, subscriber_type, subscriber_id, status, auto_renew, started_at, expires_at, paused_at, canceled_at, created_at, updated_at)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,NOW())
ON CONFLICT (id) DO UPDATE SET
  status=$5, auto_renew=$6, expires_at=$8, paused_at=$9, canceled_at=$10, updated_at=NOW();`

	_, err := execSQL(ctx, r.pool, tx, q,
		s.ID, s.PlanID, s.SubscriberType, s.SubscriberID, s.Status, s.AutoRenew, s.StartedAt, s.ExpiresAt, s.PausedAt, s.CanceledAt, s.CreatedAt,
	)
	if err != nil {
		if err == domain.ErrInvalidArgument || err == domain.ErrInvalidExecContext {
			return err
		}
		return domain.ErrOperationFailed
	}
	return nil
}

func (r *subscriptionRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.Subscription, error) {
	q := `SELECT ` + subColumns + ` FROM subscriptions WHERE id=$1`
	if _, ok := tx.(pgx.Tx); ok {
		q += " FOR UPDATE"
	}
	q += ";"
	row, err := pickRow(ctx, r.pool, tx, q, id)
	if err != nil {
		return nil, err
	}
	return scanSubscription(row)
}

func (r *subscriptionRepo) ListBySubscriber(ctx context.Context, tx repository.Tx, subscriberType model.SubscriberType, subscriberID string) ([]*model.Subscription, error) {
	const q = `SELECT ` + subColumns + ` FROM subscriptions WHERE subscriber_type=$1 AND subscriber_id=$2 ORDER BY created_at DESC;`
	return r.list(ctx, tx, q, subscriberType, subscriberID)
}

func (r *subscriptionRepo) CountByPlan(ctx context.Context, tx repository.Tx, planID string, onlyActive bool) (int, error) {
	q := `SELECT COUNT(1) FROM subscriptions WHERE plan_id=$1`
	if onlyActive {
		q += ` AND status='active'`
	}
	q += ";"
	row, err := pickRow(ctx, r.pool, tx, q, planID)
	if err != nil {
		return 0, err
	}
	var n int
	if err := row.Scan(&n); err != nil {
		return 0, domain.ErrReadDatabaseRow
	}
	return n, nil
}

func (r *subscriptionRepo) CountActiveByPlanForOrg(ctx context.Context, tx repository.Tx, orgID string) (map[string]int, error) {
	const q = `
SELECT s.plan_id, COUNT(1)
  FROM subscriptions s
  JOIN plans p ON p.id = s.plan_id
 WHERE p.org_id = $1 AND s.status = 'active'
 GROUP BY s.plan_id;`
	rows, err := queryRows(ctx, r.pool, tx, q, orgID)
	if err != nil {
		if err == domain.ErrInvalidArgument || err == domain.ErrInvalidExecContext {
			return nil, err
		}
		return nil, domain.ErrOperationFailed
	}
	defer rows.Close()

	out := make(map[string]int)
	for rows.Next() {
		var planID string
		var n int
		if err := rows.Scan(&planID, &n); err != nil {
			return nil, domain.ErrReadDatabaseRow
		}
		out[planID] = n
	}
	return out, nil
}

func (r *subscriptionRepo) FindDueForExpiry(ctx context.Context, tx repository.Tx, asOf time.Time, limit int) ([]*model.Subscription, error) {
	if limit <= 0 {
		limit = 100
	}
	const q = `SELECT ` + subColumns + ` FROM subscriptions WHERE status IN ('active','failed') AND expires_at IS NOT NULL AND expires_at <= $1 ORDER BY expires_at ASC LIMIT $2;`
	return r.list(ctx, tx, q, asOf, limit)
}

func (r *subscriptionRepo) FindExpiring(ctx context.Context, tx repository.Tx, within time.Duration) ([]*model.Subscription, error) {
	const q = `SELECT ` + subColumns + ` FROM subscriptions WHERE status='active' AND expires_at IS NOT NULL AND expires_at > NOW() AND expires_at <= NOW() + $1 ORDER BY expires_at ASC;`
	return r.list(ctx, tx, q, within)
}

func (r *subscriptionRepo) CountByStatus(ctx context.Context, tx repository.Tx) (map[model.SubscriptionStatus]int, error) {
	const q = `SELECT status, COUNT(1) FROM subscriptions GROUP BY status;`
	rows, err := queryRows(ctx, r.pool, tx, q)
	if err != nil {
		if err == domain.ErrInvalidArgument || err == domain.ErrInvalidExecContext {
			return nil, err
		}
		return nil, domain.ErrOperationFailed
	}
	defer rows.Close()

	out := make(map[model.SubscriptionStatus]int)
	for rows.Next() {
		var status model.SubscriptionStatus
		var n int
		if err := rows.Scan(&status, &n); err != nil {
			return nil, domain.ErrReadDatabaseRow
		}
		out[status] = n
	}
	return out, nil
}

func (r *subscriptionRepo) list(ctx context.Context, tx repository.Tx, q string, args ...interface{}) ([]*model.Subscription, error) {
	rows, err := queryRows(ctx, r.pool, tx, q, args...)
	if err != nil {
		if err == domain.ErrInvalidArgument || err == domain.ErrInvalidExecContext {
			return nil, err
		}
		return nil, domain.ErrOperationFailed
	}
	defer rows.Close()

	var out []*model.Subscription
	for rows.Next() {
		s, err := scanSubscription(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, nil
}

func scanSubscription(row pgx.Row) (*model.Subscription, error) {
	s := &model.Subscription{}
	err := row.Scan(&s.ID, &s.PlanID, &s.SubscriberType, &s.SubscriberID, &s.Status, &s.AutoRenew, &s.StartedAt, &s.ExpiresAt, &s.PausedAt, &s.CanceledAt, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, domain.ErrReadDatabaseRow
	}
	return s, nil
}
