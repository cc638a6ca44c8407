package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"reetrack-billing/internal/domain"
	"reetrack-billing/internal/domain/model"
	"reetrack-billing/internal/domain/ports/adapter"
)

var _ adapter.Directory = (*directory)(nil)

// directory resolves subscribers against the members and organizations
// tables owned by the identity service but readable from this schema.
type directory struct{ pool *pgxpool.Pool }

func NewDirectory(pool *pgxpool.Pool) *directory {
	return &directory{pool: pool}
}

// Resolve looks the id up as a member first, then as an organization.
func (d *directory) Resolve(ctx context.Context, subscriberID string) (adapter.Subscriber, error) {
	const memberQ = `SELECT id, org_id, email FROM members WHERE id=$1;`
	s := adapter.Subscriber{Kind: model.SubscriberMember}
	err := d.pool.QueryRow(ctx, memberQ, subscriberID).Scan(&s.ID, &s.OrgID, &s.BillingEmail)
	if err == nil {
		return s, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return adapter.Subscriber{}, domain.ErrReadDatabaseRow
	}

	const orgQ = `SELECT id, billing_email FROM organizations WHERE id=$1;`
	s = adapter.Subscriber{Kind: model.SubscriberOrganization}
	err = d.pool.QueryRow(ctx, orgQ, subscriberID).Scan(&s.ID, &s.BillingEmail)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return adapter.Subscriber{}, domain.ErrNotFound
		}
		return adapter.Subscriber{}, domain.ErrReadDatabaseRow
	}
	s.OrgID = s.ID
	return s, nil
}

func (d *directory) CountMembers(ctx context.Context, orgID string) (int, error) {
	const q = `SELECT COUNT(1) FROM members WHERE org_id=$1;`
	var n int
	if err := d.pool.QueryRow(ctx, q, orgID).Scan(&n); err != nil {
		return 0, domain.ErrReadDatabaseRow
	}
	return n, nil
}

func (d *directory) OrganizationExists(ctx context.Context, orgID string) (bool, error) {
	const q = `SELECT EXISTS(SELECT 1 FROM organizations WHERE id=$1);`
	var ok bool
	if err := d.pool.QueryRow(ctx, q, orgID).Scan(&ok); err != nil {
		return false, domain.ErrReadDatabaseRow
	}
	return ok, nil
}
