package repository

import (
	"context"

	"reetrack-billing/internal/domain/model"
)

// PlanRepository is the port for plan persistence.
type PlanRepository interface {
	Save(ctx context.Context, tx Tx, plan *model.Plan) error
	FindByID(ctx context.Context, tx Tx, id string) (*model.Plan, error)
	ListByOrg(ctx context.Context, tx Tx, orgID string) ([]*model.Plan, error)
	Delete(ctx context.Context, tx Tx, id string) error
}
