// File: internal/usecase/plan_uc.go
package usecase

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v4"
	"github.com/rs/zerolog"

	"reetrack-billing/internal/domain"
	"reetrack-billing/internal/domain/model"
	"reetrack-billing/internal/domain/ports/adapter"
	"reetrack-billing/internal/domain/ports/repository"
)

// Compile-time check
var _ PlanUseCase = (*planUC)(nil)

// CreatePlanInput is the validated shape for a new plan.
type CreatePlanInput struct {
	Name          string
	Description   string
	Price         *int64 // nil = free
	Currency      string
	Interval      *model.BillingInterval
	IntervalCount int
	Features      []string
}

// PlanPatch carries partial updates. Nil fields are left unchanged. Price,
// Interval and IntervalCount count as billing fields and are rejected while
// the plan has active subscriptions; switching a paid plan to free is not a
// patch operation at all (create a new plan instead).
type PlanPatch struct {
	Name          *string
	Description   *string
	Features      []string // nil = unchanged
	Price         *int64
	Interval      *model.BillingInterval
	IntervalCount *int
}

func (p PlanPatch) touchesBilling() bool {
	return p.Price != nil || p.Interval != nil || p.IntervalCount != nil
}

type PlanUseCase interface {
	Create(ctx context.Context, orgID string, in CreatePlanInput) (*model.Plan, error)
	Update(ctx context.Context, orgID, planID string, patch PlanPatch) (*model.Plan, error)
	ToggleActive(ctx context.Context, orgID, planID string) (*model.Plan, error)
	Delete(ctx context.Context, orgID, planID string) error
	Get(ctx context.Context, orgID, planID string) (*model.Plan, error)
	List(ctx context.Context, orgID string) ([]*model.Plan, error)
}

type planUC struct {
	txm   repository.TransactionManager
	plans repository.PlanRepository
	subs  repository.SubscriptionRepository
	dir   adapter.Directory
	log   *zerolog.Logger
}

func NewPlanUseCase(txm repository.TransactionManager, plans repository.PlanRepository, subs repository.SubscriptionRepository, dir adapter.Directory, logger *zerolog.Logger) *planUC {
	l := logger.With().Str("component", "PlanUseCase").Logger()
	return &planUC{txm: txm, plans: plans, subs: subs, dir: dir, log: &l}
}

func (uc *planUC) Create(ctx context.Context, orgID string, in CreatePlanInput) (*model.Plan, error) {
	ok, err := uc.dir.OrganizationExists(ctx, orgID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, domain.ErrNotFound
	}
	plan, err := model.NewPlan(uuid.NewString(), orgID, in.Name, in.Description, in.Price, in.Currency, in.Interval, in.IntervalCount, in.Features)
	if err != nil {
		return nil, err
	}
	if err := uc.plans.Save(ctx, repository.NoTX, plan); err != nil {
		return nil, err
	}
	uc.log.Info().Str("plan_id", plan.ID).Str("org_id", orgID).Msg("plan created")
	return plan, nil
}

// Update applies a patch inside one transaction so the immutability guard
// cannot race a concurrent subscribe: the plan row is locked FOR UPDATE
// before active subscriptions are counted.
func (uc *planUC) Update(ctx context.Context, orgID, planID string, patch PlanPatch) (*model.Plan, error) {
	var out *model.Plan
	err := uc.txm.WithTx(ctx, pgx.TxOptions{}, func(ctx context.Context, tx repository.Tx) error {
		plan, err := uc.loadOrgPlan(ctx, tx, orgID, planID)
		if err != nil {
			return err
		}

		if patch.touchesBilling() {
			active, err := uc.subs.CountByPlan(ctx, tx, planID, true)
			if err != nil {
				return err
			}
			if active > 0 {
				return domain.ErrPlanImmutable
			}
			if patch.Price != nil {
				if *patch.Price <= 0 || plan.Interval == nil {
					return domain.ErrInvalidArgument
				}
				plan.Price = patch.Price
			}
			if patch.Interval != nil {
				if !patch.Interval.Valid() || plan.Price == nil {
					return domain.ErrInvalidArgument
				}
				plan.Interval = patch.Interval
			}
			if patch.IntervalCount != nil {
				if *patch.IntervalCount < 1 || plan.Interval == nil {
					return domain.ErrInvalidArgument
				}
				plan.IntervalCount = *patch.IntervalCount
			}
		}

		if patch.Name != nil {
			if *patch.Name == "" {
				return domain.ErrInvalidArgument
			}
			plan.Name = *patch.Name
		}
		if patch.Description != nil {
			plan.Description = *patch.Description
		}
		if patch.Features != nil {
			plan.Features = patch.Features
		}

		if err := uc.plans.Save(ctx, tx, plan); err != nil {
			return err
		}
		out = plan
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (uc *planUC) ToggleActive(ctx context.Context, orgID, planID string) (*model.Plan, error) {
	var out *model.Plan
	err := uc.txm.WithTx(ctx, pgx.TxOptions{}, func(ctx context.Context, tx repository.Tx) error {
		plan, err := uc.loadOrgPlan(ctx, tx, orgID, planID)
		if err != nil {
			return err
		}
		if plan.IsActive {
			active, err := uc.subs.CountByPlan(ctx, tx, planID, true)
			if err != nil {
				return err
			}
			if active > 0 {
				return domain.ErrPlanHasActiveSubscriptions
			}
		}
		plan.IsActive = !plan.IsActive
		if err := uc.plans.Save(ctx, tx, plan); err != nil {
			return err
		}
		out = plan
		return nil
	})
	if err != nil {
		return nil, err
	}
	uc.log.Info().Str("plan_id", planID).Bool("is_active", out.IsActive).Msg("plan toggled")
	return out, nil
}

// Delete hard-deletes a plan. Any subscription row, active or historical,
// blocks deletion: history must survive, deactivate instead.
func (uc *planUC) Delete(ctx context.Context, orgID, planID string) error {
	return uc.txm.WithTx(ctx, pgx.TxOptions{}, func(ctx context.Context, tx repository.Tx) error {
		if _, err := uc.loadOrgPlan(ctx, tx, orgID, planID); err != nil {
			return err
		}
		total, err := uc.subs.CountByPlan(ctx, tx, planID, false)
		if err != nil {
			return err
		}
		if total > 0 {
			return domain.ErrPlanHasSubscriptions
		}
		return uc.plans.Delete(ctx, tx, planID)
	})
}

func (uc *planUC) Get(ctx context.Context, orgID, planID string) (*model.Plan, error) {
	plan, err := uc.plans.FindByID(ctx, repository.NoTX, planID)
	if err != nil {
		return nil, err
	}
	if plan.OrgID != orgID {
		return nil, domain.ErrNotFound
	}
	return plan, nil
}

func (uc *planUC) List(ctx context.Context, orgID string) ([]*model.Plan, error) {
	return uc.plans.ListByOrg(ctx, repository.NoTX, orgID)
}

// loadOrgPlan fetches a plan inside the current tx (locking the row when a
// real tx handle is present) and scopes it to the organization.
func (uc *planUC) loadOrgPlan(ctx context.Context, tx repository.Tx, orgID, planID string) (*model.Plan, error) {
	plan, err := uc.plans.FindByID(ctx, tx, planID)
	if err != nil {
		return nil, err
	}
	if plan.OrgID != orgID {
		return nil, domain.ErrNotFound
	}
	return plan, nil
}
