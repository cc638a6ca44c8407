// File: internal/usecase/stats_uc.go
package usecase

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"reetrack-billing/internal/domain/ports/adapter"
	"reetrack-billing/internal/domain/ports/repository"
)

// Compile-time check
var _ StatsUseCase = (*statsUC)(nil)

// PlanStat is one plan's slice of the dashboard numbers. Revenue is a proxy:
// active subscriptions times the current plan price, not settled cash.
type PlanStat struct {
	PlanID              string `json:"plan_id"`
	Name                string `json:"name"`
	Price               *int64 `json:"price"`
	ActiveSubscriptions int    `json:"active_subscriptions"`
	Revenue             int64  `json:"revenue"`
}

type OrgStats struct {
	Plans            []PlanStat `json:"plans"`
	TotalActive      int        `json:"total_active"`
	TotalMembers     int        `json:"total_members"`
	SubscriptionRate float64    `json:"subscription_rate"` // percent; 0 when the org has no members
}

type StatsUseCase interface {
	PlanStats(ctx context.Context, orgID string) (*OrgStats, error)
	// Revenue returns gross succeeded payment volume for the trailing
	// week, month and year.
	Revenue(ctx context.Context, orgID string) (week, month, year int64, err error)
}

type statsUC struct {
	plans    repository.PlanRepository
	subs     repository.SubscriptionRepository
	payments repository.PaymentRepository
	dir      adapter.Directory

	log *zerolog.Logger
}

func NewStatsUseCase(plans repository.PlanRepository, subs repository.SubscriptionRepository, payments repository.PaymentRepository, dir adapter.Directory, logger *zerolog.Logger) *statsUC {
	return &statsUC{plans: plans, subs: subs, payments: payments, dir: dir, log: logger}
}

func (s *statsUC) PlanStats(ctx context.Context, orgID string) (*OrgStats, error) {
	plans, err := s.plans.ListByOrg(ctx, repository.NoTX, orgID)
	if err != nil {
		return nil, err
	}
	activeByPlan, err := s.subs.CountActiveByPlanForOrg(ctx, repository.NoTX, orgID)
	if err != nil {
		return nil, err
	}
	members, err := s.dir.CountMembers(ctx, orgID)
	if err != nil {
		return nil, err
	}

	out := &OrgStats{Plans: make([]PlanStat, 0, len(plans)), TotalMembers: members}
	for _, p := range plans {
		n := activeByPlan[p.ID]
		st := PlanStat{PlanID: p.ID, Name: p.Name, Price: p.Price, ActiveSubscriptions: n}
		if p.Price != nil {
			st.Revenue = *p.Price * int64(n)
		}
		out.Plans = append(out.Plans, st)
		out.TotalActive += n
	}
	// Rate is defined as 0 for an empty org, not a division error.
	if members > 0 {
		out.SubscriptionRate = float64(out.TotalActive) / float64(members) * 100
	}
	return out, nil
}

func (s *statsUC) Revenue(ctx context.Context, orgID string) (int64, int64, int64, error) {
	now := time.Now()
	w, err := s.payments.SumSucceededSince(ctx, repository.NoTX, orgID, now.AddDate(0, 0, -7))
	if err != nil {
		return 0, 0, 0, err
	}
	m, err := s.payments.SumSucceededSince(ctx, repository.NoTX, orgID, now.AddDate(0, -1, 0))
	if err != nil {
		return 0, 0, 0, err
	}
	y, err := s.payments.SumSucceededSince(ctx, repository.NoTX, orgID, now.AddDate(-1, 0, 0))
	if err != nil {
		return 0, 0, 0, err
	}
	return w, m, y, nil
}
