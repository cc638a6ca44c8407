package model

import (
	"time"

	"reetrack-billing/internal/domain"
)

type BillingInterval string

const (
	IntervalWeekly    BillingInterval = "weekly"
	IntervalBiweekly  BillingInterval = "biweekly"
	IntervalMonthly   BillingInterval = "monthly"
	IntervalQuarterly BillingInterval = "quarterly"
	IntervalYearly    BillingInterval = "yearly"
)

func (i BillingInterval) Valid() bool {
	switch i {
	case IntervalWeekly, IntervalBiweekly, IntervalMonthly, IntervalQuarterly, IntervalYearly:
		return true
	}
	return false
}

// Add advances t by count billing periods. Month-based intervals use
// calendar math (Jan 31 + 1 month normalizes per time.AddDate).
func (i BillingInterval) Add(t time.Time, count int) time.Time {
	if count < 1 {
		count = 1
	}
	switch i {
	case IntervalWeekly:
		return t.AddDate(0, 0, 7*count)
	case IntervalBiweekly:
		return t.AddDate(0, 0, 14*count)
	case IntervalMonthly:
		return t.AddDate(0, count, 0)
	case IntervalQuarterly:
		return t.AddDate(0, 3*count, 0)
	case IntervalYearly:
		return t.AddDate(count, 0, 0)
	}
	return t
}

// Plan is a billable offering scoped to an organization. Price is in minor
// units; a nil Price means the plan is free and non-recurring, in which case
// Interval is nil as well (the two are always set or unset together).
type Plan struct {
	ID            string // UUID
	OrgID         string // UUID of owning organization
	Name          string
	Description   string
	Price         *int64
	Currency      string
	Interval      *BillingInterval
	IntervalCount int
	Features      []string
	IsActive      bool
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// NewPlan validates and constructs a plan. New plans start active.
func NewPlan(id, orgID, name, description string, price *int64, currency string, interval *BillingInterval, intervalCount int, features []string) (*Plan, error) {
	if id == "" || orgID == "" || name == "" {
		return nil, domain.ErrInvalidArgument
	}
	// price and interval are co-present: both nil (free) or both set.
	if (price == nil) != (interval == nil) {
		return nil, domain.ErrInvalidArgument
	}
	if price != nil {
		if *price <= 0 || currency == "" || !interval.Valid() || intervalCount < 1 {
			return nil, domain.ErrInvalidArgument
		}
	} else {
		intervalCount = 0
	}
	now := time.Now()
	return &Plan{
		ID:            id,
		OrgID:         orgID,
		Name:          name,
		Description:   description,
		Price:         price,
		Currency:      currency,
		Interval:      interval,
		IntervalCount: intervalCount,
		Features:      features,
		IsActive:      true,
		CreatedAt:     now,
		UpdatedAt:     now,
	}, nil
}

func (p *Plan) IsZero() bool { return p == nil || p.ID == "" }

func (p *Plan) IsFree() bool { return p.Price == nil }

// PeriodEnd returns the end of one billing period starting at from, or nil
// for free (non-recurring) plans.
func (p *Plan) PeriodEnd(from time.Time) *time.Time {
	if p.Interval == nil {
		return nil
	}
	end := p.Interval.Add(from, p.IntervalCount)
	return &end
}
