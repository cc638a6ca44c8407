package model

import (
	"time"

	"reetrack-billing/internal/domain"
)

// SubscriberType identifies who is enrolled or billed: an individual member
// or a whole organization.
type SubscriberType string

const (
	SubscriberMember       SubscriberType = "member"
	SubscriberOrganization SubscriberType = "organization"
)

func (t SubscriberType) Valid() bool {
	return t == SubscriberMember || t == SubscriberOrganization
}

type SubscriptionStatus string

const (
	SubscriptionStatusPending  SubscriptionStatus = "pending"
	SubscriptionStatusActive   SubscriptionStatus = "active"
	SubscriptionStatusPaused   SubscriptionStatus = "paused"
	SubscriptionStatusCanceled SubscriptionStatus = "canceled"
	SubscriptionStatusExpired  SubscriptionStatus = "expired"
	SubscriptionStatusFailed   SubscriptionStatus = "failed"
)

// subscriptionTransitions is the lifecycle state machine. canceled and
// expired are terminal; failed only moves on to expired.
var subscriptionTransitions = map[SubscriptionStatus][]SubscriptionStatus{
	SubscriptionStatusPending: {SubscriptionStatusActive, SubscriptionStatusCanceled, SubscriptionStatusExpired},
	SubscriptionStatusActive:  {SubscriptionStatusPaused, SubscriptionStatusCanceled, SubscriptionStatusExpired, SubscriptionStatusFailed},
	SubscriptionStatusPaused:  {SubscriptionStatusActive, SubscriptionStatusCanceled},
	SubscriptionStatusFailed:  {SubscriptionStatusActive, SubscriptionStatusExpired},
}

func (s SubscriptionStatus) CanTransition(to SubscriptionStatus) bool {
	for _, t := range subscriptionTransitions[s] {
		if t == to {
			return true
		}
	}
	return false
}

func (s SubscriptionStatus) Terminal() bool {
	return s == SubscriptionStatusCanceled || s == SubscriptionStatusExpired
}

// Subscription is a subscriber's enrollment in a plan. Rows are never
// physically deleted; the lifecycle is soft (status only).
type Subscription struct {
	ID             string // UUID
	PlanID         string // UUID
	SubscriberType SubscriberType
	SubscriberID   string // UUID of member or organization
	Status         SubscriptionStatus
	AutoRenew      bool
	StartedAt      time.Time
	ExpiresAt      *time.Time // nil for free, non-recurring plans
	PausedAt       *time.Time
	CanceledAt     *time.Time
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// NewSubscription enrolls a subscriber in a plan. Priced plans start pending
// (awaiting first payment); free plans go straight to active with no expiry.
func NewSubscription(id string, plan *Plan, subscriberType SubscriberType, subscriberID string, autoRenew bool) (*Subscription, error) {
	if id == "" || plan.IsZero() || subscriberID == "" || !subscriberType.Valid() {
		return nil, domain.ErrInvalidArgument
	}
	now := time.Now()
	status := SubscriptionStatusPending
	if plan.IsFree() {
		status = SubscriptionStatusActive
		autoRenew = false
	}
	return &Subscription{
		ID:             id,
		PlanID:         plan.ID,
		SubscriberType: subscriberType,
		SubscriberID:   subscriberID,
		Status:         status,
		AutoRenew:      autoRenew,
		StartedAt:      now,
		ExpiresAt:      plan.PeriodEnd(now),
		CreatedAt:      now,
		UpdatedAt:      now,
	}, nil
}

// TransitionTo applies a lifecycle transition, or ErrInvalidTransition.
func (s *Subscription) TransitionTo(to SubscriptionStatus) error {
	if !s.Status.CanTransition(to) {
		return domain.ErrInvalidTransition
	}
	now := time.Now()
	switch to {
	case SubscriptionStatusPaused:
		s.PausedAt = &now
	case SubscriptionStatusCanceled:
		s.CanceledAt = &now
	}
	s.Status = to
	s.UpdatedAt = now
	return nil
}

// PastExpiry reports whether the subscription period ended at or before now.
func (s *Subscription) PastExpiry(now time.Time) bool {
	return s.ExpiresAt != nil && !now.Before(*s.ExpiresAt)
}
