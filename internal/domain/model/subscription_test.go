package model

import (
	"errors"
	"testing"
	"time"

	"reetrack-billing/internal/domain"
)

func TestNewSubscription_PricedStartsPending(t *testing.T) {
	t.Parallel()
	plan, err := NewPlan("p1", "org-1", "pro", "", int64p(1000), "NGN", intervalp(IntervalMonthly), 1, nil)
	if err != nil {
		t.Fatalf("NewPlan: %v", err)
	}

	sub, err := NewSubscription("s1", plan, SubscriberMember, "mem-1", true)
	if err != nil {
		t.Fatalf("NewSubscription: %v", err)
	}
	if sub.Status != SubscriptionStatusPending {
		t.Fatalf("priced plan must start pending, got %s", sub.Status)
	}
	if !sub.AutoRenew {
		t.Fatalf("autoRenew lost")
	}
	if sub.ExpiresAt == nil || !sub.ExpiresAt.Equal(sub.StartedAt.AddDate(0, 1, 0)) {
		t.Fatalf("unexpected expiry: %v", sub.ExpiresAt)
	}
}

func TestNewSubscription_FreeStartsActive(t *testing.T) {
	t.Parallel()
	plan, err := NewPlan("p1", "org-1", "free", "", nil, "", nil, 0, nil)
	if err != nil {
		t.Fatalf("NewPlan: %v", err)
	}

	sub, err := NewSubscription("s1", plan, SubscriberOrganization, "org-2", true)
	if err != nil {
		t.Fatalf("NewSubscription: %v", err)
	}
	if sub.Status != SubscriptionStatusActive {
		t.Fatalf("free plan must start active, got %s", sub.Status)
	}
	if sub.AutoRenew {
		t.Fatalf("free plans never auto-renew")
	}
	if sub.ExpiresAt != nil {
		t.Fatalf("free plans never expire, got %v", sub.ExpiresAt)
	}
}

func TestNewSubscription_Validation(t *testing.T) {
	t.Parallel()
	plan, _ := NewPlan("p1", "org-1", "free", "", nil, "", nil, 0, nil)

	if _, err := NewSubscription("", plan, SubscriberMember, "mem-1", false); !errors.Is(err, domain.ErrInvalidArgument) {
		t.Fatalf("expected ErrInvalidArgument for empty id, got %v", err)
	}
	if _, err := NewSubscription("s1", &Plan{}, SubscriberMember, "mem-1", false); !errors.Is(err, domain.ErrInvalidArgument) {
		t.Fatalf("expected ErrInvalidArgument for zero plan, got %v", err)
	}
	if _, err := NewSubscription("s1", plan, "robot", "mem-1", false); !errors.Is(err, domain.ErrInvalidArgument) {
		t.Fatalf("expected ErrInvalidArgument for bad subscriber type, got %v", err)
	}
}

func TestSubscriptionStatus_TransitionMatrix(t *testing.T) {
	t.Parallel()
	all := []SubscriptionStatus{
		SubscriptionStatusPending,
		SubscriptionStatusActive,
		SubscriptionStatusPaused,
		SubscriptionStatusCanceled,
		SubscriptionStatusExpired,
		SubscriptionStatusFailed,
	}
	allowed := map[SubscriptionStatus]map[SubscriptionStatus]bool{
		SubscriptionStatusPending: {SubscriptionStatusActive: true, SubscriptionStatusCanceled: true, SubscriptionStatusExpired: true},
		SubscriptionStatusActive:  {SubscriptionStatusPaused: true, SubscriptionStatusCanceled: true, SubscriptionStatusExpired: true, SubscriptionStatusFailed: true},
		SubscriptionStatusPaused:  {SubscriptionStatusActive: true, SubscriptionStatusCanceled: true},
		SubscriptionStatusFailed:  {SubscriptionStatusActive: true, SubscriptionStatusExpired: true},
	}

	for _, from := range all {
		for _, to := range all {
			want := allowed[from][to]
			if got := from.CanTransition(to); got != want {
				t.Fatalf("%s -> %s: got %v want %v", from, to, got, want)
			}
		}
	}

	// canceled and expired are the terminal states.
	for _, s := range all {
		want := s == SubscriptionStatusCanceled || s == SubscriptionStatusExpired
		if s.Terminal() != want {
			t.Fatalf("%s.Terminal() = %v", s, s.Terminal())
		}
	}
}

func TestSubscription_TransitionToStampsTimes(t *testing.T) {
	t.Parallel()
	sub := &Subscription{ID: "s1", Status: SubscriptionStatusActive}

	if err := sub.TransitionTo(SubscriptionStatusPaused); err != nil {
		t.Fatalf("pause: %v", err)
	}
	if sub.PausedAt == nil {
		t.Fatalf("PausedAt not stamped")
	}
	if err := sub.TransitionTo(SubscriptionStatusCanceled); err != nil {
		t.Fatalf("cancel: %v", err)
	}
	if sub.CanceledAt == nil {
		t.Fatalf("CanceledAt not stamped")
	}
	if err := sub.TransitionTo(SubscriptionStatusActive); !errors.Is(err, domain.ErrInvalidTransition) {
		t.Fatalf("canceled is terminal, got %v", err)
	}
}

func TestSubscription_PastExpiry(t *testing.T) {
	t.Parallel()
	now := time.Now()

	sub := &Subscription{Status: SubscriptionStatusActive}
	if sub.PastExpiry(now) {
		t.Fatalf("nil expiry never lapses")
	}

	past := now.Add(-time.Minute)
	sub.ExpiresAt = &past
	if !sub.PastExpiry(now) {
		t.Fatalf("expected past expiry")
	}

	// The boundary instant counts as expired.
	sub.ExpiresAt = &now
	if !sub.PastExpiry(now) {
		t.Fatalf("expiry at exactly now must count")
	}

	future := now.Add(time.Minute)
	sub.ExpiresAt = &future
	if sub.PastExpiry(now) {
		t.Fatalf("future expiry must not count")
	}
}
