package usecase

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"

	"reetrack-billing/internal/domain"
	"reetrack-billing/internal/domain/model"
)

func newPlanFixture(t *testing.T) (*planUC, *memPlanRepo, *memSubRepo, *memDirectory) {
	t.Helper()
	plans := newMemPlanRepo()
	subs := newMemSubRepo()
	dir := newMemDirectory()
	dir.addOrg("org-1")
	uc := NewPlanUseCase(&memTxManager{}, plans, subs, dir, testLogger())
	return uc, plans, subs, dir
}

func pricedInput(name string) CreatePlanInput {
	price := int64(500000)
	iv := model.IntervalMonthly
	return CreatePlanInput{
		Name:          name,
		Price:         &price,
		Currency:      "NGN",
		Interval:      &iv,
		IntervalCount: 1,
		Features:      []string{"analytics"},
	}
}

func TestPlanUseCase_CreateAndGet(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	uc, _, _, _ := newPlanFixture(t)

	plan, err := uc.Create(ctx, "org-1", pricedInput("pro"))
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}
	if plan.ID == "" {
		t.Fatalf("expected plan.ID to be set after Create")
	}
	if !plan.IsActive {
		t.Fatalf("new plans must start active")
	}

	got, err := uc.Get(ctx, "org-1", plan.ID)
	if err != nil {
		t.Fatalf("Get returned error: %v", err)
	}
	if got.Name != "pro" || *got.Price != 500000 {
		t.Fatalf("unexpected plan: %+v", got)
	}

	// cross-org access behaves as not found
	if _, err := uc.Get(ctx, "org-2", plan.ID); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for wrong org, got %v", err)
	}
}

func TestPlanUseCase_CreateUnknownOrg(t *testing.T) {
	t.Parallel()
	uc, _, _, _ := newPlanFixture(t)
	if _, err := uc.Create(context.Background(), "org-missing", pricedInput("p")); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestPlanUseCase_CreateFreePlan(t *testing.T) {
	t.Parallel()
	uc, _, _, _ := newPlanFixture(t)

	plan, err := uc.Create(context.Background(), "org-1", CreatePlanInput{Name: "free"})
	if err != nil {
		t.Fatalf("Create free plan: %v", err)
	}
	if !plan.IsFree() || plan.Interval != nil {
		t.Fatalf("free plan must have nil price and interval: %+v", plan)
	}
}

func TestPlanUseCase_CreateRejectsPriceWithoutInterval(t *testing.T) {
	t.Parallel()
	uc, _, _, _ := newPlanFixture(t)

	price := int64(1000)
	_, err := uc.Create(context.Background(), "org-1", CreatePlanInput{Name: "bad", Price: &price, Currency: "NGN"})
	if !errors.Is(err, domain.ErrInvalidArgument) {
		t.Fatalf("expected ErrInvalidArgument, got %v", err)
	}
}

func addSub(t *testing.T, subs *memSubRepo, planID string, status model.SubscriptionStatus) *model.Subscription {
	t.Helper()
	s := &model.Subscription{
		ID:             uuid.NewString(),
		PlanID:         planID,
		SubscriberType: model.SubscriberMember,
		SubscriberID:   uuid.NewString(),
		Status:         status,
	}
	if err := subs.Save(context.Background(), nil, s); err != nil {
		t.Fatalf("seed subscription: %v", err)
	}
	return s
}

func TestPlanUseCase_UpdateBillingFieldsBlockedByActiveSubscriptions(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	uc, _, subs, _ := newPlanFixture(t)

	plan, err := uc.Create(ctx, "org-1", pricedInput("pro"))
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	addSub(t, subs, plan.ID, model.SubscriptionStatusActive)

	newPrice := int64(750000)
	_, err = uc.Update(ctx, "org-1", plan.ID, PlanPatch{Price: &newPrice})
	if !errors.Is(err, domain.ErrPlanImmutable) {
		t.Fatalf("expected ErrPlanImmutable, got %v", err)
	}

	// Non-billing fields still update fine.
	name := "pro-v2"
	updated, err := uc.Update(ctx, "org-1", plan.ID, PlanPatch{Name: &name})
	if err != nil {
		t.Fatalf("name-only update: %v", err)
	}
	if updated.Name != "pro-v2" || *updated.Price != 500000 {
		t.Fatalf("unexpected plan after patch: %+v", updated)
	}
}

func TestPlanUseCase_UpdateBillingFieldsWithOnlyInactiveSubscriptions(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	uc, _, subs, _ := newPlanFixture(t)

	plan, err := uc.Create(ctx, "org-1", pricedInput("pro"))
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	addSub(t, subs, plan.ID, model.SubscriptionStatusCanceled)
	addSub(t, subs, plan.ID, model.SubscriptionStatusExpired)

	newPrice := int64(750000)
	updated, err := uc.Update(ctx, "org-1", plan.ID, PlanPatch{Price: &newPrice})
	if err != nil {
		t.Fatalf("expected billing update to pass with no active subs, got %v", err)
	}
	if *updated.Price != 750000 {
		t.Fatalf("price not applied: %+v", updated)
	}
}

func TestPlanUseCase_ToggleActiveGuard(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	uc, _, subs, _ := newPlanFixture(t)

	plan, err := uc.Create(ctx, "org-1", pricedInput("pro"))
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	sub := addSub(t, subs, plan.ID, model.SubscriptionStatusActive)

	if _, err := uc.ToggleActive(ctx, "org-1", plan.ID); !errors.Is(err, domain.ErrPlanHasActiveSubscriptions) {
		t.Fatalf("expected ErrPlanHasActiveSubscriptions, got %v", err)
	}

	sub.Status = model.SubscriptionStatusCanceled
	if err := subs.Save(ctx, nil, sub); err != nil {
		t.Fatalf("save: %v", err)
	}
	toggled, err := uc.ToggleActive(ctx, "org-1", plan.ID)
	if err != nil {
		t.Fatalf("toggle: %v", err)
	}
	if toggled.IsActive {
		t.Fatalf("expected plan deactivated")
	}

	// Reactivation never needs a guard.
	toggled, err = uc.ToggleActive(ctx, "org-1", plan.ID)
	if err != nil {
		t.Fatalf("toggle back: %v", err)
	}
	if !toggled.IsActive {
		t.Fatalf("expected plan reactivated")
	}
}

func TestPlanUseCase_DeleteBlockedByAnySubscription(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	uc, plans, subs, _ := newPlanFixture(t)

	plan, err := uc.Create(ctx, "org-1", pricedInput("pro"))
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	// A canceled (historical) subscription still blocks deletion.
	addSub(t, subs, plan.ID, model.SubscriptionStatusCanceled)

	if err := uc.Delete(ctx, "org-1", plan.ID); !errors.Is(err, domain.ErrPlanHasSubscriptions) {
		t.Fatalf("expected ErrPlanHasSubscriptions, got %v", err)
	}

	empty, err := uc.Create(ctx, "org-1", pricedInput("empty"))
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := uc.Delete(ctx, "org-1", empty.ID); err != nil {
		t.Fatalf("delete empty plan: %v", err)
	}
	if _, err := plans.FindByID(ctx, nil, empty.ID); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("plan should be gone, got %v", err)
	}
}
