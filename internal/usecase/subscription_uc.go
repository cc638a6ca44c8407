// File: internal/usecase/subscription_uc.go
package usecase

import (
	"context"
	"hash/fnv"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v4"
	"github.com/rs/zerolog"

	"reetrack-billing/internal/config"
	"reetrack-billing/internal/domain"
	"reetrack-billing/internal/domain/model"
	"reetrack-billing/internal/domain/ports/adapter"
	"reetrack-billing/internal/domain/ports/repository"
)

// Compile-time check
var _ SubscriptionUseCase = (*subscriptionUC)(nil)

// SubscribeResult bundles the subscription with the invoice created for it.
// Invoice is nil for free plans.
type SubscribeResult struct {
	Subscription *model.Subscription
	Invoice      *model.Invoice
}

type SubscriptionUseCase interface {
	// Subscribe enrolls a subscriber in a plan. Priced plans produce a
	// pending subscription plus a pending invoice; free plans activate
	// immediately with no invoice.
	Subscribe(ctx context.Context, subscriberType model.SubscriberType, subscriberID, planID string, autoRenew bool) (*SubscribeResult, error)
	Pause(ctx context.Context, subscriptionID string) (*model.Subscription, error)
	Resume(ctx context.Context, subscriptionID string) (*model.Subscription, error)
	Cancel(ctx context.Context, subscriptionID string) (*model.Subscription, error)
	Get(ctx context.Context, subscriptionID string) (*model.Subscription, error)
	ListBySubscriber(ctx context.Context, subscriberType model.SubscriberType, subscriberID string) ([]*model.Subscription, error)

	// ExpireSweep advances subscriptions past their period end: non-renewing
	// ones expire, auto-renewing ones get a renewal invoice and a grace
	// window before failing. Returns how many subscriptions were acted on.
	ExpireSweep(ctx context.Context) (int, error)
}

type subscriptionUC struct {
	txm      repository.TransactionManager
	plans    repository.PlanRepository
	subs     repository.SubscriptionRepository
	invoices repository.InvoiceRepository
	dir      adapter.Directory
	notifier adapter.Notifier
	billing  config.BillingConfig
	log      *zerolog.Logger
}

func NewSubscriptionUseCase(
	txm repository.TransactionManager,
	plans repository.PlanRepository,
	subs repository.SubscriptionRepository,
	invoices repository.InvoiceRepository,
	dir adapter.Directory,
	notifier adapter.Notifier,
	billing config.BillingConfig,
	logger *zerolog.Logger,
) *subscriptionUC {
	l := logger.With().Str("component", "SubscriptionUseCase").Logger()
	return &subscriptionUC{
		txm:      txm,
		plans:    plans,
		subs:     subs,
		invoices: invoices,
		dir:      dir,
		notifier: notifier,
		billing:  billing,
		log:      &l,
	}
}

func hashToInt64(s string) int64 {
	h := fnv.New64a()
	h.Write([]byte(s))
	return int64(h.Sum64() & ((1 << 63) - 1))
}

// lockPlan takes a per-plan advisory xact lock so Subscribe serializes with
// concurrent plan mutations beyond the row lock alone.
func lockPlan(ctx context.Context, tx repository.Tx, planID string) error {
	ptx, ok := tx.(pgx.Tx)
	if !ok {
		return nil // in-memory path (tests)
	}
	_, err := ptx.Exec(ctx, "SELECT pg_advisory_xact_lock($1)", hashToInt64(planID))
	return err
}

func (uc *subscriptionUC) Subscribe(ctx context.Context, subscriberType model.SubscriberType, subscriberID, planID string, autoRenew bool) (*SubscribeResult, error) {
	if !subscriberType.Valid() || subscriberID == "" || planID == "" {
		return nil, domain.ErrInvalidArgument
	}
	// Resolve the subscriber before opening the transaction; the directory
	// is a collaborator and must not extend our tx.
	subscriber, err := uc.dir.Resolve(ctx, subscriberID)
	if err != nil {
		return nil, err
	}
	if subscriber.Kind != subscriberType {
		return nil, domain.ErrInvalidArgument
	}

	var res SubscribeResult
	err = uc.txm.WithTx(ctx, pgx.TxOptions{}, func(ctx context.Context, tx repository.Tx) error {
		if err := lockPlan(ctx, tx, planID); err != nil {
			return err
		}
		plan, err := uc.plans.FindByID(ctx, tx, planID)
		if err != nil {
			return err
		}
		if !plan.IsActive {
			return domain.ErrPlanInactive
		}

		sub, err := model.NewSubscription(uuid.NewString(), plan, subscriberType, subscriberID, autoRenew)
		if err != nil {
			return err
		}
		if err := uc.subs.Save(ctx, tx, sub); err != nil {
			return err
		}
		res.Subscription = sub

		if plan.IsFree() {
			return nil
		}
		due := time.Now().AddDate(0, 0, uc.billing.InvoiceDueDays)
		inv, err := model.NewInvoice(uuid.NewString(), subscriberType, subscriberID, &sub.ID, *plan.Price, plan.Currency, due)
		if err != nil {
			return err
		}
		if err := uc.invoices.Save(ctx, tx, inv); err != nil {
			return err
		}
		res.Invoice = inv
		return nil
	})
	if err != nil {
		return nil, err
	}

	if res.Invoice != nil {
		uc.notifier.Notify(ctx, adapter.Event{
			Kind:           adapter.EventInvoiceCreated,
			OccurredAt:     time.Now(),
			SubscriberType: subscriberType,
			SubscriberID:   subscriberID,
			SubscriptionID: res.Subscription.ID,
			InvoiceID:      res.Invoice.ID,
			Amount:         res.Invoice.Amount,
		})
	}
	uc.log.Info().
		Str("subscription_id", res.Subscription.ID).
		Str("plan_id", planID).
		Str("status", string(res.Subscription.Status)).
		Msg("subscription created")
	return &res, nil
}

// Pause is only valid from active. expires_at is left untouched: paused time
// is not banked. PausedAt is recorded so a future credit policy could be
// computed, but today the clock keeps running.
func (uc *subscriptionUC) Pause(ctx context.Context, subscriptionID string) (*model.Subscription, error) {
	return uc.transition(ctx, subscriptionID, model.SubscriptionStatusPaused)
}

// Resume is only valid from paused and does not extend expires_at.
func (uc *subscriptionUC) Resume(ctx context.Context, subscriptionID string) (*model.Subscription, error) {
	return uc.transition(ctx, subscriptionID, model.SubscriptionStatusActive)
}

// Cancel is valid from active or paused. Access runs until period end; the
// subscription simply will not renew.
func (uc *subscriptionUC) Cancel(ctx context.Context, subscriptionID string) (*model.Subscription, error) {
	return uc.transition(ctx, subscriptionID, model.SubscriptionStatusCanceled)
}

func (uc *subscriptionUC) transition(ctx context.Context, subscriptionID string, to model.SubscriptionStatus) (*model.Subscription, error) {
	var out *model.Subscription
	err := uc.txm.WithTx(ctx, pgx.TxOptions{}, func(ctx context.Context, tx repository.Tx) error {
		sub, err := uc.subs.FindByID(ctx, tx, subscriptionID)
		if err != nil {
			return err
		}
		// Resume must come from paused, not any state that may transition
		// to active (the map also admits pending->active and failed->active,
		// which belong to reconciliation).
		if to == model.SubscriptionStatusActive && sub.Status != model.SubscriptionStatusPaused {
			return domain.ErrInvalidTransition
		}
		if err := sub.TransitionTo(to); err != nil {
			return err
		}
		if err := uc.subs.Save(ctx, tx, sub); err != nil {
			return err
		}
		out = sub
		return nil
	})
	if err != nil {
		return nil, err
	}
	uc.log.Info().Str("subscription_id", subscriptionID).Str("status", string(to)).Msg("subscription transitioned")
	return out, nil
}

func (uc *subscriptionUC) Get(ctx context.Context, subscriptionID string) (*model.Subscription, error) {
	return uc.subs.FindByID(ctx, repository.NoTX, subscriptionID)
}

func (uc *subscriptionUC) ListBySubscriber(ctx context.Context, subscriberType model.SubscriberType, subscriberID string) ([]*model.Subscription, error) {
	return uc.subs.ListBySubscriber(ctx, repository.NoTX, subscriberType, subscriberID)
}

// ExpireSweep processes subscriptions past expiry, one transaction per row so
// a poisoned row cannot wedge the whole sweep.
//
// Rules:
//   - failed past expiry            -> expired (grace already consumed)
//   - active, auto_renew off        -> expired
//   - active, auto_renew on         -> ensure one pending renewal invoice;
//     past the grace window without settlement -> failed
func (uc *subscriptionUC) ExpireSweep(ctx context.Context) (int, error) {
	now := time.Now()
	due, err := uc.subs.FindDueForExpiry(ctx, repository.NoTX, now, 500)
	if err != nil {
		return 0, err
	}

	changed := 0
	for _, candidate := range due {
		var ev *adapter.Event
		err := uc.txm.WithTx(ctx, pgx.TxOptions{}, func(ctx context.Context, tx repository.Tx) error {
			sub, err := uc.subs.FindByID(ctx, tx, candidate.ID)
			if err != nil {
				return err
			}
			if !sub.PastExpiry(now) || sub.Status.Terminal() {
				return nil // settled or renewed since the scan
			}

			switch {
			case sub.Status == model.SubscriptionStatusFailed:
				if err := sub.TransitionTo(model.SubscriptionStatusExpired); err != nil {
					return err
				}
			case sub.Status == model.SubscriptionStatusActive && !sub.AutoRenew:
				if err := sub.TransitionTo(model.SubscriptionStatusExpired); err != nil {
					return err
				}
			case sub.Status == model.SubscriptionStatusActive:
				return uc.sweepRenewal(ctx, tx, sub, now, &ev)
			default:
				return nil // paused or pending rows are not swept
			}

			if err := uc.subs.Save(ctx, tx, sub); err != nil {
				return err
			}
			ev = &adapter.Event{
				Kind:           adapter.EventSubscriptionExpired,
				OccurredAt:     now,
				SubscriberType: sub.SubscriberType,
				SubscriberID:   sub.SubscriberID,
				SubscriptionID: sub.ID,
			}
			return nil
		})
		if err != nil {
			uc.log.Error().Err(err).Str("subscription_id", candidate.ID).Msg("expire sweep failed for subscription")
			continue
		}
		if ev != nil {
			uc.notifier.Notify(ctx, *ev)
			changed++
		}
	}
	return changed, nil
}

// sweepRenewal handles an auto-renewing subscription past its period end:
// generate the renewal invoice once, then let the grace window run before
// marking the subscription failed.
func (uc *subscriptionUC) sweepRenewal(ctx context.Context, tx repository.Tx, sub *model.Subscription, now time.Time, ev **adapter.Event) error {
	graceEnd := sub.ExpiresAt.AddDate(0, 0, uc.billing.RenewalGraceDays)
	if now.After(graceEnd) {
		if err := sub.TransitionTo(model.SubscriptionStatusFailed); err != nil {
			return err
		}
		if err := uc.subs.Save(ctx, tx, sub); err != nil {
			return err
		}
		*ev = &adapter.Event{
			Kind:           adapter.EventSubscriptionPastDue,
			OccurredAt:     now,
			SubscriberType: sub.SubscriberType,
			SubscriberID:   sub.SubscriberID,
			SubscriptionID: sub.ID,
		}
		return nil
	}

	if _, err := uc.invoices.FindOpenBySubscription(ctx, tx, sub.ID); err == nil {
		return nil // renewal invoice already outstanding
	} else if err != domain.ErrNotFound {
		return err
	}

	plan, err := uc.plans.FindByID(ctx, tx, sub.PlanID)
	if err != nil {
		return err
	}
	if plan.IsFree() {
		return nil
	}
	due := now.AddDate(0, 0, uc.billing.InvoiceDueDays)
	inv, err := model.NewInvoice(uuid.NewString(), sub.SubscriberType, sub.SubscriberID, &sub.ID, *plan.Price, plan.Currency, due)
	if err != nil {
		return err
	}
	if err := uc.invoices.Save(ctx, tx, inv); err != nil {
		return err
	}
	*ev = &adapter.Event{
		Kind:           adapter.EventInvoiceCreated,
		OccurredAt:     now,
		SubscriberType: sub.SubscriberType,
		SubscriberID:   sub.SubscriberID,
		SubscriptionID: sub.ID,
		InvoiceID:      inv.ID,
		Amount:         inv.Amount,
	}
	return nil
}
