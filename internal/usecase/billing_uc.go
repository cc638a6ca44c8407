// File: internal/usecase/billing_uc.go
package usecase

import (
	"context"
	"strings"
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
var _ BillingUseCase = (*billingUC)(nil)

// ReconcileResult is the terminal state a reconciliation settled on.
// Duplicate marks a callback that found the payment already settled and
// changed nothing.
type ReconcileResult struct {
	Payment      *model.Payment
	Invoice      *model.Invoice
	Subscription *model.Subscription
	Duplicate    bool
}

type BillingUseCase interface {
	CreateInvoice(ctx context.Context, billedType model.SubscriberType, billedToID string, subscriptionID *string, amount int64, currency string) (*model.Invoice, error)
	GetInvoice(ctx context.Context, invoiceID string) (*model.Invoice, error)
	ListInvoices(ctx context.Context, billedType model.SubscriberType, billedToID string, offset, limit int) ([]*model.Invoice, error)

	// InitializePayment stages a payment attempt for a pending invoice and
	// returns the gateway checkout URL. It never marks anything paid.
	InitializePayment(ctx context.Context, invoiceID string, payerType model.SubscriberType, email string) (*model.Payment, string, error)

	// Reconcile folds a gateway outcome for providerRef into the ledger.
	// Idempotent: duplicate callbacks for a settled payment are no-ops
	// returning the same terminal state. An amount mismatch persists the
	// payment as disputed and surfaces ErrPaymentMismatch.
	Reconcile(ctx context.Context, providerRef, gatewayStatus string, amount int64) (*ReconcileResult, error)

	// VerifyAndReconcile pulls the outcome from the gateway instead of
	// trusting a pushed callback, then reconciles it.
	VerifyAndReconcile(ctx context.Context, providerRef string) (*ReconcileResult, error)

	// Refund reverses a succeeded payment at the gateway and marks payment
	// and invoice refunded. Subscription access is left to lapse naturally.
	Refund(ctx context.Context, paymentID string) (*model.Payment, error)

	// ReapStalePayments fails pending payments older than the configured
	// timeout, after one last pull verification. Hygiene, not correctness.
	ReapStalePayments(ctx context.Context) (int, error)
}

type billingUC struct {
	txm      repository.TransactionManager
	invoices repository.InvoiceRepository
	payments repository.PaymentRepository
	subs     repository.SubscriptionRepository
	plans    repository.PlanRepository
	gateway  adapter.PaymentGateway
	notifier adapter.Notifier
	billing  config.BillingConfig
	log      *zerolog.Logger
}

func NewBillingUseCase(
	txm repository.TransactionManager,
	invoices repository.InvoiceRepository,
	payments repository.PaymentRepository,
	subs repository.SubscriptionRepository,
	plans repository.PlanRepository,
	gateway adapter.PaymentGateway,
	notifier adapter.Notifier,
	billing config.BillingConfig,
	logger *zerolog.Logger,
) *billingUC {
	l := logger.With().Str("component", "BillingUseCase").Logger()
	return &billingUC{
		txm:      txm,
		invoices: invoices,
		payments: payments,
		subs:     subs,
		plans:    plans,
		gateway:  gateway,
		notifier: notifier,
		billing:  billing,
		log:      &l,
	}
}

func (uc *billingUC) CreateInvoice(ctx context.Context, billedType model.SubscriberType, billedToID string, subscriptionID *string, amount int64, currency string) (*model.Invoice, error) {
	if currency == "" {
		currency = uc.billing.Currency
	}
	due := time.Now().AddDate(0, 0, uc.billing.InvoiceDueDays)
	inv, err := model.NewInvoice(uuid.NewString(), billedType, billedToID, subscriptionID, amount, currency, due)
	if err != nil {
		return nil, err
	}
	if err := uc.invoices.Save(ctx, repository.NoTX, inv); err != nil {
		return nil, err
	}
	uc.notifier.Notify(ctx, adapter.Event{
		Kind:           adapter.EventInvoiceCreated,
		OccurredAt:     time.Now(),
		SubscriberType: billedType,
		SubscriberID:   billedToID,
		InvoiceID:      inv.ID,
		Amount:         amount,
	})
	return inv, nil
}

func (uc *billingUC) GetInvoice(ctx context.Context, invoiceID string) (*model.Invoice, error) {
	return uc.invoices.FindByID(ctx, repository.NoTX, invoiceID)
}

func (uc *billingUC) ListInvoices(ctx context.Context, billedType model.SubscriberType, billedToID string, offset, limit int) ([]*model.Invoice, error) {
	if limit <= 0 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	return uc.invoices.ListByBilledTo(ctx, repository.NoTX, billedType, billedToID, offset, limit)
}

// InitializePayment deliberately does NOT run inside a database transaction:
// the gateway round-trip must never hold a tx open. The invoice is already
// durably committed before this is callable, and the payment row is staged
// only after the gateway accepted the intent.
func (uc *billingUC) InitializePayment(ctx context.Context, invoiceID string, payerType model.SubscriberType, email string) (*model.Payment, string, error) {
	inv, err := uc.invoices.FindByID(ctx, repository.NoTX, invoiceID)
	if err != nil {
		return nil, "", err
	}
	if inv.Status != model.InvoiceStatusPending {
		return nil, "", domain.ErrInvoiceNotPayable
	}

	init, err := uc.gateway.Initialize(ctx, inv.Amount, inv.Currency, email, map[string]string{
		"invoice_id":     inv.ID,
		"invoice_number": inv.Number,
	})
	if err != nil {
		return nil, "", err
	}

	p, err := model.NewPayment(uuid.NewString(), inv, payerType, uc.gateway.Name(), init.Reference, init.AccessCode)
	if err != nil {
		return nil, "", err
	}
	if err := uc.payments.Save(ctx, repository.NoTX, p); err != nil {
		return nil, "", err
	}
	uc.log.Info().
		Str("payment_id", p.ID).
		Str("invoice_id", inv.ID).
		Str("provider_ref", p.ProviderRef).
		Msg("payment staged")
	return p, init.AuthorizationURL, nil
}

func gatewaySucceeded(status string) bool {
	return strings.EqualFold(status, "success")
}

func (uc *billingUC) Reconcile(ctx context.Context, providerRef, gatewayStatus string, amount int64) (*ReconcileResult, error) {
	var (
		res      ReconcileResult
		disputed bool
	)
	err := uc.txm.WithTx(ctx, pgx.TxOptions{}, func(ctx context.Context, tx repository.Tx) error {
		// The row lock taken by this lookup serializes concurrent callbacks
		// for the same reference.
		p, err := uc.payments.FindByProviderRef(ctx, tx, uc.gateway.Name(), providerRef)
		if err != nil {
			return err
		}
		inv, err := uc.invoices.FindByID(ctx, tx, p.InvoiceID)
		if err != nil {
			return err
		}
		res.Payment, res.Invoice = p, inv

		if p.Status != model.PaymentStatusPending {
			// Duplicate or late callback for a settled attempt: no-op.
			res.Duplicate = true
			return uc.attachSubscription(ctx, tx, &res, inv)
		}

		if !gatewaySucceeded(gatewayStatus) {
			// Declined or abandoned. The invoice stays pending; a retry
			// creates a fresh payment row.
			if _, err := uc.payments.UpdateStatusIfPending(ctx, tx, p.ID, model.PaymentStatusFailed, nil, nil); err != nil {
				return err
			}
			p.Status = model.PaymentStatusFailed
			return nil
		}

		if amount != inv.Amount {
			// Never accept a short (or over) payment silently: park the
			// attempt for manual review and leave the invoice open.
			if _, err := uc.payments.UpdateStatusIfPending(ctx, tx, p.ID, model.PaymentStatusDisputed, nil, nil); err != nil {
				return err
			}
			p.Status = model.PaymentStatusDisputed
			disputed = true
			return nil
		}

		if inv.Status != model.InvoiceStatusPending {
			// A sibling payment already settled this invoice; a second
			// settlement is a double charge, not a duplicate delivery.
			if _, err := uc.payments.UpdateStatusIfPending(ctx, tx, p.ID, model.PaymentStatusDisputed, nil, nil); err != nil {
				return err
			}
			p.Status = model.PaymentStatusDisputed
			disputed = true
			return nil
		}

		now := time.Now()
		ok, err := uc.payments.UpdateStatusIfPending(ctx, tx, p.ID, model.PaymentStatusSuccess, nil, &now)
		if err != nil {
			return err
		}
		if !ok {
			res.Duplicate = true
			return nil
		}
		p.Status = model.PaymentStatusSuccess
		p.PaidAt = &now

		if err := uc.invoices.UpdateStatus(ctx, tx, inv.ID, model.InvoiceStatusPaid); err != nil {
			return err
		}
		inv.Status = model.InvoiceStatusPaid

		return uc.settleSubscription(ctx, tx, &res, inv)
	})
	if err != nil {
		return nil, err
	}

	switch {
	case disputed:
		uc.notifier.Notify(ctx, adapter.Event{
			Kind:       adapter.EventPaymentDisputed,
			OccurredAt: time.Now(),
			InvoiceID:  res.Invoice.ID,
			PaymentID:  res.Payment.ID,
			Amount:     amount,
		})
		return &res, domain.ErrPaymentMismatch
	case res.Payment.Status == model.PaymentStatusSuccess && !res.Duplicate:
		uc.notifier.Notify(ctx, adapter.Event{
			Kind:           adapter.EventPaymentSucceeded,
			OccurredAt:     time.Now(),
			SubscriberType: res.Invoice.BilledType,
			SubscriberID:   res.Invoice.BilledToID,
			InvoiceID:      res.Invoice.ID,
			PaymentID:      res.Payment.ID,
			Amount:         res.Payment.Amount,
		})
	}
	return &res, nil
}

// settleSubscription applies a settled invoice to its subscription: first
// payment activates, a renewal extends the period by one interval, and a
// failed-but-in-grace subscription is restored to active.
func (uc *billingUC) settleSubscription(ctx context.Context, tx repository.Tx, res *ReconcileResult, inv *model.Invoice) error {
	if inv.SubscriptionID == nil {
		return nil
	}
	sub, err := uc.subs.FindByID(ctx, tx, *inv.SubscriptionID)
	if err != nil {
		return err
	}

	switch sub.Status {
	case model.SubscriptionStatusPending:
		if err := sub.TransitionTo(model.SubscriptionStatusActive); err != nil {
			return err
		}
	case model.SubscriptionStatusActive, model.SubscriptionStatusFailed:
		plan, err := uc.plans.FindByID(ctx, tx, sub.PlanID)
		if err != nil {
			return err
		}
		if sub.ExpiresAt != nil && plan.Interval != nil {
			next := plan.Interval.Add(*sub.ExpiresAt, plan.IntervalCount)
			sub.ExpiresAt = &next
		}
		if sub.Status == model.SubscriptionStatusFailed {
			if err := sub.TransitionTo(model.SubscriptionStatusActive); err != nil {
				return err
			}
		} else {
			sub.UpdatedAt = time.Now()
		}
	default:
		// canceled/expired/paused: the money is accepted into the ledger
		// but the lifecycle is not resurrected here.
		res.Subscription = sub
		return nil
	}

	if err := uc.subs.Save(ctx, tx, sub); err != nil {
		return err
	}
	res.Subscription = sub
	return nil
}

func (uc *billingUC) attachSubscription(ctx context.Context, tx repository.Tx, res *ReconcileResult, inv *model.Invoice) error {
	if inv.SubscriptionID == nil {
		return nil
	}
	sub, err := uc.subs.FindByID(ctx, tx, *inv.SubscriptionID)
	if err != nil {
		return err
	}
	res.Subscription = sub
	return nil
}

func (uc *billingUC) VerifyAndReconcile(ctx context.Context, providerRef string) (*ReconcileResult, error) {
	v, err := uc.gateway.Verify(ctx, providerRef)
	if err != nil {
		return nil, err
	}
	return uc.Reconcile(ctx, providerRef, v.Status, v.Amount)
}

func (uc *billingUC) Refund(ctx context.Context, paymentID string) (*model.Payment, error) {
	// Validate outside any transaction, then call the gateway, then commit
	// the flip. The final transaction re-checks state under a row lock so a
	// concurrent refund is a no-op.
	p, err := uc.payments.FindByID(ctx, repository.NoTX, paymentID)
	if err != nil {
		return nil, err
	}
	if p.Status != model.PaymentStatusSuccess {
		return nil, domain.ErrInvalidArgument
	}
	inv, err := uc.invoices.FindByID(ctx, repository.NoTX, p.InvoiceID)
	if err != nil {
		return nil, err
	}
	if inv.Status != model.InvoiceStatusPaid {
		return nil, domain.ErrInvalidArgument
	}

	if _, err := uc.gateway.Refund(ctx, p.ProviderRef, p.Amount); err != nil {
		return nil, err
	}

	err = uc.txm.WithTx(ctx, pgx.TxOptions{}, func(ctx context.Context, tx repository.Tx) error {
		cur, err := uc.payments.FindByID(ctx, tx, paymentID)
		if err != nil {
			return err
		}
		if cur.Status == model.PaymentStatusRefunded {
			p = cur
			return nil
		}
		if err := uc.payments.UpdateStatus(ctx, tx, paymentID, model.PaymentStatusRefunded); err != nil {
			return err
		}
		if err := uc.invoices.UpdateStatus(ctx, tx, inv.ID, model.InvoiceStatusRefunded); err != nil {
			return err
		}
		cur.Status = model.PaymentStatusRefunded
		p = cur
		return nil
	})
	if err != nil {
		return nil, err
	}
	uc.log.Info().Str("payment_id", paymentID).Str("invoice_id", inv.ID).Msg("payment refunded")
	return p, nil
}

func (uc *billingUC) ReapStalePayments(ctx context.Context) (int, error) {
	cutoff := time.Now().Add(-uc.billing.PendingPaymentTimeout)
	stale, err := uc.payments.ListPendingOlderThan(ctx, repository.NoTX, cutoff, 200)
	if err != nil {
		return 0, err
	}

	reaped := 0
	for _, p := range stale {
		// One last pull: the callback may simply have been lost.
		if res, err := uc.VerifyAndReconcile(ctx, p.ProviderRef); err == nil && res.Payment.Status == model.PaymentStatusSuccess {
			continue
		}
		ok, err := uc.payments.UpdateStatusIfPending(ctx, repository.NoTX, p.ID, model.PaymentStatusFailed, nil, nil)
		if err != nil {
			uc.log.Error().Err(err).Str("payment_id", p.ID).Msg("failed to reap stale payment")
			continue
		}
		if ok {
			reaped++
		}
	}
	return reaped, nil
}
