package sched

import (
	"context"

	"github.com/rs/zerolog"

	"reetrack-billing/internal/infra/metrics"
	"reetrack-billing/internal/usecase"
)

// PaymentReaper scans for stale pending payments and finalizes them. This
// covers callbacks that were lost or a process that crashed mid-reconcile.
type PaymentReaper struct {
	billingUC usecase.BillingUseCase
	log       *zerolog.Logger
}

func NewPaymentReaper(billingUC usecase.BillingUseCase, logger *zerolog.Logger) *PaymentReaper {
	l := logger.With().Str("component", "PaymentReaper").Logger()
	return &PaymentReaper{billingUC: billingUC, log: &l}
}

func (w *PaymentReaper) Name() string { return "payment_reap" }

func (w *PaymentReaper) Run(ctx context.Context) error {
	n, err := w.billingUC.ReapStalePayments(ctx)
	if err != nil {
		return err
	}
	if n > 0 {
		for i := 0; i < n; i++ {
			metrics.IncPayment("failed")
		}
		w.log.Info().Int("count", n).Msg("stale pending payments reaped")
	}
	return nil
}
