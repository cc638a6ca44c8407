package sched

import (
	"context"

	"github.com/rs/zerolog"

	"reetrack-billing/internal/infra/metrics"
	"reetrack-billing/internal/usecase"
)

// ExpiryWorker sweeps subscription expirations: expiring non-renewing
// subscriptions, generating renewal invoices, and failing past-grace ones.
type ExpiryWorker struct {
	subUC usecase.SubscriptionUseCase
	log   *zerolog.Logger
}

func NewExpiryWorker(subUC usecase.SubscriptionUseCase, logger *zerolog.Logger) *ExpiryWorker {
	l := logger.With().Str("component", "ExpiryWorker").Logger()
	return &ExpiryWorker{subUC: subUC, log: &l}
}

func (w *ExpiryWorker) Name() string { return "expiry_sweep" }

func (w *ExpiryWorker) Run(ctx context.Context) error {
	n, err := w.subUC.ExpireSweep(ctx)
	if err != nil {
		return err
	}
	if n > 0 {
		metrics.IncSubscriptionsExpired(n)
		w.log.Info().Int("count", n).Msg("expiry sweep processed subscriptions")
	}
	return nil
}
