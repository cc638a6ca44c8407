package payment

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"reetrack-billing/internal/domain/ports/adapter"
)

var _ adapter.PaymentGateway = (*NoopGateway)(nil)

// NoopGateway accepts everything. Useful for dev mode and local demos where
// no real provider credentials exist.
type NoopGateway struct {
	seq atomic.Int64
}

func NewNoopGateway() *NoopGateway { return &NoopGateway{} }

func (g *NoopGateway) Name() string { return "noop" }

func (g *NoopGateway) Initialize(ctx context.Context, amount int64, currency, email string, metadata map[string]string) (adapter.InitializeResult, error) {
	ref := fmt.Sprintf("noop-%d-%d", time.Now().Unix(), g.seq.Add(1))
	return adapter.InitializeResult{
		Reference:        ref,
		AccessCode:       "noop",
		AuthorizationURL: "https://example.invalid/checkout/" + ref,
	}, nil
}

func (g *NoopGateway) Verify(ctx context.Context, reference string) (adapter.VerifyResult, error) {
	return adapter.VerifyResult{Status: "success", PaidAt: time.Now()}, nil
}

func (g *NoopGateway) Refund(ctx context.Context, reference string, amount int64) (adapter.RefundResult, error) {
	return adapter.RefundResult{ID: "noop-refund", Status: "processed", Amount: amount}, nil
}
