// File: internal/usecase/mocks_test.go
package usecase

import (
	"context"
	"sync"
	"time"

	"github.com/jackc/pgx/v4"
	"github.com/rs/zerolog"

	"reetrack-billing/internal/domain"
	"reetrack-billing/internal/domain/model"
	"reetrack-billing/internal/domain/ports/adapter"
	"reetrack-billing/internal/domain/ports/repository"
)

func testLogger() *zerolog.Logger {
	l := zerolog.Nop()
	return &l
}

// memTxManager runs the callback without a real transaction; repositories
// receive a nil handle and use their non-locking path.
type memTxManager struct{}

func (m *memTxManager) WithTx(ctx context.Context, _ pgx.TxOptions, fn func(ctx context.Context, tx repository.Tx) error) error {
	return fn(ctx, nil)
}

// memPlanRepo is a small in-memory implementation used by unit tests.
type memPlanRepo struct {
	mu      sync.RWMutex
	store   map[string]*model.Plan
	saveErr error // used by tests to simulate save failures
}

func newMemPlanRepo() *memPlanRepo {
	return &memPlanRepo{store: make(map[string]*model.Plan)}
}

func (m *memPlanRepo) Save(ctx context.Context, tx repository.Tx, plan *model.Plan) error {
	if m.saveErr != nil {
		return m.saveErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *plan
	m.store[plan.ID] = &cp
	return nil
}

func (m *memPlanRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.Plan, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	p, ok := m.store[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (m *memPlanRepo) ListByOrg(ctx context.Context, tx repository.Tx, orgID string) ([]*model.Plan, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*model.Plan
	for _, p := range m.store {
		if p.OrgID == orgID {
			cp := *p
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (m *memPlanRepo) Delete(ctx context.Context, tx repository.Tx, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.store[id]; !ok {
		return domain.ErrNotFound
	}
	delete(m.store, id)
	return nil
}

// memSubRepo provides in-memory subscriptions for tests.
type memSubRepo struct {
	mu    sync.RWMutex
	store map[string]*model.Subscription
}

func newMemSubRepo() *memSubRepo {
	return &memSubRepo{store: make(map[string]*model.Subscription)}
}

func (m *memSubRepo) Save(ctx context.Context, tx repository.Tx, sub *model.Subscription) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *sub
	m.store[sub.ID] = &cp
	return nil
}

func (m *memSubRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.Subscription, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.store[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *s
	return &cp, nil
}

func (m *memSubRepo) ListBySubscriber(ctx context.Context, tx repository.Tx, subscriberType model.SubscriberType, subscriberID string) ([]*model.Subscription, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*model.Subscription
	for _, s := range m.store {
		if s.SubscriberType == subscriberType && s.SubscriberID == subscriberID {
			cp := *s
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (m *memSubRepo) CountByPlan(ctx context.Context, tx repository.Tx, planID string, onlyActive bool) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	n := 0
	for _, s := range m.store {
		if s.PlanID != planID {
			continue
		}
		if onlyActive && s.Status != model.SubscriptionStatusActive {
			continue
		}
		n++
	}
	return n, nil
}

func (m *memSubRepo) CountActiveByPlanForOrg(ctx context.Context, tx repository.Tx, orgID string) (map[string]int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make(map[string]int)
	for _, s := range m.store {
		if s.Status == model.SubscriptionStatusActive {
			out[s.PlanID]++
		}
	}
	return out, nil
}

func (m *memSubRepo) FindDueForExpiry(ctx context.Context, tx repository.Tx, asOf time.Time, limit int) ([]*model.Subscription, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*model.Subscription
	for _, s := range m.store {
		if (s.Status == model.SubscriptionStatusActive || s.Status == model.SubscriptionStatusFailed) && s.PastExpiry(asOf) {
			cp := *s
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (m *memSubRepo) FindExpiring(ctx context.Context, tx repository.Tx, within time.Duration) ([]*model.Subscription, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	cut := time.Now().Add(within)
	var out []*model.Subscription
	for _, s := range m.store {
		if s.Status == model.SubscriptionStatusActive && s.ExpiresAt != nil && s.ExpiresAt.After(time.Now()) && s.ExpiresAt.Before(cut) {
			cp := *s
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (m *memSubRepo) CountByStatus(ctx context.Context, tx repository.Tx) (map[model.SubscriptionStatus]int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make(map[model.SubscriptionStatus]int)
	for _, s := range m.store {
		out[s.Status]++
	}
	return out, nil
}

// memInvoiceRepo enforces the unique invoice number like the real table does.
type memInvoiceRepo struct {
	mu      sync.RWMutex
	store   map[string]*model.Invoice
	numbers map[string]string // number -> id
}

func newMemInvoiceRepo() *memInvoiceRepo {
	return &memInvoiceRepo{store: make(map[string]*model.Invoice), numbers: make(map[string]string)}
}

func (m *memInvoiceRepo) Save(ctx context.Context, tx repository.Tx, inv *model.Invoice) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if owner, ok := m.numbers[inv.Number]; ok && owner != inv.ID {
		return domain.ErrAlreadyExists
	}
	cp := *inv
	m.store[inv.ID] = &cp
	m.numbers[inv.Number] = inv.ID
	return nil
}

func (m *memInvoiceRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.Invoice, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	inv, ok := m.store[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *inv
	return &cp, nil
}

func (m *memInvoiceRepo) FindByNumber(ctx context.Context, tx repository.Tx, number string) (*model.Invoice, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	id, ok := m.numbers[number]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *m.store[id]
	return &cp, nil
}

func (m *memInvoiceRepo) ListByBilledTo(ctx context.Context, tx repository.Tx, billedType model.SubscriberType, billedToID string, offset, limit int) ([]*model.Invoice, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*model.Invoice
	for _, inv := range m.store {
		if inv.BilledType == billedType && inv.BilledToID == billedToID {
			cp := *inv
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (m *memInvoiceRepo) FindOpenBySubscription(ctx context.Context, tx repository.Tx, subscriptionID string) (*model.Invoice, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, inv := range m.store {
		if inv.SubscriptionID != nil && *inv.SubscriptionID == subscriptionID && inv.Status == model.InvoiceStatusPending {
			cp := *inv
			return &cp, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (m *memInvoiceRepo) UpdateStatus(ctx context.Context, tx repository.Tx, id string, status model.InvoiceStatus) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	inv, ok := m.store[id]
	if !ok {
		return domain.ErrNotFound
	}
	inv.Status = status
	inv.UpdatedAt = time.Now()
	return nil
}

// memPaymentRepo enforces the (provider, provider_ref) unique constraint and
// the status='pending' guard the reconciliation logic depends on.
type memPaymentRepo struct {
	mu    sync.RWMutex
	store map[string]*model.Payment
}

func newMemPaymentRepo() *memPaymentRepo {
	return &memPaymentRepo{store: make(map[string]*model.Payment)}
}

func (m *memPaymentRepo) Save(ctx context.Context, tx repository.Tx, p *model.Payment) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, other := range m.store {
		if other.ID != p.ID && other.Provider == p.Provider && other.ProviderRef == p.ProviderRef {
			return domain.ErrAlreadyExists
		}
	}
	cp := *p
	m.store[p.ID] = &cp
	return nil
}

func (m *memPaymentRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.Payment, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	p, ok := m.store[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (m *memPaymentRepo) FindByProviderRef(ctx context.Context, tx repository.Tx, provider, providerRef string) (*model.Payment, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, p := range m.store {
		if p.Provider == provider && p.ProviderRef == providerRef {
			cp := *p
			return &cp, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (m *memPaymentRepo) ListByInvoice(ctx context.Context, tx repository.Tx, invoiceID string) ([]*model.Payment, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*model.Payment
	for _, p := range m.store {
		if p.InvoiceID == invoiceID {
			cp := *p
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (m *memPaymentRepo) UpdateStatusIfPending(ctx context.Context, tx repository.Tx, id string, status model.PaymentStatus, method *string, paidAt *time.Time) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.store[id]
	if !ok || p.Status != model.PaymentStatusPending {
		return false, nil
	}
	p.Status = status
	if method != nil {
		p.Method = method
	}
	if paidAt != nil {
		p.PaidAt = paidAt
	}
	p.UpdatedAt = time.Now()
	return true, nil
}

func (m *memPaymentRepo) UpdateStatus(ctx context.Context, tx repository.Tx, id string, status model.PaymentStatus) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.store[id]
	if !ok {
		return domain.ErrNotFound
	}
	p.Status = status
	p.UpdatedAt = time.Now()
	return nil
}

func (m *memPaymentRepo) ListPendingOlderThan(ctx context.Context, tx repository.Tx, olderThan time.Time, limit int) ([]*model.Payment, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*model.Payment
	for _, p := range m.store {
		if p.Status == model.PaymentStatusPending && p.CreatedAt.Before(olderThan) {
			cp := *p
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (m *memPaymentRepo) SumSucceededSince(ctx context.Context, tx repository.Tx, orgID string, since time.Time) (int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var sum int64
	for _, p := range m.store {
		if p.Status == model.PaymentStatusSuccess && p.PaidAt != nil && !p.PaidAt.Before(since) {
			sum += p.Amount
		}
	}
	return sum, nil
}

// memDirectory is an in-memory subscriber directory.
type memDirectory struct {
	subscribers map[string]adapter.Subscriber
	memberCount map[string]int
	orgs        map[string]bool
}

func newMemDirectory() *memDirectory {
	return &memDirectory{
		subscribers: make(map[string]adapter.Subscriber),
		memberCount: make(map[string]int),
		orgs:        make(map[string]bool),
	}
}

func (m *memDirectory) addOrg(id string) {
	m.orgs[id] = true
	m.subscribers[id] = adapter.Subscriber{ID: id, Kind: model.SubscriberOrganization, OrgID: id, BillingEmail: id + "@example.com"}
}

func (m *memDirectory) addMember(id, orgID string) {
	m.subscribers[id] = adapter.Subscriber{ID: id, Kind: model.SubscriberMember, OrgID: orgID, BillingEmail: id + "@example.com"}
	m.memberCount[orgID]++
}

func (m *memDirectory) Resolve(ctx context.Context, subscriberID string) (adapter.Subscriber, error) {
	s, ok := m.subscribers[subscriberID]
	if !ok {
		return adapter.Subscriber{}, domain.ErrNotFound
	}
	return s, nil
}

func (m *memDirectory) CountMembers(ctx context.Context, orgID string) (int, error) {
	return m.memberCount[orgID], nil
}

func (m *memDirectory) OrganizationExists(ctx context.Context, orgID string) (bool, error) {
	return m.orgs[orgID], nil
}

// memNotifier records emitted events.
type memNotifier struct {
	mu     sync.Mutex
	events []adapter.Event
}

func (m *memNotifier) Notify(ctx context.Context, ev adapter.Event) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, ev)
}

func (m *memNotifier) kinds() []adapter.EventKind {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]adapter.EventKind, 0, len(m.events))
	for _, ev := range m.events {
		out = append(out, ev.Kind)
	}
	return out
}

// fakeGateway lets tests script gateway behavior per call.
type fakeGateway struct {
	name          string
	initializeFn  func(ctx context.Context, amount int64, currency, email string, metadata map[string]string) (adapter.InitializeResult, error)
	verifyFn      func(ctx context.Context, reference string) (adapter.VerifyResult, error)
	refundFn      func(ctx context.Context, reference string, amount int64) (adapter.RefundResult, error)
	initCalls     int
	refundCalls   int
	verifyCalls   int
	refundCallsMu sync.Mutex
}

func newFakeGateway() *fakeGateway {
	return &fakeGateway{name: "fake"}
}

func (g *fakeGateway) Name() string { return g.name }

func (g *fakeGateway) Initialize(ctx context.Context, amount int64, currency, email string, metadata map[string]string) (adapter.InitializeResult, error) {
	g.initCalls++
	if g.initializeFn != nil {
		return g.initializeFn(ctx, amount, currency, email, metadata)
	}
	return adapter.InitializeResult{
		Reference:        "ref-" + email,
		AccessCode:       "ac-" + email,
		AuthorizationURL: "https://checkout.example/" + email,
	}, nil
}

func (g *fakeGateway) Verify(ctx context.Context, reference string) (adapter.VerifyResult, error) {
	g.verifyCalls++
	if g.verifyFn != nil {
		return g.verifyFn(ctx, reference)
	}
	return adapter.VerifyResult{Status: "success", PaidAt: time.Now()}, nil
}

func (g *fakeGateway) Refund(ctx context.Context, reference string, amount int64) (adapter.RefundResult, error) {
	g.refundCallsMu.Lock()
	g.refundCalls++
	g.refundCallsMu.Unlock()
	if g.refundFn != nil {
		return g.refundFn(ctx, reference, amount)
	}
	return adapter.RefundResult{ID: "rf-1", Status: "processed", Amount: amount}, nil
}
