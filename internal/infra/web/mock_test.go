package web

import (
	"context"

	"reetrack-billing/internal/domain/model"
	"reetrack-billing/internal/usecase"
)

// Function-field mocks for the use case interfaces. Tests set only the
// fields a handler touches; an unset field panics, which fails the test.

type mockPlanUC struct {
	createFn func(ctx context.Context, orgID string, in usecase.CreatePlanInput) (*model.Plan, error)
	updateFn func(ctx context.Context, orgID, planID string, patch usecase.PlanPatch) (*model.Plan, error)
	toggleFn func(ctx context.Context, orgID, planID string) (*model.Plan, error)
	deleteFn func(ctx context.Context, orgID, planID string) error
	getFn    func(ctx context.Context, orgID, planID string) (*model.Plan, error)
	listFn   func(ctx context.Context, orgID string) ([]*model.Plan, error)
}

func (m *mockPlanUC) Create(ctx context.Context, orgID string, in usecase.CreatePlanInput) (*model.Plan, error) {
	return m.createFn(ctx, orgID, in)
}

func (m *mockPlanUC) Update(ctx context.Context, orgID, planID string, patch usecase.PlanPatch) (*model.Plan, error) {
	return m.updateFn(ctx, orgID, planID, patch)
}

func (m *mockPlanUC) ToggleActive(ctx context.Context, orgID, planID string) (*model.Plan, error) {
	return m.toggleFn(ctx, orgID, planID)
}

func (m *mockPlanUC) Delete(ctx context.Context, orgID, planID string) error {
	return m.deleteFn(ctx, orgID, planID)
}

func (m *mockPlanUC) Get(ctx context.Context, orgID, planID string) (*model.Plan, error) {
	return m.getFn(ctx, orgID, planID)
}

func (m *mockPlanUC) List(ctx context.Context, orgID string) ([]*model.Plan, error) {
	return m.listFn(ctx, orgID)
}

type mockSubUC struct {
	subscribeFn func(ctx context.Context, subscriberType model.SubscriberType, subscriberID, planID string, autoRenew bool) (*usecase.SubscribeResult, error)
	pauseFn     func(ctx context.Context, subscriptionID string) (*model.Subscription, error)
	resumeFn    func(ctx context.Context, subscriptionID string) (*model.Subscription, error)
	cancelFn    func(ctx context.Context, subscriptionID string) (*model.Subscription, error)
	getFn       func(ctx context.Context, subscriptionID string) (*model.Subscription, error)
	listFn      func(ctx context.Context, subscriberType model.SubscriberType, subscriberID string) ([]*model.Subscription, error)
	sweepFn     func(ctx context.Context) (int, error)
}

func (m *mockSubUC) Subscribe(ctx context.Context, subscriberType model.SubscriberType, subscriberID, planID string, autoRenew bool) (*usecase.SubscribeResult, error) {
	return m.subscribeFn(ctx, subscriberType, subscriberID, planID, autoRenew)
}

func (m *mockSubUC) Pause(ctx context.Context, subscriptionID string) (*model.Subscription, error) {
	return m.pauseFn(ctx, subscriptionID)
}

func (m *mockSubUC) Resume(ctx context.Context, subscriptionID string) (*model.Subscription, error) {
	return m.resumeFn(ctx, subscriptionID)
}

func (m *mockSubUC) Cancel(ctx context.Context, subscriptionID string) (*model.Subscription, error) {
	return m.cancelFn(ctx, subscriptionID)
}

func (m *mockSubUC) Get(ctx context.Context, subscriptionID string) (*model.Subscription, error) {
	return m.getFn(ctx, subscriptionID)
}

func (m *mockSubUC) ListBySubscriber(ctx context.Context, subscriberType model.SubscriberType, subscriberID string) ([]*model.Subscription, error) {
	return m.listFn(ctx, subscriberType, subscriberID)
}

func (m *mockSubUC) ExpireSweep(ctx context.Context) (int, error) {
	return m.sweepFn(ctx)
}

type mockBillingUC struct {
	createInvoiceFn func(ctx context.Context, billedType model.SubscriberType, billedToID string, subscriptionID *string, amount int64, currency string) (*model.Invoice, error)
	getInvoiceFn    func(ctx context.Context, invoiceID string) (*model.Invoice, error)
	listInvoicesFn  func(ctx context.Context, billedType model.SubscriberType, billedToID string, offset, limit int) ([]*model.Invoice, error)
	initializeFn    func(ctx context.Context, invoiceID string, payerType model.SubscriberType, email string) (*model.Payment, string, error)
	reconcileFn     func(ctx context.Context, providerRef, gatewayStatus string, amount int64) (*usecase.ReconcileResult, error)
	verifyFn        func(ctx context.Context, providerRef string) (*usecase.ReconcileResult, error)
	refundFn        func(ctx context.Context, paymentID string) (*model.Payment, error)
	reapFn          func(ctx context.Context) (int, error)
}

func (m *mockBillingUC) CreateInvoice(ctx context.Context, billedType model.SubscriberType, billedToID string, subscriptionID *string, amount int64, currency string) (*model.Invoice, error) {
	return m.createInvoiceFn(ctx, billedType, billedToID, subscriptionID, amount, currency)
}

func (m *mockBillingUC) GetInvoice(ctx context.Context, invoiceID string) (*model.Invoice, error) {
	return m.getInvoiceFn(ctx, invoiceID)
}

func (m *mockBillingUC) ListInvoices(ctx context.Context, billedType model.SubscriberType, billedToID string, offset, limit int) ([]*model.Invoice, error) {
	return m.listInvoicesFn(ctx, billedType, billedToID, offset, limit)
}

func (m *mockBillingUC) InitializePayment(ctx context.Context, invoiceID string, payerType model.SubscriberType, email string) (*model.Payment, string, error) {
	return m.initializeFn(ctx, invoiceID, payerType, email)
}

func (m *mockBillingUC) Reconcile(ctx context.Context, providerRef, gatewayStatus string, amount int64) (*usecase.ReconcileResult, error) {
	return m.reconcileFn(ctx, providerRef, gatewayStatus, amount)
}

func (m *mockBillingUC) VerifyAndReconcile(ctx context.Context, providerRef string) (*usecase.ReconcileResult, error) {
	return m.verifyFn(ctx, providerRef)
}

func (m *mockBillingUC) Refund(ctx context.Context, paymentID string) (*model.Payment, error) {
	return m.refundFn(ctx, paymentID)
}

func (m *mockBillingUC) ReapStalePayments(ctx context.Context) (int, error) {
	return m.reapFn(ctx)
}

type mockStatsUC struct {
	planStatsFn func(ctx context.Context, orgID string) (*usecase.OrgStats, error)
	revenueFn   func(ctx context.Context, orgID string) (int64, int64, int64, error)
}

func (m *mockStatsUC) PlanStats(ctx context.Context, orgID string) (*usecase.OrgStats, error) {
	return m.planStatsFn(ctx, orgID)
}

func (m *mockStatsUC) Revenue(ctx context.Context, orgID string) (int64, int64, int64, error) {
	return m.revenueFn(ctx, orgID)
}
