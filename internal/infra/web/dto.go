package web

import (
	"reetrack-billing/internal/domain/model"
	"reetrack-billing/internal/usecase"
)

// Request DTOs for the admin API. Each carries its own validate() so bad
// payloads are rejected before a use case is touched.

type planCreateRequest struct {
	Name          string   `json:"name"`
	Description   string   `json:"description"`
	Price         *int64   `json:"price"`
	Currency      string   `json:"currency"`
	Interval      *string  `json:"interval"`
	IntervalCount int      `json:"interval_count"`
	Features      []string `json:"features"`
}

func (r *planCreateRequest) validate() bool {
	if r.Name == "" {
		return false
	}
	if (r.Price == nil) != (r.Interval == nil) {
		return false
	}
	if r.Price != nil {
		if *r.Price <= 0 || r.Currency == "" || !model.BillingInterval(*r.Interval).Valid() {
			return false
		}
	}
	return true
}

func (r *planCreateRequest) toInput() usecase.CreatePlanInput {
	in := usecase.CreatePlanInput{
		Name:          r.Name,
		Description:   r.Description,
		Price:         r.Price,
		Currency:      r.Currency,
		IntervalCount: r.IntervalCount,
		Features:      r.Features,
	}
	if r.Interval != nil {
		iv := model.BillingInterval(*r.Interval)
		in.Interval = &iv
	}
	if in.Price != nil && in.IntervalCount < 1 {
		in.IntervalCount = 1
	}
	return in
}

type planUpdateRequest struct {
	Name          *string  `json:"name"`
	Description   *string  `json:"description"`
	Features      []string `json:"features"`
	Price         *int64   `json:"price"`
	Interval      *string  `json:"interval"`
	IntervalCount *int     `json:"interval_count"`
}

func (r *planUpdateRequest) validate() bool {
	if r.Name != nil && *r.Name == "" {
		return false
	}
	if r.Price != nil && *r.Price <= 0 {
		return false
	}
	if r.Interval != nil && !model.BillingInterval(*r.Interval).Valid() {
		return false
	}
	if r.IntervalCount != nil && *r.IntervalCount < 1 {
		return false
	}
	return true
}

func (r *planUpdateRequest) toPatch() usecase.PlanPatch {
	p := usecase.PlanPatch{
		Name:          r.Name,
		Description:   r.Description,
		Features:      r.Features,
		Price:         r.Price,
		IntervalCount: r.IntervalCount,
	}
	if r.Interval != nil {
		iv := model.BillingInterval(*r.Interval)
		p.Interval = &iv
	}
	return p
}

type subscribeRequest struct {
	SubscriberType string `json:"subscriber_type"`
	SubscriberID   string `json:"subscriber_id"`
	PlanID         string `json:"plan_id"`
	AutoRenew      bool   `json:"auto_renew"`
}

func (r *subscribeRequest) validate() bool {
	return model.SubscriberType(r.SubscriberType).Valid() && r.SubscriberID != "" && r.PlanID != ""
}

type invoiceCreateRequest struct {
	BilledType     string  `json:"billed_type"`
	BilledToID     string  `json:"billed_to_id"`
	SubscriptionID *string `json:"subscription_id"`
	Amount         int64   `json:"amount"`
	Currency       string  `json:"currency"`
}

func (r *invoiceCreateRequest) validate() bool {
	return model.SubscriberType(r.BilledType).Valid() && r.BilledToID != "" && r.Amount > 0
}

type paymentInitRequest struct {
	InvoiceID string `json:"invoice_id"`
	PayerType string `json:"payer_type"`
	Email     string `json:"email"`
}

func (r *paymentInitRequest) validate() bool {
	return r.InvoiceID != "" && model.SubscriberType(r.PayerType).Valid() && r.Email != ""
}

// paystackWebhookEvent is the subset of Paystack's event envelope that
// reconciliation needs.
type paystackWebhookEvent struct {
	Event string `json:"event"`
	Data  struct {
		Reference string `json:"reference"`
		Status    string `json:"status"`
		Amount    int64  `json:"amount"`
		Currency  string `json:"currency"`
		Channel   string `json:"channel"`
	} `json:"data"`
}

func (e *paystackWebhookEvent) validate() bool {
	return e.Event != "" && e.Data.Reference != ""
}
