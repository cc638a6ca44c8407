package web

import (
	"crypto/hmac"
	"crypto/sha512"
	"encoding/hex"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"reetrack-billing/internal/domain"
	"reetrack-billing/internal/domain/model"
	"reetrack-billing/internal/infra/metrics"
)

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError maps domain errors onto HTTP status codes. Unknown errors stay
// opaque to the caller.
func writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		http.Error(w, "not found", http.StatusNotFound)
	case errors.Is(err, domain.ErrInvalidArgument):
		http.Error(w, "invalid request", http.StatusBadRequest)
	case errors.Is(err, domain.ErrAlreadyExists):
		http.Error(w, "already exists", http.StatusConflict)
	case errors.Is(err, domain.ErrPlanImmutable),
		errors.Is(err, domain.ErrPlanHasActiveSubscriptions),
		errors.Is(err, domain.ErrPlanHasSubscriptions),
		errors.Is(err, domain.ErrInvalidTransition),
		errors.Is(err, domain.ErrInvoiceNotPayable),
		errors.Is(err, domain.ErrPaymentMismatch):
		http.Error(w, err.Error(), http.StatusConflict)
	case errors.Is(err, domain.ErrPlanInactive):
		http.Error(w, err.Error(), http.StatusUnprocessableEntity)
	case errors.Is(err, domain.ErrGatewayUnavailable):
		http.Error(w, "payment provider unavailable", http.StatusServiceUnavailable)
	default:
		http.Error(w, "internal error", http.StatusInternalServerError)
	}
}

// ----- Plans -----

func (s *Server) handlePlanCreate(w http.ResponseWriter, r *http.Request) {
	var req planCreateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || !req.validate() {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	plan, err := s.planUC.Create(r.Context(), chi.URLParam(r, "orgID"), req.toInput())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, plan)
}

func (s *Server) handlePlanUpdate(w http.ResponseWriter, r *http.Request) {
	var req planUpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || !req.validate() {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	plan, err := s.planUC.Update(r.Context(), chi.URLParam(r, "orgID"), chi.URLParam(r, "planID"), req.toPatch())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, plan)
}

func (s *Server) handlePlanToggle(w http.ResponseWriter, r *http.Request) {
	plan, err := s.planUC.ToggleActive(r.Context(), chi.URLParam(r, "orgID"), chi.URLParam(r, "planID"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, plan)
}

func (s *Server) handlePlanDelete(w http.ResponseWriter, r *http.Request) {
	if err := s.planUC.Delete(r.Context(), chi.URLParam(r, "orgID"), chi.URLParam(r, "planID")); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handlePlanGet(w http.ResponseWriter, r *http.Request) {
	plan, err := s.planUC.Get(r.Context(), chi.URLParam(r, "orgID"), chi.URLParam(r, "planID"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, plan)
}

func (s *Server) handlePlanList(w http.ResponseWriter, r *http.Request) {
	plans, err := s.planUC.List(r.Context(), chi.URLParam(r, "orgID"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, struct {
		Data interface{} `json:"data"`
	}{Data: plans})
}

func (s *Server) handleOrgStats(w http.ResponseWriter, r *http.Request) {
	orgID := chi.URLParam(r, "orgID")
	stats, err := s.statsUC.PlanStats(r.Context(), orgID)
	if err != nil {
		writeError(w, err)
		return
	}
	week, month, year, err := s.statsUC.Revenue(r.Context(), orgID)
	if err != nil {
		writeError(w, err)
		return
	}

	response := struct {
		Stats   interface{} `json:"stats"`
		Revenue struct {
			Week  int64 `json:"week"`
			Month int64 `json:"month"`
			Year  int64 `json:"year"`
		} `json:"revenue"`
	}{Stats: stats}
	response.Revenue.Week = week
	response.Revenue.Month = month
	response.Revenue.Year = year
	writeJSON(w, http.StatusOK, response)
}

// ----- Subscriptions -----

func (s *Server) handleSubscribe(w http.ResponseWriter, r *http.Request) {
	var req subscribeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || !req.validate() {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	res, err := s.subUC.Subscribe(r.Context(), model.SubscriberType(req.SubscriberType), req.SubscriberID, req.PlanID, req.AutoRenew)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, res)
}

func (s *Server) handleSubscriptionGet(w http.ResponseWriter, r *http.Request) {
	sub, err := s.subUC.Get(r.Context(), chi.URLParam(r, "subID"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sub)
}

func (s *Server) handleSubscriptionPause(w http.ResponseWriter, r *http.Request) {
	sub, err := s.subUC.Pause(r.Context(), chi.URLParam(r, "subID"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sub)
}

func (s *Server) handleSubscriptionResume(w http.ResponseWriter, r *http.Request) {
	sub, err := s.subUC.Resume(r.Context(), chi.URLParam(r, "subID"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sub)
}

func (s *Server) handleSubscriptionCancel(w http.ResponseWriter, r *http.Request) {
	sub, err := s.subUC.Cancel(r.Context(), chi.URLParam(r, "subID"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sub)
}

func (s *Server) handleSubscriptionList(w http.ResponseWriter, r *http.Request) {
	st := model.SubscriberType(chi.URLParam(r, "type"))
	if !st.Valid() {
		http.Error(w, "invalid subscriber type", http.StatusBadRequest)
		return
	}
	subs, err := s.subUC.ListBySubscriber(r.Context(), st, chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, struct {
		Data interface{} `json:"data"`
	}{Data: subs})
}

// ----- Invoices -----

func (s *Server) handleInvoiceCreate(w http.ResponseWriter, r *http.Request) {
	var req invoiceCreateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || !req.validate() {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	inv, err := s.billingUC.CreateInvoice(r.Context(), model.SubscriberType(req.BilledType), req.BilledToID, req.SubscriptionID, req.Amount, req.Currency)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, inv)
}

func (s *Server) handleInvoiceGet(w http.ResponseWriter, r *http.Request) {
	inv, err := s.billingUC.GetInvoice(r.Context(), chi.URLParam(r, "invoiceID"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, inv)
}

func (s *Server) handleInvoiceList(w http.ResponseWriter, r *http.Request) {
	st := model.SubscriberType(chi.URLParam(r, "type"))
	if !st.Valid() {
		http.Error(w, "invalid subscriber type", http.StatusBadRequest)
		return
	}
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	if limit <= 0 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	invoices, err := s.billingUC.ListInvoices(r.Context(), st, chi.URLParam(r, "id"), offset, limit)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, struct {
		Data   interface{} `json:"data"`
		Limit  int         `json:"limit"`
		Offset int         `json:"offset"`
	}{Data: invoices, Limit: limit, Offset: offset})
}

// ----- Payments -----

func (s *Server) handlePaymentInitialize(w http.ResponseWriter, r *http.Request) {
	var req paymentInitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || !req.validate() {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	p, authURL, err := s.billingUC.InitializePayment(r.Context(), req.InvoiceID, model.SubscriberType(req.PayerType), req.Email)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, struct {
		Payment          interface{} `json:"payment"`
		AuthorizationURL string      `json:"authorization_url"`
	}{Payment: p, AuthorizationURL: authURL})
}

func (s *Server) handlePaymentRefund(w http.ResponseWriter, r *http.Request) {
	p, err := s.billingUC.Refund(r.Context(), chi.URLParam(r, "paymentID"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// handlePaymentVerify lets an operator force a pull-based reconciliation for
// a reference, e.g. after a missed webhook.
func (s *Server) handlePaymentVerify(w http.ResponseWriter, r *http.Request) {
	res, err := s.billingUC.VerifyAndReconcile(r.Context(), chi.URLParam(r, "reference"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// ----- Paystack webhook -----

// handlePaystackWebhook validates the HMAC-SHA512 signature over the raw
// body, then reconciles charge events. It answers 200 for anything it
// recorded, including mismatches: the dispute is ours to resolve, not the
// gateway's to retry.
func (s *Server) handlePaystackWebhook(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, 1<<20))
	if err != nil {
		http.Error(w, "bad request", http.StatusBadRequest)
		return
	}

	if !s.validSignature(body, r.Header.Get("x-paystack-signature")) {
		metrics.IncWebhookEvent("unknown", "invalid_signature")
		http.Error(w, "invalid signature", http.StatusUnauthorized)
		return
	}

	var ev paystackWebhookEvent
	if err := json.Unmarshal(body, &ev); err != nil || !ev.validate() {
		http.Error(w, "bad request", http.StatusBadRequest)
		return
	}

	switch ev.Event {
	case "charge.success", "charge.failed":
	default:
		// Unhandled event types are acknowledged so Paystack stops retrying.
		metrics.IncWebhookEvent(ev.Event, "ignored")
		w.WriteHeader(http.StatusOK)
		return
	}

	res, err := s.billingUC.Reconcile(r.Context(), ev.Data.Reference, ev.Data.Status, ev.Data.Amount)
	switch {
	case err == nil:
		metrics.IncWebhookEvent(ev.Event, "ok")
		if res.Payment.Status == model.PaymentStatusSuccess && !res.Duplicate {
			metrics.IncPayment(string(res.Payment.Status))
			metrics.AddPaymentRevenue(res.Payment.Currency, res.Payment.Amount)
			metrics.IncInvoice(string(res.Invoice.Status))
		}
		w.WriteHeader(http.StatusOK)
	case errors.Is(err, domain.ErrPaymentMismatch):
		// Recorded as disputed; acknowledged.
		metrics.IncWebhookEvent(ev.Event, "ok")
		metrics.IncPayment(string(model.PaymentStatusDisputed))
		s.log.Warn().Str("reference", ev.Data.Reference).Int64("amount", ev.Data.Amount).Msg("webhook amount mismatch")
		w.WriteHeader(http.StatusOK)
	case errors.Is(err, domain.ErrNotFound):
		// Reference we never staged. Acknowledge; retrying will not help.
		metrics.IncWebhookEvent(ev.Event, "unknown_reference")
		s.log.Warn().Str("reference", ev.Data.Reference).Msg("webhook for unknown reference")
		w.WriteHeader(http.StatusOK)
	default:
		metrics.IncWebhookEvent(ev.Event, "error")
		writeError(w, err)
	}
}

func (s *Server) validSignature(body []byte, signature string) bool {
	if s.webhookSecret == "" || signature == "" {
		return false
	}
	mac := hmac.New(sha512.New, []byte(s.webhookSecret))
	mac.Write(body)
	expected := hex.EncodeToString(mac.Sum(nil))
	return hmac.Equal([]byte(expected), []byte(signature))
}
