package payment

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"reetrack-billing/internal/config"
	"reetrack-billing/internal/domain"
	"reetrack-billing/internal/domain/ports/adapter"
)

var _ adapter.PaymentGateway = (*PaystackGateway)(nil)

// PaystackGateway implements adapter.PaymentGateway against the Paystack
// REST API using direct HTTP calls.
type PaystackGateway struct {
	secretKey   string
	baseURL     string
	callbackURL string
	client      *http.Client
}

func NewPaystackGateway(cfg config.PaystackConfig) *PaystackGateway {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = "https://api.paystack.co"
	}
	return &PaystackGateway{
		secretKey:   cfg.SecretKey,
		baseURL:     baseURL,
		callbackURL: cfg.CallbackURL,
		client:      &http.Client{Timeout: 15 * time.Second},
	}
}

func (g *PaystackGateway) Name() string { return "paystack" }

// paystackInitResponse represents the response from the transaction initialize API
type paystackInitResponse struct {
	Status  bool   `json:"status"`
	Message string `json:"message"`
	Data    struct {
		AuthorizationURL string `json:"authorization_url"`
		AccessCode       string `json:"access_code"`
		Reference        string `json:"reference"`
	} `json:"data"`
}

// paystackVerifyResponse represents the response from the transaction verify API
type paystackVerifyResponse struct {
	Status  bool   `json:"status"`
	Message string `json:"message"`
	Data    struct {
		Status   string `json:"status"`
		Amount   int64  `json:"amount"`
		Currency string `json:"currency"`
		Channel  string `json:"channel"`
		PaidAt   string `json:"paid_at"`
	} `json:"data"`
}

type paystackRefundResponse struct {
	Status  bool   `json:"status"`
	Message string `json:"message"`
	Data    struct {
		ID     int64  `json:"id"`
		Status string `json:"status"`
		Amount int64  `json:"amount"`
	} `json:"data"`
}

func (g *PaystackGateway) Initialize(ctx context.Context, amount int64, currency, email string, metadata map[string]string) (adapter.InitializeResult, error) {
	requestData := map[string]interface{}{
		"email":    email,
		"amount":   amount,
		"currency": currency,
	}
	if g.callbackURL != "" {
		requestData["callback_url"] = g.callbackURL
	}
	if metadata != nil {
		requestData["metadata"] = metadata
	}

	var response paystackInitResponse
	if err := g.post(ctx, "/transaction/initialize", requestData, &response); err != nil {
		return adapter.InitializeResult{}, err
	}
	if !response.Status {
		return adapter.InitializeResult{}, fmt.Errorf("paystack initialize: %s: %w", response.Message, domain.ErrGatewayUnavailable)
	}
	return adapter.InitializeResult{
		Reference:        response.Data.Reference,
		AccessCode:       response.Data.AccessCode,
		AuthorizationURL: response.Data.AuthorizationURL,
	}, nil
}

func (g *PaystackGateway) Verify(ctx context.Context, reference string) (adapter.VerifyResult, error) {
	var response paystackVerifyResponse
	if err := g.get(ctx, "/transaction/verify/"+reference, &response); err != nil {
		return adapter.VerifyResult{}, err
	}
	if !response.Status {
		return adapter.VerifyResult{}, fmt.Errorf("paystack verify: %s: %w", response.Message, domain.ErrGatewayUnavailable)
	}

	out := adapter.VerifyResult{
		Status:   response.Data.Status,
		Amount:   response.Data.Amount,
		Currency: response.Data.Currency,
		Channel:  response.Data.Channel,
	}
	if response.Data.PaidAt != "" {
		if t, err := time.Parse(time.RFC3339, response.Data.PaidAt); err == nil {
			out.PaidAt = t
		}
	}
	return out, nil
}

func (g *PaystackGateway) Refund(ctx context.Context, reference string, amount int64) (adapter.RefundResult, error) {
	requestData := map[string]interface{}{
		"transaction": reference,
		"amount":      amount,
	}

	var response paystackRefundResponse
	if err := g.post(ctx, "/refund", requestData, &response); err != nil {
		return adapter.RefundResult{}, err
	}
	if !response.Status {
		return adapter.RefundResult{}, fmt.Errorf("paystack refund: %s: %w", response.Message, domain.ErrGatewayUnavailable)
	}
	return adapter.RefundResult{
		ID:     fmt.Sprintf("%d", response.Data.ID),
		Status: response.Data.Status,
		Amount: response.Data.Amount,
	}, nil
}

func (g *PaystackGateway) post(ctx context.Context, path string, body map[string]interface{}, out interface{}) error {
	jsonData, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("failed to marshal request data: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.baseURL+path, bytes.NewBuffer(jsonData))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	return g.do(req, out)
}

func (g *PaystackGateway) get(ctx context.Context, path string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	return g.do(req, out)
}

func (g *PaystackGateway) do(req *http.Request, out interface{}) error {
	req.Header.Set("Authorization", "Bearer "+g.secretKey)
	req.Header.Set("Accept", "application/json")

	resp, err := g.client.Do(req)
	if err != nil {
		return fmt.Errorf("paystack request failed: %w: %v", domain.ErrGatewayUnavailable, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response body: %w", err)
	}
	if resp.StatusCode >= 500 {
		return fmt.Errorf("paystack returned %d: %w", resp.StatusCode, domain.ErrGatewayUnavailable)
	}
	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("failed to unmarshal response: %w, body: %s", err, string(respBody))
	}
	return nil
}
