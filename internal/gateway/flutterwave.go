package gateway

import (
	"bytes"
	"context"
	"crypto/subtle"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"stayhaven/pkg/config"
	"stayhaven/pkg/logger"

	"github.com/shopspring/decimal"
)

// Flutterwave integrates the v3 API authenticated with a static secret key.
// Amounts on the wire are in major units; webhooks carry a shared verif-hash
// header instead of a body signature. The OAuth (v4) variant reuses this
// adapter with a different authorizer and webhook scheme.
type Flutterwave struct {
	name        string
	secretKey   string
	webhookHash string
	baseURL     string
	httpClient  *http.Client
	logger      *logger.Logger

	// authorize produces the Authorization header value for one request.
	authorize func(ctx context.Context) (string, error)
}

func NewFlutterwave(cfg *config.Config, log *logger.Logger) *Flutterwave {
	f := &Flutterwave{
		name:        "flutterwave",
		secretKey:   cfg.FlutterwaveSecretKey,
		webhookHash: cfg.FlutterwaveWebhookHash,
		baseURL:     cfg.FlutterwaveBaseURL,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		logger: log,
	}
	f.authorize = func(context.Context) (string, error) {
		return "Bearer " + f.secretKey, nil
	}
	return f
}

func (f *Flutterwave) Name() string {
	return f.name
}

type flutterwaveEnvelope struct {
	Status  string          `json:"status"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func (f *Flutterwave) call(ctx context.Context, method, path string, payload interface{}) (json.RawMessage, error) {
	authorization, err := f.authorize(ctx)
	if err != nil {
		return nil, err
	}

	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, f.baseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", authorization)
	req.Header.Set("Content-Type", "application/json")

	resp, err := f.httpClient.Do(req)
	if err != nil {
		f.logger.Error("[FLUTTERWAVE] %s %s failed: %v", method, path, err)
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	if resp.StatusCode >= http.StatusInternalServerError {
		f.logger.Error("[FLUTTERWAVE] %s %s returned %d", method, path, resp.StatusCode)
		return nil, fmt.Errorf("%w: status %d", ErrUnavailable, resp.StatusCode)
	}

	var envelope flutterwaveEnvelope
	if err := json.Unmarshal(respBody, &envelope); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	if resp.StatusCode >= http.StatusBadRequest || envelope.Status != "success" {
		return nil, fmt.Errorf("%w: %s", ErrRejected, envelope.Message)
	}

	return envelope.Data, nil
}

func (f *Flutterwave) InitiateCharge(ctx context.Context, req ChargeRequest) (*Handle, error) {
	payload := map[string]interface{}{
		"tx_ref":   req.ExternalRef,
		"amount":   req.Amount.String(),
		"currency": req.Currency,
		"customer": map[string]string{
			"email": req.CustomerRef,
		},
	}

	data, err := f.call(ctx, http.MethodPost, "/v3/payments", payload)
	if err != nil {
		return nil, err
	}

	var result struct {
		Link string `json:"link"`
	}
	if err := json.Unmarshal(data, &result); err != nil {
		return nil, fmt.Errorf("failed to decode payment response: %w", err)
	}

	return &Handle{
		Provider:         f.Name(),
		Reference:        req.ExternalRef,
		AuthorizationURL: result.Link,
	}, nil
}

func (f *Flutterwave) InitiateTransfer(ctx context.Context, req TransferRequest) (*Handle, error) {
	payload := map[string]interface{}{
		"account_number": req.DestinationAccountRef,
		"amount":         req.Amount.String(),
		"currency":       req.Currency,
		"reference":      req.ExternalRef,
		"narration":      "stayhaven withdrawal",
	}

	data, err := f.call(ctx, http.MethodPost, "/v3/transfers", payload)
	if err != nil {
		return nil, err
	}

	var result struct {
		ID int64 `json:"id"`
	}
	if err := json.Unmarshal(data, &result); err != nil {
		return nil, fmt.Errorf("failed to decode transfer response: %w", err)
	}

	return &Handle{
		Provider:   f.Name(),
		Reference:  req.ExternalRef,
		GatewayRef: fmt.Sprintf("%d", result.ID),
	}, nil
}

func (f *Flutterwave) Refund(ctx context.Context, req RefundRequest) (*Handle, error) {
	path := fmt.Sprintf("/v3/transactions/%s/refund", req.GatewayRef)
	payload := map[string]interface{}{
		"amount": req.Amount.String(),
	}

	data, err := f.call(ctx, http.MethodPost, path, payload)
	if err != nil {
		return nil, err
	}

	var result struct {
		ID int64 `json:"id"`
	}
	if err := json.Unmarshal(data, &result); err != nil {
		return nil, fmt.Errorf("failed to decode refund response: %w", err)
	}

	return &Handle{
		Provider:   f.Name(),
		Reference:  req.ExternalRef,
		GatewayRef: fmt.Sprintf("%d", result.ID),
	}, nil
}

func (f *Flutterwave) VerifyByReference(ctx context.Context, externalRef string) (*VerificationResult, error) {
	path := "/v3/transactions/verify_by_reference?tx_ref=" + url.QueryEscape(externalRef)
	data, err := f.call(ctx, http.MethodGet, path, nil)
	if err != nil {
		return nil, err
	}

	var result struct {
		ID       int64           `json:"id"`
		Status   string          `json:"status"`
		Amount   decimal.Decimal `json:"amount"`
		Currency string          `json:"currency"`
	}
	if err := json.Unmarshal(data, &result); err != nil {
		return nil, fmt.Errorf("failed to decode verify response: %w", err)
	}

	return &VerificationResult{
		Status:     flutterwaveStatus(result.Status),
		Amount:     result.Amount,
		Currency:   result.Currency,
		GatewayRef: fmt.Sprintf("%d", result.ID),
	}, nil
}

func (f *Flutterwave) VerifyWebhook(headers http.Header, body []byte) error {
	received := headers.Get("verif-hash")
	if received == "" {
		return ErrInvalidSignature
	}
	if subtle.ConstantTimeCompare([]byte(received), []byte(f.webhookHash)) != 1 {
		return ErrInvalidSignature
	}
	return nil
}

func (f *Flutterwave) ParseWebhook(body []byte) (*WebhookEvent, error) {
	var payload struct {
		Event string `json:"event"`
		Data  struct {
			ID        int64           `json:"id"`
			TxRef     string          `json:"tx_ref"`
			Reference string          `json:"reference"`
			Amount    decimal.Decimal `json:"amount"`
			Currency  string          `json:"currency"`
			Status    string          `json:"status"`
		} `json:"data"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("failed to decode webhook payload: %w", err)
	}

	// Transfer events carry reference instead of tx_ref.
	externalRef := payload.Data.TxRef
	if externalRef == "" {
		externalRef = payload.Data.Reference
	}

	return &WebhookEvent{
		Provider:    f.Name(),
		EventType:   payload.Event,
		ExternalRef: externalRef,
		GatewayRef:  fmt.Sprintf("%d", payload.Data.ID),
		Amount:      payload.Data.Amount,
		Currency:    payload.Data.Currency,
		Status:      flutterwaveStatus(payload.Data.Status),
	}, nil
}

func flutterwaveStatus(s string) EventStatus {
	switch s {
	case "successful", "SUCCESSFUL", "success":
		return StatusSuccess
	case "failed", "FAILED", "error":
		return StatusFailed
	default:
		return StatusPending
	}
}
