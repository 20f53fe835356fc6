package gateway

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha512"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"stayhaven/pkg/config"
	"stayhaven/pkg/logger"

	"github.com/shopspring/decimal"
)

// Paystack integrates api.paystack.co. Amounts on the wire are in the
// currency minor unit (kobo for NGN); webhooks are signed with HMAC-SHA512
// of the raw body under the account secret key.
type Paystack struct {
	secretKey  string
	baseURL    string
	httpClient *http.Client
	logger     *logger.Logger
}

func NewPaystack(cfg *config.Config, log *logger.Logger) *Paystack {
	return &Paystack{
		secretKey: cfg.PaystackSecretKey,
		baseURL:   cfg.PaystackBaseURL,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		logger: log,
	}
}

func (p *Paystack) Name() string {
	return "paystack"
}

type paystackEnvelope struct {
	Status  bool            `json:"status"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func (p *Paystack) call(ctx context.Context, method, path string, payload interface{}) (json.RawMessage, error) {
	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, p.baseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+p.secretKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.httpClient.Do(req)
	if err != nil {
		p.logger.Error("[PAYSTACK] %s %s failed: %v", method, path, err)
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	if resp.StatusCode >= http.StatusInternalServerError {
		p.logger.Error("[PAYSTACK] %s %s returned %d", method, path, resp.StatusCode)
		return nil, fmt.Errorf("%w: status %d", ErrUnavailable, resp.StatusCode)
	}

	var envelope paystackEnvelope
	if err := json.Unmarshal(respBody, &envelope); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	if resp.StatusCode >= http.StatusBadRequest || !envelope.Status {
		return nil, fmt.Errorf("%w: %s", ErrRejected, envelope.Message)
	}

	return envelope.Data, nil
}

func (p *Paystack) InitiateCharge(ctx context.Context, req ChargeRequest) (*Handle, error) {
	payload := map[string]interface{}{
		"email":     req.CustomerRef,
		"amount":    toMinorUnits(req.Amount),
		"currency":  req.Currency,
		"reference": req.ExternalRef,
	}

	data, err := p.call(ctx, http.MethodPost, "/transaction/initialize", payload)
	if err != nil {
		return nil, err
	}

	var result struct {
		AuthorizationURL string `json:"authorization_url"`
		AccessCode       string `json:"access_code"`
		Reference        string `json:"reference"`
	}
	if err := json.Unmarshal(data, &result); err != nil {
		return nil, fmt.Errorf("failed to decode initialize response: %w", err)
	}

	return &Handle{
		Provider:         p.Name(),
		Reference:        req.ExternalRef,
		GatewayRef:       result.AccessCode,
		AuthorizationURL: result.AuthorizationURL,
	}, nil
}

func (p *Paystack) InitiateTransfer(ctx context.Context, req TransferRequest) (*Handle, error) {
	payload := map[string]interface{}{
		"source":    "balance",
		"amount":    toMinorUnits(req.Amount),
		"currency":  req.Currency,
		"recipient": req.DestinationAccountRef,
		"reference": req.ExternalRef,
		"reason":    "stayhaven withdrawal",
	}

	data, err := p.call(ctx, http.MethodPost, "/transfer", payload)
	if err != nil {
		return nil, err
	}

	var result struct {
		TransferCode string `json:"transfer_code"`
		Reference    string `json:"reference"`
	}
	if err := json.Unmarshal(data, &result); err != nil {
		return nil, fmt.Errorf("failed to decode transfer response: %w", err)
	}

	return &Handle{
		Provider:   p.Name(),
		Reference:  req.ExternalRef,
		GatewayRef: result.TransferCode,
	}, nil
}

func (p *Paystack) Refund(ctx context.Context, req RefundRequest) (*Handle, error) {
	payload := map[string]interface{}{
		"transaction": req.GatewayRef,
		"amount":      toMinorUnits(req.Amount),
	}

	data, err := p.call(ctx, http.MethodPost, "/refund", payload)
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
		Provider:   p.Name(),
		Reference:  req.ExternalRef,
		GatewayRef: fmt.Sprintf("%d", result.ID),
	}, nil
}

func (p *Paystack) VerifyByReference(ctx context.Context, externalRef string) (*VerificationResult, error) {
	data, err := p.call(ctx, http.MethodGet, "/transaction/verify/"+externalRef, nil)
	if err != nil {
		return nil, err
	}

	var result struct {
		ID       int64  `json:"id"`
		Status   string `json:"status"`
		Amount   int64  `json:"amount"`
		Currency string `json:"currency"`
	}
	if err := json.Unmarshal(data, &result); err != nil {
		return nil, fmt.Errorf("failed to decode verify response: %w", err)
	}

	return &VerificationResult{
		Status:     paystackStatus(result.Status),
		Amount:     fromMinorUnits(result.Amount),
		Currency:   result.Currency,
		GatewayRef: fmt.Sprintf("%d", result.ID),
	}, nil
}

func (p *Paystack) VerifyWebhook(headers http.Header, body []byte) error {
	signature := headers.Get("x-paystack-signature")
	if signature == "" {
		return ErrInvalidSignature
	}

	mac := hmac.New(sha512.New, []byte(p.secretKey))
	mac.Write(body)
	expected := hex.EncodeToString(mac.Sum(nil))

	if !hmac.Equal([]byte(expected), []byte(signature)) {
		return ErrInvalidSignature
	}
	return nil
}

func (p *Paystack) ParseWebhook(body []byte) (*WebhookEvent, error) {
	var payload struct {
		Event string `json:"event"`
		Data  struct {
			ID        int64  `json:"id"`
			Reference string `json:"reference"`
			Amount    int64  `json:"amount"`
			Currency  string `json:"currency"`
			Status    string `json:"status"`
		} `json:"data"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("failed to decode webhook payload: %w", err)
	}

	status := paystackStatus(payload.Data.Status)
	switch payload.Event {
	case "charge.success", "transfer.success":
		status = StatusSuccess
	case "charge.failed", "transfer.failed", "transfer.reversed":
		status = StatusFailed
	}

	return &WebhookEvent{
		Provider:    p.Name(),
		EventType:   payload.Event,
		ExternalRef: payload.Data.Reference,
		GatewayRef:  fmt.Sprintf("%d", payload.Data.ID),
		Amount:      fromMinorUnits(payload.Data.Amount),
		Currency:    payload.Data.Currency,
		Status:      status,
	}, nil
}

func paystackStatus(s string) EventStatus {
	switch s {
	case "success":
		return StatusSuccess
	case "failed", "reversed", "abandoned":
		return StatusFailed
	default:
		return StatusPending
	}
}

func toMinorUnits(amount decimal.Decimal) int64 {
	return amount.Mul(decimal.NewFromInt(100)).Round(0).IntPart()
}

func fromMinorUnits(amount int64) decimal.Decimal {
	return decimal.NewFromInt(amount).Div(decimal.NewFromInt(100))
}
