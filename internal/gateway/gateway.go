// Package gateway abstracts external payment processors. The engines above it
// are provider-agnostic: they see charges, transfers, refunds, verification
// results and webhook events, never provider payloads.
package gateway

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"stayhaven/pkg/config"
	"stayhaven/pkg/logger"

	"github.com/shopspring/decimal"
)

var (
	// ErrUnavailable marks network-level failures (timeouts, 5xx). The
	// initiated operation is in an unknown state and must be resolved by
	// reconciliation, never assumed failed.
	ErrUnavailable = errors.New("payment gateway unavailable")
	// ErrRejected marks a definitive refusal by the gateway.
	ErrRejected = errors.New("payment gateway rejected the request")
	// ErrInvalidSignature marks a webhook whose signature did not verify.
	ErrInvalidSignature = errors.New("invalid webhook signature")
)

type EventStatus string

const (
	StatusSuccess EventStatus = "success"
	StatusFailed  EventStatus = "failed"
	StatusPending EventStatus = "pending"
)

// ChargeRequest asks the gateway to collect money from a customer.
type ChargeRequest struct {
	Amount      decimal.Decimal
	Currency    string
	CustomerRef string
	ExternalRef string
}

// TransferRequest asks the gateway to pay out to an external account.
type TransferRequest struct {
	Amount                decimal.Decimal
	Currency              string
	DestinationAccountRef string
	ExternalRef           string
}

// RefundRequest asks the gateway to return a settled charge.
type RefundRequest struct {
	Amount      decimal.Decimal
	Currency    string
	ExternalRef string
	GatewayRef  string
}

// Handle is the gateway's acknowledgement of an initiated operation.
type Handle struct {
	Provider         string
	Reference        string
	GatewayRef       string
	AuthorizationURL string
}

// VerificationResult is the gateway's answer to a verify-by-reference poll.
type VerificationResult struct {
	Status     EventStatus
	Amount     decimal.Decimal
	Currency   string
	GatewayRef string
}

// WebhookEvent is a provider-neutral view of an inbound gateway event.
type WebhookEvent struct {
	Provider    string
	EventType   string
	ExternalRef string
	GatewayRef  string
	Amount      decimal.Decimal
	Currency    string
	Status      EventStatus
}

type PaymentGateway interface {
	Name() string
	InitiateCharge(ctx context.Context, req ChargeRequest) (*Handle, error)
	InitiateTransfer(ctx context.Context, req TransferRequest) (*Handle, error)
	Refund(ctx context.Context, req RefundRequest) (*Handle, error)
	VerifyByReference(ctx context.Context, externalRef string) (*VerificationResult, error)
	VerifyWebhook(headers http.Header, body []byte) error
	ParseWebhook(body []byte) (*WebhookEvent, error)
}

// New selects the configured provider adapter.
func New(cfg *config.Config, log *logger.Logger) (PaymentGateway, error) {
	switch cfg.PaymentProvider {
	case "paystack":
		return NewPaystack(cfg, log), nil
	case "flutterwave":
		return NewFlutterwave(cfg, log), nil
	case "flutterwave_oauth":
		return NewFlutterwaveOAuth(cfg, log), nil
	default:
		return nil, fmt.Errorf("unknown payment provider: %s", cfg.PaymentProvider)
	}
}
