package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

type WalletStatus string

const (
	WalletStatusActive    WalletStatus = "ACTIVE"
	WalletStatusSuspended WalletStatus = "SUSPENDED"
)

// Wallet is one user's balance in a single currency. The balance is a cached
// total; the transaction ledger is the source of truth.
type Wallet struct {
	ID        string          `json:"id"`
	UserID    string          `json:"user_id"`
	Balance   decimal.Decimal `json:"balance"`
	Currency  string          `json:"currency"`
	Status    WalletStatus    `json:"status"`
	Version   int64           `json:"version"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

type TransactionType string

const (
	TransactionTypeDeposit         TransactionType = "DEPOSIT"
	TransactionTypeWithdrawal      TransactionType = "WITHDRAWAL"
	TransactionTypeBookingPayment  TransactionType = "BOOKING_PAYMENT"
	TransactionTypeEscrowHold      TransactionType = "ESCROW_HOLD"
	TransactionTypeEscrowRelease   TransactionType = "ESCROW_RELEASE"
	TransactionTypeHostPayout      TransactionType = "HOST_PAYOUT"
	TransactionTypeBookingRefund   TransactionType = "BOOKING_REFUND"
	TransactionTypePlatformFee     TransactionType = "PLATFORM_FEE"
	TransactionTypeAdminAdjustment TransactionType = "ADMIN_ADJUSTMENT"
)

type TransactionStatus string

const (
	TransactionStatusPending   TransactionStatus = "PENDING"
	TransactionStatusCompleted TransactionStatus = "COMPLETED"
	TransactionStatusFailed    TransactionStatus = "FAILED"
	TransactionStatusReversed  TransactionStatus = "REVERSED"
	// TransactionStatusUnmatched flags a gateway event that arrived for a
	// reference never issued locally. Kept for manual review, never credited.
	TransactionStatusUnmatched TransactionStatus = "UNMATCHED"
)

type EscrowStatus string

const (
	EscrowStatusHeld     EscrowStatus = "HELD"
	EscrowStatusReleased EscrowStatus = "RELEASED"
	EscrowStatusRefunded EscrowStatus = "REFUNDED"
)

// Transaction is an immutable ledger record. Amount is signed: credits are
// positive, debits negative. Amount and Type never change after creation;
// only Status, EscrowStatus, GatewayRef, FailureReason and ProcessedAt may
// transition.
type Transaction struct {
	ID            string            `json:"id"`
	WalletID      *string           `json:"wallet_id,omitempty"` // nil when funds are held at the gateway
	UserID        *string           `json:"user_id,omitempty"`
	BookingID     *string           `json:"booking_id,omitempty"`
	Type          TransactionType   `json:"type"`
	Status        TransactionStatus `json:"status"`
	EscrowStatus  EscrowStatus      `json:"escrow_status,omitempty"` // escrow holds only
	Amount        decimal.Decimal   `json:"amount"`
	Currency      string            `json:"currency"`
	Description   string            `json:"description"`
	ExternalRef   *string           `json:"external_ref,omitempty"`
	GatewayRef    *string           `json:"gateway_ref,omitempty"`
	Metadata      map[string]string `json:"metadata,omitempty"`
	FailureReason string            `json:"failure_reason,omitempty"`
	CreatedAt     time.Time         `json:"created_at"`
	ProcessedAt   *time.Time        `json:"processed_at,omitempty"`
}

// IsTerminal reports whether the transaction can no longer transition.
func (t *Transaction) IsTerminal() bool {
	switch t.Status {
	case TransactionStatusCompleted, TransactionStatusFailed,
		TransactionStatusReversed, TransactionStatusUnmatched:
		return true
	}
	return false
}

// WalletFunded reports whether the transaction has a wallet leg, i.e. its
// amount was (or will be) applied to a wallet balance.
func (t *Transaction) WalletFunded() bool {
	return t.WalletID != nil
}
