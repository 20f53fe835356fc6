package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type WalletModel struct {
	ID        string          `gorm:"type:uuid;primary_key" json:"id"`
	UserID    string          `gorm:"type:uuid;not null;index:idx_wallets_user_currency,unique" json:"user_id"`
	Balance   decimal.Decimal `gorm:"type:numeric(20,2);not null;default:0" json:"balance"`
	Currency  string          `gorm:"type:varchar(3);not null;index:idx_wallets_user_currency,unique" json:"currency"`
	Status    string          `gorm:"type:varchar(20);not null;default:'ACTIVE'" json:"status"`
	Version   int64           `gorm:"not null;default:0" json:"version"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

func (WalletModel) TableName() string {
	return "wallets"
}

func (w *WalletModel) BeforeCreate(tx *gorm.DB) error {
	if w.ID == "" {
		w.ID = uuid.New().String()
	}
	return nil
}

type TransactionModel struct {
	ID            string          `gorm:"type:uuid;primary_key" json:"id"`
	WalletID      *string         `gorm:"type:uuid;index" json:"wallet_id,omitempty"`
	UserID        *string         `gorm:"type:uuid;index" json:"user_id,omitempty"`
	BookingID     *string         `gorm:"type:uuid;index" json:"booking_id,omitempty"`
	Type          string          `gorm:"type:varchar(30);not null;index" json:"type"`
	Status        string          `gorm:"type:varchar(20);not null;index" json:"status"`
	EscrowStatus  string          `gorm:"type:varchar(20)" json:"escrow_status,omitempty"`
	Amount        decimal.Decimal `gorm:"type:numeric(20,2);not null" json:"amount"`
	Currency      string          `gorm:"type:varchar(3);not null" json:"currency"`
	Description   string          `gorm:"type:text" json:"description"`
	ExternalRef   *string         `gorm:"type:varchar(100);uniqueIndex" json:"external_ref,omitempty"`
	GatewayRef    *string         `gorm:"type:varchar(100)" json:"gateway_ref,omitempty"`
	Metadata      string          `gorm:"type:jsonb" json:"metadata,omitempty"`
	FailureReason string          `gorm:"type:text" json:"failure_reason,omitempty"`
	CreatedAt     time.Time       `gorm:"index" json:"created_at"`
	ProcessedAt   *time.Time      `json:"processed_at,omitempty"`
}

func (TransactionModel) TableName() string {
	return "transactions"
}

func (t *TransactionModel) BeforeCreate(tx *gorm.DB) error {
	if t.ID == "" {
		t.ID = uuid.New().String()
	}
	return nil
}
