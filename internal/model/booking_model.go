package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type BookingModel struct {
	ID            string          `gorm:"type:uuid;primary_key" json:"id"`
	ListingID     string          `gorm:"type:uuid;not null;index" json:"listing_id"`
	GuestUserID   string          `gorm:"type:uuid;not null;index" json:"guest_user_id"`
	HostUserID    string          `gorm:"type:uuid;not null;index" json:"host_user_id"`
	CheckIn       time.Time       `gorm:"not null" json:"check_in"`
	CheckOut      time.Time       `gorm:"not null" json:"check_out"`
	Nights        int             `gorm:"not null" json:"nights"`
	TotalAmount   decimal.Decimal `gorm:"type:numeric(20,2);not null" json:"total_amount"`
	Currency      string          `gorm:"type:varchar(3);not null" json:"currency"`
	Status        string          `gorm:"type:varchar(20);not null;index" json:"status"`
	PaymentMethod string          `gorm:"type:varchar(10)" json:"payment_method,omitempty"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

func (BookingModel) TableName() string {
	return "bookings"
}

func (b *BookingModel) BeforeCreate(tx *gorm.DB) error {
	if b.ID == "" {
		b.ID = uuid.New().String()
	}
	return nil
}
