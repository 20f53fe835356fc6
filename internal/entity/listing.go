package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

type ListingStatus string

const (
	ListingStatusActive   ListingStatus = "ACTIVE"
	ListingStatusInactive ListingStatus = "INACTIVE"
)

type Listing struct {
	ID          string          `json:"id"`
	HostUserID  string          `json:"host_user_id"`
	Title       string          `json:"title"`
	Description string          `json:"description"`
	City        string          `json:"city"`
	Address     string          `json:"address"`
	NightlyRate decimal.Decimal `json:"nightly_rate"`
	Currency    string          `json:"currency"`
	MaxGuests   int             `json:"max_guests"`
	Status      ListingStatus   `json:"status"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

type Review struct {
	ID        string    `json:"id"`
	ListingID string    `json:"listing_id"`
	UserID    string    `json:"user_id"`
	Rating    int       `json:"rating"`
	Comment   string    `json:"comment"`
	CreatedAt time.Time `json:"created_at"`
}

type Favorite struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	ListingID string    `json:"listing_id"`
	CreatedAt time.Time `json:"created_at"`
}
