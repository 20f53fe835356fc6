package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type ListingModel struct {
	ID          string          `gorm:"type:uuid;primary_key" json:"id"`
	HostUserID  string          `gorm:"type:uuid;not null;index" json:"host_user_id"`
	Title       string          `gorm:"type:varchar(200);not null" json:"title"`
	Description string          `gorm:"type:text" json:"description"`
	City        string          `gorm:"type:varchar(100);not null;index" json:"city"`
	Address     string          `gorm:"type:varchar(255)" json:"address"`
	NightlyRate decimal.Decimal `gorm:"type:numeric(20,2);not null" json:"nightly_rate"`
	Currency    string          `gorm:"type:varchar(3);not null" json:"currency"`
	MaxGuests   int             `gorm:"not null;default:1" json:"max_guests"`
	Status      string          `gorm:"type:varchar(20);not null;default:'ACTIVE'" json:"status"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

func (ListingModel) TableName() string {
	return "listings"
}

func (l *ListingModel) BeforeCreate(tx *gorm.DB) error {
	if l.ID == "" {
		l.ID = uuid.New().String()
	}
	return nil
}

type ReviewModel struct {
	ID        string    `gorm:"type:uuid;primary_key" json:"id"`
	ListingID string    `gorm:"type:uuid;not null;index:idx_reviews_listing_user,unique" json:"listing_id"`
	UserID    string    `gorm:"type:uuid;not null;index:idx_reviews_listing_user,unique" json:"user_id"`
	Rating    int       `gorm:"not null" json:"rating"`
	Comment   string    `gorm:"type:text" json:"comment"`
	CreatedAt time.Time `json:"created_at"`
}

func (ReviewModel) TableName() string {
	return "reviews"
}

func (r *ReviewModel) BeforeCreate(tx *gorm.DB) error {
	if r.ID == "" {
		r.ID = uuid.New().String()
	}
	return nil
}

type FavoriteModel struct {
	ID        string    `gorm:"type:uuid;primary_key" json:"id"`
	UserID    string    `gorm:"type:uuid;not null;index:idx_favorites_user_listing,unique" json:"user_id"`
	ListingID string    `gorm:"type:uuid;not null;index:idx_favorites_user_listing,unique" json:"listing_id"`
	CreatedAt time.Time `json:"created_at"`
}

func (FavoriteModel) TableName() string {
	return "favorites"
}

func (f *FavoriteModel) BeforeCreate(tx *gorm.DB) error {
	if f.ID == "" {
		f.ID = uuid.New().String()
	}
	return nil
}
