package main

import (
	"fmt"

	"stayhaven/internal/model"
	"stayhaven/pkg/config"
	"stayhaven/pkg/database"
	"stayhaven/pkg/logger"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const (
	demoHostID  = "11111111-1111-1111-1111-111111111111"
	demoGuestID = "22222222-2222-2222-2222-222222222222"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(fmt.Sprintf("Failed to load config: %v", err))
	}

	log := logger.New()
	db, err := database.NewPostgresDB(cfg)
	if err != nil {
		log.Error("Failed to connect to database: %v", err)
		panic(err)
	}

	if err := seedDatabase(db, cfg); err != nil {
		log.Error("Failed to seed database: %v", err)
		panic(err)
	}

	log.Info("Database seeded successfully!")
}

func seedDatabase(db *gorm.DB, cfg *config.Config) error {
	wallets := []model.WalletModel{
		{UserID: cfg.PlatformUserID, Currency: cfg.DefaultCurrency, Balance: decimal.Zero, Status: "ACTIVE"},
		{UserID: demoHostID, Currency: cfg.DefaultCurrency, Balance: decimal.Zero, Status: "ACTIVE"},
		{UserID: demoGuestID, Currency: cfg.DefaultCurrency, Balance: decimal.NewFromInt(100000), Status: "ACTIVE"},
	}
	for _, w := range wallets {
		result := db.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}, {Name: "currency"}},
			DoNothing: true,
		}).Create(&w)
		if result.Error != nil {
			return fmt.Errorf("failed to seed wallet for %s: %w", w.UserID, result.Error)
		}
	}

	listings := []model.ListingModel{
		{
			HostUserID:  demoHostID,
			Title:       "Sunny 2-bed in Lekki Phase 1",
			Description: "Bright two bedroom apartment, five minutes from the beach.",
			City:        "Lagos",
			Address:     "14 Admiralty Way, Lekki Phase 1",
			NightlyRate: decimal.NewFromInt(45000),
			Currency:    cfg.DefaultCurrency,
			MaxGuests:   4,
			Status:      "ACTIVE",
		},
		{
			HostUserID:  demoHostID,
			Title:       "Studio near Yaba tech hub",
			Description: "Compact studio with fast wifi and a dedicated desk.",
			City:        "Lagos",
			Address:     "3 Herbert Macaulay Way, Yaba",
			NightlyRate: decimal.NewFromInt(22000),
			Currency:    cfg.DefaultCurrency,
			MaxGuests:   2,
			Status:      "ACTIVE",
		},
	}
	for _, l := range listings {
		var count int64
		db.Model(&model.ListingModel{}).
			Where("host_user_id = ? AND title = ?", l.HostUserID, l.Title).
			Count(&count)
		if count > 0 {
			continue
		}
		if err := db.Create(&l).Error; err != nil {
			return fmt.Errorf("failed to seed listing %q: %w", l.Title, err)
		}
	}

	return nil
}
