package usecase

import (
	"context"
	"fmt"
	"time"

	"stayhaven/internal/entity"
	"stayhaven/internal/repo/persistent"
	"stayhaven/pkg/cache"
	"stayhaven/pkg/logger"

	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
)

const listingCacheTTL = 5 * time.Minute

type CreateListingInput struct {
	Title       string          `json:"title"`
	Description string          `json:"description"`
	City        string          `json:"city"`
	Address     string          `json:"address"`
	NightlyRate decimal.Decimal `json:"nightly_rate"`
	Currency    string          `json:"currency"`
	MaxGuests   int             `json:"max_guests"`
}

type ListingUseCase interface {
	CreateListing(hostUserID string, input CreateListingInput) (*entity.Listing, error)
	GetListing(ctx context.Context, listingID string) (*entity.Listing, error)
	UpdateListing(hostUserID, listingID string, input CreateListingInput) (*entity.Listing, error)
	DeactivateListing(hostUserID, listingID string) error
	SearchListings(search persistent.ListingSearch, limit, offset int) ([]*entity.Listing, error)
	GetListingsByHost(hostUserID string) ([]*entity.Listing, error)

	AddReview(userID, listingID string, rating int, comment string) (*entity.Review, error)
	GetReviews(listingID string, limit, offset int) ([]*entity.Review, error)

	AddFavorite(userID, listingID string) error
	RemoveFavorite(userID, listingID string) error
	GetFavorites(userID string) ([]*entity.Listing, error)
}

type listingUseCase struct {
	listingRepo persistent.ListingRepository
	redisClient *redis.Client
	logger      *logger.Logger
}

func NewListingUseCase(listingRepo persistent.ListingRepository, redisClient *redis.Client, log *logger.Logger) ListingUseCase {
	return &listingUseCase{
		listingRepo: listingRepo,
		redisClient: redisClient,
		logger:      log,
	}
}

func listingCacheKey(listingID string) string {
	return "listing:" + listingID
}

func (uc *listingUseCase) CreateListing(hostUserID string, input CreateListingInput) (*entity.Listing, error) {
	if input.Title == "" || input.City == "" {
		return nil, fmt.Errorf("title and city are required")
	}
	if !input.NightlyRate.IsPositive() {
		return nil, ErrInvalidAmount
	}
	if input.MaxGuests < 1 {
		input.MaxGuests = 1
	}

	listing := &entity.Listing{
		HostUserID:  hostUserID,
		Title:       input.Title,
		Description: input.Description,
		City:        input.City,
		Address:     input.Address,
		NightlyRate: input.NightlyRate,
		Currency:    input.Currency,
		MaxGuests:   input.MaxGuests,
		Status:      entity.ListingStatusActive,
	}
	if err := uc.listingRepo.CreateListing(listing); err != nil {
		uc.logger.Error("Failed to create listing: %v", err)
		return nil, fmt.Errorf("failed to create listing: %w", err)
	}
	return listing, nil
}

func (uc *listingUseCase) GetListing(ctx context.Context, listingID string) (*entity.Listing, error) {
	if uc.redisClient != nil {
		var cached entity.Listing
		found, err := cache.Get(ctx, uc.redisClient, listingCacheKey(listingID), &cached)
		if err != nil {
			uc.logger.Warn("Listing cache read failed: %v", err)
		}
		if found {
			return &cached, nil
		}
	}

	listing, err := uc.listingRepo.GetListingByID(listingID)
	if err != nil {
		return nil, err
	}

	if uc.redisClient != nil {
		if err := cache.Set(ctx, uc.redisClient, listingCacheKey(listingID), listing, listingCacheTTL); err != nil {
			uc.logger.Warn("Listing cache write failed: %v", err)
		}
	}
	return listing, nil
}

func (uc *listingUseCase) UpdateListing(hostUserID, listingID string, input CreateListingInput) (*entity.Listing, error) {
	listing, err := uc.listingRepo.GetListingByID(listingID)
	if err != nil {
		return nil, err
	}
	if listing.HostUserID != hostUserID {
		return nil, ErrNotOwner
	}

	if input.Title != "" {
		listing.Title = input.Title
	}
	if input.Description != "" {
		listing.Description = input.Description
	}
	if input.City != "" {
		listing.City = input.City
	}
	if input.Address != "" {
		listing.Address = input.Address
	}
	if input.NightlyRate.IsPositive() {
		listing.NightlyRate = input.NightlyRate
	}
	if input.MaxGuests > 0 {
		listing.MaxGuests = input.MaxGuests
	}

	if err := uc.listingRepo.UpdateListing(listing); err != nil {
		return nil, err
	}
	uc.invalidateListingCache(listingID)
	return listing, nil
}

func (uc *listingUseCase) DeactivateListing(hostUserID, listingID string) error {
	listing, err := uc.listingRepo.GetListingByID(listingID)
	if err != nil {
		return err
	}
	if listing.HostUserID != hostUserID {
		return ErrNotOwner
	}

	listing.Status = entity.ListingStatusInactive
	if err := uc.listingRepo.UpdateListing(listing); err != nil {
		return err
	}
	uc.invalidateListingCache(listingID)
	return nil
}

func (uc *listingUseCase) SearchListings(search persistent.ListingSearch, limit, offset int) ([]*entity.Listing, error) {
	if search.Status == "" {
		search.Status = entity.ListingStatusActive
	}
	return uc.listingRepo.SearchListings(search, limit, offset)
}

func (uc *listingUseCase) GetListingsByHost(hostUserID string) ([]*entity.Listing, error) {
	return uc.listingRepo.GetListingsByHost(hostUserID)
}

func (uc *listingUseCase) AddReview(userID, listingID string, rating int, comment string) (*entity.Review, error) {
	if rating < 1 || rating > 5 {
		return nil, ErrInvalidRating
	}
	if _, err := uc.listingRepo.GetListingByID(listingID); err != nil {
		return nil, err
	}

	review := &entity.Review{
		ListingID: listingID,
		UserID:    userID,
		Rating:    rating,
		Comment:   comment,
	}
	if err := uc.listingRepo.CreateReview(review); err != nil {
		return nil, fmt.Errorf("failed to create review: %w", err)
	}
	return review, nil
}

func (uc *listingUseCase) GetReviews(listingID string, limit, offset int) ([]*entity.Review, error) {
	return uc.listingRepo.GetReviewsByListing(listingID, limit, offset)
}

func (uc *listingUseCase) AddFavorite(userID, listingID string) error {
	if _, err := uc.listingRepo.GetListingByID(listingID); err != nil {
		return err
	}
	return uc.listingRepo.AddFavorite(&entity.Favorite{
		UserID:    userID,
		ListingID: listingID,
	})
}

func (uc *listingUseCase) RemoveFavorite(userID, listingID string) error {
	return uc.listingRepo.RemoveFavorite(userID, listingID)
}

func (uc *listingUseCase) GetFavorites(userID string) ([]*entity.Listing, error) {
	return uc.listingRepo.GetFavoritesByUser(userID)
}

func (uc *listingUseCase) invalidateListingCache(listingID string) {
	if uc.redisClient == nil {
		return
	}
	if err := cache.Delete(context.Background(), uc.redisClient, listingCacheKey(listingID)); err != nil {
		uc.logger.Warn("Listing cache invalidation failed: %v", err)
	}
}
