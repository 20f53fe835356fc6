package persistent

import (
	"stayhaven/internal/entity"
	"stayhaven/internal/model"

	"gorm.io/gorm"
)

// ListingSearch narrows listing queries. Zero values mean "any".
type ListingSearch struct {
	City      string
	MaxGuests int
	Status    entity.ListingStatus
}

type ListingRepository interface {
	CreateListing(listing *entity.Listing) error
	GetListingByID(id string) (*entity.Listing, error)
	UpdateListing(listing *entity.Listing) error
	SearchListings(search ListingSearch, limit, offset int) ([]*entity.Listing, error)
	GetListingsByHost(hostUserID string) ([]*entity.Listing, error)

	CreateReview(review *entity.Review) error
	GetReviewsByListing(listingID string, limit, offset int) ([]*entity.Review, error)

	AddFavorite(favorite *entity.Favorite) error
	RemoveFavorite(userID, listingID string) error
	GetFavoritesByUser(userID string) ([]*entity.Listing, error)
}

type listingRepository struct {
	db *gorm.DB
}

func NewListingRepository(db *gorm.DB) ListingRepository {
	return &listingRepository{db: db}
}

func (r *listingRepository) CreateListing(listing *entity.Listing) error {
	listingModel := ToListingModel(listing)
	if err := r.db.Create(listingModel).Error; err != nil {
		return err
	}
	listing.ID = listingModel.ID
	listing.CreatedAt = listingModel.CreatedAt
	return nil
}

func (r *listingRepository) GetListingByID(id string) (*entity.Listing, error) {
	var listingModel model.ListingModel
	if err := r.db.Where("id = ?", id).First(&listingModel).Error; err != nil {
		return nil, err
	}
	return ToListingEntity(&listingModel), nil
}

func (r *listingRepository) UpdateListing(listing *entity.Listing) error {
	listingModel := ToListingModel(listing)
	return r.db.Save(listingModel).Error
}

func (r *listingRepository) SearchListings(search ListingSearch, limit, offset int) ([]*entity.Listing, error) {
	query := r.db.Order("created_at DESC")
	if search.City != "" {
		query = query.Where("city = ?", search.City)
	}
	if search.MaxGuests > 0 {
		query = query.Where("max_guests >= ?", search.MaxGuests)
	}
	if search.Status != "" {
		query = query.Where("status = ?", string(search.Status))
	}
	if limit > 0 {
		query = query.Limit(limit).Offset(offset)
	}

	var listingModels []model.ListingModel
	if err := query.Find(&listingModels).Error; err != nil {
		return nil, err
	}

	listings := make([]*entity.Listing, len(listingModels))
	for i := range listingModels {
		listings[i] = ToListingEntity(&listingModels[i])
	}
	return listings, nil
}

func (r *listingRepository) GetListingsByHost(hostUserID string) ([]*entity.Listing, error) {
	var listingModels []model.ListingModel
	err := r.db.Where("host_user_id = ?", hostUserID).
		Order("created_at DESC").
		Find(&listingModels).Error
	if err != nil {
		return nil, err
	}

	listings := make([]*entity.Listing, len(listingModels))
	for i := range listingModels {
		listings[i] = ToListingEntity(&listingModels[i])
	}
	return listings, nil
}

func (r *listingRepository) CreateReview(review *entity.Review) error {
	reviewModel := ToReviewModel(review)
	if err := r.db.Create(reviewModel).Error; err != nil {
		return err
	}
	review.ID = reviewModel.ID
	review.CreatedAt = reviewModel.CreatedAt
	return nil
}

func (r *listingRepository) GetReviewsByListing(listingID string, limit, offset int) ([]*entity.Review, error) {
	query := r.db.Where("listing_id = ?", listingID).Order("created_at DESC")
	if limit > 0 {
		query = query.Limit(limit).Offset(offset)
	}

	var reviewModels []model.ReviewModel
	if err := query.Find(&reviewModels).Error; err != nil {
		return nil, err
	}

	reviews := make([]*entity.Review, len(reviewModels))
	for i := range reviewModels {
		reviews[i] = ToReviewEntity(&reviewModels[i])
	}
	return reviews, nil
}

func (r *listingRepository) AddFavorite(favorite *entity.Favorite) error {
	favoriteModel := &model.FavoriteModel{
		UserID:    favorite.UserID,
		ListingID: favorite.ListingID,
	}
	if err := r.db.Create(favoriteModel).Error; err != nil {
		return err
	}
	favorite.ID = favoriteModel.ID
	favorite.CreatedAt = favoriteModel.CreatedAt
	return nil
}

func (r *listingRepository) RemoveFavorite(userID, listingID string) error {
	return r.db.Where("user_id = ? AND listing_id = ?", userID, listingID).
		Delete(&model.FavoriteModel{}).Error
}

func (r *listingRepository) GetFavoritesByUser(userID string) ([]*entity.Listing, error) {
	var listingModels []model.ListingModel
	err := r.db.
		Joins("JOIN favorites ON favorites.listing_id = listings.id").
		Where("favorites.user_id = ?", userID).
		Order("favorites.created_at DESC").
		Find(&listingModels).Error
	if err != nil {
		return nil, err
	}

	listings := make([]*entity.Listing, len(listingModels))
	for i := range listingModels {
		listings[i] = ToListingEntity(&listingModels[i])
	}
	return listings, nil
}
