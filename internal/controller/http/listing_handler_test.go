package http

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"stayhaven/internal/entity"
	"stayhaven/internal/repo/persistent"
	"stayhaven/internal/usecase"
	"stayhaven/pkg/logger"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

// MockListingUseCase is a mock implementation of ListingUseCase
type MockListingUseCase struct {
	mock.Mock
}

func (m *MockListingUseCase) CreateListing(hostUserID string, input usecase.CreateListingInput) (*entity.Listing, error) {
	args := m.Called(hostUserID, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.Listing), args.Error(1)
}

func (m *MockListingUseCase) GetListing(ctx context.Context, listingID string) (*entity.Listing, error) {
	args := m.Called(ctx, listingID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.Listing), args.Error(1)
}

func (m *MockListingUseCase) UpdateListing(hostUserID, listingID string, input usecase.CreateListingInput) (*entity.Listing, error) {
	args := m.Called(hostUserID, listingID, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.Listing), args.Error(1)
}

func (m *MockListingUseCase) DeactivateListing(hostUserID, listingID string) error {
	args := m.Called(hostUserID, listingID)
	return args.Error(0)
}

func (m *MockListingUseCase) SearchListings(search persistent.ListingSearch, limit, offset int) ([]*entity.Listing, error) {
	args := m.Called(search, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entity.Listing), args.Error(1)
}

func (m *MockListingUseCase) GetListingsByHost(hostUserID string) ([]*entity.Listing, error) {
	args := m.Called(hostUserID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entity.Listing), args.Error(1)
}

func (m *MockListingUseCase) AddReview(userID, listingID string, rating int, comment string) (*entity.Review, error) {
	args := m.Called(userID, listingID, rating, comment)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.Review), args.Error(1)
}

func (m *MockListingUseCase) GetReviews(listingID string, limit, offset int) ([]*entity.Review, error) {
	args := m.Called(listingID, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entity.Review), args.Error(1)
}

func (m *MockListingUseCase) AddFavorite(userID, listingID string) error {
	args := m.Called(userID, listingID)
	return args.Error(0)
}

func (m *MockListingUseCase) RemoveFavorite(userID, listingID string) error {
	args := m.Called(userID, listingID)
	return args.Error(0)
}

func (m *MockListingUseCase) GetFavorites(userID string) ([]*entity.Listing, error) {
	args := m.Called(userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entity.Listing), args.Error(1)
}

var _ usecase.ListingUseCase = (*MockListingUseCase)(nil)

func TestCreateListing_Success(t *testing.T) {
	mockUseCase := new(MockListingUseCase)
	handler := NewListingHandler(mockUseCase, logger.New())

	router := setupTestRouter()
	router.POST("/listings", asUser("host-1", "host", handler.CreateListing))

	input := usecase.CreateListingInput{
		Title:       "Lekki Studio",
		City:        "Lagos",
		NightlyRate: decimal.NewFromInt(250),
		MaxGuests:   2,
	}
	listing := &entity.Listing{ID: "listing-1", HostUserID: "host-1", Title: "Lekki Studio", Status: entity.ListingStatusActive}
	mockUseCase.On("CreateListing", "host-1", input).Return(listing, nil)

	body := `{"title":"Lekki Studio","city":"Lagos","nightly_rate":250,"max_guests":2}`
	w := httptest.NewRecorder()
	req, _ := http.NewRequest("POST", "/listings", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusCreated, w.Code)
	mockUseCase.AssertExpectations(t)
}

func TestUpdateListing_NotOwner(t *testing.T) {
	mockUseCase := new(MockListingUseCase)
	handler := NewListingHandler(mockUseCase, logger.New())

	router := setupTestRouter()
	router.PUT("/listings/:id", asUser("host-2", "host", handler.UpdateListing))

	mockUseCase.On("UpdateListing", "host-2", "listing-1", mock.Anything).Return(nil, usecase.ErrNotOwner)

	body := `{"title":"Taken Over"}`
	w := httptest.NewRecorder()
	req, _ := http.NewRequest("PUT", "/listings/listing-1", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusForbidden, w.Code)
	mockUseCase.AssertExpectations(t)
}

func TestSearchListings_PassesFilters(t *testing.T) {
	mockUseCase := new(MockListingUseCase)
	handler := NewListingHandler(mockUseCase, logger.New())

	router := setupTestRouter()
	router.GET("/listings", handler.SearchListings)

	search := persistent.ListingSearch{City: "Lagos", MaxGuests: 3}
	mockUseCase.On("SearchListings", search, 20, 0).
		Return([]*entity.Listing{{ID: "listing-1"}, {ID: "listing-2"}}, nil)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/listings?city=Lagos&guests=3&limit=20", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	var response map[string]interface{}
	json.Unmarshal(w.Body.Bytes(), &response)
	assert.Equal(t, float64(2), response["count"])

	mockUseCase.AssertExpectations(t)
}

func TestAddReview_InvalidRatingRejectedAtBinding(t *testing.T) {
	mockUseCase := new(MockListingUseCase)
	handler := NewListingHandler(mockUseCase, logger.New())

	router := setupTestRouter()
	router.POST("/listings/:id/reviews", asUser("guest-1", "guest", handler.AddReview))

	body := `{"rating":9,"comment":"off the scale"}`
	w := httptest.NewRecorder()
	req, _ := http.NewRequest("POST", "/listings/listing-1/reviews", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	mockUseCase.AssertNotCalled(t, "AddReview")
}

func TestAddReview_Success(t *testing.T) {
	mockUseCase := new(MockListingUseCase)
	handler := NewListingHandler(mockUseCase, logger.New())

	router := setupTestRouter()
	router.POST("/listings/:id/reviews", asUser("guest-1", "guest", handler.AddReview))

	review := &entity.Review{ID: "review-1", ListingID: "listing-1", UserID: "guest-1", Rating: 4}
	mockUseCase.On("AddReview", "guest-1", "listing-1", 4, "clean and quiet").Return(review, nil)

	body := `{"rating":4,"comment":"clean and quiet"}`
	w := httptest.NewRecorder()
	req, _ := http.NewRequest("POST", "/listings/listing-1/reviews", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusCreated, w.Code)
	mockUseCase.AssertExpectations(t)
}

func TestFavorites_RoundTrip(t *testing.T) {
	mockUseCase := new(MockListingUseCase)
	handler := NewListingHandler(mockUseCase, logger.New())

	router := setupTestRouter()
	router.POST("/listings/:id/favorite", asUser("guest-1", "guest", handler.AddFavorite))
	router.DELETE("/listings/:id/favorite", asUser("guest-1", "guest", handler.RemoveFavorite))

	mockUseCase.On("AddFavorite", "guest-1", "listing-1").Return(nil)
	mockUseCase.On("RemoveFavorite", "guest-1", "listing-1").Return(nil)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("POST", "/listings/listing-1/favorite", nil)
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	req, _ = http.NewRequest("DELETE", "/listings/listing-1/favorite", nil)
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)

	mockUseCase.AssertExpectations(t)
}
