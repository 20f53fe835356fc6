package http

import (
	"net/http"
	"strconv"

	"stayhaven/internal/repo/persistent"
	"stayhaven/internal/usecase"
	"stayhaven/pkg/logger"

	"github.com/gin-gonic/gin"
)

type ListingHandler struct {
	listingUseCase usecase.ListingUseCase
	logger         *logger.Logger
}

func NewListingHandler(listingUseCase usecase.ListingUseCase, logger *logger.Logger) *ListingHandler {
	return &ListingHandler{
		listingUseCase: listingUseCase,
		logger:         logger,
	}
}

type ReviewRequest struct {
	Rating  int    `json:"rating" binding:"required,min=1,max=5"`
	Comment string `json:"comment"`
}

// CreateListing godoc
// @Summary      Create a listing
// @Tags         listings
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request body usecase.CreateListingInput true "Listing details"
// @Success      201  {object}  entity.Listing
// @Failure      400  {object}  map[string]string
// @Router       /listings [post]
func (h *ListingHandler) CreateListing(c *gin.Context) {
	userID := c.GetString("user_id")

	var input usecase.CreateListingInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	listing, err := h.listingUseCase.CreateListing(userID, input)
	if err != nil {
		h.logger.Error("Failed to create listing: %v", err)
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, listing)
}

// GetListing godoc
// @Summary      Get a listing
// @Tags         listings
// @Produce      json
// @Param        id path string true "Listing ID"
// @Success      200  {object}  entity.Listing
// @Failure      404  {object}  map[string]string
// @Router       /listings/{id} [get]
func (h *ListingHandler) GetListing(c *gin.Context) {
	listing, err := h.listingUseCase.GetListing(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, listing)
}

// UpdateListing godoc
// @Summary      Update a listing
// @Tags         listings
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id path string true "Listing ID"
// @Param        request body usecase.CreateListingInput true "Listing details"
// @Success      200  {object}  entity.Listing
// @Failure      403  {object}  map[string]string
// @Router       /listings/{id} [put]
func (h *ListingHandler) UpdateListing(c *gin.Context) {
	userID := c.GetString("user_id")

	var input usecase.CreateListingInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	listing, err := h.listingUseCase.UpdateListing(userID, c.Param("id"), input)
	if err != nil {
		h.logger.Error("Failed to update listing: %v", err)
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, listing)
}

// DeactivateListing godoc
// @Summary      Deactivate a listing
// @Tags         listings
// @Produce      json
// @Security     BearerAuth
// @Param        id path string true "Listing ID"
// @Success      200  {object}  map[string]string
// @Failure      403  {object}  map[string]string
// @Router       /listings/{id} [delete]
func (h *ListingHandler) DeactivateListing(c *gin.Context) {
	userID := c.GetString("user_id")

	if err := h.listingUseCase.DeactivateListing(userID, c.Param("id")); err != nil {
		h.logger.Error("Failed to deactivate listing: %v", err)
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Listing deactivated"})
}

// SearchListings godoc
// @Summary      Search listings
// @Tags         listings
// @Produce      json
// @Param        city query string false "City"
// @Param        guests query int false "Minimum guest capacity"
// @Param        limit query int false "Page size"
// @Param        offset query int false "Offset"
// @Success      200  {object}  map[string]interface{}
// @Router       /listings [get]
func (h *ListingHandler) SearchListings(c *gin.Context) {
	limit, offset := pagination(c)

	search := persistent.ListingSearch{City: c.Query("city")}
	if guests, err := strconv.Atoi(c.Query("guests")); err == nil && guests > 0 {
		search.MaxGuests = guests
	}

	listings, err := h.listingUseCase.SearchListings(search, limit, offset)
	if err != nil {
		h.logger.Error("Failed to search listings: %v", err)
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"listings": listings, "count": len(listings)})
}

// GetMyListings godoc
// @Summary      List my listings
// @Tags         listings
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  map[string]interface{}
// @Router       /listings/mine [get]
func (h *ListingHandler) GetMyListings(c *gin.Context) {
	userID := c.GetString("user_id")

	listings, err := h.listingUseCase.GetListingsByHost(userID)
	if err != nil {
		h.logger.Error("Failed to get listings: %v", err)
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"listings": listings, "count": len(listings)})
}

// AddReview godoc
// @Summary      Review a listing
// @Tags         listings
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id path string true "Listing ID"
// @Param        request body ReviewRequest true "Rating 1-5 and optional comment"
// @Success      201  {object}  entity.Review
// @Failure      400  {object}  map[string]string
// @Router       /listings/{id}/reviews [post]
func (h *ListingHandler) AddReview(c *gin.Context) {
	userID := c.GetString("user_id")

	var req ReviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	review, err := h.listingUseCase.AddReview(userID, c.Param("id"), req.Rating, req.Comment)
	if err != nil {
		h.logger.Error("Failed to add review: %v", err)
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, review)
}

// GetReviews godoc
// @Summary      List reviews for a listing
// @Tags         listings
// @Produce      json
// @Param        id path string true "Listing ID"
// @Param        limit query int false "Page size"
// @Param        offset query int false "Offset"
// @Success      200  {object}  map[string]interface{}
// @Router       /listings/{id}/reviews [get]
func (h *ListingHandler) GetReviews(c *gin.Context) {
	limit, offset := pagination(c)

	reviews, err := h.listingUseCase.GetReviews(c.Param("id"), limit, offset)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"reviews": reviews, "count": len(reviews)})
}

// AddFavorite godoc
// @Summary      Favorite a listing
// @Tags         listings
// @Produce      json
// @Security     BearerAuth
// @Param        id path string true "Listing ID"
// @Success      200  {object}  map[string]string
// @Router       /listings/{id}/favorite [post]
func (h *ListingHandler) AddFavorite(c *gin.Context) {
	userID := c.GetString("user_id")

	if err := h.listingUseCase.AddFavorite(userID, c.Param("id")); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Listing favorited"})
}

// RemoveFavorite godoc
// @Summary      Unfavorite a listing
// @Tags         listings
// @Produce      json
// @Security     BearerAuth
// @Param        id path string true "Listing ID"
// @Success      200  {object}  map[string]string
// @Router       /listings/{id}/favorite [delete]
func (h *ListingHandler) RemoveFavorite(c *gin.Context) {
	userID := c.GetString("user_id")

	if err := h.listingUseCase.RemoveFavorite(userID, c.Param("id")); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Favorite removed"})
}

// GetFavorites godoc
// @Summary      List my favorite listings
// @Tags         listings
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  map[string]interface{}
// @Router       /favorites [get]
func (h *ListingHandler) GetFavorites(c *gin.Context) {
	userID := c.GetString("user_id")

	listings, err := h.listingUseCase.GetFavorites(userID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"favorites": listings, "count": len(listings)})
}
