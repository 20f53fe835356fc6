package http

import (
	"net/http"
	"time"

	"stayhaven/internal/entity"
	"stayhaven/internal/usecase"
	"stayhaven/pkg/logger"

	"github.com/gin-gonic/gin"
)

type BookingHandler struct {
	bookingUseCase usecase.BookingUseCase
	logger         *logger.Logger
}

func NewBookingHandler(bookingUseCase usecase.BookingUseCase, logger *logger.Logger) *BookingHandler {
	return &BookingHandler{
		bookingUseCase: bookingUseCase,
		logger:         logger,
	}
}

type CreateBookingRequest struct {
	ListingID string `json:"listing_id" binding:"required,uuid"`
	CheckIn   string `json:"check_in" binding:"required"`
	CheckOut  string `json:"check_out" binding:"required"`
}

type PayBookingRequest struct {
	Method entity.PaymentMethod `json:"method" binding:"required"`
	Email  string               `json:"email"`
}

// CreateBooking godoc
// @Summary      Create a booking
// @Description  Reserve a listing for a date range, pending payment
// @Tags         bookings
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request body CreateBookingRequest true "Listing and stay dates (YYYY-MM-DD)"
// @Success      201  {object}  entity.Booking
// @Failure      400  {object}  map[string]string
// @Failure      409  {object}  map[string]string
// @Router       /bookings [post]
func (h *BookingHandler) CreateBooking(c *gin.Context) {
	userID := c.GetString("user_id")

	var req CreateBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	checkIn, err := time.Parse("2006-01-02", req.CheckIn)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "check_in must be YYYY-MM-DD"})
		return
	}
	checkOut, err := time.Parse("2006-01-02", req.CheckOut)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "check_out must be YYYY-MM-DD"})
		return
	}

	booking, err := h.bookingUseCase.CreateBooking(userID, req.ListingID, checkIn, checkOut)
	if err != nil {
		h.logger.Error("Failed to create booking: %v", err)
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, booking)
}

// GetBooking godoc
// @Summary      Get a booking
// @Tags         bookings
// @Produce      json
// @Security     BearerAuth
// @Param        id path string true "Booking ID"
// @Success      200  {object}  entity.Booking
// @Failure      404  {object}  map[string]string
// @Router       /bookings/{id} [get]
func (h *BookingHandler) GetBooking(c *gin.Context) {
	booking, err := h.bookingUseCase.GetBooking(c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, booking)
}

// GetMyBookings godoc
// @Summary      List my bookings as guest
// @Tags         bookings
// @Produce      json
// @Security     BearerAuth
// @Param        limit query int false "Page size"
// @Param        offset query int false "Offset"
// @Success      200  {object}  map[string]interface{}
// @Router       /bookings [get]
func (h *BookingHandler) GetMyBookings(c *gin.Context) {
	userID := c.GetString("user_id")
	limit, offset := pagination(c)

	bookings, err := h.bookingUseCase.GetBookingsByGuest(userID, limit, offset)
	if err != nil {
		h.logger.Error("Failed to get bookings: %v", err)
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"bookings": bookings, "count": len(bookings)})
}

// GetHostBookings godoc
// @Summary      List bookings for my listings
// @Tags         bookings
// @Produce      json
// @Security     BearerAuth
// @Param        limit query int false "Page size"
// @Param        offset query int false "Offset"
// @Success      200  {object}  map[string]interface{}
// @Router       /bookings/hosting [get]
func (h *BookingHandler) GetHostBookings(c *gin.Context) {
	userID := c.GetString("user_id")
	limit, offset := pagination(c)

	bookings, err := h.bookingUseCase.GetBookingsByHost(userID, limit, offset)
	if err != nil {
		h.logger.Error("Failed to get host bookings: %v", err)
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"bookings": bookings, "count": len(bookings)})
}

// PayForBooking godoc
// @Summary      Pay for a booking
// @Description  Pay from the wallet (settles immediately) or via the gateway (returns an authorization URL)
// @Tags         bookings
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id path string true "Booking ID"
// @Param        request body PayBookingRequest true "Payment method, email required for gateway payments"
// @Success      200  {object}  usecase.PaymentResult
// @Failure      400  {object}  map[string]string
// @Router       /bookings/{id}/pay [post]
func (h *BookingHandler) PayForBooking(c *gin.Context) {
	userID := c.GetString("user_id")

	var req PayBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	result, err := h.bookingUseCase.PayForBooking(c.Request.Context(), c.Param("id"), userID, req.Email, req.Method)
	if err != nil {
		h.logger.Error("Failed to pay for booking: %v", err)
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// CompleteBooking godoc
// @Summary      Complete a booking
// @Description  Release the escrow to the host, minus the platform fee
// @Tags         bookings
// @Produce      json
// @Security     BearerAuth
// @Param        id path string true "Booking ID"
// @Success      200  {object}  entity.Booking
// @Failure      403  {object}  map[string]string
// @Router       /bookings/{id}/complete [post]
func (h *BookingHandler) CompleteBooking(c *gin.Context) {
	userID := c.GetString("user_id")
	isAdmin := c.GetString("user_role") == "admin"

	booking, err := h.bookingUseCase.CompleteBooking(c.Param("id"), userID, isAdmin)
	if err != nil {
		h.logger.Error("Failed to complete booking: %v", err)
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, booking)
}

// CancelBooking godoc
// @Summary      Cancel a booking
// @Description  Refund a paid booking in full, or cancel an unpaid one
// @Tags         bookings
// @Produce      json
// @Security     BearerAuth
// @Param        id path string true "Booking ID"
// @Success      200  {object}  entity.Booking
// @Failure      400  {object}  map[string]string
// @Router       /bookings/{id}/cancel [post]
func (h *BookingHandler) CancelBooking(c *gin.Context) {
	userID := c.GetString("user_id")
	isAdmin := c.GetString("user_role") == "admin"

	booking, err := h.bookingUseCase.CancelBooking(c.Request.Context(), c.Param("id"), userID, isAdmin)
	if err != nil {
		h.logger.Error("Failed to cancel booking: %v", err)
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, booking)
}
