package http

import (
	"errors"
	"net/http"
	"strconv"

	"stayhaven/internal/usecase"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// statusFor maps engine errors onto HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound),
		errors.Is(err, usecase.ErrHoldNotFound),
		errors.Is(err, usecase.ErrTransactionNotFound):
		return http.StatusNotFound
	case errors.Is(err, usecase.ErrInvalidAmount),
		errors.Is(err, usecase.ErrInsufficientFunds),
		errors.Is(err, usecase.ErrInvalidDates),
		errors.Is(err, usecase.ErrInvalidRating),
		errors.Is(err, usecase.ErrBookingNotPayable),
		errors.Is(err, usecase.ErrBookingNotPaid),
		errors.Is(err, usecase.ErrListingInactive),
		errors.Is(err, usecase.ErrOwnListing):
		return http.StatusBadRequest
	case errors.Is(err, usecase.ErrDuplicateHold),
		errors.Is(err, usecase.ErrAlreadyReleased),
		errors.Is(err, usecase.ErrAlreadyRefunded),
		errors.Is(err, usecase.ErrBookingUnavailable):
		return http.StatusConflict
	case errors.Is(err, usecase.ErrNotBookingParty),
		errors.Is(err, usecase.ErrNotOwner),
		errors.Is(err, usecase.ErrWalletSuspended):
		return http.StatusForbidden
	case errors.Is(err, usecase.ErrUnverifiedEvent):
		return http.StatusUnauthorized
	case errors.Is(err, usecase.ErrGatewayUnavailable):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func respondError(c *gin.Context, err error) {
	c.JSON(statusFor(err), gin.H{"error": err.Error()})
}

func pagination(c *gin.Context) (int, int) {
	limit := 50
	offset := 0
	if limitStr := c.Query("limit"); limitStr != "" {
		if l, err := strconv.Atoi(limitStr); err == nil && l > 0 && l <= 100 {
			limit = l
		}
	}
	if offsetStr := c.Query("offset"); offsetStr != "" {
		if o, err := strconv.Atoi(offsetStr); err == nil && o >= 0 {
			offset = o
		}
	}
	return limit, offset
}
