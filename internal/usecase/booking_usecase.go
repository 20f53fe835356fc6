package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"stayhaven/internal/entity"
	"stayhaven/internal/gateway"
	"stayhaven/internal/repo/persistent"
	"stayhaven/pkg/config"
	"stayhaven/pkg/logger"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// PaymentResult is what PayForBooking hands back to the controller. For
// gateway payments the caller must redirect the guest to AuthorizationURL.
type PaymentResult struct {
	Booking          *entity.Booking     `json:"booking"`
	Transaction      *entity.Transaction `json:"transaction"`
	AuthorizationURL string              `json:"authorization_url,omitempty"`
}

type BookingUseCase interface {
	CreateBooking(guestUserID, listingID string, checkIn, checkOut time.Time) (*entity.Booking, error)
	GetBooking(bookingID string) (*entity.Booking, error)
	GetBookingsByGuest(guestUserID string, limit, offset int) ([]*entity.Booking, error)
	GetBookingsByHost(hostUserID string, limit, offset int) ([]*entity.Booking, error)
	PayForBooking(ctx context.Context, bookingID, guestUserID, customerRef string, method entity.PaymentMethod) (*PaymentResult, error)
	CompleteBooking(bookingID, callerUserID string, isAdmin bool) (*entity.Booking, error)
	CancelBooking(ctx context.Context, bookingID, callerUserID string, isAdmin bool) (*entity.Booking, error)
}

type bookingUseCase struct {
	bookingRepo persistent.BookingRepository
	listingRepo persistent.ListingRepository
	walletRepo  persistent.WalletRepository
	walletUC    WalletUseCase
	gateway     gateway.PaymentGateway
	cfg         *config.Config
	logger      *logger.Logger
}

func NewBookingUseCase(
	bookingRepo persistent.BookingRepository,
	listingRepo persistent.ListingRepository,
	walletRepo persistent.WalletRepository,
	walletUC WalletUseCase,
	gw gateway.PaymentGateway,
	cfg *config.Config,
	log *logger.Logger,
) BookingUseCase {
	return &bookingUseCase{
		bookingRepo: bookingRepo,
		listingRepo: listingRepo,
		walletRepo:  walletRepo,
		walletUC:    walletUC,
		gateway:     gw,
		cfg:         cfg,
		logger:      log,
	}
}

func (uc *bookingUseCase) CreateBooking(guestUserID, listingID string, checkIn, checkOut time.Time) (*entity.Booking, error) {
	if !checkOut.After(checkIn) {
		return nil, ErrInvalidDates
	}

	listing, err := uc.listingRepo.GetListingByID(listingID)
	if err != nil {
		return nil, fmt.Errorf("failed to load listing: %w", err)
	}
	if listing.Status != entity.ListingStatusActive {
		return nil, ErrListingInactive
	}
	if listing.HostUserID == guestUserID {
		return nil, ErrOwnListing
	}

	overlapping, err := uc.bookingRepo.HasOverlappingBooking(listingID, checkIn, checkOut)
	if err != nil {
		return nil, err
	}
	if overlapping {
		return nil, ErrBookingUnavailable
	}

	nights := int(checkOut.Sub(checkIn).Hours() / 24)
	if nights < 1 {
		nights = 1
	}
	total := listing.NightlyRate.Mul(decimal.NewFromInt(int64(nights)))

	booking := &entity.Booking{
		ListingID:   listingID,
		GuestUserID: guestUserID,
		HostUserID:  listing.HostUserID,
		CheckIn:     checkIn,
		CheckOut:    checkOut,
		Nights:      nights,
		TotalAmount: total,
		Currency:    listing.Currency,
		Status:      entity.BookingStatusPendingPayment,
	}
	if err := uc.bookingRepo.CreateBooking(booking); err != nil {
		uc.logger.Error("Failed to create booking: %v", err)
		return nil, fmt.Errorf("failed to create booking: %w", err)
	}
	return booking, nil
}

func (uc *bookingUseCase) GetBooking(bookingID string) (*entity.Booking, error) {
	booking, err := uc.bookingRepo.GetBookingByID(bookingID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to load booking: %w", err)
	}
	return booking, nil
}

func (uc *bookingUseCase) GetBookingsByGuest(guestUserID string, limit, offset int) ([]*entity.Booking, error) {
	return uc.bookingRepo.GetBookingsByGuest(guestUserID, limit, offset)
}

func (uc *bookingUseCase) GetBookingsByHost(hostUserID string, limit, offset int) ([]*entity.Booking, error) {
	return uc.bookingRepo.GetBookingsByHost(hostUserID, limit, offset)
}

func (uc *bookingUseCase) PayForBooking(ctx context.Context, bookingID, guestUserID, customerRef string, method entity.PaymentMethod) (*PaymentResult, error) {
	booking, err := uc.bookingRepo.GetBookingByID(bookingID)
	if err != nil {
		return nil, err
	}
	if booking.GuestUserID != guestUserID {
		return nil, ErrNotBookingParty
	}
	if booking.Status != entity.BookingStatusPendingPayment {
		return nil, ErrBookingNotPayable
	}

	switch method {
	case entity.PaymentMethodWallet:
		return uc.payFromWallet(booking)
	case entity.PaymentMethodGateway:
		return uc.payViaGateway(ctx, booking, customerRef)
	default:
		return nil, fmt.Errorf("unsupported payment method %s", method)
	}
}

func (uc *bookingUseCase) payFromWallet(booking *entity.Booking) (*PaymentResult, error) {
	hold, err := uc.walletUC.HoldEscrow(booking.GuestUserID, booking.ID, booking.TotalAmount)
	if err != nil {
		return nil, err
	}

	booking.Status = entity.BookingStatusPaid
	booking.PaymentMethod = entity.PaymentMethodWallet
	if err := uc.bookingRepo.UpdateBooking(booking); err != nil {
		uc.logger.Error("Booking %s paid but status update failed: %v", booking.ID, err)
		return nil, err
	}
	return &PaymentResult{Booking: booking, Transaction: hold}, nil
}

// payViaGateway records a PENDING charge and hands the checkout URL back.
// The booking stays PENDING_PAYMENT until the webhook settles the charge.
func (uc *bookingUseCase) payViaGateway(ctx context.Context, booking *entity.Booking, customerRef string) (*PaymentResult, error) {
	externalRef := "bk_" + uuid.New().String()
	transaction := &entity.Transaction{
		UserID:      &booking.GuestUserID,
		BookingID:   &booking.ID,
		Type:        entity.TransactionTypeBookingPayment,
		Status:      entity.TransactionStatusPending,
		Amount:      booking.TotalAmount,
		Currency:    booking.Currency,
		Description: "Booking payment via " + uc.gateway.Name(),
		ExternalRef: &externalRef,
	}
	err := uc.walletRepo.InTransaction(func(repo persistent.WalletRepository) error {
		// A previous attempt that never reached the gateway leaves a
		// PENDING charge behind. Void it so only the fresh ref can settle.
		stale, err := repo.GetPendingPaymentByBooking(booking.ID)
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}
		if stale != nil {
			now := time.Now()
			stale.Status = entity.TransactionStatusFailed
			stale.FailureReason = "superseded by a new payment attempt"
			stale.ProcessedAt = &now
			if err := repo.UpdateTransaction(stale); err != nil {
				return err
			}
		}
		return repo.CreateTransaction(transaction)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to record booking payment: %w", err)
	}

	handle, err := uc.gateway.InitiateCharge(ctx, gateway.ChargeRequest{
		Amount:      booking.TotalAmount,
		Currency:    booking.Currency,
		CustomerRef: customerRef,
		ExternalRef: externalRef,
	})
	if err != nil {
		if errors.Is(err, gateway.ErrUnavailable) {
			uc.logger.Warn("Gateway unavailable for booking %s: %v", booking.ID, err)
			return nil, fmt.Errorf("%w: %v", ErrGatewayUnavailable, err)
		}
		now := time.Now()
		transaction.Status = entity.TransactionStatusFailed
		transaction.FailureReason = err.Error()
		transaction.ProcessedAt = &now
		if updateErr := uc.walletRepo.UpdateTransaction(transaction); updateErr != nil {
			uc.logger.Error("Failed to mark booking payment %s failed: %v", transaction.ID, updateErr)
		}
		return nil, err
	}

	if handle.GatewayRef != "" {
		transaction.GatewayRef = &handle.GatewayRef
		if err := uc.walletRepo.UpdateTransaction(transaction); err != nil {
			uc.logger.Warn("Failed to store gateway ref for %s: %v", externalRef, err)
		}
	}
	return &PaymentResult{
		Booking:          booking,
		Transaction:      transaction,
		AuthorizationURL: handle.AuthorizationURL,
	}, nil
}

// CompleteBooking releases the escrow to the host and closes the booking.
// Only the host or an admin may complete.
func (uc *bookingUseCase) CompleteBooking(bookingID, callerUserID string, isAdmin bool) (*entity.Booking, error) {
	booking, err := uc.bookingRepo.GetBookingByID(bookingID)
	if err != nil {
		return nil, err
	}
	if !isAdmin && booking.HostUserID != callerUserID {
		return nil, ErrNotBookingParty
	}
	if booking.Status != entity.BookingStatusPaid {
		return nil, ErrBookingNotPaid
	}

	if _, err := uc.walletUC.ReleaseEscrow(booking.ID, booking.HostUserID); err != nil {
		return nil, err
	}

	booking.Status = entity.BookingStatusCompleted
	if err := uc.bookingRepo.UpdateBooking(booking); err != nil {
		uc.logger.Error("Escrow released for booking %s but status update failed: %v", booking.ID, err)
		return nil, err
	}
	return booking, nil
}

// CancelBooking refunds held escrow, or closes out a never-settled pending
// payment, and marks the booking CANCELLED.
func (uc *bookingUseCase) CancelBooking(ctx context.Context, bookingID, callerUserID string, isAdmin bool) (*entity.Booking, error) {
	booking, err := uc.bookingRepo.GetBookingByID(bookingID)
	if err != nil {
		return nil, err
	}
	if !isAdmin && booking.GuestUserID != callerUserID && booking.HostUserID != callerUserID {
		return nil, ErrNotBookingParty
	}

	switch booking.Status {
	case entity.BookingStatusPaid:
		if _, err := uc.walletUC.RefundEscrow(ctx, booking.ID); err != nil {
			return nil, err
		}
	case entity.BookingStatusPendingPayment:
		if err := uc.closePendingPayment(booking.ID); err != nil {
			return nil, err
		}
	default:
		return nil, ErrBookingNotPayable
	}

	booking.Status = entity.BookingStatusCancelled
	if err := uc.bookingRepo.UpdateBooking(booking); err != nil {
		return nil, err
	}
	return booking, nil
}

// closePendingPayment marks any still-PENDING charge for the booking FAILED
// so a late webhook cannot settle it after the cancellation.
func (uc *bookingUseCase) closePendingPayment(bookingID string) error {
	return uc.walletRepo.InTransaction(func(repo persistent.WalletRepository) error {
		payment, err := repo.GetPendingPaymentByBooking(bookingID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil
			}
			return err
		}

		now := time.Now()
		payment.Status = entity.TransactionStatusFailed
		payment.FailureReason = "booking cancelled before payment settled"
		payment.ProcessedAt = &now
		return repo.UpdateTransaction(payment)
	})
}
