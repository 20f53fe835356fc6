package usecase

import "errors"

// Sentinel errors returned by the wallet and reconciliation engines.
// Controllers map these onto HTTP status codes.
var (
	ErrInvalidAmount      = errors.New("amount must be positive")
	ErrInsufficientFunds  = errors.New("insufficient funds")
	ErrWalletSuspended    = errors.New("wallet is suspended")
	ErrCurrencyMismatch   = errors.New("currency mismatch")
	ErrDuplicateHold      = errors.New("booking already has an active escrow hold")
	ErrHoldNotFound       = errors.New("no escrow hold for booking")
	ErrAlreadyReleased    = errors.New("escrow hold already released")
	ErrAlreadyRefunded    = errors.New("escrow hold already refunded")
	ErrUnverifiedEvent    = errors.New("webhook signature verification failed")
	ErrAmountMismatch     = errors.New("gateway amount does not match transaction")
	ErrGatewayUnavailable = errors.New("payment gateway unavailable")

	ErrBookingNotPayable    = errors.New("booking is not awaiting payment")
	ErrBookingNotPaid       = errors.New("booking is not paid")
	ErrBookingUnavailable   = errors.New("listing is not available for those dates")
	ErrInvalidDates         = errors.New("check-out must be after check-in")
	ErrNotBookingParty      = errors.New("caller is not a party to this booking")
	ErrNotOwner             = errors.New("caller does not own this resource")
	ErrListingInactive      = errors.New("listing is not active")
	ErrOwnListing           = errors.New("hosts cannot book their own listing")
	ErrInvalidRating        = errors.New("rating must be between 1 and 5")
	ErrTransactionNotFound  = errors.New("transaction not found")
	ErrTransactionImmutable = errors.New("transaction is in a terminal state")
)
