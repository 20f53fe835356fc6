package usecase

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"stayhaven/internal/entity"
	"stayhaven/internal/gateway"
	"stayhaven/internal/repo/persistent"
	"stayhaven/pkg/cache"
	"stayhaven/pkg/config"
	"stayhaven/pkg/logger"
	"stayhaven/pkg/queue"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

const walletCacheTTL = 60 * time.Second

// EventPublisher is the slice of the queue client the engines need.
type EventPublisher interface {
	PublishPaymentEvent(event queue.PaymentEvent) error
}

type WalletUseCase interface {
	GetWallet(ctx context.Context, userID string) (*entity.Wallet, error)
	Deposit(userID string, amount decimal.Decimal, externalRef, description string) (*entity.Transaction, error)
	InitiateDeposit(ctx context.Context, userID, customerRef string, amount decimal.Decimal) (*entity.Transaction, string, error)
	Withdraw(ctx context.Context, userID, destinationRef string, amount decimal.Decimal, txType entity.TransactionType) (*entity.Transaction, error)
	HoldEscrow(guestUserID, bookingID string, amount decimal.Decimal) (*entity.Transaction, error)
	ReleaseEscrow(bookingID, hostUserID string) (*entity.Transaction, error)
	RefundEscrow(ctx context.Context, bookingID string) (*entity.Transaction, error)
	Adjust(adminUserID, userID string, amount decimal.Decimal, reason string) (*entity.Transaction, error)
	GetTransactions(userID string, filter persistent.TransactionFilter, limit, offset int) ([]*entity.Transaction, error)
	CheckBalanceIntegrity(userID string) (bool, error)
}

type walletUseCase struct {
	walletRepo  persistent.WalletRepository
	gateway     gateway.PaymentGateway
	redisClient *redis.Client
	publisher   EventPublisher
	cfg         *config.Config
	logger      *logger.Logger
}

func NewWalletUseCase(
	walletRepo persistent.WalletRepository,
	gw gateway.PaymentGateway,
	redisClient *redis.Client,
	publisher EventPublisher,
	cfg *config.Config,
	log *logger.Logger,
) WalletUseCase {
	return &walletUseCase{
		walletRepo:  walletRepo,
		gateway:     gw,
		redisClient: redisClient,
		publisher:   publisher,
		cfg:         cfg,
		logger:      log,
	}
}

func walletCacheKey(userID string) string {
	return "wallet:" + userID
}

func (uc *walletUseCase) GetWallet(ctx context.Context, userID string) (*entity.Wallet, error) {
	if uc.redisClient != nil {
		var cached entity.Wallet
		found, err := cache.Get(ctx, uc.redisClient, walletCacheKey(userID), &cached)
		if err != nil {
			uc.logger.Warn("Wallet cache read failed: %v", err)
		}
		if found {
			return &cached, nil
		}
	}

	wallet, err := uc.walletRepo.GetOrCreateWallet(userID, uc.cfg.DefaultCurrency)
	if err != nil {
		uc.logger.Error("Failed to get wallet for user %s: %v", userID, err)
		return nil, fmt.Errorf("failed to get wallet: %w", err)
	}

	if uc.redisClient != nil {
		if err := cache.Set(ctx, uc.redisClient, walletCacheKey(userID), wallet, walletCacheTTL); err != nil {
			uc.logger.Warn("Wallet cache write failed: %v", err)
		}
	}
	return wallet, nil
}

func (uc *walletUseCase) invalidateWalletCache(userID string) {
	if uc.redisClient == nil {
		return
	}
	if err := cache.Delete(context.Background(), uc.redisClient, walletCacheKey(userID)); err != nil {
		uc.logger.Warn("Wallet cache invalidation failed: %v", err)
	}
}

// Deposit credits a wallet directly. Replays with the same external ref
// return the original transaction without a second credit.
func (uc *walletUseCase) Deposit(userID string, amount decimal.Decimal, externalRef, description string) (*entity.Transaction, error) {
	if !amount.IsPositive() {
		return nil, ErrInvalidAmount
	}

	var result *entity.Transaction
	err := uc.walletRepo.InTransaction(func(repo persistent.WalletRepository) error {
		if externalRef != "" {
			existing, err := repo.GetTransactionByExternalRefForUpdate(externalRef)
			if err == nil {
				switch {
				case existing.Status == entity.TransactionStatusCompleted:
					result = existing
					return nil
				case existing.Status == entity.TransactionStatusPending && existing.Type == entity.TransactionTypeDeposit:
					// A gateway deposit already initiated with this ref:
					// settle it instead of minting a second credit.
					wallet, err := lockWalletByUser(repo, userID, uc.cfg.DefaultCurrency)
					if err != nil {
						return err
					}
					if wallet.Status == entity.WalletStatusSuspended {
						return ErrWalletSuspended
					}
					wallet.Balance = wallet.Balance.Add(existing.Amount)
					if err := repo.UpdateWallet(wallet); err != nil {
						return err
					}
					now := time.Now()
					existing.Status = entity.TransactionStatusCompleted
					existing.ProcessedAt = &now
					if err := repo.UpdateTransaction(existing); err != nil {
						return err
					}
					result = existing
					return nil
				default:
					return ErrTransactionImmutable
				}
			}
			if !errors.Is(err, gorm.ErrRecordNotFound) {
				return err
			}
		}

		wallet, err := lockWalletByUser(repo, userID, uc.cfg.DefaultCurrency)
		if err != nil {
			return err
		}
		if wallet.Status == entity.WalletStatusSuspended {
			return ErrWalletSuspended
		}

		wallet.Balance = wallet.Balance.Add(amount)
		if err := repo.UpdateWallet(wallet); err != nil {
			return err
		}

		now := time.Now()
		transaction := &entity.Transaction{
			WalletID:    &wallet.ID,
			UserID:      &userID,
			Type:        entity.TransactionTypeDeposit,
			Status:      entity.TransactionStatusCompleted,
			Amount:      amount,
			Currency:    wallet.Currency,
			Description: description,
			ProcessedAt: &now,
		}
		if externalRef != "" {
			transaction.ExternalRef = &externalRef
		}
		if err := repo.CreateTransaction(transaction); err != nil {
			return err
		}
		result = transaction
		return nil
	})
	if err != nil {
		uc.logger.Error("Deposit failed for user %s: %v", userID, err)
		return nil, err
	}

	uc.invalidateWalletCache(userID)
	return result, nil
}

// InitiateDeposit starts a gateway charge. The transaction stays PENDING
// until the reconciliation engine settles it; the second return value is
// the gateway checkout URL for the customer.
func (uc *walletUseCase) InitiateDeposit(ctx context.Context, userID, customerRef string, amount decimal.Decimal) (*entity.Transaction, string, error) {
	if !amount.IsPositive() {
		return nil, "", ErrInvalidAmount
	}

	wallet, err := uc.walletRepo.GetOrCreateWallet(userID, uc.cfg.DefaultCurrency)
	if err != nil {
		return nil, "", fmt.Errorf("failed to get wallet: %w", err)
	}
	if wallet.Status == entity.WalletStatusSuspended {
		return nil, "", ErrWalletSuspended
	}

	externalRef := "dep_" + uuid.New().String()
	transaction := &entity.Transaction{
		WalletID:    &wallet.ID,
		UserID:      &userID,
		Type:        entity.TransactionTypeDeposit,
		Status:      entity.TransactionStatusPending,
		Amount:      amount,
		Currency:    wallet.Currency,
		Description: "Wallet deposit via " + uc.gateway.Name(),
		ExternalRef: &externalRef,
	}
	if err := uc.walletRepo.CreateTransaction(transaction); err != nil {
		return nil, "", fmt.Errorf("failed to record deposit: %w", err)
	}

	handle, err := uc.gateway.InitiateCharge(ctx, gateway.ChargeRequest{
		Amount:      amount,
		Currency:    wallet.Currency,
		CustomerRef: customerRef,
		ExternalRef: externalRef,
	})
	if err != nil {
		if errors.Is(err, gateway.ErrUnavailable) {
			// The charge may have reached the gateway; the sweep will
			// verify and settle it either way.
			uc.logger.Warn("Gateway unavailable during deposit %s: %v", externalRef, err)
			return transaction, "", fmt.Errorf("%w: %v", ErrGatewayUnavailable, err)
		}
		uc.markFailed(transaction, err.Error())
		return nil, "", err
	}

	if handle.GatewayRef != "" {
		transaction.GatewayRef = &handle.GatewayRef
		if err := uc.walletRepo.UpdateTransaction(transaction); err != nil {
			uc.logger.Warn("Failed to store gateway ref for %s: %v", externalRef, err)
		}
	}
	return transaction, handle.AuthorizationURL, nil
}

// Withdraw debits the wallet immediately and initiates a gateway transfer.
// The PENDING debit counts against the balance; a FAILED transfer credits
// it back. txType distinguishes guest withdrawals from host payouts.
func (uc *walletUseCase) Withdraw(ctx context.Context, userID, destinationRef string, amount decimal.Decimal, txType entity.TransactionType) (*entity.Transaction, error) {
	if !amount.IsPositive() {
		return nil, ErrInvalidAmount
	}
	if txType != entity.TransactionTypeWithdrawal && txType != entity.TransactionTypeHostPayout {
		return nil, fmt.Errorf("unsupported withdrawal type %s", txType)
	}

	externalRef := "wd_" + uuid.New().String()
	var transaction *entity.Transaction
	err := uc.walletRepo.InTransaction(func(repo persistent.WalletRepository) error {
		wallet, err := lockWalletByUser(repo, userID, uc.cfg.DefaultCurrency)
		if err != nil {
			return err
		}
		if wallet.Status == entity.WalletStatusSuspended {
			return ErrWalletSuspended
		}
		if wallet.Balance.LessThan(amount) {
			return ErrInsufficientFunds
		}

		wallet.Balance = wallet.Balance.Sub(amount)
		if err := repo.UpdateWallet(wallet); err != nil {
			return err
		}

		transaction = &entity.Transaction{
			WalletID:    &wallet.ID,
			UserID:      &userID,
			Type:        txType,
			Status:      entity.TransactionStatusPending,
			Amount:      amount.Neg(),
			Currency:    wallet.Currency,
			Description: "Withdrawal to " + destinationRef,
			ExternalRef: &externalRef,
		}
		return repo.CreateTransaction(transaction)
	})
	if err != nil {
		return nil, err
	}
	uc.invalidateWalletCache(userID)

	handle, err := uc.gateway.InitiateTransfer(ctx, gateway.TransferRequest{
		Amount:                amount,
		Currency:              transaction.Currency,
		DestinationAccountRef: destinationRef,
		ExternalRef:           externalRef,
	})
	if err != nil {
		if errors.Is(err, gateway.ErrUnavailable) {
			uc.logger.Warn("Gateway unavailable during withdrawal %s: %v", externalRef, err)
			return transaction, fmt.Errorf("%w: %v", ErrGatewayUnavailable, err)
		}
		// Definitive rejection: credit the debit back and close the record.
		if failErr := uc.failWithdrawal(transaction, err.Error()); failErr != nil {
			uc.logger.Error("Failed to reverse rejected withdrawal %s: %v", externalRef, failErr)
			return nil, failErr
		}
		return nil, err
	}

	if handle.GatewayRef != "" {
		transaction.GatewayRef = &handle.GatewayRef
		if err := uc.walletRepo.UpdateTransaction(transaction); err != nil {
			uc.logger.Warn("Failed to store gateway ref for %s: %v", externalRef, err)
		}
	}
	return transaction, nil
}

// failWithdrawal restores the debited amount and marks the withdrawal FAILED.
func (uc *walletUseCase) failWithdrawal(transaction *entity.Transaction, reason string) error {
	err := uc.walletRepo.InTransaction(func(repo persistent.WalletRepository) error {
		wallet, err := repo.GetWalletForUpdate(*transaction.WalletID)
		if err != nil {
			return err
		}
		wallet.Balance = wallet.Balance.Sub(transaction.Amount) // amount is negative
		if err := repo.UpdateWallet(wallet); err != nil {
			return err
		}

		now := time.Now()
		transaction.Status = entity.TransactionStatusFailed
		transaction.FailureReason = reason
		transaction.ProcessedAt = &now
		return repo.UpdateTransaction(transaction)
	})
	if err != nil {
		return err
	}
	if transaction.UserID != nil {
		uc.invalidateWalletCache(*transaction.UserID)
	}
	uc.publishEvent(queue.EventTransactionFailed, transaction, reason)
	return nil
}

func (uc *walletUseCase) markFailed(transaction *entity.Transaction, reason string) {
	now := time.Now()
	transaction.Status = entity.TransactionStatusFailed
	transaction.FailureReason = reason
	transaction.ProcessedAt = &now
	if err := uc.walletRepo.UpdateTransaction(transaction); err != nil {
		uc.logger.Error("Failed to mark transaction %s failed: %v", transaction.ID, err)
	}
	uc.publishEvent(queue.EventTransactionFailed, transaction, reason)
}

// HoldEscrow debits the guest wallet and opens an escrow hold for the
// booking. The debit is applied at creation, so the hold row is COMPLETED
// while its escrow status stays HELD until release or refund.
func (uc *walletUseCase) HoldEscrow(guestUserID, bookingID string, amount decimal.Decimal) (*entity.Transaction, error) {
	if !amount.IsPositive() {
		return nil, ErrInvalidAmount
	}

	var hold *entity.Transaction
	err := uc.walletRepo.InTransaction(func(repo persistent.WalletRepository) error {
		existing, err := repo.GetHoldByBookingForUpdate(bookingID)
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}
		if existing != nil && existing.EscrowStatus == entity.EscrowStatusHeld {
			return ErrDuplicateHold
		}

		wallet, err := lockWalletByUser(repo, guestUserID, uc.cfg.DefaultCurrency)
		if err != nil {
			return err
		}
		if wallet.Status == entity.WalletStatusSuspended {
			return ErrWalletSuspended
		}
		if wallet.Balance.LessThan(amount) {
			return ErrInsufficientFunds
		}

		wallet.Balance = wallet.Balance.Sub(amount)
		if err := repo.UpdateWallet(wallet); err != nil {
			return err
		}

		now := time.Now()
		hold = &entity.Transaction{
			WalletID:     &wallet.ID,
			UserID:       &guestUserID,
			BookingID:    &bookingID,
			Type:         entity.TransactionTypeEscrowHold,
			Status:       entity.TransactionStatusCompleted,
			EscrowStatus: entity.EscrowStatusHeld,
			Amount:       amount.Neg(),
			Currency:     wallet.Currency,
			Description:  "Escrow hold for booking",
			ProcessedAt:  &now,
		}
		return repo.CreateTransaction(hold)
	})
	if err != nil {
		return nil, err
	}
	uc.invalidateWalletCache(guestUserID)
	return hold, nil
}

// ReleaseEscrow settles a held booking: the host wallet is credited with
// the booking amount minus the platform fee, and the fee is credited to
// the platform wallet. The two credits sum to the held amount exactly.
func (uc *walletUseCase) ReleaseEscrow(bookingID, hostUserID string) (*entity.Transaction, error) {
	var release *entity.Transaction
	err := uc.walletRepo.InTransaction(func(repo persistent.WalletRepository) error {
		hold, err := repo.GetHoldByBookingForUpdate(bookingID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrHoldNotFound
			}
			return err
		}
		switch hold.EscrowStatus {
		case entity.EscrowStatusReleased:
			return ErrAlreadyReleased
		case entity.EscrowStatusRefunded:
			return ErrAlreadyRefunded
		}

		heldAmount := hold.Amount.Abs()
		fee := platformFee(heldAmount, uc.cfg.PlatformFeeRate)
		hostCredit := heldAmount.Sub(fee)

		hostWallet, err := repo.GetOrCreateWallet(hostUserID, hold.Currency)
		if err != nil {
			return err
		}
		platformWallet, err := repo.GetOrCreateWallet(uc.cfg.PlatformUserID, hold.Currency)
		if err != nil {
			return err
		}

		wallets, err := lockWalletsInOrder(repo, hostWallet.ID, platformWallet.ID)
		if err != nil {
			return err
		}
		hostWallet, platformWallet = wallets[hostWallet.ID], wallets[platformWallet.ID]

		now := time.Now()
		hostWallet.Balance = hostWallet.Balance.Add(hostCredit)
		if err := repo.UpdateWallet(hostWallet); err != nil {
			return err
		}
		release = &entity.Transaction{
			WalletID:    &hostWallet.ID,
			UserID:      &hostUserID,
			BookingID:   &bookingID,
			Type:        entity.TransactionTypeEscrowRelease,
			Status:      entity.TransactionStatusCompleted,
			Amount:      hostCredit,
			Currency:    hold.Currency,
			Description: "Escrow release for booking",
			ProcessedAt: &now,
		}
		if err := repo.CreateTransaction(release); err != nil {
			return err
		}

		if fee.IsPositive() {
			platformWallet.Balance = platformWallet.Balance.Add(fee)
			if err := repo.UpdateWallet(platformWallet); err != nil {
				return err
			}
			feeTx := &entity.Transaction{
				WalletID:    &platformWallet.ID,
				UserID:      &uc.cfg.PlatformUserID,
				BookingID:   &bookingID,
				Type:        entity.TransactionTypePlatformFee,
				Status:      entity.TransactionStatusCompleted,
				Amount:      fee,
				Currency:    hold.Currency,
				Description: "Platform fee for booking",
				ProcessedAt: &now,
			}
			if err := repo.CreateTransaction(feeTx); err != nil {
				return err
			}
		}

		hold.EscrowStatus = entity.EscrowStatusReleased
		hold.ProcessedAt = &now
		return repo.UpdateTransaction(hold)
	})
	if err != nil {
		return nil, err
	}
	uc.invalidateWalletCache(hostUserID)
	uc.invalidateWalletCache(uc.cfg.PlatformUserID)
	uc.publishEvent(queue.EventTransactionCompleted, release, "")
	return release, nil
}

// RefundEscrow returns held funds to the guest. Wallet-funded holds are
// credited back immediately; gateway-funded holds trigger a gateway refund
// that settles through reconciliation.
func (uc *walletUseCase) RefundEscrow(ctx context.Context, bookingID string) (*entity.Transaction, error) {
	var (
		refund      *entity.Transaction
		gatewayHold *entity.Transaction
	)
	err := uc.walletRepo.InTransaction(func(repo persistent.WalletRepository) error {
		hold, err := repo.GetHoldByBookingForUpdate(bookingID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrHoldNotFound
			}
			return err
		}
		switch hold.EscrowStatus {
		case entity.EscrowStatusReleased:
			return ErrAlreadyReleased
		case entity.EscrowStatusRefunded:
			return ErrAlreadyRefunded
		}

		now := time.Now()
		heldAmount := hold.Amount.Abs()

		if hold.WalletFunded() {
			wallet, err := repo.GetWalletForUpdate(*hold.WalletID)
			if err != nil {
				return err
			}
			wallet.Balance = wallet.Balance.Add(heldAmount)
			if err := repo.UpdateWallet(wallet); err != nil {
				return err
			}
			refund = &entity.Transaction{
				WalletID:    hold.WalletID,
				UserID:      hold.UserID,
				BookingID:   &bookingID,
				Type:        entity.TransactionTypeBookingRefund,
				Status:      entity.TransactionStatusCompleted,
				Amount:      heldAmount,
				Currency:    hold.Currency,
				Description: "Refund for cancelled booking",
				ProcessedAt: &now,
			}
			if err := repo.CreateTransaction(refund); err != nil {
				return err
			}
			hold.EscrowStatus = entity.EscrowStatusRefunded
			hold.ProcessedAt = &now
			return repo.UpdateTransaction(hold)
		}

		externalRef := "rf_" + uuid.New().String()
		refund = &entity.Transaction{
			UserID:      hold.UserID,
			BookingID:   &bookingID,
			Type:        entity.TransactionTypeBookingRefund,
			Status:      entity.TransactionStatusPending,
			Amount:      heldAmount,
			Currency:    hold.Currency,
			Description: "Gateway refund for cancelled booking",
			ExternalRef: &externalRef,
			GatewayRef:  hold.GatewayRef,
		}
		if err := repo.CreateTransaction(refund); err != nil {
			return err
		}
		gatewayHold = hold
		return nil
	})
	if err != nil {
		return nil, err
	}
	if refund.UserID != nil {
		uc.invalidateWalletCache(*refund.UserID)
	}

	if gatewayHold != nil {
		gatewayRef := ""
		if gatewayHold.GatewayRef != nil {
			gatewayRef = *gatewayHold.GatewayRef
		}
		_, err := uc.gateway.Refund(ctx, gateway.RefundRequest{
			Amount:      refund.Amount,
			Currency:    refund.Currency,
			ExternalRef: *refund.ExternalRef,
			GatewayRef:  gatewayRef,
		})
		if err != nil && !errors.Is(err, gateway.ErrUnavailable) {
			// Definitive rejection: fail this attempt and keep the hold
			// HELD so a later RefundEscrow can try again.
			uc.logger.Error("Gateway refund for booking %s rejected: %v", bookingID, err)
			uc.markFailed(refund, err.Error())
			return nil, err
		}
		if err != nil {
			// Leave the refund PENDING; the sweep retries via verify.
			uc.logger.Error("Gateway refund for booking %s failed: %v", bookingID, err)
		}
		// The refund is initiated (or at least queued). Only now is the
		// hold marked REFUNDED, so a rejected initiation never strands
		// the escrow in a terminal state.
		markErr := uc.walletRepo.InTransaction(func(repo persistent.WalletRepository) error {
			hold, err := repo.GetHoldByBookingForUpdate(bookingID)
			if err != nil {
				return err
			}
			if hold.EscrowStatus != entity.EscrowStatusHeld {
				return nil
			}
			now := time.Now()
			hold.EscrowStatus = entity.EscrowStatusRefunded
			hold.ProcessedAt = &now
			return repo.UpdateTransaction(hold)
		})
		if markErr != nil {
			uc.logger.Error("Marking hold refunded for booking %s failed: %v", bookingID, markErr)
		}
	}
	return refund, nil
}

// Adjust applies a signed admin correction to a wallet. The adjustment may
// not drive the balance negative, and the acting admin is recorded in the
// transaction metadata.
func (uc *walletUseCase) Adjust(adminUserID, userID string, amount decimal.Decimal, reason string) (*entity.Transaction, error) {
	if amount.IsZero() {
		return nil, ErrInvalidAmount
	}
	if reason == "" {
		return nil, fmt.Errorf("adjustment reason is required")
	}

	var adjustment *entity.Transaction
	err := uc.walletRepo.InTransaction(func(repo persistent.WalletRepository) error {
		wallet, err := lockWalletByUser(repo, userID, uc.cfg.DefaultCurrency)
		if err != nil {
			return err
		}

		newBalance := wallet.Balance.Add(amount)
		if newBalance.IsNegative() {
			return ErrInvalidAmount
		}
		wallet.Balance = newBalance
		if err := repo.UpdateWallet(wallet); err != nil {
			return err
		}

		now := time.Now()
		adjustment = &entity.Transaction{
			WalletID:    &wallet.ID,
			UserID:      &userID,
			Type:        entity.TransactionTypeAdminAdjustment,
			Status:      entity.TransactionStatusCompleted,
			Amount:      amount,
			Currency:    wallet.Currency,
			Description: reason,
			Metadata: map[string]string{
				"admin_id": adminUserID,
				"reason":   reason,
			},
			ProcessedAt: &now,
		}
		return repo.CreateTransaction(adjustment)
	})
	if err != nil {
		return nil, err
	}
	uc.invalidateWalletCache(userID)
	return adjustment, nil
}

func (uc *walletUseCase) GetTransactions(userID string, filter persistent.TransactionFilter, limit, offset int) ([]*entity.Transaction, error) {
	return uc.walletRepo.GetTransactions(userID, filter, limit, offset)
}

// CheckBalanceIntegrity recomputes the balance from the ledger and compares
// it with the cached wallet balance.
func (uc *walletUseCase) CheckBalanceIntegrity(userID string) (bool, error) {
	wallet, err := uc.walletRepo.GetOrCreateWallet(userID, uc.cfg.DefaultCurrency)
	if err != nil {
		return false, err
	}
	sum, err := uc.walletRepo.SumAppliedAmounts(wallet.ID)
	if err != nil {
		return false, err
	}
	if !wallet.Balance.Equal(sum) {
		uc.logger.Error("Balance drift for wallet %s: balance=%s ledger=%s", wallet.ID, wallet.Balance, sum)
		return false, nil
	}
	return true, nil
}

func (uc *walletUseCase) publishEvent(eventType string, transaction *entity.Transaction, reason string) {
	if uc.publisher == nil || transaction == nil {
		return
	}
	event := queue.PaymentEvent{
		Event:         eventType,
		TransactionID: transaction.ID,
		Type:          string(transaction.Type),
		Amount:        transaction.Amount.String(),
		Currency:      transaction.Currency,
		Reason:        reason,
	}
	if transaction.UserID != nil {
		event.UserID = *transaction.UserID
	}
	if transaction.BookingID != nil {
		event.BookingID = *transaction.BookingID
	}
	if transaction.ExternalRef != nil {
		event.ExternalRef = *transaction.ExternalRef
	}
	if err := uc.publisher.PublishPaymentEvent(event); err != nil {
		uc.logger.Warn("Failed to publish payment event for %s: %v", transaction.ID, err)
	}
}

// platformFee is the commission on a released escrow amount, rounded half
// away from zero to the currency minor unit.
func platformFee(amount, rate decimal.Decimal) decimal.Decimal {
	return amount.Mul(rate).Round(2)
}

func lockWalletByUser(repo persistent.WalletRepository, userID, currency string) (*entity.Wallet, error) {
	wallet, err := repo.GetWalletByUserForUpdate(userID, currency)
	if err == nil {
		return wallet, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}
	// First touch: create the row, then lock it for this transaction.
	if _, err := repo.GetOrCreateWallet(userID, currency); err != nil {
		return nil, err
	}
	return repo.GetWalletByUserForUpdate(userID, currency)
}

// lockWalletsInOrder acquires row locks in ascending wallet-id order so two
// concurrent multi-wallet operations cannot deadlock.
func lockWalletsInOrder(repo persistent.WalletRepository, walletIDs ...string) (map[string]*entity.Wallet, error) {
	ids := append([]string(nil), walletIDs...)
	sort.Strings(ids)

	wallets := make(map[string]*entity.Wallet, len(ids))
	for _, id := range ids {
		if _, ok := wallets[id]; ok {
			continue
		}
		wallet, err := repo.GetWalletForUpdate(id)
		if err != nil {
			return nil, err
		}
		wallets[id] = wallet
	}
	return wallets, nil
}
