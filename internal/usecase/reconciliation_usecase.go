package usecase

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
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

// amountTolerance is one minor unit of the currency. Gateways round to the
// minor unit, so anything beyond that is a real mismatch.
var amountTolerance = decimal.New(1, -2)

// PayloadArchiver is the slice of the object-store client the engine needs.
type PayloadArchiver interface {
	ArchiveWebhookPayload(provider, reference string, payload []byte) (string, error)
}

type ReconciliationUseCase interface {
	// HandleGatewayEvent verifies and applies one inbound webhook delivery.
	HandleGatewayEvent(ctx context.Context, provider string, headers http.Header, body []byte) (*entity.Transaction, error)
	// VerifyPendingTransaction polls the gateway for one PENDING transaction.
	VerifyPendingTransaction(ctx context.Context, transactionID string) (*entity.Transaction, error)
	// SweepPending re-verifies PENDING transactions older than the cutoff
	// and returns how many reached a terminal state.
	SweepPending(ctx context.Context, olderThan time.Duration, limit int) (int, error)
	ListUnmatched(limit, offset int) ([]*entity.Transaction, error)
}

type reconciliationUseCase struct {
	walletRepo  persistent.WalletRepository
	bookingRepo persistent.BookingRepository
	gateway     gateway.PaymentGateway
	archiver    PayloadArchiver
	publisher   EventPublisher
	redisClient *redis.Client
	cfg         *config.Config
	logger      *logger.Logger
}

func NewReconciliationUseCase(
	walletRepo persistent.WalletRepository,
	bookingRepo persistent.BookingRepository,
	gw gateway.PaymentGateway,
	archiver PayloadArchiver,
	publisher EventPublisher,
	redisClient *redis.Client,
	cfg *config.Config,
	log *logger.Logger,
) ReconciliationUseCase {
	return &reconciliationUseCase{
		walletRepo:  walletRepo,
		bookingRepo: bookingRepo,
		gateway:     gw,
		archiver:    archiver,
		publisher:   publisher,
		redisClient: redisClient,
		cfg:         cfg,
		logger:      log,
	}
}

func (uc *reconciliationUseCase) HandleGatewayEvent(ctx context.Context, provider string, headers http.Header, body []byte) (*entity.Transaction, error) {
	if provider != uc.gateway.Name() {
		return nil, fmt.Errorf("%w: unexpected provider %s", ErrUnverifiedEvent, provider)
	}
	if err := uc.gateway.VerifyWebhook(headers, body); err != nil {
		uc.logger.Warn("Rejected webhook from %s: %v", provider, err)
		return nil, fmt.Errorf("%w: %v", ErrUnverifiedEvent, err)
	}

	event, err := uc.gateway.ParseWebhook(body)
	if err != nil {
		return nil, err
	}
	if event.ExternalRef == "" {
		return nil, fmt.Errorf("webhook carries no reference")
	}
	return uc.applyEvent(event, body)
}

func (uc *reconciliationUseCase) VerifyPendingTransaction(ctx context.Context, transactionID string) (*entity.Transaction, error) {
	transaction, err := uc.walletRepo.GetTransactionByID(transactionID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTransactionNotFound
		}
		return nil, err
	}
	if transaction.IsTerminal() {
		return transaction, nil
	}
	if transaction.ExternalRef == nil {
		return nil, fmt.Errorf("transaction %s has no external reference", transactionID)
	}

	result, err := uc.gateway.VerifyByReference(ctx, *transaction.ExternalRef)
	if err != nil {
		if errors.Is(err, gateway.ErrUnavailable) {
			return nil, fmt.Errorf("%w: %v", ErrGatewayUnavailable, err)
		}
		return nil, err
	}

	// Funnel through the same matcher as webhooks so a concurrent delivery
	// and a poll cannot both apply the event.
	return uc.applyEvent(&gateway.WebhookEvent{
		Provider:    uc.gateway.Name(),
		EventType:   "verify",
		ExternalRef: *transaction.ExternalRef,
		GatewayRef:  result.GatewayRef,
		Amount:      result.Amount,
		Currency:    result.Currency,
		Status:      result.Status,
	}, nil)
}

func (uc *reconciliationUseCase) SweepPending(ctx context.Context, olderThan time.Duration, limit int) (int, error) {
	cutoff := time.Now().Add(-olderThan)
	pending, err := uc.walletRepo.GetPendingOlderThan(cutoff, limit)
	if err != nil {
		return 0, err
	}

	settled := 0
	for _, transaction := range pending {
		if transaction.ExternalRef == nil {
			continue
		}
		result, err := uc.VerifyPendingTransaction(ctx, transaction.ID)
		if err != nil {
			uc.logger.Warn("Sweep could not verify %s: %v", transaction.ID, err)
			continue
		}
		if result.IsTerminal() {
			settled++
		}
	}
	uc.logger.Info("Sweep checked %d pending transactions, settled %d", len(pending), settled)
	return settled, nil
}

func (uc *reconciliationUseCase) ListUnmatched(limit, offset int) ([]*entity.Transaction, error) {
	return uc.walletRepo.GetUnmatched(limit, offset)
}

// applyEvent matches a gateway event to its local transaction under the row
// lock and applies it exactly once. rawBody is non-nil only for webhook
// deliveries; it is archived when the event matches nothing.
func (uc *reconciliationUseCase) applyEvent(event *gateway.WebhookEvent, rawBody []byte) (*entity.Transaction, error) {
	var (
		result       *entity.Transaction
		outcome      string
		reason       string
		mismatch     bool
		touchedUsers []string
	)
	err := uc.walletRepo.InTransaction(func(repo persistent.WalletRepository) error {
		transaction, err := repo.GetTransactionByExternalRefForUpdate(event.ExternalRef)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				unmatched, err := uc.recordUnmatched(repo, event, rawBody)
				if err != nil {
					return err
				}
				result = unmatched
				outcome = queue.EventTransactionUnmatched
				return nil
			}
			return err
		}

		// Replays of settled transactions are acknowledged without effect.
		if transaction.IsTerminal() {
			result = transaction
			return nil
		}

		if event.Status == gateway.StatusPending {
			result = transaction
			return nil
		}

		if event.Status == gateway.StatusSuccess {
			expected := transaction.Amount.Abs()
			if event.Amount.Sub(expected).Abs().GreaterThan(amountTolerance) {
				// The FAILED mark must commit, so the mismatch error is
				// surfaced after the transaction, not returned from it.
				reason = fmt.Sprintf("gateway amount %s does not match expected %s", event.Amount, expected)
				if err := uc.failLocked(repo, transaction, reason); err != nil {
					return err
				}
				result = transaction
				outcome = queue.EventTransactionFailed
				mismatch = true
				return nil
			}
		}

		now := time.Now()
		if event.GatewayRef != "" {
			transaction.GatewayRef = &event.GatewayRef
		}

		if event.Status == gateway.StatusFailed {
			reason = "gateway reported failure"
			if err := uc.failLocked(repo, transaction, reason); err != nil {
				return err
			}
			result = transaction
			outcome = queue.EventTransactionFailed
			return nil
		}

		switch transaction.Type {
		case entity.TransactionTypeDeposit:
			wallet, err := repo.GetWalletForUpdate(*transaction.WalletID)
			if err != nil {
				return err
			}
			wallet.Balance = wallet.Balance.Add(transaction.Amount)
			if err := repo.UpdateWallet(wallet); err != nil {
				return err
			}

		case entity.TransactionTypeWithdrawal, entity.TransactionTypeHostPayout:
			// Debit was applied at initiation; success only finalizes.

		case entity.TransactionTypeBookingPayment:
			if err := uc.settleBookingPayment(repo, transaction, event, now); err != nil {
				return err
			}

		case entity.TransactionTypeBookingRefund:
			// Gateway-funded refund settled; no wallet leg to move.

		default:
			return fmt.Errorf("unexpected gateway event for %s transaction %s", transaction.Type, transaction.ID)
		}

		transaction.Status = entity.TransactionStatusCompleted
		transaction.ProcessedAt = &now
		if err := repo.UpdateTransaction(transaction); err != nil {
			return err
		}
		if transaction.WalletID != nil && transaction.UserID != nil {
			touchedUsers = append(touchedUsers, *transaction.UserID)
		}
		result = transaction
		outcome = queue.EventTransactionCompleted
		return nil
	})
	if err != nil {
		return nil, err
	}

	for _, userID := range touchedUsers {
		uc.invalidateWalletCache(userID)
	}
	if outcome != "" {
		uc.publishEvent(outcome, result, reason)
	}
	if mismatch {
		return result, ErrAmountMismatch
	}
	return result, nil
}

// settleBookingPayment converts a settled direct charge into a gateway-funded
// escrow hold and moves the booking to PAID. A charge that settles after the
// booking was already paid (a retried attempt whose first charge also went
// through) must not mint a second active hold; the surplus money is queued
// for refund instead.
func (uc *reconciliationUseCase) settleBookingPayment(repo persistent.WalletRepository, transaction *entity.Transaction, event *gateway.WebhookEvent, now time.Time) error {
	if transaction.BookingID == nil {
		return fmt.Errorf("booking payment %s has no booking", transaction.ID)
	}

	booking, err := uc.bookingRepo.GetBookingForUpdate(*transaction.BookingID)
	if err != nil {
		return err
	}

	existingHold, err := repo.GetHoldByBookingForUpdate(*transaction.BookingID)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}
	duplicate := booking.Status != entity.BookingStatusPendingPayment ||
		(existingHold != nil && existingHold.EscrowStatus == entity.EscrowStatusHeld)
	if duplicate {
		externalRef := "rf_" + uuid.New().String()
		pendingRefund := &entity.Transaction{
			UserID:      transaction.UserID,
			BookingID:   transaction.BookingID,
			Type:        entity.TransactionTypeBookingRefund,
			Status:      entity.TransactionStatusPending,
			Amount:      transaction.Amount.Abs(),
			Currency:    transaction.Currency,
			Description: "Refund for duplicate booking payment",
			ExternalRef: &externalRef,
		}
		if event.GatewayRef != "" {
			pendingRefund.GatewayRef = &event.GatewayRef
		}
		uc.logger.Error("Duplicate settlement for booking %s (charge %s): refund queued", *transaction.BookingID, transaction.ID)
		return repo.CreateTransaction(pendingRefund)
	}

	hold := &entity.Transaction{
		UserID:       transaction.UserID,
		BookingID:    transaction.BookingID,
		Type:         entity.TransactionTypeEscrowHold,
		Status:       entity.TransactionStatusCompleted,
		EscrowStatus: entity.EscrowStatusHeld,
		Amount:       transaction.Amount.Abs(),
		Currency:     transaction.Currency,
		Description:  "Escrow hold for booking (gateway funded)",
		ProcessedAt:  &now,
	}
	if event.GatewayRef != "" {
		hold.GatewayRef = &event.GatewayRef
	}
	if err := repo.CreateTransaction(hold); err != nil {
		return err
	}

	booking.Status = entity.BookingStatusPaid
	booking.PaymentMethod = entity.PaymentMethodGateway
	return uc.bookingRepo.UpdateBooking(booking)
}

// failLocked marks a transaction FAILED and, for withdrawal-like types,
// restores the debit that was applied at initiation.
func (uc *reconciliationUseCase) failLocked(repo persistent.WalletRepository, transaction *entity.Transaction, reason string) error {
	if transaction.WalletID != nil &&
		(transaction.Type == entity.TransactionTypeWithdrawal || transaction.Type == entity.TransactionTypeHostPayout) {
		wallet, err := repo.GetWalletForUpdate(*transaction.WalletID)
		if err != nil {
			return err
		}
		wallet.Balance = wallet.Balance.Sub(transaction.Amount) // amount is negative
		if err := repo.UpdateWallet(wallet); err != nil {
			return err
		}
	}

	now := time.Now()
	transaction.Status = entity.TransactionStatusFailed
	transaction.FailureReason = reason
	transaction.ProcessedAt = &now
	return repo.UpdateTransaction(transaction)
}

// recordUnmatched keeps an event nobody asked for: the row is never applied
// to any wallet, the raw payload is archived for review.
func (uc *reconciliationUseCase) recordUnmatched(repo persistent.WalletRepository, event *gateway.WebhookEvent, rawBody []byte) (*entity.Transaction, error) {
	externalRef := event.ExternalRef
	unmatched := &entity.Transaction{
		Type:        unmatchedType(event.EventType),
		Status:      entity.TransactionStatusUnmatched,
		Amount:      event.Amount,
		Currency:    event.Currency,
		Description: "Unmatched gateway event " + event.EventType,
		ExternalRef: &externalRef,
		Metadata: map[string]string{
			"provider":   event.Provider,
			"event_type": event.EventType,
		},
	}
	if event.GatewayRef != "" {
		unmatched.GatewayRef = &event.GatewayRef
	}
	if err := repo.CreateTransaction(unmatched); err != nil {
		return nil, err
	}

	uc.logger.Warn("Unmatched %s event for reference %s", event.Provider, event.ExternalRef)
	if uc.archiver != nil && rawBody != nil {
		key, err := uc.archiver.ArchiveWebhookPayload(event.Provider, event.ExternalRef, rawBody)
		if err != nil {
			uc.logger.Error("Failed to archive unmatched payload %s: %v", event.ExternalRef, err)
		} else {
			unmatched.Metadata["archive_key"] = key
			if err := repo.UpdateTransaction(unmatched); err != nil {
				uc.logger.Warn("Failed to store archive key for %s: %v", unmatched.ID, err)
			}
		}
	}
	return unmatched, nil
}

func unmatchedType(eventType string) entity.TransactionType {
	if strings.Contains(eventType, "transfer") {
		return entity.TransactionTypeWithdrawal
	}
	return entity.TransactionTypeDeposit
}

func (uc *reconciliationUseCase) invalidateWalletCache(userID string) {
	if uc.redisClient == nil {
		return
	}
	if err := cache.Delete(context.Background(), uc.redisClient, walletCacheKey(userID)); err != nil {
		uc.logger.Warn("Wallet cache invalidation failed: %v", err)
	}
}

func (uc *reconciliationUseCase) publishEvent(eventType string, transaction *entity.Transaction, reason string) {
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
