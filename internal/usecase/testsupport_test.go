package usecase

import (
	"context"
	"net/http"
	"sync"
	"time"

	"stayhaven/internal/entity"
	"stayhaven/internal/gateway"
	"stayhaven/internal/repo/persistent"
	"stayhaven/pkg/config"
	"stayhaven/pkg/logger"
	"stayhaven/pkg/queue"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
	"gorm.io/gorm"
)

// memWalletRepo is an in-memory ledger standing in for the postgres
// repository. Row locking collapses to a single mutex, which preserves the
// engine's serialization assumptions for single-process tests.
type memWalletRepo struct {
	mu           sync.Mutex
	wallets      map[string]*entity.Wallet
	transactions map[string]*entity.Transaction
}

func newMemWalletRepo() *memWalletRepo {
	return &memWalletRepo{
		wallets:      make(map[string]*entity.Wallet),
		transactions: make(map[string]*entity.Transaction),
	}
}

func (r *memWalletRepo) InTransaction(fn func(persistent.WalletRepository) error) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return fn(&lockedWalletRepo{repo: r})
}

func (r *memWalletRepo) GetOrCreateWallet(userID, currency string) (*entity.Wallet, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return (&lockedWalletRepo{repo: r}).GetOrCreateWallet(userID, currency)
}

func (r *memWalletRepo) GetWalletByID(walletID string) (*entity.Wallet, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return (&lockedWalletRepo{repo: r}).GetWalletByID(walletID)
}

func (r *memWalletRepo) GetWalletForUpdate(walletID string) (*entity.Wallet, error) {
	return r.GetWalletByID(walletID)
}

func (r *memWalletRepo) GetWalletByUserForUpdate(userID, currency string) (*entity.Wallet, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return (&lockedWalletRepo{repo: r}).GetWalletByUserForUpdate(userID, currency)
}

func (r *memWalletRepo) UpdateWallet(wallet *entity.Wallet) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return (&lockedWalletRepo{repo: r}).UpdateWallet(wallet)
}

func (r *memWalletRepo) CreateTransaction(transaction *entity.Transaction) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return (&lockedWalletRepo{repo: r}).CreateTransaction(transaction)
}

func (r *memWalletRepo) GetTransactionByID(id string) (*entity.Transaction, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return (&lockedWalletRepo{repo: r}).GetTransactionByID(id)
}

func (r *memWalletRepo) GetTransactionByExternalRef(externalRef string) (*entity.Transaction, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return (&lockedWalletRepo{repo: r}).GetTransactionByExternalRef(externalRef)
}

func (r *memWalletRepo) GetTransactionByExternalRefForUpdate(externalRef string) (*entity.Transaction, error) {
	return r.GetTransactionByExternalRef(externalRef)
}

func (r *memWalletRepo) UpdateTransaction(transaction *entity.Transaction) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return (&lockedWalletRepo{repo: r}).UpdateTransaction(transaction)
}

func (r *memWalletRepo) GetHoldByBooking(bookingID string) (*entity.Transaction, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return (&lockedWalletRepo{repo: r}).GetHoldByBooking(bookingID)
}

func (r *memWalletRepo) GetHoldByBookingForUpdate(bookingID string) (*entity.Transaction, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return (&lockedWalletRepo{repo: r}).GetHoldByBookingForUpdate(bookingID)
}

func (r *memWalletRepo) GetPendingPaymentByBooking(bookingID string) (*entity.Transaction, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return (&lockedWalletRepo{repo: r}).GetPendingPaymentByBooking(bookingID)
}

func (r *memWalletRepo) GetTransactions(userID string, filter persistent.TransactionFilter, limit, offset int) ([]*entity.Transaction, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return (&lockedWalletRepo{repo: r}).GetTransactions(userID, filter, limit, offset)
}

func (r *memWalletRepo) GetPendingOlderThan(cutoff time.Time, limit int) ([]*entity.Transaction, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return (&lockedWalletRepo{repo: r}).GetPendingOlderThan(cutoff, limit)
}

func (r *memWalletRepo) GetUnmatched(limit, offset int) ([]*entity.Transaction, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return (&lockedWalletRepo{repo: r}).GetUnmatched(limit, offset)
}

func (r *memWalletRepo) SumAppliedAmounts(walletID string) (decimal.Decimal, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return (&lockedWalletRepo{repo: r}).SumAppliedAmounts(walletID)
}

// lockedWalletRepo is the view handed to InTransaction callbacks; the
// caller already holds the store mutex.
type lockedWalletRepo struct {
	repo *memWalletRepo
}

func (r *lockedWalletRepo) InTransaction(fn func(persistent.WalletRepository) error) error {
	return fn(r)
}

func (r *lockedWalletRepo) GetOrCreateWallet(userID, currency string) (*entity.Wallet, error) {
	for _, w := range r.repo.wallets {
		if w.UserID == userID && w.Currency == currency {
			copied := *w
			return &copied, nil
		}
	}
	wallet := &entity.Wallet{
		ID:        uuid.New().String(),
		UserID:    userID,
		Balance:   decimal.Zero,
		Currency:  currency,
		Status:    entity.WalletStatusActive,
		CreatedAt: time.Now(),
	}
	r.repo.wallets[wallet.ID] = wallet
	copied := *wallet
	return &copied, nil
}

func (r *lockedWalletRepo) GetWalletByID(walletID string) (*entity.Wallet, error) {
	wallet, ok := r.repo.wallets[walletID]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	copied := *wallet
	return &copied, nil
}

func (r *lockedWalletRepo) GetWalletForUpdate(walletID string) (*entity.Wallet, error) {
	return r.GetWalletByID(walletID)
}

func (r *lockedWalletRepo) GetWalletByUserForUpdate(userID, currency string) (*entity.Wallet, error) {
	for _, w := range r.repo.wallets {
		if w.UserID == userID && w.Currency == currency {
			copied := *w
			return &copied, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *lockedWalletRepo) UpdateWallet(wallet *entity.Wallet) error {
	copied := *wallet
	r.repo.wallets[wallet.ID] = &copied
	return nil
}

func (r *lockedWalletRepo) CreateTransaction(transaction *entity.Transaction) error {
	if transaction.ID == "" {
		transaction.ID = uuid.New().String()
	}
	if transaction.CreatedAt.IsZero() {
		transaction.CreatedAt = time.Now()
	}
	if transaction.ExternalRef != nil {
		for _, tx := range r.repo.transactions {
			if tx.ExternalRef != nil && *tx.ExternalRef == *transaction.ExternalRef {
				return gorm.ErrDuplicatedKey
			}
		}
	}
	copied := *transaction
	r.repo.transactions[transaction.ID] = &copied
	return nil
}

func (r *lockedWalletRepo) GetTransactionByID(id string) (*entity.Transaction, error) {
	tx, ok := r.repo.transactions[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	copied := *tx
	return &copied, nil
}

func (r *lockedWalletRepo) GetTransactionByExternalRef(externalRef string) (*entity.Transaction, error) {
	for _, tx := range r.repo.transactions {
		if tx.ExternalRef != nil && *tx.ExternalRef == externalRef {
			copied := *tx
			return &copied, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *lockedWalletRepo) GetTransactionByExternalRefForUpdate(externalRef string) (*entity.Transaction, error) {
	return r.GetTransactionByExternalRef(externalRef)
}

func (r *lockedWalletRepo) UpdateTransaction(transaction *entity.Transaction) error {
	copied := *transaction
	r.repo.transactions[transaction.ID] = &copied
	return nil
}

func (r *lockedWalletRepo) GetHoldByBooking(bookingID string) (*entity.Transaction, error) {
	var latest *entity.Transaction
	for _, tx := range r.repo.transactions {
		if tx.BookingID == nil || *tx.BookingID != bookingID {
			continue
		}
		if tx.Type != entity.TransactionTypeEscrowHold {
			continue
		}
		if latest == nil || tx.CreatedAt.After(latest.CreatedAt) {
			latest = tx
		}
	}
	if latest == nil {
		return nil, gorm.ErrRecordNotFound
	}
	copied := *latest
	return &copied, nil
}

func (r *lockedWalletRepo) GetHoldByBookingForUpdate(bookingID string) (*entity.Transaction, error) {
	return r.GetHoldByBooking(bookingID)
}

func (r *lockedWalletRepo) GetPendingPaymentByBooking(bookingID string) (*entity.Transaction, error) {
	for _, tx := range r.repo.transactions {
		if tx.BookingID != nil && *tx.BookingID == bookingID &&
			tx.Type == entity.TransactionTypeBookingPayment &&
			tx.Status == entity.TransactionStatusPending {
			copied := *tx
			return &copied, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *lockedWalletRepo) GetTransactions(userID string, filter persistent.TransactionFilter, limit, offset int) ([]*entity.Transaction, error) {
	var out []*entity.Transaction
	for _, tx := range r.repo.transactions {
		if tx.UserID == nil || *tx.UserID != userID {
			continue
		}
		if filter.Type != "" && tx.Type != filter.Type {
			continue
		}
		if filter.Status != "" && tx.Status != filter.Status {
			continue
		}
		copied := *tx
		out = append(out, &copied)
	}
	return out, nil
}

func (r *lockedWalletRepo) GetPendingOlderThan(cutoff time.Time, limit int) ([]*entity.Transaction, error) {
	var out []*entity.Transaction
	for _, tx := range r.repo.transactions {
		if tx.Status == entity.TransactionStatusPending && tx.CreatedAt.Before(cutoff) {
			copied := *tx
			out = append(out, &copied)
		}
		if limit > 0 && len(out) >= limit {
			break
		}
	}
	return out, nil
}

func (r *lockedWalletRepo) GetUnmatched(limit, offset int) ([]*entity.Transaction, error) {
	var out []*entity.Transaction
	for _, tx := range r.repo.transactions {
		if tx.Status == entity.TransactionStatusUnmatched {
			copied := *tx
			out = append(out, &copied)
		}
	}
	return out, nil
}

func (r *lockedWalletRepo) SumAppliedAmounts(walletID string) (decimal.Decimal, error) {
	sum := decimal.Zero
	for _, tx := range r.repo.transactions {
		if tx.WalletID == nil || *tx.WalletID != walletID {
			continue
		}
		applied := tx.Status == entity.TransactionStatusCompleted ||
			(tx.Status == entity.TransactionStatusPending &&
				(tx.Type == entity.TransactionTypeWithdrawal || tx.Type == entity.TransactionTypeHostPayout))
		if applied {
			sum = sum.Add(tx.Amount)
		}
	}
	return sum, nil
}

var _ persistent.WalletRepository = (*memWalletRepo)(nil)

// memBookingRepo is the in-memory booking store.
type memBookingRepo struct {
	mu       sync.Mutex
	bookings map[string]*entity.Booking
}

func newMemBookingRepo() *memBookingRepo {
	return &memBookingRepo{bookings: make(map[string]*entity.Booking)}
}

func (r *memBookingRepo) CreateBooking(booking *entity.Booking) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if booking.ID == "" {
		booking.ID = uuid.New().String()
	}
	booking.CreatedAt = time.Now()
	copied := *booking
	r.bookings[booking.ID] = &copied
	return nil
}

func (r *memBookingRepo) GetBookingByID(id string) (*entity.Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	booking, ok := r.bookings[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	copied := *booking
	return &copied, nil
}

func (r *memBookingRepo) GetBookingForUpdate(id string) (*entity.Booking, error) {
	return r.GetBookingByID(id)
}

func (r *memBookingRepo) UpdateBooking(booking *entity.Booking) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	copied := *booking
	r.bookings[booking.ID] = &copied
	return nil
}

func (r *memBookingRepo) GetBookingsByGuest(guestUserID string, limit, offset int) ([]*entity.Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*entity.Booking
	for _, b := range r.bookings {
		if b.GuestUserID == guestUserID {
			copied := *b
			out = append(out, &copied)
		}
	}
	return out, nil
}

func (r *memBookingRepo) GetBookingsByHost(hostUserID string, limit, offset int) ([]*entity.Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*entity.Booking
	for _, b := range r.bookings {
		if b.HostUserID == hostUserID {
			copied := *b
			out = append(out, &copied)
		}
	}
	return out, nil
}

func (r *memBookingRepo) HasOverlappingBooking(listingID string, checkIn, checkOut time.Time) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, b := range r.bookings {
		if b.ListingID != listingID {
			continue
		}
		if b.Status != entity.BookingStatusPendingPayment && b.Status != entity.BookingStatusPaid {
			continue
		}
		if b.CheckIn.Before(checkOut) && b.CheckOut.After(checkIn) {
			return true, nil
		}
	}
	return false, nil
}

var _ persistent.BookingRepository = (*memBookingRepo)(nil)

// MockGateway is a testify mock of the payment gateway.
type MockGateway struct {
	mock.Mock
}

func (m *MockGateway) Name() string {
	args := m.Called()
	return args.String(0)
}

func (m *MockGateway) InitiateCharge(ctx context.Context, req gateway.ChargeRequest) (*gateway.Handle, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*gateway.Handle), args.Error(1)
}

func (m *MockGateway) InitiateTransfer(ctx context.Context, req gateway.TransferRequest) (*gateway.Handle, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*gateway.Handle), args.Error(1)
}

func (m *MockGateway) Refund(ctx context.Context, req gateway.RefundRequest) (*gateway.Handle, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*gateway.Handle), args.Error(1)
}

func (m *MockGateway) VerifyByReference(ctx context.Context, externalRef string) (*gateway.VerificationResult, error) {
	args := m.Called(ctx, externalRef)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*gateway.VerificationResult), args.Error(1)
}

func (m *MockGateway) VerifyWebhook(headers http.Header, body []byte) error {
	args := m.Called(headers, body)
	return args.Error(0)
}

func (m *MockGateway) ParseWebhook(body []byte) (*gateway.WebhookEvent, error) {
	args := m.Called(body)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*gateway.WebhookEvent), args.Error(1)
}

var _ gateway.PaymentGateway = (*MockGateway)(nil)

// capturePublisher records published events instead of talking to RabbitMQ.
type capturePublisher struct {
	mu     sync.Mutex
	events []queue.PaymentEvent
}

func (p *capturePublisher) PublishPaymentEvent(event queue.PaymentEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	return nil
}

func (p *capturePublisher) byEvent(eventType string) []queue.PaymentEvent {
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []queue.PaymentEvent
	for _, e := range p.events {
		if e.Event == eventType {
			out = append(out, e)
		}
	}
	return out
}

// captureArchiver records archived payloads instead of talking to S3.
type captureArchiver struct {
	mu       sync.Mutex
	archived map[string][]byte
}

func newCaptureArchiver() *captureArchiver {
	return &captureArchiver{archived: make(map[string][]byte)}
}

func (a *captureArchiver) ArchiveWebhookPayload(provider, reference string, payload []byte) (string, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	key := "webhooks/" + provider + "/" + reference + ".json"
	a.archived[key] = payload
	return key, nil
}

func testConfig() *config.Config {
	return &config.Config{
		DefaultCurrency: "NGN",
		PlatformFeeRate: decimal.RequireFromString("0.10"),
		PlatformUserID:  "00000000-0000-0000-0000-000000000001",
	}
}

func testLogger() *logger.Logger {
	return logger.New()
}
