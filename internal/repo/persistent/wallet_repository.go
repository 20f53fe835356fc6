package persistent

import (
	"errors"
	"time"

	"stayhaven/internal/entity"
	"stayhaven/internal/model"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var ErrNotFound = gorm.ErrRecordNotFound

// TransactionFilter narrows ledger listings. Zero values mean "any".
type TransactionFilter struct {
	Type   entity.TransactionType
	Status entity.TransactionStatus
	From   *time.Time
	To     *time.Time
}

type WalletRepository interface {
	// InTransaction runs fn against a transaction-bound copy of the
	// repository. Row locks taken inside fn are held until fn returns.
	InTransaction(fn func(WalletRepository) error) error

	GetOrCreateWallet(userID, currency string) (*entity.Wallet, error)
	GetWalletByID(walletID string) (*entity.Wallet, error)
	GetWalletForUpdate(walletID string) (*entity.Wallet, error)
	GetWalletByUserForUpdate(userID, currency string) (*entity.Wallet, error)
	UpdateWallet(wallet *entity.Wallet) error

	CreateTransaction(transaction *entity.Transaction) error
	GetTransactionByID(id string) (*entity.Transaction, error)
	GetTransactionByExternalRef(externalRef string) (*entity.Transaction, error)
	GetTransactionByExternalRefForUpdate(externalRef string) (*entity.Transaction, error)
	UpdateTransaction(transaction *entity.Transaction) error

	GetHoldByBooking(bookingID string) (*entity.Transaction, error)
	GetHoldByBookingForUpdate(bookingID string) (*entity.Transaction, error)
	GetPendingPaymentByBooking(bookingID string) (*entity.Transaction, error)
	GetTransactions(userID string, filter TransactionFilter, limit, offset int) ([]*entity.Transaction, error)
	GetPendingOlderThan(cutoff time.Time, limit int) ([]*entity.Transaction, error)
	GetUnmatched(limit, offset int) ([]*entity.Transaction, error)

	// SumAppliedAmounts totals the ledger rows that count against the
	// wallet balance: COMPLETED rows plus PENDING withdrawals.
	SumAppliedAmounts(walletID string) (decimal.Decimal, error)
}

type walletRepository struct {
	db *gorm.DB
}

func NewWalletRepository(db *gorm.DB) WalletRepository {
	return &walletRepository{db: db}
}

func (r *walletRepository) InTransaction(fn func(WalletRepository) error) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		return fn(&walletRepository{db: tx})
	})
}

func (r *walletRepository) GetOrCreateWallet(userID, currency string) (*entity.Wallet, error) {
	var walletModel model.WalletModel
	err := r.db.Where("user_id = ? AND currency = ?", userID, currency).First(&walletModel).Error
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}
		walletModel = model.WalletModel{
			UserID:   userID,
			Balance:  decimal.Zero,
			Currency: currency,
			Status:   string(entity.WalletStatusActive),
		}
		if err := r.db.Create(&walletModel).Error; err != nil {
			return nil, err
		}
	}
	return ToWalletEntity(&walletModel), nil
}

func (r *walletRepository) GetWalletByID(walletID string) (*entity.Wallet, error) {
	var walletModel model.WalletModel
	if err := r.db.Where("id = ?", walletID).First(&walletModel).Error; err != nil {
		return nil, err
	}
	return ToWalletEntity(&walletModel), nil
}

func (r *walletRepository) GetWalletForUpdate(walletID string) (*entity.Wallet, error) {
	var walletModel model.WalletModel
	err := r.db.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", walletID).
		First(&walletModel).Error
	if err != nil {
		return nil, err
	}
	return ToWalletEntity(&walletModel), nil
}

func (r *walletRepository) GetWalletByUserForUpdate(userID, currency string) (*entity.Wallet, error) {
	var walletModel model.WalletModel
	err := r.db.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("user_id = ? AND currency = ?", userID, currency).
		First(&walletModel).Error
	if err != nil {
		return nil, err
	}
	return ToWalletEntity(&walletModel), nil
}

func (r *walletRepository) UpdateWallet(wallet *entity.Wallet) error {
	wallet.Version++
	walletModel := ToWalletModel(wallet)
	return r.db.Save(walletModel).Error
}

func (r *walletRepository) CreateTransaction(transaction *entity.Transaction) error {
	transactionModel := ToTransactionModel(transaction)
	if err := r.db.Create(transactionModel).Error; err != nil {
		return err
	}
	transaction.ID = transactionModel.ID
	transaction.CreatedAt = transactionModel.CreatedAt
	return nil
}

func (r *walletRepository) GetTransactionByID(id string) (*entity.Transaction, error) {
	var transactionModel model.TransactionModel
	if err := r.db.Where("id = ?", id).First(&transactionModel).Error; err != nil {
		return nil, err
	}
	return ToTransactionEntity(&transactionModel), nil
}

func (r *walletRepository) GetTransactionByExternalRef(externalRef string) (*entity.Transaction, error) {
	var transactionModel model.TransactionModel
	if err := r.db.Where("external_ref = ?", externalRef).First(&transactionModel).Error; err != nil {
		return nil, err
	}
	return ToTransactionEntity(&transactionModel), nil
}

func (r *walletRepository) GetTransactionByExternalRefForUpdate(externalRef string) (*entity.Transaction, error) {
	var transactionModel model.TransactionModel
	err := r.db.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("external_ref = ?", externalRef).
		First(&transactionModel).Error
	if err != nil {
		return nil, err
	}
	return ToTransactionEntity(&transactionModel), nil
}

func (r *walletRepository) UpdateTransaction(transaction *entity.Transaction) error {
	transactionModel := ToTransactionModel(transaction)
	return r.db.Save(transactionModel).Error
}

func (r *walletRepository) GetHoldByBooking(bookingID string) (*entity.Transaction, error) {
	var transactionModel model.TransactionModel
	err := r.db.Where("booking_id = ? AND type = ?", bookingID, string(entity.TransactionTypeEscrowHold)).
		Order("created_at DESC").
		First(&transactionModel).Error
	if err != nil {
		return nil, err
	}
	return ToTransactionEntity(&transactionModel), nil
}

// GetHoldByBookingForUpdate locks the hold row. Release, refund and
// duplicate-settlement decisions all branch on the escrow status, so they
// must read it under the lock or two of them can both observe HELD.
func (r *walletRepository) GetHoldByBookingForUpdate(bookingID string) (*entity.Transaction, error) {
	var transactionModel model.TransactionModel
	err := r.db.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("booking_id = ? AND type = ?", bookingID, string(entity.TransactionTypeEscrowHold)).
		Order("created_at DESC").
		First(&transactionModel).Error
	if err != nil {
		return nil, err
	}
	return ToTransactionEntity(&transactionModel), nil
}

func (r *walletRepository) GetPendingPaymentByBooking(bookingID string) (*entity.Transaction, error) {
	var transactionModel model.TransactionModel
	err := r.db.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("booking_id = ? AND type = ? AND status = ?",
			bookingID,
			string(entity.TransactionTypeBookingPayment),
			string(entity.TransactionStatusPending)).
		First(&transactionModel).Error
	if err != nil {
		return nil, err
	}
	return ToTransactionEntity(&transactionModel), nil
}

func (r *walletRepository) GetTransactions(userID string, filter TransactionFilter, limit, offset int) ([]*entity.Transaction, error) {
	query := r.db.Where("user_id = ?", userID).Order("created_at DESC")
	if filter.Type != "" {
		query = query.Where("type = ?", string(filter.Type))
	}
	if filter.Status != "" {
		query = query.Where("status = ?", string(filter.Status))
	}
	if filter.From != nil {
		query = query.Where("created_at >= ?", *filter.From)
	}
	if filter.To != nil {
		query = query.Where("created_at < ?", *filter.To)
	}
	if limit > 0 {
		query = query.Limit(limit).Offset(offset)
	}

	var transactionModels []model.TransactionModel
	if err := query.Find(&transactionModels).Error; err != nil {
		return nil, err
	}

	transactions := make([]*entity.Transaction, len(transactionModels))
	for i := range transactionModels {
		transactions[i] = ToTransactionEntity(&transactionModels[i])
	}
	return transactions, nil
}

func (r *walletRepository) GetPendingOlderThan(cutoff time.Time, limit int) ([]*entity.Transaction, error) {
	query := r.db.Where("status = ? AND created_at < ?", string(entity.TransactionStatusPending), cutoff).
		Order("created_at ASC")
	if limit > 0 {
		query = query.Limit(limit)
	}

	var transactionModels []model.TransactionModel
	if err := query.Find(&transactionModels).Error; err != nil {
		return nil, err
	}

	transactions := make([]*entity.Transaction, len(transactionModels))
	for i := range transactionModels {
		transactions[i] = ToTransactionEntity(&transactionModels[i])
	}
	return transactions, nil
}

func (r *walletRepository) GetUnmatched(limit, offset int) ([]*entity.Transaction, error) {
	query := r.db.Where("status = ?", string(entity.TransactionStatusUnmatched)).
		Order("created_at DESC")
	if limit > 0 {
		query = query.Limit(limit).Offset(offset)
	}

	var transactionModels []model.TransactionModel
	if err := query.Find(&transactionModels).Error; err != nil {
		return nil, err
	}

	transactions := make([]*entity.Transaction, len(transactionModels))
	for i := range transactionModels {
		transactions[i] = ToTransactionEntity(&transactionModels[i])
	}
	return transactions, nil
}

func (r *walletRepository) SumAppliedAmounts(walletID string) (decimal.Decimal, error) {
	var sum decimal.NullDecimal
	err := r.db.Model(&model.TransactionModel{}).
		Select("COALESCE(SUM(amount), 0)").
		Where("wallet_id = ?", walletID).
		Where("status = ? OR (status = ? AND type IN ?)",
			string(entity.TransactionStatusCompleted),
			string(entity.TransactionStatusPending),
			[]string{string(entity.TransactionTypeWithdrawal), string(entity.TransactionTypeHostPayout)}).
		Scan(&sum).Error
	if err != nil {
		return decimal.Zero, err
	}
	if !sum.Valid {
		return decimal.Zero, nil
	}
	return sum.Decimal, nil
}
