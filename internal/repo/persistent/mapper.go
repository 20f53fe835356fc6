package persistent

import (
	"encoding/json"

	"stayhaven/internal/entity"
	"stayhaven/internal/model"
)

func ToWalletEntity(m *model.WalletModel) *entity.Wallet {
	if m == nil {
		return nil
	}

	return &entity.Wallet{
		ID:        m.ID,
		UserID:    m.UserID,
		Balance:   m.Balance,
		Currency:  m.Currency,
		Status:    entity.WalletStatus(m.Status),
		Version:   m.Version,
		CreatedAt: m.CreatedAt,
		UpdatedAt: m.UpdatedAt,
	}
}

func ToWalletModel(e *entity.Wallet) *model.WalletModel {
	if e == nil {
		return nil
	}

	return &model.WalletModel{
		ID:        e.ID,
		UserID:    e.UserID,
		Balance:   e.Balance,
		Currency:  e.Currency,
		Status:    string(e.Status),
		Version:   e.Version,
		CreatedAt: e.CreatedAt,
		UpdatedAt: e.UpdatedAt,
	}
}

func ToTransactionEntity(m *model.TransactionModel) *entity.Transaction {
	if m == nil {
		return nil
	}

	var metadata map[string]string
	if m.Metadata != "" {
		// A corrupt metadata blob must not hide the ledger row.
		_ = json.Unmarshal([]byte(m.Metadata), &metadata)
	}

	return &entity.Transaction{
		ID:            m.ID,
		WalletID:      m.WalletID,
		UserID:        m.UserID,
		BookingID:     m.BookingID,
		Type:          entity.TransactionType(m.Type),
		Status:        entity.TransactionStatus(m.Status),
		EscrowStatus:  entity.EscrowStatus(m.EscrowStatus),
		Amount:        m.Amount,
		Currency:      m.Currency,
		Description:   m.Description,
		ExternalRef:   m.ExternalRef,
		GatewayRef:    m.GatewayRef,
		Metadata:      metadata,
		FailureReason: m.FailureReason,
		CreatedAt:     m.CreatedAt,
		ProcessedAt:   m.ProcessedAt,
	}
}

func ToTransactionModel(e *entity.Transaction) *model.TransactionModel {
	if e == nil {
		return nil
	}

	metadata := ""
	if len(e.Metadata) > 0 {
		if data, err := json.Marshal(e.Metadata); err == nil {
			metadata = string(data)
		}
	}

	return &model.TransactionModel{
		ID:            e.ID,
		WalletID:      e.WalletID,
		UserID:        e.UserID,
		BookingID:     e.BookingID,
		Type:          string(e.Type),
		Status:        string(e.Status),
		EscrowStatus:  string(e.EscrowStatus),
		Amount:        e.Amount,
		Currency:      e.Currency,
		Description:   e.Description,
		ExternalRef:   e.ExternalRef,
		GatewayRef:    e.GatewayRef,
		Metadata:      metadata,
		FailureReason: e.FailureReason,
		CreatedAt:     e.CreatedAt,
		ProcessedAt:   e.ProcessedAt,
	}
}

func ToBookingEntity(m *model.BookingModel) *entity.Booking {
	if m == nil {
		return nil
	}

	return &entity.Booking{
		ID:            m.ID,
		ListingID:     m.ListingID,
		GuestUserID:   m.GuestUserID,
		HostUserID:    m.HostUserID,
		CheckIn:       m.CheckIn,
		CheckOut:      m.CheckOut,
		Nights:        m.Nights,
		TotalAmount:   m.TotalAmount,
		Currency:      m.Currency,
		Status:        entity.BookingStatus(m.Status),
		PaymentMethod: entity.PaymentMethod(m.PaymentMethod),
		CreatedAt:     m.CreatedAt,
		UpdatedAt:     m.UpdatedAt,
	}
}

func ToBookingModel(e *entity.Booking) *model.BookingModel {
	if e == nil {
		return nil
	}

	return &model.BookingModel{
		ID:            e.ID,
		ListingID:     e.ListingID,
		GuestUserID:   e.GuestUserID,
		HostUserID:    e.HostUserID,
		CheckIn:       e.CheckIn,
		CheckOut:      e.CheckOut,
		Nights:        e.Nights,
		TotalAmount:   e.TotalAmount,
		Currency:      e.Currency,
		Status:        string(e.Status),
		PaymentMethod: string(e.PaymentMethod),
		CreatedAt:     e.CreatedAt,
		UpdatedAt:     e.UpdatedAt,
	}
}

func ToListingEntity(m *model.ListingModel) *entity.Listing {
	if m == nil {
		return nil
	}

	return &entity.Listing{
		ID:          m.ID,
		HostUserID:  m.HostUserID,
		Title:       m.Title,
		Description: m.Description,
		City:        m.City,
		Address:     m.Address,
		NightlyRate: m.NightlyRate,
		Currency:    m.Currency,
		MaxGuests:   m.MaxGuests,
		Status:      entity.ListingStatus(m.Status),
		CreatedAt:   m.CreatedAt,
		UpdatedAt:   m.UpdatedAt,
	}
}

func ToListingModel(e *entity.Listing) *model.ListingModel {
	if e == nil {
		return nil
	}

	return &model.ListingModel{
		ID:          e.ID,
		HostUserID:  e.HostUserID,
		Title:       e.Title,
		Description: e.Description,
		City:        e.City,
		Address:     e.Address,
		NightlyRate: e.NightlyRate,
		Currency:    e.Currency,
		MaxGuests:   e.MaxGuests,
		Status:      string(e.Status),
		CreatedAt:   e.CreatedAt,
		UpdatedAt:   e.UpdatedAt,
	}
}

func ToReviewEntity(m *model.ReviewModel) *entity.Review {
	if m == nil {
		return nil
	}

	return &entity.Review{
		ID:        m.ID,
		ListingID: m.ListingID,
		UserID:    m.UserID,
		Rating:    m.Rating,
		Comment:   m.Comment,
		CreatedAt: m.CreatedAt,
	}
}

func ToReviewModel(e *entity.Review) *model.ReviewModel {
	if e == nil {
		return nil
	}

	return &model.ReviewModel{
		ID:        e.ID,
		ListingID: e.ListingID,
		UserID:    e.UserID,
		Rating:    e.Rating,
		Comment:   e.Comment,
		CreatedAt: e.CreatedAt,
	}
}

func ToFavoriteEntity(m *model.FavoriteModel) *entity.Favorite {
	if m == nil {
		return nil
	}

	return &entity.Favorite{
		ID:        m.ID,
		UserID:    m.UserID,
		ListingID: m.ListingID,
		CreatedAt: m.CreatedAt,
	}
}
