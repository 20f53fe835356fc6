package persistent

import (
	"time"

	"stayhaven/internal/entity"
	"stayhaven/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type BookingRepository interface {
	CreateBooking(booking *entity.Booking) error
	GetBookingByID(id string) (*entity.Booking, error)
	GetBookingForUpdate(id string) (*entity.Booking, error)
	UpdateBooking(booking *entity.Booking) error
	GetBookingsByGuest(guestUserID string, limit, offset int) ([]*entity.Booking, error)
	GetBookingsByHost(hostUserID string, limit, offset int) ([]*entity.Booking, error)
	HasOverlappingBooking(listingID string, checkIn, checkOut time.Time) (bool, error)
}

type bookingRepository struct {
	db *gorm.DB
}

func NewBookingRepository(db *gorm.DB) BookingRepository {
	return &bookingRepository{db: db}
}

func (r *bookingRepository) CreateBooking(booking *entity.Booking) error {
	bookingModel := ToBookingModel(booking)
	if err := r.db.Create(bookingModel).Error; err != nil {
		return err
	}
	booking.ID = bookingModel.ID
	booking.CreatedAt = bookingModel.CreatedAt
	return nil
}

func (r *bookingRepository) GetBookingByID(id string) (*entity.Booking, error) {
	var bookingModel model.BookingModel
	if err := r.db.Where("id = ?", id).First(&bookingModel).Error; err != nil {
		return nil, err
	}
	return ToBookingEntity(&bookingModel), nil
}

func (r *bookingRepository) GetBookingForUpdate(id string) (*entity.Booking, error) {
	var bookingModel model.BookingModel
	err := r.db.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", id).
		First(&bookingModel).Error
	if err != nil {
		return nil, err
	}
	return ToBookingEntity(&bookingModel), nil
}

func (r *bookingRepository) UpdateBooking(booking *entity.Booking) error {
	bookingModel := ToBookingModel(booking)
	return r.db.Save(bookingModel).Error
}

func (r *bookingRepository) GetBookingsByGuest(guestUserID string, limit, offset int) ([]*entity.Booking, error) {
	return r.listBookings("guest_user_id = ?", guestUserID, limit, offset)
}

func (r *bookingRepository) GetBookingsByHost(hostUserID string, limit, offset int) ([]*entity.Booking, error) {
	return r.listBookings("host_user_id = ?", hostUserID, limit, offset)
}

func (r *bookingRepository) listBookings(condition, value string, limit, offset int) ([]*entity.Booking, error) {
	query := r.db.Where(condition, value).Order("created_at DESC")
	if limit > 0 {
		query = query.Limit(limit).Offset(offset)
	}

	var bookingModels []model.BookingModel
	if err := query.Find(&bookingModels).Error; err != nil {
		return nil, err
	}

	bookings := make([]*entity.Booking, len(bookingModels))
	for i := range bookingModels {
		bookings[i] = ToBookingEntity(&bookingModels[i])
	}
	return bookings, nil
}

func (r *bookingRepository) HasOverlappingBooking(listingID string, checkIn, checkOut time.Time) (bool, error) {
	var count int64
	err := r.db.Model(&model.BookingModel{}).
		Where("listing_id = ?", listingID).
		Where("status IN ?", []string{
			string(entity.BookingStatusPendingPayment),
			string(entity.BookingStatusPaid),
		}).
		Where("check_in < ? AND check_out > ?", checkOut, checkIn).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}
