package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/anjiri1684/studio_booking/models"
)

type BookingFilter struct {
	Studio    models.Studio
	StartDate string
	EndDate   string
	Statuses  []models.BookingStatus
	Phone     string
}

type BookingRepository interface {
	Create(ctx context.Context, b *models.Booking) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Booking, error)
	// ActiveForDay returns pending/confirmed bookings on a studio day, skipping exclude.
	ActiveForDay(ctx context.Context, studio models.Studio, date string, exclude uuid.UUID) ([]models.Booking, error)
	List(ctx context.Context, f BookingFilter) ([]models.Booking, error)
	// UpdateStatus moves a booking to `to` only if its current status is one of from.
	UpdateStatus(ctx context.Context, id uuid.UUID, from []models.BookingStatus, to models.BookingStatus, at time.Time) (*models.Booking, error)
	UpdatePaymentStatus(ctx context.Context, id uuid.UUID, status models.PaymentStatus) (*models.Booking, error)
	// Delete removes a booking only if its current status is one of from.
	Delete(ctx context.Context, id uuid.UUID, from []models.BookingStatus) error
	ConfirmationCodeExists(ctx context.Context, code string) (bool, error)
}

type GormBookingRepository struct {
	db   *gorm.DB
	lock bool
}

func (r *GormBookingRepository) Create(ctx context.Context, b *models.Booking) error {
	return translate(r.db.WithContext(ctx).Create(b).Error)
}

func (r *GormBookingRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Booking, error) {
	var b models.Booking
	if err := r.db.WithContext(ctx).First(&b, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	return &b, nil
}

func (r *GormBookingRepository) ActiveForDay(ctx context.Context, studio models.Studio, date string, exclude uuid.UUID) ([]models.Booking, error) {
	q := r.db.WithContext(ctx).Model(&models.Booking{})
	if r.lock {
		q = q.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	q = q.Where("studio = ? AND date = ? AND status IN ?", studio, date, models.ActiveStatuses)
	if exclude != uuid.Nil {
		q = q.Where("id <> ?", exclude)
	}

	var out []models.Booking
	if err := q.Order("start_time ASC").Find(&out).Error; err != nil {
		return nil, translate(err)
	}
	return out, nil
}

func (r *GormBookingRepository) List(ctx context.Context, f BookingFilter) ([]models.Booking, error) {
	q := r.db.WithContext(ctx).Model(&models.Booking{})
	if f.Studio != "" {
		q = q.Where("studio = ?", f.Studio)
	}
	if f.StartDate != "" {
		q = q.Where("date >= ?", f.StartDate)
	}
	if f.EndDate != "" {
		q = q.Where("date <= ?", f.EndDate)
	}
	if len(f.Statuses) > 0 {
		q = q.Where("status IN ?", f.Statuses)
	}
	if f.Phone != "" {
		q = q.Where("phone = ?", f.Phone)
	}

	var out []models.Booking
	if err := q.Order("date ASC, start_time ASC").Find(&out).Error; err != nil {
		return nil, translate(err)
	}
	return out, nil
}

func (r *GormBookingRepository) UpdateStatus(
	ctx context.Context,
	id uuid.UUID,
	from []models.BookingStatus,
	to models.BookingStatus,
	at time.Time,
) (*models.Booking, error) {
	update := map[string]any{"status": to, "updated_at": at}
	if to == models.BookingCancelled {
		update["cancelled_at"] = at
	} else {
		update["cancelled_at"] = nil
	}

	res := r.db.WithContext(ctx).
		Model(&models.Booking{}).
		Where("id = ? AND status IN ?", id, from).
		Updates(update)
	if res.Error != nil {
		return nil, translate(res.Error)
	}
	if res.RowsAffected == 0 {
		if _, err := r.GetByID(ctx, id); err != nil {
			return nil, err
		}
		return nil, ErrStaleStatus
	}
	return r.GetByID(ctx, id)
}

func (r *GormBookingRepository) UpdatePaymentStatus(ctx context.Context, id uuid.UUID, status models.PaymentStatus) (*models.Booking, error) {
	res := r.db.WithContext(ctx).
		Model(&models.Booking{}).
		Where("id = ?", id).
		Update("payment_status", status)
	if res.Error != nil {
		return nil, translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, ErrNotFound
	}
	return r.GetByID(ctx, id)
}

func (r *GormBookingRepository) Delete(ctx context.Context, id uuid.UUID, from []models.BookingStatus) error {
	res := r.db.WithContext(ctx).
		Where("id = ? AND status IN ?", id, from).
		Delete(&models.Booking{})
	if res.Error != nil {
		return translate(res.Error)
	}
	if res.RowsAffected == 0 {
		if _, err := r.GetByID(ctx, id); err != nil {
			return err
		}
		return ErrStaleStatus
	}
	return nil
}

func (r *GormBookingRepository) ConfirmationCodeExists(ctx context.Context, code string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Booking{}).
		Where("confirmation_code = ?", code).
		Count(&count).Error
	if err != nil {
		return false, translate(err)
	}
	return count > 0, nil
}
