package repository

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/anjiri1684/studio_booking/models"
)

type SlotRepository interface {
	Create(ctx context.Context, s *models.AvailabilitySlot) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.AvailabilitySlot, error)
	Update(ctx context.Context, s *models.AvailabilitySlot) error
	Delete(ctx context.Context, id uuid.UUID) error
	ForDay(ctx context.Context, studio models.Studio, date string) ([]models.AvailabilitySlot, error)
	// ListRange returns slots between startDate and endDate inclusive; an empty studio means all studios.
	ListRange(ctx context.Context, studio models.Studio, startDate, endDate string) ([]models.AvailabilitySlot, error)
}

type GormSlotRepository struct {
	db *gorm.DB
}

func (r *GormSlotRepository) Create(ctx context.Context, s *models.AvailabilitySlot) error {
	return translate(r.db.WithContext(ctx).Create(s).Error)
}

func (r *GormSlotRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.AvailabilitySlot, error) {
	var s models.AvailabilitySlot
	if err := r.db.WithContext(ctx).First(&s, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	return &s, nil
}

func (r *GormSlotRepository) Update(ctx context.Context, s *models.AvailabilitySlot) error {
	res := r.db.WithContext(ctx).
		Model(&models.AvailabilitySlot{}).
		Where("id = ?", s.ID).
		Updates(map[string]any{
			"studio":       s.Studio,
			"date":         s.Date,
			"start_time":   s.StartTime,
			"end_time":     s.EndTime,
			"is_available": s.IsAvailable,
			"reason":       s.Reason,
		})
	if res.Error != nil {
		return translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *GormSlotRepository) Delete(ctx context.Context, id uuid.UUID) error {
	res := r.db.WithContext(ctx).Delete(&models.AvailabilitySlot{}, "id = ?", id)
	if res.Error != nil {
		return translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *GormSlotRepository) ForDay(ctx context.Context, studio models.Studio, date string) ([]models.AvailabilitySlot, error) {
	var out []models.AvailabilitySlot
	err := r.db.WithContext(ctx).
		Where("studio = ? AND date = ?", studio, date).
		Order("start_time ASC").
		Find(&out).Error
	if err != nil {
		return nil, translate(err)
	}
	return out, nil
}

func (r *GormSlotRepository) ListRange(ctx context.Context, studio models.Studio, startDate, endDate string) ([]models.AvailabilitySlot, error) {
	q := r.db.WithContext(ctx).Where("date >= ? AND date <= ?", startDate, endDate)
	if studio != "" {
		q = q.Where("studio = ?", studio)
	}

	var out []models.AvailabilitySlot
	if err := q.Order("date ASC, start_time ASC, studio ASC").Find(&out).Error; err != nil {
		return nil, translate(err)
	}
	return out, nil
}
