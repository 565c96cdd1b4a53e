package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/anjiri1684/studio_booking/models"
)

type VerificationRepository interface {
	Create(ctx context.Context, v *models.VerificationCode) error
	// Latest returns the newest unconsumed code for phone.
	Latest(ctx context.Context, phone string) (*models.VerificationCode, error)
	RecordAttempt(ctx context.Context, id uuid.UUID) error
	Consume(ctx context.Context, id uuid.UUID, at time.Time) error
}

type GormVerificationRepository struct {
	db *gorm.DB
}

func (r *GormVerificationRepository) Create(ctx context.Context, v *models.VerificationCode) error {
	return translate(r.db.WithContext(ctx).Create(v).Error)
}

func (r *GormVerificationRepository) Latest(ctx context.Context, phone string) (*models.VerificationCode, error) {
	var v models.VerificationCode
	err := r.db.WithContext(ctx).
		Where("phone = ? AND consumed_at IS NULL", phone).
		Order("created_at DESC").
		First(&v).Error
	if err != nil {
		return nil, translate(err)
	}
	return &v, nil
}

func (r *GormVerificationRepository) RecordAttempt(ctx context.Context, id uuid.UUID) error {
	return translate(r.db.WithContext(ctx).
		Model(&models.VerificationCode{}).
		Where("id = ?", id).
		Update("attempts", gorm.Expr("attempts + 1")).Error)
}

func (r *GormVerificationRepository) Consume(ctx context.Context, id uuid.UUID, at time.Time) error {
	res := r.db.WithContext(ctx).
		Model(&models.VerificationCode{}).
		Where("id = ? AND consumed_at IS NULL", id).
		Update("consumed_at", at)
	if res.Error != nil {
		return translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrStaleStatus
	}
	return nil
}
