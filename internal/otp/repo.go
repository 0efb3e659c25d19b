package otp

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/padimart/padimart-backend/pkg/db/models"
)

// Repository persists login codes.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, code *models.Otp) error
	FindLatestByPhone(ctx context.Context, phone string) (*models.Otp, error)
	MarkConsumed(ctx context.Context, id uuid.UUID) error
	DeleteStale(ctx context.Context, before time.Time) (int64, error)
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, code *models.Otp) error {
	return r.db.WithContext(ctx).Create(code).Error
}

func (r *repository) FindLatestByPhone(ctx context.Context, phone string) (*models.Otp, error) {
	var code models.Otp
	err := r.db.WithContext(ctx).
		Where("phone = ? AND consumed = ?", phone, false).
		Order("created_at DESC").
		First(&code).Error
	if err != nil {
		return nil, err
	}
	return &code, nil
}

func (r *repository) MarkConsumed(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).
		Model(&models.Otp{}).
		Where("id = ?", id).
		Update("consumed", true).Error
}

func (r *repository) DeleteStale(ctx context.Context, before time.Time) (int64, error) {
	result := r.db.WithContext(ctx).
		Where("expires_at < ? OR consumed = ?", before, true).
		Delete(&models.Otp{})
	return result.RowsAffected, result.Error
}
