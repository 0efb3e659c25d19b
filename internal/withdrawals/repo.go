package withdrawals

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/padimart/padimart-backend/pkg/db/models"
)

// Repository persists withdrawal requests.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, req *models.WithdrawalRequest) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.WithdrawalRequest, error)
	Update(ctx context.Context, id uuid.UUID, fields map[string]any) error
	ListByVendor(ctx context.Context, vendorID uuid.UUID) ([]models.WithdrawalRequest, error)
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

func (r *repository) Create(ctx context.Context, req *models.WithdrawalRequest) error {
	return r.db.WithContext(ctx).Create(req).Error
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.WithdrawalRequest, error) {
	var req models.WithdrawalRequest
	if err := r.db.WithContext(ctx).First(&req, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &req, nil
}

func (r *repository) Update(ctx context.Context, id uuid.UUID, fields map[string]any) error {
	return r.db.WithContext(ctx).
		Model(&models.WithdrawalRequest{}).
		Where("id = ?", id).
		Updates(fields).Error
}

func (r *repository) ListByVendor(ctx context.Context, vendorID uuid.UUID) ([]models.WithdrawalRequest, error) {
	var reqs []models.WithdrawalRequest
	err := r.db.WithContext(ctx).
		Where("vendor_id = ?", vendorID).
		Order("created_at DESC").
		Find(&reqs).Error
	return reqs, err
}
