package refunds

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/padimart/padimart-backend/pkg/db/models"
)

// Repository persists refund requests, keyed by order id.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, req *models.RefundRequest) error
	FindByOrderID(ctx context.Context, orderID uuid.UUID) (*models.RefundRequest, error)
	Update(ctx context.Context, orderID uuid.UUID, fields map[string]any) error
	ListByUser(ctx context.Context, userID uuid.UUID) ([]models.RefundRequest, error)
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

func (r *repository) Create(ctx context.Context, req *models.RefundRequest) error {
	return r.db.WithContext(ctx).Create(req).Error
}

func (r *repository) FindByOrderID(ctx context.Context, orderID uuid.UUID) (*models.RefundRequest, error) {
	var req models.RefundRequest
	if err := r.db.WithContext(ctx).First(&req, "order_id = ?", orderID).Error; err != nil {
		return nil, err
	}
	return &req, nil
}

func (r *repository) Update(ctx context.Context, orderID uuid.UUID, fields map[string]any) error {
	return r.db.WithContext(ctx).
		Model(&models.RefundRequest{}).
		Where("order_id = ?", orderID).
		Updates(fields).Error
}

func (r *repository) ListByUser(ctx context.Context, userID uuid.UUID) ([]models.RefundRequest, error) {
	var reqs []models.RefundRequest
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&reqs).Error
	return reqs, err
}
