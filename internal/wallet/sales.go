package wallet

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/padimart/padimart-backend/pkg/db/models"
)

// MonthKey formats the bucket key for a vendor's monthly sales counter.
func MonthKey(t time.Time) string {
	return t.UTC().Format("2006-01")
}

// SalesRepository tracks the per-month revenue buckets that drive
// commission tiers.
type SalesRepository interface {
	WithTx(tx *gorm.DB) SalesRepository
	MonthTotal(ctx context.Context, vendorID uuid.UUID, month string) (float64, error)
	Increment(ctx context.Context, vendorID uuid.UUID, month string, amount float64) error
	Decrement(ctx context.Context, vendorID uuid.UUID, month string, amount float64) error
}

type salesRepository struct {
	db *gorm.DB
}

// NewSalesRepository builds a monthly sales repository bound to the provided DB.
func NewSalesRepository(db *gorm.DB) SalesRepository {
	return &salesRepository{db: db}
}

func (r *salesRepository) WithTx(tx *gorm.DB) SalesRepository {
	if tx == nil {
		return r
	}
	return &salesRepository{db: tx}
}

// MonthTotal returns the cumulative revenue for the bucket, or 0 when the
// vendor has not sold anything that month.
func (r *salesRepository) MonthTotal(ctx context.Context, vendorID uuid.UUID, month string) (float64, error) {
	var row models.MonthlySales
	err := r.db.WithContext(ctx).
		Where("vendor_id = ? AND month = ?", vendorID, month).
		First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return row.Revenue, nil
}

func (r *salesRepository) Increment(ctx context.Context, vendorID uuid.UUID, month string, amount float64) error {
	var row models.MonthlySales
	err := r.db.WithContext(ctx).
		Where("vendor_id = ? AND month = ?", vendorID, month).
		First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return r.db.WithContext(ctx).Create(&models.MonthlySales{
			ID:       uuid.New(),
			VendorID: vendorID,
			Month:    month,
			Revenue:  amount,
		}).Error
	}
	if err != nil {
		return err
	}
	return r.db.WithContext(ctx).Model(&models.MonthlySales{}).
		Where("id = ?", row.ID).
		Update("revenue", row.Revenue+amount).Error
}

// Decrement reduces the bucket by amount, floored at zero. A missing bucket
// is a no-op.
func (r *salesRepository) Decrement(ctx context.Context, vendorID uuid.UUID, month string, amount float64) error {
	var row models.MonthlySales
	err := r.db.WithContext(ctx).
		Where("vendor_id = ? AND month = ?", vendorID, month).
		First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	next := row.Revenue - amount
	if next < 0 {
		next = 0
	}
	return r.db.WithContext(ctx).Model(&models.MonthlySales{}).
		Where("id = ?", row.ID).
		Update("revenue", next).Error
}
