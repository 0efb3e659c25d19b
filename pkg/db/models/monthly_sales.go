package models

import (
	"time"

	"github.com/google/uuid"
)

// MonthlySales accumulates a vendor's revenue (subtotal plus delivery fee)
// per calendar month. Used only to pick the commission-rate tier. Settlement
// increases it; refunds decrease it, floored at zero.
type MonthlySales struct {
	ID        uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	VendorID  uuid.UUID `gorm:"column:vendor_id;type:uuid;not null;uniqueIndex:idx_monthly_sales_vendor_month"`
	Month     string    `gorm:"column:month;not null;uniqueIndex:idx_monthly_sales_vendor_month"`
	Revenue   float64   `gorm:"column:revenue;type:numeric;not null;default:0"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
