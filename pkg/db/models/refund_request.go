package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/padimart/padimart-backend/pkg/enums"
)

// RefundRequest reverses a settled order. The order id is the primary key,
// which enforces at most one refund per order at the schema level. The
// financial fields are a snapshot of the order taken when the request was
// filed, so later order mutations cannot change the reversal amounts.
type RefundRequest struct {
	OrderID  uuid.UUID `gorm:"column:order_id;type:uuid;primaryKey"`
	UserID   uuid.UUID `gorm:"column:user_id;type:uuid;not null;index"`
	VendorID uuid.UUID `gorm:"column:vendor_id;type:uuid;not null;index"`

	Amount         float64 `gorm:"column:amount;type:numeric;not null"`
	Subtotal       float64 `gorm:"column:subtotal;type:numeric;not null"`
	DeliveryFee    float64 `gorm:"column:delivery_fee;type:numeric;not null"`
	ServiceFee     float64 `gorm:"column:service_fee;type:numeric;not null"`
	VendorEarnings float64 `gorm:"column:vendor_earnings;type:numeric;not null"`
	TotalPaid      float64 `gorm:"column:total_paid;type:numeric;not null"`

	Reason            string             `gorm:"column:reason;not null"`
	Status            enums.RefundStatus `gorm:"column:status;type:text;not null;default:'pending'"`
	RejectionReason   *string            `gorm:"column:rejection_reason"`
	TransferReference *string            `gorm:"column:transfer_reference"`

	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
