package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/padimart/padimart-backend/pkg/enums"
	"github.com/padimart/padimart-backend/pkg/types"
)

// Order is the settled marketplace order. The id is supplied by the client
// at payment time and doubles as the settlement idempotency key. Financial
// fields are server-normalized at creation and never rewritten afterwards;
// only delivery fields, status, and the timeline mutate later.
type Order struct {
	ID         uuid.UUID `gorm:"column:id;type:uuid;primaryKey"`
	VendorID   uuid.UUID `gorm:"column:vendor_id;type:uuid;not null;index"`
	CustomerID uuid.UUID `gorm:"column:customer_id;type:uuid;not null;index"`

	Items []types.OrderItem `gorm:"column:items;type:jsonb;serializer:json"`

	Subtotal    float64 `gorm:"column:subtotal;type:numeric;not null"`
	DeliveryFee float64 `gorm:"column:delivery_fee;type:numeric;not null;default:0"`
	ServiceFee  float64 `gorm:"column:service_fee;type:numeric;not null"`
	TotalPaid   float64 `gorm:"column:total_paid;type:numeric;not null"`

	CommissionRate   float64 `gorm:"column:commission_rate;type:numeric;not null"`
	VendorCommission float64 `gorm:"column:vendor_commission;type:numeric;not null;default:0"`
	VendorEarnings   float64 `gorm:"column:vendor_earnings;type:numeric;not null"`

	PaymentReference string `gorm:"column:payment_reference;not null"`
	PaymentStatus    string `gorm:"column:payment_status;not null"`

	Status enums.OrderStatus `gorm:"column:status;type:text;not null;default:'pending'"`

	DeliveryCode          *string    `gorm:"column:delivery_code"`
	DeliveryCodeExpiresAt *time.Time `gorm:"column:delivery_code_expires_at"`
	DeliveryConfirmed     bool       `gorm:"column:delivery_confirmed;not null;default:false"`

	RewardType                *enums.RewardType `gorm:"column:reward_type;type:text"`
	RewardDiscount            *float64          `gorm:"column:reward_discount;type:numeric"`
	OriginalTotalBeforeReward *float64          `gorm:"column:original_total_before_reward;type:numeric"`
	PlatformDebt              *float64          `gorm:"column:platform_debt;type:numeric"`
	PlatformDebtType          *enums.RewardType `gorm:"column:platform_debt_type;type:text"`
	PlatformDebtSettled       *bool             `gorm:"column:platform_debt_settled"`

	Timeline types.StatusTimeline `gorm:"column:timeline;type:jsonb;serializer:json"`

	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

// RewardApplied reports whether a reward discounted this order at checkout.
func (o *Order) RewardApplied() bool {
	return o.RewardType != nil && o.OriginalTotalBeforeReward != nil
}
