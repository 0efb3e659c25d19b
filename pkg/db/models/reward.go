package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/padimart/padimart-backend/pkg/enums"
)

// Reward is an incentive granted to a user, spendable at checkout until it
// expires. The expiry sweep flips overdue active rewards to expired.
type Reward struct {
	ID             uuid.UUID          `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	UserID         uuid.UUID          `gorm:"column:user_id;type:uuid;not null;index"`
	Type           enums.RewardType   `gorm:"column:type;type:text;not null"`
	DiscountAmount float64            `gorm:"column:discount_amount;type:numeric;not null"`
	Status         enums.RewardStatus `gorm:"column:status;type:text;not null;default:'active'"`
	ExpiresAt      time.Time          `gorm:"column:expires_at;not null;index"`
	CreatedAt      time.Time          `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt      time.Time          `gorm:"column:updated_at;autoUpdateTime"`
}
