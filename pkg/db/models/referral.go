package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/padimart/padimart-backend/pkg/enums"
)

// ReferralRecord aggregates a vendor's referral points. One row per vendor,
// created on the first referral. WeeklyPoints feeds the leaderboard and is
// zeroed by the weekly reset job; TotalPoints only ever grows.
type ReferralRecord struct {
	VendorID            uuid.UUID `gorm:"column:vendor_id;type:uuid;primaryKey"`
	TotalPoints         int       `gorm:"column:total_points;not null;default:0"`
	WeeklyPoints        int       `gorm:"column:weekly_points;not null;default:0"`
	ReferredCustomers   int       `gorm:"column:referred_customers;not null;default:0"`
	SuccessfulReferrals int       `gorm:"column:successful_referrals;not null;default:0"`
	IsActive            bool      `gorm:"column:is_active;not null;default:true"`
	CreatedAt           time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt           time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

// ReferralEvent is one history entry behind a referral record. A partial
// unique index on (vendor_id, referred_customer_id) for signup events makes
// double-crediting a signup impossible at the schema level.
type ReferralEvent struct {
	ID                 uuid.UUID               `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	VendorID           uuid.UUID               `gorm:"column:vendor_id;type:uuid;not null;index"`
	ReferredCustomerID uuid.UUID               `gorm:"column:referred_customer_id;type:uuid;not null"`
	Type               enums.ReferralEventType `gorm:"column:type;type:text;not null"`
	Points             int                     `gorm:"column:points;not null"`
	OrderID            *uuid.UUID              `gorm:"column:order_id;type:uuid"`
	CreatedAt          time.Time               `gorm:"column:created_at;autoCreateTime"`
}

// LeaderboardSchedule is the single row driving the weekly reset. The next
// reset time advances by exactly seven days per reset, independent of when
// the job actually ran.
type LeaderboardSchedule struct {
	ID          int       `gorm:"column:id;primaryKey"`
	NextResetAt time.Time `gorm:"column:next_reset_at;not null"`
	UpdatedAt   time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
