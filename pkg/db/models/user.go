package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/padimart/padimart-backend/pkg/enums"
	"github.com/padimart/padimart-backend/pkg/types"
)

// User is a marketplace participant. Vendors and customers share the table;
// the role decides which flows apply. Bank details feed payouts (withdrawals
// for vendors, refunds for customers).
type User struct {
	ID           uuid.UUID          `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Role         enums.UserRole     `gorm:"column:role;type:text;not null;default:'customer'"`
	FullName     string             `gorm:"column:full_name;not null"`
	Email        string             `gorm:"column:email;not null;uniqueIndex"`
	Phone        string             `gorm:"column:phone;not null"`
	FCMToken     *string            `gorm:"column:fcm_token"`
	BankDetails  *types.BankAccount `gorm:"column:bank_details;type:jsonb;serializer:json"`
	ReferredBy   *uuid.UUID         `gorm:"column:referred_by;type:uuid"`
	ProfileViews int64              `gorm:"column:profile_views;not null;default:0"`
	CreatedAt    time.Time          `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt    time.Time          `gorm:"column:updated_at;autoUpdateTime"`
}
