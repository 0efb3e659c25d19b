package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/padimart/padimart-backend/pkg/enums"
)

// WalletTransaction is one immutable ledger entry in a wallet's history.
// Rows are append-only; corrections are expressed as new entries.
type WalletTransaction struct {
	ID           uuid.UUID               `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	WalletUserID uuid.UUID               `gorm:"column:wallet_user_id;type:uuid;not null;index"`
	Type         enums.TransactionType   `gorm:"column:type;type:text;not null"`
	Status       enums.TransactionStatus `gorm:"column:status;type:text;not null;default:'completed'"`
	Source       enums.TransactionSource `gorm:"column:source;type:text;not null"`
	Amount       float64                 `gorm:"column:amount;type:numeric;not null"`
	Reference    string                  `gorm:"column:reference;not null"`

	OrderID      *uuid.UUID `gorm:"column:order_id;type:uuid"`
	WithdrawalID *uuid.UUID `gorm:"column:withdrawal_id;type:uuid"`

	// Reward audit trail: set when the originating order carried a reward,
	// so platform-vendor debt can be reconciled later.
	RewardType   *enums.RewardType `gorm:"column:reward_type;type:text"`
	PlatformDebt *float64          `gorm:"column:platform_debt;type:numeric"`

	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
}
