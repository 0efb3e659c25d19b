package models

import (
	"time"

	"github.com/google/uuid"
)

// Wallet holds a user's balances in major currency units.
//
// Balance is the lifetime net (credits minus debits). PendingBalance is
// earned but not yet delivery-confirmed; EligibleBalance is confirmed and
// withdrawable. Pending and eligible must never go negative after a
// committed transaction; every mutation happens inside the same atomic
// transaction as the order/refund/withdrawal row it is caused by.
type Wallet struct {
	UserID          uuid.UUID `gorm:"column:user_id;type:uuid;primaryKey"`
	Balance         float64   `gorm:"column:balance;type:numeric;not null;default:0"`
	PendingBalance  float64   `gorm:"column:pending_balance;type:numeric;not null;default:0"`
	EligibleBalance float64   `gorm:"column:eligible_balance;type:numeric;not null;default:0"`
	CreatedAt       time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt       time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
