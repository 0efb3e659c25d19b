package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/padimart/padimart-backend/pkg/enums"
	"github.com/padimart/padimart-backend/pkg/types"
)

// WithdrawalRequest moves confirmed earnings out to a vendor's bank account.
// The amount is reserved (debited from the eligible balance) in the same
// transaction that creates the row.
type WithdrawalRequest struct {
	ID       uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	VendorID uuid.UUID `gorm:"column:vendor_id;type:uuid;not null;index"`
	Amount   float64   `gorm:"column:amount;type:numeric;not null"`

	BankAccount types.BankAccount `gorm:"column:bank_account;type:jsonb;serializer:json"`

	Status            enums.WithdrawalStatus `gorm:"column:status;type:text;not null;default:'pending'"`
	RejectionReason   *string                `gorm:"column:rejection_reason"`
	TransferReference *string                `gorm:"column:transfer_reference"`

	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
