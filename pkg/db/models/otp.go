package models

import (
	"time"

	"github.com/google/uuid"
)

// Otp is a single-use login code. Only the argon2id hash is stored; the
// plaintext code exists only in the SMS/email that delivered it.
type Otp struct {
	ID        uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Phone     string    `gorm:"column:phone;not null;index"`
	CodeHash  string    `gorm:"column:code_hash;not null"`
	ExpiresAt time.Time `gorm:"column:expires_at;not null;index"`
	Consumed  bool      `gorm:"column:consumed;not null;default:false"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
}
