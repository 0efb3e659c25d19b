package types

import "strings"

// BankAccount is the payout destination attached to withdrawal requests and
// customer refund profiles. Validation tags are enforced by the engines
// before any funds are reserved.
type BankAccount struct {
	AccountName   string `json:"account_name" validate:"required,min=2"`
	AccountNumber string `json:"account_number" validate:"required,len=10,numeric"`
	BankCode      string `json:"bank_code" validate:"required,min=3"`
	BankName      string `json:"bank_name" validate:"required"`
}

// Complete reports whether every field required for a transfer is present.
func (b BankAccount) Complete() bool {
	return strings.TrimSpace(b.AccountName) != "" &&
		strings.TrimSpace(b.AccountNumber) != "" &&
		strings.TrimSpace(b.BankCode) != ""
}
