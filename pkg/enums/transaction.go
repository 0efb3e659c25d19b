package enums

import "fmt"

// TransactionType distinguishes ledger credits from debits.
type TransactionType string

const (
	TransactionTypeCredit TransactionType = "credit"
	TransactionTypeDebit  TransactionType = "debit"
)

var validTransactionTypes = []TransactionType{
	TransactionTypeCredit,
	TransactionTypeDebit,
}

// IsValid reports whether the value matches the canonical transaction type enum.
func (t TransactionType) IsValid() bool {
	for _, candidate := range validTransactionTypes {
		if candidate == t {
			return true
		}
	}
	return false
}

// TransactionSource names the business event that produced a ledger entry.
type TransactionSource string

const (
	TransactionSourceOrder      TransactionSource = "order"
	TransactionSourceRefund     TransactionSource = "refund"
	TransactionSourceWithdrawal TransactionSource = "withdrawal"
)

var validTransactionSources = []TransactionSource{
	TransactionSourceOrder,
	TransactionSourceRefund,
	TransactionSourceWithdrawal,
}

// IsValid reports whether the value matches the canonical transaction source enum.
func (t TransactionSource) IsValid() bool {
	for _, candidate := range validTransactionSources {
		if candidate == t {
			return true
		}
	}
	return false
}

// ParseTransactionSource converts the raw string to TransactionSource.
func ParseTransactionSource(value string) (TransactionSource, error) {
	for _, candidate := range validTransactionSources {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid transaction source %q", value)
}

// TransactionStatus records the settlement state of a ledger entry.
type TransactionStatus string

const (
	TransactionStatusPending   TransactionStatus = "pending"
	TransactionStatusCompleted TransactionStatus = "completed"
	TransactionStatusFailed    TransactionStatus = "failed"
)

var validTransactionStatuses = []TransactionStatus{
	TransactionStatusPending,
	TransactionStatusCompleted,
	TransactionStatusFailed,
}

// IsValid reports whether the value matches the canonical transaction status enum.
func (t TransactionStatus) IsValid() bool {
	for _, candidate := range validTransactionStatuses {
		if candidate == t {
			return true
		}
	}
	return false
}
