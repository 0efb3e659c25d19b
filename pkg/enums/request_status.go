package enums

import "fmt"

// RefundStatus tracks a refund request through its terminal states.
type RefundStatus string

const (
	RefundStatusPending  RefundStatus = "pending"
	RefundStatusRejected RefundStatus = "rejected"
	RefundStatusApproved RefundStatus = "approved"
)

var validRefundStatuses = []RefundStatus{
	RefundStatusPending,
	RefundStatusRejected,
	RefundStatusApproved,
}

// IsValid reports whether the value matches the canonical refund status enum.
func (r RefundStatus) IsValid() bool {
	for _, candidate := range validRefundStatuses {
		if candidate == r {
			return true
		}
	}
	return false
}

// ParseRefundStatus converts the raw string to RefundStatus.
func ParseRefundStatus(value string) (RefundStatus, error) {
	for _, candidate := range validRefundStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid refund status %q", value)
}

// WithdrawalStatus tracks a withdrawal request through its terminal states.
type WithdrawalStatus string

const (
	WithdrawalStatusPending  WithdrawalStatus = "pending"
	WithdrawalStatusRejected WithdrawalStatus = "rejected"
	WithdrawalStatusApproved WithdrawalStatus = "approved"
)

var validWithdrawalStatuses = []WithdrawalStatus{
	WithdrawalStatusPending,
	WithdrawalStatusRejected,
	WithdrawalStatusApproved,
}

// IsValid reports whether the value matches the canonical withdrawal status enum.
func (w WithdrawalStatus) IsValid() bool {
	for _, candidate := range validWithdrawalStatuses {
		if candidate == w {
			return true
		}
	}
	return false
}
