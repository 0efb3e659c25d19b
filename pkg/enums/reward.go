package enums

// RewardType is the closed set of reward incentives an order can carry.
type RewardType string

const (
	RewardTypeDiscount     RewardType = "discount"
	RewardTypeFreeDelivery RewardType = "free_delivery"
	RewardTypeCashback     RewardType = "cashback"
)

var validRewardTypes = []RewardType{
	RewardTypeDiscount,
	RewardTypeFreeDelivery,
	RewardTypeCashback,
}

// IsValid reports whether the value matches the canonical reward type enum.
func (r RewardType) IsValid() bool {
	for _, candidate := range validRewardTypes {
		if candidate == r {
			return true
		}
	}
	return false
}

// RewardStatus tracks a granted reward from issue to use or expiry.
type RewardStatus string

const (
	RewardStatusActive  RewardStatus = "active"
	RewardStatusUsed    RewardStatus = "used"
	RewardStatusExpired RewardStatus = "expired"
)

var validRewardStatuses = []RewardStatus{
	RewardStatusActive,
	RewardStatusUsed,
	RewardStatusExpired,
}

// IsValid reports whether the value matches the canonical reward status enum.
func (r RewardStatus) IsValid() bool {
	for _, candidate := range validRewardStatuses {
		if candidate == r {
			return true
		}
	}
	return false
}
