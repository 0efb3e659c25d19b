package enums

import "fmt"

// ReferralEventType describes which milestone earned referral points.
type ReferralEventType string

const (
	ReferralEventSignup   ReferralEventType = "signup"
	ReferralEventPurchase ReferralEventType = "purchase"
)

var validReferralEventTypes = []ReferralEventType{
	ReferralEventSignup,
	ReferralEventPurchase,
}

// IsValid reports whether the value matches the canonical referral event type enum.
func (r ReferralEventType) IsValid() bool {
	for _, candidate := range validReferralEventTypes {
		if candidate == r {
			return true
		}
	}
	return false
}

// ParseReferralEventType converts the raw string to ReferralEventType.
func ParseReferralEventType(value string) (ReferralEventType, error) {
	for _, candidate := range validReferralEventTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid referral event type %q", value)
}
