package pricing

import "github.com/shopspring/decimal"

const (
	serviceChargeRate = 0.055
	serviceChargeBase = 100
	serviceChargeCap  = 2000

	tierGoldThreshold   = 150000
	tierSilverThreshold = 50000

	tierGoldRate   = 0.03
	tierSilverRate = 0.05
	tierBaseRate   = 0.07
)

// ServiceCharge computes the platform fee for an order subtotal:
// min(subtotal*0.055 + 100, 2000), rounded to 2 decimal places.
// Defined for subtotal >= 0; negative inputs are treated as 0.
func ServiceCharge(subtotal float64) float64 {
	if subtotal < 0 {
		subtotal = 0
	}
	fee := decimal.NewFromFloat(subtotal).
		Mul(decimal.NewFromFloat(serviceChargeRate)).
		Add(decimal.NewFromInt(serviceChargeBase))
	cap := decimal.NewFromInt(serviceChargeCap)
	if fee.GreaterThan(cap) {
		fee = cap
	}
	return fee.Round(2).InexactFloat64()
}

// CommissionRate selects the commission tier for a vendor's trailing
// monthly sales total. The rate is recorded on settled orders for audit;
// it is not currently deducted from vendor earnings.
func CommissionRate(monthlySalesTotal float64) float64 {
	switch {
	case monthlySalesTotal >= tierGoldThreshold:
		return tierGoldRate
	case monthlySalesTotal >= tierSilverThreshold:
		return tierSilverRate
	default:
		return tierBaseRate
	}
}
