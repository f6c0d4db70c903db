package voucher

import "time"

// IsActive reports whether v can currently be redeemed: not disabled and
// inside its redeem window.
func IsActive(v *Voucher, now time.Time) bool {
	if v == nil || v.DisabledAt != nil {
		return false
	}
	if v.RedeemStartDate != nil && now.Before(*v.RedeemStartDate) {
		return false
	}
	if v.RedeemEndDate != nil && now.After(*v.RedeemEndDate) {
		return false
	}
	return true
}

// IsValid reports whether v applies to the given amount at the given time.
func IsValid(v *Voucher, amount int, now time.Time) bool {
	if !IsActive(v, now) {
		return false
	}
	if v.MinAmount != nil && amount < *v.MinAmount {
		return false
	}
	if v.MaxAmount != nil && amount > *v.MaxAmount {
		return false
	}
	return true
}

// ComputeDiscount returns the discount v grants on amount. The result never
// exceeds amount, so a net payable can never go negative.
func ComputeDiscount(v *Voucher, amount int) int {
	if v == nil || amount <= 0 {
		return 0
	}

	var discount int
	switch v.Type {
	case TypeFixed:
		discount = v.Amount
	case TypePercentage:
		discount = amount * v.Amount / 100
	default:
		return 0
	}

	if discount > amount {
		return amount
	}
	return discount
}

// ExpiryDate computes when a redemption created at redeemedAt expires:
// a relative duration wins over a fixed usage end date; both unset means
// the redemption never expires.
func ExpiryDate(v *Voucher, redeemedAt time.Time) *time.Time {
	if v.UsageDurationDays != nil {
		t := redeemedAt.AddDate(0, 0, *v.UsageDurationDays)
		return &t
	}
	if v.UsageEndDate != nil {
		t := *v.UsageEndDate
		return &t
	}
	return nil
}
