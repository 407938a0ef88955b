package points

import "time"

// expiryYears is the calendar-year window after the last purchase during
// which a balance stays usable. The increment is calendar-based (AddDate),
// so leap days resolve the way a customer would expect.
const expiryYears = 3

// earnRateBps is the reward rate applied to the post-discount payment,
// expressed in basis points. Integer math floors, never rounds up.
const earnRateBps = 500

// Balance is a user's persisted point state.
type Balance struct {
	Points         int64      `json:"points"`
	LastPurchaseAt *time.Time `json:"lastPurchaseAt,omitempty"`
}

// ExpiresAt returns the instant the balance expires, or nil when the user
// has never purchased and the balance never expires by this rule.
func (b Balance) ExpiresAt() *time.Time {
	if b.LastPurchaseAt == nil {
		return nil
	}
	at := b.LastPurchaseAt.AddDate(expiryYears, 0, 0)
	return &at
}

// Effective returns the usable balance at the given instant. Expired points
// read as zero; the stored balance is not mutated here. Clearing storage is
// the sweep's job, never a side effect of a read.
func (b Balance) Effective(now time.Time) int64 {
	if b.Points <= 0 {
		return 0
	}
	expiry := b.ExpiresAt()
	if expiry != nil && now.After(*expiry) {
		return 0
	}
	return b.Points
}

// ClampRedemption bounds a user-supplied redemption request. Negative
// requests collapse to zero; oversized requests are silently clamped to
// what the user holds and what the order can absorb.
func ClampRedemption(requested, effective, grandTotal int64) int64 {
	if requested < 0 {
		return 0
	}
	max := effective
	if grandTotal < max {
		max = grandTotal
	}
	if max < 0 {
		max = 0
	}
	if requested > max {
		return max
	}
	return requested
}

// Earned computes the points awarded for a final payment amount.
func Earned(finalPayment int64) int64 {
	if finalPayment <= 0 {
		return 0
	}
	return finalPayment * earnRateBps / 10000
}
