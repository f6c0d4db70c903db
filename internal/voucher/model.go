package voucher

import "time"

type Type string

const (
	TypeFixed      Type = "fixed"
	TypePercentage Type = "percentage"
)

// Voucher is a discount instrument, scoped to one store (StoreID set) or to
// the whole order (StoreID nil). Vouchers with RequiredPoints set belong to
// the loyalty flow and are invisible to checkout.
type Voucher struct {
	ID                uint
	StoreID           *uint
	Name              string
	Code              string
	Description       *string
	Type              Type
	Amount            int
	MinAmount         *int
	MaxAmount         *int
	RedeemStartDate   *time.Time
	RedeemEndDate     *time.Time
	UsageDurationDays *int
	UsageStartDate    *time.Time
	UsageEndDate      *time.Time
	UsageLimit        *int
	RequiredPoints    *int
	IsPublic          bool
	IsInternal        bool
	DisabledAt        *time.Time
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// Redemption tracks one user's usage of one voucher. One row per
// (user, voucher); UsageCount grows on every later use.
type Redemption struct {
	ID         uint
	UserID     uint
	VoucherID  uint
	UniqueCode string
	UsageCount int
	RedeemedAt *time.Time
	LastUsedAt *time.Time
	ExpiredAt  *time.Time
}

// VisibleVoucher is a voucher together with the caller's redemption state.
type VisibleVoucher struct {
	Voucher
	IsRedeemed bool
}
