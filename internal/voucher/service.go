package voucher

import (
	"context"
	"time"

	"go.uber.org/zap"

	"pustaka-be/internal/logger"
)

type Service interface {
	// GetVouchers lists vouchers the user can see for the given scope.
	GetVouchers(ctx context.Context, storeID *uint, userID uint) ([]VisibleVoucher, error)

	// CheckVoucher validates a code against a prospective amount and returns
	// the voucher together with the discount it would grant. A voucher whose
	// usage limit the caller has already reached is refused.
	CheckVoucher(ctx context.Context, code string, storeID *uint, userID uint, amount int) (*CheckResult, error)
}

type CheckResult struct {
	Voucher  *Voucher `json:"voucher"`
	Discount int      `json:"discount"`
}

type service struct {
	repo Repository
}

func NewService(repo Repository) Service {
	return &service{repo: repo}
}

func (s *service) GetVouchers(ctx context.Context, storeID *uint, userID uint) ([]VisibleVoucher, error) {
	log := logger.FromCtx(ctx).With(
		zap.String("layer", "service"),
		zap.String("method", "GetVouchers"),
	)

	vouchers, err := s.repo.ListVisible(ctx, storeID, userID, time.Now())
	if err != nil {
		log.Error("failed to list vouchers", zap.Error(err))
		return nil, err
	}
	return vouchers, nil
}

func (s *service) CheckVoucher(ctx context.Context, code string, storeID *uint, userID uint, amount int) (*CheckResult, error) {
	log := logger.FromCtx(ctx).With(
		zap.String("layer", "service"),
		zap.String("method", "CheckVoucher"),
		zap.String("voucher_code", code),
	)

	now := time.Now()

	// 1. Resolve the voucher within its scope.
	v, err := s.repo.FindActiveByCode(ctx, code, storeID, now)
	if err != nil {
		log.Warn("voucher lookup failed", zap.Error(err))
		return nil, err
	}

	// 2. Gate on the amount window.
	if !IsValid(v, amount, now) {
		return nil, ErrVoucherInvalid
	}

	// 3. Refuse a voucher the caller has already used up. Checkout itself
	// re-checks this atomically inside the transaction; here it only spares
	// the caller a doomed attempt.
	if v.UsageLimit != nil {
		red, err := s.repo.GetRedemption(ctx, v.ID, userID)
		if err != nil {
			log.Error("failed to load redemption", zap.Error(err))
			return nil, err
		}
		if red != nil && red.UsageCount >= *v.UsageLimit {
			log.Warn("voucher usage limit reached", zap.Int("usage_count", red.UsageCount))
			return nil, ErrVoucherExhausted
		}
	}

	return &CheckResult{Voucher: v, Discount: ComputeDiscount(v, amount)}, nil
}
