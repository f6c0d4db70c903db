package voucher

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"go.uber.org/zap"

	"pustaka-be/internal/db"
	"pustaka-be/internal/logger"
	"pustaka-be/internal/utils"
)

type Repository interface {
	// FindActiveByCode resolves a redeemable voucher by code within one
	// scope: storeID set restricts to that store's vouchers, nil restricts
	// to order-level (marketplace) vouchers. Loyalty vouchers
	// (required_points set) and external vouchers are never returned.
	FindActiveByCode(ctx context.Context, code string, storeID *uint, now time.Time) (*Voucher, error)

	// ListVisible returns active vouchers the user may apply: public ones
	// plus those the user already holds a redemption for.
	ListVisible(ctx context.Context, storeID *uint, userID uint, now time.Time) ([]VisibleVoucher, error)

	GetRedemption(ctx context.Context, voucherID, userID uint) (*Redemption, error)

	// Redeem records one use of v by the user. The usage-limit check and the
	// counter increment are a single guarded UPDATE, so two concurrent
	// redemptions can never both pass a limit of one.
	Redeem(ctx context.Context, v *Voucher, userID uint, markUsed bool, now time.Time) (bool, error)
}

type repository struct {
	db db.DBTX
}

func NewRepository(dbtx db.DBTX) Repository {
	return &repository{db: dbtx}
}

const voucherColumns = `
	id, store_id, name, code, description, type, amount,
	min_amount, max_amount, redeem_start_date, redeem_end_date,
	usage_duration_days, usage_start_date, usage_end_date,
	usage_limit, required_points, is_public, is_internal, disabled_at
`

func scanVoucher(row interface{ Scan(...any) error }) (*Voucher, error) {
	var v Voucher
	err := row.Scan(
		&v.ID, &v.StoreID, &v.Name, &v.Code, &v.Description, &v.Type, &v.Amount,
		&v.MinAmount, &v.MaxAmount, &v.RedeemStartDate, &v.RedeemEndDate,
		&v.UsageDurationDays, &v.UsageStartDate, &v.UsageEndDate,
		&v.UsageLimit, &v.RequiredPoints, &v.IsPublic, &v.IsInternal, &v.DisabledAt,
	)
	if err != nil {
		return nil, err
	}
	return &v, nil
}

func (r *repository) FindActiveByCode(ctx context.Context, code string, storeID *uint, now time.Time) (*Voucher, error) {
	query := `
		SELECT ` + voucherColumns + `
		FROM vouchers
		WHERE code = $1
		  AND disabled_at IS NULL
		  AND redeem_start_date <= $2
		  AND redeem_end_date >= $2
		  AND required_points IS NULL
		  AND is_internal = TRUE
	`

	args := []any{code, now}
	if storeID != nil {
		query += ` AND store_id = $3`
		args = append(args, *storeID)
	} else {
		query += ` AND store_id IS NULL`
	}

	v, err := scanVoucher(r.db.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrVoucherNotFound
	}
	if err != nil {
		return nil, err
	}
	return v, nil
}

func (r *repository) ListVisible(ctx context.Context, storeID *uint, userID uint, now time.Time) ([]VisibleVoucher, error) {
	query := `
		SELECT ` + voucherColumns + `,
			EXISTS(
				SELECT 1 FROM user_vouchers uv
				WHERE uv.voucher_id = vouchers.id AND uv.user_id = $1
			) AS is_redeemed
		FROM vouchers
		WHERE disabled_at IS NULL
		  AND redeem_start_date <= $2
		  AND redeem_end_date >= $2
		  AND required_points IS NULL
		  AND is_internal = TRUE
		  AND (is_public = TRUE OR EXISTS(
			SELECT 1 FROM user_vouchers uv
			WHERE uv.voucher_id = vouchers.id AND uv.user_id = $1
		  ))
	`

	args := []any{userID, now}
	if storeID != nil {
		query += ` AND store_id = $3`
		args = append(args, *storeID)
	} else {
		query += ` AND store_id IS NULL`
	}
	query += ` ORDER BY redeem_end_date ASC`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []VisibleVoucher
	for rows.Next() {
		var vv VisibleVoucher
		err := rows.Scan(
			&vv.ID, &vv.StoreID, &vv.Name, &vv.Code, &vv.Description, &vv.Type, &vv.Amount,
			&vv.MinAmount, &vv.MaxAmount, &vv.RedeemStartDate, &vv.RedeemEndDate,
			&vv.UsageDurationDays, &vv.UsageStartDate, &vv.UsageEndDate,
			&vv.UsageLimit, &vv.RequiredPoints, &vv.IsPublic, &vv.IsInternal, &vv.DisabledAt,
			&vv.IsRedeemed,
		)
		if err != nil {
			return nil, err
		}
		result = append(result, vv)
	}

	return result, rows.Err()
}

func (r *repository) GetRedemption(ctx context.Context, voucherID, userID uint) (*Redemption, error) {
	var red Redemption
	err := r.db.QueryRowContext(ctx, `
		SELECT id, user_id, voucher_id, unique_code, usage_count, redeemed_at, last_used_at, expired_at
		FROM user_vouchers
		WHERE voucher_id = $1 AND user_id = $2
	`, voucherID, userID).Scan(
		&red.ID, &red.UserID, &red.VoucherID, &red.UniqueCode,
		&red.UsageCount, &red.RedeemedAt, &red.LastUsedAt, &red.ExpiredAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &red, nil
}

func (r *repository) Redeem(ctx context.Context, v *Voucher, userID uint, markUsed bool, now time.Time) (bool, error) {
	log := logger.FromCtx(ctx).With(
		zap.String("layer", "repository"),
		zap.String("method", "Redeem"),
		zap.String("voucher_code", v.Code),
		zap.Uint("user_id", userID),
	)

	incremented, err := r.incrementUsage(ctx, v, userID, markUsed, now)
	if err != nil {
		return false, err
	}
	if incremented {
		return true, nil
	}

	// No row to increment: either this is the first redemption or the limit
	// is reached. Insert with a conflict guard so a concurrent first
	// redemption cannot create two rows.
	res, err := r.db.ExecContext(ctx, `
		INSERT INTO user_vouchers (
			user_id, voucher_id, unique_code, usage_count,
			redeemed_at, last_used_at, expired_at
		) VALUES ($1, $2, $3, 1, $4, $5, $6)
		ON CONFLICT (user_id, voucher_id) DO NOTHING
	`,
		userID,
		v.ID,
		utils.GenerateRedemptionCode(v.Code, userID, now),
		now,
		lastUsed(markUsed, now),
		ExpiryDate(v, now),
	)
	if err != nil {
		log.Error("failed to insert redemption", zap.Error(err))
		return false, err
	}

	inserted, _ := res.RowsAffected()
	if inserted == 1 {
		return true, nil
	}

	// Lost the insert race: the row exists now, retry the guarded update.
	incremented, err = r.incrementUsage(ctx, v, userID, markUsed, now)
	if err != nil {
		return false, err
	}
	if !incremented {
		log.Warn("voucher usage limit reached")
	}
	return incremented, nil
}

func (r *repository) incrementUsage(ctx context.Context, v *Voucher, userID uint, markUsed bool, now time.Time) (bool, error) {
	res, err := r.db.ExecContext(ctx, `
		UPDATE user_vouchers
		SET usage_count = usage_count + 1,
			last_used_at = CASE WHEN $4 THEN $3 ELSE last_used_at END,
			updated_at = $3
		WHERE voucher_id = $1 AND user_id = $2
		  AND ($5::int IS NULL OR usage_count < $5)
	`, v.ID, userID, now, markUsed, v.UsageLimit)
	if err != nil {
		return false, err
	}

	affected, _ := res.RowsAffected()
	return affected == 1, nil
}

func lastUsed(markUsed bool, now time.Time) *time.Time {
	if markUsed {
		return &now
	}
	return nil
}
