package payment

import (
	"context"
	"database/sql"
	"errors"

	"pustaka-be/internal/db"
)

type Repository interface {
	// Create persists a new pending attempt and fills in its id.
	Create(ctx context.Context, p *Payment) error

	GetByID(ctx context.Context, id uint) (*Payment, error)

	// GetLatestByOrder returns the authoritative (most recent) attempt.
	GetLatestByOrder(ctx context.Context, orderID uint) (*Payment, error)

	// CountByOrder counts attempts for an order, used to derive the gateway
	// transaction id suffix for the next attempt.
	CountByOrder(ctx context.Context, orderID uint) (int, error)

	ListByOrder(ctx context.Context, orderID uint) ([]Payment, error)

	SetCompleted(ctx context.Context, id uint) error
	SetFailed(ctx context.Context, id uint) error
}

type repository struct {
	db db.DBTX
}

func NewRepository(dbtx db.DBTX) Repository {
	return &repository{db: dbtx}
}

func (r *repository) Create(ctx context.Context, p *Payment) error {
	return r.db.QueryRowContext(ctx, `
		INSERT INTO payments (order_id, payment_method_id, amount, status, snap_token, raw_response)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at, updated_at
	`,
		p.OrderID, p.MethodID, p.Amount, p.Status, p.SnapToken, p.RawResponse,
	).Scan(&p.ID, &p.CreatedAt, &p.UpdatedAt)
}

const paymentColumns = `
	id, order_id, payment_method_id, amount, status, snap_token, raw_response, created_at, updated_at
`

func scanPayment(row interface{ Scan(...any) error }) (*Payment, error) {
	var p Payment
	err := row.Scan(
		&p.ID, &p.OrderID, &p.MethodID, &p.Amount, &p.Status,
		&p.SnapToken, &p.RawResponse, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *repository) GetByID(ctx context.Context, id uint) (*Payment, error) {
	p, err := scanPayment(r.db.QueryRowContext(ctx, `
		SELECT `+paymentColumns+`
		FROM payments
		WHERE id = $1
	`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrPaymentNotFound
	}
	if err != nil {
		return nil, err
	}
	return p, nil
}

func (r *repository) GetLatestByOrder(ctx context.Context, orderID uint) (*Payment, error) {
	p, err := scanPayment(r.db.QueryRowContext(ctx, `
		SELECT `+paymentColumns+`
		FROM payments
		WHERE order_id = $1
		ORDER BY created_at DESC, id DESC
		LIMIT 1
	`, orderID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrPaymentNotFound
	}
	if err != nil {
		return nil, err
	}
	return p, nil
}

func (r *repository) CountByOrder(ctx context.Context, orderID uint) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM payments WHERE order_id = $1
	`, orderID).Scan(&count)
	return count, err
}

func (r *repository) ListByOrder(ctx context.Context, orderID uint) ([]Payment, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+paymentColumns+`
		FROM payments
		WHERE order_id = $1
		ORDER BY created_at ASC, id ASC
	`, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var payments []Payment
	for rows.Next() {
		p, err := scanPayment(rows)
		if err != nil {
			return nil, err
		}
		payments = append(payments, *p)
	}
	return payments, rows.Err()
}

func (r *repository) SetCompleted(ctx context.Context, id uint) error {
	return r.setStatus(ctx, id, StatusCompleted)
}

func (r *repository) SetFailed(ctx context.Context, id uint) error {
	return r.setStatus(ctx, id, StatusFailed)
}

func (r *repository) setStatus(ctx context.Context, id uint, status Status) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE payments SET status = $1, updated_at = NOW() WHERE id = $2
	`, status, id)
	if err != nil {
		return err
	}
	if affected, _ := res.RowsAffected(); affected == 0 {
		return ErrPaymentNotFound
	}
	return nil
}
