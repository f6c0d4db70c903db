package order

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"pustaka-be/internal/db"
)

type Repository interface {
	CreateOrder(ctx context.Context, o *Order) error
	CreateInvoice(ctx context.Context, inv *Invoice) error
	CreateItem(ctx context.Context, item *Item) error

	GetByID(ctx context.Context, id uint) (*Order, error)
	GetByCode(ctx context.Context, code string) (*Order, error)
	GetInvoiceByID(ctx context.Context, id uint) (*Invoice, error)
	ListInvoices(ctx context.Context, orderID uint) ([]Invoice, error)
	ListItems(ctx context.Context, orderID uint) ([]ItemDetail, error)
	SumInvoiceAmounts(ctx context.Context, orderID uint) (int, error)

	ApplyInvoiceVoucher(ctx context.Context, invoiceID, voucherID uint, amount int) error
	ApplyOrderVoucher(ctx context.Context, orderID, voucherID uint, amount int) error
	SetShippingCost(ctx context.Context, orderID uint, total int) error

	// SetPaidNow cascades order, invoices and items to paid and stamps
	// paid_at. SetCancelled cascades them to cancelled.
	SetPaidNow(ctx context.Context, orderID uint, now time.Time) error
	SetCancelled(ctx context.Context, orderID uint) error
}

type repository struct {
	db db.DBTX
}

func NewRepository(dbtx db.DBTX) Repository {
	return &repository{db: dbtx}
}

func (r *repository) CreateOrder(ctx context.Context, o *Order) error {
	return r.db.QueryRowContext(ctx, `
		INSERT INTO orders (
			user_id, code, note, payment_method_id, shipping_method_id,
			destination_id, destination_label, province_name, city_name,
			district_name, subdistrict_name, zip_code, address,
			shipping_cost, shipping_estimate, status
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
		RETURNING id, created_at, updated_at
	`,
		o.UserID, o.Code, o.Note, o.PaymentMethodID, o.ShippingMethodID,
		o.Destination.ID, o.Destination.Label, o.Destination.ProvinceName, o.Destination.CityName,
		o.Destination.DistrictName, o.Destination.SubdistrictName, o.Destination.ZipCode, o.Destination.Address,
		o.ShippingCost, o.ShippingEstimate, o.Status,
	).Scan(&o.ID, &o.CreatedAt, &o.UpdatedAt)
}

func (r *repository) CreateInvoice(ctx context.Context, inv *Invoice) error {
	return r.db.QueryRowContext(ctx, `
		INSERT INTO invoices (
			order_id, store_id, user_id, code, base_amount, shipping_cost,
			shipping_estimate, amount, due_date, status
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING id, created_at, updated_at
	`,
		inv.OrderID, inv.StoreID, inv.UserID, inv.Code, inv.BaseAmount, inv.ShippingCost,
		inv.ShippingEstimate, inv.Amount, inv.DueDate, inv.Status,
	).Scan(&inv.ID, &inv.CreatedAt, &inv.UpdatedAt)
}

func (r *repository) CreateItem(ctx context.Context, item *Item) error {
	return r.db.QueryRowContext(ctx, `
		INSERT INTO order_items (
			order_id, store_id, user_id, book_id, quantity,
			unit_base_price, unit_discount, unit_final_price, subtotal,
			fulfillment_status
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING id, created_at, updated_at
	`,
		item.OrderID, item.StoreID, item.UserID, item.BookID, item.Quantity,
		item.UnitBasePrice, item.UnitDiscount, item.UnitFinalPrice, item.Subtotal,
		item.FulfillmentStatus,
	).Scan(&item.ID, &item.CreatedAt, &item.UpdatedAt)
}

const orderColumns = `
	id, user_id, code, note, payment_method_id, shipping_method_id,
	destination_id, destination_label, province_name, city_name,
	district_name, subdistrict_name, zip_code, address,
	voucher_id, voucher_amount, shipping_cost, shipping_estimate,
	status, paid_at, created_at, updated_at
`

func scanOrder(row interface{ Scan(...any) error }) (*Order, error) {
	var o Order
	err := row.Scan(
		&o.ID, &o.UserID, &o.Code, &o.Note, &o.PaymentMethodID, &o.ShippingMethodID,
		&o.Destination.ID, &o.Destination.Label, &o.Destination.ProvinceName, &o.Destination.CityName,
		&o.Destination.DistrictName, &o.Destination.SubdistrictName, &o.Destination.ZipCode, &o.Destination.Address,
		&o.VoucherID, &o.VoucherAmount, &o.ShippingCost, &o.ShippingEstimate,
		&o.Status, &o.PaidAt, &o.CreatedAt, &o.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &o, nil
}

func (r *repository) GetByID(ctx context.Context, id uint) (*Order, error) {
	o, err := scanOrder(r.db.QueryRowContext(ctx, `
		SELECT `+orderColumns+` FROM orders WHERE id = $1
	`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrOrderNotFound
	}
	if err != nil {
		return nil, err
	}
	return o, nil
}

func (r *repository) GetByCode(ctx context.Context, code string) (*Order, error) {
	o, err := scanOrder(r.db.QueryRowContext(ctx, `
		SELECT `+orderColumns+` FROM orders WHERE code = $1
	`, code))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrOrderNotFound
	}
	if err != nil {
		return nil, err
	}
	return o, nil
}

const invoiceColumns = `
	id, order_id, store_id, user_id, code, base_amount, shipping_cost,
	shipping_estimate, voucher_id, voucher_amount, amount, due_date,
	status, paid_at, created_at, updated_at
`

func scanInvoice(row interface{ Scan(...any) error }) (*Invoice, error) {
	var inv Invoice
	err := row.Scan(
		&inv.ID, &inv.OrderID, &inv.StoreID, &inv.UserID, &inv.Code,
		&inv.BaseAmount, &inv.ShippingCost, &inv.ShippingEstimate,
		&inv.VoucherID, &inv.VoucherAmount, &inv.Amount, &inv.DueDate,
		&inv.Status, &inv.PaidAt, &inv.CreatedAt, &inv.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &inv, nil
}

func (r *repository) GetInvoiceByID(ctx context.Context, id uint) (*Invoice, error) {
	inv, err := scanInvoice(r.db.QueryRowContext(ctx, `
		SELECT `+invoiceColumns+` FROM invoices WHERE id = $1
	`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrInvoiceNotFound
	}
	if err != nil {
		return nil, err
	}
	return inv, nil
}

func (r *repository) ListInvoices(ctx context.Context, orderID uint) ([]Invoice, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+invoiceColumns+` FROM invoices WHERE order_id = $1 ORDER BY id ASC
	`, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var invoices []Invoice
	for rows.Next() {
		inv, err := scanInvoice(rows)
		if err != nil {
			return nil, err
		}
		invoices = append(invoices, *inv)
	}
	return invoices, rows.Err()
}

func (r *repository) ListItems(ctx context.Context, orderID uint) ([]ItemDetail, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT
			oi.id, oi.order_id, oi.store_id, oi.user_id, oi.book_id,
			oi.quantity, oi.unit_base_price, oi.unit_discount,
			oi.unit_final_price, oi.subtotal, oi.fulfillment_status,
			oi.rating, oi.review, oi.created_at, oi.updated_at,
			b.sku, b.title, s.name
		FROM order_items oi
		JOIN books b ON b.id = oi.book_id
		JOIN stores s ON s.id = oi.store_id
		WHERE oi.order_id = $1
		ORDER BY oi.id ASC
	`, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []ItemDetail
	for rows.Next() {
		var d ItemDetail
		err := rows.Scan(
			&d.ID, &d.OrderID, &d.StoreID, &d.UserID, &d.BookID,
			&d.Quantity, &d.UnitBasePrice, &d.UnitDiscount,
			&d.UnitFinalPrice, &d.Subtotal, &d.FulfillmentStatus,
			&d.Rating, &d.Review, &d.CreatedAt, &d.UpdatedAt,
			&d.BookSKU, &d.BookTitle, &d.StoreName,
		)
		if err != nil {
			return nil, err
		}
		items = append(items, d)
	}
	return items, rows.Err()
}

func (r *repository) SumInvoiceAmounts(ctx context.Context, orderID uint) (int, error) {
	var total int
	err := r.db.QueryRowContext(ctx, `
		SELECT COALESCE(SUM(amount), 0) FROM invoices WHERE order_id = $1
	`, orderID).Scan(&total)
	return total, err
}

func (r *repository) ApplyInvoiceVoucher(ctx context.Context, invoiceID, voucherID uint, amount int) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE invoices
		SET voucher_id = $2, voucher_amount = $3, amount = amount - $3, updated_at = NOW()
		WHERE id = $1
	`, invoiceID, voucherID, amount)
	if err != nil {
		return err
	}
	if affected, _ := res.RowsAffected(); affected == 0 {
		return ErrInvoiceNotFound
	}
	return nil
}

func (r *repository) ApplyOrderVoucher(ctx context.Context, orderID, voucherID uint, amount int) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE orders
		SET voucher_id = $2, voucher_amount = $3, updated_at = NOW()
		WHERE id = $1
	`, orderID, voucherID, amount)
	if err != nil {
		return err
	}
	if affected, _ := res.RowsAffected(); affected == 0 {
		return ErrOrderNotFound
	}
	return nil
}

func (r *repository) SetShippingCost(ctx context.Context, orderID uint, total int) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE orders SET shipping_cost = $2, updated_at = NOW() WHERE id = $1
	`, orderID, total)
	if err != nil {
		return err
	}
	if affected, _ := res.RowsAffected(); affected == 0 {
		return ErrOrderNotFound
	}
	return nil
}

func (r *repository) SetPaidNow(ctx context.Context, orderID uint, now time.Time) error {
	if _, err := r.db.ExecContext(ctx, `
		UPDATE invoices SET status = $2, paid_at = $3, updated_at = $3 WHERE order_id = $1
	`, orderID, StatusPaid, now); err != nil {
		return err
	}
	if _, err := r.db.ExecContext(ctx, `
		UPDATE orders SET status = $2, paid_at = $3, updated_at = $3 WHERE id = $1
	`, orderID, StatusPaid, now); err != nil {
		return err
	}
	_, err := r.db.ExecContext(ctx, `
		UPDATE order_items SET fulfillment_status = $2, updated_at = $3 WHERE order_id = $1
	`, orderID, StatusPaid, now)
	return err
}

func (r *repository) SetCancelled(ctx context.Context, orderID uint) error {
	if _, err := r.db.ExecContext(ctx, `
		UPDATE invoices SET status = $2, updated_at = NOW() WHERE order_id = $1
	`, orderID, StatusCancelled); err != nil {
		return err
	}
	if _, err := r.db.ExecContext(ctx, `
		UPDATE orders SET status = $2, updated_at = NOW() WHERE id = $1
	`, orderID, StatusCancelled); err != nil {
		return err
	}
	_, err := r.db.ExecContext(ctx, `
		UPDATE order_items SET fulfillment_status = $2, updated_at = NOW() WHERE order_id = $1
	`, orderID, StatusCancelled)
	return err
}
