package order

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRepositoryCreateOrder(t *testing.T) {
	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer mockDB.Close()

	repo := NewRepository(mockDB)
	now := time.Now()

	o := &Order{
		UserID:           9,
		Code:             "SL-20240310120000",
		PaymentMethodID:  2,
		ShippingMethodID: 2,
		Status:           StatusPending,
	}

	mock.ExpectQuery(`INSERT INTO orders`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at", "updated_at"}).AddRow(1, now, now))

	require.NoError(t, repo.CreateOrder(context.Background(), o))
	assert.Equal(t, uint(1), o.ID)
}

func TestRepositoryGetByCode(t *testing.T) {
	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer mockDB.Close()

	repo := NewRepository(mockDB)

	t.Run("found", func(t *testing.T) {
		now := time.Now()
		rows := sqlmock.NewRows([]string{
			"id", "user_id", "code", "note", "payment_method_id", "shipping_method_id",
			"destination_id", "destination_label", "province_name", "city_name",
			"district_name", "subdistrict_name", "zip_code", "address",
			"voucher_id", "voucher_amount", "shipping_cost", "shipping_estimate",
			"status", "paid_at", "created_at", "updated_at",
		}).AddRow(
			1, 9, "SL-20240310120000", nil, 2, 2,
			114, "Gambir, Jakarta Pusat", nil, nil, nil, nil, nil, "Jl. Merdeka No. 1",
			nil, 0, 2000, "2-3 day",
			"pending", nil, now, now,
		)

		mock.ExpectQuery(`SELECT(.|\n)+FROM orders WHERE code`).
			WithArgs("SL-20240310120000").
			WillReturnRows(rows)

		o, err := repo.GetByCode(context.Background(), "SL-20240310120000")
		require.NoError(t, err)
		assert.Equal(t, uint(1), o.ID)
		assert.Equal(t, StatusPending, o.Status)
		assert.Equal(t, 2000, o.ShippingCost)
		require.NotNil(t, o.Destination.ID)
		assert.Equal(t, 114, *o.Destination.ID)
	})

	t.Run("not found", func(t *testing.T) {
		mock.ExpectQuery(`SELECT(.|\n)+FROM orders WHERE code`).
			WithArgs("SL-missing").
			WillReturnRows(sqlmock.NewRows([]string{"id"}))

		_, err := repo.GetByCode(context.Background(), "SL-missing")
		assert.ErrorIs(t, err, ErrOrderNotFound)
	})
}

func TestRepositoryApplyInvoiceVoucher(t *testing.T) {
	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer mockDB.Close()

	repo := NewRepository(mockDB)

	t.Run("reduces amount by discount", func(t *testing.T) {
		mock.ExpectExec(`UPDATE invoices(.|\n)+amount = amount - \$3`).
			WithArgs(uint(21), uint(5), 1000).
			WillReturnResult(sqlmock.NewResult(0, 1))

		assert.NoError(t, repo.ApplyInvoiceVoucher(context.Background(), 21, 5, 1000))
	})

	t.Run("missing invoice", func(t *testing.T) {
		mock.ExpectExec(`UPDATE invoices`).
			WithArgs(uint(99), uint(5), 1000).
			WillReturnResult(sqlmock.NewResult(0, 0))

		assert.ErrorIs(t, repo.ApplyInvoiceVoucher(context.Background(), 99, 5, 1000), ErrInvoiceNotFound)
	})
}

func TestRepositorySetPaidNow(t *testing.T) {
	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer mockDB.Close()

	repo := NewRepository(mockDB)
	now := time.Now()

	// Invoices, order, then items: the whole aggregate flips to paid.
	mock.ExpectExec(`UPDATE invoices SET status`).
		WithArgs(uint(1), StatusPaid, now).
		WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectExec(`UPDATE orders SET status`).
		WithArgs(uint(1), StatusPaid, now).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`UPDATE order_items SET fulfillment_status`).
		WithArgs(uint(1), StatusPaid, now).
		WillReturnResult(sqlmock.NewResult(0, 3))

	require.NoError(t, repo.SetPaidNow(context.Background(), 1, now))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRepositorySetCancelled(t *testing.T) {
	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer mockDB.Close()

	repo := NewRepository(mockDB)

	mock.ExpectExec(`UPDATE invoices SET status`).
		WithArgs(uint(1), StatusCancelled).
		WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectExec(`UPDATE orders SET status`).
		WithArgs(uint(1), StatusCancelled).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`UPDATE order_items SET fulfillment_status`).
		WithArgs(uint(1), StatusCancelled).
		WillReturnResult(sqlmock.NewResult(0, 3))

	require.NoError(t, repo.SetCancelled(context.Background(), 1))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRepositorySumInvoiceAmounts(t *testing.T) {
	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer mockDB.Close()

	repo := NewRepository(mockDB)

	mock.ExpectQuery(`SELECT COALESCE\(SUM\(amount\), 0\) FROM invoices`).
		WithArgs(uint(1)).
		WillReturnRows(sqlmock.NewRows([]string{"sum"}).AddRow(15000))

	total, err := repo.SumInvoiceAmounts(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, 15000, total)
}

func TestRepositoryListItems(t *testing.T) {
	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer mockDB.Close()

	repo := NewRepository(mockDB)
	now := time.Now()

	rows := sqlmock.NewRows([]string{
		"id", "order_id", "store_id", "user_id", "book_id",
		"quantity", "unit_base_price", "unit_discount", "unit_final_price",
		"subtotal", "fulfillment_status", "rating", "review", "created_at", "updated_at",
		"sku", "title", "name",
	}).
		AddRow(1, 1, 1, 9, 10, 2, 5000, 0, 5000, 10000, "pending", nil, nil, now, now, "BK-010", "Laskar Pelangi", "Pustaka Utama").
		AddRow(2, 1, 1, 9, 11, 1, 3000, 0, 3000, 3000, "pending", nil, nil, now, now, "BK-011", "Bumi Manusia", "Pustaka Utama")

	mock.ExpectQuery(`SELECT(.|\n)+FROM order_items oi(.|\n)+JOIN books b`).
		WithArgs(uint(1)).
		WillReturnRows(rows)

	items, err := repo.ListItems(context.Background(), 1)
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, "BK-010", items[0].BookSKU)
	assert.Equal(t, "Pustaka Utama", items[0].StoreName)
	assert.Equal(t, 10000, items[0].Subtotal)
}
