package payment

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var paymentCols = []string{
	"id", "order_id", "payment_method_id", "amount", "status",
	"snap_token", "raw_response", "created_at", "updated_at",
}

func TestRepositoryCreate(t *testing.T) {
	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer mockDB.Close()

	repo := NewRepository(mockDB)
	now := time.Now()

	token := "snap-abc"
	p := &Payment{OrderID: 4, MethodID: 2, Amount: 112000, Status: StatusPending, SnapToken: &token}

	mock.ExpectQuery(`INSERT INTO payments`).
		WithArgs(p.OrderID, p.MethodID, p.Amount, p.Status, p.SnapToken, p.RawResponse).
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at", "updated_at"}).AddRow(11, now, now))

	require.NoError(t, repo.Create(context.Background(), p))
	assert.Equal(t, uint(11), p.ID)
}

func TestRepositoryGetLatestByOrder(t *testing.T) {
	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer mockDB.Close()

	repo := NewRepository(mockDB)

	t.Run("latest attempt wins", func(t *testing.T) {
		now := time.Now()
		mock.ExpectQuery(`SELECT(.|\n)+FROM payments(.|\n)+ORDER BY created_at DESC`).
			WithArgs(uint(4)).
			WillReturnRows(sqlmock.NewRows(paymentCols).
				AddRow(12, 4, 2, 112000, "pending", nil, nil, now, now))

		p, err := repo.GetLatestByOrder(context.Background(), 4)
		require.NoError(t, err)
		assert.Equal(t, uint(12), p.ID)
		assert.Equal(t, StatusPending, p.Status)
	})

	t.Run("no attempts", func(t *testing.T) {
		mock.ExpectQuery(`SELECT(.|\n)+FROM payments`).
			WithArgs(uint(99)).
			WillReturnRows(sqlmock.NewRows(paymentCols))

		_, err := repo.GetLatestByOrder(context.Background(), 99)
		assert.ErrorIs(t, err, ErrPaymentNotFound)
	})
}

func TestRepositoryCountByOrder(t *testing.T) {
	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer mockDB.Close()

	repo := NewRepository(mockDB)

	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM payments`).
		WithArgs(uint(4)).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(2))

	count, err := repo.CountByOrder(context.Background(), 4)
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}

func TestRepositorySetStatus(t *testing.T) {
	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer mockDB.Close()

	repo := NewRepository(mockDB)

	t.Run("completed", func(t *testing.T) {
		mock.ExpectExec(`UPDATE payments SET status`).
			WithArgs(StatusCompleted, uint(12)).
			WillReturnResult(sqlmock.NewResult(0, 1))

		assert.NoError(t, repo.SetCompleted(context.Background(), 12))
	})

	t.Run("failed", func(t *testing.T) {
		mock.ExpectExec(`UPDATE payments SET status`).
			WithArgs(StatusFailed, uint(12)).
			WillReturnResult(sqlmock.NewResult(0, 1))

		assert.NoError(t, repo.SetFailed(context.Background(), 12))
	})

	t.Run("missing payment", func(t *testing.T) {
		mock.ExpectExec(`UPDATE payments SET status`).
			WithArgs(StatusCompleted, uint(99)).
			WillReturnResult(sqlmock.NewResult(0, 0))

		assert.ErrorIs(t, repo.SetCompleted(context.Background(), 99), ErrPaymentNotFound)
	})
}

func TestMethodRepositoryGetByID(t *testing.T) {
	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer mockDB.Close()

	repo := NewMethodRepository(mockDB)
	cols := []string{"id", "name", "slug", "is_active", "created_at", "updated_at"}

	t.Run("transfer requires gateway", func(t *testing.T) {
		now := time.Now()
		mock.ExpectQuery(`SELECT(.|\n)+FROM payment_methods`).
			WithArgs(uint(2)).
			WillReturnRows(sqlmock.NewRows(cols).AddRow(2, "Transfer Bank", "transfer", true, now, now))

		m, err := repo.GetByID(context.Background(), 2)
		require.NoError(t, err)
		assert.Equal(t, MethodTransfer, m.Kind)
		assert.True(t, m.Kind.RequiresGateway())
	})

	t.Run("cod settles offline", func(t *testing.T) {
		now := time.Now()
		mock.ExpectQuery(`SELECT(.|\n)+FROM payment_methods`).
			WithArgs(uint(1)).
			WillReturnRows(sqlmock.NewRows(cols).AddRow(1, "Bayar di Tempat", "cod", true, now, now))

		m, err := repo.GetByID(context.Background(), 1)
		require.NoError(t, err)
		assert.Equal(t, MethodCOD, m.Kind)
		assert.False(t, m.Kind.RequiresGateway())
	})

	t.Run("not found", func(t *testing.T) {
		mock.ExpectQuery(`SELECT(.|\n)+FROM payment_methods`).
			WithArgs(uint(99)).
			WillReturnRows(sqlmock.NewRows(cols))

		_, err := repo.GetByID(context.Background(), 99)
		assert.ErrorIs(t, err, ErrMethodNotFound)
	})
}
