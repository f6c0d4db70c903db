package order

import (
	"context"
	"database/sql"

	"pustaka-be/internal/book"
	"pustaka-be/internal/db"
	"pustaka-be/internal/payment"
	"pustaka-be/internal/shipping"
	"pustaka-be/internal/store"
	"pustaka-be/internal/user"
	"pustaka-be/internal/voucher"
)

// Repos bundles every repository a checkout or reconciliation touches,
// all bound to the same transaction.
type Repos struct {
	Orders          Repository
	Books           book.Repository
	Stores          store.Repository
	Users           user.Repository
	Vouchers        voucher.Repository
	Payments        payment.Repository
	PaymentMethods  payment.MethodRepository
	ShippingMethods shipping.Repository
}

// UnitOfWork runs fn with transaction-scoped repositories. If fn returns an
// error everything written inside it is rolled back.
type UnitOfWork interface {
	Do(ctx context.Context, fn func(r Repos) error) error
}

type sqlUnitOfWork struct {
	db *sql.DB
}

func NewUnitOfWork(database *sql.DB) UnitOfWork {
	return &sqlUnitOfWork{db: database}
}

func (u *sqlUnitOfWork) Do(ctx context.Context, fn func(r Repos) error) error {
	return db.RunInTx(ctx, u.db, func(tx *sql.Tx) error {
		return fn(newRepos(tx))
	})
}

func newRepos(dbtx db.DBTX) Repos {
	return Repos{
		Orders:          NewRepository(dbtx),
		Books:           book.NewRepository(dbtx),
		Stores:          store.NewRepository(dbtx),
		Users:           user.NewRepository(dbtx),
		Vouchers:        voucher.NewRepository(dbtx),
		Payments:        payment.NewRepository(dbtx),
		PaymentMethods:  payment.NewMethodRepository(dbtx),
		ShippingMethods: shipping.NewRepository(dbtx),
	}
}
