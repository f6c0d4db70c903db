package book

import (
	"context"
	"database/sql"
	"errors"

	"pustaka-be/internal/db"
)

type Repository interface {
	GetByID(ctx context.Context, id uint) (*Book, error)
}

type repository struct {
	db db.DBTX
}

func NewRepository(dbtx db.DBTX) Repository {
	return &repository{db: dbtx}
}

func (r *repository) GetByID(ctx context.Context, id uint) (*Book, error) {
	query := `
		SELECT id, store_id, title, author, sku, slice_price, discount, final_price, is_active
		FROM books
		WHERE id = $1 AND is_active = TRUE
	`

	var b Book
	err := r.db.QueryRowContext(ctx, query, id).
		Scan(&b.ID, &b.StoreID, &b.Title, &b.Author, &b.SKU, &b.SlicePrice, &b.Discount, &b.FinalPrice, &b.IsActive)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrBookNotFound
	}
	if err != nil {
		return nil, err
	}

	return &b, nil
}
