package store

import (
	"context"
	"database/sql"
	"errors"

	"pustaka-be/internal/db"
)

type Repository interface {
	GetByID(ctx context.Context, id uint) (*Store, error)
}

type repository struct {
	db db.DBTX
}

func NewRepository(dbtx db.DBTX) Repository {
	return &repository{db: dbtx}
}

func (r *repository) GetByID(ctx context.Context, id uint) (*Store, error) {
	query := `
		SELECT id, name, slug, origin_id, address, phone, is_active
		FROM stores
		WHERE id = $1 AND is_active = TRUE
	`

	var s Store
	err := r.db.QueryRowContext(ctx, query, id).
		Scan(&s.ID, &s.Name, &s.Slug, &s.OriginID, &s.Address, &s.Phone, &s.IsActive)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrStoreNotFound
	}
	if err != nil {
		return nil, err
	}

	return &s, nil
}
