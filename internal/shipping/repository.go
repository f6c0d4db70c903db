package shipping

import (
	"context"
	"database/sql"
	"errors"

	"pustaka-be/internal/db"
)

type Repository interface {
	GetByID(ctx context.Context, id uint) (*Method, error)
}

type repository struct {
	db db.DBTX
}

func NewRepository(dbtx db.DBTX) Repository {
	return &repository{db: dbtx}
}

func (r *repository) GetByID(ctx context.Context, id uint) (*Method, error) {
	var m Method
	var slug string
	err := r.db.QueryRowContext(ctx, `
		SELECT id, name, slug, is_active, created_at, updated_at
		FROM shipping_methods
		WHERE id = $1 AND is_active = TRUE
	`, id).Scan(&m.ID, &m.Name, &slug, &m.IsActive, &m.CreatedAt, &m.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrMethodNotFound
	}
	if err != nil {
		return nil, err
	}

	kind, ok := ParseMethodKind(slug)
	if !ok {
		return nil, ErrMethodNotFound
	}
	m.Kind = kind
	return &m, nil
}
