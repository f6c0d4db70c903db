package payment

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"pustaka-be/internal/db"
)

// MethodKind is the closed set of supported payment methods.
type MethodKind string

const (
	MethodCOD      MethodKind = "cod"
	MethodTransfer MethodKind = "transfer"
)

// RequiresGateway reports whether the method settles through the hosted
// payment gateway. Cash-on-delivery settles offline.
func (k MethodKind) RequiresGateway() bool {
	return k == MethodTransfer
}

func ParseMethodKind(slug string) (MethodKind, bool) {
	switch MethodKind(slug) {
	case MethodCOD, MethodTransfer:
		return MethodKind(slug), true
	}
	return "", false
}

// Method is a configured payment method row.
type Method struct {
	ID        uint
	Name      string
	Kind      MethodKind
	IsActive  bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

type MethodRepository interface {
	GetByID(ctx context.Context, id uint) (*Method, error)
}

type methodRepository struct {
	db db.DBTX
}

func NewMethodRepository(dbtx db.DBTX) MethodRepository {
	return &methodRepository{db: dbtx}
}

func (r *methodRepository) GetByID(ctx context.Context, id uint) (*Method, error) {
	var m Method
	var slug string
	err := r.db.QueryRowContext(ctx, `
		SELECT id, name, slug, is_active, created_at, updated_at
		FROM payment_methods
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
