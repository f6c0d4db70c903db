package user

import (
	"context"
	"database/sql"
	"errors"

	"go.uber.org/zap"

	"pustaka-be/internal/db"
	"pustaka-be/internal/logger"
)

type Repository interface {
	GetByID(ctx context.Context, id uint) (*User, error)
	GetByEmail(ctx context.Context, email string) (*User, error)
	CreateGuest(ctx context.Context, info GuestInfo) (*User, error)

	// GetOrCreateGuest reuses an existing account keyed by email, or creates
	// a guest row when none exists.
	GetOrCreateGuest(ctx context.Context, info GuestInfo) (*User, error)
}

type repository struct {
	db db.DBTX
}

func NewRepository(dbtx db.DBTX) Repository {
	return &repository{db: dbtx}
}

func (r *repository) GetByID(ctx context.Context, id uint) (*User, error) {
	var u User
	err := r.db.QueryRowContext(ctx, `
		SELECT id, name, email, phone, role, is_guest
		FROM users WHERE id = $1
	`, id).Scan(&u.ID, &u.Name, &u.Email, &u.Phone, &u.Role, &u.IsGuest)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *repository) GetByEmail(ctx context.Context, email string) (*User, error) {
	var u User
	err := r.db.QueryRowContext(ctx, `
		SELECT id, name, email, phone, role, is_guest
		FROM users WHERE email = $1
	`, email).Scan(&u.ID, &u.Name, &u.Email, &u.Phone, &u.Role, &u.IsGuest)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *repository) CreateGuest(ctx context.Context, info GuestInfo) (*User, error) {
	log := logger.FromCtx(ctx)

	var u User
	err := r.db.QueryRowContext(ctx, `
		INSERT INTO users (name, email, phone, role, is_guest)
		VALUES ($1, $2, $3, 'user', TRUE)
		RETURNING id, name, email, phone, role, is_guest
	`, info.Name, info.Email, info.Phone).
		Scan(&u.ID, &u.Name, &u.Email, &u.Phone, &u.Role, &u.IsGuest)

	if err != nil {
		log.Error("db: failed to insert guest user",
			zap.String("email", info.Email),
			zap.Error(err),
		)
		return nil, err
	}

	return &u, nil
}

func (r *repository) GetOrCreateGuest(ctx context.Context, info GuestInfo) (*User, error) {
	existing, err := r.GetByEmail(ctx, info.Email)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, ErrUserNotFound) {
		return nil, err
	}

	return r.CreateGuest(ctx, info)
}
