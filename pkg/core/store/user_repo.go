package store

import (
	"context"
	"errors"
	"fmt"

	"farmer_assist/pkg/models"

	"github.com/jackc/pgx/v5"
)

// UserRepo stores accounts in Postgres.
type UserRepo struct {
	db DB
}

func NewUserRepo(db DB) *UserRepo {
	return &UserRepo{db: db}
}

const userColumns = `id, display_name, COALESCE(phone, ''), anonymous, created_at, updated_at`

func (r *UserRepo) Create(ctx context.Context, u *models.User) error {
	query := `
		INSERT INTO users (id, display_name, phone, anonymous, created_at, updated_at)
		VALUES ($1, $2, NULLIF($3, ''), $4, $5, $6)
	`
	if _, err := r.db.Exec(ctx, query, u.ID, u.DisplayName, u.Phone, u.Anonymous, u.CreatedAt, u.UpdatedAt); err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

func (r *UserRepo) Get(ctx context.Context, id string) (*models.User, error) {
	return r.getOne(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
}

func (r *UserRepo) GetByPhone(ctx context.Context, phone string) (*models.User, error) {
	return r.getOne(ctx, `SELECT `+userColumns+` FROM users WHERE phone = $1`, phone)
}

// Update writes the mutable profile fields.
func (r *UserRepo) Update(ctx context.Context, u *models.User) error {
	query := `
		UPDATE users
		SET display_name = $2, phone = NULLIF($3, ''), anonymous = $4, updated_at = $5
		WHERE id = $1
	`
	tag, err := r.db.Exec(ctx, query, u.ID, u.DisplayName, u.Phone, u.Anonymous, u.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to update user: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("user %s: %w", u.ID, ErrNotFound)
	}
	return nil
}

func (r *UserRepo) getOne(ctx context.Context, query string, arg string) (*models.User, error) {
	var u models.User
	err := r.db.QueryRow(ctx, query, arg).Scan(&u.ID, &u.DisplayName, &u.Phone, &u.Anonymous, &u.CreatedAt, &u.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load user: %w", err)
	}
	return &u, nil
}
