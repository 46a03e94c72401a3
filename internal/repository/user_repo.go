package repository

import (
	"context"
	"fmt"

	"github.com/nikhil/begreen/internal/database"
	"github.com/nikhil/begreen/internal/models"
)

type UserRepository struct {
	db *database.DB
}

func NewUserRepository(db *database.DB) *UserRepository {
	return &UserRepository{db: db}
}

func (r *UserRepository) Create(ctx context.Context, user models.User) error {
	conn := r.db.Conn(ctx)

	_, err := conn.ExecContext(ctx,
		"INSERT INTO users (user_id, email, name, password, created_at) VALUES (?, ?, ?, ?, ?)",
		user.UserID, user.Email, user.Name, user.Password, user.CreatedAt)
	if err != nil {
		if HandleDuplicateError(err) == models.ErrConflict {
			return models.ErrConflict
		}
		return fmt.Errorf("failed to insert user: %w", err)
	}
	return nil
}

// GetByEmail returns the user including its password hash.
func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	conn := r.db.Conn(ctx)

	var u models.User
	err := conn.QueryRowContext(ctx,
		"SELECT user_id, email, name, password, created_at FROM users WHERE email = ?", email).
		Scan(&u.UserID, &u.Email, &u.Name, &u.Password, &u.CreatedAt)
	if err != nil {
		if err = HandleNoRowsError(err); err == models.ErrNotFound {
			return nil, err
		}
		return nil, fmt.Errorf("failed to get user by email: %w", err)
	}
	return &u, nil
}

func (r *UserRepository) GetByID(ctx context.Context, userID string) (*models.User, error) {
	conn := r.db.Conn(ctx)

	var u models.User
	err := conn.QueryRowContext(ctx,
		"SELECT user_id, email, name, created_at FROM users WHERE user_id = ?", userID).
		Scan(&u.UserID, &u.Email, &u.Name, &u.CreatedAt)
	if err != nil {
		if err = HandleNoRowsError(err); err == models.ErrNotFound {
			return nil, err
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return &u, nil
}

func (r *UserRepository) UpdateName(ctx context.Context, userID, name string) error {
	conn := r.db.Conn(ctx)

	res, err := conn.ExecContext(ctx, "UPDATE users SET name = ? WHERE user_id = ?", name, userID)
	if err != nil {
		return fmt.Errorf("failed to update user: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return models.ErrNotFound
	}
	return nil
}
