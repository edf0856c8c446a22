package store

import (
	"context"
	"database/sql"
	"fmt"

	"storefront-service/internal/models"
)

// CreateUser inserts a new (unverified) user
func (s *Store) CreateUser(ctx context.Context, user *models.User) error {
	query := `
		INSERT INTO users (email, password_hash, first_name, last_name, phone, is_verified)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at, updated_at`

	err := s.db.QueryRowxContext(ctx, query,
		user.Email, user.PasswordHash, user.FirstName, user.LastName, user.Phone, user.IsVerified,
	).Scan(&user.ID, &user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

// GetUserByEmail retrieves a user by email. Returns nil when no user exists.
func (s *Store) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	err := s.db.GetContext(ctx, &user, "SELECT * FROM users WHERE email = $1", email)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// GetUserByID retrieves a user by ID
func (s *Store) GetUserByID(ctx context.Context, id int64) (*models.User, error) {
	var user models.User
	err := s.db.GetContext(ctx, &user, "SELECT * FROM users WHERE id = $1", id)
	if err == sql.ErrNoRows {
		return nil, models.NewNotFoundError("user")
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// DeleteUser removes a user row. Only ever called for unverified accounts
// that are being re-registered.
func (s *Store) DeleteUser(ctx context.Context, id int64) error {
	_, err := s.db.ExecContext(ctx, "DELETE FROM users WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}
	return nil
}

// MarkUserVerified flips the verified flag after a successful code check
func (s *Store) MarkUserVerified(ctx context.Context, id int64) error {
	_, err := s.db.ExecContext(ctx,
		"UPDATE users SET is_verified = TRUE, updated_at = NOW() WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("failed to mark user verified: %w", err)
	}
	return nil
}
