package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/evapp/ev-backend/internal/models"
)

// UserStore keeps user accounts in the users table.
type UserStore struct {
	db *sql.DB
}

func NewUserStore(db *sql.DB) *UserStore {
	return &UserStore{db: db}
}

// CreateUser inserts u. It returns models.ErrAlreadyExists when the email is
// already registered.
func (s *UserStore) CreateUser(ctx context.Context, u *models.User) error {
	_, err := s.db.ExecContext(ctx, `INSERT INTO users
		(id, email, hashed_password, full_name, is_active, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		u.ID, u.Email, u.HashedPassword, nullable(u.FullName), u.IsActive, u.CreatedAt,
	)
	if isConstraintViolation(err) {
		return fmt.Errorf("user %s: %w", u.Email, models.ErrAlreadyExists)
	}
	if err != nil {
		return fmt.Errorf("creating user: %w", err)
	}
	return nil
}

func (s *UserStore) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	var u models.User
	err := s.db.QueryRowContext(ctx, `
		SELECT id, email, hashed_password, full_name, is_active, created_at
		FROM users WHERE email = ?
	`, email).Scan(&u.ID, &u.Email, &u.HashedPassword, &u.FullName, &u.IsActive, &u.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("user %s: %w", email, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("getting user: %w", err)
	}
	return &u, nil
}
