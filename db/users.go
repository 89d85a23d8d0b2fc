package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"golang.org/x/crypto/bcrypt"
)

// User is a service account used by admin tooling.
type User struct {
	ID        int64
	Email     string
	IsAdmin   bool
	IsActive  bool
	CreatedAt time.Time
}

// ErrInvalidCredentials is returned when authentication fails, without
// revealing whether the account exists.
var ErrInvalidCredentials = errors.New("invalid email or password")

// CreateUser adds a user with a bcrypt-hashed password.
func (db *DB) CreateUser(ctx context.Context, email, password string, isAdmin bool) (int64, error) {
	if email == "" || password == "" {
		return 0, fmt.Errorf("email and password are required")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return 0, fmt.Errorf("failed to hash password: %w", err)
	}

	res, err := db.conn.ExecContext(ctx,
		"INSERT INTO users (email, hashed_password, is_admin) VALUES (?, ?, ?)",
		email, string(hash), boolToInt(isAdmin),
	)
	if err != nil {
		return 0, fmt.Errorf("failed to create user: %w", err)
	}

	return res.LastInsertId()
}

// Authenticate verifies credentials and returns the user on success.
// Inactive accounts fail with ErrInvalidCredentials.
func (db *DB) Authenticate(ctx context.Context, email, password string) (*User, error) {
	var u User
	var hash string
	var isAdmin, isActive int

	err := db.conn.QueryRowContext(ctx,
		"SELECT id, email, hashed_password, is_admin, is_active, created_at FROM users WHERE email = ?",
		email,
	).Scan(&u.ID, &u.Email, &hash, &isAdmin, &isActive, &u.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, fmt.Errorf("failed to look up user: %w", err)
	}

	if isActive == 0 {
		return nil, ErrInvalidCredentials
	}
	if bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) != nil {
		return nil, ErrInvalidCredentials
	}

	u.IsAdmin = isAdmin != 0
	u.IsActive = true
	return &u, nil
}

// SetAdmin grants or revokes the admin flag for a user.
func (db *DB) SetAdmin(ctx context.Context, email string, admin bool) error {
	res, err := db.conn.ExecContext(ctx,
		"UPDATE users SET is_admin = ?, updated_at = CURRENT_TIMESTAMP WHERE email = ?",
		boolToInt(admin), email,
	)
	if err != nil {
		return fmt.Errorf("failed to update user: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("user %q not found", email)
	}
	return nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
