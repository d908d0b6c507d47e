package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/sarthakwebsite26012000-dot/built-connect-emergent/internal/models"
)

const userColumns = `id, email, full_name, phone, role, password_hash, created_at`

func (db *DB) CreateUser(ctx context.Context, user *models.User) error {
	query := `INSERT INTO users (id, email, full_name, phone, role, password_hash, created_at)
              VALUES (?, ?, ?, ?, ?, ?, ?)`
	now := time.Now()
	_, err := db.ExecContext(ctx, query,
		user.ID,
		user.Email,
		user.FullName,
		user.Phone,
		user.Role,
		user.PasswordHash,
		now,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("user with email %s: %w", user.Email, ErrDuplicate)
		}
		return fmt.Errorf("failed to create user: %w", err)
	}
	user.CreatedAt = now
	return nil
}

func (db *DB) GetUserByID(ctx context.Context, id string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = ?`
	return db.getUser(ctx, query, id)
}

func (db *DB) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE email = ?`
	return db.getUser(ctx, query, email)
}

func (db *DB) getUser(ctx context.Context, query string, arg string) (*models.User, error) {
	ctx, cancel := db.opCtx(ctx)
	defer cancel()
	var user models.User
	err := db.QueryRowContext(ctx, query, arg).Scan(
		&user.ID, &user.Email, &user.FullName, &user.Phone, &user.Role,
		&user.PasswordHash, &user.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("user %s: %w", arg, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return &user, nil
}

// PromoteUserToVendor flips a customer's role when they create a vendor
// profile, mirroring the registration flow where the profile comes second.
func (db *DB) PromoteUserToVendor(ctx context.Context, id string) error {
	query := `UPDATE users SET role = ? WHERE id = ? AND role = ?`
	_, err := db.ExecContext(ctx, query, models.RoleVendor, id, models.RoleCustomer)
	if err != nil {
		return fmt.Errorf("failed to promote user: %w", err)
	}
	return nil
}

func (db *DB) CountUsers(ctx context.Context) (int, error) {
	ctx, cancel := db.opCtx(ctx)
	defer cancel()
	var count int
	err := db.QueryRowContext(ctx, `SELECT COUNT(*) FROM users`).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count users: %w", err)
	}
	return count, nil
}

func (db *DB) ListUsers(ctx context.Context) ([]*models.User, error) {
	ctx, cancel := db.opCtx(ctx)
	defer cancel()
	query := `SELECT ` + userColumns + ` FROM users ORDER BY created_at DESC`
	rows, err := db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query users: %w", err)
	}
	defer rows.Close()

	var users []*models.User
	for rows.Next() {
		var user models.User
		err := rows.Scan(
			&user.ID, &user.Email, &user.FullName, &user.Phone, &user.Role,
			&user.PasswordHash, &user.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		users = append(users, &user)
	}
	return users, rows.Err()
}
