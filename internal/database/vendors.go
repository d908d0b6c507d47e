package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/sarthakwebsite26012000-dot/built-connect-emergent/internal/models"
)

const vendorColumns = `id, user_id, services, experience_years, bio, hourly_rate,
                 fixed_rate, approval_status, rating, total_reviews, created_at, updated_at`

func (db *DB) CreateVendorProfile(ctx context.Context, profile *models.VendorProfile) error {
	services, err := json.Marshal(profile.Services)
	if err != nil {
		return fmt.Errorf("failed to encode services: %w", err)
	}

	query := `INSERT INTO vendor_profiles (
				id, user_id, services, experience_years, bio, hourly_rate,
				fixed_rate, approval_status, rating, total_reviews, created_at, updated_at
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	now := time.Now()
	_, err = db.ExecContext(ctx, query,
		profile.ID,
		profile.UserID,
		string(services),
		profile.ExperienceYears,
		profile.Bio,
		nullableDecimal(profile.HourlyRate),
		nullableDecimal(profile.FixedRate),
		profile.ApprovalStatus,
		profile.Rating.String(),
		profile.TotalReviews,
		now,
		now,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("vendor profile for user %s: %w", profile.UserID, ErrDuplicate)
		}
		return fmt.Errorf("failed to create vendor profile: %w", err)
	}

	profile.CreatedAt = now
	profile.UpdatedAt = now
	return nil
}

func (db *DB) GetVendorProfile(ctx context.Context, id string) (*models.VendorProfile, error) {
	query := `SELECT ` + vendorColumns + ` FROM vendor_profiles WHERE id = ?`
	return db.getVendorProfile(ctx, query, id)
}

func (db *DB) GetVendorProfileByUserID(ctx context.Context, userID string) (*models.VendorProfile, error) {
	query := `SELECT ` + vendorColumns + ` FROM vendor_profiles WHERE user_id = ?`
	return db.getVendorProfile(ctx, query, userID)
}

func (db *DB) getVendorProfile(ctx context.Context, query string, arg string) (*models.VendorProfile, error) {
	ctx, cancel := db.opCtx(ctx)
	defer cancel()
	row := db.QueryRowContext(ctx, query, arg)
	profile, err := scanVendorProfile(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("vendor profile %s: %w", arg, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get vendor profile: %w", err)
	}
	return profile, nil
}

// ListVendorProfiles returns profiles, optionally restricted to approved ones.
func (db *DB) ListVendorProfiles(ctx context.Context, approvedOnly bool) ([]*models.VendorProfile, error) {
	ctx, cancel := db.opCtx(ctx)
	defer cancel()
	query := `SELECT ` + vendorColumns + ` FROM vendor_profiles`
	var args []any
	if approvedOnly {
		query += ` WHERE approval_status = ?`
		args = append(args, models.ApprovalApproved)
	}
	query += ` ORDER BY created_at DESC, id ASC`

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query vendor profiles: %w", err)
	}
	defer rows.Close()

	var profiles []*models.VendorProfile
	for rows.Next() {
		p, err := scanVendorProfile(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan vendor profile: %w", err)
		}
		profiles = append(profiles, p)
	}
	return profiles, rows.Err()
}

// DecideVendorApproval records the admin decision. The write only lands while
// the profile is still pending, so a second decision on the same profile fails
// with ErrConcurrentModification.
func (db *DB) DecideVendorApproval(ctx context.Context, id, decision string) error {
	query := `UPDATE vendor_profiles SET approval_status = ?, updated_at = ?
              WHERE id = ? AND approval_status = ?`
	result, err := db.ExecContext(ctx, query, decision, time.Now(), id, models.ApprovalPending)
	if err != nil {
		return fmt.Errorf("failed to decide vendor approval: %w", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return ErrConcurrentModification
	}
	return nil
}

// UpdateVendorRating stores the recomputed running average and review count.
func (db *DB) UpdateVendorRating(ctx context.Context, userID string, rating decimal.Decimal, totalReviews int) error {
	query := `UPDATE vendor_profiles SET rating = ?, total_reviews = ?, updated_at = ? WHERE user_id = ?`
	result, err := db.ExecContext(ctx, query, rating.String(), totalReviews, time.Now(), userID)
	if err != nil {
		return fmt.Errorf("failed to update vendor rating: %w", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return fmt.Errorf("vendor profile for user %s: %w", userID, ErrNotFound)
	}
	return nil
}

func (db *DB) CountVendorProfiles(ctx context.Context) (total, pending int, err error) {
	ctx, cancel := db.opCtx(ctx)
	defer cancel()
	err = db.QueryRowContext(ctx,
		`SELECT COUNT(*), COALESCE(SUM(CASE WHEN approval_status = ? THEN 1 ELSE 0 END), 0) FROM vendor_profiles`,
		models.ApprovalPending,
	).Scan(&total, &pending)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to count vendor profiles: %w", err)
	}
	return total, pending, nil
}

func scanVendorProfile(row rowScanner) (*models.VendorProfile, error) {
	var (
		p          models.VendorProfile
		services   string
		hourlyRate sql.NullString
		fixedRate  sql.NullString
		rating     string
	)
	err := row.Scan(
		&p.ID, &p.UserID, &services, &p.ExperienceYears, &p.Bio, &hourlyRate,
		&fixedRate, &p.ApprovalStatus, &rating, &p.TotalReviews, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal([]byte(services), &p.Services); err != nil {
		return nil, fmt.Errorf("failed to decode services: %w", err)
	}
	p.Rating, err = decimal.NewFromString(rating)
	if err != nil {
		return nil, fmt.Errorf("failed to parse rating %s: %w", rating, err)
	}
	if hourlyRate.Valid {
		d, err := decimal.NewFromString(hourlyRate.String)
		if err != nil {
			return nil, fmt.Errorf("failed to parse hourly rate: %w", err)
		}
		p.HourlyRate = decimal.NullDecimal{Decimal: d, Valid: true}
	}
	if fixedRate.Valid {
		d, err := decimal.NewFromString(fixedRate.String)
		if err != nil {
			return nil, fmt.Errorf("failed to parse fixed rate: %w", err)
		}
		p.FixedRate = decimal.NullDecimal{Decimal: d, Valid: true}
	}
	return &p, nil
}

func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}
