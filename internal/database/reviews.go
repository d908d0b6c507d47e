package database

import (
	"context"
	"fmt"
	"time"

	"github.com/sarthakwebsite26012000-dot/built-connect-emergent/internal/models"
)

func (db *DB) CreateReview(ctx context.Context, review *models.Review) error {
	query := `INSERT INTO reviews (id, booking_id, customer_id, vendor_id, rating, comment, created_at)
              VALUES (?, ?, ?, ?, ?, ?, ?)`
	now := time.Now()
	_, err := db.ExecContext(ctx, query,
		review.ID,
		review.BookingID,
		review.CustomerID,
		review.VendorID,
		review.Rating,
		review.Comment,
		now,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("review for booking %s: %w", review.BookingID, ErrDuplicate)
		}
		return fmt.Errorf("failed to create review: %w", err)
	}
	review.CreatedAt = now
	return nil
}

func (db *DB) ListReviewsByVendor(ctx context.Context, vendorID string) ([]*models.Review, error) {
	ctx, cancel := db.opCtx(ctx)
	defer cancel()
	query := `SELECT id, booking_id, customer_id, vendor_id, rating, comment, created_at
              FROM reviews WHERE vendor_id = ? ORDER BY created_at DESC`
	rows, err := db.QueryContext(ctx, query, vendorID)
	if err != nil {
		return nil, fmt.Errorf("failed to query reviews: %w", err)
	}
	defer rows.Close()

	var reviews []*models.Review
	for rows.Next() {
		var r models.Review
		err := rows.Scan(&r.ID, &r.BookingID, &r.CustomerID, &r.VendorID, &r.Rating, &r.Comment, &r.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan review: %w", err)
		}
		reviews = append(reviews, &r)
	}
	return reviews, rows.Err()
}
