package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/sarthakwebsite26012000-dot/built-connect-emergent/internal/models"
)

const bookingColumns = `id, customer_id, vendor_id, service_name, service_category,
                 booking_date, time_slot, location, pincode, description, status,
                 payment_status, pricing_type, estimated_price, final_price,
                 created_at, updated_at, version`

func (db *DB) CreateBooking(ctx context.Context, booking *models.Booking) error {
	query := `INSERT INTO bookings (
				id, customer_id, vendor_id, service_name, service_category,
				booking_date, time_slot, location, pincode, description, status,
				payment_status, pricing_type, estimated_price, final_price,
				created_at, updated_at, version
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	now := time.Now()
	_, err := db.ExecContext(ctx, query,
		booking.ID,
		booking.CustomerID,
		nullableID(booking.VendorID),
		booking.ServiceName,
		booking.ServiceCategory,
		booking.BookingDate.Format(models.DateLayout),
		booking.TimeSlot,
		booking.Location,
		booking.Pincode,
		booking.Description,
		booking.Status,
		booking.PaymentStatus,
		booking.PricingType,
		booking.EstimatedPrice.String(),
		nullableDecimal(booking.FinalPrice),
		now,
		now,
		1,
	)
	if err != nil {
		return fmt.Errorf("failed to create booking: %w", err)
	}

	booking.CreatedAt = now
	booking.UpdatedAt = now
	booking.Version = 1
	return nil
}

func (db *DB) GetBooking(ctx context.Context, id string) (*models.Booking, error) {
	ctx, cancel := db.opCtx(ctx)
	defer cancel()
	query := `SELECT ` + bookingColumns + ` FROM bookings WHERE id = ?`
	row := db.QueryRowContext(ctx, query, id)
	booking, err := scanBooking(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("booking %s: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get booking: %w", err)
	}
	return booking, nil
}

// ListBookings returns every booking, most recently created first with id
// ascending on ties.
func (db *DB) ListBookings(ctx context.Context) ([]*models.Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings ORDER BY created_at DESC, id ASC`
	return db.queryBookings(ctx, query)
}

func (db *DB) ListBookingsByCustomer(ctx context.Context, customerID string) ([]*models.Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings WHERE customer_id = ? ORDER BY created_at DESC, id ASC`
	return db.queryBookings(ctx, query, customerID)
}

func (db *DB) ListBookingsByVendor(ctx context.Context, vendorID string) ([]*models.Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings WHERE vendor_id = ? ORDER BY created_at DESC, id ASC`
	return db.queryBookings(ctx, query, vendorID)
}

// ListOpenBookings returns pending bookings no vendor has accepted yet.
func (db *DB) ListOpenBookings(ctx context.Context) ([]*models.Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings
              WHERE vendor_id IS NULL AND status = ? ORDER BY created_at DESC, id ASC`
	return db.queryBookings(ctx, query, models.StatusPending)
}

// TransitionWrite is the mutation applied together with a status change.
type TransitionWrite struct {
	FromStatus   string
	ToStatus     string
	AssignVendor string              // set vendor_id when non-empty
	FinalPrice   decimal.NullDecimal // set final_price when valid
}

// ApplyTransition performs the compare-and-swap status write: the update only
// lands if the stored status still equals FromStatus. Zero rows affected means
// another actor won the race and ErrConcurrentModification is returned.
func (db *DB) ApplyTransition(ctx context.Context, id string, w TransitionWrite) error {
	query := `UPDATE bookings SET status = ?, version = version + 1, updated_at = ?`
	args := []any{w.ToStatus, time.Now()}

	if w.AssignVendor != "" {
		query += `, vendor_id = ?`
		args = append(args, w.AssignVendor)
	}
	if w.FinalPrice.Valid {
		query += `, final_price = ?`
		args = append(args, w.FinalPrice.Decimal.String())
	}

	query += ` WHERE id = ? AND status = ?`
	args = append(args, id, w.FromStatus)

	result, err := db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to apply transition: %w", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return ErrConcurrentModification
	}
	return nil
}

// MarkBookingPaid flips payment_status to paid; allowed only once the booking
// is completed.
func (db *DB) MarkBookingPaid(ctx context.Context, id string) error {
	query := `UPDATE bookings SET payment_status = ?, version = version + 1, updated_at = ?
              WHERE id = ? AND status = ? AND payment_status = ?`
	result, err := db.ExecContext(ctx, query,
		models.PaymentPaid, time.Now(), id, models.StatusCompleted, models.PaymentUnpaid)
	if err != nil {
		return fmt.Errorf("failed to mark booking paid: %w", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return ErrConcurrentModification
	}
	return nil
}

func (db *DB) CountBookings(ctx context.Context) (int, error) {
	ctx, cancel := db.opCtx(ctx)
	defer cancel()
	var count int
	err := db.QueryRowContext(ctx, `SELECT COUNT(*) FROM bookings`).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count bookings: %w", err)
	}
	return count, nil
}

func (db *DB) queryBookings(ctx context.Context, query string, args ...any) ([]*models.Booking, error) {
	ctx, cancel := db.opCtx(ctx)
	defer cancel()
	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query bookings: %w", err)
	}
	defer rows.Close()

	var bookings []*models.Booking
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan booking: %w", err)
		}
		bookings = append(bookings, b)
	}
	return bookings, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanBooking(row rowScanner) (*models.Booking, error) {
	var (
		b          models.Booking
		vendorID   sql.NullString
		dateStr    string
		estimated  string
		finalPrice sql.NullString
	)
	err := row.Scan(
		&b.ID, &b.CustomerID, &vendorID, &b.ServiceName, &b.ServiceCategory,
		&dateStr, &b.TimeSlot, &b.Location, &b.Pincode, &b.Description, &b.Status,
		&b.PaymentStatus, &b.PricingType, &estimated, &finalPrice,
		&b.CreatedAt, &b.UpdatedAt, &b.Version,
	)
	if err != nil {
		return nil, err
	}

	b.VendorID = vendorID.String
	b.BookingDate, err = time.Parse(models.DateLayout, dateStr)
	if err != nil {
		return nil, fmt.Errorf("failed to parse booking date %s: %w", dateStr, err)
	}
	b.EstimatedPrice, err = decimal.NewFromString(estimated)
	if err != nil {
		return nil, fmt.Errorf("failed to parse estimated price %s: %w", estimated, err)
	}
	if finalPrice.Valid {
		d, err := decimal.NewFromString(finalPrice.String)
		if err != nil {
			return nil, fmt.Errorf("failed to parse final price %s: %w", finalPrice.String, err)
		}
		b.FinalPrice = decimal.NullDecimal{Decimal: d, Valid: true}
	}
	return &b, nil
}

func nullableID(id string) sql.NullString {
	return sql.NullString{String: id, Valid: id != ""}
}

func nullableDecimal(d decimal.NullDecimal) sql.NullString {
	if !d.Valid {
		return sql.NullString{}
	}
	return sql.NullString{String: d.Decimal.String(), Valid: true}
}
