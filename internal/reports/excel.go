package reports

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"

	"github.com/sarthakwebsite26012000-dot/built-connect-emergent/internal/models"
)

const (
	bookingsSheet = "Bookings"
	headerRow     = 1
	firstDataRow  = 2
)

var bookingHeaders = []string{
	"Booking ID", "Customer ID", "Vendor ID", "Service", "Category",
	"Date", "Time Slot", "Location", "Status", "Payment",
	"Estimated Price", "Final Price", "Updated At",
}

// BookingReport maintains a rolling Excel workbook of bookings under the
// configured reports directory. Upserts are keyed by booking ID, so
// replaying the same sync task twice leaves a single row.
type BookingReport struct {
	mu       sync.Mutex
	dir      string
	fileName string
	logger   *zerolog.Logger
}

func NewBookingReport(dir string, logger *zerolog.Logger) *BookingReport {
	return &BookingReport{
		dir:      dir,
		fileName: "bookings.xlsx",
		logger:   logger,
	}
}

// FilePath returns the location of the workbook on disk.
func (r *BookingReport) FilePath() string {
	return filepath.Join(r.dir, r.fileName)
}

// UpsertBooking writes the booking into the workbook, replacing the
// existing row when the booking ID is already present.
func (r *BookingReport) UpsertBooking(_ context.Context, booking *models.Booking) error {
	if booking == nil {
		return fmt.Errorf("booking is nil")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	f, err := r.open()
	if err != nil {
		return err
	}
	defer f.Close()

	row, err := r.findRow(f, booking.ID)
	if err != nil {
		return err
	}
	if row == 0 {
		row, err = r.nextRow(f)
		if err != nil {
			return err
		}
	}

	writeBookingRow(f, row, booking)

	if err := r.save(f); err != nil {
		return err
	}

	r.logger.Debug().
		Str("booking_id", booking.ID).
		Int("row", row).
		Msg("Booking report row upserted")
	return nil
}

// UpdateBookingStatus patches the status cell of an existing row. A
// booking that never reached the report is not an error: the next
// upsert carries the fresh status anyway.
func (r *BookingReport) UpdateBookingStatus(_ context.Context, bookingID, status string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	f, err := r.open()
	if err != nil {
		return err
	}
	defer f.Close()

	row, err := r.findRow(f, bookingID)
	if err != nil {
		return err
	}
	if row == 0 {
		r.logger.Warn().
			Str("booking_id", bookingID).
			Msg("Status update for booking missing from report, skipping")
		return nil
	}

	statusCell, _ := excelize.CoordinatesToCellName(9, row)
	_ = f.SetCellValue(bookingsSheet, statusCell, status)
	updatedCell, _ := excelize.CoordinatesToCellName(13, row)
	_ = f.SetCellValue(bookingsSheet, updatedCell, time.Now().UTC().Format("2006-01-02 15:04"))

	return r.save(f)
}

// WriteBookingsReport produces a standalone export of the given bookings
// at path, independent of the rolling workbook.
func (r *BookingReport) WriteBookingsReport(_ context.Context, bookings []*models.Booking, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("error creating export directory: %v", err)
	}

	f := excelize.NewFile()
	defer f.Close()

	index, err := f.NewSheet(bookingsSheet)
	if err != nil {
		return fmt.Errorf("error creating sheet: %v", err)
	}
	f.SetActiveSheet(index)

	if err := writeHeaders(f); err != nil {
		return err
	}

	for i, booking := range bookings {
		writeBookingRow(f, firstDataRow+i, booking)
	}

	_ = f.DeleteSheet("Sheet1")

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("error saving file: %v", err)
	}

	r.logger.Info().
		Str("file_path", path).
		Int("bookings", len(bookings)).
		Msg("Bookings export created")
	return nil
}

// open loads the rolling workbook, creating it with a header row when it
// does not exist yet.
func (r *BookingReport) open() (*excelize.File, error) {
	path := r.FilePath()
	f, err := excelize.OpenFile(path)
	if err == nil {
		return f, nil
	}
	if !os.IsNotExist(err) {
		return nil, fmt.Errorf("error opening report file: %v", err)
	}

	if err := os.MkdirAll(r.dir, 0o755); err != nil {
		return nil, fmt.Errorf("error creating report directory: %v", err)
	}

	f = excelize.NewFile()
	index, err := f.NewSheet(bookingsSheet)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("error creating sheet: %v", err)
	}
	f.SetActiveSheet(index)
	_ = f.DeleteSheet("Sheet1")

	if err := writeHeaders(f); err != nil {
		f.Close()
		return nil, err
	}
	return f, nil
}

func (r *BookingReport) save(f *excelize.File) error {
	if err := f.SaveAs(r.FilePath()); err != nil {
		return fmt.Errorf("error saving report file: %v", err)
	}
	return nil
}

// findRow returns the row holding bookingID, or 0 when absent.
func (r *BookingReport) findRow(f *excelize.File, bookingID string) (int, error) {
	rows, err := f.GetRows(bookingsSheet)
	if err != nil {
		return 0, fmt.Errorf("error reading report rows: %v", err)
	}
	for i, row := range rows {
		if i+1 <= headerRow {
			continue
		}
		if len(row) > 0 && row[0] == bookingID {
			return i + 1, nil
		}
	}
	return 0, nil
}

func (r *BookingReport) nextRow(f *excelize.File) (int, error) {
	rows, err := f.GetRows(bookingsSheet)
	if err != nil {
		return 0, fmt.Errorf("error reading report rows: %v", err)
	}
	if len(rows) < headerRow {
		return firstDataRow, nil
	}
	return len(rows) + 1, nil
}

func writeHeaders(f *excelize.File) error {
	for i, header := range bookingHeaders {
		cell, _ := excelize.CoordinatesToCellName(i+1, headerRow)
		_ = f.SetCellValue(bookingsSheet, cell, header)
	}

	style, err := f.NewStyle(&excelize.Style{
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#DDEBF7"}, Pattern: 1},
		Font:      &excelize.Font{Bold: true},
		Alignment: &excelize.Alignment{Horizontal: "center"},
	})
	if err == nil {
		first, _ := excelize.CoordinatesToCellName(1, headerRow)
		last, _ := excelize.CoordinatesToCellName(len(bookingHeaders), headerRow)
		_ = f.SetCellStyle(bookingsSheet, first, last, style)
	}

	_ = f.SetColWidth(bookingsSheet, "A", "C", 30)
	_ = f.SetColWidth(bookingsSheet, "D", "H", 18)
	_ = f.SetColWidth(bookingsSheet, "I", "M", 14)
	return nil
}

func writeBookingRow(f *excelize.File, row int, booking *models.Booking) {
	values := []any{
		booking.ID,
		booking.CustomerID,
		booking.VendorID,
		booking.ServiceName,
		booking.ServiceCategory,
		booking.BookingDate.Format("2006-01-02"),
		booking.TimeSlot,
		booking.Location,
		booking.Status,
		booking.PaymentStatus,
		formatPrice(booking.EstimatedPrice),
		formatNullPrice(booking.FinalPrice),
		time.Now().UTC().Format("2006-01-02 15:04"),
	}
	for i, value := range values {
		cell, _ := excelize.CoordinatesToCellName(i+1, row)
		_ = f.SetCellValue(bookingsSheet, cell, value)
	}
}

func formatPrice(d decimal.Decimal) string {
	return d.StringFixed(2)
}

func formatNullPrice(d decimal.NullDecimal) string {
	if !d.Valid {
		return ""
	}
	return d.Decimal.StringFixed(2)
}
