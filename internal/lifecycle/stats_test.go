package lifecycle

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sarthakwebsite26012000-dot/built-connect-emergent/internal/models"
)

func completedBooking(id, vendorID, price string) *models.Booking {
	b := newBooking(models.StatusCompleted, "cust-1", vendorID)
	b.ID = id
	b.EstimatedPrice = decimal.RequireFromString(price)
	return b
}

func TestSummarize_ExactDecimalSum(t *testing.T) {
	// Fractional-currency case: 499 + 500.50 + 1000 must be exactly 1999.50.
	bookings := []*models.Booking{
		completedBooking("b1", "vend-a", "499"),
		completedBooking("b2", "vend-a", "500.50"),
		completedBooking("b3", "vend-b", "1000"),
	}

	s := Summarize(bookings)
	assert.Equal(t, 3, s.TotalBookings)
	assert.Equal(t, 3, s.CompletedCount)
	assert.Equal(t, 0, s.ActiveCount)
	assert.True(t, s.TotalRevenue.Equal(decimal.RequireFromString("1999.50")),
		"got %s", s.TotalRevenue)

	platform := PlatformRevenue(s.TotalRevenue)
	assert.True(t, platform.Equal(decimal.RequireFromString("299.925")), "got %s", platform)
}

func TestSummarize_Counters(t *testing.T) {
	bookings := []*models.Booking{
		newBooking(models.StatusPending, "cust-1", ""),
		newBooking(models.StatusConfirmed, "cust-1", "vend-a"),
		newBooking(models.StatusInProgress, "cust-2", "vend-a"),
		newBooking(models.StatusCancelled, "cust-2", ""),
		completedBooking("b5", "vend-a", "100"),
	}

	s := Summarize(bookings)
	assert.Equal(t, 5, s.TotalBookings)
	assert.Equal(t, 1, s.CompletedCount)
	assert.Equal(t, 3, s.ActiveCount, "cancelled is neither active nor completed")
	assert.True(t, s.TotalRevenue.Equal(decimal.RequireFromString("100")))
}

func TestSummarize_FinalPriceWins(t *testing.T) {
	b := completedBooking("b1", "vend-a", "499")
	b.FinalPrice = decimal.NullDecimal{Decimal: decimal.RequireFromString("525.25"), Valid: true}

	s := Summarize([]*models.Booking{b})
	assert.True(t, s.TotalRevenue.Equal(decimal.RequireFromString("525.25")))
}

func TestVendorEarnings(t *testing.T) {
	bookings := []*models.Booking{
		completedBooking("b1", "vend-a", "400"),
		completedBooking("b2", "vend-a", "600"),
		completedBooking("b3", "vend-b", "1000"),
		newBooking(models.StatusInProgress, "cust-1", "vend-a"),
	}

	e := VendorEarnings(bookings, "vend-a")
	assert.Equal(t, 2, e.TotalBookings)
	assert.True(t, e.TotalEarnings.Equal(decimal.RequireFromString("1000")))
	assert.True(t, e.PlatformCommission.Equal(decimal.RequireFromString("150")))
	assert.True(t, e.NetEarnings.Equal(decimal.RequireFromString("850")))
}

func TestDecideApproval(t *testing.T) {
	admin := models.Actor{UserID: "adm-1", Role: models.RoleAdmin}

	t.Run("PendingProfile", func(t *testing.T) {
		p := &models.VendorProfile{ApprovalStatus: models.ApprovalPending}
		require.NoError(t, DecideApproval(p, admin, models.ApprovalRejected))
	})

	t.Run("OneWayDecision", func(t *testing.T) {
		p := &models.VendorProfile{ApprovalStatus: models.ApprovalRejected}
		err := DecideApproval(p, admin, models.ApprovalApproved)
		assert.ErrorIs(t, err, ErrInvalidTransition)

		p.ApprovalStatus = models.ApprovalApproved
		err = DecideApproval(p, admin, models.ApprovalApproved)
		assert.ErrorIs(t, err, ErrInvalidTransition)
	})

	t.Run("AdminOnly", func(t *testing.T) {
		p := &models.VendorProfile{ApprovalStatus: models.ApprovalPending}
		vendor := models.Actor{UserID: "vend-a", Role: models.RoleVendor}
		err := DecideApproval(p, vendor, models.ApprovalApproved)
		assert.ErrorIs(t, err, ErrUnauthorized)
	})

	t.Run("UnknownDecision", func(t *testing.T) {
		p := &models.VendorProfile{ApprovalStatus: models.ApprovalPending}
		err := DecideApproval(p, admin, "maybe")
		assert.ErrorIs(t, err, ErrValidation)
	})
}
