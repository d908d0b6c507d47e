package lifecycle

import (
	"github.com/shopspring/decimal"

	"github.com/sarthakwebsite26012000-dot/built-connect-emergent/internal/models"
)

// Summary holds counters and exact revenue over a booking set. All monetary
// accumulation is decimal; callers round for display only.
type Summary struct {
	TotalBookings  int
	CompletedCount int
	ActiveCount    int
	TotalRevenue   decimal.Decimal
}

// Summarize aggregates over the given bookings. Revenue counts completed
// bookings at their billable price (final if set, estimated otherwise).
func Summarize(bookings []*models.Booking) Summary {
	s := Summary{TotalRevenue: decimal.Zero}
	for _, b := range bookings {
		s.TotalBookings++
		switch b.Status {
		case models.StatusCompleted:
			s.CompletedCount++
			s.TotalRevenue = s.TotalRevenue.Add(b.BillablePrice())
		case models.StatusPending, models.StatusConfirmed, models.StatusInProgress:
			s.ActiveCount++
		}
	}
	return s
}

// PlatformRevenue is the platform's commission on the given revenue.
func PlatformRevenue(totalRevenue decimal.Decimal) decimal.Decimal {
	return totalRevenue.Mul(models.CommissionRate)
}

// VendorEarnings computes a vendor's earnings over their bookings: the gross
// over completed work, the platform commission, and the net payout.
func VendorEarnings(bookings []*models.Booking, vendorID string) models.Earnings {
	total := decimal.Zero
	count := 0
	for _, b := range bookings {
		if b.VendorID != vendorID || b.Status != models.StatusCompleted {
			continue
		}
		total = total.Add(b.BillablePrice())
		count++
	}

	commission := total.Mul(models.CommissionRate)
	return models.Earnings{
		TotalBookings:      count,
		TotalEarnings:      total,
		PlatformCommission: commission,
		NetEarnings:        total.Sub(commission),
		CommissionRate:     models.CommissionRate,
	}
}

// DecideApproval validates an admin decision on a vendor profile. Approval is
// one-way: deciding an already-decided profile is an invalid transition.
func DecideApproval(profile *models.VendorProfile, actor models.Actor, decision string) error {
	if !actor.IsAdmin() {
		return ErrUnauthorized
	}
	if decision != models.ApprovalApproved && decision != models.ApprovalRejected {
		return ErrValidation
	}
	if profile.ApprovalStatus != models.ApprovalPending {
		return ErrInvalidTransition
	}
	return nil
}
