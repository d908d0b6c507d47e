package lifecycle

import (
	"sort"

	"github.com/sarthakwebsite26012000-dot/built-connect-emergent/internal/models"
)

// Visible reports whether the actor may see the booking.
//
// Customers see their own bookings, admins see everything. Vendors see their
// assigned bookings plus open bookings their approved profile could accept.
func Visible(b *models.Booking, actor models.Actor, profile *models.VendorProfile) bool {
	switch actor.Role {
	case models.RoleAdmin:
		return true
	case models.RoleCustomer:
		return b.CustomerID == actor.UserID
	case models.RoleVendor:
		if b.Assigned() {
			return b.VendorID == actor.UserID
		}
		if profile == nil || !profile.CanAcceptBookings() {
			return false
		}
		return b.Status == models.StatusPending && matchesServices(b, profile)
	}
	return false
}

// Scope filters bookings down to the actor's visible set and applies the
// default listing order.
func Scope(bookings []*models.Booking, actor models.Actor, profile *models.VendorProfile) []*models.Booking {
	visible := make([]*models.Booking, 0, len(bookings))
	for _, b := range bookings {
		if Visible(b, actor, profile) {
			visible = append(visible, b)
		}
	}
	Sort(visible)
	return visible
}

// Sort orders bookings most recently created first; ties break by id
// ascending so listings are deterministic.
func Sort(bookings []*models.Booking) {
	sort.SliceStable(bookings, func(i, j int) bool {
		if bookings[i].CreatedAt.Equal(bookings[j].CreatedAt) {
			return bookings[i].ID < bookings[j].ID
		}
		return bookings[i].CreatedAt.After(bookings[j].CreatedAt)
	})
}
