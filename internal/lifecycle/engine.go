package lifecycle

import (
	"fmt"

	"github.com/sarthakwebsite26012000-dot/built-connect-emergent/internal/models"
)

// transitions is the closed table of legal status changes.
var transitions = map[string][]string{
	models.StatusPending:    {models.StatusConfirmed, models.StatusCancelled},
	models.StatusConfirmed:  {models.StatusInProgress},
	models.StatusInProgress: {models.StatusCompleted},
	models.StatusCompleted:  {},
	models.StatusCancelled:  {},
}

// Outcome describes the side effects an accepted transition carries beyond
// the status change itself. The caller applies them in the same CAS write.
type Outcome struct {
	// AssignVendor is set when an unassigned pending booking is accepted;
	// the accepting vendor becomes the assigned vendor.
	AssignVendor bool

	// DefaultFinalPrice is set on completion when no final price was agreed;
	// the estimated price becomes the final price.
	DefaultFinalPrice bool
}

// Decide validates a requested transition against the current booking state,
// the actor, and (for vendor actors) the vendor's profile. It mutates nothing:
// on success the returned Outcome tells the caller what to write.
//
// The checks run in a fixed order so error kinds are deterministic: first the
// transition table (re-applying an applied transition is InvalidTransition,
// never silently accepted), then approval, then actor identity.
func Decide(b *models.Booking, actor models.Actor, profile *models.VendorProfile, target string) (Outcome, error) {
	if !knownStatus(target) {
		return Outcome{}, fmt.Errorf("%w: unknown status %q", ErrValidation, target)
	}
	if !legal(b.Status, target) {
		return Outcome{}, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, b.Status, target)
	}

	switch {
	case b.Status == models.StatusPending && target == models.StatusConfirmed:
		return decideAccept(b, actor, profile)

	case b.Status == models.StatusPending && target == models.StatusCancelled:
		return decideCancel(b, actor)

	case b.Status == models.StatusConfirmed && target == models.StatusInProgress:
		if err := requireAssignedVendor(b, actor); err != nil {
			return Outcome{}, err
		}
		return Outcome{}, nil

	case b.Status == models.StatusInProgress && target == models.StatusCompleted:
		if err := requireAssignedVendor(b, actor); err != nil {
			return Outcome{}, err
		}
		return Outcome{DefaultFinalPrice: !b.FinalPrice.Valid}, nil
	}

	return Outcome{}, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, b.Status, target)
}

// decideAccept handles pending -> confirmed. An assigned booking may only be
// confirmed by its vendor; an open booking goes to the first approved vendor
// whose offered services cover it.
func decideAccept(b *models.Booking, actor models.Actor, profile *models.VendorProfile) (Outcome, error) {
	if !actor.IsVendor() {
		return Outcome{}, fmt.Errorf("%w: only a vendor may confirm a booking", ErrUnauthorized)
	}

	if b.Assigned() {
		if b.VendorID != actor.UserID {
			return Outcome{}, fmt.Errorf("%w: booking is assigned to another vendor", ErrUnauthorized)
		}
		return Outcome{}, nil
	}

	if profile == nil {
		return Outcome{}, fmt.Errorf("%w: vendor profile required to accept bookings", ErrVendorNotApproved)
	}
	if !profile.CanAcceptBookings() {
		return Outcome{}, ErrVendorNotApproved
	}
	if !matchesServices(b, profile) {
		return Outcome{}, fmt.Errorf("%w: vendor does not offer %q", ErrUnauthorized, b.ServiceName)
	}

	return Outcome{AssignVendor: true}, nil
}

// decideCancel handles pending -> cancelled: the owning customer withdraws,
// or the assigned vendor rejects.
func decideCancel(b *models.Booking, actor models.Actor) (Outcome, error) {
	if actor.IsCustomer() && b.CustomerID == actor.UserID {
		return Outcome{}, nil
	}
	if actor.IsVendor() && b.Assigned() && b.VendorID == actor.UserID {
		return Outcome{}, nil
	}
	return Outcome{}, fmt.Errorf("%w: only the owning customer or assigned vendor may cancel", ErrUnauthorized)
}

func requireAssignedVendor(b *models.Booking, actor models.Actor) error {
	if !actor.IsVendor() || !b.Assigned() || b.VendorID != actor.UserID {
		return fmt.Errorf("%w: only the assigned vendor may advance the booking", ErrUnauthorized)
	}
	return nil
}

// matchesServices checks whether the vendor's offered services cover the
// booking, by service name or by category.
func matchesServices(b *models.Booking, profile *models.VendorProfile) bool {
	return profile.OffersService(b.ServiceName) || profile.OffersService(b.ServiceCategory)
}

func legal(from, to string) bool {
	for _, t := range transitions[from] {
		if t == to {
			return true
		}
	}
	return false
}

func knownStatus(s string) bool {
	_, ok := transitions[s]
	return ok
}
