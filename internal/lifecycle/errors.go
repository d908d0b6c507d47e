package lifecycle

import "errors"

// Error taxonomy for booking and vendor lifecycle operations. Every failure
// surfaced by the engine or the services wrapping it is one of these kinds,
// so callers can branch with errors.Is instead of matching message text.
var (
	// ErrInvalidTransition is returned for a status change not present in the
	// transition table, including re-applying an already-applied transition.
	ErrInvalidTransition = errors.New("invalid status transition")

	// ErrUnauthorized is returned when the actor's role or identity does not
	// match the actor required for the operation.
	ErrUnauthorized = errors.New("actor not authorized for this operation")

	// ErrVendorNotApproved is returned when a vendor whose profile is not
	// approved attempts to accept a booking.
	ErrVendorNotApproved = errors.New("vendor profile is not approved")

	// ErrNotFound is returned when a booking or profile id does not resolve.
	ErrNotFound = errors.New("not found")

	// ErrConflict is returned when a compare-and-swap write lost against a
	// concurrent mutation and the single retry also lost.
	ErrConflict = errors.New("concurrent modification conflict")

	// ErrValidation is returned for malformed or missing required fields.
	ErrValidation = errors.New("validation failed")

	// ErrUnavailable is returned when the backing store timed out; the
	// operation is retryable.
	ErrUnavailable = errors.New("backing store unavailable")
)
