package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/sarthakwebsite26012000-dot/built-connect-emergent/internal/database"
	"github.com/sarthakwebsite26012000-dot/built-connect-emergent/internal/domain"
	"github.com/sarthakwebsite26012000-dot/built-connect-emergent/internal/events"
	"github.com/sarthakwebsite26012000-dot/built-connect-emergent/internal/lifecycle"
	"github.com/sarthakwebsite26012000-dot/built-connect-emergent/internal/models"
)

type BookingService struct {
	repo       domain.Repository
	eventBus   domain.EventPublisher
	syncWorker domain.SyncWorker
	logger     *zerolog.Logger
}

func NewBookingService(repo domain.Repository, eventBus domain.EventPublisher, syncWorker domain.SyncWorker, logger *zerolog.Logger) *BookingService {
	return &BookingService{
		repo:       repo,
		eventBus:   eventBus,
		syncWorker: syncWorker,
		logger:     logger,
	}
}

// CreateBookingInput is the customer-supplied part of a new booking.
type CreateBookingInput struct {
	ServiceName     string
	ServiceCategory string
	BookingDate     string
	TimeSlot        string
	Location        string
	Pincode         string
	Description     string
	PricingType     string
	EstimatedPrice  decimal.Decimal
}

func (in *CreateBookingInput) validate(now time.Time) (time.Time, error) {
	if strings.TrimSpace(in.ServiceName) == "" {
		return time.Time{}, fmt.Errorf("%w: service_name is required", lifecycle.ErrValidation)
	}
	if strings.TrimSpace(in.ServiceCategory) == "" {
		return time.Time{}, fmt.Errorf("%w: service_category is required", lifecycle.ErrValidation)
	}
	if strings.TrimSpace(in.Location) == "" {
		return time.Time{}, fmt.Errorf("%w: location is required", lifecycle.ErrValidation)
	}
	if in.EstimatedPrice.IsNegative() {
		return time.Time{}, fmt.Errorf("%w: estimated_price must not be negative", lifecycle.ErrValidation)
	}

	date, err := time.Parse(models.DateLayout, in.BookingDate)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: booking_date must be YYYY-MM-DD", lifecycle.ErrValidation)
	}
	// The date floor is computed in UTC, same clock the stored timestamps
	// use, so the check does not drift with the server's timezone.
	today, _ := time.Parse(models.DateLayout, now.UTC().Format(models.DateLayout))
	if date.Before(today) {
		return time.Time{}, fmt.Errorf("%w: booking_date must be today or later", lifecycle.ErrValidation)
	}

	switch in.PricingType {
	case "", models.PricingFixed, models.PricingHourly, models.PricingInspection:
	default:
		return time.Time{}, fmt.Errorf("%w: unknown pricing_type", lifecycle.ErrValidation)
	}

	return date, nil
}

// CreateBooking registers a new pending booking for the acting customer.
func (s *BookingService) CreateBooking(ctx context.Context, actor models.Actor, in CreateBookingInput) (*models.Booking, error) {
	if !actor.IsCustomer() && !actor.IsAdmin() {
		return nil, lifecycle.ErrUnauthorized
	}

	date, err := in.validate(time.Now())
	if err != nil {
		return nil, err
	}

	pricingType := in.PricingType
	if pricingType == "" {
		pricingType = models.PricingFixed
	}

	now := time.Now().UTC()
	booking := &models.Booking{
		ID:              uuid.NewString(),
		CustomerID:      actor.UserID,
		ServiceName:     in.ServiceName,
		ServiceCategory: in.ServiceCategory,
		BookingDate:     date,
		TimeSlot:        in.TimeSlot,
		Location:        in.Location,
		Pincode:         in.Pincode,
		Description:     in.Description,
		Status:          models.StatusPending,
		PaymentStatus:   models.PaymentUnpaid,
		PricingType:     pricingType,
		EstimatedPrice:  in.EstimatedPrice,
		CreatedAt:       now,
		UpdatedAt:       now,
		Version:         1,
	}

	if err := s.repo.CreateBooking(ctx, booking); err != nil {
		return nil, mapStorageError(err)
	}

	s.publishEvent(events.EventBookingCreated, booking, actor)
	s.enqueueSync(ctx, "upsert", booking)

	return booking, nil
}

// GetBooking returns a single booking if the actor is allowed to see it.
// Hidden bookings are reported as not found rather than forbidden.
func (s *BookingService) GetBooking(ctx context.Context, actor models.Actor, id string) (*models.Booking, error) {
	booking, err := s.repo.GetBooking(ctx, id)
	if err != nil {
		return nil, mapStorageError(err)
	}

	profile, err := s.actorProfile(ctx, actor)
	if err != nil {
		return nil, err
	}

	if !lifecycle.Visible(booking, actor, profile) {
		return nil, lifecycle.ErrNotFound
	}

	return booking, nil
}

// ListBookings returns the bookings visible to the actor, newest first.
func (s *BookingService) ListBookings(ctx context.Context, actor models.Actor) ([]*models.Booking, error) {
	switch {
	case actor.IsAdmin():
		bookings, err := s.repo.ListBookings(ctx)
		if err != nil {
			return nil, mapStorageError(err)
		}
		return bookings, nil

	case actor.IsVendor():
		profile, err := s.actorProfile(ctx, actor)
		if err != nil {
			return nil, err
		}

		assigned, err := s.repo.ListBookingsByVendor(ctx, actor.UserID)
		if err != nil {
			return nil, mapStorageError(err)
		}
		open, err := s.repo.ListOpenBookings(ctx)
		if err != nil {
			return nil, mapStorageError(err)
		}
		return lifecycle.Scope(append(assigned, open...), actor, profile), nil

	default:
		bookings, err := s.repo.ListBookingsByCustomer(ctx, actor.UserID)
		if err != nil {
			return nil, mapStorageError(err)
		}
		return bookings, nil
	}
}

// Transition moves a booking to the target status on behalf of the actor.
// The write is conditional on the status the decision was made against; a
// concurrent change triggers exactly one re-read and retry before giving up
// with ErrConflict.
func (s *BookingService) Transition(ctx context.Context, actor models.Actor, id, target string, finalPrice decimal.NullDecimal) (*models.Booking, error) {
	profile, err := s.actorProfile(ctx, actor)
	if err != nil {
		return nil, err
	}

	const attempts = 2
	for attempt := 1; ; attempt++ {
		booking, err := s.repo.GetBooking(ctx, id)
		if err != nil {
			return nil, mapStorageError(err)
		}

		outcome, err := lifecycle.Decide(booking, actor, profile, target)
		if err != nil {
			return nil, err
		}

		write := database.TransitionWrite{
			FromStatus: booking.Status,
			ToStatus:   target,
		}
		if outcome.AssignVendor {
			write.AssignVendor = actor.UserID
		}
		if finalPrice.Valid && target == models.StatusCompleted {
			write.FinalPrice = finalPrice
		} else if outcome.DefaultFinalPrice {
			write.FinalPrice = decimal.NullDecimal{Decimal: booking.EstimatedPrice, Valid: true}
		}

		err = s.repo.ApplyTransition(ctx, id, write)
		if err == nil {
			updated, getErr := s.repo.GetBooking(ctx, id)
			if getErr != nil {
				return nil, mapStorageError(getErr)
			}
			s.publishEvent(transitionEvent(target), updated, actor)
			s.enqueueSync(ctx, "update_status", updated)
			return updated, nil
		}
		if errors.Is(err, database.ErrConcurrentModification) {
			if attempt < attempts {
				s.logger.Warn().Str("booking_id", id).Str("target", target).Msg("transition lost the race, retrying once")
				continue
			}
			return nil, lifecycle.ErrConflict
		}
		return nil, mapStorageError(err)
	}
}

// MarkPaid records payment for a completed booking.
func (s *BookingService) MarkPaid(ctx context.Context, actor models.Actor, id string) (*models.Booking, error) {
	booking, err := s.repo.GetBooking(ctx, id)
	if err != nil {
		return nil, mapStorageError(err)
	}
	if !actor.IsAdmin() && booking.CustomerID != actor.UserID {
		return nil, lifecycle.ErrUnauthorized
	}
	if booking.Status != models.StatusCompleted {
		return nil, lifecycle.ErrInvalidTransition
	}

	if err := s.repo.MarkBookingPaid(ctx, id); err != nil {
		if errors.Is(err, database.ErrConcurrentModification) {
			return nil, lifecycle.ErrConflict
		}
		return nil, mapStorageError(err)
	}

	return s.repo.GetBooking(ctx, id)
}

func (s *BookingService) actorProfile(ctx context.Context, actor models.Actor) (*models.VendorProfile, error) {
	if !actor.IsVendor() {
		return nil, nil
	}
	profile, err := s.repo.GetVendorProfileByUserID(ctx, actor.UserID)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return nil, nil
		}
		return nil, mapStorageError(err)
	}
	return profile, nil
}

func (s *BookingService) publishEvent(eventType string, booking *models.Booking, actor models.Actor) {
	if s.eventBus == nil {
		return
	}

	payload := events.BookingEventPayload{
		BookingID:       booking.ID,
		CustomerID:      booking.CustomerID,
		VendorID:        booking.VendorID,
		ServiceName:     booking.ServiceName,
		ServiceCategory: booking.ServiceCategory,
		Status:          booking.Status,
		BookingDate:     booking.BookingDate,
		ChangedBy:       actor.UserID,
		ChangedByRole:   actor.Role,
	}

	if err := s.eventBus.PublishJSON(eventType, payload); err != nil {
		s.logger.Error().Err(err).Str("event_type", eventType).Str("booking_id", booking.ID).Msg("publish event error")
	}
}

func (s *BookingService) enqueueSync(ctx context.Context, taskType string, booking *models.Booking) {
	if s.syncWorker == nil {
		return
	}

	if err := s.syncWorker.EnqueueBookingSync(ctx, taskType, booking); err != nil {
		s.logger.Error().Err(err).Str("booking_id", booking.ID).Str("task", taskType).Msg("sync enqueue error")
	}
}

func transitionEvent(target string) string {
	switch target {
	case models.StatusConfirmed:
		return events.EventBookingConfirmed
	case models.StatusInProgress:
		return events.EventBookingInProgress
	case models.StatusCompleted:
		return events.EventBookingCompleted
	case models.StatusCancelled:
		return events.EventBookingCancelled
	default:
		return "booking_" + target
	}
}

// mapStorageError translates storage failures into the error taxonomy the
// transport layer maps to HTTP statuses.
func mapStorageError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, database.ErrNotFound):
		return lifecycle.ErrNotFound
	case errors.Is(err, context.DeadlineExceeded):
		return fmt.Errorf("%w: %v", lifecycle.ErrUnavailable, err)
	default:
		return err
	}
}
