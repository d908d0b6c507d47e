package service

import (
	"context"
	"errors"
	"fmt"
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

type VendorService struct {
	repo     domain.Repository
	eventBus domain.EventPublisher
	logger   *zerolog.Logger
}

func NewVendorService(repo domain.Repository, eventBus domain.EventPublisher, logger *zerolog.Logger) *VendorService {
	return &VendorService{
		repo:     repo,
		eventBus: eventBus,
		logger:   logger,
	}
}

// CreateProfileInput is the applicant-supplied part of a vendor profile.
type CreateProfileInput struct {
	Services        []string
	ExperienceYears int
	Bio             string
	HourlyRate      decimal.NullDecimal
	FixedRate       decimal.NullDecimal
}

// CreateProfile files a vendor application for the acting user. The profile
// starts pending and stays invisible to booking dispatch until an admin
// approves it. Creating a profile promotes a customer account to vendor.
func (s *VendorService) CreateProfile(ctx context.Context, actor models.Actor, in CreateProfileInput) (*models.VendorProfile, error) {
	if actor.IsAdmin() {
		return nil, lifecycle.ErrUnauthorized
	}
	if len(in.Services) == 0 {
		return nil, fmt.Errorf("%w: at least one service is required", lifecycle.ErrValidation)
	}
	for _, svc := range in.Services {
		if svc == "" {
			return nil, fmt.Errorf("%w: empty service name", lifecycle.ErrValidation)
		}
	}
	if in.ExperienceYears < 0 {
		return nil, fmt.Errorf("%w: experience_years must not be negative", lifecycle.ErrValidation)
	}
	if in.HourlyRate.Valid && in.HourlyRate.Decimal.IsNegative() {
		return nil, fmt.Errorf("%w: hourly_rate must not be negative", lifecycle.ErrValidation)
	}
	if in.FixedRate.Valid && in.FixedRate.Decimal.IsNegative() {
		return nil, fmt.Errorf("%w: fixed_rate must not be negative", lifecycle.ErrValidation)
	}

	now := time.Now().UTC()
	profile := &models.VendorProfile{
		ID:              uuid.NewString(),
		UserID:          actor.UserID,
		Services:        in.Services,
		ExperienceYears: in.ExperienceYears,
		Bio:             in.Bio,
		HourlyRate:      in.HourlyRate,
		FixedRate:       in.FixedRate,
		ApprovalStatus:  models.ApprovalPending,
		Rating:          decimal.Zero,
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	if err := s.repo.CreateVendorProfile(ctx, profile); err != nil {
		if errors.Is(err, database.ErrDuplicate) {
			return nil, fmt.Errorf("%w: vendor profile already exists", lifecycle.ErrConflict)
		}
		return nil, mapStorageError(err)
	}

	if err := s.repo.PromoteUserToVendor(ctx, actor.UserID); err != nil {
		s.logger.Error().Err(err).Str("user_id", actor.UserID).Msg("failed to promote user to vendor")
	}

	return profile, nil
}

// GetOwnProfile returns the acting vendor's profile.
func (s *VendorService) GetOwnProfile(ctx context.Context, actor models.Actor) (*models.VendorProfile, error) {
	profile, err := s.repo.GetVendorProfileByUserID(ctx, actor.UserID)
	if err != nil {
		return nil, mapStorageError(err)
	}
	return profile, nil
}

// ListApproved returns the approved vendor directory shown to customers,
// optionally narrowed to vendors offering the given service.
func (s *VendorService) ListApproved(ctx context.Context, service string) ([]*models.VendorProfile, error) {
	profiles, err := s.repo.ListVendorProfiles(ctx, true)
	if err != nil {
		return nil, mapStorageError(err)
	}
	if service == "" {
		return profiles, nil
	}

	matched := make([]*models.VendorProfile, 0, len(profiles))
	for _, profile := range profiles {
		if profile.OffersService(service) {
			matched = append(matched, profile)
		}
	}
	return matched, nil
}

// ListAll returns vendor profiles for the admin console, including pending
// and rejected ones unless approvedOnly is set.
func (s *VendorService) ListAll(ctx context.Context, actor models.Actor, approvedOnly bool) ([]*models.VendorProfile, error) {
	if !actor.IsAdmin() {
		return nil, lifecycle.ErrUnauthorized
	}
	profiles, err := s.repo.ListVendorProfiles(ctx, approvedOnly)
	if err != nil {
		return nil, mapStorageError(err)
	}
	return profiles, nil
}

// Decide applies an admin approval decision to a pending profile. The
// decision is one-way: a profile that already left pending cannot be
// decided again.
func (s *VendorService) Decide(ctx context.Context, actor models.Actor, profileID, decision string) (*models.VendorProfile, error) {
	profile, err := s.repo.GetVendorProfile(ctx, profileID)
	if err != nil {
		return nil, mapStorageError(err)
	}

	if err := lifecycle.DecideApproval(profile, actor, decision); err != nil {
		return nil, err
	}

	if err := s.repo.DecideVendorApproval(ctx, profileID, decision); err != nil {
		if errors.Is(err, database.ErrConcurrentModification) {
			return nil, lifecycle.ErrInvalidTransition
		}
		return nil, mapStorageError(err)
	}

	updated, err := s.repo.GetVendorProfile(ctx, profileID)
	if err != nil {
		return nil, mapStorageError(err)
	}

	eventType := events.EventVendorApproved
	if decision == models.ApprovalRejected {
		eventType = events.EventVendorRejected
	}
	s.publishDecision(eventType, updated, actor)

	return updated, nil
}

// Earnings aggregates the acting vendor's completed bookings with exact
// decimal arithmetic.
func (s *VendorService) Earnings(ctx context.Context, actor models.Actor) (*models.Earnings, error) {
	if !actor.IsVendor() {
		return nil, lifecycle.ErrUnauthorized
	}

	bookings, err := s.repo.ListBookingsByVendor(ctx, actor.UserID)
	if err != nil {
		return nil, mapStorageError(err)
	}

	earnings := lifecycle.VendorEarnings(bookings, actor.UserID)
	return &earnings, nil
}

// RecomputeRating refreshes a vendor's aggregate rating from their reviews.
func (s *VendorService) RecomputeRating(ctx context.Context, vendorUserID string) error {
	reviews, err := s.repo.ListReviewsByVendor(ctx, vendorUserID)
	if err != nil {
		return mapStorageError(err)
	}
	if len(reviews) == 0 {
		return nil
	}

	sum := decimal.Zero
	for _, review := range reviews {
		sum = sum.Add(decimal.NewFromInt(int64(review.Rating)))
	}
	avg := sum.Div(decimal.NewFromInt(int64(len(reviews))))

	return mapStorageError(s.repo.UpdateVendorRating(ctx, vendorUserID, avg, len(reviews)))
}

func (s *VendorService) publishDecision(eventType string, profile *models.VendorProfile, actor models.Actor) {
	if s.eventBus == nil {
		return
	}

	payload := events.VendorEventPayload{
		VendorProfileID: profile.ID,
		UserID:          profile.UserID,
		ApprovalStatus:  profile.ApprovalStatus,
		DecidedBy:       actor.UserID,
	}

	if err := s.eventBus.PublishJSON(eventType, payload); err != nil {
		s.logger.Error().Err(err).Str("event_type", eventType).Str("profile_id", profile.ID).Msg("publish event error")
	}
}
