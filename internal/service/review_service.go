package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/sarthakwebsite26012000-dot/built-connect-emergent/internal/database"
	"github.com/sarthakwebsite26012000-dot/built-connect-emergent/internal/domain"
	"github.com/sarthakwebsite26012000-dot/built-connect-emergent/internal/lifecycle"
	"github.com/sarthakwebsite26012000-dot/built-connect-emergent/internal/models"
)

type ReviewService struct {
	repo    domain.Repository
	vendors *VendorService
	logger  *zerolog.Logger
}

func NewReviewService(repo domain.Repository, vendors *VendorService, logger *zerolog.Logger) *ReviewService {
	return &ReviewService{
		repo:    repo,
		vendors: vendors,
		logger:  logger,
	}
}

// CreateReviewInput carries a customer's review of a completed booking.
type CreateReviewInput struct {
	BookingID string
	Rating    int
	Comment   string
}

// CreateReview records a review. Only the customer who owns a completed
// booking may review it, and only once.
func (s *ReviewService) CreateReview(ctx context.Context, actor models.Actor, in CreateReviewInput) (*models.Review, error) {
	if in.Rating < 1 || in.Rating > 5 {
		return nil, fmt.Errorf("%w: rating must be between 1 and 5", lifecycle.ErrValidation)
	}

	booking, err := s.repo.GetBooking(ctx, in.BookingID)
	if err != nil {
		return nil, mapStorageError(err)
	}
	if booking.CustomerID != actor.UserID {
		return nil, lifecycle.ErrUnauthorized
	}
	if booking.Status != models.StatusCompleted {
		return nil, fmt.Errorf("%w: only completed bookings can be reviewed", lifecycle.ErrValidation)
	}

	review := &models.Review{
		ID:         uuid.NewString(),
		BookingID:  booking.ID,
		CustomerID: booking.CustomerID,
		VendorID:   booking.VendorID,
		Rating:     in.Rating,
		Comment:    in.Comment,
		CreatedAt:  time.Now().UTC(),
	}

	if err := s.repo.CreateReview(ctx, review); err != nil {
		if errors.Is(err, database.ErrDuplicate) {
			return nil, fmt.Errorf("%w: booking already reviewed", lifecycle.ErrConflict)
		}
		return nil, mapStorageError(err)
	}

	if err := s.vendors.RecomputeRating(ctx, review.VendorID); err != nil {
		s.logger.Error().Err(err).Str("vendor_id", review.VendorID).Msg("failed to recompute vendor rating")
	}

	return review, nil
}

// ListVendorReviews returns a vendor's reviews, newest first.
func (s *ReviewService) ListVendorReviews(ctx context.Context, vendorUserID string) ([]*models.Review, error) {
	reviews, err := s.repo.ListReviewsByVendor(ctx, vendorUserID)
	if err != nil {
		return nil, mapStorageError(err)
	}
	return reviews, nil
}
