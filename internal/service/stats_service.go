package service

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/sarthakwebsite26012000-dot/built-connect-emergent/internal/domain"
	"github.com/sarthakwebsite26012000-dot/built-connect-emergent/internal/lifecycle"
	"github.com/sarthakwebsite26012000-dot/built-connect-emergent/internal/models"
)

type StatsService struct {
	repo   domain.Repository
	logger *zerolog.Logger
}

func NewStatsService(repo domain.Repository, logger *zerolog.Logger) *StatsService {
	return &StatsService{repo: repo, logger: logger}
}

// PlatformStats aggregates the admin dashboard numbers. Revenue is summed
// with exact decimals over completed bookings.
func (s *StatsService) PlatformStats(ctx context.Context, actor models.Actor) (*models.Stats, error) {
	if !actor.IsAdmin() {
		return nil, lifecycle.ErrUnauthorized
	}

	totalUsers, err := s.repo.CountUsers(ctx)
	if err != nil {
		return nil, mapStorageError(err)
	}
	totalVendors, pendingVendors, err := s.repo.CountVendorProfiles(ctx)
	if err != nil {
		return nil, mapStorageError(err)
	}
	bookings, err := s.repo.ListBookings(ctx)
	if err != nil {
		return nil, mapStorageError(err)
	}

	summary := lifecycle.Summarize(bookings)

	return &models.Stats{
		TotalUsers:      totalUsers,
		TotalVendors:    totalVendors,
		PendingVendors:  pendingVendors,
		TotalBookings:   len(bookings),
		CompletedCount:  summary.CompletedCount,
		ActiveCount:     summary.ActiveCount,
		TotalRevenue:    summary.TotalRevenue,
		PlatformRevenue: lifecycle.PlatformRevenue(summary.TotalRevenue),
	}, nil
}
