package domain

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/sarthakwebsite26012000-dot/built-connect-emergent/internal/database"
	"github.com/sarthakwebsite26012000-dot/built-connect-emergent/internal/models"
)

type Repository interface {
	CreateBooking(ctx context.Context, booking *models.Booking) error
	GetBooking(ctx context.Context, id string) (*models.Booking, error)
	ListBookings(ctx context.Context) ([]*models.Booking, error)
	ListBookingsByCustomer(ctx context.Context, customerID string) ([]*models.Booking, error)
	ListBookingsByVendor(ctx context.Context, vendorID string) ([]*models.Booking, error)
	ListOpenBookings(ctx context.Context) ([]*models.Booking, error)
	ApplyTransition(ctx context.Context, id string, w database.TransitionWrite) error
	MarkBookingPaid(ctx context.Context, id string) error
	CountBookings(ctx context.Context) (int, error)

	CreateVendorProfile(ctx context.Context, profile *models.VendorProfile) error
	GetVendorProfile(ctx context.Context, id string) (*models.VendorProfile, error)
	GetVendorProfileByUserID(ctx context.Context, userID string) (*models.VendorProfile, error)
	ListVendorProfiles(ctx context.Context, approvedOnly bool) ([]*models.VendorProfile, error)
	DecideVendorApproval(ctx context.Context, id, decision string) error
	UpdateVendorRating(ctx context.Context, userID string, rating decimal.Decimal, totalReviews int) error
	CountVendorProfiles(ctx context.Context) (total, pending int, err error)

	CreateUser(ctx context.Context, user *models.User) error
	GetUserByID(ctx context.Context, id string) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	PromoteUserToVendor(ctx context.Context, id string) error
	CountUsers(ctx context.Context) (int, error)
	ListUsers(ctx context.Context) ([]*models.User, error)

	CreateReview(ctx context.Context, review *models.Review) error
	ListReviewsByVendor(ctx context.Context, vendorID string) ([]*models.Review, error)

	CreateSyncTask(ctx context.Context, task *models.SyncTask) error
	GetPendingSyncTasks(ctx context.Context, limit int) ([]models.SyncTask, error)
	UpdateSyncTaskStatus(ctx context.Context, id int64, status, errMsg string, nextRetryAt *time.Time) error
}

type SessionRepository interface {
	GetSession(ctx context.Context, userID string) (*models.Session, error)
	SetSession(ctx context.Context, session *models.Session) error
	ClearSession(ctx context.Context, userID string) error
	CheckRateLimit(ctx context.Context, userID string, limit int, window time.Duration) (bool, error)
}

type EventPublisher interface {
	PublishJSON(eventType string, payload interface{}) error
}

type SyncWorker interface {
	EnqueueBookingSync(ctx context.Context, taskType string, booking *models.Booking) error
}

type ReportWriter interface {
	WriteBookingsReport(ctx context.Context, bookings []*models.Booking, path string) error
}
