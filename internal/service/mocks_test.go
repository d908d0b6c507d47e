package service

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"

	"github.com/sarthakwebsite26012000-dot/built-connect-emergent/internal/database"
	"github.com/sarthakwebsite26012000-dot/built-connect-emergent/internal/models"
)

type mockRepo struct {
	mock.Mock
}

func (m *mockRepo) CreateBooking(ctx context.Context, b *models.Booking) error {
	return m.Called(ctx, b).Error(0)
}
func (m *mockRepo) GetBooking(ctx context.Context, id string) (*models.Booking, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Booking), args.Error(1)
}
func (m *mockRepo) ListBookings(ctx context.Context) ([]*models.Booking, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Booking), args.Error(1)
}
func (m *mockRepo) ListBookingsByCustomer(ctx context.Context, customerID string) ([]*models.Booking, error) {
	args := m.Called(ctx, customerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Booking), args.Error(1)
}
func (m *mockRepo) ListBookingsByVendor(ctx context.Context, vendorID string) ([]*models.Booking, error) {
	args := m.Called(ctx, vendorID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Booking), args.Error(1)
}
func (m *mockRepo) ListOpenBookings(ctx context.Context) ([]*models.Booking, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Booking), args.Error(1)
}
func (m *mockRepo) ApplyTransition(ctx context.Context, id string, w database.TransitionWrite) error {
	return m.Called(ctx, id, w).Error(0)
}
func (m *mockRepo) MarkBookingPaid(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}
func (m *mockRepo) CountBookings(ctx context.Context) (int, error) {
	args := m.Called(ctx)
	return args.Int(0), args.Error(1)
}

func (m *mockRepo) CreateVendorProfile(ctx context.Context, p *models.VendorProfile) error {
	return m.Called(ctx, p).Error(0)
}
func (m *mockRepo) GetVendorProfile(ctx context.Context, id string) (*models.VendorProfile, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.VendorProfile), args.Error(1)
}
func (m *mockRepo) GetVendorProfileByUserID(ctx context.Context, userID string) (*models.VendorProfile, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.VendorProfile), args.Error(1)
}
func (m *mockRepo) ListVendorProfiles(ctx context.Context, approvedOnly bool) ([]*models.VendorProfile, error) {
	args := m.Called(ctx, approvedOnly)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.VendorProfile), args.Error(1)
}
func (m *mockRepo) DecideVendorApproval(ctx context.Context, id, decision string) error {
	return m.Called(ctx, id, decision).Error(0)
}
func (m *mockRepo) UpdateVendorRating(ctx context.Context, userID string, rating decimal.Decimal, totalReviews int) error {
	return m.Called(ctx, userID, rating, totalReviews).Error(0)
}
func (m *mockRepo) CountVendorProfiles(ctx context.Context) (int, int, error) {
	args := m.Called(ctx)
	return args.Int(0), args.Int(1), args.Error(2)
}

func (m *mockRepo) CreateUser(ctx context.Context, u *models.User) error {
	return m.Called(ctx, u).Error(0)
}
func (m *mockRepo) GetUserByID(ctx context.Context, id string) (*models.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}
func (m *mockRepo) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}
func (m *mockRepo) PromoteUserToVendor(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}
func (m *mockRepo) CountUsers(ctx context.Context) (int, error) {
	args := m.Called(ctx)
	return args.Int(0), args.Error(1)
}
func (m *mockRepo) ListUsers(ctx context.Context) ([]*models.User, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.User), args.Error(1)
}

func (m *mockRepo) CreateReview(ctx context.Context, r *models.Review) error {
	return m.Called(ctx, r).Error(0)
}
func (m *mockRepo) ListReviewsByVendor(ctx context.Context, vendorID string) ([]*models.Review, error) {
	args := m.Called(ctx, vendorID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Review), args.Error(1)
}

func (m *mockRepo) CreateSyncTask(ctx context.Context, task *models.SyncTask) error {
	return m.Called(ctx, task).Error(0)
}
func (m *mockRepo) GetPendingSyncTasks(ctx context.Context, limit int) ([]models.SyncTask, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.SyncTask), args.Error(1)
}
func (m *mockRepo) UpdateSyncTaskStatus(ctx context.Context, id int64, status, errMsg string, nextRetryAt *time.Time) error {
	return m.Called(ctx, id, status, errMsg, nextRetryAt).Error(0)
}

type mockEventBus struct {
	mock.Mock
}

func (m *mockEventBus) PublishJSON(eventType string, payload interface{}) error {
	return m.Called(eventType, payload).Error(0)
}

type mockSyncWorker struct {
	mock.Mock
}

func (m *mockSyncWorker) EnqueueBookingSync(ctx context.Context, taskType string, booking *models.Booking) error {
	return m.Called(ctx, taskType, booking).Error(0)
}

type mockSessions struct {
	mock.Mock
}

func (m *mockSessions) GetSession(ctx context.Context, userID string) (*models.Session, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Session), args.Error(1)
}
func (m *mockSessions) SetSession(ctx context.Context, session *models.Session) error {
	return m.Called(ctx, session).Error(0)
}
func (m *mockSessions) ClearSession(ctx context.Context, userID string) error {
	return m.Called(ctx, userID).Error(0)
}
func (m *mockSessions) CheckRateLimit(ctx context.Context, userID string, limit int, window time.Duration) (bool, error) {
	args := m.Called(ctx, userID, limit, window)
	return args.Bool(0), args.Error(1)
}
