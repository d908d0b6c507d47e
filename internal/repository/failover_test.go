package repository

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/sarthakwebsite26012000-dot/built-connect-emergent/internal/models"
)

type mockRepo struct {
	mock.Mock
}

func (m *mockRepo) GetSession(ctx context.Context, userID string) (*models.Session, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Session), args.Error(1)
}

func (m *mockRepo) SetSession(ctx context.Context, session *models.Session) error {
	args := m.Called(ctx, session)
	return args.Error(0)
}

func (m *mockRepo) ClearSession(ctx context.Context, userID string) error {
	args := m.Called(ctx, userID)
	return args.Error(0)
}

func (m *mockRepo) CheckRateLimit(ctx context.Context, userID string, limit int, window time.Duration) (bool, error) {
	args := m.Called(ctx, userID, limit, window)
	return args.Bool(0), args.Error(1)
}

func TestFailoverSessionRepository(t *testing.T) {
	primary := new(mockRepo)
	fallback := new(mockRepo)
	logger := zerolog.New(io.Discard)
	repo := NewFailoverSessionRepository(primary, fallback, &logger)
	ctx := context.Background()

	t.Run("PrimarySuccess", func(t *testing.T) {
		session := &models.Session{UserID: "u1"}
		primary.On("GetSession", ctx, "u1").Return(session, nil).Once()

		got, err := repo.GetSession(ctx, "u1")
		assert.NoError(t, err)
		assert.Equal(t, session, got)
		primary.AssertExpectations(t)
	})

	t.Run("PrimaryFailFallbackSuccess", func(t *testing.T) {
		session := &models.Session{UserID: "u2"}
		primary.On("GetSession", ctx, "u2").Return(nil, errors.New("fail")).Once()
		fallback.On("GetSession", ctx, "u2").Return(session, nil).Once()

		got, err := repo.GetSession(ctx, "u2")
		assert.NoError(t, err)
		assert.Equal(t, session, got)
		assert.True(t, repo.isDown.Load())
		primary.AssertExpectations(t)
		fallback.AssertExpectations(t)
	})

	t.Run("RecoveryAttempt", func(t *testing.T) {
		repo.isDown.Store(true)
		repo.lastCheck = time.Now().Add(-2 * time.Minute)

		session := &models.Session{UserID: "u3"}
		primary.On("GetSession", ctx, "u3").Return(session, nil).Once()

		got, err := repo.GetSession(ctx, "u3")
		assert.NoError(t, err)
		assert.Equal(t, session, got)
		assert.False(t, repo.isDown.Load())
		primary.AssertExpectations(t)
	})

	t.Run("RecoveryAttemptFail", func(t *testing.T) {
		repo.isDown.Store(true)
		repo.lastCheck = time.Now().Add(-2 * time.Minute)

		primary.On("GetSession", ctx, "u33").Return(nil, errors.New("still fail")).Once()
		fallback.On("GetSession", ctx, "u33").Return(nil, nil).Once()

		_, err := repo.GetSession(ctx, "u33")
		assert.NoError(t, err)
		assert.True(t, repo.isDown.Load())
		primary.AssertExpectations(t)
		fallback.AssertExpectations(t)
	})

	t.Run("SetSessionSuccess", func(t *testing.T) {
		repo.isDown.Store(false)
		session := &models.Session{UserID: "u77"}
		primary.On("SetSession", ctx, session).Return(nil).Once()

		err := repo.SetSession(ctx, session)
		assert.NoError(t, err)
		primary.AssertExpectations(t)
	})

	t.Run("SetSessionFailover", func(t *testing.T) {
		repo.isDown.Store(false)
		session := &models.Session{UserID: "u4"}
		primary.On("SetSession", ctx, session).Return(errors.New("fail")).Once()
		fallback.On("SetSession", ctx, session).Return(nil).Once()

		err := repo.SetSession(ctx, session)
		assert.NoError(t, err)
		assert.True(t, repo.isDown.Load())
		primary.AssertExpectations(t)
		fallback.AssertExpectations(t)
	})

	t.Run("ClearSessionFailover", func(t *testing.T) {
		repo.isDown.Store(false)
		primary.On("ClearSession", ctx, "u5").Return(errors.New("fail")).Once()
		fallback.On("ClearSession", ctx, "u5").Return(nil).Once()

		err := repo.ClearSession(ctx, "u5")
		assert.NoError(t, err)
		assert.True(t, repo.isDown.Load())
		primary.AssertExpectations(t)
		fallback.AssertExpectations(t)
	})

	t.Run("CheckRateLimitFailover", func(t *testing.T) {
		repo.isDown.Store(false)
		primary.On("CheckRateLimit", ctx, "u6", 10, time.Minute).Return(false, errors.New("fail")).Once()
		fallback.On("CheckRateLimit", ctx, "u6", 10, time.Minute).Return(true, nil).Once()

		allowed, err := repo.CheckRateLimit(ctx, "u6", 10, time.Minute)
		assert.NoError(t, err)
		assert.True(t, allowed)
		assert.True(t, repo.isDown.Load())
		primary.AssertExpectations(t)
		fallback.AssertExpectations(t)
	})

	t.Run("AlreadyDownUsesFallback", func(t *testing.T) {
		repo.isDown.Store(true)
		session := &models.Session{UserID: "u44"}
		fallback.On("SetSession", ctx, session).Return(nil).Once()
		fallback.On("ClearSession", ctx, "u44").Return(nil).Once()
		fallback.On("CheckRateLimit", ctx, "u44", 10, time.Minute).Return(true, nil).Once()

		assert.NoError(t, repo.SetSession(ctx, session))
		assert.NoError(t, repo.ClearSession(ctx, "u44"))
		allowed, err := repo.CheckRateLimit(ctx, "u44", 10, time.Minute)
		assert.NoError(t, err)
		assert.True(t, allowed)
		fallback.AssertExpectations(t)
	})
}
