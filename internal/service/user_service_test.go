package service

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/sarthakwebsite26012000-dot/built-connect-emergent/internal/auth"
	"github.com/sarthakwebsite26012000-dot/built-connect-emergent/internal/database"
	"github.com/sarthakwebsite26012000-dot/built-connect-emergent/internal/lifecycle"
	"github.com/sarthakwebsite26012000-dot/built-connect-emergent/internal/models"
)

func newUserService(repo *mockRepo, sessions *mockSessions) *UserService {
	logger := zerolog.New(io.Discard)
	tokens := auth.NewTokenManager("test-secret", time.Hour)
	hasher := auth.NewHasher(4)
	return NewUserService(repo, sessions, tokens, hasher, time.Hour, &logger)
}

func TestRegister(t *testing.T) {
	ctx := context.Background()

	t.Run("Success", func(t *testing.T) {
		repo := new(mockRepo)
		sessions := new(mockSessions)
		svc := newUserService(repo, sessions)

		repo.On("CreateUser", ctx, mock.AnythingOfType("*models.User")).Return(nil).Once()
		sessions.On("SetSession", ctx, mock.AnythingOfType("*models.Session")).Return(nil).Once()

		result, err := svc.Register(ctx, RegisterInput{
			Email:    "Ravi@Example.com",
			Password: "secret123",
			FullName: "Ravi Kumar",
			Phone:    "+919876543210",
		})
		require.NoError(t, err)
		assert.Equal(t, "ravi@example.com", result.User.Email)
		assert.Equal(t, models.RoleCustomer, result.User.Role)
		assert.NotEmpty(t, result.Token)
		assert.NotEmpty(t, result.User.PasswordHash)
		assert.NotEqual(t, "secret123", result.User.PasswordHash)
		repo.AssertExpectations(t)
		sessions.AssertExpectations(t)
	})

	t.Run("VendorRole", func(t *testing.T) {
		repo := new(mockRepo)
		sessions := new(mockSessions)
		svc := newUserService(repo, sessions)

		repo.On("CreateUser", ctx, mock.Anything).Return(nil).Once()
		sessions.On("SetSession", ctx, mock.Anything).Return(nil).Once()

		result, err := svc.Register(ctx, RegisterInput{
			Email:    "vendor@example.com",
			Password: "secret123",
			FullName: "Suresh Electricals",
			Role:     models.RoleVendor,
		})
		require.NoError(t, err)
		assert.Equal(t, models.RoleVendor, result.User.Role)
	})

	t.Run("AdminRoleRejected", func(t *testing.T) {
		svc := newUserService(new(mockRepo), new(mockSessions))

		_, err := svc.Register(ctx, RegisterInput{
			Email:    "evil@example.com",
			Password: "secret123",
			FullName: "Evil",
			Role:     models.RoleAdmin,
		})
		assert.ErrorIs(t, err, lifecycle.ErrValidation)
	})

	t.Run("ShortPassword", func(t *testing.T) {
		svc := newUserService(new(mockRepo), new(mockSessions))

		_, err := svc.Register(ctx, RegisterInput{
			Email:    "user@example.com",
			Password: "12345",
			FullName: "User",
		})
		assert.ErrorIs(t, err, lifecycle.ErrValidation)
	})

	t.Run("BadEmail", func(t *testing.T) {
		svc := newUserService(new(mockRepo), new(mockSessions))

		_, err := svc.Register(ctx, RegisterInput{
			Email:    "not-an-email",
			Password: "secret123",
			FullName: "User",
		})
		assert.ErrorIs(t, err, lifecycle.ErrValidation)
	})

	t.Run("DuplicateEmail", func(t *testing.T) {
		repo := new(mockRepo)
		svc := newUserService(repo, new(mockSessions))

		repo.On("CreateUser", ctx, mock.Anything).Return(database.ErrDuplicate).Once()

		_, err := svc.Register(ctx, RegisterInput{
			Email:    "taken@example.com",
			Password: "secret123",
			FullName: "User",
		})
		assert.ErrorIs(t, err, lifecycle.ErrValidation)
	})
}

func TestLogin(t *testing.T) {
	ctx := context.Background()
	hasher := auth.NewHasher(4)
	hash, _ := hasher.Hash("secret123")

	storedUser := func() *models.User {
		return &models.User{
			ID:           "user-1",
			Email:        "user@example.com",
			FullName:     "User",
			Role:         models.RoleCustomer,
			PasswordHash: hash,
		}
	}

	t.Run("Success", func(t *testing.T) {
		repo := new(mockRepo)
		sessions := new(mockSessions)
		svc := newUserService(repo, sessions)

		repo.On("GetUserByEmail", ctx, "user@example.com").Return(storedUser(), nil).Once()
		sessions.On("SetSession", ctx, mock.Anything).Return(nil).Once()

		result, err := svc.Login(ctx, "USER@example.com ", "secret123")
		require.NoError(t, err)
		assert.Equal(t, "user-1", result.User.ID)
		assert.NotEmpty(t, result.Token)
	})

	t.Run("WrongPassword", func(t *testing.T) {
		repo := new(mockRepo)
		svc := newUserService(repo, new(mockSessions))

		repo.On("GetUserByEmail", ctx, "user@example.com").Return(storedUser(), nil).Once()

		_, err := svc.Login(ctx, "user@example.com", "wrong")
		assert.ErrorIs(t, err, ErrInvalidCredentials)
	})

	t.Run("UnknownEmail", func(t *testing.T) {
		repo := new(mockRepo)
		svc := newUserService(repo, new(mockSessions))

		repo.On("GetUserByEmail", ctx, "nobody@example.com").Return(nil, database.ErrNotFound).Once()

		_, err := svc.Login(ctx, "nobody@example.com", "secret123")
		assert.ErrorIs(t, err, ErrInvalidCredentials)
	})
}

func TestValidateToken(t *testing.T) {
	ctx := context.Background()

	t.Run("ValidWithSession", func(t *testing.T) {
		repo := new(mockRepo)
		sessions := new(mockSessions)
		svc := newUserService(repo, sessions)

		repo.On("CreateUser", ctx, mock.Anything).Return(nil).Once()
		sessions.On("SetSession", ctx, mock.Anything).Return(nil).Once()

		result, err := svc.Register(ctx, RegisterInput{
			Email:    "user@example.com",
			Password: "secret123",
			FullName: "User",
		})
		require.NoError(t, err)

		sessions.On("GetSession", ctx, result.User.ID).Return(&models.Session{
			UserID: result.User.ID,
			Token:  result.Token,
		}, nil).Once()
		repo.On("GetUserByID", ctx, result.User.ID).Return(result.User, nil).Once()

		actor, err := svc.ValidateToken(ctx, result.Token)
		require.NoError(t, err)
		assert.Equal(t, result.User.ID, actor.UserID)
		assert.Equal(t, models.RoleCustomer, actor.Role)
	})

	t.Run("RoleRefreshedAfterPromotion", func(t *testing.T) {
		repo := new(mockRepo)
		sessions := new(mockSessions)
		svc := newUserService(repo, sessions)

		repo.On("CreateUser", ctx, mock.Anything).Return(nil).Once()
		sessions.On("SetSession", ctx, mock.Anything).Return(nil).Once()

		result, err := svc.Register(ctx, RegisterInput{
			Email:    "promoted@example.com",
			Password: "secret123",
			FullName: "Promoted",
		})
		require.NoError(t, err)
		require.Equal(t, models.RoleCustomer, result.User.Role)

		// Filing a vendor profile promoted the account after the token was
		// issued. The same token must now resolve with the vendor role.
		promoted := *result.User
		promoted.Role = models.RoleVendor
		sessions.On("GetSession", ctx, result.User.ID).Return(&models.Session{
			UserID: result.User.ID,
			Token:  result.Token,
		}, nil).Once()
		repo.On("GetUserByID", ctx, result.User.ID).Return(&promoted, nil).Once()

		actor, err := svc.ValidateToken(ctx, result.Token)
		require.NoError(t, err)
		assert.Equal(t, models.RoleVendor, actor.Role)
	})

	t.Run("DeletedUser", func(t *testing.T) {
		repo := new(mockRepo)
		sessions := new(mockSessions)
		svc := newUserService(repo, sessions)

		repo.On("CreateUser", ctx, mock.Anything).Return(nil).Once()
		sessions.On("SetSession", ctx, mock.Anything).Return(nil).Once()

		result, err := svc.Register(ctx, RegisterInput{
			Email:    "gone@example.com",
			Password: "secret123",
			FullName: "Gone",
		})
		require.NoError(t, err)

		sessions.On("GetSession", ctx, result.User.ID).Return(&models.Session{
			UserID: result.User.ID,
			Token:  result.Token,
		}, nil).Once()
		repo.On("GetUserByID", ctx, result.User.ID).Return(nil, database.ErrNotFound).Once()

		_, err = svc.ValidateToken(ctx, result.Token)
		assert.ErrorIs(t, err, auth.ErrInvalidToken)
	})

	t.Run("RevokedByLogout", func(t *testing.T) {
		repo := new(mockRepo)
		sessions := new(mockSessions)
		svc := newUserService(repo, sessions)

		repo.On("CreateUser", ctx, mock.Anything).Return(nil).Once()
		sessions.On("SetSession", ctx, mock.Anything).Return(nil).Once()

		result, err := svc.Register(ctx, RegisterInput{
			Email:    "user@example.com",
			Password: "secret123",
			FullName: "User",
		})
		require.NoError(t, err)

		// No session in the store means the token was revoked.
		sessions.On("GetSession", ctx, result.User.ID).Return(nil, nil).Once()

		_, err = svc.ValidateToken(ctx, result.Token)
		assert.ErrorIs(t, err, auth.ErrInvalidToken)
	})

	t.Run("Garbage", func(t *testing.T) {
		svc := newUserService(new(mockRepo), new(mockSessions))

		_, err := svc.ValidateToken(ctx, "garbage")
		assert.ErrorIs(t, err, auth.ErrInvalidToken)
	})
}

func TestLogout(t *testing.T) {
	ctx := context.Background()
	sessions := new(mockSessions)
	svc := newUserService(new(mockRepo), sessions)

	sessions.On("ClearSession", ctx, "user-1").Return(nil).Once()

	err := svc.Logout(ctx, models.Actor{UserID: "user-1", Role: models.RoleCustomer})
	assert.NoError(t, err)
	sessions.AssertExpectations(t)
}

func TestStorageTimeoutSurfacesUnavailable(t *testing.T) {
	ctx := context.Background()
	repo := new(mockRepo)
	svc := newUserService(repo, new(mockSessions))

	// A store call that ran out of its deadline is a retryable outage, not a
	// caller error.
	repo.On("ListUsers", ctx).Return(nil, context.DeadlineExceeded).Once()

	_, err := svc.ListAll(ctx, models.Actor{UserID: "admin-1", Role: models.RoleAdmin})
	assert.ErrorIs(t, err, lifecycle.ErrUnavailable)
	repo.AssertExpectations(t)
}
