package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/sarthakwebsite26012000-dot/built-connect-emergent/internal/auth"
	"github.com/sarthakwebsite26012000-dot/built-connect-emergent/internal/database"
	"github.com/sarthakwebsite26012000-dot/built-connect-emergent/internal/domain"
	"github.com/sarthakwebsite26012000-dot/built-connect-emergent/internal/lifecycle"
	"github.com/sarthakwebsite26012000-dot/built-connect-emergent/internal/models"
)

// ErrInvalidCredentials is returned for a failed login. It deliberately does
// not distinguish unknown email from wrong password.
var ErrInvalidCredentials = errors.New("invalid email or password")

type UserService struct {
	repo     domain.Repository
	sessions domain.SessionRepository
	tokens   *auth.TokenManager
	hasher   *auth.Hasher
	tokenTTL time.Duration
	logger   *zerolog.Logger
}

func NewUserService(repo domain.Repository, sessions domain.SessionRepository, tokens *auth.TokenManager, hasher *auth.Hasher, tokenTTL time.Duration, logger *zerolog.Logger) *UserService {
	return &UserService{
		repo:     repo,
		sessions: sessions,
		tokens:   tokens,
		hasher:   hasher,
		tokenTTL: tokenTTL,
		logger:   logger,
	}
}

// RegisterInput carries a signup request.
type RegisterInput struct {
	Email    string
	Password string
	FullName string
	Phone    string
	Role     string
}

// AuthResult is a user plus a freshly issued bearer token.
type AuthResult struct {
	User  *models.User
	Token string
}

// Register creates an account and logs it in. Self-signup never grants the
// admin role.
func (s *UserService) Register(ctx context.Context, in RegisterInput) (*AuthResult, error) {
	email := strings.ToLower(strings.TrimSpace(in.Email))
	if email == "" || !strings.Contains(email, "@") {
		return nil, fmt.Errorf("%w: a valid email is required", lifecycle.ErrValidation)
	}
	if len(in.Password) < 6 {
		return nil, fmt.Errorf("%w: password must be at least 6 characters", lifecycle.ErrValidation)
	}
	if strings.TrimSpace(in.FullName) == "" {
		return nil, fmt.Errorf("%w: full_name is required", lifecycle.ErrValidation)
	}

	role := in.Role
	switch role {
	case "":
		role = models.RoleCustomer
	case models.RoleCustomer, models.RoleVendor:
	default:
		return nil, fmt.Errorf("%w: role must be customer or vendor", lifecycle.ErrValidation)
	}

	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := &models.User{
		ID:           uuid.NewString(),
		Email:        email,
		FullName:     in.FullName,
		Phone:        in.Phone,
		Role:         role,
		PasswordHash: hash,
	}

	if err := s.repo.CreateUser(ctx, user); err != nil {
		if errors.Is(err, database.ErrDuplicate) {
			return nil, fmt.Errorf("%w: email already registered", lifecycle.ErrValidation)
		}
		return nil, mapStorageError(err)
	}

	return s.startSession(ctx, user)
}

// Login verifies credentials and issues a token.
func (s *UserService) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	user, err := s.repo.GetUserByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, mapStorageError(err)
	}

	if err := s.hasher.Compare(user.PasswordHash, password); err != nil {
		if errors.Is(err, auth.ErrWrongPassword) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	return s.startSession(ctx, user)
}

// Me returns the authenticated user's account.
func (s *UserService) Me(ctx context.Context, actor models.Actor) (*models.User, error) {
	user, err := s.repo.GetUserByID(ctx, actor.UserID)
	if err != nil {
		return nil, mapStorageError(err)
	}
	return user, nil
}

// ListAll returns every account. Admin only.
func (s *UserService) ListAll(ctx context.Context, actor models.Actor) ([]*models.User, error) {
	if !actor.IsAdmin() {
		return nil, lifecycle.ErrUnauthorized
	}
	users, err := s.repo.ListUsers(ctx)
	if err != nil {
		return nil, mapStorageError(err)
	}
	return users, nil
}

// Logout revokes the actor's session. Tokens presented afterwards are
// rejected even if not yet expired.
func (s *UserService) Logout(ctx context.Context, actor models.Actor) error {
	return s.sessions.ClearSession(ctx, actor.UserID)
}

// ValidateToken checks a bearer token against both its signature and the
// session store, so a logout invalidates the token immediately.
func (s *UserService) ValidateToken(ctx context.Context, token string) (models.Actor, error) {
	claims, err := s.tokens.Verify(token)
	if err != nil {
		return models.Actor{}, err
	}

	session, err := s.sessions.GetSession(ctx, claims.UserID)
	if err != nil {
		s.logger.Warn().Err(err).Msg("session lookup failed, accepting token on signature alone")
	} else if session == nil || session.Token != token {
		return models.Actor{}, auth.ErrInvalidToken
	}

	// The role comes from the user store, not the claims: a customer promoted
	// to vendor mid-session acts as a vendor on the next request, no re-login.
	user, err := s.repo.GetUserByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return models.Actor{}, auth.ErrInvalidToken
		}
		return models.Actor{}, mapStorageError(err)
	}

	return models.Actor{UserID: user.ID, Role: user.Role}, nil
}

func (s *UserService) startSession(ctx context.Context, user *models.User) (*AuthResult, error) {
	token, err := s.tokens.Issue(user.ID, user.Email, user.Role)
	if err != nil {
		return nil, fmt.Errorf("issue token: %w", err)
	}

	now := time.Now()
	session := &models.Session{
		UserID:    user.ID,
		Email:     user.Email,
		Role:      user.Role,
		Token:     token,
		IssuedAt:  now,
		ExpiresAt: now.Add(s.tokenTTL),
	}
	if err := s.sessions.SetSession(ctx, session); err != nil {
		s.logger.Error().Err(err).Str("user_id", user.ID).Msg("failed to store session")
	}

	return &AuthResult{User: user, Token: token}, nil
}
