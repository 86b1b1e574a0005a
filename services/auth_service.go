package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/upb/library-api/auth"
	"github.com/upb/library-api/internal/observability"
	"github.com/upb/library-api/models"
	"github.com/upb/library-api/repositories"
)

// Login attempt results recorded in metrics
const (
	loginSuccess = "success"
	loginFailure = "failure"
	loginError   = "error"
)

// LoginResult is returned on successful authentication
type LoginResult struct {
	AccessToken string
	TokenType   string
	ExpiresAt   time.Time
	User        *models.User
}

// AuthService authenticates users and issues access tokens
type AuthService struct {
	users     repositories.UserRepository
	hasher    *auth.PasswordHasher
	tokens    *auth.TokenService
	metrics   *observability.Metrics
	logger    *zap.Logger
	dummyHash string
}

// NewAuthService creates a new AuthService instance. metrics may be nil.
func NewAuthService(
	users repositories.UserRepository,
	hasher *auth.PasswordHasher,
	tokens *auth.TokenService,
	metrics *observability.Metrics,
	logger *zap.Logger,
) (*AuthService, error) {
	// Compared against when the user does not exist so both failure paths
	// cost one bcrypt comparison.
	dummy, err := hasher.Hash("library-api-unknown-user")
	if err != nil {
		return nil, err
	}
	return &AuthService{
		users:     users,
		hasher:    hasher,
		tokens:    tokens,
		metrics:   metrics,
		logger:    logger,
		dummyHash: dummy,
	}, nil
}

// Login checks credentials and issues a token. Unknown users and wrong
// passwords produce the same error.
func (s *AuthService) Login(ctx context.Context, username, password string) (*LoginResult, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		s.metrics.IncLoginAttempt(loginFailure)
		return nil, ErrInvalidCredentials.Wrap(nil)
	}

	user, err := s.users.GetByUsername(ctx, username)
	if err != nil && !errors.Is(err, repositories.ErrNotFound) {
		s.metrics.IncLoginAttempt(loginError)
		return nil, fromRepository(err, nil, nil)
	}

	hash := s.dummyHash
	if user != nil {
		hash = user.PasswordHash
	}
	cmpErr := s.hasher.Compare(hash, password)
	if user == nil || cmpErr != nil {
		if cmpErr != nil && !errors.Is(cmpErr, auth.ErrPasswordMismatch) {
			s.logger.Error("password comparison failed", zap.Error(cmpErr))
		}
		s.metrics.IncLoginAttempt(loginFailure)
		s.logger.Info("login failed", zap.String("username", username))
		return nil, ErrInvalidCredentials.Wrap(nil)
	}

	token, expiresAt, err := s.tokens.GenerateAccessToken(user)
	if err != nil {
		s.metrics.IncLoginAttempt(loginError)
		return nil, WrapInternal("failed to issue token", err)
	}

	s.metrics.IncLoginAttempt(loginSuccess)
	s.logger.Info("login succeeded", zap.String("user_id", user.ID.String()))
	return &LoginResult{
		AccessToken: token,
		TokenType:   "Bearer",
		ExpiresAt:   expiresAt,
		User:        user,
	}, nil
}
