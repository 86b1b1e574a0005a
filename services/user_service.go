package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/upb/library-api/auth"
	"github.com/upb/library-api/config"
	"github.com/upb/library-api/internal/audit"
	"github.com/upb/library-api/models"
	"github.com/upb/library-api/repositories"
	"github.com/upb/library-api/utils"
)

const (
	minPasswordLength = 8
	maxPasswordBytes  = 72 // bcrypt ignores input beyond 72 bytes
	maxUsernameLength = 64
)

// CreateUserInput carries the fields of a new account
type CreateUserInput struct {
	Username string
	Email    string
	Password string
	Role     models.UserRole
}

// UpdateUserInput carries optional changes to an account
type UpdateUserInput struct {
	Email    *string
	Password *string
	Role     *models.UserRole
}

// UserService manages accounts
type UserService struct {
	users  repositories.UserRepository
	uow    repositories.UnitOfWorkFactory
	hasher *auth.PasswordHasher
	actors audit.ActorResolver
	logger *zap.Logger
}

// NewUserService creates a new UserService instance. actors identifies the
// caller so users cannot delete themselves.
func NewUserService(
	repos *repositories.Repositories,
	uow repositories.UnitOfWorkFactory,
	hasher *auth.PasswordHasher,
	actors audit.ActorResolver,
	logger *zap.Logger,
) *UserService {
	if actors == nil {
		actors = audit.Anonymous
	}
	return &UserService{
		users:  repos.Users,
		uow:    uow,
		hasher: hasher,
		actors: actors,
		logger: logger,
	}
}

// Create adds an account with the given role
func (s *UserService) Create(ctx context.Context, in CreateUserInput) (*models.User, error) {
	username := strings.TrimSpace(in.Username)
	email := strings.ToLower(strings.TrimSpace(in.Email))

	if err := utils.ValidateRequired(username, "username"); err != nil {
		return nil, validationError("username", err)
	}
	if err := utils.ValidateStringLength(username, "username", 3, maxUsernameLength); err != nil {
		return nil, validationError("username", err)
	}
	if err := utils.ValidateEmail(email); err != nil {
		return nil, ErrInvalidEmail.Wrap(err).WithDetail("email", err.Error())
	}
	if err := validateRole(in.Role); err != nil {
		return nil, err
	}
	hash, err := s.hashPassword(in.Password)
	if err != nil {
		return nil, err
	}

	if _, err := s.users.GetByUsername(ctx, username); err == nil {
		return nil, ErrDuplicateUsername.Wrap(nil).WithDetail("username", username)
	} else if !errors.Is(err, repositories.ErrNotFound) {
		return nil, fromRepository(err, nil, nil)
	}

	user := models.NewUser(username, email, hash, in.Role)
	work := s.uow.New()
	work.Add(user)
	if _, err := work.SaveChanges(ctx); err != nil {
		return nil, fromRepository(err, nil, ErrDuplicateUsername)
	}

	s.logger.Info("user created",
		zap.String("user_id", user.ID.String()),
		zap.String("role", string(user.Role)))
	return user, nil
}

// Register creates a member account for self sign-up
func (s *UserService) Register(ctx context.Context, username, email, password string) (*models.User, error) {
	return s.Create(ctx, CreateUserInput{
		Username: username,
		Email:    email,
		Password: password,
		Role:     models.RoleMember,
	})
}

// Get returns one account
func (s *UserService) Get(ctx context.Context, id uuid.UUID) (*models.User, error) {
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		return nil, fromRepository(err, ErrUserNotFound, nil)
	}
	return user, nil
}

// List returns a page of accounts
func (s *UserService) List(ctx context.Context, limit, offset int) ([]*models.User, error) {
	users, err := s.users.List(ctx, limit, offset)
	if err != nil {
		return nil, fromRepository(err, nil, nil)
	}
	return users, nil
}

// Update applies the provided changes
func (s *UserService) Update(ctx context.Context, id uuid.UUID, in UpdateUserInput) (*models.User, error) {
	user, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	work := s.uow.New()
	work.Attach(user)

	if in.Email != nil {
		email := strings.ToLower(strings.TrimSpace(*in.Email))
		if err := utils.ValidateEmail(email); err != nil {
			return nil, ErrInvalidEmail.Wrap(err).WithDetail("email", err.Error())
		}
		user.Email = email
	}
	if in.Role != nil {
		if err := validateRole(*in.Role); err != nil {
			return nil, err
		}
		user.Role = *in.Role
	}
	if in.Password != nil {
		hash, err := s.hashPassword(*in.Password)
		if err != nil {
			return nil, err
		}
		user.PasswordHash = hash
	}

	if _, err := work.SaveChanges(ctx); err != nil {
		return nil, fromRepository(err, ErrUserNotFound, ErrDuplicateUsername)
	}
	return user, nil
}

// Delete removes an account. Audit history written by the account is kept
// with its actor reference cleared.
func (s *UserService) Delete(ctx context.Context, id uuid.UUID) error {
	if caller, ok := s.actors.ResolveActor(ctx); ok && caller == id {
		return ErrCannotDeleteSelf.Wrap(nil)
	}

	user, err := s.Get(ctx, id)
	if err != nil {
		return err
	}

	work := s.uow.New()
	work.Remove(user)
	if _, err := work.SaveChanges(ctx); err != nil {
		return fromRepository(err, ErrUserNotFound, nil)
	}

	s.logger.Info("user deleted", zap.String("user_id", id.String()))
	return nil
}

// SeedAdmin creates the configured admin account when it does not exist yet.
// It runs without a principal so the creation is stamped with the system actor.
func (s *UserService) SeedAdmin(ctx context.Context, cfg config.AuthConfig) error {
	if cfg.AdminUsername == "" {
		return nil
	}

	_, err := s.users.GetByUsername(ctx, cfg.AdminUsername)
	if err == nil {
		s.logger.Debug("admin user already present", zap.String("username", cfg.AdminUsername))
		return nil
	}
	if !errors.Is(err, repositories.ErrNotFound) {
		return fmt.Errorf("failed to look up admin user: %w", err)
	}

	user, err := s.Create(ctx, CreateUserInput{
		Username: cfg.AdminUsername,
		Email:    cfg.AdminEmail,
		Password: cfg.AdminPassword,
		Role:     models.RoleAdmin,
	})
	if err != nil {
		return fmt.Errorf("failed to seed admin user: %w", err)
	}

	s.logger.Info("admin user seeded", zap.String("user_id", user.ID.String()))
	return nil
}

func (s *UserService) hashPassword(password string) (string, error) {
	if err := utils.ValidateStringLength(password, "password", minPasswordLength, 0); err != nil {
		return "", ErrWeakPassword.Wrap(err).WithDetail("password", err.Error())
	}
	if len(password) > maxPasswordBytes {
		err := fmt.Errorf("password must be at most %d bytes", maxPasswordBytes)
		return "", ErrWeakPassword.Wrap(err).WithDetail("password", err.Error())
	}
	hash, err := s.hasher.Hash(password)
	if err != nil {
		return "", WrapInternal("failed to hash password", err)
	}
	return hash, nil
}

func validateRole(role models.UserRole) error {
	if err := utils.ValidateOneOf(string(role), "role", models.RoleNames()); err != nil {
		return ErrInvalidRole.Wrap(err).WithDetail("role", err.Error())
	}
	return nil
}
