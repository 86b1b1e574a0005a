package services

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/upb/library-api/auth"
	"github.com/upb/library-api/config"
	"github.com/upb/library-api/internal/audit"
	"github.com/upb/library-api/internal/clock"
	"github.com/upb/library-api/internal/observability"
	"github.com/upb/library-api/middleware"
	"github.com/upb/library-api/models"
	"github.com/upb/library-api/repositories"
	"github.com/upb/library-api/repositories/memory"
	"github.com/upb/library-api/repositories/uow"
)

var testNow = time.Date(2024, 9, 1, 10, 0, 0, 0, time.UTC)

var testAuthConfig = config.AuthConfig{
	JWTSecret: "test-secret",
	Issuer:    "library-api",
	Audience:  "library-api",
	TokenTTL:  time.Hour,
}

type testEnv struct {
	store   *memory.Store
	repos   *repositories.Repositories
	metrics *observability.Metrics
	hasher  *auth.PasswordHasher
	tokens  *auth.TokenService

	authors *AuthorService
	books   *BookService
	users   *UserService
	auth    *AuthService
	audit   *AuditService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	logger := zap.NewNop()

	store := memory.NewStore(logger)
	repos := memory.NewRepositories(store)
	metrics := observability.NewMetrics()
	interceptor := audit.NewInterceptor(
		middleware.ContextActorResolver{Users: repos.Users},
		clock.Fixed(testNow),
		audit.Options{SystemActor: "system", MaxValueLength: 1024},
		logger,
	)
	factory := uow.NewFactory(
		memory.NewTransactionManager(store),
		uow.NewEntityRegistry(repos),
		repos.AuditTrails,
		metrics,
		logger,
		interceptor,
	)

	hasher := auth.NewPasswordHasher(bcrypt.MinCost)
	tokens := auth.NewTokenService(testAuthConfig, clock.Fixed(testNow))
	authSvc, err := NewAuthService(repos.Users, hasher, tokens, metrics, logger)
	require.NoError(t, err)

	return &testEnv{
		store:   store,
		repos:   repos,
		metrics: metrics,
		hasher:  hasher,
		tokens:  tokens,
		authors: NewAuthorService(repos, factory, logger),
		books:   NewBookService(repos, factory, logger),
		users:   NewUserService(repos, factory, hasher, middleware.ContextActorResolver{Users: repos.Users}, logger),
		auth:    authSvc,
		audit:   NewAuditService(repos.AuditTrails, logger),
	}
}

// asUser returns a context authenticated as id
func asUser(ctx context.Context, id uuid.UUID) context.Context {
	return middleware.WithClaims(ctx, &middleware.Claims{Sub: id.String()})
}

func (e *testEnv) createUser(t *testing.T, username string, role models.UserRole) *models.User {
	t.Helper()
	user, err := e.users.Create(context.Background(), CreateUserInput{
		Username: username,
		Email:    username + "@example.com",
		Password: "correct horse battery",
		Role:     role,
	})
	require.NoError(t, err)
	return user
}

func (e *testEnv) createAuthor(t *testing.T, name string) *models.Author {
	t.Helper()
	author, err := e.authors.Create(context.Background(), AuthorInput{Name: name})
	require.NoError(t, err)
	return author
}

func (e *testEnv) trails(t *testing.T, filter models.AuditTrailFilter) []*models.AuditTrail {
	t.Helper()
	trails, err := e.audit.List(context.Background(), filter)
	require.NoError(t, err)
	return trails
}

func countByType(trails []*models.AuditTrail) map[models.TrailType]int {
	counts := make(map[models.TrailType]int)
	for _, tr := range trails {
		counts[tr.TrailType]++
	}
	return counts
}

func trailFor(trails []*models.AuditTrail, trailType models.TrailType, field string) *models.AuditTrail {
	for _, tr := range trails {
		if tr.TrailType == trailType && tr.ChangedField == field {
			return tr
		}
	}
	return nil
}
