package app

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/upb/library-api/auth"
	"github.com/upb/library-api/config"
	"github.com/upb/library-api/internal/audit"
	"github.com/upb/library-api/internal/clock"
	"github.com/upb/library-api/internal/observability"
	"github.com/upb/library-api/middleware"
	"github.com/upb/library-api/repositories"
	"github.com/upb/library-api/repositories/memory"
	"github.com/upb/library-api/repositories/postgres"
	"github.com/upb/library-api/repositories/uow"
	"github.com/upb/library-api/services"
)

// Dependencies holds all application dependencies.
// This is the central wiring point for dependency injection.
type Dependencies struct {
	// Infrastructure
	Config  *config.Config
	Logger  *zap.Logger
	Metrics *observability.Metrics
	Clock   clock.Clock

	// Store. DB and RepoFactory are nil with the memory driver.
	DB          *postgres.DB
	RepoFactory *postgres.RepositoryFactory
	Store       repositories.HealthChecker

	// Repositories
	Repositories *repositories.Repositories
	TxManager    repositories.TransactionManager
	UnitOfWork   repositories.UnitOfWorkFactory

	// Auth
	Tokens         *auth.TokenService
	Passwords      *auth.PasswordHasher
	AuthMiddleware *middleware.AuthMiddleware

	// Services
	Authors *services.AuthorService
	Books   *services.BookService
	Users   *services.UserService
	Auth    *services.AuthService
	Audit   *services.AuditService
}

// NewDependencies creates and wires up all application dependencies
func NewDependencies(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*Dependencies, error) {
	deps := &Dependencies{
		Config:  cfg,
		Logger:  logger,
		Metrics: observability.NewMetrics(),
		Clock:   clock.RealClock{},
	}

	if err := deps.initStore(ctx, cfg); err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	deps.initUnitOfWork(cfg)
	deps.initAuth(cfg)

	if err := deps.initServices(); err != nil {
		_ = deps.Close(ctx)
		return nil, fmt.Errorf("failed to initialize services: %w", err)
	}

	if err := deps.Users.SeedAdmin(ctx, cfg.Auth); err != nil {
		_ = deps.Close(ctx)
		return nil, err
	}

	logger.Info("all dependencies initialized successfully",
		zap.String("driver", cfg.Database.Driver))
	return deps, nil
}

// initStore opens the configured store and creates its repositories
func (d *Dependencies) initStore(ctx context.Context, cfg *config.Config) error {
	if cfg.Database.Driver == config.DriverMemory {
		store := memory.NewStore(d.Logger)
		d.Store = store
		d.Repositories = memory.NewRepositories(store)
		d.TxManager = memory.NewTransactionManager(store)
		d.Logger.Warn("using in-memory store, data is lost on restart")
		return nil
	}

	factory, err := postgres.NewRepositoryFactory(cfg, d.Logger)
	if err != nil {
		return fmt.Errorf("failed to create repository factory: %w", err)
	}
	d.RepoFactory = factory
	d.DB = factory.GetDB()
	d.Store = d.DB

	if err := factory.InitSchema(ctx); err != nil {
		_ = factory.Close()
		return fmt.Errorf("failed to initialize schema: %w", err)
	}

	d.Repositories = factory.NewRepositories()
	d.TxManager = factory.GetTransactionManager()
	d.Logger.Info("repositories initialized")
	return nil
}

// initUnitOfWork builds the audit interceptor and the unit-of-work factory
func (d *Dependencies) initUnitOfWork(cfg *config.Config) {
	interceptor := audit.NewInterceptor(
		middleware.ContextActorResolver{Users: d.Repositories.Users},
		d.Clock,
		audit.Options{
			SystemActor:       cfg.Audit.SystemActor,
			MaxValueLength:    cfg.Audit.MaxValueLength,
			ChangedFieldsOnly: cfg.Audit.ChangedFieldsOnly,
		},
		d.Logger,
	)

	d.UnitOfWork = uow.NewFactory(
		d.TxManager,
		uow.NewEntityRegistry(d.Repositories),
		d.Repositories.AuditTrails,
		d.Metrics,
		d.Logger,
		interceptor,
	)
}

func (d *Dependencies) initAuth(cfg *config.Config) {
	d.Tokens = auth.NewTokenService(cfg.Auth, d.Clock)
	d.Passwords = auth.NewPasswordHasher(cfg.Auth.BcryptCost)
	d.AuthMiddleware = middleware.NewAuthMiddleware(middleware.NewJWTValidator(d.Tokens), d.Logger)
}

func (d *Dependencies) initServices() error {
	d.Authors = services.NewAuthorService(d.Repositories, d.UnitOfWork, d.Logger)
	d.Books = services.NewBookService(d.Repositories, d.UnitOfWork, d.Logger)
	d.Users = services.NewUserService(d.Repositories, d.UnitOfWork, d.Passwords, middleware.ContextActorResolver{Users: d.Repositories.Users}, d.Logger)
	d.Audit = services.NewAuditService(d.Repositories.AuditTrails, d.Logger)

	authSvc, err := services.NewAuthService(d.Repositories.Users, d.Passwords, d.Tokens, d.Metrics, d.Logger)
	if err != nil {
		return err
	}
	d.Auth = authSvc
	return nil
}

// SecureCookies reports whether session cookies should be marked Secure
func (d *Dependencies) SecureCookies() bool {
	return d.Config.Server.TLS.Enabled || d.Config.IsProduction()
}

// Close gracefully shuts down all dependencies
func (d *Dependencies) Close(ctx context.Context) error {
	d.Logger.Info("shutting down dependencies")

	var errs []error

	if d.RepoFactory != nil {
		if err := d.RepoFactory.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close database: %w", err))
		} else {
			d.Logger.Info("database connection closed")
		}
		d.RepoFactory = nil
	}

	if d.Logger != nil {
		_ = d.Logger.Sync()
	}

	if len(errs) > 0 {
		return fmt.Errorf("errors during shutdown: %v", errs)
	}

	return nil
}
