package repositories

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/upb/library-api/models"
)

// Sentinel errors wrapped by every store implementation
var (
	ErrNotFound = errors.New("not found")
	ErrConflict = errors.New("conflict")
)

// TransactionManager manages store transactions. The transaction travels in
// the context handed to fn so repositories pick it up transparently.
type TransactionManager interface {
	// Begin starts a new transaction
	Begin(ctx context.Context) (Transaction, error)

	// InTransaction executes a function within a transaction
	// Automatically commits if function succeeds, rolls back on error
	InTransaction(ctx context.Context, fn func(ctx context.Context, tx Transaction) error) error
}

// Transaction represents a store transaction
type Transaction interface {
	// Commit commits the transaction
	Commit() error

	// Rollback rolls back the transaction
	Rollback() error

	// Context returns the transaction context
	Context() context.Context
}

// UnitOfWork tracks entity changes for one logical operation and commits
// them atomically together with their audit trails.
type UnitOfWork interface {
	// Add tracks a new entity to be inserted
	Add(entity models.Auditable)

	// Attach tracks an entity loaded from the store as unchanged
	Attach(entity models.Auditable)

	// Update marks an entity as modified
	Update(entity models.Auditable)

	// Remove marks an entity for deletion
	Remove(entity models.Auditable)

	// SaveChanges writes every pending change in one transaction and returns
	// the number of entities written
	SaveChanges(ctx context.Context) (int, error)
}

// UnitOfWorkFactory creates a fresh unit of work per operation
type UnitOfWorkFactory interface {
	New() UnitOfWork
}

// AuthorRepository handles author data operations
type AuthorRepository interface {
	// Create inserts a new author
	Create(ctx context.Context, author *models.Author) error

	// GetByID retrieves an author by ID
	GetByID(ctx context.Context, id uuid.UUID) (*models.Author, error)

	// List retrieves authors ordered by creation time
	List(ctx context.Context, limit, offset int) ([]*models.Author, error)

	// Update updates an author
	Update(ctx context.Context, author *models.Author) error

	// Delete deletes an author
	Delete(ctx context.Context, id uuid.UUID) error
}

// BookRepository handles book data operations
type BookRepository interface {
	Create(ctx context.Context, book *models.Book) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Book, error)

	// GetByISBN retrieves a book by its normalized ISBN
	GetByISBN(ctx context.Context, isbn string) (*models.Book, error)

	List(ctx context.Context, limit, offset int) ([]*models.Book, error)

	// ListByAuthor retrieves every book written by an author
	ListByAuthor(ctx context.Context, authorID uuid.UUID) ([]*models.Book, error)

	Update(ctx context.Context, book *models.Book) error
	Delete(ctx context.Context, id uuid.UUID) error
}

// UserRepository handles user data operations
type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.User, error)

	// GetByUsername retrieves a user by login name
	GetByUsername(ctx context.Context, username string) (*models.User, error)

	List(ctx context.Context, limit, offset int) ([]*models.User, error)
	Update(ctx context.Context, user *models.User) error

	// Delete deletes a user. Audit trails referencing the user keep their
	// history with the actor reference cleared.
	Delete(ctx context.Context, id uuid.UUID) error
}

// AuditTrailRepository handles audit trail storage. Trails are append-only.
type AuditTrailRepository interface {
	// InsertBatch inserts trails in the transaction carried by ctx
	InsertBatch(ctx context.Context, trails []*models.AuditTrail) error

	// GetByID retrieves a trail by ID
	GetByID(ctx context.Context, id uuid.UUID) (*models.AuditTrail, error)

	// List retrieves trails matching filter, newest first
	List(ctx context.Context, filter models.AuditTrailFilter) ([]*models.AuditTrail, error)
}

// HealthChecker reports store readiness
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

// Repositories aggregates all repository interfaces
type Repositories struct {
	Authors     AuthorRepository
	Books       BookRepository
	Users       UserRepository
	AuditTrails AuditTrailRepository
}
