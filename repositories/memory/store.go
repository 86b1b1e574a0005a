// Package memory is an in-process store with the same constraints and
// transaction semantics as the postgres store. Writes made inside a
// transaction are journaled and replayed atomically on commit.
package memory

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/upb/library-api/models"
	"github.com/upb/library-api/repositories"
)

type state struct {
	authors map[uuid.UUID]models.Author
	books   map[uuid.UUID]models.Book
	users   map[uuid.UUID]models.User
	trails  []models.AuditTrail
}

func newState() *state {
	return &state{
		authors: make(map[uuid.UUID]models.Author),
		books:   make(map[uuid.UUID]models.Book),
		users:   make(map[uuid.UUID]models.User),
	}
}

func (s *state) clone() *state {
	c := &state{
		authors: make(map[uuid.UUID]models.Author, len(s.authors)),
		books:   make(map[uuid.UUID]models.Book, len(s.books)),
		users:   make(map[uuid.UUID]models.User, len(s.users)),
		trails:  make([]models.AuditTrail, len(s.trails)),
	}
	for k, v := range s.authors {
		c.authors[k] = v
	}
	for k, v := range s.books {
		c.books[k] = v
	}
	for k, v := range s.users {
		c.users[k] = v
	}
	copy(c.trails, s.trails)
	return c
}

// op mutates state. Ops validate before mutating so a failed op leaves the
// state untouched.
type op func(*state) error

// Store holds all entities behind a single RWMutex
type Store struct {
	mu          sync.RWMutex
	data        *state
	commitFault error
	logger      *zap.Logger
}

// NewStore creates an empty store
func NewStore(logger *zap.Logger) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{data: newState(), logger: logger}
}

// FailNextCommit makes the next transaction commit fail with err after all
// of its writes were staged.
func (s *Store) FailNextCommit(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.commitFault = err
}

// HealthCheck always succeeds
func (s *Store) HealthCheck(context.Context) error {
	return nil
}

func (s *Store) write(ctx context.Context, fn op) error {
	if tx, ok := txFromContext(ctx); ok {
		return tx.apply(fn)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return fn(s.data)
}

func (s *Store) read(ctx context.Context, fn func(*state)) {
	if tx, ok := txFromContext(ctx); ok {
		fn(tx.staged)
		return
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	fn(s.data)
}

type txContextKey struct{}

func txFromContext(ctx context.Context) (*Transaction, bool) {
	tx, ok := ctx.Value(txContextKey{}).(*Transaction)
	if !ok || tx.done {
		return nil, false
	}
	return tx, true
}

// TransactionManager implements repositories.TransactionManager
type TransactionManager struct {
	store *Store
}

// NewTransactionManager creates a transaction manager for store
func NewTransactionManager(store *Store) repositories.TransactionManager {
	return &TransactionManager{store: store}
}

// Begin starts a transaction over a private copy of the current state
func (tm *TransactionManager) Begin(ctx context.Context) (repositories.Transaction, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	tm.store.mu.RLock()
	staged := tm.store.data.clone()
	tm.store.mu.RUnlock()

	tx := &Transaction{store: tm.store, staged: staged}
	tx.ctx = context.WithValue(ctx, txContextKey{}, tx)
	return tx, nil
}

// InTransaction executes fn within a transaction
func (tm *TransactionManager) InTransaction(ctx context.Context, fn func(ctx context.Context, tx repositories.Transaction) error) error {
	tx, err := tm.Begin(ctx)
	if err != nil {
		return err
	}

	if err := fn(tx.Context(), tx); err != nil {
		_ = tx.Rollback()
		return err
	}

	return tx.Commit()
}

// Transaction stages writes on a private state and journals them
type Transaction struct {
	store   *Store
	staged  *state
	journal []op
	ctx     context.Context
	done    bool
}

func (t *Transaction) apply(fn op) error {
	if err := fn(t.staged); err != nil {
		return err
	}
	t.journal = append(t.journal, fn)
	return nil
}

// Commit replays the journal on the live state. Either every op applies or
// none does.
func (t *Transaction) Commit() error {
	if t.done {
		return errors.New("transaction already closed")
	}
	t.done = true

	s := t.store
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.commitFault != nil {
		err := s.commitFault
		s.commitFault = nil
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	next := s.data.clone()
	for _, fn := range t.journal {
		if err := fn(next); err != nil {
			return fmt.Errorf("failed to commit transaction: %w", err)
		}
	}
	s.data = next
	s.logger.Debug("transaction committed", zap.Int("ops", len(t.journal)))
	return nil
}

// Rollback discards staged writes
func (t *Transaction) Rollback() error {
	t.done = true
	t.journal = nil
	return nil
}

// Context returns the context carrying this transaction
func (t *Transaction) Context() context.Context {
	return t.ctx
}

// NewRepositories creates all repositories over store
func NewRepositories(store *Store) *repositories.Repositories {
	return &repositories.Repositories{
		Authors:     &AuthorRepository{store: store},
		Books:       &BookRepository{store: store},
		Users:       &UserRepository{store: store},
		AuditTrails: &AuditTrailRepository{store: store},
	}
}

func notFound(entity string, id any) error {
	return fmt.Errorf("%s %v: %w", entity, id, repositories.ErrNotFound)
}

func conflict(format string, args ...any) error {
	return fmt.Errorf(format+": %w", append(args, repositories.ErrConflict)...)
}

func clonePtr[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

func cloneMetadata(m models.AuditMetadata) models.AuditMetadata {
	m.UpdatedAtUTC = clonePtr(m.UpdatedAtUTC)
	m.UpdatedBy = clonePtr(m.UpdatedBy)
	return m
}

func page[T any](items []T, limit, offset int) []T {
	if offset >= len(items) {
		return nil
	}
	items = items[offset:]
	if limit > 0 && limit < len(items) {
		items = items[:limit]
	}
	return items
}
