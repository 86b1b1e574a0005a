package services

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/upb/library-api/models"
	"github.com/upb/library-api/repositories"
	"github.com/upb/library-api/utils"
)

const maxAuthorNameLength = 200

// AuthorInput carries the writable fields of an author
type AuthorInput struct {
	Name string
}

// AuthorService manages authors. Writes go through a unit of work so every
// change is audited.
type AuthorService struct {
	authors repositories.AuthorRepository
	books   repositories.BookRepository
	uow     repositories.UnitOfWorkFactory
	logger  *zap.Logger
}

// NewAuthorService creates a new AuthorService instance
func NewAuthorService(repos *repositories.Repositories, uow repositories.UnitOfWorkFactory, logger *zap.Logger) *AuthorService {
	return &AuthorService{
		authors: repos.Authors,
		books:   repos.Books,
		uow:     uow,
		logger:  logger,
	}
}

// Create adds a new author
func (s *AuthorService) Create(ctx context.Context, in AuthorInput) (*models.Author, error) {
	name, err := normalizeAuthorName(in.Name)
	if err != nil {
		return nil, err
	}

	author := models.NewAuthor(name)
	work := s.uow.New()
	work.Add(author)
	if _, err := work.SaveChanges(ctx); err != nil {
		return nil, fromRepository(err, nil, nil)
	}

	s.logger.Info("author created", zap.String("author_id", author.ID.String()))
	return author, nil
}

// Get returns one author
func (s *AuthorService) Get(ctx context.Context, id uuid.UUID) (*models.Author, error) {
	author, err := s.authors.GetByID(ctx, id)
	if err != nil {
		return nil, fromRepository(err, ErrAuthorNotFound, nil)
	}
	return author, nil
}

// List returns a page of authors
func (s *AuthorService) List(ctx context.Context, limit, offset int) ([]*models.Author, error) {
	authors, err := s.authors.List(ctx, limit, offset)
	if err != nil {
		return nil, fromRepository(err, nil, nil)
	}
	return authors, nil
}

// ListBooks returns every book written by the author
func (s *AuthorService) ListBooks(ctx context.Context, id uuid.UUID) ([]*models.Book, error) {
	if _, err := s.Get(ctx, id); err != nil {
		return nil, err
	}
	books, err := s.books.ListByAuthor(ctx, id)
	if err != nil {
		return nil, fromRepository(err, nil, nil)
	}
	return books, nil
}

// Update renames an author. Saving an unchanged name writes nothing.
func (s *AuthorService) Update(ctx context.Context, id uuid.UUID, in AuthorInput) (*models.Author, error) {
	name, err := normalizeAuthorName(in.Name)
	if err != nil {
		return nil, err
	}

	author, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	work := s.uow.New()
	work.Attach(author)
	author.Name = name
	if _, err := work.SaveChanges(ctx); err != nil {
		return nil, fromRepository(err, ErrAuthorNotFound, nil)
	}
	return author, nil
}

// Delete removes an author together with its books. Each book deletion is
// audited individually.
func (s *AuthorService) Delete(ctx context.Context, id uuid.UUID) error {
	author, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	books, err := s.books.ListByAuthor(ctx, id)
	if err != nil {
		return fromRepository(err, nil, nil)
	}

	// Books are tracked after the author so they are deleted first
	work := s.uow.New()
	work.Remove(author)
	for _, book := range books {
		work.Remove(book)
	}
	if _, err := work.SaveChanges(ctx); err != nil {
		return fromRepository(err, ErrAuthorNotFound, nil)
	}

	s.logger.Info("author deleted",
		zap.String("author_id", id.String()),
		zap.Int("books_deleted", len(books)))
	return nil
}

func normalizeAuthorName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if err := utils.ValidateRequired(name, "name"); err != nil {
		return "", validationError("name", err)
	}
	if err := utils.ValidateStringLength(name, "name", 1, maxAuthorNameLength); err != nil {
		return "", validationError("name", err)
	}
	return name, nil
}
