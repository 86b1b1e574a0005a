package services

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/upb/library-api/models"
	"github.com/upb/library-api/repositories"
	"github.com/upb/library-api/utils"
)

const (
	maxBookTitleLength = 300
	maxPublishedYear   = 9999
)

// BookInput carries the writable fields of a book
type BookInput struct {
	Title         string
	ISBN          string
	PublishedYear *int
	AuthorID      uuid.UUID
}

// BookService manages books
type BookService struct {
	books   repositories.BookRepository
	authors repositories.AuthorRepository
	uow     repositories.UnitOfWorkFactory
	logger  *zap.Logger
}

// NewBookService creates a new BookService instance
func NewBookService(repos *repositories.Repositories, uow repositories.UnitOfWorkFactory, logger *zap.Logger) *BookService {
	return &BookService{
		books:   repos.Books,
		authors: repos.Authors,
		uow:     uow,
		logger:  logger,
	}
}

// Create adds a book for an existing author
func (s *BookService) Create(ctx context.Context, in BookInput) (*models.Book, error) {
	in, err := s.prepare(ctx, in)
	if err != nil {
		return nil, err
	}

	book := models.NewBook(in.AuthorID, in.Title, in.ISBN)
	book.PublishedYear = in.PublishedYear

	work := s.uow.New()
	work.Add(book)
	if _, err := work.SaveChanges(ctx); err != nil {
		return nil, s.writeError(ctx, err, book.ID, in)
	}

	s.logger.Info("book created",
		zap.String("book_id", book.ID.String()),
		zap.String("author_id", book.AuthorID.String()))
	return book, nil
}

// Get returns one book
func (s *BookService) Get(ctx context.Context, id uuid.UUID) (*models.Book, error) {
	book, err := s.books.GetByID(ctx, id)
	if err != nil {
		return nil, fromRepository(err, ErrBookNotFound, nil)
	}
	return book, nil
}

// List returns a page of books
func (s *BookService) List(ctx context.Context, limit, offset int) ([]*models.Book, error) {
	books, err := s.books.List(ctx, limit, offset)
	if err != nil {
		return nil, fromRepository(err, nil, nil)
	}
	return books, nil
}

// Update replaces the writable fields of a book
func (s *BookService) Update(ctx context.Context, id uuid.UUID, in BookInput) (*models.Book, error) {
	book, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	in, err = s.prepare(ctx, in)
	if err != nil {
		return nil, err
	}

	work := s.uow.New()
	work.Attach(book)
	book.Title = in.Title
	book.ISBN = in.ISBN
	book.PublishedYear = in.PublishedYear
	book.AuthorID = in.AuthorID
	if _, err := work.SaveChanges(ctx); err != nil {
		return nil, s.writeError(ctx, err, id, in)
	}
	return book, nil
}

// Delete removes a book
func (s *BookService) Delete(ctx context.Context, id uuid.UUID) error {
	book, err := s.Get(ctx, id)
	if err != nil {
		return err
	}

	work := s.uow.New()
	work.Remove(book)
	if _, err := work.SaveChanges(ctx); err != nil {
		return fromRepository(err, ErrBookNotFound, nil)
	}

	s.logger.Info("book deleted", zap.String("book_id", id.String()))
	return nil
}

// prepare normalizes input and checks that the author exists
func (s *BookService) prepare(ctx context.Context, in BookInput) (BookInput, error) {
	in.Title = strings.TrimSpace(in.Title)
	in.ISBN = normalizeISBN(in.ISBN)

	if err := utils.ValidateRequired(in.Title, "title"); err != nil {
		return in, validationError("title", err)
	}
	if err := utils.ValidateStringLength(in.Title, "title", 1, maxBookTitleLength); err != nil {
		return in, validationError("title", err)
	}
	if err := utils.ValidateRequired(in.ISBN, "isbn"); err != nil {
		return in, validationError("isbn", err)
	}
	if in.PublishedYear != nil {
		if err := utils.ValidateIntRange(*in.PublishedYear, "published_year", 0, maxPublishedYear); err != nil {
			return in, validationError("published_year", err)
		}
	}

	if _, err := s.authors.GetByID(ctx, in.AuthorID); err != nil {
		return in, fromRepository(err, ErrUnknownAuthor, nil)
	}
	return in, nil
}

// writeError maps write failures for book id. Stores report a duplicate
// ISBN, a missing author and other constraint failures all as a conflict, so
// the author and the ISBN are re-checked to tell them apart.
func (s *BookService) writeError(ctx context.Context, err error, id uuid.UUID, in BookInput) error {
	if !errors.Is(err, repositories.ErrConflict) {
		return fromRepository(err, ErrBookNotFound, nil)
	}
	if _, lookupErr := s.authors.GetByID(ctx, in.AuthorID); errors.Is(lookupErr, repositories.ErrNotFound) {
		return ErrUnknownAuthor.Wrap(err).WithDetail("author_id", in.AuthorID.String())
	}
	if other, lookupErr := s.books.GetByISBN(ctx, in.ISBN); lookupErr == nil && other.ID != id {
		return ErrDuplicateISBN.Wrap(err).WithDetail("isbn", in.ISBN)
	}
	return fromRepository(err, ErrBookNotFound, nil)
}

// normalizeISBN strips separators so the same ISBN is stored one way
func normalizeISBN(isbn string) string {
	return strings.Map(func(r rune) rune {
		if r == '-' || r == ' ' {
			return -1
		}
		return r
	}, strings.TrimSpace(isbn))
}
