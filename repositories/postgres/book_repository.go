package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/upb/library-api/models"
	"github.com/upb/library-api/repositories"
)

const bookColumns = "id, title, isbn, published_year, author_id, " + metadataColumns

// BookRepository implements the repositories.BookRepository interface
type BookRepository struct {
	db     *DB
	logger *zap.Logger
}

// NewBookRepository creates a new book repository
func NewBookRepository(db *DB, logger *zap.Logger) repositories.BookRepository {
	return &BookRepository{
		db:     db,
		logger: logger,
	}
}

func scanBook(row rowScanner) (*models.Book, error) {
	book := &models.Book{}
	var (
		year sql.NullInt64
		meta metadataScanner
	)
	dest := append([]any{&book.ID, &book.Title, &book.ISBN, &year, &book.AuthorID}, meta.dest(&book.AuditMetadata)...)
	if err := row.Scan(dest...); err != nil {
		return nil, err
	}
	if year.Valid {
		y := int(year.Int64)
		book.PublishedYear = &y
	}
	meta.apply(&book.AuditMetadata)
	return book, nil
}

// Create creates a new book
func (r *BookRepository) Create(ctx context.Context, book *models.Book) error {
	query := `
		INSERT INTO books (` + bookColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	args := append([]any{book.ID, book.Title, book.ISBN, book.PublishedYear, book.AuthorID}, metadataArgs(&book.AuditMetadata)...)
	if _, err := GetExecutor(ctx, r.db).ExecContext(ctx, query, args...); err != nil {
		return wrapError(err, "failed to create book")
	}

	r.logger.Debug("book created", zap.String("id", book.ID.String()), zap.String("isbn", book.ISBN))
	return nil
}

// GetByID retrieves a book by ID
func (r *BookRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Book, error) {
	query := `SELECT ` + bookColumns + ` FROM books WHERE id = $1`

	book, err := scanBook(GetExecutor(ctx, r.db).QueryRowContext(ctx, query, id))
	if err != nil {
		return nil, wrapError(err, fmt.Sprintf("failed to get book %s", id))
	}
	return book, nil
}

// GetByISBN retrieves a book by its normalized ISBN
func (r *BookRepository) GetByISBN(ctx context.Context, isbn string) (*models.Book, error) {
	query := `SELECT ` + bookColumns + ` FROM books WHERE isbn = $1`

	book, err := scanBook(GetExecutor(ctx, r.db).QueryRowContext(ctx, query, isbn))
	if err != nil {
		return nil, wrapError(err, fmt.Sprintf("failed to get book by isbn %s", isbn))
	}
	return book, nil
}

// List retrieves books ordered by creation time
func (r *BookRepository) List(ctx context.Context, limit, offset int) ([]*models.Book, error) {
	limit, offset = limitOffset(limit, offset)
	query := `
		SELECT ` + bookColumns + `
		FROM books
		ORDER BY created_at_utc, id
		LIMIT $1 OFFSET $2
	`
	return r.query(ctx, query, limit, offset)
}

// ListByAuthor retrieves every book written by an author
func (r *BookRepository) ListByAuthor(ctx context.Context, authorID uuid.UUID) ([]*models.Book, error) {
	query := `
		SELECT ` + bookColumns + `
		FROM books
		WHERE author_id = $1
		ORDER BY created_at_utc, id
	`
	return r.query(ctx, query, authorID)
}

func (r *BookRepository) query(ctx context.Context, query string, args ...any) ([]*models.Book, error) {
	rows, err := GetExecutor(ctx, r.db).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, wrapError(err, "failed to query books")
	}
	defer rows.Close()

	var books []*models.Book
	for rows.Next() {
		book, err := scanBook(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan book: %w", err)
		}
		books = append(books, book)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating book rows: %w", err)
	}

	return books, nil
}

// Update updates a book
func (r *BookRepository) Update(ctx context.Context, book *models.Book) error {
	query := `
		UPDATE books
		SET title = $2,
		    isbn = $3,
		    published_year = $4,
		    author_id = $5,
		    updated_at_utc = $6,
		    updated_by = $7
		WHERE id = $1
	`

	result, err := GetExecutor(ctx, r.db).ExecContext(ctx, query,
		book.ID,
		book.Title,
		book.ISBN,
		book.PublishedYear,
		book.AuthorID,
		book.UpdatedAtUTC,
		book.UpdatedBy,
	)
	if err != nil {
		return wrapError(err, "failed to update book")
	}
	return expectAffected(result, fmt.Sprintf("book %s", book.ID))
}

// Delete deletes a book
func (r *BookRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := GetExecutor(ctx, r.db).ExecContext(ctx, `DELETE FROM books WHERE id = $1`, id)
	if err != nil {
		return wrapError(err, "failed to delete book")
	}
	return expectAffected(result, fmt.Sprintf("book %s", id))
}
