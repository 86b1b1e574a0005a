package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/upb/library-api/models"
	"github.com/upb/library-api/repositories"
)

const authorColumns = "id, name, " + metadataColumns

// AuthorRepository implements the repositories.AuthorRepository interface
type AuthorRepository struct {
	db     *DB
	logger *zap.Logger
}

// NewAuthorRepository creates a new author repository
func NewAuthorRepository(db *DB, logger *zap.Logger) repositories.AuthorRepository {
	return &AuthorRepository{
		db:     db,
		logger: logger,
	}
}

func scanAuthor(row rowScanner) (*models.Author, error) {
	author := &models.Author{}
	var meta metadataScanner
	dest := append([]any{&author.ID, &author.Name}, meta.dest(&author.AuditMetadata)...)
	if err := row.Scan(dest...); err != nil {
		return nil, err
	}
	meta.apply(&author.AuditMetadata)
	return author, nil
}

// Create creates a new author
func (r *AuthorRepository) Create(ctx context.Context, author *models.Author) error {
	query := `
		INSERT INTO authors (` + authorColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	args := append([]any{author.ID, author.Name}, metadataArgs(&author.AuditMetadata)...)
	if _, err := GetExecutor(ctx, r.db).ExecContext(ctx, query, args...); err != nil {
		return wrapError(err, "failed to create author")
	}

	r.logger.Debug("author created", zap.String("id", author.ID.String()))
	return nil
}

// GetByID retrieves an author by ID
func (r *AuthorRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Author, error) {
	query := `SELECT ` + authorColumns + ` FROM authors WHERE id = $1`

	author, err := scanAuthor(GetExecutor(ctx, r.db).QueryRowContext(ctx, query, id))
	if err != nil {
		return nil, wrapError(err, fmt.Sprintf("failed to get author %s", id))
	}
	return author, nil
}

// List retrieves authors ordered by creation time
func (r *AuthorRepository) List(ctx context.Context, limit, offset int) ([]*models.Author, error) {
	limit, offset = limitOffset(limit, offset)
	query := `
		SELECT ` + authorColumns + `
		FROM authors
		ORDER BY created_at_utc, id
		LIMIT $1 OFFSET $2
	`

	rows, err := GetExecutor(ctx, r.db).QueryContext(ctx, query, limit, offset)
	if err != nil {
		return nil, wrapError(err, "failed to query authors")
	}
	defer rows.Close()

	var authors []*models.Author
	for rows.Next() {
		author, err := scanAuthor(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan author: %w", err)
		}
		authors = append(authors, author)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating author rows: %w", err)
	}

	return authors, nil
}

// Update updates an author. Creation provenance is never rewritten.
func (r *AuthorRepository) Update(ctx context.Context, author *models.Author) error {
	query := `
		UPDATE authors
		SET name = $2,
		    updated_at_utc = $3,
		    updated_by = $4
		WHERE id = $1
	`

	result, err := GetExecutor(ctx, r.db).ExecContext(ctx, query,
		author.ID,
		author.Name,
		author.UpdatedAtUTC,
		author.UpdatedBy,
	)
	if err != nil {
		return wrapError(err, "failed to update author")
	}
	return expectAffected(result, fmt.Sprintf("author %s", author.ID))
}

// Delete deletes an author
func (r *AuthorRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := GetExecutor(ctx, r.db).ExecContext(ctx, `DELETE FROM authors WHERE id = $1`, id)
	if err != nil {
		return wrapError(err, "failed to delete author")
	}
	return expectAffected(result, fmt.Sprintf("author %s", id))
}
