package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/upb/library-api/models"
	"github.com/upb/library-api/repositories"
)

const userColumns = "id, username, email, password_hash, role, " + metadataColumns

// UserRepository implements the repositories.UserRepository interface
type UserRepository struct {
	db     *DB
	logger *zap.Logger
}

// NewUserRepository creates a new user repository
func NewUserRepository(db *DB, logger *zap.Logger) repositories.UserRepository {
	return &UserRepository{
		db:     db,
		logger: logger,
	}
}

func scanUser(row rowScanner) (*models.User, error) {
	user := &models.User{}
	var meta metadataScanner
	dest := append([]any{&user.ID, &user.Username, &user.Email, &user.PasswordHash, &user.Role}, meta.dest(&user.AuditMetadata)...)
	if err := row.Scan(dest...); err != nil {
		return nil, err
	}
	meta.apply(&user.AuditMetadata)
	return user, nil
}

// Create creates a new user
func (r *UserRepository) Create(ctx context.Context, user *models.User) error {
	query := `
		INSERT INTO users (` + userColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	args := append([]any{user.ID, user.Username, user.Email, user.PasswordHash, user.Role}, metadataArgs(&user.AuditMetadata)...)
	if _, err := GetExecutor(ctx, r.db).ExecContext(ctx, query, args...); err != nil {
		return wrapError(err, "failed to create user")
	}

	r.logger.Debug("user created", zap.String("id", user.ID.String()), zap.String("username", user.Username))
	return nil
}

// GetByID retrieves a user by ID
func (r *UserRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`

	user, err := scanUser(GetExecutor(ctx, r.db).QueryRowContext(ctx, query, id))
	if err != nil {
		return nil, wrapError(err, fmt.Sprintf("failed to get user %s", id))
	}
	return user, nil
}

// GetByUsername retrieves a user by login name, ignoring case
func (r *UserRepository) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE LOWER(username) = LOWER($1)`

	user, err := scanUser(GetExecutor(ctx, r.db).QueryRowContext(ctx, query, username))
	if err != nil {
		return nil, wrapError(err, "failed to get user by username")
	}
	return user, nil
}

// List retrieves users ordered by creation time
func (r *UserRepository) List(ctx context.Context, limit, offset int) ([]*models.User, error) {
	limit, offset = limitOffset(limit, offset)
	query := `
		SELECT ` + userColumns + `
		FROM users
		ORDER BY created_at_utc, id
		LIMIT $1 OFFSET $2
	`

	rows, err := GetExecutor(ctx, r.db).QueryContext(ctx, query, limit, offset)
	if err != nil {
		return nil, wrapError(err, "failed to query users")
	}
	defer rows.Close()

	var users []*models.User
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		users = append(users, user)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating user rows: %w", err)
	}

	return users, nil
}

// Update updates a user
func (r *UserRepository) Update(ctx context.Context, user *models.User) error {
	query := `
		UPDATE users
		SET username = $2,
		    email = $3,
		    password_hash = $4,
		    role = $5,
		    updated_at_utc = $6,
		    updated_by = $7
		WHERE id = $1
	`

	result, err := GetExecutor(ctx, r.db).ExecContext(ctx, query,
		user.ID,
		user.Username,
		user.Email,
		user.PasswordHash,
		user.Role,
		user.UpdatedAtUTC,
		user.UpdatedBy,
	)
	if err != nil {
		return wrapError(err, "failed to update user")
	}
	return expectAffected(result, fmt.Sprintf("user %s", user.ID))
}

// Delete deletes a user. The audit_trails foreign key clears actor_id.
func (r *UserRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := GetExecutor(ctx, r.db).ExecContext(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return wrapError(err, "failed to delete user")
	}
	return expectAffected(result, fmt.Sprintf("user %s", id))
}
