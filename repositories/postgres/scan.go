package postgres

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"github.com/upb/library-api/models"
	"github.com/upb/library-api/repositories"
)

// PostgreSQL error codes mapped to repositories.ErrConflict
const (
	codeUniqueViolation     = "23505"
	codeForeignKeyViolation = "23503"
)

const metadataColumns = "created_at_utc, updated_at_utc, created_by, updated_by"

// rowScanner is satisfied by *sql.Row and *sql.Rows
type rowScanner interface {
	Scan(dest ...any) error
}

// metadataScanner reads the nullable provenance columns
type metadataScanner struct {
	updatedAt sql.NullTime
	updatedBy sql.NullString
}

func (s *metadataScanner) dest(m *models.AuditMetadata) []any {
	return []any{&m.CreatedAtUTC, &s.updatedAt, &m.CreatedBy, &s.updatedBy}
}

func (s *metadataScanner) apply(m *models.AuditMetadata) {
	m.CreatedAtUTC = m.CreatedAtUTC.UTC()
	if s.updatedAt.Valid {
		at := s.updatedAt.Time.UTC()
		m.UpdatedAtUTC = &at
	}
	if s.updatedBy.Valid {
		by := s.updatedBy.String
		m.UpdatedBy = &by
	}
}

func metadataArgs(m *models.AuditMetadata) []any {
	return []any{m.CreatedAtUTC, m.UpdatedAtUTC, m.CreatedBy, m.UpdatedBy}
}

// wrapError maps driver errors onto the repository sentinels
func wrapError(err error, action string) error {
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%s: %w", action, repositories.ErrNotFound)
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch pqErr.Code {
		case codeUniqueViolation, codeForeignKeyViolation:
			return fmt.Errorf("%s: %w: %w", action, repositories.ErrConflict, err)
		}
	}
	return fmt.Errorf("%s: %w", action, err)
}

// expectAffected turns a zero-row update or delete into ErrNotFound
func expectAffected(result sql.Result, action string) error {
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: %w", action, err)
	}
	if n == 0 {
		return fmt.Errorf("%s: %w", action, repositories.ErrNotFound)
	}
	return nil
}

func limitOffset(limit, offset int) (int, int) {
	if limit <= 0 {
		limit = 100
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}
