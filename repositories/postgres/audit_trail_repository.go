package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/upb/library-api/models"
	"github.com/upb/library-api/repositories"
)

const (
	auditTrailColumns = "id, actor_id, trail_type, timestamp_utc, entity_name, primary_key, old_value, new_value, changed_field"
	auditTrailFields  = 9

	// Keeps every statement well below the 65535 bind parameter limit
	auditTrailBatchSize = 500
)

// AuditTrailRepository implements the repositories.AuditTrailRepository interface
type AuditTrailRepository struct {
	db     *DB
	logger *zap.Logger
}

// NewAuditTrailRepository creates a new audit trail repository
func NewAuditTrailRepository(db *DB, logger *zap.Logger) repositories.AuditTrailRepository {
	return &AuditTrailRepository{
		db:     db,
		logger: logger,
	}
}

func scanAuditTrail(row rowScanner) (*models.AuditTrail, error) {
	trail := &models.AuditTrail{}
	var (
		actor      uuid.NullUUID
		primaryKey sql.NullString
		oldValue   sql.NullString
		newValue   sql.NullString
	)
	err := row.Scan(
		&trail.ID,
		&actor,
		&trail.TrailType,
		&trail.TimestampUTC,
		&trail.EntityName,
		&primaryKey,
		&oldValue,
		&newValue,
		&trail.ChangedField,
	)
	if err != nil {
		return nil, err
	}

	trail.TimestampUTC = trail.TimestampUTC.UTC()
	if actor.Valid {
		id := actor.UUID
		trail.ActorID = &id
	}
	trail.PrimaryKey = nullableString(primaryKey)
	trail.OldValue = nullableString(oldValue)
	trail.NewValue = nullableString(newValue)
	return trail, nil
}

func nullableString(s sql.NullString) *string {
	if !s.Valid {
		return nil
	}
	v := s.String
	return &v
}

// InsertBatch inserts trails with multi-row statements using the transaction
// carried by ctx
func (r *AuditTrailRepository) InsertBatch(ctx context.Context, trails []*models.AuditTrail) error {
	executor := GetExecutor(ctx, r.db)

	for start := 0; start < len(trails); start += auditTrailBatchSize {
		end := min(start+auditTrailBatchSize, len(trails))
		query, args := buildAuditTrailInsert(trails[start:end])
		if _, err := executor.ExecContext(ctx, query, args...); err != nil {
			return wrapError(err, "failed to insert audit trails")
		}
	}

	r.logger.Debug("audit trails inserted", zap.Int("count", len(trails)))
	return nil
}

func buildAuditTrailInsert(trails []*models.AuditTrail) (string, []any) {
	var b strings.Builder
	b.WriteString("INSERT INTO audit_trails (" + auditTrailColumns + ") VALUES ")

	args := make([]any, 0, len(trails)*auditTrailFields)
	for i, t := range trails {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString("(")
		for j := 0; j < auditTrailFields; j++ {
			if j > 0 {
				b.WriteString(", ")
			}
			fmt.Fprintf(&b, "$%d", i*auditTrailFields+j+1)
		}
		b.WriteString(")")

		args = append(args,
			t.ID,
			t.ActorID,
			string(t.TrailType),
			t.TimestampUTC,
			t.EntityName,
			t.PrimaryKey,
			t.OldValue,
			t.NewValue,
			t.ChangedField,
		)
	}
	return b.String(), args
}

// GetByID retrieves an audit trail by ID
func (r *AuditTrailRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.AuditTrail, error) {
	query := `SELECT ` + auditTrailColumns + ` FROM audit_trails WHERE id = $1`

	trail, err := scanAuditTrail(GetExecutor(ctx, r.db).QueryRowContext(ctx, query, id))
	if err != nil {
		return nil, wrapError(err, fmt.Sprintf("failed to get audit trail %s", id))
	}
	return trail, nil
}

// List retrieves trails matching filter, newest first
func (r *AuditTrailRepository) List(ctx context.Context, filter models.AuditTrailFilter) ([]*models.AuditTrail, error) {
	var (
		conditions []string
		args       []any
	)
	if filter.EntityName != "" {
		args = append(args, filter.EntityName)
		conditions = append(conditions, fmt.Sprintf("entity_name = $%d", len(args)))
	}
	if filter.PrimaryKey != "" {
		args = append(args, filter.PrimaryKey)
		conditions = append(conditions, fmt.Sprintf("primary_key = $%d", len(args)))
	}
	if filter.ActorID != nil {
		args = append(args, *filter.ActorID)
		conditions = append(conditions, fmt.Sprintf("actor_id = $%d", len(args)))
	}

	query := `SELECT ` + auditTrailColumns + ` FROM audit_trails`
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}

	limit, offset := limitOffset(filter.Limit, filter.Offset)
	args = append(args, limit, offset)
	query += fmt.Sprintf(" ORDER BY timestamp_utc DESC, id LIMIT $%d OFFSET $%d", len(args)-1, len(args))

	rows, err := GetExecutor(ctx, r.db).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, wrapError(err, "failed to query audit trails")
	}
	defer rows.Close()

	var trails []*models.AuditTrail
	for rows.Next() {
		trail, err := scanAuditTrail(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan audit trail: %w", err)
		}
		trails = append(trails, trail)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating audit trail rows: %w", err)
	}

	return trails, nil
}
