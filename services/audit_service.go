package services

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/upb/library-api/models"
	"github.com/upb/library-api/repositories"
)

var auditableEntities = []string{models.EntityAuthor, models.EntityBook, models.EntityUser}

// AuditService exposes the persisted audit history. Trails are written only
// by the unit of work.
type AuditService struct {
	trails repositories.AuditTrailRepository
	logger *zap.Logger
}

// NewAuditService creates a new AuditService instance
func NewAuditService(trails repositories.AuditTrailRepository, logger *zap.Logger) *AuditService {
	return &AuditService{
		trails: trails,
		logger: logger,
	}
}

// List returns trails matching filter, newest first
func (s *AuditService) List(ctx context.Context, filter models.AuditTrailFilter) ([]*models.AuditTrail, error) {
	if filter.EntityName != "" {
		name, ok := canonicalEntityName(filter.EntityName)
		if !ok {
			return nil, ErrInvalidInput.Wrap(nil).
				WithDetail("entity", "entity must be one of: "+strings.Join(auditableEntities, ", "))
		}
		filter.EntityName = name
	}

	trails, err := s.trails.List(ctx, filter)
	if err != nil {
		return nil, fromRepository(err, nil, nil)
	}
	return trails, nil
}

// Get returns one trail
func (s *AuditService) Get(ctx context.Context, id uuid.UUID) (*models.AuditTrail, error) {
	trail, err := s.trails.GetByID(ctx, id)
	if err != nil {
		return nil, fromRepository(err, ErrAuditTrailNotFound, nil)
	}
	return trail, nil
}

// canonicalEntityName matches entity names case-insensitively
func canonicalEntityName(name string) (string, bool) {
	for _, e := range auditableEntities {
		if strings.EqualFold(e, name) {
			return e, true
		}
	}
	return "", false
}
