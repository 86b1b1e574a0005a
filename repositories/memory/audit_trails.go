package memory

import (
	"context"

	"github.com/google/uuid"

	"github.com/upb/library-api/models"
)

// AuditTrailRepository implements repositories.AuditTrailRepository
type AuditTrailRepository struct {
	store *Store
}

func cloneTrail(t models.AuditTrail) *models.AuditTrail {
	t.ActorID = clonePtr(t.ActorID)
	t.PrimaryKey = clonePtr(t.PrimaryKey)
	t.OldValue = clonePtr(t.OldValue)
	t.NewValue = clonePtr(t.NewValue)
	return &t
}

// InsertBatch appends trails. Trails naming an unknown actor are rejected,
// matching the foreign key of the relational schema.
func (r *AuditTrailRepository) InsertBatch(ctx context.Context, trails []*models.AuditTrail) error {
	batch := make([]models.AuditTrail, len(trails))
	for i, t := range trails {
		batch[i] = *cloneTrail(*t)
	}
	return r.store.write(ctx, func(s *state) error {
		seen := make(map[uuid.UUID]bool, len(s.trails)+len(batch))
		for _, t := range s.trails {
			seen[t.ID] = true
		}
		for _, t := range batch {
			if seen[t.ID] {
				return conflict("audit trail %s already exists", t.ID)
			}
			seen[t.ID] = true
		}
		for _, t := range batch {
			if t.ActorID != nil {
				if _, ok := s.users[*t.ActorID]; !ok {
					return conflict("actor %s does not exist", *t.ActorID)
				}
			}
		}
		s.trails = append(s.trails, batch...)
		return nil
	})
}

func (r *AuditTrailRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.AuditTrail, error) {
	var out *models.AuditTrail
	r.store.read(ctx, func(s *state) {
		for _, t := range s.trails {
			if t.ID == id {
				out = cloneTrail(t)
				return
			}
		}
	})
	if out == nil {
		return nil, notFound("audit trail", id)
	}
	return out, nil
}

// List returns matching trails newest first
func (r *AuditTrailRepository) List(ctx context.Context, filter models.AuditTrailFilter) ([]*models.AuditTrail, error) {
	var out []*models.AuditTrail
	r.store.read(ctx, func(s *state) {
		for i := len(s.trails) - 1; i >= 0; i-- {
			t := s.trails[i]
			if filter.EntityName != "" && t.EntityName != filter.EntityName {
				continue
			}
			if filter.PrimaryKey != "" && (t.PrimaryKey == nil || *t.PrimaryKey != filter.PrimaryKey) {
				continue
			}
			if filter.ActorID != nil && (t.ActorID == nil || *t.ActorID != *filter.ActorID) {
				continue
			}
			out = append(out, cloneTrail(t))
		}
	})
	return page(out, filter.Limit, filter.Offset), nil
}
