package memory

import (
	"context"
	"sort"

	"github.com/google/uuid"

	"github.com/upb/library-api/models"
)

// AuthorRepository implements repositories.AuthorRepository
type AuthorRepository struct {
	store *Store
}

func cloneAuthor(a models.Author) *models.Author {
	a.AuditMetadata = cloneMetadata(a.AuditMetadata)
	return &a
}

func (r *AuthorRepository) Create(ctx context.Context, author *models.Author) error {
	a := *cloneAuthor(*author)
	return r.store.write(ctx, func(s *state) error {
		if _, exists := s.authors[a.ID]; exists {
			return conflict("author %s already exists", a.ID)
		}
		s.authors[a.ID] = a
		return nil
	})
}

func (r *AuthorRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Author, error) {
	var (
		out *models.Author
		ok  bool
	)
	r.store.read(ctx, func(s *state) {
		var a models.Author
		if a, ok = s.authors[id]; ok {
			out = cloneAuthor(a)
		}
	})
	if !ok {
		return nil, notFound("author", id)
	}
	return out, nil
}

func (r *AuthorRepository) List(ctx context.Context, limit, offset int) ([]*models.Author, error) {
	var all []*models.Author
	r.store.read(ctx, func(s *state) {
		for _, a := range s.authors {
			all = append(all, cloneAuthor(a))
		}
	})
	sort.Slice(all, func(i, j int) bool {
		return createdBefore(all[i].AuditMetadata, all[j].AuditMetadata, all[i].ID, all[j].ID)
	})
	return page(all, limit, offset), nil
}

func (r *AuthorRepository) Update(ctx context.Context, author *models.Author) error {
	a := *cloneAuthor(*author)
	return r.store.write(ctx, func(s *state) error {
		if _, exists := s.authors[a.ID]; !exists {
			return notFound("author", a.ID)
		}
		s.authors[a.ID] = a
		return nil
	})
}

// Delete refuses to remove an author that still has books
func (r *AuthorRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.store.write(ctx, func(s *state) error {
		if _, exists := s.authors[id]; !exists {
			return notFound("author", id)
		}
		for _, b := range s.books {
			if b.AuthorID == id {
				return conflict("author %s still has books", id)
			}
		}
		delete(s.authors, id)
		return nil
	})
}

func createdBefore(a, b models.AuditMetadata, aID, bID uuid.UUID) bool {
	if !a.CreatedAtUTC.Equal(b.CreatedAtUTC) {
		return a.CreatedAtUTC.Before(b.CreatedAtUTC)
	}
	return aID.String() < bID.String()
}
