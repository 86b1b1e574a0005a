package memory

import (
	"context"
	"sort"
	"strings"

	"github.com/google/uuid"

	"github.com/upb/library-api/models"
)

// UserRepository implements repositories.UserRepository
type UserRepository struct {
	store *Store
}

func cloneUser(u models.User) *models.User {
	u.AuditMetadata = cloneMetadata(u.AuditMetadata)
	return &u
}

func checkUser(s *state, u models.User) error {
	for id, other := range s.users {
		if id == u.ID {
			continue
		}
		if strings.EqualFold(other.Username, u.Username) {
			return conflict("username %s already exists", u.Username)
		}
		if strings.EqualFold(other.Email, u.Email) {
			return conflict("email %s already exists", u.Email)
		}
	}
	return nil
}

func (r *UserRepository) Create(ctx context.Context, user *models.User) error {
	u := *cloneUser(*user)
	return r.store.write(ctx, func(s *state) error {
		if _, exists := s.users[u.ID]; exists {
			return conflict("user %s already exists", u.ID)
		}
		if err := checkUser(s, u); err != nil {
			return err
		}
		s.users[u.ID] = u
		return nil
	})
}

func (r *UserRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	return r.find(ctx, "user", id, func(u models.User) bool { return u.ID == id })
}

func (r *UserRepository) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	return r.find(ctx, "user", username, func(u models.User) bool { return strings.EqualFold(u.Username, username) })
}

func (r *UserRepository) find(ctx context.Context, entity string, key any, match func(models.User) bool) (*models.User, error) {
	var out *models.User
	r.store.read(ctx, func(s *state) {
		for _, u := range s.users {
			if match(u) {
				out = cloneUser(u)
				return
			}
		}
	})
	if out == nil {
		return nil, notFound(entity, key)
	}
	return out, nil
}

func (r *UserRepository) List(ctx context.Context, limit, offset int) ([]*models.User, error) {
	var all []*models.User
	r.store.read(ctx, func(s *state) {
		for _, u := range s.users {
			all = append(all, cloneUser(u))
		}
	})
	sort.Slice(all, func(i, j int) bool {
		return createdBefore(all[i].AuditMetadata, all[j].AuditMetadata, all[i].ID, all[j].ID)
	})
	return page(all, limit, offset), nil
}

func (r *UserRepository) Update(ctx context.Context, user *models.User) error {
	u := *cloneUser(*user)
	return r.store.write(ctx, func(s *state) error {
		if _, exists := s.users[u.ID]; !exists {
			return notFound("user", u.ID)
		}
		if err := checkUser(s, u); err != nil {
			return err
		}
		s.users[u.ID] = u
		return nil
	})
}

// Delete removes the user and clears it as actor on existing audit trails
func (r *UserRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.store.write(ctx, func(s *state) error {
		if _, exists := s.users[id]; !exists {
			return notFound("user", id)
		}
		delete(s.users, id)
		for i := range s.trails {
			if s.trails[i].ActorID != nil && *s.trails[i].ActorID == id {
				s.trails[i].ActorID = nil
			}
		}
		return nil
	})
}
