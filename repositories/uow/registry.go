package uow

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/upb/library-api/models"
	"github.com/upb/library-api/repositories"
)

// Writer persists one entity type. The store repositories satisfy it.
type Writer[T models.Auditable] interface {
	Create(ctx context.Context, entity T) error
	Update(ctx context.Context, entity T) error
	Delete(ctx context.Context, id uuid.UUID) error
}

type entityWriter struct {
	insert func(ctx context.Context, entity models.Auditable) error
	update func(ctx context.Context, entity models.Auditable) error
	remove func(ctx context.Context, entity models.Auditable) error
}

// Registry maps entity names to their writers
type Registry struct {
	writers map[string]entityWriter
}

// NewRegistry creates an empty registry
func NewRegistry() *Registry {
	return &Registry{writers: make(map[string]entityWriter)}
}

// Register binds the writer for entities named name. id extracts the primary
// key used for deletes.
func Register[T models.Auditable](r *Registry, name string, w Writer[T], id func(T) uuid.UUID) {
	cast := func(entity models.Auditable) (T, error) {
		typed, ok := entity.(T)
		if !ok {
			var zero T
			return zero, fmt.Errorf("entity %s has unexpected type %T", name, entity)
		}
		return typed, nil
	}

	r.writers[name] = entityWriter{
		insert: func(ctx context.Context, entity models.Auditable) error {
			typed, err := cast(entity)
			if err != nil {
				return err
			}
			return w.Create(ctx, typed)
		},
		update: func(ctx context.Context, entity models.Auditable) error {
			typed, err := cast(entity)
			if err != nil {
				return err
			}
			return w.Update(ctx, typed)
		},
		remove: func(ctx context.Context, entity models.Auditable) error {
			typed, err := cast(entity)
			if err != nil {
				return err
			}
			return w.Delete(ctx, id(typed))
		},
	}
}

// NewEntityRegistry registers the writers for every auditable entity
func NewEntityRegistry(repos *repositories.Repositories) *Registry {
	r := NewRegistry()
	Register[*models.Author](r, models.EntityAuthor, repos.Authors, func(a *models.Author) uuid.UUID { return a.ID })
	Register[*models.Book](r, models.EntityBook, repos.Books, func(b *models.Book) uuid.UUID { return b.ID })
	Register[*models.User](r, models.EntityUser, repos.Users, func(u *models.User) uuid.UUID { return u.ID })
	return r
}

func (r *Registry) lookup(name string) (entityWriter, error) {
	w, ok := r.writers[name]
	if !ok {
		return entityWriter{}, fmt.Errorf("no writer registered for entity %s", name)
	}
	return w, nil
}
