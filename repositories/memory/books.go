package memory

import (
	"context"
	"sort"

	"github.com/google/uuid"

	"github.com/upb/library-api/models"
)

// BookRepository implements repositories.BookRepository
type BookRepository struct {
	store *Store
}

func cloneBook(b models.Book) *models.Book {
	b.PublishedYear = clonePtr(b.PublishedYear)
	b.AuditMetadata = cloneMetadata(b.AuditMetadata)
	return &b
}

func checkBook(s *state, b models.Book) error {
	if _, ok := s.authors[b.AuthorID]; !ok {
		return conflict("author %s does not exist", b.AuthorID)
	}
	for id, other := range s.books {
		if id != b.ID && other.ISBN == b.ISBN {
			return conflict("isbn %s already exists", b.ISBN)
		}
	}
	return nil
}

func (r *BookRepository) Create(ctx context.Context, book *models.Book) error {
	b := *cloneBook(*book)
	return r.store.write(ctx, func(s *state) error {
		if _, exists := s.books[b.ID]; exists {
			return conflict("book %s already exists", b.ID)
		}
		if err := checkBook(s, b); err != nil {
			return err
		}
		s.books[b.ID] = b
		return nil
	})
}

func (r *BookRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Book, error) {
	var (
		out *models.Book
		ok  bool
	)
	r.store.read(ctx, func(s *state) {
		var b models.Book
		if b, ok = s.books[id]; ok {
			out = cloneBook(b)
		}
	})
	if !ok {
		return nil, notFound("book", id)
	}
	return out, nil
}

func (r *BookRepository) GetByISBN(ctx context.Context, isbn string) (*models.Book, error) {
	var out *models.Book
	r.store.read(ctx, func(s *state) {
		for _, b := range s.books {
			if b.ISBN == isbn {
				out = cloneBook(b)
				return
			}
		}
	})
	if out == nil {
		return nil, notFound("book", isbn)
	}
	return out, nil
}

func (r *BookRepository) List(ctx context.Context, limit, offset int) ([]*models.Book, error) {
	return r.list(ctx, func(models.Book) bool { return true }, limit, offset), nil
}

func (r *BookRepository) ListByAuthor(ctx context.Context, authorID uuid.UUID) ([]*models.Book, error) {
	return r.list(ctx, func(b models.Book) bool { return b.AuthorID == authorID }, 0, 0), nil
}

func (r *BookRepository) list(ctx context.Context, keep func(models.Book) bool, limit, offset int) []*models.Book {
	var all []*models.Book
	r.store.read(ctx, func(s *state) {
		for _, b := range s.books {
			if keep(b) {
				all = append(all, cloneBook(b))
			}
		}
	})
	sort.Slice(all, func(i, j int) bool {
		return createdBefore(all[i].AuditMetadata, all[j].AuditMetadata, all[i].ID, all[j].ID)
	})
	return page(all, limit, offset)
}

func (r *BookRepository) Update(ctx context.Context, book *models.Book) error {
	b := *cloneBook(*book)
	return r.store.write(ctx, func(s *state) error {
		if _, exists := s.books[b.ID]; !exists {
			return notFound("book", b.ID)
		}
		if err := checkBook(s, b); err != nil {
			return err
		}
		s.books[b.ID] = b
		return nil
	})
}

func (r *BookRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.store.write(ctx, func(s *state) error {
		if _, exists := s.books[id]; !exists {
			return notFound("book", id)
		}
		delete(s.books, id)
		return nil
	})
}
