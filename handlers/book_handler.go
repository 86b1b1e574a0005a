package handlers

import (
	"context"
	"net/http"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/upb/library-api/middleware"
	"github.com/upb/library-api/models"
	"github.com/upb/library-api/services"
	"github.com/upb/library-api/utils"
)

// BookService defines the book operations used by BookHandler
type BookService interface {
	Create(ctx context.Context, in services.BookInput) (*models.Book, error)
	Get(ctx context.Context, id uuid.UUID) (*models.Book, error)
	List(ctx context.Context, limit, offset int) ([]*models.Book, error)
	Update(ctx context.Context, id uuid.UUID, in services.BookInput) (*models.Book, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

// BookHandler handles book-related HTTP requests
type BookHandler struct {
	books  BookService
	logger *zap.Logger
}

// NewBookHandler creates a new BookHandler
func NewBookHandler(books BookService, logger *zap.Logger) *BookHandler {
	return &BookHandler{
		books:  books,
		logger: logger,
	}
}

// HandleList handles GET /api/v1/books
func (h *BookHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	page, ok := pageParams(w, r)
	if !ok {
		return
	}

	books, err := h.books.List(r.Context(), page.Limit, page.Offset)
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}
	_ = utils.WriteList(w, booksToResponse(books), page)
}

// HandleGet handles GET /api/v1/books/{id}
func (h *BookHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	book, err := h.books.Get(r.Context(), id)
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}
	_ = utils.WriteOK(w, bookToResponse(book))
}

// HandleCreate handles POST /api/v1/books
func (h *BookHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	in, ok := h.bookInput(w, r)
	if !ok {
		return
	}

	book, err := h.books.Create(r.Context(), in)
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}

	h.logger.Info("book created",
		zap.String("request_id", middleware.GetRequestIDFromContext(r.Context())),
		zap.String("book_id", book.ID.String()),
		zap.String("author_id", book.AuthorID.String()))
	_ = utils.WriteCreated(w, bookToResponse(book))
}

// HandleUpdate handles PUT /api/v1/books/{id}
func (h *BookHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	in, ok := h.bookInput(w, r)
	if !ok {
		return
	}

	book, err := h.books.Update(r.Context(), id, in)
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}
	_ = utils.WriteOK(w, bookToResponse(book))
}

// HandleDelete handles DELETE /api/v1/books/{id}
func (h *BookHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	if err := h.books.Delete(r.Context(), id); err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}
	utils.WriteNoContent(w)
}

func (h *BookHandler) bookInput(w http.ResponseWriter, r *http.Request) (services.BookInput, bool) {
	var req BookRequest
	if !decodeRequest(w, r, &req, h.logger) {
		return services.BookInput{}, false
	}
	// Already checked by the uuid tag
	authorID, err := uuid.Parse(req.AuthorID)
	if err != nil {
		_ = utils.WriteBadRequest(w, err.Error(), nil)
		return services.BookInput{}, false
	}
	return services.BookInput{
		Title:         req.Title,
		ISBN:          req.ISBN,
		PublishedYear: req.PublishedYear,
		AuthorID:      authorID,
	}, true
}
