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

// AuthorService defines the author operations used by AuthorHandler
type AuthorService interface {
	Create(ctx context.Context, in services.AuthorInput) (*models.Author, error)
	Get(ctx context.Context, id uuid.UUID) (*models.Author, error)
	List(ctx context.Context, limit, offset int) ([]*models.Author, error)
	ListBooks(ctx context.Context, id uuid.UUID) ([]*models.Book, error)
	Update(ctx context.Context, id uuid.UUID, in services.AuthorInput) (*models.Author, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

// AuthorHandler handles author-related HTTP requests
type AuthorHandler struct {
	authors AuthorService
	logger  *zap.Logger
}

// NewAuthorHandler creates a new AuthorHandler
func NewAuthorHandler(authors AuthorService, logger *zap.Logger) *AuthorHandler {
	return &AuthorHandler{
		authors: authors,
		logger:  logger,
	}
}

// HandleList handles GET /api/v1/authors
func (h *AuthorHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	page, ok := pageParams(w, r)
	if !ok {
		return
	}

	authors, err := h.authors.List(r.Context(), page.Limit, page.Offset)
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}
	_ = utils.WriteList(w, authorsToResponse(authors), page)
}

// HandleGet handles GET /api/v1/authors/{id}
func (h *AuthorHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	author, err := h.authors.Get(r.Context(), id)
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}
	_ = utils.WriteOK(w, authorToResponse(author))
}

// HandleListBooks handles GET /api/v1/authors/{id}/books
func (h *AuthorHandler) HandleListBooks(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	books, err := h.authors.ListBooks(r.Context(), id)
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}
	_ = utils.WriteOK(w, booksToResponse(books))
}

// HandleCreate handles POST /api/v1/authors
func (h *AuthorHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var req AuthorRequest
	if !decodeRequest(w, r, &req, h.logger) {
		return
	}

	author, err := h.authors.Create(r.Context(), services.AuthorInput{Name: req.Name})
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}

	h.logger.Info("author created",
		zap.String("request_id", middleware.GetRequestIDFromContext(r.Context())),
		zap.String("author_id", author.ID.String()))
	_ = utils.WriteCreated(w, authorToResponse(author))
}

// HandleUpdate handles PUT /api/v1/authors/{id}
func (h *AuthorHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var req AuthorRequest
	if !decodeRequest(w, r, &req, h.logger) {
		return
	}

	author, err := h.authors.Update(r.Context(), id, services.AuthorInput{Name: req.Name})
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}
	_ = utils.WriteOK(w, authorToResponse(author))
}

// HandleDelete handles DELETE /api/v1/authors/{id}. Books of the author are
// deleted with it.
func (h *AuthorHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	if err := h.authors.Delete(r.Context(), id); err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}
	utils.WriteNoContent(w)
}
