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

// UserService defines the account operations used by UserHandler and AuthHandler
type UserService interface {
	Create(ctx context.Context, in services.CreateUserInput) (*models.User, error)
	Register(ctx context.Context, username, email, password string) (*models.User, error)
	Get(ctx context.Context, id uuid.UUID) (*models.User, error)
	List(ctx context.Context, limit, offset int) ([]*models.User, error)
	Update(ctx context.Context, id uuid.UUID, in services.UpdateUserInput) (*models.User, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

// UserHandler handles user management requests
type UserHandler struct {
	users  UserService
	logger *zap.Logger
}

// NewUserHandler creates a new UserHandler
func NewUserHandler(users UserService, logger *zap.Logger) *UserHandler {
	return &UserHandler{
		users:  users,
		logger: logger,
	}
}

// HandleMe handles GET /api/v1/users/me
func (h *UserHandler) HandleMe(w http.ResponseWriter, r *http.Request) {
	id, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		_ = utils.WriteUnauthorized(w, "Authentication required")
		return
	}

	user, err := h.users.Get(r.Context(), id)
	if err != nil {
		// A valid token for a deleted account
		if services.IsNotFoundError(err) {
			_ = utils.WriteUnauthorized(w, "Account no longer exists")
			return
		}
		HandleServiceError(w, err, h.logger)
		return
	}
	_ = utils.WriteOK(w, userToResponse(user))
}

// HandleList handles GET /api/v1/users
func (h *UserHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	page, ok := pageParams(w, r)
	if !ok {
		return
	}

	users, err := h.users.List(r.Context(), page.Limit, page.Offset)
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}

	responses := make([]UserResponse, len(users))
	for i, u := range users {
		responses[i] = userToResponse(u)
	}
	_ = utils.WriteList(w, responses, page)
}

// HandleGet handles GET /api/v1/users/{id}
func (h *UserHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	user, err := h.users.Get(r.Context(), id)
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}
	_ = utils.WriteOK(w, userToResponse(user))
}

// HandleCreate handles POST /api/v1/users
func (h *UserHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var req CreateUserRequest
	if !decodeRequest(w, r, &req, h.logger) {
		return
	}

	user, err := h.users.Create(r.Context(), services.CreateUserInput{
		Username: req.Username,
		Email:    req.Email,
		Password: req.Password,
		Role:     models.UserRole(req.Role),
	})
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}
	_ = utils.WriteCreated(w, userToResponse(user))
}

// HandleUpdate handles PUT /api/v1/users/{id}
func (h *UserHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var req UpdateUserRequest
	if !decodeRequest(w, r, &req, h.logger) {
		return
	}

	in := services.UpdateUserInput{
		Email:    req.Email,
		Password: req.Password,
	}
	if req.Role != nil {
		role := models.UserRole(*req.Role)
		in.Role = &role
	}

	user, err := h.users.Update(r.Context(), id, in)
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}
	_ = utils.WriteOK(w, userToResponse(user))
}

// HandleDelete handles DELETE /api/v1/users/{id}
func (h *UserHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	if err := h.users.Delete(r.Context(), id); err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}

	h.logger.Info("user deleted",
		zap.String("request_id", middleware.GetRequestIDFromContext(r.Context())),
		zap.String("user_id", id.String()))
	utils.WriteNoContent(w)
}
