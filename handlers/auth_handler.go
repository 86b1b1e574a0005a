package handlers

import (
	"context"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/upb/library-api/middleware"
	"github.com/upb/library-api/services"
	"github.com/upb/library-api/utils"
)

// SessionCookieName is the cookie carrying the access token for browser clients.
// RequireAuth accepts it when no Authorization header is sent.
const SessionCookieName = "auth_token"

// Authenticator checks credentials and issues access tokens
type Authenticator interface {
	Login(ctx context.Context, username, password string) (*services.LoginResult, error)
}

// AuthHandler handles login, registration and logout
type AuthHandler struct {
	auth          Authenticator
	users         UserService
	secureCookies bool
	logger        *zap.Logger
}

// NewAuthHandler creates a new AuthHandler. secureCookies marks the session
// cookie Secure and should be set when served over TLS.
func NewAuthHandler(auth Authenticator, users UserService, secureCookies bool, logger *zap.Logger) *AuthHandler {
	return &AuthHandler{
		auth:          auth,
		users:         users,
		secureCookies: secureCookies,
		logger:        logger,
	}
}

// HandleLogin handles POST /api/v1/auth/login
func (h *AuthHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if !decodeRequest(w, r, &req, h.logger) {
		return
	}

	result, err := h.auth.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}

	maxAge := int(time.Until(result.ExpiresAt).Seconds())
	if maxAge < 0 {
		maxAge = 0
	}
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    result.AccessToken,
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   h.secureCookies,
		SameSite: http.SameSiteStrictMode,
	})

	_ = utils.WriteOK(w, LoginResponse{
		AccessToken: result.AccessToken,
		TokenType:   result.TokenType,
		ExpiresAt:   result.ExpiresAt,
		User:        userToResponse(result.User),
	})
}

// HandleRegister handles POST /api/v1/auth/register. New accounts are members.
func (h *AuthHandler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if !decodeRequest(w, r, &req, h.logger) {
		return
	}

	user, err := h.users.Register(r.Context(), req.Username, req.Email, req.Password)
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}

	h.logger.Info("user registered",
		zap.String("request_id", middleware.GetRequestIDFromContext(r.Context())),
		zap.String("user_id", user.ID.String()))
	_ = utils.WriteCreated(w, userToResponse(user))
}

// HandleLogout clears the session cookie
func (h *AuthHandler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.secureCookies,
		SameSite: http.SameSiteStrictMode,
	})
	utils.WriteNoContent(w)
}
