package handlers

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/upb/library-api/models"
	"github.com/upb/library-api/services"
)

func sessionCookie(w *httptest.ResponseRecorder) *http.Cookie {
	for _, c := range w.Result().Cookies() {
		if c.Name == SessionCookieName {
			return c
		}
	}
	return nil
}

func TestAuthHandler_HandleLogin(t *testing.T) {
	logger := zap.NewNop()

	t.Run("issues token and session cookie", func(t *testing.T) {
		authn := new(MockAuthenticator)
		handler := NewAuthHandler(authn, new(MockUserService), true, logger)
		user := models.NewUser("librarian", "librarian@example.com", "hash", models.RoleAdmin)
		authn.On("Login", mock.Anything, "librarian", "correct horse battery").Return(&services.LoginResult{
			AccessToken: "signed.jwt.token",
			TokenType:   "Bearer",
			ExpiresAt:   time.Now().Add(time.Hour),
			User:        user,
		}, nil)

		w := httptest.NewRecorder()
		handler.HandleLogin(w, newJSONRequest(t, http.MethodPost, "/api/v1/auth/login", LoginRequest{
			Username: "librarian",
			Password: "correct horse battery",
		}))

		assert.Equal(t, http.StatusOK, w.Code)
		var resp LoginResponse
		decodeData(t, w, &resp)
		assert.Equal(t, "signed.jwt.token", resp.AccessToken)
		assert.Equal(t, "Bearer", resp.TokenType)
		assert.Equal(t, user.ID, resp.User.ID)

		cookie := sessionCookie(w)
		require.NotNil(t, cookie)
		assert.Equal(t, "signed.jwt.token", cookie.Value)
		assert.True(t, cookie.HttpOnly)
		assert.True(t, cookie.Secure)
		assert.Greater(t, cookie.MaxAge, 0)
	})

	t.Run("invalid credentials", func(t *testing.T) {
		authn := new(MockAuthenticator)
		handler := NewAuthHandler(authn, new(MockUserService), false, logger)
		authn.On("Login", mock.Anything, "librarian", "wrong").Return(nil, services.ErrInvalidCredentials.Wrap(nil))

		w := httptest.NewRecorder()
		handler.HandleLogin(w, newJSONRequest(t, http.MethodPost, "/api/v1/auth/login", LoginRequest{
			Username: "librarian",
			Password: "wrong",
		}))

		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Contains(t, w.Body.String(), "invalid username or password")
		assert.Nil(t, sessionCookie(w))
	})

	t.Run("missing password", func(t *testing.T) {
		authn := new(MockAuthenticator)
		handler := NewAuthHandler(authn, new(MockUserService), false, logger)

		w := httptest.NewRecorder()
		handler.HandleLogin(w, newJSONRequest(t, http.MethodPost, "/api/v1/auth/login", `{"username":"librarian"}`))

		assert.Equal(t, http.StatusBadRequest, w.Code)
		authn.AssertNotCalled(t, "Login", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("empty body", func(t *testing.T) {
		authn := new(MockAuthenticator)
		handler := NewAuthHandler(authn, new(MockUserService), false, logger)

		w := httptest.NewRecorder()
		handler.HandleLogin(w, newJSONRequest(t, http.MethodPost, "/api/v1/auth/login", nil))

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, w.Body.String(), "request body is empty")
	})
}

func TestAuthHandler_HandleRegister(t *testing.T) {
	users := new(MockUserService)
	handler := NewAuthHandler(new(MockAuthenticator), users, false, zap.NewNop())
	user := models.NewUser("newcomer", "newcomer@example.com", "hash", models.RoleMember)
	users.On("Register", mock.Anything, "newcomer", "newcomer@example.com", "a fine password").Return(user, nil)

	w := httptest.NewRecorder()
	handler.HandleRegister(w, newJSONRequest(t, http.MethodPost, "/api/v1/auth/register", RegisterRequest{
		Username: "newcomer",
		Email:    "newcomer@example.com",
		Password: "a fine password",
	}))

	assert.Equal(t, http.StatusCreated, w.Code)
	var resp UserResponse
	decodeData(t, w, &resp)
	assert.Equal(t, "member", resp.Role)
	users.AssertExpectations(t)
}

func TestAuthHandler_HandleLogout(t *testing.T) {
	handler := NewAuthHandler(new(MockAuthenticator), new(MockUserService), false, zap.NewNop())

	w := httptest.NewRecorder()
	handler.HandleLogout(w, httptest.NewRequest(http.MethodPost, "/api/v1/auth/logout", nil))

	assert.Equal(t, http.StatusNoContent, w.Code)
	cookie := sessionCookie(w)
	require.NotNil(t, cookie)
	assert.Empty(t, cookie.Value)
	assert.Less(t, cookie.MaxAge, 0)
}
