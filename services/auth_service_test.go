package services

import (
	"context"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/upb/library-api/models"
)

const loginMetric = "library_api_auth_login_attempts_total"

func TestAuthService_Login(t *testing.T) {
	env := newTestEnv(t)
	user := env.createUser(t, "librarian", models.RoleAdmin)

	result, err := env.auth.Login(context.Background(), " librarian ", "correct horse battery")

	require.NoError(t, err)
	assert.Equal(t, "Bearer", result.TokenType)
	assert.Equal(t, testNow.Add(testAuthConfig.TokenTTL), result.ExpiresAt)
	assert.Equal(t, user.ID, result.User.ID)

	claims, err := env.tokens.ValidateToken(result.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, user.ID.String(), claims.Subject)
	assert.Equal(t, "admin", claims.Role)

	count, err := testutil.GatherAndCount(env.metrics.Registry(), loginMetric)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestAuthService_Login_Failures(t *testing.T) {
	env := newTestEnv(t)
	env.createUser(t, "librarian", models.RoleMember)

	tests := []struct {
		name     string
		username string
		password string
	}{
		{"wrong password", "librarian", "incorrect horse battery"},
		{"unknown user", "stranger", "correct horse battery"},
		{"empty username", "", "correct horse battery"},
		{"empty password", "librarian", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := env.auth.Login(context.Background(), tt.username, tt.password)

			assert.Nil(t, result)
			assert.ErrorIs(t, err, ErrInvalidCredentials)
			assert.True(t, IsUnauthorizedError(err))
			assert.Equal(t, "unauthorized: invalid username or password", err.Error())
		})
	}
}
