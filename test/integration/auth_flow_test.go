//go:build integration

package integration

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"

	"go-catalog-api/internal/model"
)

func TestAuthFlow_RegisterLoginProfile(t *testing.T) {
	t.Parallel()
	env := newTestServer(t)

	resp, parsed := doJSON(t, http.MethodPost, env.server.URL+"/api/v1/auth/register",
		map[string]string{"fullname": "Alice Doe", "email": "alice@example.com", "password": "secret123"}, "")
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	require.True(t, parsed.Success)

	registered := decodeData[model.RegisterResponse](t, parsed.Data)
	require.NotZero(t, registered.UserID)

	pair := login(t, env, "alice@example.com", "secret123")
	require.NotEmpty(t, pair.AccessToken)
	require.NotEmpty(t, pair.RefreshToken)
	require.Equal(t, "Bearer", pair.TokenType)

	resp, parsed = doJSON(t, http.MethodGet, env.server.URL+"/api/v1/auth/profile", nil, pair.AccessToken)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	profile := decodeData[model.Profile](t, parsed.Data)
	require.Equal(t, registered.UserID, profile.ID)
	require.Equal(t, "Alice Doe", profile.Fullname)
	require.Equal(t, "alice@example.com", profile.Email)
	require.Equal(t, model.RoleUser, profile.Role)
}

func TestAuthFlow_RegisterMissingFields(t *testing.T) {
	t.Parallel()
	env := newTestServer(t)

	resp, parsed := doJSON(t, http.MethodPost, env.server.URL+"/api/v1/auth/register",
		map[string]string{"email": "alice@example.com"}, "")
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	require.False(t, parsed.Success)
	require.NotNil(t, parsed.Error)
	require.Contains(t, parsed.Error.Message, "Missing required fields")
}

func TestAuthFlow_LoginWrongPassword(t *testing.T) {
	t.Parallel()
	env := newTestServer(t)

	_, parsed := doJSON(t, http.MethodPost, env.server.URL+"/api/v1/auth/register",
		map[string]string{"fullname": "Alice Doe", "email": "alice@example.com", "password": "secret123"}, "")
	require.True(t, parsed.Success)

	resp, parsed := doJSON(t, http.MethodPost, env.server.URL+"/api/v1/auth/login",
		map[string]string{"email": "alice@example.com", "password": "wrong"}, "")
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	require.Equal(t, "Invalid credentials", parsed.Error.Message)
}

func TestAuthFlow_ProfileWithoutToken(t *testing.T) {
	t.Parallel()
	env := newTestServer(t)

	resp, parsed := doJSON(t, http.MethodGet, env.server.URL+"/api/v1/auth/profile", nil, "")
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	require.Equal(t, "No token provided", parsed.Error.Message)
}

func TestAuthFlow_RefreshRotation(t *testing.T) {
	t.Parallel()
	env := newTestServer(t)

	_, parsed := doJSON(t, http.MethodPost, env.server.URL+"/api/v1/auth/register",
		map[string]string{"fullname": "Alice Doe", "email": "alice@example.com", "password": "secret123"}, "")
	require.True(t, parsed.Success)
	pair := login(t, env, "alice@example.com", "secret123")

	resp, parsed := doJSON(t, http.MethodPost, env.server.URL+"/api/v1/auth/refresh-token",
		map[string]string{"refreshToken": pair.RefreshToken}, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	rotated := decodeData[model.TokenPair](t, parsed.Data)
	require.NotEmpty(t, rotated.AccessToken)
	require.NotEqual(t, pair.RefreshToken, rotated.RefreshToken)

	// The consumed token is single use.
	resp, parsed = doJSON(t, http.MethodPost, env.server.URL+"/api/v1/auth/refresh-token",
		map[string]string{"refreshToken": pair.RefreshToken}, "")
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	require.Equal(t, "Invalid or expired refresh token", parsed.Error.Message)

	// The successor keeps working.
	resp, _ = doJSON(t, http.MethodPost, env.server.URL+"/api/v1/auth/refresh-token",
		map[string]string{"refreshToken": rotated.RefreshToken}, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestAuthFlow_RefreshRejectsAccessToken(t *testing.T) {
	t.Parallel()
	env := newTestServer(t)

	_, parsed := doJSON(t, http.MethodPost, env.server.URL+"/api/v1/auth/register",
		map[string]string{"fullname": "Alice Doe", "email": "alice@example.com", "password": "secret123"}, "")
	require.True(t, parsed.Success)
	pair := login(t, env, "alice@example.com", "secret123")

	resp, parsed := doJSON(t, http.MethodPost, env.server.URL+"/api/v1/auth/refresh-token",
		map[string]string{"refreshToken": pair.AccessToken}, "")
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	require.Equal(t, "Invalid or expired refresh token", parsed.Error.Message)
}

func TestAuthFlow_LogoutInvalidatesRefreshToken(t *testing.T) {
	t.Parallel()
	env := newTestServer(t)

	_, parsed := doJSON(t, http.MethodPost, env.server.URL+"/api/v1/auth/register",
		map[string]string{"fullname": "Alice Doe", "email": "alice@example.com", "password": "secret123"}, "")
	require.True(t, parsed.Success)
	pair := login(t, env, "alice@example.com", "secret123")

	resp, parsed := doJSON(t, http.MethodPost, env.server.URL+"/api/v1/auth/logout",
		map[string]string{"refreshToken": pair.RefreshToken}, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, "Logout successful", parsed.Message)

	resp, parsed = doJSON(t, http.MethodPost, env.server.URL+"/api/v1/auth/refresh-token",
		map[string]string{"refreshToken": pair.RefreshToken}, "")
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	require.Equal(t, "Invalid or expired refresh token", parsed.Error.Message)
}
