package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"go-catalog-api/internal/model"
	"go-catalog-api/pkg/apierror"
)

type memUserStore struct {
	mu   sync.Mutex
	seq  int64
	rows map[int64]model.User
}

func newMemUserStore() *memUserStore {
	return &memUserStore{rows: map[int64]model.User{}}
}

func (s *memUserStore) FindByEmail(_ context.Context, email string) (model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, u := range s.rows {
		if u.Email == email {
			return u, nil
		}
	}
	return model.User{}, model.ErrUserNotFound
}

func (s *memUserStore) FindByID(_ context.Context, id int64) (model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.rows[id]
	if !ok {
		return model.User{}, model.ErrUserNotFound
	}
	return u, nil
}

func (s *memUserStore) Create(_ context.Context, fullname string, email string, passwordHash string, role string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, u := range s.rows {
		if u.Email == email {
			return 0, model.ErrEmailTaken
		}
	}

	s.seq++
	now := time.Now().UTC()
	s.rows[s.seq] = model.User{
		ID: s.seq, Fullname: fullname, Email: email, PasswordHash: passwordHash,
		Role: role, CreatedAt: now, UpdatedAt: now,
	}
	return s.seq, nil
}

type memTokenStore struct {
	mu   sync.Mutex
	rows map[string]*model.RefreshTokenRecord
}

func newMemTokenStore() *memTokenStore {
	return &memTokenStore{rows: map[string]*model.RefreshTokenRecord{}}
}

func (s *memTokenStore) Save(_ context.Context, userID int64, tokenHash string, expiresAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.rows[tokenHash] = &model.RefreshTokenRecord{
		UserID: userID, TokenHash: tokenHash, ExpiresAt: expiresAt, CreatedAt: time.Now().UTC(),
	}
	return nil
}

func (s *memTokenStore) Rotate(_ context.Context, oldHash string, userID int64, newHash string, expiresAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	old, ok := s.rows[oldHash]
	if !ok || old.UserID != userID || !old.Active(time.Now()) {
		return model.ErrTokenNotFound
	}

	old.Revoked = true
	s.rows[newHash] = &model.RefreshTokenRecord{
		UserID: userID, TokenHash: newHash, ExpiresAt: expiresAt, CreatedAt: time.Now().UTC(),
	}
	return nil
}

func (s *memTokenStore) Revoke(_ context.Context, tokenHash string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	record, ok := s.rows[tokenHash]
	if !ok || !record.Active(time.Now()) {
		return model.ErrTokenNotFound
	}
	record.Revoked = true
	return nil
}

func newTestAuthService(t *testing.T) (*AuthService, *memUserStore, *memTokenStore) {
	t.Helper()

	codec := newTestCodec(t)
	users := newMemUserStore()
	tokens := newMemTokenStore()
	return NewAuthService(codec, users, tokens), users, tokens
}

func registerAndLogin(t *testing.T, svc *AuthService) (int64, model.TokenPair) {
	t.Helper()
	ctx := context.Background()

	userID, err := svc.Register(ctx, "Alice", "a@x.com", "pw123")
	require.NoError(t, err)

	pair, err := svc.Login(ctx, "a@x.com", "pw123")
	require.NoError(t, err)
	return userID, pair
}

func requireAuthFailure(t *testing.T, err error, message string) {
	t.Helper()

	var apiErr *apierror.APIError
	require.ErrorAs(t, err, &apiErr)
	require.Equal(t, message, apiErr.Message)
}

func TestAuthService_RegisterAndLogin(t *testing.T) {
	t.Parallel()
	svc, _, tokens := newTestAuthService(t)

	userID, pair := registerAndLogin(t, svc)
	require.Equal(t, int64(1), userID)
	require.NotEmpty(t, pair.AccessToken)
	require.NotEmpty(t, pair.RefreshToken)
	require.NotEqual(t, pair.AccessToken, pair.RefreshToken)
	require.Equal(t, "Bearer", pair.TokenType)

	// Exactly one refresh record, keyed by fingerprint, never the raw token.
	require.Len(t, tokens.rows, 1)
	_, stored := tokens.rows[Fingerprint(pair.RefreshToken)]
	require.True(t, stored)
	_, raw := tokens.rows[pair.RefreshToken]
	require.False(t, raw)

	claims, err := svc.ValidateAccessToken(pair.AccessToken)
	require.NoError(t, err)
	require.Equal(t, userID, claims.UserID)
	require.Equal(t, model.RoleUser, claims.Role)
}

func TestAuthService_LoginFailuresAreIndistinguishable(t *testing.T) {
	t.Parallel()
	svc, _, _ := newTestAuthService(t)
	ctx := context.Background()

	_, err := svc.Register(ctx, "Alice", "a@x.com", "pw123")
	require.NoError(t, err)

	_, wrongPassword := svc.Login(ctx, "a@x.com", "wrong")
	_, unknownEmail := svc.Login(ctx, "nobody@x.com", "pw123")

	requireAuthFailure(t, wrongPassword, "Invalid credentials")
	requireAuthFailure(t, unknownEmail, "Invalid credentials")
	require.Equal(t, wrongPassword.Error(), unknownEmail.Error())
}

func TestAuthService_RegisterDuplicateEmailIsGeneric(t *testing.T) {
	t.Parallel()
	svc, _, _ := newTestAuthService(t)
	ctx := context.Background()

	_, err := svc.Register(ctx, "Alice", "a@x.com", "pw123")
	require.NoError(t, err)

	_, err = svc.Register(ctx, "Mallory", "a@x.com", "other")
	var apiErr *apierror.APIError
	require.ErrorAs(t, err, &apiErr)
	require.Equal(t, "Error during registration", apiErr.Message)
	require.NotContains(t, apiErr.Error(), "email")
}

func TestAuthService_RegisterDoesNotStorePlaintextPassword(t *testing.T) {
	t.Parallel()
	svc, users, _ := newTestAuthService(t)
	ctx := context.Background()

	userID, err := svc.Register(ctx, "Alice", "a@x.com", "pw123")
	require.NoError(t, err)

	user, err := users.FindByID(ctx, userID)
	require.NoError(t, err)
	require.NotEqual(t, "pw123", user.PasswordHash)
	require.Equal(t, model.RoleUser, user.Role)
}

func TestAuthService_RefreshRotatesAndRejectsReuse(t *testing.T) {
	t.Parallel()
	svc, _, _ := newTestAuthService(t)
	ctx := context.Background()

	_, pair := registerAndLogin(t, svc)

	rotated, err := svc.Refresh(ctx, pair.RefreshToken)
	require.NoError(t, err)
	require.NotEmpty(t, rotated.AccessToken)
	require.NotEqual(t, pair.RefreshToken, rotated.RefreshToken)

	// Second presentation of the consumed token must fail even though its
	// signature still verifies.
	_, err = svc.Refresh(ctx, pair.RefreshToken)
	requireAuthFailure(t, err, "Invalid or expired refresh token")

	// The successor still works.
	_, err = svc.Refresh(ctx, rotated.RefreshToken)
	require.NoError(t, err)
}

func TestAuthService_RefreshRejectsAccessToken(t *testing.T) {
	t.Parallel()
	svc, _, _ := newTestAuthService(t)
	ctx := context.Background()

	_, pair := registerAndLogin(t, svc)

	_, err := svc.Refresh(ctx, pair.AccessToken)
	requireAuthFailure(t, err, "Invalid or expired refresh token")
}

func TestAuthService_RefreshRejectsGarbage(t *testing.T) {
	t.Parallel()
	svc, _, _ := newTestAuthService(t)

	_, err := svc.Refresh(context.Background(), "not-a-token")
	requireAuthFailure(t, err, "Invalid or expired refresh token")
}

func TestAuthService_LogoutRevokesRefreshToken(t *testing.T) {
	t.Parallel()
	svc, _, _ := newTestAuthService(t)
	ctx := context.Background()

	_, pair := registerAndLogin(t, svc)

	require.NoError(t, svc.Logout(ctx, pair.RefreshToken))

	_, err := svc.Refresh(ctx, pair.RefreshToken)
	requireAuthFailure(t, err, "Invalid or expired refresh token")

	// Logging out twice reports an invalid token.
	err = svc.Logout(ctx, pair.RefreshToken)
	requireAuthFailure(t, err, "Invalid refresh token")
}

func TestAuthService_LogoutUnknownToken(t *testing.T) {
	t.Parallel()
	svc, _, _ := newTestAuthService(t)

	err := svc.Logout(context.Background(), "never-issued")
	requireAuthFailure(t, err, "Invalid refresh token")
}

func TestAuthService_Profile(t *testing.T) {
	t.Parallel()
	svc, _, _ := newTestAuthService(t)
	ctx := context.Background()

	userID, _ := registerAndLogin(t, svc)

	profile, err := svc.Profile(ctx, userID)
	require.NoError(t, err)
	require.Equal(t, userID, profile.ID)
	require.Equal(t, "Alice", profile.Fullname)
	require.Equal(t, "a@x.com", profile.Email)
	require.Equal(t, model.RoleUser, profile.Role)

	_, err = svc.Profile(ctx, userID+99)
	requireAuthFailure(t, err, "User not found")
}

func TestAuthService_MultipleSessionsPerUser(t *testing.T) {
	t.Parallel()
	svc, _, tokens := newTestAuthService(t)
	ctx := context.Background()

	_, first := registerAndLogin(t, svc)

	second, err := svc.Login(ctx, "a@x.com", "pw123")
	require.NoError(t, err)
	require.Len(t, tokens.rows, 2)

	// Revoking one session leaves the other usable.
	require.NoError(t, svc.Logout(ctx, first.RefreshToken))
	_, err = svc.Refresh(ctx, second.RefreshToken)
	require.NoError(t, err)
}
