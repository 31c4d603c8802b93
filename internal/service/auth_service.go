package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"go-catalog-api/internal/model"
	"go-catalog-api/pkg/apierror"
)

// bcryptCost matches the work factor the user table was seeded with.
const bcryptCost = 10

type userStore interface {
	FindByEmail(ctx context.Context, email string) (model.User, error)
	FindByID(ctx context.Context, id int64) (model.User, error)
	Create(ctx context.Context, fullname string, email string, passwordHash string, role string) (int64, error)
}

type tokenStore interface {
	Save(ctx context.Context, userID int64, tokenHash string, expiresAt time.Time) error
	// Rotate revokes the record for oldHash and inserts the successor record in
	// one transaction. It fails with model.ErrTokenNotFound when no active
	// record for (oldHash, userID) exists.
	Rotate(ctx context.Context, oldHash string, userID int64, newHash string, expiresAt time.Time) error
	// Revoke flips the active record for tokenHash to revoked. It fails with
	// model.ErrTokenNotFound when the record is absent, expired or already
	// revoked.
	Revoke(ctx context.Context, tokenHash string) error
}

// AuthService owns the session lifecycle: registration, login, refresh-token
// rotation, profile lookup and logout. Refresh tokens are single-use; a
// consumed or logged-out token is structurally rejected even while its
// signature still verifies.
type AuthService struct {
	codec  *TokenCodec
	users  userStore
	tokens tokenStore
}

func NewAuthService(codec *TokenCodec, users userStore, tokens tokenStore) *AuthService {
	return &AuthService{codec: codec, users: users, tokens: tokens}
}

// Login verifies the credentials and issues a fresh token pair. Unknown email
// and wrong password produce the identical generic failure so the endpoint
// cannot be used to enumerate accounts.
func (s *AuthService) Login(ctx context.Context, email string, password string) (model.TokenPair, error) {
	user, err := s.users.FindByEmail(ctx, strings.TrimSpace(email))
	if err != nil {
		if errors.Is(err, model.ErrUserNotFound) {
			return model.TokenPair{}, apierror.Unauthorized("Invalid credentials")
		}
		return model.TokenPair{}, fmt.Errorf("login lookup: %w", err)
	}

	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		return model.TokenPair{}, apierror.Unauthorized("Invalid credentials")
	}

	return s.issuePair(ctx, user)
}

// Register creates a new account with the fixed "user" role. It does not log
// the account in. A unique-constraint collision surfaces as a generic failure
// that does not name the colliding field.
func (s *AuthService) Register(ctx context.Context, fullname string, email string, password string) (int64, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		return 0, fmt.Errorf("hash password: %w", err)
	}

	userID, err := s.users.Create(ctx, strings.TrimSpace(fullname), strings.TrimSpace(email), string(hash), model.RoleUser)
	if err != nil {
		if errors.Is(err, model.ErrEmailTaken) {
			return 0, apierror.BadRequest("Error during registration", "")
		}
		return 0, fmt.Errorf("create user: %w", err)
	}

	return userID, nil
}

// Refresh exchanges a valid, not-yet-consumed refresh token for a new pair.
// The presented token's record is revoked and the successor persisted as one
// atomic unit, so under concurrent replay of the same token at most one caller
// rotates; the rest observe the revoked record and fail.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (model.TokenPair, error) {
	claims, err := s.codec.Verify(refreshToken, TokenClassRefresh)
	if err != nil {
		return model.TokenPair{}, apierror.Unauthorized("Invalid or expired refresh token")
	}

	user, err := s.users.FindByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, model.ErrUserNotFound) {
			return model.TokenPair{}, apierror.Unauthorized("Invalid or expired refresh token")
		}
		return model.TokenPair{}, fmt.Errorf("refresh lookup: %w", err)
	}

	accessToken, _, err := s.codec.Issue(TokenClassAccess, user)
	if err != nil {
		return model.TokenPair{}, err
	}

	newRefresh, refreshExpiry, err := s.codec.Issue(TokenClassRefresh, user)
	if err != nil {
		return model.TokenPair{}, err
	}

	err = s.tokens.Rotate(ctx, Fingerprint(refreshToken), user.ID, Fingerprint(newRefresh), refreshExpiry)
	if err != nil {
		if errors.Is(err, model.ErrTokenNotFound) {
			slog.Warn("refresh token replay rejected", "user_id", user.ID)
			return model.TokenPair{}, apierror.Unauthorized("Invalid or expired refresh token")
		}
		return model.TokenPair{}, fmt.Errorf("rotate refresh token: %w", err)
	}

	return model.TokenPair{
		AccessToken:  accessToken,
		RefreshToken: newRefresh,
		TokenType:    "Bearer",
		ExpiresIn:    int64(s.codec.AccessTTL().Seconds()),
	}, nil
}

// Profile resolves the subject of an already-verified access token. A deleted
// user with a still-valid token fails here; that staleness window is bounded
// by the access TTL.
func (s *AuthService) Profile(ctx context.Context, userID int64) (model.Profile, error) {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, model.ErrUserNotFound) {
			return model.Profile{}, apierror.New("NOT_FOUND", "User not found", "", http.StatusNotFound)
		}
		return model.Profile{}, fmt.Errorf("profile lookup: %w", err)
	}

	return model.Profile{ID: user.ID, Fullname: user.Fullname, Email: user.Email, Role: user.Role}, nil
}

// Logout revokes the presented refresh token. The paired access token stays
// valid until its natural expiry; access tokens are not revocable.
func (s *AuthService) Logout(ctx context.Context, refreshToken string) error {
	err := s.tokens.Revoke(ctx, Fingerprint(refreshToken))
	if err != nil {
		if errors.Is(err, model.ErrTokenNotFound) {
			return apierror.Unauthorized("Invalid refresh token")
		}
		return fmt.Errorf("revoke refresh token: %w", err)
	}

	return nil
}

// ValidateAccessToken verifies a bearer token against the access secret. Used
// by the auth middleware.
func (s *AuthService) ValidateAccessToken(tokenString string) (*model.AuthClaims, error) {
	return s.codec.Verify(tokenString, TokenClassAccess)
}

func (s *AuthService) issuePair(ctx context.Context, user model.User) (model.TokenPair, error) {
	accessToken, _, err := s.codec.Issue(TokenClassAccess, user)
	if err != nil {
		return model.TokenPair{}, err
	}

	refreshToken, refreshExpiry, err := s.codec.Issue(TokenClassRefresh, user)
	if err != nil {
		return model.TokenPair{}, err
	}

	if err := s.tokens.Save(ctx, user.ID, Fingerprint(refreshToken), refreshExpiry); err != nil {
		return model.TokenPair{}, fmt.Errorf("save refresh token: %w", err)
	}

	return model.TokenPair{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		TokenType:    "Bearer",
		ExpiresIn:    int64(s.codec.AccessTTL().Seconds()),
	}, nil
}
