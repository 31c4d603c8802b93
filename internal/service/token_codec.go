package service

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"go-catalog-api/internal/model"
)

// TokenClass separates the two credential kinds. The class is embedded in the
// signed claims and checked on verification, so an access token can never be
// replayed as a refresh token even if the caller picks the wrong secret.
type TokenClass string

const (
	TokenClassAccess  TokenClass = "access"
	TokenClassRefresh TokenClass = "refresh"
)

type tokenClaims struct {
	Email string `json:"email"`
	Role  string `json:"role"`
	Class string `json:"typ"`
	jwt.RegisteredClaims
}

// TokenCodec signs and verifies the access/refresh token pair. Access and
// refresh tokens use independent secrets and lifetimes.
type TokenCodec struct {
	accessSecret  []byte
	refreshSecret []byte
	accessTTL     time.Duration
	refreshTTL    time.Duration
}

func NewTokenCodec(accessSecret string, refreshSecret string, accessTTL time.Duration, refreshTTL time.Duration) (*TokenCodec, error) {
	if accessSecret == "" || refreshSecret == "" {
		return nil, errors.New("both access and refresh signing secrets are required")
	}
	if accessTTL <= 0 || refreshTTL <= 0 {
		return nil, errors.New("token lifetimes must be positive")
	}

	return &TokenCodec{
		accessSecret:  []byte(accessSecret),
		refreshSecret: []byte(refreshSecret),
		accessTTL:     accessTTL,
		refreshTTL:    refreshTTL,
	}, nil
}

func (c *TokenCodec) AccessTTL() time.Duration  { return c.accessTTL }
func (c *TokenCodec) RefreshTTL() time.Duration { return c.refreshTTL }

// Issue signs a token of the given class for the user. The returned expiry is
// absolute (now + class TTL).
func (c *TokenCodec) Issue(class TokenClass, user model.User) (string, time.Time, error) {
	secret, ttl, err := c.classParams(class)
	if err != nil {
		return "", time.Time{}, err
	}

	now := time.Now().UTC()
	expiresAt := now.Add(ttl)
	claims := tokenClaims{
		Email: user.Email,
		Role:  user.Role,
		Class: string(class),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatInt(user.ID, 10),
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign %s token: %w", class, err)
	}

	return signed, expiresAt, nil
}

// Verify checks signature, expiry and token class. It returns
// model.ErrTokenExpired for an otherwise well-formed but expired token and
// model.ErrTokenInvalid for everything else; an unverified payload is never
// returned.
func (c *TokenCodec) Verify(tokenString string, class TokenClass) (*model.AuthClaims, error) {
	secret, _, err := c.classParams(class)
	if err != nil {
		return nil, err
	}

	var claims tokenClaims
	parsed, err := jwt.ParseWithClaims(tokenString, &claims, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %q", token.Method.Alg())
		}
		return secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, model.ErrTokenExpired
		}
		return nil, model.ErrTokenInvalid
	}
	if !parsed.Valid || claims.Class != string(class) {
		return nil, model.ErrTokenInvalid
	}

	userID, err := strconv.ParseInt(claims.Subject, 10, 64)
	if err != nil {
		return nil, model.ErrTokenInvalid
	}

	return &model.AuthClaims{
		UserID:  userID,
		Email:   claims.Email,
		Role:    claims.Role,
		Class:   claims.Class,
		TokenID: claims.ID,
	}, nil
}

func (c *TokenCodec) classParams(class TokenClass) ([]byte, time.Duration, error) {
	switch class {
	case TokenClassAccess:
		return c.accessSecret, c.accessTTL, nil
	case TokenClassRefresh:
		return c.refreshSecret, c.refreshTTL, nil
	default:
		return nil, 0, fmt.Errorf("unknown token class %q", class)
	}
}

// Fingerprint is the deterministic one-way hash used as the storage key for
// refresh tokens. It is a lookup key, not a trust decision; trust comes from
// Verify.
func Fingerprint(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}
