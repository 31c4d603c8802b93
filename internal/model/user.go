package model

import "time"

const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

type User struct {
	ID           int64     `json:"id"`
	Fullname     string    `json:"fullname"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Role         string    `json:"role"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Profile is the public projection of a user returned by /auth/profile.
type Profile struct {
	ID       int64  `json:"id"`
	Fullname string `json:"fullname"`
	Email    string `json:"email"`
	Role     string `json:"role"`
}

// AuthClaims is the verified identity attached to a request context.
type AuthClaims struct {
	UserID  int64  `json:"sub"`
	Email   string `json:"email"`
	Role    string `json:"role"`
	Class   string `json:"typ"`
	TokenID string `json:"jti"`
}

type TokenPair struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
	TokenType    string `json:"tokenType"`
	ExpiresIn    int64  `json:"expiresIn"`
}

// RefreshTokenRecord is the persisted form of an issued refresh token.
// Only the SHA-256 fingerprint of the raw token is stored; rows are never
// deleted, a consumed or logged-out token is flipped to revoked instead.
type RefreshTokenRecord struct {
	ID        int64     `json:"id"`
	UserID    int64     `json:"user_id"`
	TokenHash string    `json:"-"`
	ExpiresAt time.Time `json:"expires_at"`
	Revoked   bool      `json:"revoked"`
	CreatedAt time.Time `json:"created_at"`
}

func (r RefreshTokenRecord) Active(now time.Time) bool {
	return !r.Revoked && now.Before(r.ExpiresAt)
}
