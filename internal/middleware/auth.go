package middleware

import (
	"context"
	"net/http"
	"strings"

	"go-catalog-api/internal/model"
)

type accessTokenValidator interface {
	ValidateAccessToken(tokenString string) (*model.AuthClaims, error)
}

type contextKey string

const authClaimsContextKey contextKey = "auth_claims"

// AuthMiddleware is the request guard: it extracts the bearer token, verifies
// it against the access secret and attaches the resulting identity to the
// request context.
type AuthMiddleware struct {
	validator accessTokenValidator
}

func NewAuthMiddleware(validator accessTokenValidator) *AuthMiddleware {
	return &AuthMiddleware{validator: validator}
}

func (m *AuthMiddleware) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := strings.TrimSpace(r.Header.Get("Authorization"))
		if header == "" || !strings.HasPrefix(strings.ToLower(header), "bearer ") {
			writeGuardError(w, http.StatusUnauthorized, "No token provided")
			return
		}

		token := strings.TrimSpace(header[len("bearer "):])
		claims, err := m.validator.ValidateAccessToken(token)
		if err != nil {
			writeGuardError(w, http.StatusUnauthorized, "Invalid or expired token")
			return
		}

		ctx := context.WithValue(r.Context(), authClaimsContextKey, claims)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequireRoles gates a route to the given role allow-list. Calling it with no
// roles is a wiring mistake and panics at construction time rather than
// silently allowing everyone.
func (m *AuthMiddleware) RequireRoles(allowedRoles ...string) func(http.Handler) http.Handler {
	if len(allowedRoles) == 0 {
		panic("middleware: RequireRoles needs at least one role")
	}

	roleSet := map[string]struct{}{}
	for _, role := range allowedRoles {
		roleSet[strings.ToLower(strings.TrimSpace(role))] = struct{}{}
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims, ok := ClaimsFromContext(r.Context())
			if !ok {
				writeGuardError(w, http.StatusUnauthorized, "User not authenticated")
				return
			}

			if _, allowed := roleSet[strings.ToLower(claims.Role)]; !allowed {
				writeGuardError(w, http.StatusForbidden, "Insufficient permissions")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func ClaimsFromContext(ctx context.Context) (*model.AuthClaims, bool) {
	claims, ok := ctx.Value(authClaimsContextKey).(*model.AuthClaims)
	return claims, ok
}

func writeGuardError(w http.ResponseWriter, status int, message string) {
	code := "UNAUTHORIZED"
	if status == http.StatusForbidden {
		code = "FORBIDDEN"
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = jsonEncode(w, model.APIResponse{
		Success: false,
		Error: &model.APIError{
			Code:    code,
			Message: message,
		},
	})
}
