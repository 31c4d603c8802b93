package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func TestRateLimitMiddleware_GeneralTraffic(t *testing.T) {
	mw := NewRateLimitMiddleware(1000, 1)
	handler := mw.Handler(okHandler())

	for i := 0; i < 10; i++ {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/products", nil)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code, "request %d", i)
	}
}

func TestRateLimitMiddleware_AuthBucketIsStricter(t *testing.T) {
	mw := NewRateLimitMiddleware(1000, 1)
	handler := mw.Handler(okHandler())

	first := httptest.NewRecorder()
	handler.ServeHTTP(first, httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", nil))
	require.Equal(t, http.StatusOK, first.Code)

	// Burst of 1: the second immediate request must be rejected.
	second := httptest.NewRecorder()
	handler.ServeHTTP(second, httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", nil))
	require.Equal(t, http.StatusTooManyRequests, second.Code)
	require.Equal(t, "60", second.Header().Get("Retry-After"))
}

func TestRateLimitMiddleware_Defaults(t *testing.T) {
	mw := NewRateLimitMiddleware(0, 0)
	require.Equal(t, 100, mw.generalRPM)
	require.Equal(t, 10, mw.authRPM)
}
