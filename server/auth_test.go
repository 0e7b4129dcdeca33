package server

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

const testToken = "test-secret-token"

func authedHandler(t *testing.T, reached *bool) http.Handler {
	t.Helper()
	return authMiddleware(testToken, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		*reached = true
		w.WriteHeader(http.StatusOK)
	}))
}

func TestAuthValidToken(t *testing.T) {
	var reached bool
	handler := authedHandler(t, &reached)

	req := httptest.NewRequest(http.MethodPost, "/rpc", nil)
	req.Header.Set("Authorization", "Bearer "+testToken)
	w := httptest.NewRecorder()

	handler.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.True(t, reached)
}

func TestAuthMissingHeader(t *testing.T) {
	var reached bool
	handler := authedHandler(t, &reached)

	req := httptest.NewRequest(http.MethodPost, "/rpc", nil)
	w := httptest.NewRecorder()

	handler.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.False(t, reached, "request must never reach the dispatcher")
	assert.Contains(t, w.Body.String(), "Authorization header required")
}

func TestAuthRejected(t *testing.T) {
	tests := []struct {
		name   string
		header string
	}{
		{"wrong token", "Bearer wrong-token"},
		{"empty token after scheme", "Bearer "},
		{"correct token wrong scheme", "Token " + testToken},
		{"lowercase scheme", "bearer " + testToken},
		{"scheme only", "Bearer"},
		{"token without scheme", testToken},
		{"extra space", "Bearer  " + testToken},
		{"prefix of token", "Bearer test-secret"},
		{"token plus suffix", "Bearer " + testToken + "x"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var reached bool
			handler := authedHandler(t, &reached)

			req := httptest.NewRequest(http.MethodPost, "/rpc", nil)
			req.Header.Set("Authorization", tt.header)
			w := httptest.NewRecorder()

			handler.ServeHTTP(w, req)

			assert.Equal(t, http.StatusUnauthorized, w.Code)
			assert.False(t, reached, "request must never reach the dispatcher")
		})
	}
}

func TestAuthSetsWWWAuthenticate(t *testing.T) {
	var reached bool
	handler := authedHandler(t, &reached)

	req := httptest.NewRequest(http.MethodPost, "/rpc", nil)
	w := httptest.NewRecorder()

	handler.ServeHTTP(w, req)

	assert.Contains(t, w.Header().Get("WWW-Authenticate"), "Bearer")
}
