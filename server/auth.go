package server

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/json"
	"net/http"
	"strings"
)

const bearerPrefix = "Bearer "

// authMiddleware rejects every request that does not carry the configured
// bearer token. It runs before the dispatcher; an unauthorized request never
// reaches a tool handler.
func authMiddleware(token string, next http.Handler) http.Handler {
	expected := sha256.Sum256([]byte(token))

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		if header == "" {
			sendUnauthorized(w, "Authorization header required")
			return
		}

		// the scheme must be exactly "Bearer"; a correct token under any
		// other scheme is rejected
		if !strings.HasPrefix(header, bearerPrefix) {
			sendUnauthorized(w, "invalid authorization format")
			return
		}

		presented := sha256.Sum256([]byte(header[len(bearerPrefix):]))
		// hashing first makes the comparison fixed-time regardless of token
		// length or the position of the first mismatching byte
		if subtle.ConstantTimeCompare(expected[:], presented[:]) != 1 {
			sendUnauthorized(w, "invalid token")
			return
		}

		next.ServeHTTP(w, r)
	})
}

func sendUnauthorized(w http.ResponseWriter, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("WWW-Authenticate", `Bearer realm="droidbridge"`)
	w.WriteHeader(http.StatusUnauthorized)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": message})
}
