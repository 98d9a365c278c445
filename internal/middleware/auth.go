package middleware

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"marketplace-bulk-api/pkg/apierror"
)

// AuthConfig holds configuration for the auth middleware.
type AuthConfig struct {
	// APIKeys are the accepted keys. With none configured every request
	// is let through.
	APIKeys []string

	// PublicPaths skip the key check.
	PublicPaths []string
}

// DefaultPublicPaths are reachable without a key.
var DefaultPublicPaths = []string{"/api/v1/health", "/api/v1/ready"}

// NewAuthMiddleware creates an API key middleware. The key is read from
// X-API-Key or an Authorization: Bearer header.
func NewAuthMiddleware(cfg AuthConfig) func(http.Handler) http.Handler {
	keys := make([][]byte, 0, len(cfg.APIKeys))
	for _, k := range cfg.APIKeys {
		if k = strings.TrimSpace(k); k != "" {
			keys = append(keys, []byte(k))
		}
	}
	public := make(map[string]bool, len(cfg.PublicPaths))
	for _, p := range cfg.PublicPaths {
		public[p] = true
	}

	return func(next http.Handler) http.Handler {
		if len(keys) == 0 {
			return next
		}

		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if public[r.URL.Path] || r.Method == http.MethodOptions {
				next.ServeHTTP(w, r)
				return
			}

			apiKey := r.Header.Get("X-API-Key")
			if apiKey == "" {
				auth := r.Header.Get("Authorization")
				if strings.HasPrefix(auth, "Bearer ") {
					apiKey = strings.TrimPrefix(auth, "Bearer ")
				}
			}

			if apiKey == "" {
				apierror.Unauthorized("Authentication required. Use X-API-Key or Authorization: Bearer header.").Write(w)
				return
			}

			if !isValidKey([]byte(apiKey), keys) {
				apierror.Forbidden("Invalid API key").Write(w)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// isValidKey checks the key against every accepted key in constant time.
func isValidKey(key []byte, validKeys [][]byte) bool {
	ok := 0
	for _, valid := range validKeys {
		ok |= subtle.ConstantTimeCompare(key, valid)
	}
	return ok == 1
}
