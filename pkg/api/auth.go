package api

import (
	"crypto/subtle"
	"encoding/base64"
	"net/http"
	"strings"
)

// AuthConfig holds credentials for the API middleware.
type AuthConfig struct {
	Users   map[string]string // username -> password
	APIKeys map[string]bool
}

// NewAuthConfig builds an AuthConfig, or nil when no credentials are
// configured.
func NewAuthConfig(users map[string]string, keys []string) *AuthConfig {
	if len(users) == 0 && len(keys) == 0 {
		return nil
	}
	cfg := &AuthConfig{Users: users, APIKeys: make(map[string]bool, len(keys))}
	for _, k := range keys {
		cfg.APIKeys[k] = true
	}
	return cfg
}

// publicPaths bypass authentication.
var publicPaths = map[string]bool{
	"/health":  true,
	"/metrics": true,
}

// authMiddleware wraps an http.Handler with Basic Auth / Bearer / X-API-Key checks.
func authMiddleware(cfg AuthConfig, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if publicPaths[r.URL.Path] || authorized(r, cfg) {
			next.ServeHTTP(w, r)
			return
		}
		w.Header().Set("WWW-Authenticate", `Basic realm="nocterm API"`)
		writeError(w, http.StatusUnauthorized, "authentication required")
	})
}

func authorized(r *http.Request, cfg AuthConfig) bool {
	if key := r.Header.Get("X-API-Key"); key != "" && cfg.APIKeys[key] {
		return true
	}
	auth := r.Header.Get("Authorization")
	if token, ok := strings.CutPrefix(auth, "Bearer "); ok {
		return cfg.APIKeys[token]
	}
	if enc, ok := strings.CutPrefix(auth, "Basic "); ok {
		payload, err := base64.StdEncoding.DecodeString(enc)
		if err != nil {
			return false
		}
		user, pass, ok := strings.Cut(string(payload), ":")
		if !ok {
			return false
		}
		expected, exists := cfg.Users[user]
		if !exists {
			return false
		}
		return subtle.ConstantTimeCompare([]byte(pass), []byte(expected)) == 1
	}
	return false
}
