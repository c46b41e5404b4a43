package middleware

import (
	"net/http"
	"strings"

	"offerapp-backend/internal/auth"
	"offerapp-backend/internal/transport"
)

// AdminAuth requires a bearer token carrying the admin role. A missing,
// malformed or expired token is 401; a valid token with another role is 403.
func AdminAuth(manager *auth.Manager) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if manager == nil || len(manager.Secret) == 0 {
				transport.WriteError(w, http.StatusServiceUnavailable, "admin auth not configured", nil)
				return
			}

			token := bearerToken(r)
			if token == "" {
				transport.WriteError(w, http.StatusUnauthorized, "missing bearer token", nil)
				return
			}

			claims, err := manager.Parse(token)
			if err != nil {
				transport.WriteError(w, http.StatusUnauthorized, "invalid or expired token", nil)
				return
			}
			if claims.Role != auth.RoleAdmin {
				transport.WriteError(w, http.StatusForbidden, "admin role required", nil)
				return
			}

			next.ServeHTTP(w, r.WithContext(auth.WithClaims(r.Context(), claims)))
		})
	}
}

func bearerToken(r *http.Request) string {
	header := strings.TrimSpace(r.Header.Get("Authorization"))
	scheme, token, ok := strings.Cut(header, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}
