package middleware

import (
	"net/http"

	"go.uber.org/zap"
)

// RequireAdmin gates back-office routes on the admin role.
func RequireAdmin(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			identity, ok := GetIdentity(r.Context())
			if !ok || identity.Role != "admin" {
				logger.Warn("Admin route denied",
					zap.String("path", r.URL.Path),
					zap.String("role", identity.Role),
				)
				RespondWithError(w, http.StatusForbidden, "insufficient permissions")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
