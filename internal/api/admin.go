package api

import (
	"crypto/subtle"
	"log/slog"
	"net/http"

	"assistant-backend/pkg/api"
)

const AdminSecretHeader = "X-Admin-Secret"

// AdminAuth only lets requests through whose X-Admin-Secret header matches
// secret. With no secret configured every admin request fails.
func AdminAuth(secret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if secret == "" {
				slog.Error("admin endpoint called but no admin secret is configured", "path", r.URL.Path)
				WriteJsonResponse(w, http.StatusInternalServerError, api.ErrorResponse{Error: "admin secret is not configured"})
				return
			}

			provided := r.Header.Get(AdminSecretHeader)
			if subtle.ConstantTimeCompare([]byte(provided), []byte(secret)) != 1 {
				slog.Warn("rejected admin request", "path", r.URL.Path, "remote_addr", r.RemoteAddr)
				WriteJsonResponse(w, http.StatusForbidden, api.ErrorResponse{Error: "forbidden"})
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
