package middleware

import (
	"net/http"

	"github.com/openlibraryenvironment/dcb-service-sub001/pkg/ctxutil"
)

// RequireAdmin answers 403 unless the authenticated operator holds the admin
// role. It must run after Auth.
func RequireAdmin() Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !ctxutil.IsAdminCtx(r.Context()) {
				writeError(w, http.StatusForbidden, "admin role required")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
