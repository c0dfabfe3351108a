package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/openlibraryenvironment/dcb-service-sub001/pkg/ctxutil"
)

type tokenValidator interface {
	ValidateToken(ctx context.Context, token string) (uuid.UUID, string, error)
}

// Auth rejects requests without a valid bearer token. The operator and role
// from the token are stored in the request context.
func Auth(validator tokenValidator) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := extractBearerToken(r)
			if token == "" {
				w.Header().Set("WWW-Authenticate", `Bearer realm="dcb"`)
				writeError(w, http.StatusUnauthorized, "missing bearer token")
				return
			}
			operatorID, role, err := validator.ValidateToken(r.Context(), token)
			if err != nil {
				w.Header().Set("WWW-Authenticate", `Bearer realm="dcb", error="invalid_token"`)
				writeError(w, http.StatusUnauthorized, "unauthorized")
				return
			}
			recordOperator(r.Context(), operatorID.String())
			ctx := ctxutil.WithOperator(r.Context(), operatorID, role)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func extractBearerToken(r *http.Request) string {
	scheme, token, ok := strings.Cut(r.Header.Get("Authorization"), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}
