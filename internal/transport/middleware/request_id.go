package middleware

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/openlibraryenvironment/dcb-service-sub001/pkg/ctxutil"
)

// RequestIDHeader carries the correlation ID in both directions.
const RequestIDHeader = "X-Request-Id"

const maxRequestIDLen = 128

// RequestID reuses an incoming correlation ID or generates one.
func RequestID() Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := r.Header.Get(RequestIDHeader)
			if id == "" || len(id) > maxRequestIDLen {
				id = uuid.NewString()
			}
			w.Header().Set(RequestIDHeader, id)
			next.ServeHTTP(w, r.WithContext(ctxutil.WithRequestID(r.Context(), id)))
		})
	}
}
