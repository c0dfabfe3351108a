package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/openlibraryenvironment/dcb-service-sub001/pkg/ctxutil"
)

// Logger logs each request once it completes. The operator is read from the
// request after the inner handlers ran, so Logger can sit outside Auth.
func Logger(logger *slog.Logger) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}
			holder := &operatorHolder{}

			next.ServeHTTP(sw, r.WithContext(withOperatorHolder(r.Context(), holder)))

			attrs := []slog.Attr{
				slog.String("method", r.Method),
				slog.String("path", r.URL.Path),
				slog.Int("status", sw.status),
				slog.Duration("duration", time.Since(start)),
				slog.String("request_id", ctxutil.RequestIDFromCtx(r.Context())),
			}
			if holder.id != "" {
				attrs = append(attrs, slog.String("operator_id", holder.id))
			}

			level := slog.LevelInfo
			switch {
			case sw.status >= 500:
				level = slog.LevelError
			case sw.status >= 400:
				level = slog.LevelWarn
			}
			logger.LogAttrs(r.Context(), level, "http.request", attrs...)
		})
	}
}

// statusWriter wraps http.ResponseWriter to capture the response status code.
type statusWriter struct {
	http.ResponseWriter
	status      int
	wroteHeader bool
}

func (w *statusWriter) WriteHeader(code int) {
	if !w.wroteHeader {
		w.status = code
		w.wroteHeader = true
	}
	w.ResponseWriter.WriteHeader(code)
}

func (w *statusWriter) Write(b []byte) (int, error) {
	w.wroteHeader = true
	return w.ResponseWriter.Write(b)
}

type holderKey struct{}

// operatorHolder lets Auth report the operator back to Logger, whose
// request context is not visible to the handlers below it.
type operatorHolder struct {
	id string
}

func withOperatorHolder(ctx context.Context, h *operatorHolder) context.Context {
	return context.WithValue(ctx, holderKey{}, h)
}

func recordOperator(ctx context.Context, id string) {
	if h, ok := ctx.Value(holderKey{}).(*operatorHolder); ok {
		h.id = id
	}
}
