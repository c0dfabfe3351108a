package middleware

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/openlibraryenvironment/dcb-service-sub001/internal/config"
)

// CORS returns middleware that handles Cross-Origin Resource Sharing for
// browser-based operator consoles. Preflight requests are answered directly.
func CORS(cfg config.CORSConfig) Middleware {
	allowed := make(map[string]struct{})
	wildcard := false
	for _, o := range strings.Split(cfg.AllowedOrigins, ",") {
		o = strings.TrimSpace(o)
		switch o {
		case "":
		case "*":
			wildcard = true
		default:
			allowed[o] = struct{}{}
		}
	}
	maxAge := strconv.Itoa(cfg.MaxAge)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := r.Header.Get("Origin")
			if origin != "" {
				w.Header().Add("Vary", "Origin")
				if _, ok := allowed[origin]; ok || wildcard {
					w.Header().Set("Access-Control-Allow-Origin", origin)
					if cfg.AllowCredentials {
						w.Header().Set("Access-Control-Allow-Credentials", "true")
					}
				}
			}

			if r.Method == http.MethodOptions && r.Header.Get("Access-Control-Request-Method") != "" {
				w.Header().Set("Access-Control-Allow-Methods", cfg.AllowedMethods)
				w.Header().Set("Access-Control-Allow-Headers", cfg.AllowedHeaders)
				w.Header().Set("Access-Control-Max-Age", maxAge)
				w.WriteHeader(http.StatusNoContent)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
