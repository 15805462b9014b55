package middleware

import (
	"net/http"
	"slices"
	"strconv"
)

const (
	corsAllowMethods = "GET, POST, PUT, DELETE"
	// Last-Event-ID lets browsers resume the appointment stream after a reconnect
	corsAllowHeaders = "Content-Type, Authorization, Last-Event-ID, Cache-Control"
	corsMaxAge       = 600
)

// CORSMiddleware lets the front desk app call the scheduling API from the configured origins.
// A "*" entry allows any origin. Preflights are answered here with 204 and never reach the routes.
func CORSMiddleware(allowedOrigins []string) func(http.Handler) http.Handler {
	wildcard := slices.Contains(allowedOrigins, "*")

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := r.Header.Get("Origin")
			allowed := origin != "" && (wildcard || slices.Contains(allowedOrigins, origin))

			if allowed {
				if wildcard {
					w.Header().Set("Access-Control-Allow-Origin", "*")
				} else {
					w.Header().Set("Access-Control-Allow-Origin", origin)
					w.Header().Add("Vary", "Origin")
				}
			}

			preflight := r.Method == http.MethodOptions && r.Header.Get("Access-Control-Request-Method") != ""
			if !preflight {
				next.ServeHTTP(w, r)
				return
			}

			if allowed {
				w.Header().Set("Access-Control-Allow-Methods", corsAllowMethods)
				w.Header().Set("Access-Control-Allow-Headers", corsAllowHeaders)
				w.Header().Set("Access-Control-Max-Age", strconv.Itoa(corsMaxAge))
			}
			w.WriteHeader(http.StatusNoContent)
		})
	}
}
