package middleware

import (
	"net/http"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/zatekoja/gymscheduler/internal/infrastructure/observability"
)

// routeParams are the path wildcards copied onto request spans.
var routeParams = map[string]string{
	"id":              "gym.path_id",
	"week_start_date": "gym.week_start_date",
}

// unmatchedRoute labels requests no route accepted, so raw paths never reach metric labels.
const unmatchedRoute = "unmatched"

// ObservabilityMiddleware traces each request and records request metrics by route pattern.
// The span is renamed once the mux has matched, e.g. "PUT /api/appointments/{id}/cancel".
func ObservabilityMiddleware(metrics *observability.Metrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx, span := observability.StartSpan(r.Context(), "HTTP "+r.Method,
				attribute.String("http.method", r.Method),
				attribute.String("http.user_agent", r.UserAgent()),
			)
			defer span.End()

			rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
			req := r.WithContext(ctx)
			start := time.Now()

			next.ServeHTTP(rw, req)

			// ServeMux stores the matched pattern on the request it was handed
			route := req.Pattern
			if route == "" {
				route = unmatchedRoute
			} else {
				span.SetName(route)
			}

			attrs := []attribute.KeyValue{
				attribute.String("http.route", route),
				attribute.Int("http.status_code", rw.statusCode),
			}
			for param, key := range routeParams {
				if v := req.PathValue(param); v != "" {
					attrs = append(attrs, attribute.String(key, v))
				}
			}
			observability.SetSpanAttributes(span, attrs...)
			observability.RecordRequestMetric(ctx, metrics, r.Method, route, rw.statusCode, time.Since(start))
		})
	}
}

type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(statusCode int) {
	rw.statusCode = statusCode
	rw.ResponseWriter.WriteHeader(statusCode)
}

func (rw *responseWriter) Flush() {
	if f, ok := rw.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

func (rw *responseWriter) Unwrap() http.ResponseWriter {
	return rw.ResponseWriter
}
