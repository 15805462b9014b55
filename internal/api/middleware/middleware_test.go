package middleware_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/zatekoja/gymscheduler/internal/api/middleware"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})
}

func TestCORSMiddleware(t *testing.T) {
	t.Run("echoes listed origin", func(t *testing.T) {
		h := middleware.CORSMiddleware([]string{"https://desk.gym.test"})(okHandler())

		req := httptest.NewRequest("GET", "/api/appointments", nil)
		req.Header.Set("Origin", "https://desk.gym.test")
		w := httptest.NewRecorder()
		h.ServeHTTP(w, req)

		assert.Equal(t, "https://desk.gym.test", w.Header().Get("Access-Control-Allow-Origin"))
		assert.Equal(t, "Origin", w.Header().Get("Vary"))
		assert.Equal(t, http.StatusTeapot, w.Code)
	})

	t.Run("ignores unknown origin", func(t *testing.T) {
		h := middleware.CORSMiddleware([]string{"https://desk.gym.test"})(okHandler())

		req := httptest.NewRequest("GET", "/api/appointments", nil)
		req.Header.Set("Origin", "https://evil.test")
		w := httptest.NewRecorder()
		h.ServeHTTP(w, req)

		assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
	})

	t.Run("wildcard preflight for the stream", func(t *testing.T) {
		h := middleware.CORSMiddleware([]string{"*"})(okHandler())

		req := httptest.NewRequest("OPTIONS", "/api/stream/appointments", nil)
		req.Header.Set("Origin", "https://anywhere.test")
		req.Header.Set("Access-Control-Request-Method", "GET")
		w := httptest.NewRecorder()
		h.ServeHTTP(w, req)

		assert.Equal(t, http.StatusNoContent, w.Code)
		assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
		assert.Contains(t, w.Header().Get("Access-Control-Allow-Headers"), "Last-Event-ID")
		assert.Equal(t, "600", w.Header().Get("Access-Control-Max-Age"))
	})

	t.Run("preflight from unknown origin gets no grants", func(t *testing.T) {
		h := middleware.CORSMiddleware([]string{"https://desk.gym.test"})(okHandler())

		req := httptest.NewRequest("OPTIONS", "/api/appointments", nil)
		req.Header.Set("Origin", "https://evil.test")
		req.Header.Set("Access-Control-Request-Method", "POST")
		w := httptest.NewRecorder()
		h.ServeHTTP(w, req)

		assert.Equal(t, http.StatusNoContent, w.Code)
		assert.Empty(t, w.Header().Get("Access-Control-Allow-Methods"))
	})

	t.Run("plain OPTIONS reaches the routes", func(t *testing.T) {
		h := middleware.CORSMiddleware([]string{"*"})(okHandler())

		req := httptest.NewRequest("OPTIONS", "/api/appointments", nil)
		w := httptest.NewRecorder()
		h.ServeHTTP(w, req)

		assert.Equal(t, http.StatusTeapot, w.Code)
	})
}

func TestObservabilityMiddleware_NamesSpansByRoute(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	otel.SetTracerProvider(sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder)))

	mux := http.NewServeMux()
	mux.HandleFunc("PUT /api/appointments/{id}/cancel", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	h := middleware.ObservabilityMiddleware(nil)(middleware.LoggingMiddleware(mux))

	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("PUT", "/api/appointments/42/cancel", nil))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("GET", "/api/nowhere/7", nil))

	ended := recorder.Ended()
	require.Len(t, ended, 2)

	matched := spanAttrs(ended[0])
	assert.Equal(t, "PUT /api/appointments/{id}/cancel", ended[0].Name())
	assert.Equal(t, "PUT /api/appointments/{id}/cancel", matched["http.route"])
	assert.Equal(t, "42", matched["gym.path_id"])

	unmatched := spanAttrs(ended[1])
	assert.Equal(t, "HTTP GET", ended[1].Name())
	assert.Equal(t, "unmatched", unmatched["http.route"])
	assert.NotContains(t, unmatched, "gym.path_id")
}

func spanAttrs(span sdktrace.ReadOnlySpan) map[string]string {
	out := make(map[string]string)
	for _, kv := range span.Attributes() {
		out[string(kv.Key)] = kv.Value.Emit()
	}
	return out
}

func TestLoggingMiddleware_RecoversPanics(t *testing.T) {
	h := middleware.LoggingMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	}))

	req := httptest.NewRequest("GET", "/api/appointments", nil)
	w := httptest.NewRecorder()

	assert.NotPanics(t, func() { h.ServeHTTP(w, req) })
	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestLoggingMiddleware_PassesStatus(t *testing.T) {
	h := middleware.LoggingMiddleware(okHandler())

	req := httptest.NewRequest("GET", "/health", nil)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	assert.Equal(t, http.StatusTeapot, w.Code)
}
