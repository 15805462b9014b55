package routes

import (
	"net/http"

	"github.com/zatekoja/gymscheduler/internal/api/handlers"
	"github.com/zatekoja/gymscheduler/internal/api/middleware"
	"github.com/zatekoja/gymscheduler/internal/infrastructure/observability"
)

// Router holds all route handlers
type Router struct {
	mux *http.ServeMux

	appointmentHandler  *handlers.AppointmentHandler
	scheduleHandler     *handlers.ScheduleHandler
	notificationHandler *handlers.NotificationHandler
	settingsHandler     *handlers.SettingsHandler

	streamHandler  *handlers.StreamHandler
	metricsHandler http.Handler
	allowedOrigins []string
	metrics        *observability.Metrics
}

// NewRouter creates a new router
func NewRouter(
	appointmentHandler *handlers.AppointmentHandler,
	scheduleHandler *handlers.ScheduleHandler,
	notificationHandler *handlers.NotificationHandler,
	settingsHandler *handlers.SettingsHandler,
	allowedOrigins []string,
	metrics *observability.Metrics,
) *Router {
	return &Router{
		mux:                 http.NewServeMux(),
		appointmentHandler:  appointmentHandler,
		scheduleHandler:     scheduleHandler,
		notificationHandler: notificationHandler,
		settingsHandler:     settingsHandler,
		allowedOrigins:      allowedOrigins,
		metrics:             metrics,
	}
}

// SetMetricsHandler exposes a scrape endpoint on /metrics
func (r *Router) SetMetricsHandler(h http.Handler) {
	r.metricsHandler = h
}

// SetStreamHandler exposes the appointment event stream
func (r *Router) SetStreamHandler(h *handlers.StreamHandler) {
	r.streamHandler = h
}

// SetupRoutes configures all application routes
func (r *Router) SetupRoutes() http.Handler {
	r.mux.HandleFunc("GET /health", func(w http.ResponseWriter, req *http.Request) {
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write([]byte("OK")); err != nil {
			return
		}
	})

	if r.metricsHandler != nil {
		r.mux.Handle("GET /metrics", r.metricsHandler)
	}

	// Appointment endpoints
	r.mux.HandleFunc("GET /api/appointments", r.appointmentHandler.ListAppointments)
	r.mux.HandleFunc("POST /api/appointments", r.appointmentHandler.BookAppointment)
	r.mux.HandleFunc("PUT /api/appointments/{id}/cancel", r.appointmentHandler.CancelAppointment)
	r.mux.HandleFunc("DELETE /api/appointments/week/{week_start_date}", r.appointmentHandler.ClearWeek)

	// Batch scheduling
	r.mux.HandleFunc("POST /api/appointments/auto-schedule", r.scheduleHandler.AutoSchedule)
	r.mux.HandleFunc("POST /api/appointments/auto-resolve", r.scheduleHandler.AutoResolve)
	r.mux.HandleFunc("GET /api/schedule-reports/{week_start_date}", r.scheduleHandler.GetScheduleReport)

	// Notifications
	r.mux.HandleFunc("GET /api/clients/{id}/notifications", r.notificationHandler.ListClientNotifications)
	r.mux.HandleFunc("PUT /api/notifications/{id}/read", r.notificationHandler.MarkNotificationRead)

	// System settings
	r.mux.HandleFunc("GET /api/system/week", r.settingsHandler.GetSystemWeek)
	r.mux.HandleFunc("PUT /api/system/week", r.settingsHandler.SetSystemWeek)

	if r.streamHandler != nil {
		r.mux.HandleFunc("GET /api/stream/appointments", r.streamHandler.StreamAppointments)
	}

	// Apply middleware in reverse order (last middleware wraps first)
	var handler http.Handler = r.mux
	handler = middleware.LoggingMiddleware(handler)
	handler = middleware.ObservabilityMiddleware(r.metrics)(handler)
	handler = middleware.CORSMiddleware(r.allowedOrigins)(handler)

	return handler
}
