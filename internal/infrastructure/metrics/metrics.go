package metrics

import (
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "gym_scheduler"

var (
	once sync.Once

	bookings = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "bookings_total",
			Help:      "Direct booking attempts by result.",
		},
		[]string{"result"},
	)

	cancellations = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cancellations_total",
			Help:      "Appointments cancelled with a credit refund.",
		},
	)

	assignments = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "schedule_assignments_total",
			Help:      "Auto-schedule unit outcomes.",
		},
		[]string{"outcome"},
	)

	relocations = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "resolver_relocations_total",
			Help:      "Blocking appointments moved by the conflict resolver.",
		},
	)

	notifications = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "notifications_total",
			Help:      "Notification records by channel and delivery status.",
		},
		[]string{"channel", "status"},
	)

	runDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "run_duration_seconds",
			Help:      "Duration of auto-schedule and auto-resolve runs.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"run"},
	)
)

// Register registers metrics on the default registry (idempotent).
func Register() {
	once.Do(func() {
		prometheus.MustRegister(bookings, cancellations, assignments, relocations, notifications, runDuration)
	})
}

// Handler serves the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}

func IncBooking(result string) {
	bookings.WithLabelValues(result).Inc()
}

func IncCancellation() {
	cancellations.Inc()
}

func IncAssignment(outcome string) {
	assignments.WithLabelValues(outcome).Inc()
}

func IncRelocation() {
	relocations.Inc()
}

func IncNotification(channel, status string) {
	notifications.WithLabelValues(channel, status).Inc()
}

func ObserveRun(run string, seconds float64) {
	runDuration.WithLabelValues(run).Observe(seconds)
}
