package observability

import (
	"context"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel/trace"
)

// InitLogger configures the global zerolog logger. Development gets a console writer;
// everything else gets JSON with caller info. Times are RFC 3339 so log lines line up
// with the naive appointment timestamps operators search for.
func InitLogger(serviceName, env, level string) {
	zerolog.TimeFieldFormat = time.RFC3339

	lvl, err := zerolog.ParseLevel(level)
	if err != nil || level == "" {
		lvl = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(lvl)

	var base zerolog.Logger
	if env == "development" {
		base = zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.Kitchen})
	} else {
		base = zerolog.New(os.Stdout).With().Caller().Logger()
	}
	log.Logger = base.With().Timestamp().Str("service", serviceName).Str("env", env).Logger()
}

// WithRun returns a context whose logger tags every line with the batch run and its week.
func WithRun(ctx context.Context, run, weekStart string) context.Context {
	logger := baseLogger(ctx).With().
		Str("run", run).
		Str("week_start_date", weekStart).
		Logger()
	return logger.WithContext(ctx)
}

// LoggerFromContext returns the context logger (or the global one) with trace and span ids.
func LoggerFromContext(ctx context.Context) *zerolog.Logger {
	logger := baseLogger(ctx)

	if sc := trace.SpanFromContext(ctx).SpanContext(); sc.IsValid() {
		logger = logger.With().
			Str("trace_id", sc.TraceID().String()).
			Str("span_id", sc.SpanID().String()).
			Logger()
	}
	return &logger
}

func baseLogger(ctx context.Context) zerolog.Logger {
	if l := zerolog.Ctx(ctx); l.GetLevel() != zerolog.Disabled {
		return *l
	}
	return log.Logger
}
