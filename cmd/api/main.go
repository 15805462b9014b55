package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"

	"github.com/zatekoja/gymscheduler/internal/api/handlers"
	"github.com/zatekoja/gymscheduler/internal/api/routes"
	"github.com/zatekoja/gymscheduler/internal/app"
	"github.com/zatekoja/gymscheduler/internal/domain/entities"
	"github.com/zatekoja/gymscheduler/internal/infrastructure/metrics"
	"github.com/zatekoja/gymscheduler/internal/infrastructure/observability"
	"github.com/zatekoja/gymscheduler/pkg/config"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	observability.InitLogger(cfg.OTEL.ServiceName, cfg.App.Env, cfg.App.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.OTEL.Enabled && cfg.OTEL.Endpoint != "" {
		shutdown, err := observability.Setup(ctx, cfg.OTEL.ServiceName, cfg.OTEL.ServiceVersion, cfg.OTEL.Endpoint)
		if err != nil {
			log.Warn().Err(err).Msg("Failed to set up OpenTelemetry")
		} else {
			defer func() {
				ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				if err := shutdown(ctx); err != nil {
					log.Error().Err(err).Msg("Error shutting down OpenTelemetry")
				}
			}()
			log.Info().Str("endpoint", cfg.OTEL.Endpoint).Msg("OpenTelemetry initialized")
		}
	}

	otelMetrics, err := observability.InitMetrics()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize metrics")
	}

	container, err := app.New(cfg, otelMetrics)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize storage")
	}
	defer func() {
		if err := container.Close(); err != nil {
			log.Error().Err(err).Msg("Error closing connections")
		}
	}()

	if cfg.App.SeedFile != "" {
		if err := seedFromFile(ctx, container, cfg.App.SeedFile); err != nil {
			log.Fatal().Err(err).Str("file", cfg.App.SeedFile).Msg("Failed to seed roster")
		}
	}

	router := routes.NewRouter(
		handlers.NewAppointmentHandler(container.Booking),
		handlers.NewScheduleHandler(container.Scheduler, container.Resolver, container.Reports),
		handlers.NewNotificationHandler(container.Notifications),
		handlers.NewSettingsHandler(container.Settings),
		cfg.App.AllowedOrigins,
		otelMetrics,
	)
	if cfg.App.MetricsEnabled {
		metrics.Register()
		router.SetMetricsHandler(metrics.Handler())
	}
	if container.EventBus != nil {
		router.SetStreamHandler(handlers.NewStreamHandler(container.EventBus))
	}

	serverAddr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	server := &http.Server{
		Addr:         serverAddr,
		Handler:      router.SetupRoutes(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info().Str("addr", serverAddr).Str("storage", cfg.App.StorageDriver).Msg("Server starting")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("Server failed to start")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("Server shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Error during server shutdown")
	}

	log.Info().Msg("Server stopped")
}

func seedFromFile(ctx context.Context, container *app.Container, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	roster, err := entities.DecodeRoster(f)
	if err != nil {
		return err
	}
	if err := container.Seed(ctx, roster, false); err != nil {
		return err
	}
	log.Info().Int("trainers", len(roster.Trainers)).Int("clients", len(roster.Clients)).Msg("Roster seeded")
	return nil
}
