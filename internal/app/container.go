package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/zatekoja/gymscheduler/internal/adapters/cache"
	"github.com/zatekoja/gymscheduler/internal/adapters/database"
	"github.com/zatekoja/gymscheduler/internal/adapters/events"
	"github.com/zatekoja/gymscheduler/internal/adapters/memory"
	"github.com/zatekoja/gymscheduler/internal/application/services"
	"github.com/zatekoja/gymscheduler/internal/domain/entities"
	"github.com/zatekoja/gymscheduler/internal/domain/providers"
	"github.com/zatekoja/gymscheduler/internal/domain/repositories"
	"github.com/zatekoja/gymscheduler/internal/infrastructure/clients/postgres"
	"github.com/zatekoja/gymscheduler/internal/infrastructure/clients/redis"
	"github.com/zatekoja/gymscheduler/internal/infrastructure/notifications"
	"github.com/zatekoja/gymscheduler/internal/infrastructure/observability"
	"github.com/zatekoja/gymscheduler/pkg/config"
)

const (
	StorageDriverPostgres = "postgres"
	StorageDriverMemory   = "memory"

	cachePrefix = "gym"
)

// Container owns the storage, cache and service graph of one process
type Container struct {
	Config *config.Config

	UnitOfWork repositories.UnitOfWork
	Postgres   *postgres.Client
	Memory     *memory.Store
	Cache      providers.CacheProvider
	EventBus   providers.EventBus

	Notifications *services.NotificationService
	Booking       *services.BookingService
	Scheduler     *services.SchedulerService
	Resolver      *services.ResolverService
	Settings      *services.SettingsService
	Reports       *services.ReportCache

	closers []func() error
}

// New connects storage and builds the services. metrics may be nil.
func New(cfg *config.Config, metrics *observability.Metrics) (*Container, error) {
	c := &Container{Config: cfg}

	switch cfg.App.StorageDriver {
	case StorageDriverMemory:
		c.Memory = memory.NewStore()
		c.UnitOfWork = c.Memory
		log.Warn().Msg("Using in-memory storage; data is lost on exit")
	case StorageDriverPostgres, "":
		pgClient, err := postgres.NewClient(&cfg.Database)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize PostgreSQL client: %w", err)
		}
		c.Postgres = pgClient
		c.closers = append(c.closers, pgClient.Close)

		uow := database.NewUnitOfWork(pgClient)
		uow.SetMetrics(metrics)
		c.UnitOfWork = uow
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.App.StorageDriver)
	}

	c.Cache = cache.NewMemoryCache()
	if cfg.Redis.Enabled {
		redisClient, err := redis.NewClient(&cfg.Redis)
		if err != nil {
			log.Warn().Err(err).Msg("Redis unavailable; using in-process cache and no event bus")
		} else {
			c.closers = append(c.closers, redisClient.Close)
			c.Cache = cache.NewRedisAdapter(redisClient, cachePrefix)

			bus := events.NewRedisEventBus(redisClient)
			c.EventBus = bus
			c.closers = append(c.closers, bus.Close)
		}
	}

	limits := services.LimitsFromConfig(cfg.Scheduling)

	c.Notifications = services.NewNotificationService(c.UnitOfWork, notifications.NewMessenger(cfg.WhatsApp))
	c.Reports = services.NewReportCache(c.Cache)
	c.Reports.SetMetrics(metrics)

	c.Booking = services.NewBookingService(c.UnitOfWork, cfg.Scheduling, c.Notifications)
	c.Scheduler = services.NewSchedulerService(c.UnitOfWork, limits, c.Notifications)
	c.Scheduler.SetReportCache(c.Reports)
	c.Resolver = services.NewResolverService(c.UnitOfWork, limits)
	c.Settings = services.NewSettingsService(c.UnitOfWork, c.Cache)

	if c.EventBus != nil {
		c.Booking.SetEventBus(c.EventBus)
		c.Scheduler.SetEventBus(c.EventBus)
		c.Resolver.SetEventBus(c.EventBus)

		invalidator := services.NewReportInvalidationService(c.Cache, c.EventBus)
		if err := invalidator.Start(); err != nil {
			log.Warn().Err(err).Msg("Schedule reports will not be invalidated on week clear")
		} else {
			c.closers = append(c.closers, func() error {
				invalidator.Stop()
				return nil
			})
		}
	}

	return c, nil
}

// Migrate applies the database schema. It is a no-op for the memory driver.
func (c *Container) Migrate(ctx context.Context) error {
	if c.Postgres == nil {
		return nil
	}
	return database.Migrate(ctx, c.Postgres.DB())
}

// Seed loads a roster into the configured storage
func (c *Container) Seed(ctx context.Context, roster *entities.Roster, reset bool) (err error) {
	if c.Memory != nil {
		c.Memory.Seed(roster)
		return nil
	}

	tx, err := c.Postgres.BeginTx(ctx)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			if rbErr := tx.Rollback(); rbErr != nil {
				log.Error().Err(rbErr).Msg("Failed to roll back seed")
			}
		}
	}()

	if err = database.SeedRoster(ctx, tx, roster, reset); err != nil {
		return err
	}
	return tx.Commit()
}

// Close releases connections in reverse order of creation
func (c *Container) Close() error {
	var errs []error
	for i := len(c.closers) - 1; i >= 0; i-- {
		if err := c.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
