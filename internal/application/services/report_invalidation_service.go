package services

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/zatekoja/gymscheduler/internal/domain/entities"
	"github.com/zatekoja/gymscheduler/internal/domain/providers"
)

// ReportInvalidationService drops the cached schedule report of a week once
// that week is cleared, so the report endpoint never describes deleted bookings.
type ReportInvalidationService struct {
	cache    providers.CacheProvider
	eventBus providers.EventBus
	ctx      context.Context
	cancel   context.CancelFunc
	done     chan struct{}
}

// NewReportInvalidationService creates a new report invalidation service
func NewReportInvalidationService(cache providers.CacheProvider, eventBus providers.EventBus) *ReportInvalidationService {
	ctx, cancel := context.WithCancel(context.Background())
	return &ReportInvalidationService{
		cache:    cache,
		eventBus: eventBus,
		ctx:      ctx,
		cancel:   cancel,
		done:     make(chan struct{}),
	}
}

// Start begins listening for ledger events
func (s *ReportInvalidationService) Start() error {
	eventChan, err := s.eventBus.Subscribe(s.ctx, providers.EventChannelAppointments)
	if err != nil {
		close(s.done)
		return fmt.Errorf("failed to subscribe to appointment events: %w", err)
	}

	go s.processEvents(eventChan)
	log.Info().Msg("Report invalidation service started")
	return nil
}

// Stop stops listening and waits for the worker to exit
func (s *ReportInvalidationService) Stop() {
	s.cancel()
	<-s.done
	log.Info().Msg("Report invalidation service stopped")
}

func (s *ReportInvalidationService) processEvents(eventChan <-chan *entities.AppointmentEvent) {
	defer close(s.done)
	for {
		select {
		case <-s.ctx.Done():
			return
		case event, ok := <-eventChan:
			if !ok {
				return
			}
			if event != nil && event.EventType == entities.AppointmentEventWeekCleared {
				s.handleWeekCleared(event)
			}
		}
	}
}

func (s *ReportInvalidationService) handleWeekCleared(event *entities.AppointmentEvent) {
	ctx, cancel := context.WithTimeout(s.ctx, 5*time.Second)
	defer cancel()

	if err := s.InvalidateWeek(ctx, event.WeekStart); err != nil {
		log.Warn().Err(err).Str("week_start_date", event.WeekStart).Msg("Failed to invalidate schedule report")
	}
}

// InvalidateWeek removes the cached schedule report of weekStart
func (s *ReportInvalidationService) InvalidateWeek(ctx context.Context, weekStart string) error {
	if weekStart == "" {
		return nil
	}
	if err := s.cache.Delete(ctx, scheduleReportKey(weekStart)); err != nil {
		return fmt.Errorf("failed to delete schedule report: %w", err)
	}
	log.Debug().Str("week_start_date", weekStart).Msg("Invalidated schedule report")
	return nil
}
