package services

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/zatekoja/gymscheduler/internal/domain/entities"
	"github.com/zatekoja/gymscheduler/internal/domain/providers"
	"github.com/zatekoja/gymscheduler/internal/domain/repositories"
	"github.com/zatekoja/gymscheduler/internal/infrastructure/metrics"
	"github.com/zatekoja/gymscheduler/internal/infrastructure/observability"
	apperrors "github.com/zatekoja/gymscheduler/pkg/errors"
)

// ResolverService frees desired slots by moving one blocking appointment elsewhere
type ResolverService struct {
	uow      repositories.UnitOfWork
	limits   CapacityLimits
	eventBus providers.EventBus
}

// NewResolverService creates a new resolver service
func NewResolverService(uow repositories.UnitOfWork, limits CapacityLimits) *ResolverService {
	return &ResolverService{uow: uow, limits: limits}
}

// SetEventBus enables appointment event publishing
func (s *ResolverService) SetEventBus(bus providers.EventBus) {
	s.eventBus = bus
}

type relocation struct {
	detail   entities.ResolutionDetail
	booked   *entities.Appointment
	moved    *entities.Appointment
	previous time.Time
}

// RunAutoResolve makes a single pass over clients still under quota. For each unbooked default
// slot that no trainer can take as is, it looks for a blocker, in appointment ID order, whose client has another default slot
// that a trainer can take this week. The first match is moved and the waiting client takes the
// vacated place with the same trainer. Chains of moves are never attempted.
func (s *ResolverService) RunAutoResolve(ctx context.Context, weekStartDate string) (*entities.ResolveReport, error) {
	weekStart, err := entities.ParseWeekStart(weekStartDate)
	if err != nil {
		return nil, apperrors.NewValidationError(err.Error())
	}

	ctx, span := observability.StartSpan(ctx, "ResolverService.RunAutoResolve", attribute.String("week_start_date", weekStartDate))
	defer span.End()
	ctx = observability.WithRun(ctx, "auto_resolve", weekStartDate)
	logger := observability.LoggerFromContext(ctx)
	started := time.Now()

	clients, trainers, err := loadRoster(ctx, s.uow)
	if err != nil {
		observability.RecordError(span, err)
		return nil, err
	}
	slotsByClient := make(map[int64][]entities.DefaultSlot, len(clients))
	for _, c := range clients {
		slotsByClient[c.ID] = c.DefaultSlots
	}

	report := &entities.ResolveReport{WeekStart: weekStartDate, Details: []entities.ResolutionDetail{}}

	for _, client := range clients {
		for _, slot := range client.DefaultSlots {
			if err := ctx.Err(); err != nil {
				observability.RecordError(span, err)
				return nil, apperrors.NewInternalError("auto-resolve interrupted", err)
			}

			desired, err := slot.Timestamp(weekStart)
			if err != nil {
				continue
			}

			moved, err := s.resolveSlot(ctx, client.ID, slot, desired, weekStart, trainers, slotsByClient)
			if err != nil {
				err = asAppError(err, "failed to auto-resolve")
				observability.RecordError(span, err)
				return nil, err
			}
			if moved == nil {
				continue
			}

			report.ResolvedCount++
			report.Details = append(report.Details, moved.detail)
			metrics.IncRelocation()

			relocated := entities.NewAppointmentEvent(entities.AppointmentEventRelocated, moved.moved)
			relocated.PreviousStart = entities.FormatTimestamp(moved.previous)
			publishEvent(ctx, s.eventBus, relocated)
			publishEvent(ctx, s.eventBus, entities.NewAppointmentEvent(entities.AppointmentEventBooked, moved.booked))

			logger.Debug().
				Int64("client_id", client.ID).
				Str("slot", slot.Label()).
				Int64("moved_appointment_id", moved.moved.ID).
				Msg("Resolved default slot")
		}
	}

	metrics.ObserveRun("resolve", time.Since(started).Seconds())
	observability.SetSpanAttributes(span, attribute.Int("resolve.resolved_count", report.ResolvedCount))
	logger.Info().
		Str("week_start_date", weekStartDate).
		Int("resolved_count", report.ResolvedCount).
		Msg("Auto-resolve finished")

	return report, nil
}

// resolveSlot tries one desired slot inside a single unit of work. It returns nil when nothing moved.
func (s *ResolverService) resolveSlot(
	ctx context.Context,
	clientID int64,
	slot entities.DefaultSlot,
	desired, weekStart time.Time,
	trainers []*entities.Trainer,
	slotsByClient map[int64][]entities.DefaultSlot,
) (*relocation, error) {
	var result *relocation
	err := s.uow.Do(ctx, func(ctx context.Context, sess repositories.Session) error {
		client, err := sess.Clients().GetByID(ctx, clientID)
		if err != nil {
			return err
		}

		appointments := sess.Appointments()
		booked, err := appointments.ExistsActiveByClientAt(ctx, client.ID, desired)
		if err != nil || booked {
			return err
		}
		quota := NewQuotaTracker(appointments)
		if quota.CheckCredits(client) != nil {
			return nil
		}
		remaining, err := quota.RemainingQuota(ctx, client, weekStart)
		if err != nil || remaining <= 0 {
			return err
		}

		// a slot that still has room is left to the scheduler; nobody is moved for it
		evaluator := NewCapacityEvaluator(appointments, s.limits)
		free, err := evaluator.Candidates(ctx, trainers, slot.DayOfWeek, desired)
		if err != nil || len(free) > 0 {
			return err
		}

		blockers, err := appointments.ListActiveAt(ctx, desired)
		if err != nil {
			return err
		}

		for _, blocker := range blockers {
			if blocker.ClientID == client.ID {
				continue
			}
			alt, trainer, err := s.findAlternative(ctx, evaluator, appointments, blocker, slot, desired, weekStart, trainers, slotsByClient[blocker.ClientID])
			if err != nil {
				return err
			}
			if trainer == nil {
				continue
			}

			vacatedTrainer := blocker.TrainerID
			previous := blocker.StartTime
			if err := relocateAppointment(ctx, sess, blocker, trainer.ID, alt); err != nil {
				return err
			}
			appt, err := bookAppointment(ctx, sess, client, vacatedTrainer, desired)
			if err != nil {
				return err
			}

			result = &relocation{
				booked:   appt,
				moved:    blocker,
				previous: previous,
				detail: entities.ResolutionDetail{
					ClientID:           client.ID,
					Client:             client.DisplayName(),
					Slot:               slot.Label(),
					AppointmentID:      appt.ID,
					TrainerID:          vacatedTrainer,
					Timestamp:          entities.FormatTimestamp(desired),
					MovedAppointmentID: blocker.ID,
					MovedClientID:      blocker.ClientID,
					MovedClient:        blocker.ClientName,
					MovedToTrainerID:   trainer.ID,
					MovedToTimestamp:   entities.FormatTimestamp(alt),
				},
			}
			return nil
		}
		return nil
	})
	return result, err
}

// findAlternative scans the blocking client's other default slots in stored order and returns the
// first timestamp some trainer can take, with the lowest-ID such trainer.
func (s *ResolverService) findAlternative(
	ctx context.Context,
	evaluator *CapacityEvaluator,
	appointments repositories.AppointmentRepository,
	blocker *entities.Appointment,
	desiredSlot entities.DefaultSlot,
	desired, weekStart time.Time,
	trainers []*entities.Trainer,
	blockerSlots []entities.DefaultSlot,
) (time.Time, *entities.Trainer, error) {
	for _, alt := range blockerSlots {
		if alt.SameAs(desiredSlot) {
			continue
		}
		altTS, err := alt.Timestamp(weekStart)
		if err != nil || altTS.Equal(desired) {
			continue
		}

		taken, err := appointments.ExistsActiveByClientAt(ctx, blocker.ClientID, altTS)
		if err != nil {
			return time.Time{}, nil, err
		}
		if taken {
			continue
		}

		gym, err := evaluator.GymLoad(ctx, altTS)
		if err != nil {
			return time.Time{}, nil, err
		}
		if gym >= s.limits.GymCapacity {
			continue
		}

		for _, trainer := range trainers {
			if !evaluator.ShiftCovers(trainer, alt.DayOfWeek, altTS) {
				continue
			}
			ok, err := evaluator.CanAssign(ctx, trainer.ID, altTS)
			if err != nil {
				return time.Time{}, nil, err
			}
			if ok {
				return altTS, trainer, nil
			}
		}
	}
	return time.Time{}, nil, nil
}
