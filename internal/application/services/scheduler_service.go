package services

import (
	"context"
	"sort"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/zatekoja/gymscheduler/internal/domain/entities"
	"github.com/zatekoja/gymscheduler/internal/domain/providers"
	"github.com/zatekoja/gymscheduler/internal/domain/repositories"
	"github.com/zatekoja/gymscheduler/internal/infrastructure/metrics"
	"github.com/zatekoja/gymscheduler/internal/infrastructure/observability"
	apperrors "github.com/zatekoja/gymscheduler/pkg/errors"
)

type assignmentOutcome int

const (
	outcomeBooked assignmentOutcome = iota
	outcomeAlreadyBooked
	outcomeQuotaExceeded
	outcomeNoCredits
	outcomeNoTrainer
)

// SchedulerService books every client's default slots for a week
type SchedulerService struct {
	uow           repositories.UnitOfWork
	limits        CapacityLimits
	notifications *NotificationService
	reports       *ReportCache
	eventBus      providers.EventBus
}

// NewSchedulerService creates a new scheduler service
func NewSchedulerService(uow repositories.UnitOfWork, limits CapacityLimits, notifications *NotificationService) *SchedulerService {
	return &SchedulerService{uow: uow, limits: limits, notifications: notifications}
}

// SetReportCache keeps the last report of each week readable after a run
func (s *SchedulerService) SetReportCache(reports *ReportCache) {
	s.reports = reports
}

// SetEventBus enables appointment event publishing
func (s *SchedulerService) SetEventBus(bus providers.EventBus) {
	s.eventBus = bus
}

// RunAutoSchedule walks clients in ascending ID order and books each default slot with the
// lowest-ID trainer that can take it. Every assignment commits on its own, so later slots see
// earlier bookings. Rule failures end up in the report; only infrastructure errors abort the run.
func (s *SchedulerService) RunAutoSchedule(ctx context.Context, weekStartDate string) (*entities.ScheduleReport, error) {
	weekStart, err := entities.ParseWeekStart(weekStartDate)
	if err != nil {
		return nil, apperrors.NewValidationError(err.Error())
	}

	ctx, span := observability.StartSpan(ctx, "SchedulerService.RunAutoSchedule", attribute.String("week_start_date", weekStartDate))
	defer span.End()
	ctx = observability.WithRun(ctx, "auto_schedule", weekStartDate)
	logger := observability.LoggerFromContext(ctx)
	started := time.Now()

	clients, trainers, err := loadRoster(ctx, s.uow)
	if err != nil {
		observability.RecordError(span, err)
		return nil, err
	}

	report := &entities.ScheduleReport{
		WeekStart:           weekStartDate,
		FailedAssignments:   []entities.FailedAssignment{},
		NonCriticalFailures: []entities.FailedAssignment{},
	}
	var failures []entities.FailedAssignment

	for _, client := range clients {
		for _, slot := range client.DefaultSlots {
			if err := ctx.Err(); err != nil {
				observability.RecordError(span, err)
				return nil, apperrors.NewInternalError("auto-schedule interrupted", err)
			}

			failure := entities.FailedAssignment{
				ClientID: client.ID,
				Client:   client.DisplayName(),
				Slot:     slot.Label(),
			}

			target, err := slot.Timestamp(weekStart)
			if err != nil {
				failure.Reason = entities.ReasonInvalidSlot
				failures = append(failures, failure)
				metrics.IncAssignment("invalid_slot")
				continue
			}
			failure.Timestamp = entities.FormatTimestamp(target)

			outcome, appt, err := s.assign(ctx, client.ID, slot, target, weekStart, trainers)
			if err != nil {
				err = asAppError(err, "failed to auto-schedule")
				observability.RecordError(span, err)
				return nil, err
			}

			logger.Debug().
				Int64("client_id", client.ID).
				Str("slot", slot.Label()).
				Int("outcome", int(outcome)).
				Msg("Processed default slot")

			switch outcome {
			case outcomeBooked:
				report.SuccessCount++
				metrics.IncAssignment("booked")
				publishEvent(ctx, s.eventBus, entities.NewAppointmentEvent(entities.AppointmentEventBooked, appt))
			case outcomeAlreadyBooked:
				metrics.IncAssignment("skipped")
			case outcomeQuotaExceeded:
				failure.Reason = entities.ReasonQuotaExceeded
				failures = append(failures, failure)
				metrics.IncAssignment("quota_exceeded")
			case outcomeNoCredits:
				failure.Reason = entities.ReasonNoCredits
				failures = append(failures, failure)
				metrics.IncAssignment("no_credits")
			case outcomeNoTrainer:
				failure.Reason = entities.ReasonNoTrainer
				failures = append(failures, failure)
				metrics.IncAssignment("no_trainer")
				if s.notifications != nil {
					if err := s.notifications.NotifyScheduleFailure(ctx, client, slot); err != nil {
						logger.Warn().Err(err).Int64("client_id", client.ID).Msg("Failed to store schedule failure notification")
					}
				}
			}
		}
	}

	if err := s.classify(ctx, report, clients, failures, weekStart); err != nil {
		observability.RecordError(span, err)
		return nil, err
	}

	metrics.ObserveRun("schedule", time.Since(started).Seconds())
	observability.SetSpanAttributes(span,
		attribute.Int("schedule.success_count", report.SuccessCount),
		attribute.Int("schedule.total_failures", report.TotalFailures),
	)
	logger.Info().
		Str("week_start_date", weekStartDate).
		Int("success_count", report.SuccessCount).
		Int("critical_failures", len(report.FailedAssignments)).
		Int("total_failures", report.TotalFailures).
		Msg("Auto-schedule finished")

	if s.reports != nil {
		if err := s.reports.Store(ctx, report); err != nil {
			logger.Warn().Err(err).Msg("Failed to cache schedule report")
		}
	}
	return report, nil
}

// assign runs one (client, slot) assignment in its own unit of work.
func (s *SchedulerService) assign(ctx context.Context, clientID int64, slot entities.DefaultSlot, target, weekStart time.Time, trainers []*entities.Trainer) (assignmentOutcome, *entities.Appointment, error) {
	var (
		outcome assignmentOutcome
		appt    *entities.Appointment
	)
	err := s.uow.Do(ctx, func(ctx context.Context, sess repositories.Session) error {
		client, err := sess.Clients().GetByID(ctx, clientID)
		if err != nil {
			return err
		}

		quota := NewQuotaTracker(sess.Appointments())
		remaining, err := quota.RemainingQuota(ctx, client, weekStart)
		if err != nil {
			return err
		}
		if remaining <= 0 {
			outcome = outcomeQuotaExceeded
			return nil
		}
		if quota.CheckCredits(client) != nil {
			outcome = outcomeNoCredits
			return nil
		}

		exists, err := sess.Appointments().ExistsActiveByClientAt(ctx, client.ID, target)
		if err != nil {
			return err
		}
		if exists {
			outcome = outcomeAlreadyBooked
			return nil
		}

		candidates, err := NewCapacityEvaluator(sess.Appointments(), s.limits).Candidates(ctx, trainers, slot.DayOfWeek, target)
		if err != nil {
			return err
		}
		if len(candidates) == 0 {
			outcome = outcomeNoTrainer
			return nil
		}

		appt, err = bookAppointment(ctx, sess, client, candidates[0].ID, target)
		if err != nil {
			return err
		}
		outcome = outcomeBooked
		return nil
	})
	return outcome, appt, err
}

// classify splits failures into critical ones (client still under quota) and non-critical ones.
func (s *SchedulerService) classify(ctx context.Context, report *entities.ScheduleReport, clients []*entities.Client, failures []entities.FailedAssignment, weekStart time.Time) error {
	limits := make(map[int64]int, len(clients))
	for _, c := range clients {
		limits[c.ID] = c.WeeklyLimit
	}

	counts := make(map[int64]int)
	err := s.uow.Do(ctx, func(ctx context.Context, sess repositories.Session) error {
		quota := NewQuotaTracker(sess.Appointments())
		for _, f := range failures {
			if _, ok := counts[f.ClientID]; ok {
				continue
			}
			n, err := quota.WeeklyCount(ctx, f.ClientID, weekStart)
			if err != nil {
				return err
			}
			counts[f.ClientID] = n
		}
		return nil
	})
	if err != nil {
		return asAppError(err, "failed to classify schedule failures")
	}

	for _, f := range failures {
		if counts[f.ClientID] < limits[f.ClientID] {
			report.FailedAssignments = append(report.FailedAssignments, f)
		} else {
			report.NonCriticalFailures = append(report.NonCriticalFailures, f)
		}
	}
	report.TotalFailures = len(failures)
	return nil
}

// loadRoster reads the clients with default slots and all trainers, both by ascending ID.
func loadRoster(ctx context.Context, uow repositories.UnitOfWork) ([]*entities.Client, []*entities.Trainer, error) {
	var (
		clients  []*entities.Client
		trainers []*entities.Trainer
	)
	err := uow.Do(ctx, func(ctx context.Context, sess repositories.Session) error {
		var err error
		if clients, err = sess.Clients().ListWithDefaultSlots(ctx); err != nil {
			return err
		}
		trainers, err = sess.Trainers().List(ctx)
		return err
	})
	if err != nil {
		return nil, nil, asAppError(err, "failed to load clients and trainers")
	}

	sort.Slice(clients, func(i, j int) bool { return clients[i].ID < clients[j].ID })
	sort.Slice(trainers, func(i, j int) bool { return trainers[i].ID < trainers[j].ID })
	for _, c := range clients {
		sort.SliceStable(c.DefaultSlots, func(i, j int) bool { return c.DefaultSlots[i].Position < c.DefaultSlots[j].Position })
	}
	return clients, trainers, nil
}
