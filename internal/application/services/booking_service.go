package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/zatekoja/gymscheduler/internal/domain/entities"
	"github.com/zatekoja/gymscheduler/internal/domain/providers"
	"github.com/zatekoja/gymscheduler/internal/domain/repositories"
	"github.com/zatekoja/gymscheduler/internal/infrastructure/metrics"
	"github.com/zatekoja/gymscheduler/internal/infrastructure/observability"
	"github.com/zatekoja/gymscheduler/pkg/config"
	apperrors "github.com/zatekoja/gymscheduler/pkg/errors"
)

// BookRequest is a direct booking request
type BookRequest struct {
	TrainerID int64  `json:"trainer_id"`
	ClientID  int64  `json:"client_id"`
	StartTime string `json:"start_time"`
}

// ClearWeekResult reports how many appointments a week clear removed
type ClearWeekResult struct {
	WeekStart    string `json:"week_start_date"`
	DeletedCount int64  `json:"deleted_count"`
}

// BookingService handles direct bookings and cancellations
type BookingService struct {
	uow           repositories.UnitOfWork
	rules         config.SchedulingConfig
	limits        CapacityLimits
	notifications *NotificationService
	eventBus      providers.EventBus
	now           func() time.Time
}

// NewBookingService creates a new booking service
func NewBookingService(uow repositories.UnitOfWork, rules config.SchedulingConfig, notifications *NotificationService) *BookingService {
	return &BookingService{
		uow:           uow,
		rules:         rules,
		limits:        LimitsFromConfig(rules),
		notifications: notifications,
		now:           time.Now,
	}
}

// SetEventBus enables appointment event publishing
func (s *BookingService) SetEventBus(bus providers.EventBus) {
	s.eventBus = bus
}

// SetClock replaces the wall clock used for the past-date guard
func (s *BookingService) SetClock(now func() time.Time) {
	s.now = now
}

// Book creates a confirmed appointment after checking every booking rule.
func (s *BookingService) Book(ctx context.Context, req BookRequest) (*entities.Appointment, error) {
	ctx, span := observability.StartSpan(ctx, "BookingService.Book",
		attribute.Int64("client.id", req.ClientID),
		attribute.Int64("trainer.id", req.TrainerID),
		attribute.String("appointment.start_time", req.StartTime),
	)
	defer span.End()

	start, err := entities.ParseTimestamp(req.StartTime)
	if err != nil {
		return nil, s.bookingFailed(span, apperrors.NewValidationError(err.Error()))
	}

	var (
		appt    *entities.Appointment
		client  *entities.Client
		trainer *entities.Trainer
	)
	err = s.uow.Do(ctx, func(ctx context.Context, sess repositories.Session) error {
		var err error
		if client, err = sess.Clients().GetByID(ctx, req.ClientID); err != nil {
			return err
		}
		if trainer, err = sess.Trainers().GetByID(ctx, req.TrainerID); err != nil {
			return err
		}
		if err := s.checkTime(start); err != nil {
			return err
		}

		exists, err := sess.Appointments().ExistsActiveByClientAt(ctx, client.ID, start)
		if err != nil {
			return err
		}
		if exists {
			return apperrors.NewDuplicateBookingError("You already have a booking at this time.")
		}

		quota := NewQuotaTracker(sess.Appointments())
		if err := quota.CheckCredits(client); err != nil {
			return err
		}
		if err := NewCapacityEvaluator(sess.Appointments(), s.limits).CheckBooking(ctx, trainer.ID, start); err != nil {
			return err
		}
		if err := quota.CheckWeeklyLimit(ctx, client, entities.WeekStartOf(start)); err != nil {
			return err
		}

		appt, err = bookAppointment(ctx, sess, client, trainer.ID, start)
		return err
	})
	if err != nil {
		return nil, s.bookingFailed(span, asAppError(err, "failed to book appointment"))
	}

	metrics.IncBooking("success")
	observability.LoggerFromContext(ctx).Info().
		Int64("appointment_id", appt.ID).
		Int64("client_id", appt.ClientID).
		Int64("trainer_id", appt.TrainerID).
		Str("start_time", entities.FormatTimestamp(appt.StartTime)).
		Msg("Appointment booked")

	s.publish(ctx, entities.NewAppointmentEvent(entities.AppointmentEventBooked, appt))
	if s.notifications != nil {
		s.notifications.SendBookingConfirmation(ctx, appt, client, trainer)
	}
	return appt, nil
}

func (s *BookingService) checkTime(start time.Time) error {
	if !s.rules.AllowPastBookings && entities.DayStart(start).Before(entities.DayStart(entities.Naive(s.now()))) {
		return apperrors.NewValidationError("Cannot book appointments in the past.")
	}
	if s.rules.EnforceClientHours && len(s.rules.ClientHourWindows) > 0 {
		for _, w := range s.rules.ClientHourWindows {
			if w.Contains(start.Hour()) {
				return nil
			}
		}
		return apperrors.NewValidationError(clientHoursMessage(s.rules.ClientHourWindows))
	}
	return nil
}

func clientHoursMessage(windows []config.HourWindow) string {
	parts := make([]string, 0, len(windows))
	for _, w := range windows {
		parts = append(parts, fmt.Sprintf("%02d:00-%02d:00", w.From, w.To))
	}
	return fmt.Sprintf("Clients can only book between %s.", strings.Join(parts, " or "))
}

// bookingFailed records the rejection and returns err.
func (s *BookingService) bookingFailed(span trace.Span, err error) error {
	result := "error"
	if appErr, ok := apperrors.As(err); ok {
		result = strings.ToLower(string(appErr.Type))
	}
	metrics.IncBooking(result)
	observability.RecordError(span, err)
	return err
}

// Cancel cancels an appointment and refunds one credit to its client.
func (s *BookingService) Cancel(ctx context.Context, appointmentID int64) (*entities.Appointment, error) {
	ctx, span := observability.StartSpan(ctx, "BookingService.Cancel", attribute.Int64("appointment.id", appointmentID))
	defer span.End()

	var appt *entities.Appointment
	err := s.uow.Do(ctx, func(ctx context.Context, sess repositories.Session) error {
		var err error
		appt, err = cancelAppointment(ctx, sess, appointmentID)
		return err
	})
	if err != nil {
		err = asAppError(err, "failed to cancel appointment")
		observability.RecordError(span, err)
		return nil, err
	}

	metrics.IncCancellation()
	observability.LoggerFromContext(ctx).Info().
		Int64("appointment_id", appt.ID).
		Int64("client_id", appt.ClientID).
		Msg("Appointment cancelled")

	s.publish(ctx, entities.NewAppointmentEvent(entities.AppointmentEventCancelled, appt))
	return appt, nil
}

// ClearWeek deletes every appointment of the week without refunding credits.
func (s *BookingService) ClearWeek(ctx context.Context, weekStartDate string) (*ClearWeekResult, error) {
	weekStart, err := entities.ParseWeekStart(weekStartDate)
	if err != nil {
		return nil, apperrors.NewValidationError(err.Error())
	}

	var deleted int64
	err = s.uow.Do(ctx, func(ctx context.Context, sess repositories.Session) error {
		var err error
		deleted, err = sess.Appointments().DeleteBetween(ctx, weekStart, entities.WeekEnd(weekStart))
		return err
	})
	if err != nil {
		return nil, asAppError(err, "failed to clear week")
	}

	observability.LoggerFromContext(ctx).Info().
		Str("week_start_date", weekStartDate).
		Int64("deleted_count", deleted).
		Msg("Week cleared")

	event := entities.NewAppointmentEvent(entities.AppointmentEventWeekCleared, nil)
	event.WeekStart = weekStartDate
	event.Count = deleted
	s.publish(ctx, event)

	return &ClearWeekResult{WeekStart: weekStartDate, DeletedCount: deleted}, nil
}

// ListAppointments returns appointments matching filter ordered by start time
func (s *BookingService) ListAppointments(ctx context.Context, filter repositories.AppointmentFilter) ([]*entities.Appointment, error) {
	var out []*entities.Appointment
	err := s.uow.Do(ctx, func(ctx context.Context, sess repositories.Session) error {
		var err error
		out, err = sess.Appointments().List(ctx, filter)
		return err
	})
	if err != nil {
		return nil, asAppError(err, "failed to list appointments")
	}
	if out == nil {
		out = []*entities.Appointment{}
	}
	return out, nil
}

func (s *BookingService) publish(ctx context.Context, event *entities.AppointmentEvent) {
	publishEvent(ctx, s.eventBus, event)
}

// publishEvent is fire-and-forget: failures are logged only.
func publishEvent(ctx context.Context, bus providers.EventBus, event *entities.AppointmentEvent) {
	if bus == nil {
		return
	}
	if err := bus.Publish(ctx, providers.EventChannelAppointments, event); err != nil {
		observability.LoggerFromContext(ctx).Warn().
			Err(err).
			Str("event_type", string(event.EventType)).
			Msg("Failed to publish appointment event")
	}
}
