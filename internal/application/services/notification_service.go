package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"

	"github.com/zatekoja/gymscheduler/internal/domain/entities"
	"github.com/zatekoja/gymscheduler/internal/domain/providers"
	"github.com/zatekoja/gymscheduler/internal/domain/repositories"
	"github.com/zatekoja/gymscheduler/internal/infrastructure/metrics"
	"github.com/zatekoja/gymscheduler/internal/infrastructure/observability"
	"github.com/zatekoja/gymscheduler/pkg/retry"
)

// NotificationService records in-app notifications and sends booking confirmations
type NotificationService struct {
	uow       repositories.UnitOfWork
	messenger providers.Messenger
	retryCfg  retry.Config
	now       func() time.Time
}

// NewNotificationService creates a new notification service. A nil messenger disables outbound messages.
func NewNotificationService(uow repositories.UnitOfWork, messenger providers.Messenger) *NotificationService {
	return &NotificationService{
		uow:       uow,
		messenger: messenger,
		retryCfg:  retry.DeliveryConfig(),
		now:       time.Now,
	}
}

// SetRetryConfig overrides the delivery retry budget
func (n *NotificationService) SetRetryConfig(cfg retry.Config) {
	n.retryCfg = cfg
}

// BookingContext contains the data needed to render a booking confirmation
type BookingContext struct {
	ClientName  string
	TrainerName string
	Date        string
	Time        string
}

// NotifyScheduleFailure stores an in-app notice that a default slot could not be booked.
func (n *NotificationService) NotifyScheduleFailure(ctx context.Context, client *entities.Client, slot entities.DefaultSlot) error {
	notification := &entities.Notification{
		ID:        uuid.New().String(),
		ClientID:  client.ID,
		Type:      entities.NotificationScheduleFailure,
		Channel:   entities.ChannelInApp,
		Message:   fmt.Sprintf("Could not auto-schedule %s at %s: No available trainer or gym full.", entities.DayName(slot.DayOfWeek), slot.StartTime),
		Status:    entities.NotificationStatusSent,
		CreatedAt: n.now(),
	}

	err := n.uow.Do(ctx, func(ctx context.Context, sess repositories.Session) error {
		return sess.Notifications().Create(ctx, notification)
	})
	if err != nil {
		return asAppError(err, "failed to store notification")
	}
	metrics.IncNotification(string(entities.ChannelInApp), string(entities.NotificationStatusSent))
	return nil
}

// SendBookingConfirmation sends a WhatsApp confirmation for a committed appointment.
// Delivery problems are logged and recorded on the notification, never returned.
func (n *NotificationService) SendBookingConfirmation(ctx context.Context, appt *entities.Appointment, client *entities.Client, trainer *entities.Trainer) {
	if n.messenger == nil || client.PhoneNumber == nil || *client.PhoneNumber == "" {
		return
	}

	ctx, span := observability.StartSpan(ctx, "NotificationService.SendBookingConfirmation",
		attribute.Int64("appointment.id", appt.ID),
		attribute.Int64("client.id", client.ID),
	)
	defer span.End()
	logger := observability.LoggerFromContext(ctx)

	body := renderBookingConfirmation(&BookingContext{
		ClientName:  client.DisplayName(),
		TrainerName: trainer.Name,
		Date:        appt.StartTime.Format(entities.DateLayout),
		Time:        appt.StartTime.Format(entities.ClockLayout),
	})

	notification := &entities.Notification{
		ID:        uuid.New().String(),
		ClientID:  client.ID,
		Type:      entities.NotificationBookingConfirmation,
		Channel:   entities.ChannelWhatsApp,
		Recipient: *client.PhoneNumber,
		Message:   body,
		Status:    entities.NotificationStatusPending,
		CreatedAt: n.now(),
	}
	if err := n.uow.Do(ctx, func(ctx context.Context, sess repositories.Session) error {
		return sess.Notifications().Create(ctx, notification)
	}); err != nil {
		observability.RecordError(span, err)
		logger.Warn().Err(err).Int64("appointment_id", appt.ID).Msg("Failed to create notification record")
		return
	}

	var messageID string
	sendErr := retry.DoWithLog(ctx, n.retryCfg, "whatsapp delivery", func() error {
		var err error
		messageID, err = n.messenger.SendText(ctx, notification.Recipient, body)
		return err
	}, func(attempt int, err error, next time.Duration) {
		logger.Debug().Err(err).Int("attempt", attempt).Dur("next_delay", next).Msg("Retrying WhatsApp delivery")
	})

	if sendErr != nil {
		errMsg := sendErr.Error()
		notification.Status = entities.NotificationStatusFailed
		notification.ErrorMessage = &errMsg
		observability.RecordError(span, sendErr)
		logger.Warn().Err(sendErr).Int64("appointment_id", appt.ID).Msg("Failed to send booking confirmation")
	} else {
		sentAt := n.now()
		notification.Status = entities.NotificationStatusSent
		notification.SentAt = &sentAt
		if messageID != "" {
			notification.MessageID = &messageID
		}
	}
	metrics.IncNotification(string(notification.Channel), string(notification.Status))

	if err := n.uow.Do(ctx, func(ctx context.Context, sess repositories.Session) error {
		return sess.Notifications().UpdateDelivery(ctx, notification)
	}); err != nil {
		logger.Warn().Err(err).Str("notification_id", notification.ID).Msg("Failed to update notification status")
	}
}

// ListForClient returns a client's notifications, newest first
func (n *NotificationService) ListForClient(ctx context.Context, clientID int64) ([]*entities.Notification, error) {
	var out []*entities.Notification
	err := n.uow.Do(ctx, func(ctx context.Context, sess repositories.Session) error {
		if _, err := sess.Clients().GetByID(ctx, clientID); err != nil {
			return err
		}
		var err error
		out, err = sess.Notifications().ListByClient(ctx, clientID)
		return err
	})
	if err != nil {
		return nil, asAppError(err, "failed to list notifications")
	}
	if out == nil {
		out = []*entities.Notification{}
	}
	return out, nil
}

// MarkRead flags a notification as read
func (n *NotificationService) MarkRead(ctx context.Context, id string) (*entities.Notification, error) {
	var out *entities.Notification
	err := n.uow.Do(ctx, func(ctx context.Context, sess repositories.Session) error {
		var err error
		out, err = sess.Notifications().MarkRead(ctx, id)
		return err
	})
	if err != nil {
		return nil, asAppError(err, "failed to mark notification read")
	}
	return out, nil
}

func renderBookingConfirmation(c *BookingContext) string {
	return fmt.Sprintf("💪 Gym Appointment Confirmed!\nHello %s,\nYou are booked with %s.\n📅 Date: %s\n⏰ Time: %s\nSee you there!",
		c.ClientName, c.TrainerName, c.Date, c.Time)
}
