package memory

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/zatekoja/gymscheduler/internal/domain/entities"
	"github.com/zatekoja/gymscheduler/internal/domain/repositories"
	apperrors "github.com/zatekoja/gymscheduler/pkg/errors"
)

type appointmentRepository struct {
	data *dataset
	now  func() time.Time
}

func (r *appointmentRepository) Create(ctx context.Context, appointment *entities.Appointment) error {
	r.data.nextAppointmentID++
	appointment.ID = r.data.nextAppointmentID
	now := r.now()
	appointment.CreatedAt = now
	appointment.UpdatedAt = now
	stored := *appointment
	r.data.appointments[stored.ID] = &stored
	return nil
}

func (r *appointmentRepository) GetByID(ctx context.Context, id int64) (*entities.Appointment, error) {
	appt, ok := r.data.appointments[id]
	if !ok {
		return nil, apperrors.NewNotFoundError(fmt.Sprintf("appointment with id %d not found", id))
	}
	cp := *appt
	return &cp, nil
}

func (r *appointmentRepository) Update(ctx context.Context, appointment *entities.Appointment) error {
	stored, ok := r.data.appointments[appointment.ID]
	if !ok {
		return apperrors.NewNotFoundError(fmt.Sprintf("appointment with id %d not found", appointment.ID))
	}
	appointment.UpdatedAt = r.now()
	stored.TrainerID = appointment.TrainerID
	stored.StartTime = appointment.StartTime
	stored.Status = appointment.Status
	stored.UpdatedAt = appointment.UpdatedAt
	return nil
}

func (r *appointmentRepository) count(keep func(*entities.Appointment) bool) int {
	n := 0
	for _, a := range r.data.appointments {
		if a.IsActive() && keep(a) {
			n++
		}
	}
	return n
}

func (r *appointmentRepository) CountActiveByTrainerAt(ctx context.Context, trainerID int64, start time.Time) (int, error) {
	return r.count(func(a *entities.Appointment) bool {
		return a.TrainerID == trainerID && a.StartTime.Equal(start)
	}), nil
}

func (r *appointmentRepository) CountActiveAt(ctx context.Context, start time.Time) (int, error) {
	return r.count(func(a *entities.Appointment) bool { return a.StartTime.Equal(start) }), nil
}

func (r *appointmentRepository) CountActiveTrainersAt(ctx context.Context, start time.Time) (int, error) {
	trainers := make(map[int64]struct{})
	for _, a := range r.data.appointments {
		if a.IsActive() && a.StartTime.Equal(start) {
			trainers[a.TrainerID] = struct{}{}
		}
	}
	return len(trainers), nil
}

func (r *appointmentRepository) CountActiveByClientBetween(ctx context.Context, clientID int64, from, to time.Time) (int, error) {
	return r.count(func(a *entities.Appointment) bool {
		return a.ClientID == clientID && !a.StartTime.Before(from) && a.StartTime.Before(to)
	}), nil
}

func (r *appointmentRepository) ExistsActiveByClientAt(ctx context.Context, clientID int64, start time.Time) (bool, error) {
	return r.count(func(a *entities.Appointment) bool {
		return a.ClientID == clientID && a.StartTime.Equal(start)
	}) > 0, nil
}

func (r *appointmentRepository) ListActiveAt(ctx context.Context, start time.Time) ([]*entities.Appointment, error) {
	return sortedAppointments(r.data.appointments, func(a *entities.Appointment) bool {
		return a.IsActive() && a.StartTime.Equal(start)
	}), nil
}

func (r *appointmentRepository) List(ctx context.Context, filter repositories.AppointmentFilter) ([]*entities.Appointment, error) {
	out := sortedAppointments(r.data.appointments, func(a *entities.Appointment) bool {
		if filter.ClientID != nil && a.ClientID != *filter.ClientID {
			return false
		}
		if filter.Status != "" && a.Status != filter.Status {
			return false
		}
		if filter.From != nil && a.StartTime.Before(*filter.From) {
			return false
		}
		if filter.To != nil && !a.StartTime.Before(*filter.To) {
			return false
		}
		return true
	})
	sort.SliceStable(out, func(i, j int) bool { return out[i].StartTime.Before(out[j].StartTime) })

	if filter.Offset > 0 {
		if filter.Offset >= len(out) {
			return []*entities.Appointment{}, nil
		}
		out = out[filter.Offset:]
	}
	if filter.Limit > 0 && filter.Limit < len(out) {
		out = out[:filter.Limit]
	}
	return out, nil
}

func (r *appointmentRepository) DeleteBetween(ctx context.Context, from, to time.Time) (int64, error) {
	var deleted int64
	for id, a := range r.data.appointments {
		if !a.StartTime.Before(from) && a.StartTime.Before(to) {
			delete(r.data.appointments, id)
			deleted++
		}
	}
	return deleted, nil
}

type clientRepository struct {
	data *dataset
	now  func() time.Time
}

func (r *clientRepository) GetByID(ctx context.Context, id int64) (*entities.Client, error) {
	c, ok := r.data.clients[id]
	if !ok {
		return nil, apperrors.NewNotFoundError(fmt.Sprintf("client with id %d not found", id))
	}
	return copyClient(c), nil
}

func (r *clientRepository) ListWithDefaultSlots(ctx context.Context) ([]*entities.Client, error) {
	var out []*entities.Client
	for _, c := range r.data.clients {
		if len(c.DefaultSlots) > 0 {
			out = append(out, copyClient(c))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *clientRepository) AdjustCredits(ctx context.Context, id int64, delta int) (int, error) {
	c, ok := r.data.clients[id]
	if !ok {
		return 0, apperrors.NewNotFoundError(fmt.Sprintf("client with id %d not found", id))
	}
	if c.Credits+delta < 0 {
		return c.Credits, apperrors.NewQuotaExceededError(fmt.Sprintf("Client has %d workout credits.", c.Credits))
	}
	c.Credits += delta
	c.UpdatedAt = r.now()
	return c.Credits, nil
}

type trainerRepository struct {
	data *dataset
}

func (r *trainerRepository) GetByID(ctx context.Context, id int64) (*entities.Trainer, error) {
	t, ok := r.data.trainers[id]
	if !ok {
		return nil, apperrors.NewNotFoundError(fmt.Sprintf("trainer with id %d not found", id))
	}
	return copyTrainer(t), nil
}

func (r *trainerRepository) List(ctx context.Context) ([]*entities.Trainer, error) {
	out := make([]*entities.Trainer, 0, len(r.data.trainers))
	for _, t := range r.data.trainers {
		out = append(out, copyTrainer(t))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

type notificationRepository struct {
	data *dataset
}

func (r *notificationRepository) Create(ctx context.Context, notification *entities.Notification) error {
	if _, exists := r.data.notifications[notification.ID]; exists {
		return apperrors.NewConflictError(fmt.Sprintf("notification %s already exists", notification.ID))
	}
	stored := *notification
	r.data.notifications[stored.ID] = &stored
	return nil
}

func (r *notificationRepository) UpdateDelivery(ctx context.Context, notification *entities.Notification) error {
	stored, ok := r.data.notifications[notification.ID]
	if !ok {
		return apperrors.NewNotFoundError(fmt.Sprintf("notification with id %s not found", notification.ID))
	}
	stored.Status = notification.Status
	stored.MessageID = notification.MessageID
	stored.ErrorMessage = notification.ErrorMessage
	stored.SentAt = notification.SentAt
	return nil
}

func (r *notificationRepository) ListByClient(ctx context.Context, clientID int64) ([]*entities.Notification, error) {
	out := make([]*entities.Notification, 0)
	for _, n := range r.data.notifications {
		if n.ClientID == clientID {
			cp := *n
			out = append(out, &cp)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID > out[j].ID
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

func (r *notificationRepository) MarkRead(ctx context.Context, id string) (*entities.Notification, error) {
	n, ok := r.data.notifications[id]
	if !ok {
		return nil, apperrors.NewNotFoundError(fmt.Sprintf("notification with id %s not found", id))
	}
	n.IsRead = true
	cp := *n
	return &cp, nil
}

type settingsRepository struct {
	data *dataset
}

func (r *settingsRepository) Get(ctx context.Context, key string) (string, error) {
	value, ok := r.data.settings[key]
	if !ok {
		return "", apperrors.NewNotFoundError(fmt.Sprintf("setting %s not found", key))
	}
	return value, nil
}

func (r *settingsRepository) Set(ctx context.Context, key, value string) error {
	r.data.settings[key] = value
	return nil
}
