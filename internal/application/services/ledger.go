package services

import (
	"context"
	"time"

	"github.com/zatekoja/gymscheduler/internal/domain/entities"
	"github.com/zatekoja/gymscheduler/internal/domain/repositories"
	apperrors "github.com/zatekoja/gymscheduler/pkg/errors"
)

// The primitives below are the only code that mutates the ledger. Callers run
// them inside a unit of work after their own rule checks.

func bookAppointment(ctx context.Context, sess repositories.Session, client *entities.Client, trainerID int64, start time.Time) (*entities.Appointment, error) {
	appt := &entities.Appointment{
		TrainerID:   trainerID,
		ClientID:    client.ID,
		ClientName:  client.DisplayName(),
		ClientEmail: client.Email,
		StartTime:   start,
		Status:      entities.AppointmentStatusConfirmed,
	}
	if err := sess.Appointments().Create(ctx, appt); err != nil {
		return nil, err
	}
	remaining, err := sess.Clients().AdjustCredits(ctx, client.ID, -1)
	if err != nil {
		return nil, err
	}
	client.Credits = remaining
	return appt, nil
}

func cancelAppointment(ctx context.Context, sess repositories.Session, id int64) (*entities.Appointment, error) {
	appt, err := sess.Appointments().GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !appt.IsActive() {
		return nil, apperrors.NewValidationError("Appointment is already cancelled.")
	}
	appt.Status = entities.AppointmentStatusCancelled
	if err := sess.Appointments().Update(ctx, appt); err != nil {
		return nil, err
	}
	if _, err := sess.Clients().AdjustCredits(ctx, appt.ClientID, 1); err != nil {
		return nil, err
	}
	return appt, nil
}

func relocateAppointment(ctx context.Context, sess repositories.Session, appt *entities.Appointment, trainerID int64, start time.Time) error {
	appt.TrainerID = trainerID
	appt.StartTime = start
	return sess.Appointments().Update(ctx, appt)
}

// asAppError passes typed errors through and hides everything else behind a generic internal error.
func asAppError(err error, message string) error {
	if err == nil {
		return nil
	}
	if appErr, ok := apperrors.As(err); ok {
		return appErr
	}
	return apperrors.NewInternalError(message, err)
}
