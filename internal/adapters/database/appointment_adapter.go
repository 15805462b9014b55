package database

import (
	"context"
	"fmt"
	"time"

	"github.com/doug-martin/goqu/v9"
	"github.com/doug-martin/goqu/v9/exp"

	"github.com/zatekoja/gymscheduler/internal/domain/entities"
	"github.com/zatekoja/gymscheduler/internal/domain/repositories"
	apperrors "github.com/zatekoja/gymscheduler/pkg/errors"
)

var appointmentColumns = []interface{}{
	"id", "trainer_id", "client_id", "client_name", "client_email",
	"start_time", "status", "created_at", "updated_at",
}

// AppointmentAdapter implements the AppointmentRepository interface
type AppointmentAdapter struct {
	db DBTX
}

// NewAppointmentAdapter creates a new appointment adapter
func NewAppointmentAdapter(db DBTX) *AppointmentAdapter {
	return &AppointmentAdapter{db: db}
}

func active() exp.Expression {
	return goqu.C("status").Neq(string(entities.AppointmentStatusCancelled))
}

// Create creates a new appointment
func (a *AppointmentAdapter) Create(ctx context.Context, appointment *entities.Appointment) error {
	record := goqu.Record{
		"trainer_id":   appointment.TrainerID,
		"client_id":    appointment.ClientID,
		"client_name":  appointment.ClientName,
		"client_email": appointment.ClientEmail,
		"start_time":   appointment.StartTime,
		"status":       string(appointment.Status),
	}

	query, args, err := build(dialect.Insert(tableAppointments).Rows(record).
		Returning("id", "created_at", "updated_at").Prepared(true))
	if err != nil {
		return err
	}

	var row struct {
		ID        int64     `db:"id"`
		CreatedAt time.Time `db:"created_at"`
		UpdatedAt time.Time `db:"updated_at"`
	}
	if err := a.db.GetContext(ctx, &row, query, args...); err != nil {
		return mapError(err, "", "failed to create appointment")
	}

	appointment.ID = row.ID
	appointment.CreatedAt = row.CreatedAt
	appointment.UpdatedAt = row.UpdatedAt
	return nil
}

// GetByID retrieves an appointment by ID
func (a *AppointmentAdapter) GetByID(ctx context.Context, id int64) (*entities.Appointment, error) {
	query, args, err := build(dialect.From(tableAppointments).Select(appointmentColumns...).
		Where(goqu.C("id").Eq(id)).Prepared(true))
	if err != nil {
		return nil, err
	}

	appointment := &entities.Appointment{}
	if err := a.db.GetContext(ctx, appointment, query, args...); err != nil {
		return nil, mapError(err, fmt.Sprintf("appointment with id %d not found", id), "failed to get appointment")
	}
	appointment.StartTime = entities.Naive(appointment.StartTime)
	return appointment, nil
}

// Update updates trainer, start time and status of an appointment
func (a *AppointmentAdapter) Update(ctx context.Context, appointment *entities.Appointment) error {
	appointment.UpdatedAt = time.Now().UTC()

	query, args, err := build(dialect.Update(tableAppointments).Set(goqu.Record{
		"trainer_id": appointment.TrainerID,
		"start_time": appointment.StartTime,
		"status":     string(appointment.Status),
		"updated_at": appointment.UpdatedAt,
	}).Where(goqu.C("id").Eq(appointment.ID)).Prepared(true))
	if err != nil {
		return err
	}

	result, err := a.db.ExecContext(ctx, query, args...)
	if err != nil {
		return mapError(err, "", "failed to update appointment")
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return apperrors.NewInternalError("failed to get rows affected", err)
	}
	if rows == 0 {
		return apperrors.NewNotFoundError(fmt.Sprintf("appointment with id %d not found", appointment.ID))
	}
	return nil
}

func (a *AppointmentAdapter) count(ctx context.Context, selectExpr interface{}, where ...exp.Expression) (int, error) {
	where = append(where, active())
	query, args, err := build(dialect.From(tableAppointments).Select(selectExpr).Where(where...).Prepared(true))
	if err != nil {
		return 0, err
	}

	var n int
	if err := a.db.GetContext(ctx, &n, query, args...); err != nil {
		return 0, mapError(err, "", "failed to count appointments")
	}
	return n, nil
}

// CountActiveByTrainerAt counts a trainer's appointments at exactly start
func (a *AppointmentAdapter) CountActiveByTrainerAt(ctx context.Context, trainerID int64, start time.Time) (int, error) {
	return a.count(ctx, goqu.COUNT("*"), goqu.C("trainer_id").Eq(trainerID), goqu.C("start_time").Eq(start))
}

// CountActiveAt counts all appointments at exactly start
func (a *AppointmentAdapter) CountActiveAt(ctx context.Context, start time.Time) (int, error) {
	return a.count(ctx, goqu.COUNT("*"), goqu.C("start_time").Eq(start))
}

// CountActiveTrainersAt counts distinct trainers booked at exactly start
func (a *AppointmentAdapter) CountActiveTrainersAt(ctx context.Context, start time.Time) (int, error) {
	return a.count(ctx, goqu.COUNT(goqu.DISTINCT("trainer_id")), goqu.C("start_time").Eq(start))
}

// CountActiveByClientBetween counts a client's appointments in [from, to)
func (a *AppointmentAdapter) CountActiveByClientBetween(ctx context.Context, clientID int64, from, to time.Time) (int, error) {
	return a.count(ctx, goqu.COUNT("*"),
		goqu.C("client_id").Eq(clientID),
		goqu.C("start_time").Gte(from),
		goqu.C("start_time").Lt(to),
	)
}

// ExistsActiveByClientAt reports whether the client is booked at exactly start
func (a *AppointmentAdapter) ExistsActiveByClientAt(ctx context.Context, clientID int64, start time.Time) (bool, error) {
	n, err := a.count(ctx, goqu.COUNT("*"), goqu.C("client_id").Eq(clientID), goqu.C("start_time").Eq(start))
	return n > 0, err
}

// ListActiveAt returns the appointments at exactly start in ascending ID order
func (a *AppointmentAdapter) ListActiveAt(ctx context.Context, start time.Time) ([]*entities.Appointment, error) {
	ds := dialect.From(tableAppointments).Select(appointmentColumns...).
		Where(goqu.C("start_time").Eq(start), active()).
		Order(goqu.C("id").Asc())
	return a.selectAppointments(ctx, ds)
}

// List returns appointments matching filter ordered by start time
func (a *AppointmentAdapter) List(ctx context.Context, filter repositories.AppointmentFilter) ([]*entities.Appointment, error) {
	ds := dialect.From(tableAppointments).Select(appointmentColumns...)

	if filter.ClientID != nil {
		ds = ds.Where(goqu.C("client_id").Eq(*filter.ClientID))
	}
	if filter.Status != "" {
		ds = ds.Where(goqu.C("status").Eq(string(filter.Status)))
	}
	if filter.From != nil {
		ds = ds.Where(goqu.C("start_time").Gte(*filter.From))
	}
	if filter.To != nil {
		ds = ds.Where(goqu.C("start_time").Lt(*filter.To))
	}
	ds = ds.Order(goqu.C("start_time").Asc(), goqu.C("id").Asc())
	if filter.Limit > 0 {
		ds = ds.Limit(uint(filter.Limit))
	}
	if filter.Offset > 0 {
		ds = ds.Offset(uint(filter.Offset))
	}
	return a.selectAppointments(ctx, ds)
}

func (a *AppointmentAdapter) selectAppointments(ctx context.Context, ds *goqu.SelectDataset) ([]*entities.Appointment, error) {
	query, args, err := build(ds.Prepared(true))
	if err != nil {
		return nil, err
	}

	appointments := []*entities.Appointment{}
	if err := a.db.SelectContext(ctx, &appointments, query, args...); err != nil {
		return nil, mapError(err, "", "failed to list appointments")
	}
	for _, appt := range appointments {
		appt.StartTime = entities.Naive(appt.StartTime)
	}
	return appointments, nil
}

// DeleteBetween removes every appointment starting in [from, to)
func (a *AppointmentAdapter) DeleteBetween(ctx context.Context, from, to time.Time) (int64, error) {
	query, args, err := build(dialect.Delete(tableAppointments).Where(
		goqu.C("start_time").Gte(from),
		goqu.C("start_time").Lt(to),
	).Prepared(true))
	if err != nil {
		return 0, err
	}

	result, err := a.db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, mapError(err, "", "failed to delete appointments")
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return 0, apperrors.NewInternalError("failed to get rows affected", err)
	}
	return rows, nil
}

var _ repositories.AppointmentRepository = (*AppointmentAdapter)(nil)
