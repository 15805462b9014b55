package repositories

import (
	"context"
	"time"

	"github.com/zatekoja/gymscheduler/internal/domain/entities"
)

// AppointmentRepository defines the ledger operations. All counts ignore cancelled appointments.
type AppointmentRepository interface {
	// Create inserts a new appointment and assigns its ID
	Create(ctx context.Context, appointment *entities.Appointment) error

	// GetByID retrieves an appointment by ID
	GetByID(ctx context.Context, id int64) (*entities.Appointment, error)

	// Update persists trainer, start time and status of an appointment
	Update(ctx context.Context, appointment *entities.Appointment) error

	// CountActiveByTrainerAt counts a trainer's appointments at exactly start
	CountActiveByTrainerAt(ctx context.Context, trainerID int64, start time.Time) (int, error)

	// CountActiveAt counts all appointments at exactly start
	CountActiveAt(ctx context.Context, start time.Time) (int, error)

	// CountActiveTrainersAt counts distinct trainers booked at exactly start
	CountActiveTrainersAt(ctx context.Context, start time.Time) (int, error)

	// CountActiveByClientBetween counts a client's appointments in [from, to)
	CountActiveByClientBetween(ctx context.Context, clientID int64, from, to time.Time) (int, error)

	// ExistsActiveByClientAt reports whether the client is booked at exactly start
	ExistsActiveByClientAt(ctx context.Context, clientID int64, start time.Time) (bool, error)

	// ListActiveAt returns the appointments at exactly start in ascending ID order
	ListActiveAt(ctx context.Context, start time.Time) ([]*entities.Appointment, error)

	// List returns appointments ordered by start time
	List(ctx context.Context, filter AppointmentFilter) ([]*entities.Appointment, error)

	// DeleteBetween removes every appointment starting in [from, to)
	DeleteBetween(ctx context.Context, from, to time.Time) (int64, error)
}

// AppointmentFilter defines filters for listing appointments
type AppointmentFilter struct {
	ClientID *int64
	Status   entities.AppointmentStatus
	From     *time.Time
	To       *time.Time
	Limit    int
	Offset   int
}
