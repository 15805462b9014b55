package repositories

import "context"

// Session exposes repositories bound to one transaction.
type Session interface {
	Appointments() AppointmentRepository
	Clients() ClientRepository
	Trainers() TrainerRepository
	Notifications() NotificationRepository
	Settings() SettingsRepository
}

// UnitOfWork runs fn inside a transaction. The transaction commits when fn
// returns nil and rolls back otherwise; the error from fn is returned as is.
type UnitOfWork interface {
	Do(ctx context.Context, fn func(ctx context.Context, s Session) error) error
}
