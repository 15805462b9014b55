package entities

import (
	"encoding/json"
	"time"
)

// AppointmentStatus represents the status of an appointment
type AppointmentStatus string

const (
	AppointmentStatusConfirmed AppointmentStatus = "confirmed"
	AppointmentStatusCancelled AppointmentStatus = "cancelled"
)

// Appointment represents one client session with one trainer
type Appointment struct {
	ID          int64             `json:"id" db:"id"`
	TrainerID   int64             `json:"trainer_id" db:"trainer_id"`
	ClientID    int64             `json:"client_id" db:"client_id"`
	ClientName  string            `json:"client_name" db:"client_name"`
	ClientEmail string            `json:"client_email" db:"client_email"`
	StartTime   time.Time         `json:"start_time" db:"start_time"`
	Status      AppointmentStatus `json:"status" db:"status"`
	CreatedAt   time.Time         `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time         `json:"updated_at" db:"updated_at"`
}

// IsActive reports whether the appointment still occupies capacity.
func (a *Appointment) IsActive() bool {
	return a.Status != AppointmentStatusCancelled
}

// MarshalJSON renders start_time in the naive timestamp layout.
func (a Appointment) MarshalJSON() ([]byte, error) {
	type alias Appointment
	return json.Marshal(struct {
		alias
		StartTime string `json:"start_time"`
	}{
		alias:     alias(a),
		StartTime: FormatTimestamp(a.StartTime),
	})
}
