package entities

import (
	"time"

	"github.com/google/uuid"
)

// AppointmentEventType represents the type of ledger change
type AppointmentEventType string

const (
	AppointmentEventBooked      AppointmentEventType = "booked"
	AppointmentEventCancelled   AppointmentEventType = "cancelled"
	AppointmentEventRelocated   AppointmentEventType = "relocated"
	AppointmentEventWeekCleared AppointmentEventType = "week_cleared"
)

// AppointmentEvent is published after a ledger change commits
type AppointmentEvent struct {
	ID            string               `json:"id"`
	EventType     AppointmentEventType `json:"event_type"`
	AppointmentID int64                `json:"appointment_id,omitempty"`
	TrainerID     int64                `json:"trainer_id,omitempty"`
	ClientID      int64                `json:"client_id,omitempty"`
	StartTime     string               `json:"start_time,omitempty"`
	PreviousStart string               `json:"previous_start,omitempty"`
	WeekStart     string               `json:"week_start_date,omitempty"`
	Count         int64                `json:"count,omitempty"`
	Timestamp     time.Time            `json:"timestamp"`
}

// NewAppointmentEvent creates an event describing appt.
func NewAppointmentEvent(eventType AppointmentEventType, appt *Appointment) *AppointmentEvent {
	event := &AppointmentEvent{
		ID:        uuid.NewString(),
		EventType: eventType,
		Timestamp: time.Now().UTC(),
	}
	if appt != nil {
		event.AppointmentID = appt.ID
		event.TrainerID = appt.TrainerID
		event.ClientID = appt.ClientID
		event.StartTime = FormatTimestamp(appt.StartTime)
	}
	return event
}
