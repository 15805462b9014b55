package entities

// Failure reasons recorded by the scheduler.
const (
	ReasonNoTrainer     = "no available trainer / gym busy"
	ReasonQuotaExceeded = "weekly limit reached"
	ReasonNoCredits     = "no workout credits"
	ReasonInvalidSlot   = "invalid default slot"
)

// FailedAssignment is one (client, slot) pair the scheduler could not book
type FailedAssignment struct {
	ClientID  int64  `json:"client_id"`
	Client    string `json:"client"`
	Slot      string `json:"slot"`
	Timestamp string `json:"timestamp,omitempty"`
	Reason    string `json:"reason"`
}

// ScheduleReport summarises one auto-schedule run
type ScheduleReport struct {
	WeekStart           string             `json:"week_start_date"`
	SuccessCount        int                `json:"success_count"`
	FailedAssignments   []FailedAssignment `json:"failed_assignments"`
	NonCriticalFailures []FailedAssignment `json:"non_critical_failures"`
	TotalFailures       int                `json:"total_failures"`
}

// ResolutionDetail describes one successful relocation
type ResolutionDetail struct {
	ClientID           int64  `json:"client_id"`
	Client             string `json:"client"`
	Slot               string `json:"slot"`
	AppointmentID      int64  `json:"appointment_id"`
	TrainerID          int64  `json:"trainer_id"`
	Timestamp          string `json:"timestamp"`
	MovedAppointmentID int64  `json:"moved_appointment_id"`
	MovedClientID      int64  `json:"moved_client_id"`
	MovedClient        string `json:"moved_client"`
	MovedToTrainerID   int64  `json:"moved_to_trainer_id"`
	MovedToTimestamp   string `json:"moved_to_timestamp"`
}

// ResolveReport summarises one auto-resolve run
type ResolveReport struct {
	WeekStart     string             `json:"week_start_date"`
	ResolvedCount int                `json:"resolved_count"`
	Details       []ResolutionDetail `json:"details"`
}
