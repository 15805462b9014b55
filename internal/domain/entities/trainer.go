package entities

import "time"

// Trainer represents a coach and the shifts they work
type Trainer struct {
	ID        int64     `json:"id" db:"id"`
	Name      string    `json:"name" db:"name"`
	Shifts    []Shift   `json:"shifts" db:"-"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// Shift is a trainer's recurring availability window
type Shift struct {
	ID        int64  `json:"id" db:"id"`
	TrainerID int64  `json:"trainer_id" db:"trainer_id"`
	DayOfWeek int    `json:"day_of_week" db:"day_of_week"`
	StartTime string `json:"start_time" db:"start_time"`
	EndTime   string `json:"end_time" db:"end_time"`
}

// Covers reports whether a session starting at minute (after midnight) on day falls in the shift.
// Malformed shift times never cover anything.
func (s Shift) Covers(day, minute int) bool {
	if s.DayOfWeek != day {
		return false
	}
	start, err := ClockMinutes(s.StartTime)
	if err != nil {
		return false
	}
	end, err := ClockMinutes(s.EndTime)
	if err != nil {
		return false
	}
	return start <= minute && minute < end
}
