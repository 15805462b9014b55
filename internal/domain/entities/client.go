package entities

import (
	"fmt"
	"time"
)

const (
	// DefaultWeeklyLimit applies to clients created without an explicit limit.
	DefaultWeeklyLimit = 3
	// DefaultCredits is the starting balance of a new client.
	DefaultCredits = 10
)

// Client is a gym member with a weekly quota, a credit balance and recurring preferences
type Client struct {
	ID           int64         `json:"id" db:"id"`
	Email        string        `json:"email" db:"email"`
	Name         string        `json:"name" db:"name"`
	PhoneNumber  *string       `json:"phone_number,omitempty" db:"phone_number"`
	WeeklyLimit  int           `json:"weekly_limit" db:"weekly_limit"`
	Credits      int           `json:"credits" db:"credits"`
	DefaultSlots []DefaultSlot `json:"default_slots" db:"-"`
	CreatedAt    time.Time     `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time     `json:"updated_at" db:"updated_at"`
}

// DisplayName falls back to the local part of the email.
func (c *Client) DisplayName() string {
	if c.Name != "" {
		return c.Name
	}
	for i, r := range c.Email {
		if r == '@' {
			return c.Email[:i]
		}
	}
	return c.Email
}

// DefaultSlot is a client's recurring booking preference
type DefaultSlot struct {
	ID        int64  `json:"id" db:"id"`
	ClientID  int64  `json:"client_id" db:"client_id"`
	DayOfWeek int    `json:"day_of_week" db:"day_of_week"`
	StartTime string `json:"start_time" db:"start_time"`
	Position  int    `json:"position" db:"position"`
}

// Label renders the slot as "Monday 09:00".
func (s DefaultSlot) Label() string {
	return fmt.Sprintf("%s %s", DayName(s.DayOfWeek), s.StartTime)
}

// SameAs reports whether both slots describe the same recurring time.
func (s DefaultSlot) SameAs(other DefaultSlot) bool {
	return s.DayOfWeek == other.DayOfWeek && s.StartTime == other.StartTime
}

// Timestamp resolves the slot inside the week starting at weekStart.
func (s DefaultSlot) Timestamp(weekStart time.Time) (time.Time, error) {
	return SlotTimestamp(weekStart, s.DayOfWeek, s.StartTime)
}
