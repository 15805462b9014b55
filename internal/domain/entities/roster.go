package entities

import (
	"encoding/json"
	"fmt"
	"io"
)

// Roster is the set of trainers and clients loaded by the seeder
type Roster struct {
	Trainers []*Trainer `json:"trainers"`
	Clients  []*Client  `json:"clients"`
}

type rosterClient struct {
	ID           int64         `json:"id"`
	Email        string        `json:"email"`
	Name         string        `json:"name"`
	PhoneNumber  *string       `json:"phone_number"`
	WeeklyLimit  *int          `json:"weekly_limit"`
	Credits      *int          `json:"credits"`
	DefaultSlots []DefaultSlot `json:"default_slots"`
}

// DecodeRoster reads a roster document. Missing weekly_limit and credits take
// the house defaults; slot positions follow document order.
func DecodeRoster(r io.Reader) (*Roster, error) {
	var doc struct {
		Trainers []*Trainer     `json:"trainers"`
		Clients  []rosterClient `json:"clients"`
	}
	if err := json.NewDecoder(r).Decode(&doc); err != nil {
		return nil, fmt.Errorf("failed to decode roster: %w", err)
	}

	roster := &Roster{Trainers: doc.Trainers}
	for _, t := range roster.Trainers {
		if t.ID <= 0 {
			return nil, fmt.Errorf("trainer %q needs a positive id", t.Name)
		}
		for i := range t.Shifts {
			s := &t.Shifts[i]
			s.TrainerID = t.ID
			if _, err := ClockMinutes(s.StartTime); err != nil {
				return nil, fmt.Errorf("trainer %d shift %d: %w", t.ID, i, err)
			}
			if _, err := ClockMinutes(s.EndTime); err != nil {
				return nil, fmt.Errorf("trainer %d shift %d: %w", t.ID, i, err)
			}
		}
	}

	for _, rc := range doc.Clients {
		if rc.ID <= 0 || rc.Email == "" {
			return nil, fmt.Errorf("client %q needs a positive id and an email", rc.Email)
		}
		c := &Client{
			ID:           rc.ID,
			Email:        rc.Email,
			Name:         rc.Name,
			PhoneNumber:  rc.PhoneNumber,
			WeeklyLimit:  DefaultWeeklyLimit,
			Credits:      DefaultCredits,
			DefaultSlots: rc.DefaultSlots,
		}
		if rc.WeeklyLimit != nil {
			c.WeeklyLimit = *rc.WeeklyLimit
		}
		if rc.Credits != nil {
			c.Credits = *rc.Credits
		}
		for i := range c.DefaultSlots {
			c.DefaultSlots[i].ClientID = c.ID
			c.DefaultSlots[i].Position = i
		}
		roster.Clients = append(roster.Clients, c)
	}
	return roster, nil
}
