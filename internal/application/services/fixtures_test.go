package services

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/zatekoja/gymscheduler/internal/adapters/memory"
	"github.com/zatekoja/gymscheduler/internal/domain/entities"
)

const testWeek = "2030-01-07"

var (
	testNow   = time.Date(2030, 1, 1, 8, 0, 0, 0, time.UTC)
	monday9   = time.Date(2030, 1, 7, 9, 0, 0, 0, time.UTC)
	monday17  = time.Date(2030, 1, 7, 17, 0, 0, 0, time.UTC)
	tuesday10 = time.Date(2030, 1, 8, 10, 0, 0, 0, time.UTC)
)

func shift(day int, start, end string) entities.Shift {
	return entities.Shift{DayOfWeek: day, StartTime: start, EndTime: end}
}

func slot(day int, start string) entities.DefaultSlot {
	return entities.DefaultSlot{DayOfWeek: day, StartTime: start}
}

func addTrainer(store *memory.Store, id int64, shifts ...entities.Shift) {
	for i := range shifts {
		shifts[i].ID = id*100 + int64(i)
		shifts[i].TrainerID = id
	}
	store.AddTrainer(&entities.Trainer{ID: id, Name: trainerName(id), Shifts: shifts})
}

func trainerName(id int64) string {
	return fmt.Sprintf("Coach %d", id)
}

func addClient(store *memory.Store, id int64, weeklyLimit, credits int, slots ...entities.DefaultSlot) {
	for i := range slots {
		slots[i].ClientID = id
		slots[i].Position = i
	}
	store.AddClient(&entities.Client{
		ID:           id,
		Email:        clientEmail(id),
		WeeklyLimit:  weeklyLimit,
		Credits:      credits,
		DefaultSlots: slots,
	})
}

func clientEmail(id int64) string {
	return fmt.Sprintf("client%d@gym.test", id)
}

func book(store *memory.Store, clientID, trainerID int64, start time.Time) int64 {
	return store.AddAppointment(&entities.Appointment{
		ClientID:    clientID,
		TrainerID:   trainerID,
		ClientEmail: clientEmail(clientID),
		StartTime:   start,
	})
}

func activeAt(store *memory.Store, ts time.Time) []*entities.Appointment {
	var out []*entities.Appointment
	for _, a := range store.Appointments() {
		if a.IsActive() && a.StartTime.Equal(ts) {
			out = append(out, a)
		}
	}
	return out
}

// assertCapacityInvariants checks trainer load and active trainer counts at every booked timestamp.
func assertCapacityInvariants(t *testing.T, store *memory.Store, limits CapacityLimits) {
	t.Helper()
	loads := make(map[time.Time]map[int64]int)
	for _, a := range store.Appointments() {
		if !a.IsActive() {
			continue
		}
		if loads[a.StartTime] == nil {
			loads[a.StartTime] = make(map[int64]int)
		}
		loads[a.StartTime][a.TrainerID]++
	}
	for ts, byTrainer := range loads {
		require.LessOrEqual(t, len(byTrainer), limits.MaxActiveTrainers, "active trainers at %s", ts)
		for trainer, load := range byTrainer {
			require.LessOrEqual(t, load, limits.TrainerCapacity, "trainer %d at %s", trainer, ts)
		}
	}
}

type mockMessenger struct {
	mock.Mock
}

func (m *mockMessenger) SendText(ctx context.Context, to, body string) (string, error) {
	args := m.Called(ctx, to, body)
	return args.String(0), args.Error(1)
}

type recordingBus struct {
	mu     sync.Mutex
	events []*entities.AppointmentEvent
}

func (b *recordingBus) Publish(ctx context.Context, channel string, event *entities.AppointmentEvent) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.events = append(b.events, event)
	return nil
}

func (b *recordingBus) Subscribe(ctx context.Context, channel string) (<-chan *entities.AppointmentEvent, error) {
	return nil, nil
}

func (b *recordingBus) Close() error { return nil }

func (b *recordingBus) types() []entities.AppointmentEventType {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]entities.AppointmentEventType, 0, len(b.events))
	for _, e := range b.events {
		out = append(out, e.EventType)
	}
	return out
}
