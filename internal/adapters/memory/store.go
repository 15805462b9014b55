package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/zatekoja/gymscheduler/internal/domain/entities"
	"github.com/zatekoja/gymscheduler/internal/domain/repositories"
)

// Store is an in-process unit of work. Each Do call works on a private copy of
// the data that replaces the shared state only when fn succeeds, so a failed
// unit leaves nothing behind. Units are serialized; fn must not call Do again.
type Store struct {
	mu   sync.Mutex
	data *dataset
	now  func() time.Time
}

type dataset struct {
	clients           map[int64]*entities.Client
	trainers          map[int64]*entities.Trainer
	appointments      map[int64]*entities.Appointment
	notifications     map[string]*entities.Notification
	settings          map[string]string
	nextAppointmentID int64
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{
		data: &dataset{
			clients:       make(map[int64]*entities.Client),
			trainers:      make(map[int64]*entities.Trainer),
			appointments:  make(map[int64]*entities.Appointment),
			notifications: make(map[string]*entities.Notification),
			settings:      make(map[string]string),
		},
		now: time.Now,
	}
}

// Do implements repositories.UnitOfWork.
func (s *Store) Do(ctx context.Context, fn func(ctx context.Context, sess repositories.Session) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}

	work := s.data.clone()
	if err := fn(ctx, &session{data: work, now: s.now}); err != nil {
		return err
	}
	s.data = work
	return nil
}

// AddClient registers or replaces a client.
func (s *Store) AddClient(client *entities.Client) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data.clients[client.ID] = copyClient(client)
}

// AddTrainer registers or replaces a trainer.
func (s *Store) AddTrainer(trainer *entities.Trainer) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data.trainers[trainer.ID] = copyTrainer(trainer)
}

// AddAppointment inserts an appointment without any rule checks and returns its ID.
func (s *Store) AddAppointment(appt *entities.Appointment) int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	stored := *appt
	if stored.ID == 0 {
		s.data.nextAppointmentID++
		stored.ID = s.data.nextAppointmentID
	} else if stored.ID > s.data.nextAppointmentID {
		s.data.nextAppointmentID = stored.ID
	}
	if stored.Status == "" {
		stored.Status = entities.AppointmentStatusConfirmed
	}
	s.data.appointments[stored.ID] = &stored
	return stored.ID
}

// Client returns a copy of the stored client or nil.
func (s *Store) Client(id int64) *entities.Client {
	s.mu.Lock()
	defer s.mu.Unlock()
	if c, ok := s.data.clients[id]; ok {
		return copyClient(c)
	}
	return nil
}

// Appointments returns copies of every stored appointment in ID order.
func (s *Store) Appointments() []*entities.Appointment {
	s.mu.Lock()
	defer s.mu.Unlock()
	return sortedAppointments(s.data.appointments, func(*entities.Appointment) bool { return true })
}

// Notifications returns copies of every stored notification, oldest first.
func (s *Store) Notifications() []*entities.Notification {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*entities.Notification, 0, len(s.data.notifications))
	for _, n := range s.data.notifications {
		cp := *n
		out = append(out, &cp)
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out
}

func (d *dataset) clone() *dataset {
	cp := &dataset{
		clients:           make(map[int64]*entities.Client, len(d.clients)),
		trainers:          make(map[int64]*entities.Trainer, len(d.trainers)),
		appointments:      make(map[int64]*entities.Appointment, len(d.appointments)),
		notifications:     make(map[string]*entities.Notification, len(d.notifications)),
		settings:          make(map[string]string, len(d.settings)),
		nextAppointmentID: d.nextAppointmentID,
	}
	for id, c := range d.clients {
		cp.clients[id] = copyClient(c)
	}
	for id, t := range d.trainers {
		cp.trainers[id] = copyTrainer(t)
	}
	for id, a := range d.appointments {
		appt := *a
		cp.appointments[id] = &appt
	}
	for id, n := range d.notifications {
		notification := *n
		cp.notifications[id] = &notification
	}
	for k, v := range d.settings {
		cp.settings[k] = v
	}
	return cp
}

func copyClient(c *entities.Client) *entities.Client {
	cp := *c
	cp.DefaultSlots = append([]entities.DefaultSlot(nil), c.DefaultSlots...)
	return &cp
}

func copyTrainer(t *entities.Trainer) *entities.Trainer {
	cp := *t
	cp.Shifts = append([]entities.Shift(nil), t.Shifts...)
	return &cp
}

func sortedAppointments(all map[int64]*entities.Appointment, keep func(*entities.Appointment) bool) []*entities.Appointment {
	out := make([]*entities.Appointment, 0)
	for _, a := range all {
		if keep(a) {
			cp := *a
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

type session struct {
	data *dataset
	now  func() time.Time
}

func (s *session) Appointments() repositories.AppointmentRepository {
	return &appointmentRepository{data: s.data, now: s.now}
}

func (s *session) Clients() repositories.ClientRepository {
	return &clientRepository{data: s.data, now: s.now}
}

func (s *session) Trainers() repositories.TrainerRepository {
	return &trainerRepository{data: s.data}
}

func (s *session) Notifications() repositories.NotificationRepository {
	return &notificationRepository{data: s.data}
}

func (s *session) Settings() repositories.SettingsRepository {
	return &settingsRepository{data: s.data}
}

// Seed loads a roster, replacing clients and trainers with the same IDs.
func (s *Store) Seed(roster *entities.Roster) {
	for _, t := range roster.Trainers {
		s.AddTrainer(t)
	}
	for _, c := range roster.Clients {
		s.AddClient(c)
	}
}
